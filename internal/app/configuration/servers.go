package configuration

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net/http"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

func newServer(config Config, handler *echo.Echo) (*http.Server, error) {
	s := &http.Server{
		Addr:    fmt.Sprintf(":%d", config.AdminPort),
		Handler: handler,
	}

	if config.TLSCAFile != "" {
		if config.TLSCertFile == "" || config.TLSKeyFile == "" {
			return nil, errors.New("cannot run in mTLS mode without TLS cert and key")
		}

		caCertFile, err := os.ReadFile(config.TLSCAFile)
		if err != nil {
			return nil, errors.Wrap(err, "error reading CA certificate")
		}
		certPool := x509.NewCertPool()
		if !certPool.AppendCertsFromPEM(caCertFile) {
			return nil, fmt.Errorf("no certificates found in %s", config.TLSCAFile)
		}
		s.TLSConfig = &tls.Config{
			ClientAuth: tls.RequireAndVerifyClientCert,
			ClientCAs:  certPool,
			MinVersion: tls.VersionTLS12,
		}
	}

	return s, nil
}

func listen(s *http.Server, config Config) {
	var err error
	if config.TLSCertFile != "" && config.TLSKeyFile != "" {
		err = s.ListenAndServeTLS(config.TLSCertFile, config.TLSKeyFile)
	} else {
		err = s.ListenAndServe()
	}
	if err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
