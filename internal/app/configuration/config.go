package configuration

import (
	"context"

	"github.com/form3tech-oss/pact-contracts/internal/app/contract"
	"github.com/pkg/errors"
	"github.com/sethvargo/go-envconfig"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	AdminPort      int    `env:"ADMIN_PORT,default=8080"`
	LogLevel       string `env:"LOG_LEVEL,default=info"`
	ConflictPolicy string `env:"MATCHER_CONFLICT_POLICY,default=prefer-specific"`
	TLSCertFile    string `env:"TLS_CERT_FILE"`
	TLSKeyFile     string `env:"TLS_KEY_FILE"`
	TLSCAFile      string `env:"TLS_CA_FILE"`
}

func NewFromEnv() (Config, error) {
	return newFromLookuper(envconfig.OsLookuper())
}

func newFromLookuper(l envconfig.Lookuper) (Config, error) {
	var config Config
	err := envconfig.ProcessWith(context.Background(), &config, l)
	if err != nil {
		return config, errors.Wrap(err, "process env config")
	}
	return config, nil
}

// Resolver builds a resolver using the configured matcher conflict policy.
func (c Config) Resolver() (*contract.Resolver, error) {
	policy, err := contract.ParseConflictPolicy(c.ConflictPolicy)
	if err != nil {
		return nil, err
	}
	return contract.NewResolver(contract.WithConflictPolicy(policy)), nil
}

func (c Config) ConfigureLogging() error {
	if c.LogLevel == "" {
		return nil
	}
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return errors.Wrapf(err, "invalid log level '%s'", c.LogLevel)
	}
	log.SetLevel(level)
	return nil
}
