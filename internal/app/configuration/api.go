package configuration

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"

	"github.com/form3tech-oss/pact-contracts/internal/app/catalog"
	"github.com/form3tech-oss/pact-contracts/internal/app/contract"
	"github.com/form3tech-oss/pact-contracts/internal/app/httpresponse"
	"github.com/form3tech-oss/pact-contracts/internal/app/pactfile"
	"github.com/form3tech-oss/pact-contracts/internal/app/pattern"
	"github.com/form3tech-oss/pact-contracts/pkg/pactcontracts"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	log "github.com/sirupsen/logrus"
)

type adminAPI struct {
	catalog  *catalog.Catalog
	resolver *contract.Resolver
}

// NewAdminAPI builds the admin API routes over store.
func NewAdminAPI(config Config, store *catalog.Catalog) (*echo.Echo, error) {
	resolver, err := config.Resolver()
	if err != nil {
		return nil, err
	}
	api := &adminAPI{catalog: store, resolver: resolver}

	adminServer := echo.New()
	adminServer.HideBanner = true
	adminServer.Use(middleware.Recover())

	adminServer.GET("/ready", readyHandler)
	adminServer.GET("/patterns", patternsHandler)
	adminServer.POST("/pacts", api.postPactHandler)
	adminServer.GET("/interactions", api.getInteractionsHandler)
	adminServer.POST("/interactions", api.postInteractionHandler)
	adminServer.DELETE("/interactions", api.deleteInteractionsHandler)
	adminServer.GET("/interactions/:id", api.getInteractionHandler)
	adminServer.POST("/interactions/:id/verification", api.postVerificationHandler)

	return adminServer, nil
}

// ServeAdminAPI starts the admin API on the configured port.
func ServeAdminAPI(config Config) (*http.Server, error) {
	e, err := NewAdminAPI(config, &catalog.Catalog{})
	if err != nil {
		return nil, err
	}
	s, err := newServer(config, e)
	if err != nil {
		return nil, err
	}

	log.Infof("serving admin api on %s", s.Addr)
	go listen(s, config)
	return s, nil
}

func readyHandler(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

func patternsHandler(c echo.Context) error {
	var patterns []pactcontracts.Pattern
	for _, kind := range pattern.Kinds() {
		m := pattern.MustResolve(kind)
		patterns = append(patterns, pactcontracts.Pattern{
			Kind:       string(kind),
			Expression: m.Expression(),
			ValueType:  m.ValueType().String(),
			Example:    m.Example(string(kind)),
		})
	}
	return c.JSON(http.StatusOK, patterns)
}

func (a *adminAPI) postInteractionHandler(c echo.Context) error {
	data, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, httpresponse.Errorf("unable to read interaction. %s", err.Error()))
	}

	load := pactfile.Load
	if isYAML(c.Request().Header.Get(echo.HeaderContentType)) {
		load = pactfile.LoadYAML
	}

	interaction, err := load(data)
	if err != nil {
		return c.JSON(http.StatusBadRequest, httpresponse.Errorf("unable to load interaction. %s", err.Error()))
	}

	stored := a.store(interaction)
	if stored.Duplicate {
		return c.JSON(http.StatusOK, stored)
	}
	return c.JSON(http.StatusCreated, stored)
}

func (a *adminAPI) postPactHandler(c echo.Context) error {
	data, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, httpresponse.Errorf("unable to read pact. %s", err.Error()))
	}

	interactions, err := pactfile.LoadPact(data)
	if err != nil {
		return c.JSON(http.StatusBadRequest, httpresponse.Errorf("unable to load pact. %s", err.Error()))
	}

	stored := make([]pactcontracts.Interaction, 0, len(interactions))
	for _, i := range interactions {
		stored = append(stored, a.store(i))
	}
	return c.JSON(http.StatusCreated, stored)
}

func (a *adminAPI) store(i *contract.Interaction) pactcontracts.Interaction {
	id, duplicate := a.catalog.Store(i)
	if duplicate {
		log.Infof("interaction '%s' already stored as %s", i.Name(), id)
	} else {
		log.Infof("stored interaction '%s' as %s", i.Name(), id)
	}
	return pactcontracts.Interaction{ID: id, Name: i.Name(), Kind: i.Kind().String(), Duplicate: duplicate}
}

func (a *adminAPI) getInteractionsHandler(c echo.Context) error {
	records := a.catalog.All()
	interactions := make([]pactcontracts.Interaction, 0, len(records))
	for _, r := range records {
		interactions = append(interactions, pactcontracts.Interaction{
			ID:   r.ID,
			Name: r.Interaction.Name(),
			Kind: r.Interaction.Kind().String(),
		})
	}
	return c.JSON(http.StatusOK, interactions)
}

func (a *adminAPI) deleteInteractionsHandler(c echo.Context) error {
	log.Infof("clearing all interactions")
	a.catalog.Clear()
	return c.NoContent(http.StatusNoContent)
}

func (a *adminAPI) getInteractionHandler(c echo.Context) error {
	id := c.Param("id")
	interaction, ok := a.catalog.Load(id)
	if !ok {
		return c.JSON(http.StatusNotFound, httpresponse.Errorf("interaction %s not found", id))
	}

	mode := contract.Consumer
	if m := c.QueryParam("mode"); m != "" {
		var err error
		if mode, err = contract.ParseMode(m); err != nil {
			return c.JSON(http.StatusBadRequest, httpresponse.Errorf("invalid mode. %s", err.Error()))
		}
	}

	concrete, err := a.resolver.Resolve(interaction, mode)
	if err != nil {
		return c.JSON(http.StatusUnprocessableEntity, httpresponse.Errorf("unable to resolve interaction %s. %s", id, err.Error()))
	}

	doc, err := pactfile.Export(concrete)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, httpresponse.Errorf("unable to export interaction %s. %s", id, err.Error()))
	}
	return c.JSONBlob(http.StatusOK, doc)
}

func (a *adminAPI) postVerificationHandler(c echo.Context) error {
	id := c.Param("id")
	interaction, ok := a.catalog.Load(id)
	if !ok {
		return c.JSON(http.StatusNotFound, httpresponse.Errorf("interaction %s not found", id))
	}

	var actual interface{}
	decoder := json.NewDecoder(c.Request().Body)
	decoder.UseNumber()
	if err := decoder.Decode(&actual); err != nil {
		return c.JSON(http.StatusBadRequest, httpresponse.Errorf("unable to parse body. %s", err.Error()))
	}

	concrete, err := a.resolver.Resolve(interaction, contract.Producer)
	if err != nil {
		return c.JSON(http.StatusUnprocessableEntity, httpresponse.Errorf("unable to resolve interaction %s. %s", id, err.Error()))
	}

	body, assertions, err := concrete.Part(c.QueryParam("part"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, httpresponse.Errorf("%s", err.Error()))
	}

	violations := contract.Verify(body, assertions, actual)
	for _, v := range violations {
		log.Infof("interaction %s: %s", id, v)
	}
	return c.JSON(http.StatusOK, pactcontracts.Verification{Valid: len(violations) == 0, Violations: violations})
}

func isYAML(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/yaml" || mediaType == "application/x-yaml" || mediaType == "text/yaml"
}
