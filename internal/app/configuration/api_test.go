package configuration

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/form3tech-oss/pact-contracts/internal/app/catalog"
	"github.com/form3tech-oss/pact-contracts/internal/app/contract"
	"github.com/form3tech-oss/pact-contracts/internal/app/httpresponse"
	"github.com/form3tech-oss/pact-contracts/internal/app/pattern"
	"github.com/form3tech-oss/pact-contracts/pkg/pactcontracts"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

const userInteraction = `{
	"description": "get user",
	"request": {"method": "GET", "path": "/users/1"},
	"response": {
	  "status": 200,
	  "headers": {"Content-Type": "application/json"},
	  "body": {"id": 1, "name": "bob"},
	  "matchingRules": {"$.body.id": {"match": "integer"}}
	}
  }`

func newTestAPI(t *testing.T) *echo.Echo {
	t.Helper()
	e, err := NewAdminAPI(Config{ConflictPolicy: "prefer-specific"}, &catalog.Catalog{})
	require.NoError(t, err)
	return e
}

func do(e *echo.Echo, method, target, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func postUser(t *testing.T, e *echo.Echo) pactcontracts.Interaction {
	t.Helper()
	rec := do(e, http.MethodPost, "/interactions", echo.MIMEApplicationJSON, userInteraction)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var stored pactcontracts.Interaction
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stored))
	return stored
}

func TestNewAdminAPIRejectsUnknownPolicy(t *testing.T) {
	_, err := NewAdminAPI(Config{ConflictPolicy: "coin-toss"}, &catalog.Catalog{})
	assert.Error(t, err)
}

func TestReady(t *testing.T) {
	rec := do(newTestAPI(t), http.MethodGet, "/ready", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPatterns(t *testing.T) {
	rec := do(newTestAPI(t), http.MethodGet, "/patterns", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var patterns []pactcontracts.Pattern
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &patterns))
	require.Len(t, patterns, len(pattern.Kinds()))
	for _, p := range patterns {
		m := pattern.MustResolve(pattern.Kind(p.Kind))
		assert.True(t, m.Matches(p.Example), "%s example %s", p.Kind, p.Example)
	}
}

func TestPostInteraction(t *testing.T) {
	e := newTestAPI(t)
	stored := postUser(t, e)
	assert.Equal(t, "get user", stored.Name)
	assert.Equal(t, contract.HTTP.String(), stored.Kind)
	assert.False(t, stored.Duplicate)

	rec := do(e, http.MethodPost, "/interactions", echo.MIMEApplicationJSON, userInteraction)
	require.Equal(t, http.StatusOK, rec.Code)
	var again pactcontracts.Interaction
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &again))
	assert.True(t, again.Duplicate)
	assert.Equal(t, stored.ID, again.ID)
}

func TestPostYAMLInteraction(t *testing.T) {
	e := newTestAPI(t)
	rec := do(e, http.MethodPost, "/interactions", "application/yaml", `
description: order shipped
source: warehouse
destination: notifications
contents:
  order: 12
`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, contract.Messaging.String(), gjson.Get(rec.Body.String(), "kind").String())
}

func TestPostInvalidInteraction(t *testing.T) {
	rec := do(newTestAPI(t), http.MethodPost, "/interactions", echo.MIMEApplicationJSON, `{"description": "x"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var apiErr httpresponse.APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
	assert.Contains(t, apiErr.ErrorMessage, "no request or contents defined")
}

func TestPostPact(t *testing.T) {
	e := newTestAPI(t)
	rec := do(e, http.MethodPost, "/pacts", echo.MIMEApplicationJSON, `{
		"consumer": {"name": "web"},
		"provider": {"name": "users"},
		"interactions": [`+userInteraction+`],
		"messages": [{"description": "user created", "contents": {"id": 1}}]
	  }`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var stored []pactcontracts.Interaction
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stored))
	require.Len(t, stored, 2)

	rec = do(e, http.MethodGet, "/interactions", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(2), gjson.Get(rec.Body.String(), "#").Int())
}

func TestGetInteractionProjections(t *testing.T) {
	e := newTestAPI(t)
	stored := postUser(t, e)

	rec := do(e, http.MethodGet, "/interactions/"+stored.ID, "", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, int64(1), gjson.Get(rec.Body.String(), "response.body.id").Int())
	assert.False(t, gjson.Get(rec.Body.String(), "response.matchingRules").Exists())

	rec = do(e, http.MethodGet, "/interactions/"+stored.ID+"?mode=producer", "", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "integer", gjson.Get(rec.Body.String(), `response.matchingRules.$\.body\.id.match`).String())

	rec = do(e, http.MethodGet, "/interactions/"+stored.ID+"?mode=sideways", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(e, http.MethodGet, "/interactions/unknown", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestVerification(t *testing.T) {
	e := newTestAPI(t)
	stored := postUser(t, e)

	tests := []struct {
		name       string
		body       string
		valid      bool
		violations int
	}{
		{name: "conforming body", body: `{"id": 42, "name": "bob"}`, valid: true},
		{name: "extra keys", body: `{"id": 42, "name": "bob", "age": 7}`, valid: true},
		{name: "id is not an integer", body: `{"id": "x", "name": "bob"}`, violations: 1},
		{name: "different name", body: `{"id": 1, "name": "alice"}`, violations: 1},
		{name: "missing name", body: `{"id": 1}`, violations: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(e, http.MethodPost, "/interactions/"+stored.ID+"/verification", echo.MIMEApplicationJSON, tt.body)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var v pactcontracts.Verification
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
			assert.Equal(t, tt.valid, v.Valid)
			assert.Len(t, v.Violations, tt.violations, "%v", v.Violations)
		})
	}
}

func TestVerificationErrors(t *testing.T) {
	e := newTestAPI(t)
	stored := postUser(t, e)

	rec := do(e, http.MethodPost, "/interactions/"+stored.ID+"/verification", echo.MIMEApplicationJSON, `{`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(e, http.MethodPost, "/interactions/"+stored.ID+"/verification?part=output", echo.MIMEApplicationJSON, `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(e, http.MethodPost, "/interactions/unknown/verification", echo.MIMEApplicationJSON, `{}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteInteractions(t *testing.T) {
	e := newTestAPI(t)
	stored := postUser(t, e)

	rec := do(e, http.MethodDelete, "/interactions", "", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(e, http.MethodGet, "/interactions/"+stored.ID, "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
