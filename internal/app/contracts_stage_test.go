package app

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/form3tech-oss/pact-contracts/pkg/pactcontracts"
	"github.com/pact-foundation/pact-go/dsl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

type ContractStage struct {
	t            *testing.T
	assert       *assert.Assertions
	require      *require.Assertions
	client       *pactcontracts.Client
	definition   []byte
	contentType  string
	stored       []pactcontracts.Interaction
	projection   json.RawMessage
	verification pactcontracts.Verification
	err          error
}

func NewContractStage(t *testing.T) (*ContractStage, *ContractStage, *ContractStage) {
	client := pactcontracts.New(adminURL.String())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, client.WaitReady(ctx))

	s := &ContractStage{
		t:           t,
		assert:      assert.New(t),
		require:     require.New(t),
		client:      client,
		contentType: "application/json",
	}

	s.t.Cleanup(func() {
		s.assert.NoError(client.Reset())
	})

	return s, s, s
}

func (s *ContractStage) and() *ContractStage {
	return s
}

func (s *ContractStage) a_pact_go_interaction_for_getting_a_user() *ContractStage {
	interaction := (&dsl.Interaction{}).
		UponReceiving("get user").
		WithRequest(dsl.Request{
			Method: "GET",
			Path:   dsl.Term("/users/1", `/users/\d+`),
		}).
		WillRespondWith(dsl.Response{
			Status:  200,
			Headers: dsl.MapMatcher{"Content-Type": dsl.String("application/json")},
			Body: map[string]interface{}{
				"id":   dsl.Like(1),
				"name": dsl.Term("bob", "[a-z]+"),
			},
		})

	data, err := json.Marshal(interaction)
	s.require.NoError(err)
	s.definition = data
	return s
}

func (s *ContractStage) a_yaml_message() *ContractStage {
	s.definition = []byte(`
description: user created
source: users
destination: mailer
metaData:
  contentType: application/json
contents:
  id: 1
  email: bob@example.com
matchingRules:
  body:
    $.email:
      matchers:
        - match: regex
          regex: .+@.+
`)
	s.contentType = "application/yaml"
	return s
}

func (s *ContractStage) an_invalid_interaction() *ContractStage {
	s.definition = []byte(`{"description": "nothing to see"}`)
	return s
}

func (s *ContractStage) the_interaction_is_stored() *ContractStage {
	stored, err := s.client.AddInteraction(s.definition, s.contentType)
	s.err = err
	if err == nil {
		s.stored = append(s.stored, stored)
	}
	return s
}

func (s *ContractStage) the_interaction_is_stored_again() *ContractStage {
	return s.the_interaction_is_stored()
}

func (s *ContractStage) the_projection_is_requested_for(mode string) *ContractStage {
	s.require.NotEmpty(s.stored)
	s.projection, s.err = s.client.Projection(s.stored[0].ID, mode)
	s.require.NoError(s.err)
	return s
}

func (s *ContractStage) the_body_is_verified(body string) *ContractStage {
	s.require.NotEmpty(s.stored)
	s.verification, s.err = s.client.Verify(s.stored[0].ID, "", []byte(body))
	s.require.NoError(s.err)
	return s
}

func (s *ContractStage) the_interaction_is_stored_once() *ContractStage {
	s.require.NoError(s.err)
	s.require.Len(s.stored, 2)
	s.assert.False(s.stored[0].Duplicate)
	s.assert.True(s.stored[1].Duplicate)
	s.assert.Equal(s.stored[0].ID, s.stored[1].ID)

	all, err := s.client.Interactions()
	s.require.NoError(err)
	s.assert.Len(all, 1)
	return s
}

func (s *ContractStage) the_interaction_kind_is(kind string) *ContractStage {
	s.require.NoError(s.err)
	s.require.NotEmpty(s.stored)
	s.assert.Equal(kind, s.stored[0].Kind)
	return s
}

func (s *ContractStage) the_interaction_is_rejected() *ContractStage {
	var apiErr *pactcontracts.Error
	s.require.ErrorAs(s.err, &apiErr)
	s.assert.Equal(400, apiErr.StatusCode)
	s.assert.Contains(apiErr.Message, "no request or contents defined")
	return s
}

func (s *ContractStage) the_projection_has(path, value string) *ContractStage {
	s.assert.Equal(value, gjson.GetBytes(s.projection, path).String(), string(s.projection))
	return s
}

func (s *ContractStage) the_projection_has_no(path string) *ContractStage {
	s.assert.False(gjson.GetBytes(s.projection, path).Exists(), string(s.projection))
	return s
}

func (s *ContractStage) the_body_is_valid() *ContractStage {
	s.assert.True(s.verification.Valid, "%v", s.verification.Violations)
	s.assert.Empty(s.verification.Violations)
	return s
}

func (s *ContractStage) the_body_has_violations(n int) *ContractStage {
	s.assert.False(s.verification.Valid)
	s.assert.Len(s.verification.Violations, n, "%v", s.verification.Violations)
	return s
}
