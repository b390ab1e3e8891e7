package pactcontracts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/pkg/errors"
)

const (
	ModeConsumer = "consumer"
	ModeProducer = "producer"
)

type Client struct {
	client http.Client
	url    string
}

func New(url string) *Client {
	return &Client{
		client: http.Client{
			Timeout: 30 * time.Second,
		},
		url: strings.TrimSuffix(url, "/"),
	}
}

func (c *Client) IsReady() error {
	res, err := c.client.Get(c.url + "/ready")
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("admin api not ready: %d", res.StatusCode)
	}
	return nil
}

// WaitReady polls the ready endpoint until it answers or ctx is done.
func (c *Client) WaitReady(ctx context.Context) error {
	err := retry.Do(c.IsReady,
		retry.Context(ctx),
		retry.Attempts(0),
		retry.DelayType(retry.FixedDelay),
		retry.Delay(100*time.Millisecond),
		retry.LastErrorOnly(true),
	)
	return errors.Wrap(err, "admin api readiness wait failed")
}

// AddInteraction stores a single pact interaction. contentType selects JSON
// or YAML.
func (c *Client) AddInteraction(definition []byte, contentType string) (Interaction, error) {
	var stored Interaction
	err := c.do(http.MethodPost, "/interactions", contentType, definition, &stored)
	return stored, err
}

// AddPact stores every interaction and message of a pact file.
func (c *Client) AddPact(pact []byte) ([]Interaction, error) {
	var stored []Interaction
	err := c.do(http.MethodPost, "/pacts", "application/json", pact, &stored)
	return stored, err
}

func (c *Client) Interactions() ([]Interaction, error) {
	var interactions []Interaction
	err := c.do(http.MethodGet, "/interactions", "", nil, &interactions)
	return interactions, err
}

func (c *Client) Patterns() ([]Pattern, error) {
	var patterns []Pattern
	err := c.do(http.MethodGet, "/patterns", "", nil, &patterns)
	return patterns, err
}

// Projection returns the pact document of interaction id rendered for mode.
func (c *Client) Projection(id, mode string) (json.RawMessage, error) {
	q := url.Values{}
	q.Add("mode", mode)

	var doc json.RawMessage
	err := c.do(http.MethodGet, "/interactions/"+url.PathEscape(id)+"?"+q.Encode(), "", nil, &doc)
	return doc, err
}

// Verify checks body against part of interaction id. An empty part checks
// the response or message output.
func (c *Client) Verify(id, part string, body []byte) (Verification, error) {
	path := "/interactions/" + url.PathEscape(id) + "/verification"
	if part != "" {
		q := url.Values{}
		q.Add("part", part)
		path += "?" + q.Encode()
	}

	var v Verification
	err := c.do(http.MethodPost, path, "application/json", body, &v)
	return v, err
}

func (c *Client) Reset() error {
	return c.do(http.MethodDelete, "/interactions", "", nil, nil)
}

func (c *Client) do(method, path, contentType string, body []byte, out interface{}) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequest(method, c.url+path, reader)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	res, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	responseBody, err := io.ReadAll(res.Body)
	if err != nil {
		return errors.Wrap(err, "failed to read response")
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return &Error{StatusCode: res.StatusCode, Message: errorMessage(responseBody)}
	}
	if out == nil || len(responseBody) == 0 {
		return nil
	}
	return errors.Wrap(json.Unmarshal(responseBody, out), "failed to decode response")
}

// Error is a failed admin API call.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("admin api returned %d: %s", e.StatusCode, e.Message)
}

func errorMessage(body []byte) string {
	var apiErr struct {
		ErrorMessage string `json:"error_message"`
	}
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.ErrorMessage != "" {
		return apiErr.ErrorMessage
	}
	return string(body)
}
