package contract

import "fmt"

// Concrete is an interaction projected for one mode. Cells are gone: every
// value is a literal, or in producer mode possibly a Match to assert with.
// Exactly one of HTTP and Messaging is set.
type Concrete struct {
	Mode        Mode
	Name        string
	Description string
	Ignored     bool
	InProgress  bool
	HTTP        *ConcreteHTTP
	Messaging   *ConcreteMessaging
}

type ConcreteHTTP struct {
	Request  ConcreteRequest
	Response ConcreteResponse
}

type ConcreteRequest struct {
	Method     Node
	URL        Node
	Headers    Headers
	Body       Node
	Assertions []Assertion
}

type ConcreteResponse struct {
	Status     Node
	Headers    Headers
	Body       Node
	Assertions []Assertion
}

type ConcreteMessaging struct {
	Input  ConcreteMessage
	Output ConcreteMessage
}

// ConcreteMessage is a resolved message input or output; Channel is the
// source or destination name.
type ConcreteMessage struct {
	Channel    string
	Headers    Headers
	Body       Node
	Assertions []Assertion
}

func (c *Concrete) Equal(other *Concrete) bool {
	if c == nil || other == nil {
		return c == other
	}
	return c.Mode == other.Mode &&
		c.Name == other.Name &&
		c.Description == other.Description &&
		c.Ignored == other.Ignored &&
		c.InProgress == other.InProgress &&
		c.HTTP.Equal(other.HTTP) &&
		c.Messaging.Equal(other.Messaging)
}

func (h *ConcreteHTTP) Equal(other *ConcreteHTTP) bool {
	if h == nil || other == nil {
		return h == other
	}
	return Equal(h.Request.Method, other.Request.Method) &&
		Equal(h.Request.URL, other.Request.URL) &&
		h.Request.Headers.Equal(other.Request.Headers) &&
		Equal(h.Request.Body, other.Request.Body) &&
		assertionsEqual(h.Request.Assertions, other.Request.Assertions) &&
		Equal(h.Response.Status, other.Response.Status) &&
		h.Response.Headers.Equal(other.Response.Headers) &&
		Equal(h.Response.Body, other.Response.Body) &&
		assertionsEqual(h.Response.Assertions, other.Response.Assertions)
}

func (m *ConcreteMessaging) Equal(other *ConcreteMessaging) bool {
	if m == nil || other == nil {
		return m == other
	}
	return m.Input.Equal(other.Input) && m.Output.Equal(other.Output)
}

func (m ConcreteMessage) Equal(other ConcreteMessage) bool {
	return m.Channel == other.Channel &&
		m.Headers.Equal(other.Headers) &&
		Equal(m.Body, other.Body) &&
		assertionsEqual(m.Assertions, other.Assertions)
}

func assertionsEqual(a, b []Assertion) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// Part returns the body and assertions of one part of c: request or
// response for HTTP, input or output for messaging. An empty name selects the
// response or the output.
func (c *Concrete) Part(name string) (Node, []Assertion, error) {
	switch {
	case c.HTTP != nil && (name == "" || name == "response"):
		return c.HTTP.Response.Body, c.HTTP.Response.Assertions, nil
	case c.HTTP != nil && name == "request":
		return c.HTTP.Request.Body, c.HTTP.Request.Assertions, nil
	case c.Messaging != nil && (name == "" || name == "output"):
		return c.Messaging.Output.Body, c.Messaging.Output.Assertions, nil
	case c.Messaging != nil && name == "input":
		return c.Messaging.Input.Body, c.Messaging.Input.Assertions, nil
	}
	return nil, nil, fmt.Errorf("interaction '%s' has no %s part", c.Name, name)
}
