package contract

import (
	"github.com/pkg/errors"
)

type metadata struct {
	name        string
	description string
	ignored     bool
	inProgress  bool
}

// valueConverter remembers the first conversion failure so that fluent
// builder calls can defer error handling to Build.
type valueConverter struct {
	err error
}

func (c *valueConverter) node(field string, v interface{}) Node {
	n, err := Literal(v)
	if err != nil && c.err == nil {
		c.err = errors.Wrapf(err, "invalid %s", field)
	}
	return n
}

func (c *valueConverter) optional(field string, v interface{}) Node {
	if v == nil {
		return nil
	}
	return c.node(field, v)
}

func finish(ms BodyMatchers, field string) (BodyMatchers, error) {
	compiled, err := ms.compile()
	if err != nil {
		return nil, errors.Wrap(err, field)
	}
	return compiled, nil
}

// HTTPBuilder assembles an HTTP interaction. Values may be plain Go values,
// nodes, cells or *pattern.Matcher.
type HTTPBuilder struct {
	meta     metadata
	request  Request
	response Response
	conv     valueConverter
}

func NewHTTP() *HTTPBuilder {
	return &HTTPBuilder{}
}

func (b *HTTPBuilder) Name(name string) *HTTPBuilder {
	b.meta.name = name
	return b
}

func (b *HTTPBuilder) Description(description string) *HTTPBuilder {
	b.meta.description = description
	return b
}

func (b *HTTPBuilder) Ignored() *HTTPBuilder {
	b.meta.ignored = true
	return b
}

func (b *HTTPBuilder) InProgress() *HTTPBuilder {
	b.meta.inProgress = true
	return b
}

func (b *HTTPBuilder) Method(v interface{}) *HTTPBuilder {
	b.request.Method = b.conv.optional("method", v)
	return b
}

func (b *HTTPBuilder) URL(v interface{}) *HTTPBuilder {
	b.request.URL = b.conv.optional("url", v)
	return b
}

func (b *HTTPBuilder) RequestHeader(name string, v interface{}) *HTTPBuilder {
	b.request.Headers = append(b.request.Headers, Header{Name: name, Value: b.conv.node("request header "+name, v)})
	return b
}

func (b *HTTPBuilder) RequestBody(v interface{}) *HTTPBuilder {
	b.request.Body = b.conv.node("request body", v)
	return b
}

func (b *HTTPBuilder) RequestMatchers(ms ...BodyMatcher) *HTTPBuilder {
	b.request.Matchers = append(b.request.Matchers, ms...)
	return b
}

func (b *HTTPBuilder) Status(v interface{}) *HTTPBuilder {
	b.response.Status = b.conv.optional("status", v)
	return b
}

func (b *HTTPBuilder) ResponseHeader(name string, v interface{}) *HTTPBuilder {
	b.response.Headers = append(b.response.Headers, Header{Name: name, Value: b.conv.node("response header "+name, v)})
	return b
}

func (b *HTTPBuilder) ResponseBody(v interface{}) *HTTPBuilder {
	b.response.Body = b.conv.node("response body", v)
	return b
}

func (b *HTTPBuilder) ResponseMatchers(ms ...BodyMatcher) *HTTPBuilder {
	b.response.Matchers = append(b.response.Matchers, ms...)
	return b
}

// Build validates the interaction and returns it. The builder must not be
// used afterwards.
func (b *HTTPBuilder) Build() (*Interaction, error) {
	if b.conv.err != nil {
		return nil, b.conv.err
	}
	if err := validateHTTP(b.request, b.response); err != nil {
		return nil, err
	}

	request, response := b.request, b.response
	var err error
	if request.Matchers, err = finish(request.Matchers, "request"); err != nil {
		return nil, err
	}
	if response.Matchers, err = finish(response.Matchers, "response"); err != nil {
		return nil, err
	}

	b.request, b.response = Request{}, Response{}
	return &Interaction{
		name:        b.meta.name,
		description: b.meta.description,
		ignored:     b.meta.ignored,
		inProgress:  b.meta.inProgress,
		exchange:    HTTPExchange{Request: request, Response: response},
	}, nil
}

// MessageBuilder assembles a messaging interaction.
type MessageBuilder struct {
	meta   metadata
	input  MessageInput
	output MessageOutput
	conv   valueConverter
}

func NewMessage() *MessageBuilder {
	return &MessageBuilder{}
}

func (b *MessageBuilder) Name(name string) *MessageBuilder {
	b.meta.name = name
	return b
}

func (b *MessageBuilder) Description(description string) *MessageBuilder {
	b.meta.description = description
	return b
}

func (b *MessageBuilder) Ignored() *MessageBuilder {
	b.meta.ignored = true
	return b
}

func (b *MessageBuilder) InProgress() *MessageBuilder {
	b.meta.inProgress = true
	return b
}

func (b *MessageBuilder) Source(name string) *MessageBuilder {
	b.input.Source = name
	return b
}

func (b *MessageBuilder) InputHeader(name string, v interface{}) *MessageBuilder {
	b.input.Headers = append(b.input.Headers, Header{Name: name, Value: b.conv.node("input header "+name, v)})
	return b
}

func (b *MessageBuilder) InputBody(v interface{}) *MessageBuilder {
	b.input.Body = b.conv.node("input body", v)
	return b
}

func (b *MessageBuilder) InputMatchers(ms ...BodyMatcher) *MessageBuilder {
	b.input.Matchers = append(b.input.Matchers, ms...)
	return b
}

func (b *MessageBuilder) Destination(name string) *MessageBuilder {
	b.output.Destination = name
	return b
}

func (b *MessageBuilder) OutputHeader(name string, v interface{}) *MessageBuilder {
	b.output.Headers = append(b.output.Headers, Header{Name: name, Value: b.conv.node("output header "+name, v)})
	return b
}

func (b *MessageBuilder) OutputBody(v interface{}) *MessageBuilder {
	b.output.Body = b.conv.node("output body", v)
	return b
}

func (b *MessageBuilder) OutputMatchers(ms ...BodyMatcher) *MessageBuilder {
	b.output.Matchers = append(b.output.Matchers, ms...)
	return b
}

func (b *MessageBuilder) Build() (*Interaction, error) {
	if b.conv.err != nil {
		return nil, b.conv.err
	}
	if err := validateMessage(b.input, b.output); err != nil {
		return nil, err
	}

	input, output := b.input, b.output
	var err error
	if input.Matchers, err = finish(input.Matchers, "input"); err != nil {
		return nil, err
	}
	if output.Matchers, err = finish(output.Matchers, "output"); err != nil {
		return nil, err
	}

	b.input, b.output = MessageInput{}, MessageOutput{}
	return &Interaction{
		name:        b.meta.name,
		description: b.meta.description,
		ignored:     b.meta.ignored,
		inProgress:  b.meta.inProgress,
		exchange:    MessageExchange{Input: input, Output: output},
	}, nil
}
