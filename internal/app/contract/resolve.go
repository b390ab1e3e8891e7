package contract

import (
	"fmt"
	"strconv"

	"github.com/form3tech-oss/pact-contracts/internal/app/pattern"
	"github.com/pkg/errors"
)

// Mode selects which side of every cell a render reads.
type Mode int

const (
	// Consumer renders stubs: matchers are replaced by generated examples.
	Consumer Mode = iota
	// Producer renders verification tests: matchers are kept as validators.
	Producer
)

func (m Mode) String() string {
	if m == Producer {
		return "producer"
	}
	return "consumer"
}

func ParseMode(s string) (Mode, error) {
	switch s {
	case "consumer", "stub":
		return Consumer, nil
	case "producer", "test":
		return Producer, nil
	}
	return Consumer, fmt.Errorf("unknown mode '%s'", s)
}

// Resolver projects interactions into concrete trees. A Resolver holds no
// mutable state and may be shared between goroutines.
type Resolver struct {
	policy ConflictPolicy
}

type Option func(*Resolver)

func WithConflictPolicy(policy ConflictPolicy) Option {
	return func(r *Resolver) {
		r.policy = policy
	}
}

func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{policy: PreferSpecific}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var defaultResolver = NewResolver()

// Resolve projects i for mode with the default conflict policy.
func Resolve(i *Interaction, mode Mode) (*Concrete, error) {
	return defaultResolver.Resolve(i, mode)
}

func (r *Resolver) Resolve(i *Interaction, mode Mode) (*Concrete, error) {
	c := &Concrete{
		Mode:        mode,
		Name:        i.name,
		Description: i.description,
		Ignored:     i.ignored,
		InProgress:  i.inProgress,
	}

	switch e := i.exchange.(type) {
	case HTTPExchange:
		request, err := r.resolveRequest(e.Request, mode)
		if err != nil {
			return nil, errors.Wrap(err, "unable to resolve request")
		}
		response, err := r.resolveResponse(e.Response, mode)
		if err != nil {
			return nil, errors.Wrap(err, "unable to resolve response")
		}
		c.HTTP = &ConcreteHTTP{Request: request, Response: response}
	case MessageExchange:
		input, err := r.resolveMessage(e.Input.Source, e.Input.Headers, e.Input.Body, e.Input.Matchers, mode, "input")
		if err != nil {
			return nil, errors.Wrap(err, "unable to resolve input message")
		}
		output, err := r.resolveMessage(e.Output.Destination, e.Output.Headers, e.Output.Body, e.Output.Matchers, mode, "output")
		if err != nil {
			return nil, errors.Wrap(err, "unable to resolve output message")
		}
		c.Messaging = &ConcreteMessaging{Input: input, Output: output}
	default:
		return nil, fmt.Errorf("interaction '%s' has no exchange", i.name)
	}
	return c, nil
}

func (r *Resolver) resolveRequest(req Request, mode Mode) (ConcreteRequest, error) {
	body, err := r.applyMatchers(req.Body, req.Matchers, mode, "request.body")
	if err != nil {
		return ConcreteRequest{}, err
	}
	return ConcreteRequest{
		Method:     resolveNode(req.Method, mode, "request.method"),
		URL:        resolveNode(req.URL, mode, "request.url"),
		Headers:    resolveHeaders(req.Headers, mode, "request.headers"),
		Body:       body.Body,
		Assertions: body.Assertions,
	}, nil
}

func (r *Resolver) resolveResponse(res Response, mode Mode) (ConcreteResponse, error) {
	body, err := r.applyMatchers(res.Body, res.Matchers, mode, "response.body")
	if err != nil {
		return ConcreteResponse{}, err
	}
	return ConcreteResponse{
		Status:     resolveNode(res.Status, mode, "response.status"),
		Headers:    resolveHeaders(res.Headers, mode, "response.headers"),
		Body:       body.Body,
		Assertions: body.Assertions,
	}, nil
}

func (r *Resolver) resolveMessage(channel string, headers Headers, body Node, matchers BodyMatchers, mode Mode, seed string) (ConcreteMessage, error) {
	effective, err := r.applyMatchers(body, matchers, mode, seed+".body")
	if err != nil {
		return ConcreteMessage{}, err
	}
	return ConcreteMessage{
		Channel:    channel,
		Headers:    resolveHeaders(headers, mode, seed+".headers"),
		Body:       effective.Body,
		Assertions: effective.Assertions,
	}, nil
}

func resolveHeaders(headers Headers, mode Mode, seed string) Headers {
	if headers == nil {
		return nil
	}
	out := make(Headers, len(headers))
	for i, h := range headers {
		out[i] = Header{
			Name:  h.Name,
			Value: resolveNode(h.Value, mode, seed+"."+h.Name+"["+strconv.Itoa(i)+"]"),
		}
	}
	return out
}

// ResolveNode resolves a single value tree. seed locates the tree and keeps
// generated examples stable.
func ResolveNode(n Node, mode Mode, seed string) Node {
	return resolveNode(n, mode, seed)
}

func resolveNode(n Node, mode Mode, seed string) Node {
	switch v := n.(type) {
	case Scalar:
		return v
	case Sequence:
		out := make(Sequence, len(v))
		for i := range v {
			out[i] = resolveNode(v[i], mode, seed+"["+strconv.Itoa(i)+"]")
		}
		return out
	case *Mapping:
		out := NewMapping()
		for _, e := range v.Entries() {
			out.set(e.Key, resolveNode(e.Value, mode, seed+"."+e.Key))
		}
		return out
	case Match:
		if mode == Consumer {
			return exampleScalar(v.Matcher, seed)
		}
		return v
	case Cell:
		return resolveNode(v.Side(mode), mode, seed)
	}
	return n
}

func exampleScalar(m *pattern.Matcher, seed string) Scalar {
	example := m.Example(seed)
	switch m.ValueType() {
	case pattern.NumberValue:
		if s, err := ParseNumber(example); err == nil {
			return s
		}
	case pattern.BooleanValue:
		return Bool(example == "true")
	}
	return String(example)
}
