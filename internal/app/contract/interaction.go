package contract

// Kind tells HTTP interactions from messaging interactions.
type Kind int

const (
	HTTP Kind = iota
	Messaging
)

func (k Kind) String() string {
	if k == Messaging {
		return "messaging"
	}
	return "http"
}

// Exchange is the kind specific part of an interaction: either an
// HTTPExchange or a MessageExchange.
type Exchange interface {
	Kind() Kind
	exchange()
}

type Request struct {
	Method   Node
	URL      Node
	Headers  Headers
	Body     Node
	Matchers BodyMatchers
}

type Response struct {
	Status   Node
	Headers  Headers
	Body     Node
	Matchers BodyMatchers
}

type MessageInput struct {
	Source   string
	Headers  Headers
	Body     Node
	Matchers BodyMatchers
}

type MessageOutput struct {
	Destination string
	Headers     Headers
	Body        Node
	Matchers    BodyMatchers
}

type HTTPExchange struct {
	Request  Request
	Response Response
}

type MessageExchange struct {
	Input  MessageInput
	Output MessageOutput
}

func (HTTPExchange) Kind() Kind    { return HTTP }
func (MessageExchange) Kind() Kind { return Messaging }
func (HTTPExchange) exchange()     {}
func (MessageExchange) exchange()  {}

// Interaction is a validated, immutable contract interaction. Build one with
// NewHTTP or NewMessage.
type Interaction struct {
	name        string
	description string
	ignored     bool
	inProgress  bool
	exchange    Exchange
}

func (i *Interaction) Name() string {
	return i.name
}

func (i *Interaction) Description() string {
	return i.description
}

func (i *Interaction) Ignored() bool {
	return i.ignored
}

func (i *Interaction) InProgress() bool {
	return i.inProgress
}

func (i *Interaction) Kind() Kind {
	return i.exchange.Kind()
}

// HTTP returns a copy of the request/response pair of an HTTP interaction.
func (i *Interaction) HTTP() (HTTPExchange, bool) {
	e, ok := i.exchange.(HTTPExchange)
	if !ok {
		return e, false
	}
	e.Request.Method = copyNode(e.Request.Method)
	e.Request.URL = copyNode(e.Request.URL)
	e.Request.Headers = e.Request.Headers.copy()
	e.Request.Body = copyNode(e.Request.Body)
	e.Request.Matchers = e.Request.Matchers.copy()
	e.Response.Status = copyNode(e.Response.Status)
	e.Response.Headers = e.Response.Headers.copy()
	e.Response.Body = copyNode(e.Response.Body)
	e.Response.Matchers = e.Response.Matchers.copy()
	return e, true
}

// Messaging returns a copy of the input/output pair of a messaging interaction.
func (i *Interaction) Messaging() (MessageExchange, bool) {
	e, ok := i.exchange.(MessageExchange)
	if !ok {
		return e, false
	}
	e.Input.Headers = e.Input.Headers.copy()
	e.Input.Body = copyNode(e.Input.Body)
	e.Input.Matchers = e.Input.Matchers.copy()
	e.Output.Headers = e.Output.Headers.copy()
	e.Output.Body = copyNode(e.Output.Body)
	e.Output.Matchers = e.Output.Matchers.copy()
	return e, true
}
