package contract

// Equal compares two value trees structurally. Mappings compare by key,
// sequences by position, matchers by kind and expression and cells side by
// side.
func Equal(a, b Node) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	switch x := a.(type) {
	case Scalar:
		y, ok := b.(Scalar)
		return ok && x == y
	case Sequence:
		y, ok := b.(Sequence)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	case *Mapping:
		y, ok := b.(*Mapping)
		if !ok || x.Len() != y.Len() {
			return false
		}
		for _, e := range x.Entries() {
			other, found := y.Get(e.Key)
			if !found || !Equal(e.Value, other) {
				return false
			}
		}
		return true
	case Match:
		y, ok := b.(Match)
		return ok && x.Matcher.Equal(y.Matcher)
	case Cell:
		y, ok := b.(Cell)
		return ok && Equal(x.Consumer, y.Consumer) && Equal(x.Producer, y.Producer)
	}
	return false
}

func (r Request) Equal(other Request) bool {
	return Equal(r.Method, other.Method) &&
		Equal(r.URL, other.URL) &&
		r.Headers.Equal(other.Headers) &&
		Equal(r.Body, other.Body) &&
		r.Matchers.Equal(other.Matchers)
}

func (r Response) Equal(other Response) bool {
	return Equal(r.Status, other.Status) &&
		r.Headers.Equal(other.Headers) &&
		Equal(r.Body, other.Body) &&
		r.Matchers.Equal(other.Matchers)
}

func (m MessageInput) Equal(other MessageInput) bool {
	return m.Source == other.Source &&
		m.Headers.Equal(other.Headers) &&
		Equal(m.Body, other.Body) &&
		m.Matchers.Equal(other.Matchers)
}

func (m MessageOutput) Equal(other MessageOutput) bool {
	return m.Destination == other.Destination &&
		m.Headers.Equal(other.Headers) &&
		Equal(m.Body, other.Body) &&
		m.Matchers.Equal(other.Matchers)
}

// Equal reports whether two interactions are structurally identical,
// metadata included.
func (i *Interaction) Equal(other *Interaction) bool {
	if i == nil || other == nil {
		return i == other
	}
	if i.name != other.name ||
		i.description != other.description ||
		i.ignored != other.ignored ||
		i.inProgress != other.inProgress {
		return false
	}

	switch x := i.exchange.(type) {
	case HTTPExchange:
		y, ok := other.exchange.(HTTPExchange)
		return ok && x.Request.Equal(y.Request) && x.Response.Equal(y.Response)
	case MessageExchange:
		y, ok := other.exchange.(MessageExchange)
		return ok && x.Input.Equal(y.Input) && x.Output.Equal(y.Output)
	}
	return false
}
