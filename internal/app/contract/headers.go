package contract

// Header is one header line. Its value may be a literal, a matcher or a cell.
type Header struct {
	Name  string `json:"name"`
	Value Node   `json:"value"`
}

// Headers keeps header lines in declaration order. Names may repeat and are
// compared case-sensitively.
type Headers []Header

// Get returns the first value declared for name.
func (h Headers) Get(name string) (Node, bool) {
	for _, header := range h {
		if header.Name == name {
			return header.Value, true
		}
	}
	return nil, false
}

// Values returns every value declared for name, in order.
func (h Headers) Values(name string) []Node {
	var values []Node
	for _, header := range h {
		if header.Name == name {
			values = append(values, header.Value)
		}
	}
	return values
}

func (h Headers) Equal(other Headers) bool {
	if len(h) != len(other) {
		return false
	}
	for i := range h {
		if h[i].Name != other[i].Name || !Equal(h[i].Value, other[i].Value) {
			return false
		}
	}
	return true
}

func (h Headers) copy() Headers {
	if h == nil {
		return nil
	}
	out := make(Headers, len(h))
	for i := range h {
		out[i] = Header{Name: h[i].Name, Value: copyNode(h[i].Value)}
	}
	return out
}
