package contract

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

const (
	tagNil byte = iota
	tagScalar
	tagSequence
	tagMapping
	tagMatch
	tagCell
	tagHeaders
	tagMatchers
	tagHTTP
	tagMessaging
)

type hasher struct {
	d *xxhash.Digest
}

func (h hasher) writeByte(b byte) {
	_, _ = h.d.Write([]byte{b})
}

func (h hasher) writeInt(i int) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(i))
	_, _ = h.d.Write(buf[:])
}

// writeString writes a length prefixed string so that adjacent fields cannot run
// into each other.
func (h hasher) writeString(s string) {
	h.writeInt(len(s))
	_, _ = h.d.WriteString(s)
}

func (h hasher) writeBool(b bool) {
	if b {
		h.writeByte(1)
	} else {
		h.writeByte(0)
	}
}

func (h hasher) node(n Node) {
	switch v := n.(type) {
	case nil:
		h.writeByte(tagNil)
	case Scalar:
		h.writeByte(tagScalar)
		h.writeInt(int(v.kind))
		h.writeString(v.text)
	case Sequence:
		h.writeByte(tagSequence)
		h.writeInt(len(v))
		for _, e := range v {
			h.node(e)
		}
	case *Mapping:
		h.writeByte(tagMapping)
		h.writeInt(v.Len())
		for _, k := range v.sortedKeys() {
			value, _ := v.Get(k)
			h.writeString(k)
			h.node(value)
		}
	case Match:
		h.writeByte(tagMatch)
		h.writeString(string(v.Matcher.Kind()))
		h.writeString(v.Matcher.Expression())
	case Cell:
		h.writeByte(tagCell)
		h.node(v.Consumer)
		h.node(v.Producer)
	}
}

func (h hasher) headers(headers Headers) {
	h.writeByte(tagHeaders)
	h.writeInt(len(headers))
	for _, header := range headers {
		h.writeString(header.Name)
		h.node(header.Value)
	}
}

func (h hasher) matchers(ms BodyMatchers) {
	h.writeByte(tagMatchers)
	h.writeInt(len(ms))
	for _, m := range ms {
		h.writeString(m.canonicalPath())
		h.writeInt(int(m.Type))
		if m.Pattern != nil {
			h.writeString(string(m.Pattern.Kind()))
			h.writeString(m.Pattern.Expression())
		} else {
			h.writeByte(tagNil)
		}
		h.node(m.Value)
		h.writeInt(m.Min)
		h.writeInt(m.Max)
		h.writeInt(int(m.AppliesTo))
	}
}

func (h hasher) part(headers Headers, body Node, ms BodyMatchers) {
	h.headers(headers)
	h.node(body)
	h.matchers(ms)
}

// Hash returns a hash consistent with Equal: equal interactions always hash
// the same, and a change to any nested value changes the hash with high
// probability.
func (i *Interaction) Hash() uint64 {
	h := hasher{d: xxhash.New()}
	h.writeString(i.name)
	h.writeString(i.description)
	h.writeBool(i.ignored)
	h.writeBool(i.inProgress)

	switch e := i.exchange.(type) {
	case HTTPExchange:
		h.writeByte(tagHTTP)
		h.node(e.Request.Method)
		h.node(e.Request.URL)
		h.part(e.Request.Headers, e.Request.Body, e.Request.Matchers)
		h.node(e.Response.Status)
		h.part(e.Response.Headers, e.Response.Body, e.Response.Matchers)
	case MessageExchange:
		h.writeByte(tagMessaging)
		h.writeString(e.Input.Source)
		h.part(e.Input.Headers, e.Input.Body, e.Input.Matchers)
		h.writeString(e.Output.Destination)
		h.part(e.Output.Headers, e.Output.Body, e.Output.Matchers)
	}
	return h.d.Sum64()
}
