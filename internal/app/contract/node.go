package contract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"

	"github.com/form3tech-oss/pact-contracts/internal/app/pattern"
	"github.com/pkg/errors"
)

// Node is an element of a contract value tree. The set of implementations is
// closed: Scalar, Sequence, *Mapping, Match and Cell.
type Node interface {
	node()
}

// Side is what one side of a Cell may hold: a literal or a pattern matcher.
// Cells never nest directly inside cells, only inside literal structures.
type Side interface {
	Node
	side()
}

type ScalarKind int

const (
	StringScalar ScalarKind = iota
	NumberScalar
	BoolScalar
	NullScalar
)

func (k ScalarKind) String() string {
	switch k {
	case NumberScalar:
		return "number"
	case BoolScalar:
		return "boolean"
	case NullScalar:
		return "null"
	}
	return "string"
}

// Scalar is a string, number, boolean or null literal. Numbers are held in a
// canonical text form so that 1, int64(1) and 1.0 compare equal.
type Scalar struct {
	kind ScalarKind
	text string
}

func String(s string) Scalar {
	return Scalar{kind: StringScalar, text: s}
}

func Int(i int64) Scalar {
	return Scalar{kind: NumberScalar, text: strconv.FormatInt(i, 10)}
}

func Number(f float64) Scalar {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return Int(int64(f))
	}
	return Scalar{kind: NumberScalar, text: strconv.FormatFloat(f, 'g', -1, 64)}
}

func Bool(b bool) Scalar {
	return Scalar{kind: BoolScalar, text: strconv.FormatBool(b)}
}

func Null() Scalar {
	return Scalar{kind: NullScalar, text: "null"}
}

// ParseNumber reads a JSON number literal.
func ParseNumber(text string) (Scalar, error) {
	if i, err := strconv.ParseInt(text, 10, 64); err == nil {
		return Int(i), nil
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return Scalar{}, errors.Wrapf(err, "invalid number '%s'", text)
	}
	return Number(f), nil
}

func (s Scalar) Kind() ScalarKind {
	return s.kind
}

// Text is the scalar as it would be written in a document, without quotes.
func (s Scalar) Text() string {
	return s.text
}

// Value returns the scalar as a plain Go value: string, json.Number, bool or nil.
func (s Scalar) Value() interface{} {
	switch s.kind {
	case NumberScalar:
		return json.Number(s.text)
	case BoolScalar:
		return s.text == "true"
	case NullScalar:
		return nil
	}
	return s.text
}

func (s Scalar) String() string {
	return s.text
}

func (s Scalar) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Value())
}

// Sequence is an ordered list of nodes.
type Sequence []Node

// Entry is one key of a Mapping.
type Entry struct {
	Key   string
	Value Node
}

// Mapping is an insertion ordered set of uniquely keyed entries. Key order is
// kept for rendering but is not significant for equality.
type Mapping struct {
	entries []Entry
	index   map[string]int
}

// NewMapping builds a mapping from entries. A repeated key replaces the value
// of the earlier entry and keeps its position.
func NewMapping(entries ...Entry) *Mapping {
	m := &Mapping{index: make(map[string]int, len(entries))}
	for _, e := range entries {
		m.set(e.Key, e.Value)
	}
	return m
}

func (m *Mapping) set(key string, value Node) {
	if i, ok := m.index[key]; ok {
		m.entries[i].Value = value
		return
	}
	m.index[key] = len(m.entries)
	m.entries = append(m.entries, Entry{Key: key, Value: value})
}

// with returns a copy of the mapping with key set to value.
func (m *Mapping) with(key string, value Node) *Mapping {
	out := NewMapping(m.entries...)
	out.set(key, value)
	return out
}

func (m *Mapping) Get(key string) (Node, bool) {
	if m == nil {
		return nil, false
	}
	i, ok := m.index[key]
	if !ok {
		return nil, false
	}
	return m.entries[i].Value, true
}

func (m *Mapping) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}

// Entries returns a copy of the entries in insertion order.
func (m *Mapping) Entries() []Entry {
	if m == nil {
		return nil
	}
	return append([]Entry(nil), m.entries...)
}

func (m *Mapping) Keys() []string {
	keys := make([]string, 0, m.Len())
	for _, e := range m.Entries() {
		keys = append(keys, e.Key)
	}
	return keys
}

func (m *Mapping) sortedKeys() []string {
	keys := m.Keys()
	sort.Strings(keys)
	return keys
}

func (m *Mapping) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range m.Entries() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		value, err := marshalNode(e.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Match is a pattern matcher placed in a value tree.
type Match struct {
	Matcher *pattern.Matcher
}

func Matching(m *pattern.Matcher) Match {
	return Match{Matcher: m}
}

func (m Match) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{
		"pattern": string(m.Matcher.Kind()),
		"regex":   m.Matcher.Expression(),
	})
}

func (Scalar) node()   {}
func (Sequence) node() {}
func (*Mapping) node() {}
func (Match) node()    {}
func (Cell) node()     {}

func (Scalar) side()   {}
func (Sequence) side() {}
func (*Mapping) side() {}
func (Match) side()    {}

func marshalNode(n Node) ([]byte, error) {
	if n == nil {
		return []byte("null"), nil
	}
	return json.Marshal(n)
}

// Literal converts a plain Go value into a Node. Nodes are deep copied,
// *pattern.Matcher values become Match leaves, and Go maps become mappings
// ordered by key.
func Literal(v interface{}) (Node, error) {
	switch val := v.(type) {
	case nil:
		return Null(), nil
	case Node:
		if err := checkNode(val); err != nil {
			return nil, err
		}
		return copyNode(val), nil
	case *pattern.Matcher:
		if val == nil {
			return nil, errors.New("nil pattern matcher")
		}
		return Match{Matcher: val}, nil
	case string:
		return String(val), nil
	case bool:
		return Bool(val), nil
	case json.Number:
		return ParseNumber(val.String())
	case int:
		return Int(int64(val)), nil
	case int32:
		return Int(int64(val)), nil
	case int64:
		return Int(val), nil
	case float32:
		return Number(float64(val)), nil
	case float64:
		return Number(val), nil
	case []interface{}:
		return literalSequence(len(val), func(i int) interface{} { return val[i] })
	case map[string]interface{}:
		return literalMapping(val)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return ParseNumber(strconv.FormatUint(rv.Uint(), 10))
	case reflect.Slice, reflect.Array:
		return literalSequence(rv.Len(), func(i int) interface{} { return rv.Index(i).Interface() })
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}
		m := make(map[string]interface{}, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			m[iter.Key().String()] = iter.Value().Interface()
		}
		return literalMapping(m)
	}
	return nil, fmt.Errorf("unsupported literal type %T", v)
}

// copyNode returns a copy of n that shares no sequence or mapping storage
// with it. Scalars and matchers are immutable and are not copied.
func copyNode(n Node) Node {
	switch v := n.(type) {
	case Sequence:
		if v == nil {
			return v
		}
		out := make(Sequence, len(v))
		for i := range v {
			out[i] = copyNode(v[i])
		}
		return out
	case *Mapping:
		if v == nil {
			return v
		}
		entries := v.Entries()
		for i := range entries {
			entries[i].Value = copyNode(entries[i].Value)
		}
		return NewMapping(entries...)
	case Cell:
		return Cell{Consumer: copySide(v.Consumer), Producer: copySide(v.Producer)}
	}
	return n
}

func copySide(s Side) Side {
	if s == nil {
		return nil
	}
	return copyNode(s).(Side)
}

// checkNode rejects match leaves without a matcher anywhere in n.
func checkNode(n Node) error {
	switch v := n.(type) {
	case Match:
		if v.Matcher == nil {
			return errors.New("nil pattern matcher")
		}
	case Sequence:
		for i := range v {
			if err := checkNode(v[i]); err != nil {
				return errors.Wrapf(err, "index %d", i)
			}
		}
	case *Mapping:
		for _, e := range v.Entries() {
			if err := checkNode(e.Value); err != nil {
				return errors.Wrapf(err, "key '%s'", e.Key)
			}
		}
	case Cell:
		if v.Consumer != nil {
			if err := checkNode(v.Consumer); err != nil {
				return errors.Wrap(err, "consumer side")
			}
		}
		if v.Producer != nil {
			if err := checkNode(v.Producer); err != nil {
				return errors.Wrap(err, "producer side")
			}
		}
	}
	return nil
}

func literalSequence(n int, at func(int) interface{}) (Node, error) {
	seq := make(Sequence, 0, n)
	for i := 0; i < n; i++ {
		node, err := Literal(at(i))
		if err != nil {
			return nil, errors.Wrapf(err, "index %d", i)
		}
		seq = append(seq, node)
	}
	return seq, nil
}

func literalMapping(values map[string]interface{}) (Node, error) {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	m := NewMapping()
	for _, k := range keys {
		node, err := Literal(values[k])
		if err != nil {
			return nil, errors.Wrapf(err, "key '%s'", k)
		}
		m.set(k, node)
	}
	return m, nil
}

// Plain converts a node into plain Go values: map[string]interface{},
// []interface{}, string, json.Number, bool and nil. Match leaves stay as
// *pattern.Matcher and cells are read through their consumer side.
func Plain(n Node) interface{} {
	switch v := n.(type) {
	case Scalar:
		return v.Value()
	case Sequence:
		out := make([]interface{}, len(v))
		for i := range v {
			out[i] = Plain(v[i])
		}
		return out
	case *Mapping:
		out := make(map[string]interface{}, v.Len())
		for _, e := range v.Entries() {
			out[e.Key] = Plain(e.Value)
		}
		return out
	case Match:
		return v.Matcher
	case Cell:
		return Plain(v.Consumer)
	}
	return nil
}
