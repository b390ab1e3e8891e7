package pattern

import (
	"fmt"
	"regexp"

	"github.com/go-openapi/strfmt"
)

// Matcher is a semantic value constraint backed by a regular expression and
// an example generator. Matchers are immutable and shared.
type Matcher struct {
	kind      Kind
	expr      string
	re        *regexp.Regexp
	format    string
	valueType ValueType
	example   func(seed string) string
}

func newMatcher(kind Kind, expr string, valueType ValueType, format string, example func(string) string) (*Matcher, error) {
	re, err := regexp.Compile("^(?:" + expr + ")$")
	if err != nil {
		return nil, err
	}
	return &Matcher{
		kind:      kind,
		expr:      expr,
		re:        re,
		format:    format,
		valueType: valueType,
		example:   example,
	}, nil
}

func (m *Matcher) Kind() Kind {
	return m.kind
}

// Expression returns the regular expression as declared, without anchors.
func (m *Matcher) Expression() string {
	return m.expr
}

func (m *Matcher) ValueType() ValueType {
	return m.valueType
}

// Matches reports whether the whole of val satisfies the matcher.
func (m *Matcher) Matches(val string) bool {
	if !m.re.MatchString(val) {
		return false
	}
	if m.format != "" {
		return strfmt.Default.Validates(m.format, val)
	}
	return true
}

// Example returns a sample value for the matcher. The same seed always yields
// the same example.
func (m *Matcher) Example(seed string) string {
	return m.example(seed)
}

// Equal compares matchers by kind and expression.
func (m *Matcher) Equal(other *Matcher) bool {
	if m == nil || other == nil {
		return m == other
	}
	return m.kind == other.kind && m.expr == other.expr
}

func (m *Matcher) String() string {
	if m.kind == Regex {
		return fmt.Sprintf("regex(%s)", m.expr)
	}
	return string(m.kind)
}
