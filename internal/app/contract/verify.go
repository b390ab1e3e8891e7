package contract

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/form3tech-oss/pact-contracts/internal/app/pattern"
	log "github.com/sirupsen/logrus"
)

// Verify checks a decoded runtime body against the producer projection of a
// body and its assertions. It returns one violation per mismatch; an empty
// result means the body satisfies the contract. Keys present in actual but
// absent from expected are allowed.
func Verify(expected Node, assertions []Assertion, actual interface{}) []string {
	violations := make([]string, 0)

	covered := make([]Path, 0, len(assertions))
	for _, a := range assertions {
		p, err := ParsePath(a.Path)
		if err != nil {
			violations = append(violations, fmt.Sprintf("invalid assertion path '%s': %v", a.Path, err))
			continue
		}
		covered = append(covered, p)
		violations = append(violations, a.check(p, actual)...)
	}

	v := verifier{covered: covered}
	v.node(expected, actual, nil)
	return append(violations, v.violations...)
}

type verifier struct {
	covered    []Path
	violations []string
}

func (v *verifier) isCovered(at Path) bool {
	for _, p := range v.covered {
		if p.Covers(at) {
			return true
		}
	}
	return false
}

func (v *verifier) fail(format string, args ...interface{}) {
	v.violations = append(v.violations, fmt.Sprintf(format, args...))
}

func (v *verifier) node(expected Node, actual interface{}, at Path) {
	if expected == nil || v.isCovered(at) {
		return
	}

	switch e := expected.(type) {
	case Cell:
		v.node(e.Producer, actual, at)
	case Scalar:
		got, err := Literal(actual)
		if err != nil || !Equal(e, got) {
			v.fail("value '%v' at path '%s' does not match constraint '%s'", actual, at, e.Text())
		}
	case Match:
		if !matchesValue(e.Matcher, actual) {
			v.fail("value '%v' at path '%s' does not match pattern '%s'", actual, at, e.Matcher)
		}
	case Sequence:
		items, ok := actual.([]interface{})
		if !ok {
			v.fail("value at path '%s' must be an array", at)
			return
		}
		if len(items) != len(e) {
			v.fail("array of length %d at path '%s' does not match expected length %d", len(items), at, len(e))
			return
		}
		for i := range e {
			v.node(e[i], items[i], at.at(i))
		}
	case *Mapping:
		fields, ok := actual.(map[string]interface{})
		if !ok {
			v.fail("value at path '%s' must be an object", at)
			return
		}
		for _, entry := range e.Entries() {
			value, found := fields[entry.Key]
			if !found {
				if !v.isCovered(at.key(entry.Key)) {
					v.fail("missing value at path '%s'", at.key(entry.Key))
				}
				continue
			}
			v.node(entry.Value, value, at.key(entry.Key))
		}
	}
}

func (a Assertion) check(p Path, actual interface{}) []string {
	found, err := jsonpath.Get(a.Path, actual)
	if err != nil {
		log.Debugf("jsonpath lookup of '%s' failed: %v", a.Path, err)
		if a.Type == NullMatch {
			return nil
		}
		return []string{fmt.Sprintf("missing value at path '%s' for %s matcher", a.Path, a.Type)}
	}

	values := []interface{}{found}
	if p.HasWildcard() {
		values, _ = found.([]interface{})
	}

	var violations []string
	for _, value := range values {
		if msg := a.checkValue(value); msg != "" {
			violations = append(violations, msg)
		}
	}
	return violations
}

func (a Assertion) checkValue(value interface{}) string {
	switch a.Type {
	case RegexMatch, TimestampMatch, DateMatch, TimeMatch:
		if !matchesValue(a.Pattern, value) {
			return fmt.Sprintf("value '%v' at path '%s' does not match %s matcher '%s'", value, a.Path, a.Type, a.Pattern)
		}
	case NullMatch:
		if value != nil {
			return fmt.Sprintf("value '%v' at path '%s' must be null", value, a.Path)
		}
	case TypeMatch:
		if a.Expected != nil {
			if want, got := nodeType(a.Expected), valueType(value); want != got {
				return fmt.Sprintf("value at path '%s' has type %s, expected %s", a.Path, got, want)
			}
		}
		if items, ok := value.([]interface{}); ok {
			if a.Min > 0 && len(items) < a.Min {
				return fmt.Sprintf("array of length %d at path '%s' is shorter than %d", len(items), a.Path, a.Min)
			}
			if a.Max > 0 && len(items) > a.Max {
				return fmt.Sprintf("array of length %d at path '%s' is longer than %d", len(items), a.Path, a.Max)
			}
		}
	case EqualityMatch:
		if a.Expected == nil {
			return ""
		}
		v := verifier{}
		v.node(a.Expected, value, nil)
		if len(v.violations) > 0 {
			return fmt.Sprintf("value '%v' at path '%s' is not equal to the expected value", value, a.Path)
		}
	}
	return ""
}

// matchesValue reports whether any written form of the scalar v matches m.
func matchesValue(m *pattern.Matcher, v interface{}) bool {
	if m == nil {
		return false
	}
	for _, text := range scalarTexts(v) {
		if m.Matches(text) {
			return true
		}
	}
	return false
}

// scalarTexts renders a decoded scalar the ways it may be written in a
// document. A JSON number keeps its own text, and exponent forms are also
// spelled out in plain decimal notation. A float holding an integer is tried
// with and without a fraction since decoding has dropped the difference.
func scalarTexts(v interface{}) []string {
	switch val := v.(type) {
	case string:
		return []string{val}
	case bool:
		return []string{strconv.FormatBool(val)}
	case json.Number:
		texts := []string{val.String()}
		if strings.ContainsAny(val.String(), "eE") {
			if f, err := val.Float64(); err == nil {
				texts = append(texts, floatTexts(f)...)
			}
		}
		return texts
	case float64:
		return floatTexts(val)
	case float32:
		return floatTexts(float64(val))
	case int:
		return []string{strconv.Itoa(val)}
	case int64:
		return []string{strconv.FormatInt(val, 10)}
	}
	return nil
}

func floatTexts(f float64) []string {
	text := strconv.FormatFloat(f, 'f', -1, 64)
	if f == math.Trunc(f) && !math.IsInf(f, 0) {
		return []string{text, text + ".0"}
	}
	return []string{text}
}

func valueType(v interface{}) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case []interface{}:
		return "array"
	case map[string]interface{}:
		return "object"
	}
	return "number"
}

func nodeType(n Node) string {
	switch v := n.(type) {
	case Scalar:
		return v.Kind().String()
	case Sequence:
		return "array"
	case *Mapping:
		return "object"
	case Match:
		switch v.Matcher.ValueType() {
		case pattern.NumberValue:
			return "number"
		case pattern.BooleanValue:
			return "boolean"
		}
		return "string"
	case Cell:
		return nodeType(v.Producer)
	}
	return "null"
}
