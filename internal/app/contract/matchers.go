package contract

import (
	"fmt"

	"github.com/form3tech-oss/pact-contracts/internal/app/pattern"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Target says which render a body matcher takes part in.
type Target int

const (
	Both Target = iota
	Stub
	Test
)

func (t Target) String() string {
	switch t {
	case Stub:
		return "stub"
	case Test:
		return "test"
	}
	return "both"
}

type MatchingType int

const (
	EqualityMatch MatchingType = iota
	RegexMatch
	TypeMatch
	TimestampMatch
	DateMatch
	TimeMatch
	NullMatch
)

func (t MatchingType) String() string {
	switch t {
	case RegexMatch:
		return "regex"
	case TypeMatch:
		return "type"
	case TimestampMatch:
		return "timestamp"
	case DateMatch:
		return "date"
	case TimeMatch:
		return "time"
	case NullMatch:
		return "null"
	}
	return "equality"
}

// BodyMatcher refines how the body value at Path is generated (Stub), asserted
// (Test) or both.
type BodyMatcher struct {
	Path      string
	Type      MatchingType
	Pattern   *pattern.Matcher
	Value     Node
	Min       int
	Max       int
	AppliesTo Target

	path Path
}

func ByRegex(path string, m *pattern.Matcher, target Target) BodyMatcher {
	return BodyMatcher{Path: path, Type: RegexMatch, Pattern: m, AppliesTo: target}
}

func ByTimestamp(path string, target Target) BodyMatcher {
	return BodyMatcher{Path: path, Type: TimestampMatch, Pattern: pattern.MustResolve(pattern.AnyTimestamp), AppliesTo: target}
}

func ByDate(path string, target Target) BodyMatcher {
	return BodyMatcher{Path: path, Type: DateMatch, Pattern: pattern.MustResolve(pattern.AnyDate), AppliesTo: target}
}

func ByTime(path string, target Target) BodyMatcher {
	return BodyMatcher{Path: path, Type: TimeMatch, Pattern: pattern.MustResolve(pattern.AnyTime), AppliesTo: target}
}

// ByType asserts the JSON type of the value. For sequences min and max bound
// the length; zero means unbounded.
func ByType(path string, min, max int, target Target) BodyMatcher {
	return BodyMatcher{Path: path, Type: TypeMatch, Min: min, Max: max, AppliesTo: target}
}

func ByEquality(path string, target Target) BodyMatcher {
	return BodyMatcher{Path: path, Type: EqualityMatch, AppliesTo: target}
}

func ByNull(path string, target Target) BodyMatcher {
	return BodyMatcher{Path: path, Type: NullMatch, AppliesTo: target}
}

// WithValue places value at path in rendered stubs.
func WithValue(path string, value Node) BodyMatcher {
	return BodyMatcher{Path: path, Type: EqualityMatch, Value: value, AppliesTo: Stub}
}

func (m BodyMatcher) compile() (BodyMatcher, error) {
	if (m.Type == RegexMatch || m.Type == TimestampMatch || m.Type == DateMatch || m.Type == TimeMatch) && m.Pattern == nil {
		return m, fmt.Errorf("%s matcher at '%s' has no pattern", m.Type, m.Path)
	}
	if m.Value != nil {
		if err := checkNode(m.Value); err != nil {
			return m, errors.Wrapf(err, "value of matcher at '%s'", m.Path)
		}
		m.Value = copyNode(m.Value)
	}
	if m.path != nil {
		return m, nil
	}
	p, err := ParsePath(m.Path)
	if err != nil {
		return m, err
	}
	m.path = p
	return m, nil
}

func (m BodyMatcher) canonicalPath() string {
	if m.path != nil {
		return m.path.String()
	}
	if p, err := ParsePath(m.Path); err == nil {
		return p.String()
	}
	return m.Path
}

func (m BodyMatcher) Equal(other BodyMatcher) bool {
	return m.canonicalPath() == other.canonicalPath() &&
		m.Type == other.Type &&
		m.Pattern.Equal(other.Pattern) &&
		Equal(m.Value, other.Value) &&
		m.Min == other.Min &&
		m.Max == other.Max &&
		m.AppliesTo == other.AppliesTo
}

// BodyMatchers is a declaration ordered set of body matchers.
type BodyMatchers []BodyMatcher

// HasMatchers reports whether body level matching is needed at all.
func (ms BodyMatchers) HasMatchers() bool {
	return len(ms) > 0
}

func (ms BodyMatchers) Equal(other BodyMatchers) bool {
	if len(ms) != len(other) {
		return false
	}
	for i := range ms {
		if !ms[i].Equal(other[i]) {
			return false
		}
	}
	return true
}

func (ms BodyMatchers) copy() BodyMatchers {
	if ms == nil {
		return nil
	}
	out := make(BodyMatchers, len(ms))
	for i, m := range ms {
		m.Value = copyNode(m.Value)
		out[i] = m
	}
	return out
}

func (ms BodyMatchers) compile() (BodyMatchers, error) {
	if len(ms) == 0 {
		return nil, nil
	}
	out := make(BodyMatchers, 0, len(ms))
	for _, m := range ms {
		compiled, err := m.compile()
		if err != nil {
			return nil, errors.Wrap(err, "invalid body matcher")
		}
		out = append(out, compiled)
	}
	return out, nil
}

// ConflictPolicy decides which matcher wins when several address the same
// path for the same mode.
type ConflictPolicy int

const (
	// PreferSpecific lets Stub (consumer) or Test (producer) entries win over
	// Both entries; among entries of the same level the last declared wins.
	PreferSpecific ConflictPolicy = iota
	// LastWins takes the last declared applicable entry.
	LastWins
	// RejectConflicts fails when two different entries of the winning level
	// address the same path.
	RejectConflicts
)

func (p ConflictPolicy) String() string {
	switch p {
	case LastWins:
		return "last-wins"
	case RejectConflicts:
		return "reject"
	}
	return "prefer-specific"
}

func ParseConflictPolicy(s string) (ConflictPolicy, error) {
	switch s {
	case "", "prefer-specific":
		return PreferSpecific, nil
	case "last-wins":
		return LastWins, nil
	case "reject":
		return RejectConflicts, nil
	}
	return PreferSpecific, fmt.Errorf("unknown matcher conflict policy '%s'", s)
}

// effective returns the matchers that apply to mode after conflicts on the
// same path have been settled, in the order their paths were first declared.
func (ms BodyMatchers) effective(mode Mode, policy ConflictPolicy) (BodyMatchers, error) {
	specific := Stub
	if mode == Producer {
		specific = Test
	}

	type slot struct {
		matcher BodyMatcher
		rank    int
	}
	slots := map[string]*slot{}
	var order []string

	for _, m := range ms {
		if m.AppliesTo != Both && m.AppliesTo != specific {
			continue
		}
		m, err := m.compile()
		if err != nil {
			return nil, err
		}

		rank := 0
		if m.AppliesTo == specific {
			rank = 1
		}

		key := m.canonicalPath()
		current, ok := slots[key]
		if !ok {
			slots[key] = &slot{matcher: m, rank: rank}
			order = append(order, key)
			continue
		}

		switch policy {
		case LastWins:
			current.matcher, current.rank = m, rank
		case PreferSpecific:
			if rank >= current.rank {
				current.matcher, current.rank = m, rank
			}
		case RejectConflicts:
			if rank > current.rank {
				current.matcher, current.rank = m, rank
			} else if rank == current.rank && !m.Equal(current.matcher) {
				return nil, &AmbiguousBodyMatcherError{Path: key, Mode: mode}
			}
		}
	}

	out := make(BodyMatchers, 0, len(order))
	for _, key := range order {
		out = append(out, slots[key].matcher)
	}
	return out, nil
}

// Assertion is a body matcher in force for one render, with the value the
// body held at its path.
type Assertion struct {
	Path     string
	Type     MatchingType
	Pattern  *pattern.Matcher
	Expected Node
	Min      int
	Max      int
}

func (a Assertion) Equal(other Assertion) bool {
	return a.Path == other.Path &&
		a.Type == other.Type &&
		a.Pattern.Equal(other.Pattern) &&
		Equal(a.Expected, other.Expected) &&
		a.Min == other.Min &&
		a.Max == other.Max
}

// Effective is a resolved body together with the assertions that refine how
// it is compared.
type Effective struct {
	Body       Node
	Assertions []Assertion
}

// Apply resolves body for mode and applies the matchers that target it.
func (ms BodyMatchers) Apply(body Node, mode Mode) (Effective, error) {
	return defaultResolver.applyMatchers(body, ms, mode, "body")
}

func (r *Resolver) applyMatchers(body Node, ms BodyMatchers, mode Mode, seed string) (Effective, error) {
	resolved := resolveNode(body, mode, seed)
	if !ms.HasMatchers() {
		return Effective{Body: resolved}, nil
	}

	effective, err := ms.effective(mode, r.policy)
	if err != nil {
		return Effective{}, err
	}

	assertions := make([]Assertion, 0, len(effective))
	for _, m := range effective {
		expected, found := m.path.lookup(resolved)
		if !found {
			log.Debugf("no body value at '%s' for %s matcher", m.canonicalPath(), m.Type)
		}
		assertions = append(assertions, Assertion{
			Path:     m.canonicalPath(),
			Type:     m.Type,
			Pattern:  m.Pattern,
			Expected: expected,
			Min:      m.Min,
			Max:      m.Max,
		})

		if resolved == nil {
			continue
		}
		switch mode {
		case Consumer:
			resolved = m.stub(resolved, seed)
		case Producer:
			resolved = m.test(resolved)
		}
	}
	return Effective{Body: resolved, Assertions: assertions}, nil
}

func (m BodyMatcher) stub(body Node, seed string) Node {
	if m.Value == nil && m.Pattern == nil {
		return body
	}
	replaced, _ := m.path.replace(body, func(current Node, at Path) Node {
		if m.Value != nil {
			return resolveNode(m.Value, Consumer, seed+at.String())
		}
		if s, ok := current.(Scalar); ok && s.Kind() != NullScalar && matchesValue(m.Pattern, s.Value()) {
			return current
		}
		return exampleScalar(m.Pattern, seed+at.String())
	})
	return replaced
}

func (m BodyMatcher) test(body Node) Node {
	if m.Pattern == nil {
		return body
	}
	replaced, _ := m.path.replace(body, func(Node, Path) Node {
		return Match{Matcher: m.Pattern}
	})
	return replaced
}
