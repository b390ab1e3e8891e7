package pattern

import (
	"fmt"
	"sort"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
)

const regexCacheSize = 512

// UnknownKindError is returned when a kind is not registered in the library.
type UnknownKindError struct {
	Kind Kind
}

func (e *UnknownKindError) Error() string {
	return fmt.Sprintf("unknown pattern kind '%s'", e.Kind)
}

type definition struct {
	kind      Kind
	expr      string
	valueType ValueType
	format    string
	example   func(string) string
}

var definitions = []definition{
	{NonBlankString, `[\S\s]*\S[\S\s]*`, StringValue, "", wordExample},
	{NonEmpty, `[\S\s]+`, StringValue, "", wordExample},
	{AnyString, `[\S\s]*`, StringValue, "", wordExample},
	{AnyBoolean, `(true|false)`, BooleanValue, "", booleanExample},
	{AnyNumber, `-?(\d*\.\d+|\d+)`, NumberValue, "", decimalExample},
	{AnyInteger, `-?(\d+)`, NumberValue, "", integerExample},
	{AnyDecimal, `-?(\d*\.\d+)`, NumberValue, "", decimalExample},
	{AnyPositiveInt, `([1-9]\d*)`, NumberValue, "", positiveIntExample},
	{AnyURL, `(https?|ftp)://[^\s/$.?#][^\s]*`, StringValue, "uri", urlExample},
	{AnyIPv4, `([01]?\d\d?|2[0-4]\d|25[0-5])\.([01]?\d\d?|2[0-4]\d|25[0-5])\.([01]?\d\d?|2[0-4]\d|25[0-5])\.([01]?\d\d?|2[0-4]\d|25[0-5])`, StringValue, "ipv4", ipv4Example},
	{AnyHostname, `[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(\.[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*`, StringValue, "hostname", hostnameExample},
	{AnyEmail, `[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,6}`, StringValue, "email", emailExample},
	{AnyUUID, `[a-f0-9]{8}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{12}`, StringValue, "uuid", uuidExample},
	{AnyDate, `(\d\d\d\d)-(0[1-9]|1[012])-(0[1-9]|[12][0-9]|3[01])`, StringValue, "date", dateExample},
	{AnyTime, `(2[0-3]|[01][0-9]):([0-5][0-9]):([0-5][0-9])`, StringValue, "", timeExample},
	{AnyDateTime, `([0-9]{4})-(1[0-2]|0[1-9])-(3[01]|0[1-9]|[12][0-9])T(2[0-3]|[01][0-9]):([0-5][0-9]):([0-5][0-9])`, StringValue, "", dateTimeExample},
	{AnyTimestamp, `([0-9]{4})-(1[0-2]|0[1-9])-(3[01]|0[1-9]|[12][0-9])T(2[0-3]|[01][0-9]):([0-5][0-9]):([0-5][0-9])(\.\d+)?(Z|[+-][01]\d:[0-5]\d)?`, StringValue, "", timestampExample},
	{AnyISO8601TimeZone, `([0-9]{4})-(1[0-2]|0[1-9])-(3[01]|0[1-9]|[12][0-9])T(2[0-3]|[01][0-9]):([0-5][0-9]):([0-5][0-9])(\.\d+)?(Z|[+-][01]\d:[0-5]\d)`, StringValue, "", timestampExample},
	{AnyAlphanumeric, `[a-zA-Z0-9]+`, StringValue, "", alphanumericExample},
	{AnyHex, `[a-fA-F0-9]+`, StringValue, "", hexExample},
}

var (
	registry   = map[Kind]*Matcher{}
	regexCache *lru.Cache[string, *Matcher]
)

func init() {
	for _, d := range definitions {
		m, err := newMatcher(d.kind, d.expr, d.valueType, d.format, d.example)
		if err != nil {
			panic(errors.Wrapf(err, "invalid built-in pattern '%s'", d.kind))
		}
		registry[d.kind] = m
	}

	cache, err := lru.New[string, *Matcher](regexCacheSize)
	if err != nil {
		panic(err)
	}
	regexCache = cache
}

// Resolve returns the matcher registered for kind.
func Resolve(kind Kind) (*Matcher, error) {
	m, ok := registry[kind]
	if !ok {
		return nil, &UnknownKindError{Kind: kind}
	}
	return m, nil
}

// MustResolve is like Resolve but panics for an unknown kind. It is meant for
// package level variables naming built-in kinds.
func MustResolve(kind Kind) *Matcher {
	m, err := Resolve(kind)
	if err != nil {
		panic(err)
	}
	return m
}

// Kinds lists the registered kinds in name order.
func Kinds() []Kind {
	kinds := make([]Kind, 0, len(registry))
	for k := range registry {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// NewRegex returns a matcher for a caller supplied expression. Compiled
// matchers are cached, so equal expressions share one matcher.
func NewRegex(expr string) (*Matcher, error) {
	if m, ok := regexCache.Get(expr); ok {
		return m, nil
	}

	m, err := newMatcher(Regex, expr, StringValue, "", nil)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to compile regex '%s'", expr)
	}
	m.example = regexExample(expr, m.re.MatchString)

	regexCache.Add(expr, m)
	return m, nil
}

// AnyOf returns a regex matcher accepting exactly one of values.
func AnyOf(values ...string) (*Matcher, error) {
	if len(values) == 0 {
		return nil, errors.New("any of requires at least one value")
	}
	return NewRegex(anyOfExpression(values))
}
