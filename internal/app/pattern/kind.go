package pattern

// Kind names a semantic matcher in the library.
type Kind string

const (
	NonBlankString     Kind = "non_blank_string"
	NonEmpty           Kind = "non_empty"
	AnyString          Kind = "any_string"
	AnyBoolean         Kind = "any_boolean"
	AnyNumber          Kind = "any_number"
	AnyInteger         Kind = "any_integer"
	AnyDecimal         Kind = "any_decimal"
	AnyPositiveInt     Kind = "any_positive_int"
	AnyURL             Kind = "any_url"
	AnyIPv4            Kind = "any_ipv4"
	AnyHostname        Kind = "any_hostname"
	AnyEmail           Kind = "any_email"
	AnyUUID            Kind = "any_uuid"
	AnyDate            Kind = "any_date"
	AnyTime            Kind = "any_time"
	AnyDateTime        Kind = "any_date_time"
	AnyTimestamp       Kind = "any_timestamp"
	AnyISO8601TimeZone Kind = "any_iso8601_with_offset"
	AnyAlphanumeric    Kind = "any_alphanumeric"
	AnyHex             Kind = "any_hex"

	// Regex is the kind of every matcher built from a caller supplied expression.
	Regex Kind = "regex"
)

// ValueType is the JSON type of the examples a matcher produces.
type ValueType int

const (
	StringValue ValueType = iota
	NumberValue
	BooleanValue
)

func (t ValueType) String() string {
	switch t {
	case NumberValue:
		return "number"
	case BooleanValue:
		return "boolean"
	}
	return "string"
}
