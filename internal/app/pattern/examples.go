package pattern

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/lucasjones/reggen"
	log "github.com/sirupsen/logrus"
)

const (
	regexRepeatLimit = 10
	regexAttempts    = 5
)

var words = []string{
	"alpha", "bravo", "charlie", "delta", "echo", "foxtrot", "golf", "hotel",
	"india", "juliet", "kilo", "lima", "mike", "november", "oscar", "papa",
}

var uuidNamespace = uuid.MustParse("6ba7b811-9dad-11d1-80b4-00c04fd430c8")

func seedHash(seed string) uint64 {
	return xxhash.Sum64String(seed)
}

func word(h uint64, n int) string {
	return words[(h>>(uint(n)*4))%uint64(len(words))]
}

func wordExample(seed string) string {
	h := seedHash(seed)
	return word(h, 0)
}

func booleanExample(seed string) string {
	if seedHash(seed)%2 == 0 {
		return "true"
	}
	return "false"
}

func integerExample(seed string) string {
	return fmt.Sprintf("%d", seedHash(seed)%1000)
}

func positiveIntExample(seed string) string {
	return fmt.Sprintf("%d", seedHash(seed)%1000+1)
}

// the fractional digit is never zero so canonical number formatting keeps it
func decimalExample(seed string) string {
	h := seedHash(seed)
	return fmt.Sprintf("%d.%d", h%1000, (h>>16)%9+1)
}

func hostnameExample(seed string) string {
	h := seedHash(seed)
	return word(h, 0) + "." + word(h, 1) + ".com"
}

func urlExample(seed string) string {
	h := seedHash(seed)
	return "https://" + hostnameExample(seed) + "/" + word(h, 2)
}

func ipv4Example(seed string) string {
	h := seedHash(seed)
	return fmt.Sprintf("%d.%d.%d.%d", h&0xff, (h>>8)&0xff, (h>>16)&0xff, (h>>24)&0xff)
}

func emailExample(seed string) string {
	h := seedHash(seed)
	return word(h, 0) + "@" + word(h, 1) + ".com"
}

func uuidExample(seed string) string {
	return uuid.NewSHA1(uuidNamespace, []byte(seed)).String()
}

func dateExample(seed string) string {
	h := seedHash(seed)
	return fmt.Sprintf("%04d-%02d-%02d", 2000+h%30, (h>>8)%12+1, (h>>16)%28+1)
}

func timeExample(seed string) string {
	h := seedHash(seed) >> 24
	return fmt.Sprintf("%02d:%02d:%02d", h%24, (h>>8)%60, (h>>16)%60)
}

func dateTimeExample(seed string) string {
	return dateExample(seed) + "T" + timeExample(seed)
}

func timestampExample(seed string) string {
	return fmt.Sprintf("%s.%03dZ", dateTimeExample(seed), seedHash(seed)%1000)
}

func alphanumericExample(seed string) string {
	h := seedHash(seed)
	return fmt.Sprintf("%s%d", word(h, 0), h%100)
}

func hexExample(seed string) string {
	return fmt.Sprintf("%x", seedHash(seed)&0xffffffff)
}

// regexExample generates a string matching expr. Generation is seeded from
// the seed so that stubs are stable between runs.
func regexExample(expr string, matches func(string) bool) func(string) string {
	return func(seed string) string {
		g, err := reggen.NewGenerator(expr)
		if err != nil {
			log.Warnf("unable to generate example for regex '%s': %s", expr, err)
			return expr
		}

		h := seedHash(seed)
		var example string
		for attempt := 0; attempt < regexAttempts; attempt++ {
			g.SetSeed(int64(h) + int64(attempt))
			example = g.Generate(regexRepeatLimit)
			if matches(example) {
				return example
			}
		}
		log.Warnf("generated example '%s' does not match regex '%s'", example, expr)
		return example
	}
}

func anyOfExpression(values []string) string {
	quoted := make([]string, 0, len(values))
	for _, v := range values {
		quoted = append(quoted, regexp.QuoteMeta(v))
	}
	return "(" + strings.Join(quoted, "|") + ")"
}
