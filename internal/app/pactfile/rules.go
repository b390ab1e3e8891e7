package pactfile

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/form3tech-oss/pact-contracts/internal/app/contract"
	"github.com/form3tech-oss/pact-contracts/internal/app/pattern"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// looks for a matching rule for key "$.path" in the supplied map
// if the found element is a map, it is treated as a pacs v2 style matching rule (i.e. "$.path": { "regex": "<expression>" } )
// if the found element is an array, it is treated as a pacs v3 list of matchers (i.e. "path": { "matchers": [ {"match": "regex", "regex": "<exp>"}]} )
func getPathRegex(matchingRules map[string]interface{}) (string, error) {
	if rule, hasPathV2Rule := matchingRules["$.path"]; hasPathV2Rule {
		val, ok := rule.(map[string]interface{})
		if !ok {
			return "", fmt.Errorf("invalid v2 pathRegex invalid content")
		}
		regexType, ok := val["regex"]
		if !ok {
			return "", fmt.Errorf("invalid v2 pathRegex does not have regex value")
		}
		regexString, ok := regexType.(string)
		if !ok {
			return "", fmt.Errorf("invalid v2 pathRegex invalid regex type")
		}
		return regexString, nil
	}

	if rule, hasPathV3Rule := matchingRules["path"]; hasPathV3Rule {
		regex, found, err := firstRegex(rule)
		if err != nil {
			return "", errors.Wrap(err, "invalid v3 pathRegex")
		}
		if !found {
			return "", fmt.Errorf("invalid v3 pathRegex - regex matcher is not found")
		}
		return regex, nil
	}

	// no path rule present
	return "", nil
}

// getHeaderRegex finds a regex rule for a header, either v2 style
// ("$.headers.Name") or v3 style ("header": {"Name": {"matchers": [...]}}).
func getHeaderRegex(matchingRules map[string]interface{}, section, name string) (string, error) {
	if rule, ok := matchingRules["$.headers."+name]; ok {
		val, ok := rule.(map[string]interface{})
		if !ok {
			return "", fmt.Errorf("invalid v2 header rule for '%s'", name)
		}
		regex, _ := val["regex"].(string)
		return regex, nil
	}

	rules, ok := matchingRules[section].(map[string]interface{})
	if !ok {
		return "", nil
	}
	rule, ok := rules[name]
	if !ok {
		return "", nil
	}
	regex, _, err := firstRegex(rule)
	if err != nil {
		return "", errors.Wrapf(err, "invalid v3 %s rule for '%s'", section, name)
	}
	return regex, nil
}

func firstRegex(rule interface{}) (string, bool, error) {
	matchers, err := v3Matchers(rule)
	if err != nil {
		return "", false, err
	}
	for _, m := range matchers {
		if match, _ := m["match"].(string); match != "regex" {
			continue
		}
		regex, ok := m["regex"].(string)
		if !ok {
			return "", false, errors.New("\"regex\" field is not found")
		}
		return regex, true, nil
	}
	return "", false, nil
}

func v3Matchers(rule interface{}) ([]map[string]interface{}, error) {
	val, ok := rule.(map[string]interface{})
	if !ok {
		return nil, errors.New("invalid content")
	}
	matchers, ok := val["matchers"]
	if !ok {
		return nil, errors.New("no matchers found")
	}
	matchersArray, ok := matchers.([]interface{})
	if !ok || len(matchersArray) == 0 {
		return nil, errors.New("invalid matchers")
	}

	out := make([]map[string]interface{}, 0, len(matchersArray))
	for _, m := range matchersArray {
		matcher, ok := m.(map[string]interface{})
		if !ok {
			return nil, errors.New("invalid matcher")
		}
		out = append(out, matcher)
	}
	return out, nil
}

func getMatchingRules(part map[string]interface{}) map[string]interface{} {
	rulesMap, ok := part["matchingRules"].(map[string]interface{})
	if !ok {
		return map[string]interface{}{}
	}
	return rulesMap
}

// getBodyMatchers turns the body rules of a request, response or message into
// body matchers targeting producer tests.
// It understands both v2 style matching rules (' "$.body.data.id": { "regex": "<exp>" } )
// and v3 style matching rules ( '"body": { "$.data.id": { "matchers": [...] } } } )
func getBodyMatchers(matchingRules map[string]interface{}) (contract.BodyMatchers, error) {
	keys := make([]string, 0, len(matchingRules))
	for k := range matchingRules {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var matchers contract.BodyMatchers
	for _, k := range keys {
		v := matchingRules[k]
		switch {
		case strings.HasPrefix(k, "$.body"):
			rule, ok := v.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("invalid v2 matching rule for '%s'", k)
			}
			m, err := toBodyMatcher("$"+strings.TrimPrefix(k, "$.body"), rule)
			if err != nil {
				return nil, err
			}
			matchers = append(matchers, m)
		case k == "body":
			properties, ok := v.(map[string]interface{})
			if !ok {
				return nil, errors.New("invalid v3 body matching rules")
			}
			ms, err := getV3BodyMatchers(properties)
			if err != nil {
				return nil, err
			}
			matchers = append(matchers, ms...)
		}
	}
	return matchers, nil
}

func getV3BodyMatchers(properties map[string]interface{}) (contract.BodyMatchers, error) {
	paths := make([]string, 0, len(properties))
	for p := range properties {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var matchers contract.BodyMatchers
	for _, path := range paths {
		rules, err := v3Matchers(properties[path])
		if err != nil {
			return nil, errors.Wrapf(err, "invalid v3 matching rule for '%s'", path)
		}
		if !strings.HasPrefix(path, "$") {
			path = "$." + path
		}
		for _, rule := range rules {
			m, err := toBodyMatcher(path, rule)
			if err != nil {
				return nil, err
			}
			matchers = append(matchers, m)
		}
	}
	return matchers, nil
}

func toBodyMatcher(path string, rule map[string]interface{}) (contract.BodyMatcher, error) {
	match, _ := rule["match"].(string)
	if match == "" {
		switch {
		case rule["regex"] != nil:
			match = "regex"
		case rule["min"] != nil || rule["max"] != nil:
			match = "type"
		default:
			return contract.BodyMatcher{}, fmt.Errorf("matching rule at '%s' has no match type", path)
		}
	}

	switch match {
	case "regex":
		regex, ok := rule["regex"].(string)
		if !ok {
			return contract.BodyMatcher{}, fmt.Errorf("regex rule at '%s' has no regex", path)
		}
		m, err := pattern.NewRegex(regex)
		if err != nil {
			return contract.BodyMatcher{}, err
		}
		return contract.ByRegex(path, m, contract.Test), nil
	case "type":
		min, _ := intValue(rule["min"])
		max, _ := intValue(rule["max"])
		return contract.ByType(path, min, max, contract.Test), nil
	case "timestamp", "datetime":
		logFormat(path, rule)
		return contract.ByTimestamp(path, contract.Test), nil
	case "date":
		logFormat(path, rule)
		return contract.ByDate(path, contract.Test), nil
	case "time":
		logFormat(path, rule)
		return contract.ByTime(path, contract.Test), nil
	case "integer":
		return contract.ByRegex(path, pattern.MustResolve(pattern.AnyInteger), contract.Test), nil
	case "decimal":
		return contract.ByRegex(path, pattern.MustResolve(pattern.AnyDecimal), contract.Test), nil
	case "number":
		return contract.ByRegex(path, pattern.MustResolve(pattern.AnyNumber), contract.Test), nil
	case "boolean":
		return contract.ByRegex(path, pattern.MustResolve(pattern.AnyBoolean), contract.Test), nil
	case "null":
		return contract.ByNull(path, contract.Test), nil
	case "equality":
		return contract.ByEquality(path, contract.Test), nil
	case "include":
		value, ok := rule["value"].(string)
		if !ok {
			return contract.BodyMatcher{}, fmt.Errorf("include rule at '%s' has no value", path)
		}
		m, err := pattern.NewRegex(`[\S\s]*` + regexp.QuoteMeta(value) + `[\S\s]*`)
		if err != nil {
			return contract.BodyMatcher{}, err
		}
		return contract.ByRegex(path, m, contract.Test), nil
	}
	return contract.BodyMatcher{}, fmt.Errorf("unsupported matching rule '%s' at '%s'", match, path)
}

func logFormat(path string, rule map[string]interface{}) {
	for _, key := range []string{"format", "timestamp", "date", "time"} {
		if format, ok := rule[key].(string); ok {
			log.Debugf("ignoring date format '%s' at '%s', ISO 8601 is assumed", format, path)
			return
		}
	}
}

func intValue(v interface{}) (int, bool) {
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		return int(i), err == nil
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}
