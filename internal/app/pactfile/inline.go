package pactfile

import (
	"fmt"
	"strconv"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	termClass      = "Pact::Term"
	likeClass      = "Pact::SomethingLike"
	arrayLikeClass = "Pact::ArrayLike"
)

// rewriteInlineMatchers replaces the json_class matchers written by pact-go
// and the ruby mock service with their examples, and records the matching
// rules they stand for as v2 rules of part.
func rewriteInlineMatchers(part map[string]interface{}) error {
	r := &inlineRewriter{rules: map[string]interface{}{}}

	if path, ok := part["path"]; ok {
		v, err := r.value(path, "$.path", false)
		if err != nil {
			return errors.Wrap(err, "invalid path")
		}
		part["path"] = v
	}

	for _, field := range []string{"headers", "query"} {
		values, ok := part[field].(map[string]interface{})
		if !ok {
			continue
		}
		rewritten := make(map[string]interface{}, len(values))
		for name, value := range values {
			v, err := r.value(value, "$."+field+"."+name, false)
			if err != nil {
				return errors.Wrapf(err, "invalid %s '%s'", field, name)
			}
			rewritten[name] = v
		}
		part[field] = rewritten
	}

	if body, ok := part["body"]; ok {
		v, err := r.value(body, "$.body", true)
		if err != nil {
			return errors.Wrap(err, "invalid body")
		}
		part["body"] = v
	}

	if len(r.rules) == 0 {
		return nil
	}
	rules := getMatchingRules(part)
	for k, v := range r.rules {
		if _, ok := rules[k]; ok {
			log.Warnf("inline matcher at '%s' replaces a matching rule", k)
		}
		rules[k] = v
	}
	part["matchingRules"] = rules
	return nil
}

type inlineRewriter struct {
	rules map[string]interface{}
}

func (r *inlineRewriter) value(v interface{}, at string, body bool) (interface{}, error) {
	switch val := v.(type) {
	case map[string]interface{}:
		if class, ok := val["json_class"].(string); ok {
			return r.matcher(class, val, at, body)
		}
		out := make(map[string]interface{}, len(val))
		for k, item := range val {
			rewritten, err := r.value(item, at+keyPath(k), body)
			if err != nil {
				return nil, err
			}
			out[k] = rewritten
		}
		return out, nil
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			rewritten, err := r.value(item, at+"["+strconv.Itoa(i)+"]", body)
			if err != nil {
				return nil, err
			}
			out[i] = rewritten
		}
		return out, nil
	}
	return v, nil
}

func (r *inlineRewriter) matcher(class string, m map[string]interface{}, at string, body bool) (interface{}, error) {
	switch class {
	case termClass:
		data, ok := m["data"].(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("term at '%s' has no data", at)
		}
		matcher, _ := data["matcher"].(map[string]interface{})
		regex, ok := matcher["s"].(string)
		if !ok {
			return nil, fmt.Errorf("term at '%s' has no regex", at)
		}
		r.rules[at] = map[string]interface{}{"match": "regex", "regex": regex}
		return data["generate"], nil

	case likeClass:
		contents, err := r.value(m["contents"], at, body)
		if err != nil {
			return nil, err
		}
		r.typeRule(at, body, map[string]interface{}{"match": "type"})
		return contents, nil

	case arrayLikeClass:
		min, ok := intValue(m["min"])
		if !ok || min < 1 {
			min = 1
		}
		element, err := r.value(m["contents"], at+"[*]", body)
		if err != nil {
			return nil, err
		}
		items := make([]interface{}, min)
		for i := range items {
			items[i] = element
		}
		r.typeRule(at, body, map[string]interface{}{"match": "type", "min": min})
		return items, nil
	}
	return nil, fmt.Errorf("unsupported json_class '%s' at '%s'", class, at)
}

func (r *inlineRewriter) typeRule(at string, body bool, rule map[string]interface{}) {
	if !body {
		log.Debugf("ignoring type matcher at '%s', only body values can be matched by type", at)
		return
	}
	r.rules[at] = rule
}
