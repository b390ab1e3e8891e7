package pactfile

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/form3tech-oss/pact-contracts/internal/app/contract"
	"github.com/form3tech-oss/pact-contracts/internal/app/pattern"
	"github.com/pkg/errors"
	"github.com/tidwall/sjson"
)

var (
	plainKey    = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	pathEscaper = strings.NewReplacer(`\`, `\\`, ".", `\.`, "*", `\*`, "?", `\?`, "|", `\|`, "#", `\#`, "@", `\@`, ":", `\:`)
)

// Export writes a resolved interaction as a pact document. Match leaves of a
// producer projection are written as examples plus matching rules, and every
// assertion becomes a matching rule. HTTP interactions use v2 rules, messages
// use v3 rules.
func Export(c *contract.Concrete) ([]byte, error) {
	if c == nil {
		return nil, errors.New("nothing to export")
	}

	w := &writer{doc: []byte(`{}`)}
	w.set("description", c.Description)
	if c.Name != "" && c.Name != c.Description {
		w.set("name", c.Name)
	}
	if c.Ignored {
		w.set("ignored", true)
	}
	if c.InProgress {
		w.set("pending", true)
	}

	switch {
	case c.HTTP != nil:
		w.http(c.HTTP)
	case c.Messaging != nil:
		w.messaging(c.Messaging)
	default:
		return nil, fmt.Errorf("interaction '%s' has nothing to export", c.Name)
	}

	if w.err != nil {
		return nil, errors.Wrap(w.err, "unable to export interaction")
	}
	return w.doc, nil
}

type writer struct {
	doc []byte
	err error
}

func (w *writer) set(path string, value interface{}) {
	if w.err != nil {
		return
	}
	w.doc, w.err = sjson.SetBytes(w.doc, path, value)
}

func (w *writer) setRaw(path string, raw []byte) {
	if w.err != nil {
		return
	}
	w.doc, w.err = sjson.SetRawBytes(w.doc, path, raw)
}

func (w *writer) fail(err error) {
	if w.err == nil {
		w.err = err
	}
}

func (w *writer) http(h *contract.ConcreteHTTP) {
	req := h.Request

	method, _ := w.text(req.Method, "request.method")
	w.set("request.method", method)

	uri, m := w.text(req.URL, "request.url")
	path, query := uri, ""
	if i := strings.IndexByte(uri, '?'); i >= 0 {
		path, query = uri[:i], uri[i+1:]
	}
	w.set("request.path", path)
	if query != "" {
		w.set("request.query", query)
	}
	if m != nil {
		// the loader appends the query to the path regex again
		expr := strings.TrimSuffix(m.Expression(), `\?`+regexp.QuoteMeta(query))
		w.rule("request", "$.path", map[string]interface{}{"match": "regex", "regex": expr})
	}

	w.headers("request", req.Headers, "request.headers")
	w.body("request", req.Body, req.Assertions, "request.body")

	res := h.Response
	status, _ := w.text(res.Status, "response.status")
	code, err := strconv.Atoi(status)
	if err != nil {
		w.fail(errors.Wrapf(err, "invalid status '%s'", status))
		return
	}
	w.set("response.status", code)
	w.headers("response", res.Headers, "response.headers")
	w.body("response", res.Body, res.Assertions, "response.body")
}

func (w *writer) rule(part, key string, rule map[string]interface{}) {
	w.set(part+".matchingRules."+pathEscaper.Replace(key), rule)
}

func (w *writer) headers(part string, headers contract.Headers, seed string) {
	if len(headers) == 0 {
		return
	}

	var names []string
	values := map[string][]string{}
	for i, h := range headers {
		text, m := w.text(h.Value, seed+"."+h.Name+"["+strconv.Itoa(i)+"]")
		if _, seen := values[h.Name]; !seen {
			names = append(names, h.Name)
		}
		values[h.Name] = append(values[h.Name], text)
		if m != nil {
			w.rule(part, "$.headers."+h.Name, expressionRule(m))
		}
	}
	for _, name := range names {
		w.set(part+".headers."+pathEscaper.Replace(name), strings.Join(values[name], ", "))
	}
}

func (w *writer) body(part string, body contract.Node, assertions []contract.Assertion, seed string) {
	if body == nil {
		return
	}
	w.writeExample(part+".body", body, seed)

	walkMatches(body, "$.body", func(at string, m *pattern.Matcher) {
		w.rule(part, at, regexRule(m))
	})
	for _, a := range assertions {
		w.rule(part, "$.body"+strings.TrimPrefix(a.Path, "$"), assertionRule(a))
	}
}

func (w *writer) messaging(m *contract.ConcreteMessaging) {
	w.set("source", m.Input.Channel)
	w.set("destination", m.Output.Channel)
	w.message("", m.Output, "output")

	if m.Input.Body != nil || len(m.Input.Headers) > 0 {
		w.message("input.", m.Input, "input")
	}
}

func (w *writer) message(prefix string, msg contract.ConcreteMessage, seed string) {
	if msg.Body == nil {
		w.setRaw(prefix+"contents", []byte("null"))
	} else {
		w.writeExample(prefix+"contents", msg.Body, seed+".body")
	}

	for i, h := range msg.Headers {
		text, m := w.text(h.Value, seed+".headers."+h.Name+"["+strconv.Itoa(i)+"]")
		w.set(prefix+"metaData."+pathEscaper.Replace(h.Name), text)
		if m != nil {
			w.v3Rule(prefix, "metadata", h.Name, expressionRule(m))
		}
	}

	walkMatches(msg.Body, "$", func(at string, m *pattern.Matcher) {
		w.v3Rule(prefix, "body", at, regexRule(m))
	})
	for _, a := range msg.Assertions {
		w.v3Rule(prefix, "body", a.Path, assertionRule(a))
	}
}

func (w *writer) v3Rule(prefix, section, key string, rule map[string]interface{}) {
	w.set(prefix+"matchingRules."+section+"."+pathEscaper.Replace(key), map[string]interface{}{
		"matchers": []interface{}{rule},
	})
}

func (w *writer) writeExample(path string, n contract.Node, seed string) {
	raw, err := json.Marshal(contract.ResolveNode(n, contract.Consumer, seed))
	if err != nil {
		w.fail(errors.Wrapf(err, "unable to encode %s", path))
		return
	}
	w.setRaw(path, raw)
}

// text renders a scalar position. A Match is written as its example and
// returned so that the caller can add a rule for it.
func (w *writer) text(n contract.Node, seed string) (string, *pattern.Matcher) {
	switch v := n.(type) {
	case nil:
		return "", nil
	case contract.Scalar:
		return v.Text(), nil
	case contract.Match:
		return v.Matcher.Example(seed), v.Matcher
	}

	raw, err := json.Marshal(contract.ResolveNode(n, contract.Consumer, seed))
	if err != nil {
		w.fail(errors.Wrapf(err, "unable to encode %s", seed))
	}
	return string(raw), nil
}

func walkMatches(n contract.Node, at string, fn func(string, *pattern.Matcher)) {
	switch v := n.(type) {
	case contract.Match:
		fn(at, v.Matcher)
	case contract.Sequence:
		for i := range v {
			walkMatches(v[i], at+"["+strconv.Itoa(i)+"]", fn)
		}
	case *contract.Mapping:
		for _, e := range v.Entries() {
			walkMatches(e.Value, at+keyPath(e.Key), fn)
		}
	}
}

func keyPath(key string) string {
	if plainKey.MatchString(key) {
		return "." + key
	}
	return "[" + strconv.Quote(key) + "]"
}

// expressionRule is used where pact only understands regex rules.
func expressionRule(m *pattern.Matcher) map[string]interface{} {
	return map[string]interface{}{"match": "regex", "regex": m.Expression()}
}

func regexRule(m *pattern.Matcher) map[string]interface{} {
	switch m.Kind() {
	case pattern.AnyInteger:
		return map[string]interface{}{"match": "integer"}
	case pattern.AnyDecimal:
		return map[string]interface{}{"match": "decimal"}
	case pattern.AnyNumber:
		return map[string]interface{}{"match": "number"}
	case pattern.AnyBoolean:
		return map[string]interface{}{"match": "boolean"}
	}
	return expressionRule(m)
}

func assertionRule(a contract.Assertion) map[string]interface{} {
	switch a.Type {
	case contract.RegexMatch:
		if a.Pattern != nil {
			return regexRule(a.Pattern)
		}
	case contract.TimestampMatch:
		return map[string]interface{}{"match": "timestamp"}
	case contract.DateMatch:
		return map[string]interface{}{"match": "date"}
	case contract.TimeMatch:
		return map[string]interface{}{"match": "time"}
	case contract.TypeMatch:
		rule := map[string]interface{}{"match": "type"}
		if a.Min > 0 {
			rule["min"] = a.Min
		}
		if a.Max > 0 {
			rule["max"] = a.Max
		}
		return rule
	case contract.NullMatch:
		return map[string]interface{}{"match": "null"}
	}
	return map[string]interface{}{"match": "equality"}
}
