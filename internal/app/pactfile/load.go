package pactfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/form3tech-oss/pact-contracts/internal/app/contract"
	"github.com/form3tech-oss/pact-contracts/internal/app/pattern"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	mediaTypeJSON = "application/json"
	mediaTypeText = "text/plain"
	mediaTypeXml  = "application/xml"
	mediaTypeCsv  = "text/csv"
)

// Load reads a single pact interaction. HTTP interactions carry a request
// and a response; message interactions carry contents and name their
// channels with "source" and "destination".
func Load(data []byte) (*contract.Interaction, error) {
	definition, err := decodeJSON(data)
	if err != nil {
		return nil, err
	}
	return fromDefinition(definition, "", "")
}

// LoadYAML reads the same document as Load written in YAML.
func LoadYAML(data []byte) (*contract.Interaction, error) {
	definition := make(map[string]interface{})
	if err := yaml.Unmarshal(data, &definition); err != nil {
		return nil, errors.Wrap(err, "unable to parse interaction definition")
	}
	return fromDefinition(definition, "", "")
}

// LoadMessage reads a pact v3 message. The message is the output of the
// interaction, published by source to destination.
func LoadMessage(data []byte, source, destination string) (*contract.Interaction, error) {
	definition, err := decodeJSON(data)
	if err != nil {
		return nil, err
	}
	if _, ok := definition["contents"]; !ok {
		return nil, errors.New("unable to parse message definition, no contents defined")
	}
	return fromDefinition(definition, source, destination)
}

type pactDocument struct {
	Consumer struct {
		Name string `json:"name"`
	} `json:"consumer"`
	Provider struct {
		Name string `json:"name"`
	} `json:"provider"`
	Interactions []json.RawMessage `json:"interactions"`
	Messages     []json.RawMessage `json:"messages"`
}

// LoadPact reads every interaction of a pact file. Messages are published by
// the provider to the consumer.
func LoadPact(data []byte) ([]*contract.Interaction, error) {
	var doc pactDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "unable to parse pact file")
	}

	interactions := make([]*contract.Interaction, 0, len(doc.Interactions)+len(doc.Messages))
	for n, raw := range doc.Interactions {
		i, err := Load(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "interaction %d", n)
		}
		interactions = append(interactions, i)
	}
	for n, raw := range doc.Messages {
		i, err := LoadMessage(raw, doc.Provider.Name, doc.Consumer.Name)
		if err != nil {
			return nil, errors.Wrapf(err, "message %d", n)
		}
		interactions = append(interactions, i)
	}
	log.Infof("loaded %d interactions between '%s' and '%s'", len(interactions), doc.Consumer.Name, doc.Provider.Name)
	return interactions, nil
}

func decodeJSON(data []byte) (map[string]interface{}, error) {
	definition := make(map[string]interface{})
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	if err := decoder.Decode(&definition); err != nil {
		return nil, errors.Wrap(err, "unable to parse interaction definition")
	}
	return definition, nil
}

func fromDefinition(definition map[string]interface{}, source, destination string) (*contract.Interaction, error) {
	description, ok := definition["description"].(string)
	if !ok {
		return nil, errors.New("unable to parse interaction definition, no Description defined")
	}
	name, ok := definition["name"].(string)
	if !ok {
		name = description
	}
	ignored, _ := definition["ignored"].(bool)
	inProgress, _ := definition["pending"].(bool)

	if request, ok := definition["request"].(map[string]interface{}); ok {
		b := contract.NewHTTP().Name(name).Description(description)
		if ignored {
			b.Ignored()
		}
		if inProgress {
			b.InProgress()
		}
		if err := loadHTTP(b, request, definition); err != nil {
			return nil, err
		}
		return b.Build()
	}

	if _, ok := definition["contents"]; ok {
		b := contract.NewMessage().Name(name).Description(description)
		if ignored {
			b.Ignored()
		}
		if inProgress {
			b.InProgress()
		}
		if err := loadMessage(b, definition, source, destination); err != nil {
			return nil, err
		}
		return b.Build()
	}

	return nil, errors.New("unable to parse interaction definition, no request or contents defined")
}

func loadHTTP(b *contract.HTTPBuilder, request, definition map[string]interface{}) error {
	if err := rewriteInlineMatchers(request); err != nil {
		return errors.Wrap(err, "unable to parse request")
	}
	requestRules := getMatchingRules(request)

	if method, ok := request["method"].(string); ok {
		b.Method(strings.ToUpper(method))
	}

	uri, err := loadURL(request, requestRules)
	if err != nil {
		return err
	}
	if uri != nil {
		b.URL(uri)
	}

	headers, err := loadHeaders(request, requestRules, "header")
	if err != nil {
		return errors.Wrap(err, "unable to parse request headers")
	}
	for _, h := range headers {
		b.RequestHeader(h.Name, h.Value)
	}

	if body, ok := request["body"]; ok {
		if err := checkMediaType(request, body); err != nil {
			return errors.Wrap(err, "unable to parse request body")
		}
		b.RequestBody(body)
	}

	matchers, err := getBodyMatchers(requestRules)
	if err != nil {
		return errors.Wrap(err, "unable to parse request matching rules")
	}
	b.RequestMatchers(matchers...)

	response, ok := definition["response"].(map[string]interface{})
	if !ok {
		return nil
	}
	if err := rewriteInlineMatchers(response); err != nil {
		return errors.Wrap(err, "unable to parse response")
	}
	responseRules := getMatchingRules(response)

	if status, ok := response["status"]; ok {
		b.Status(status)
	}

	headers, err = loadHeaders(response, responseRules, "header")
	if err != nil {
		return errors.Wrap(err, "unable to parse response headers")
	}
	for _, h := range headers {
		b.ResponseHeader(h.Name, h.Value)
	}

	if body, ok := response["body"]; ok {
		if err := checkMediaType(response, body); err != nil {
			return errors.Wrap(err, "unable to parse response body")
		}
		b.ResponseBody(body)
	}

	matchers, err = getBodyMatchers(responseRules)
	if err != nil {
		return errors.Wrap(err, "unable to parse response matching rules")
	}
	b.ResponseMatchers(matchers...)
	return nil
}

func loadMessage(b *contract.MessageBuilder, definition map[string]interface{}, source, destination string) error {
	if source == "" {
		source, _ = definition["source"].(string)
	}
	if destination == "" {
		destination, _ = definition["destination"].(string)
	}
	b.Source(source).Destination(destination)

	output, err := loadMessagePart(definition)
	if err != nil {
		return errors.Wrap(err, "unable to parse message")
	}
	for _, h := range output.headers {
		b.OutputHeader(h.Name, h.Value)
	}
	b.OutputBody(output.body).OutputMatchers(output.matchers...)

	input, ok := definition["input"].(map[string]interface{})
	if !ok {
		return nil
	}
	in, err := loadMessagePart(input)
	if err != nil {
		return errors.Wrap(err, "unable to parse input message")
	}
	for _, h := range in.headers {
		b.InputHeader(h.Name, h.Value)
	}
	if in.body != nil {
		b.InputBody(in.body)
	}
	b.InputMatchers(in.matchers...)
	return nil
}

type messagePart struct {
	headers  contract.Headers
	body     interface{}
	matchers contract.BodyMatchers
}

func loadMessagePart(part map[string]interface{}) (messagePart, error) {
	rules := getMatchingRules(part)

	metadata, ok := part["metaData"]
	if !ok {
		metadata = part["metadata"]
	}
	metadataRules := "metadata"
	if _, ok := rules["metaData"]; ok {
		metadataRules = "metaData"
	}
	headers, err := loadHeaderValues(metadata, rules, metadataRules)
	if err != nil {
		return messagePart{}, errors.Wrap(err, "invalid metadata")
	}

	matchers, err := getBodyMatchers(rules)
	if err != nil {
		return messagePart{}, errors.Wrap(err, "invalid matching rules")
	}
	return messagePart{headers: headers, body: part["contents"], matchers: matchers}, nil
}

// loadURL joins path and query into the consumer side of the URL. A path
// regex rule becomes the producer side.
func loadURL(request, matchingRules map[string]interface{}) (contract.Node, error) {
	path, _ := request["path"].(string)
	if path == "" {
		return nil, nil
	}

	query, err := queryString(request["query"])
	if err != nil {
		return nil, err
	}
	uri := path
	if query != "" {
		uri += "?" + query
	}

	regexString, err := getPathRegex(matchingRules)
	if err != nil {
		return nil, err
	}
	if regexString == "" {
		return contract.String(uri), nil
	}
	if query != "" {
		regexString += `\?` + regexp.QuoteMeta(query)
	}
	m, err := pattern.NewRegex(regexString)
	if err != nil {
		return nil, errors.Wrap(err, "unable to parse interaction definition, cannot parse path regex rule")
	}
	return contract.Dual(contract.String(uri), contract.Matching(m)), nil
}

// queryString accepts the v2 form ("a=1&b=2") and the v3 form
// ({"a": ["1"], "b": ["2"]}).
func queryString(query interface{}) (string, error) {
	switch q := query.(type) {
	case nil:
		return "", nil
	case string:
		return q, nil
	case map[string]interface{}:
		values := url.Values{}
		for k, v := range q {
			switch val := v.(type) {
			case string:
				values.Add(k, val)
			case []interface{}:
				for _, item := range val {
					values.Add(k, fmt.Sprint(item))
				}
			default:
				values.Add(k, fmt.Sprint(val))
			}
		}
		return values.Encode(), nil
	}
	return "", errors.New("incorrect format of request query")
}

func loadHeaders(part, matchingRules map[string]interface{}, section string) (contract.Headers, error) {
	return loadHeaderValues(part["headers"], matchingRules, section)
}

// loadHeaderValues reads a header map in name order. Array values become
// repeated header lines and a regex rule turns a value into a dual cell.
func loadHeaderValues(raw interface{}, matchingRules map[string]interface{}, section string) (contract.Headers, error) {
	if raw == nil {
		return nil, nil
	}
	parsed, ok := raw.(map[string]interface{})
	if !ok {
		return nil, errors.New("incorrect format of headers")
	}

	names := make([]string, 0, len(parsed))
	for name := range parsed {
		names = append(names, name)
	}
	sort.Strings(names)

	var headers contract.Headers
	for _, name := range names {
		values, ok := parsed[name].([]interface{})
		if !ok {
			values = []interface{}{parsed[name]}
		}

		regex, err := getHeaderRegex(matchingRules, section, name)
		if err != nil {
			return nil, err
		}
		var m *pattern.Matcher
		if regex != "" {
			if m, err = pattern.NewRegex(regex); err != nil {
				return nil, err
			}
		}

		for _, v := range values {
			value, err := contract.Literal(v)
			if err != nil {
				return nil, errors.Wrapf(err, "header '%s'", name)
			}
			if m != nil {
				side, ok := value.(contract.Side)
				if !ok {
					return nil, fmt.Errorf("header '%s' has an unsupported value", name)
				}
				value = contract.Dual(side, contract.Matching(m))
			}
			headers = append(headers, contract.Header{Name: name, Value: value})
		}
	}
	return headers, nil
}

func checkMediaType(part map[string]interface{}, body interface{}) error {
	if body == nil {
		return nil
	}
	mediaType, err := parseMediaType(part, body)
	if err != nil {
		return errors.Wrap(err, "unable to parse media type")
	}

	switch {
	case mediaType == mediaTypeJSON || strings.HasSuffix(mediaType, "+json"):
		switch body.(type) {
		case map[string]interface{}, []interface{}:
			return nil
		}
		return fmt.Errorf("media type is %s but body is not json", mediaType)
	case mediaType == mediaTypeText || mediaType == mediaTypeCsv || mediaType == mediaTypeXml:
		if _, ok := body.(string); ok {
			return nil
		}
		return fmt.Errorf("media type is %s but body is not text", mediaType)
	}
	return fmt.Errorf("unsupported media type %s", mediaType)
}

func parseMediaType(part map[string]interface{}, body interface{}) (string, error) {
	defaultType := mediaTypeText
	switch body.(type) {
	case map[string]interface{}, []interface{}:
		defaultType = mediaTypeJSON
	}

	headers, hasHeaders := part["headers"]
	if !hasHeaders {
		log.Infof("No headers defined - defaulting media type to %s", defaultType)
		return defaultType, nil
	}

	parsed, ok := headers.(map[string]interface{})
	if !ok {
		return "", errors.New("incorrect format of headers")
	}

	contentType, ok := parsed["Content-Type"]
	if !ok {
		log.Infof("No Content-Type header defined - defaulting media type to %s", defaultType)
		return defaultType, nil
	}
	if values, ok := contentType.([]interface{}); ok && len(values) > 0 {
		contentType = values[0]
	}

	contentTypeStr, ok := contentType.(string)
	if !ok {
		return "", errors.New("incorrect format of Content-Type header")
	}

	mediaType, _, err := mime.ParseMediaType(contentTypeStr)
	if err != nil {
		return "", err
	}

	return mediaType, nil
}
