package contract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

type segmentKind int

const (
	keySegment segmentKind = iota
	indexSegment
	wildcardSegment
)

type segment struct {
	kind  segmentKind
	key   string
	index int
}

// Path addresses nodes of a body tree. It understands the subset of JSONPath
// used by matching rules: $, .key, ['key'], ["key"], [n], [*] and .*
type Path []segment

var plainKey = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func ParsePath(expr string) (Path, error) {
	if !strings.HasPrefix(expr, "$") {
		return nil, fmt.Errorf("path '%s' must start with '$'", expr)
	}

	var path Path
	rest := expr[1:]
	for len(rest) > 0 {
		switch rest[0] {
		case '.':
			rest = rest[1:]
			if strings.HasPrefix(rest, "*") {
				path = append(path, segment{kind: wildcardSegment})
				rest = rest[1:]
				continue
			}
			end := strings.IndexAny(rest, ".[")
			if end < 0 {
				end = len(rest)
			}
			if end == 0 {
				return nil, fmt.Errorf("path '%s' has an empty key", expr)
			}
			path = append(path, segment{kind: keySegment, key: rest[:end]})
			rest = rest[end:]
		case '[':
			closing := strings.Index(rest, "]")
			if closing < 0 {
				return nil, fmt.Errorf("path '%s' has an unterminated '['", expr)
			}
			seg, consumed, err := parseBracket(rest)
			if err != nil {
				return nil, errors.Wrapf(err, "invalid path '%s'", expr)
			}
			path = append(path, seg)
			rest = rest[consumed:]
		default:
			return nil, fmt.Errorf("path '%s' has an unexpected character '%c'", expr, rest[0])
		}
	}
	return path, nil
}

// parseBracket reads one [..] selector from the start of s and returns the
// number of bytes it used.
func parseBracket(s string) (segment, int, error) {
	if len(s) > 1 && (s[1] == '\'' || s[1] == '"') {
		quote := s[1]
		var key strings.Builder
		for i := 2; i < len(s); i++ {
			switch {
			case s[i] == '\\' && i+1 < len(s):
				i++
				key.WriteByte(s[i])
			case s[i] == quote:
				if i+1 >= len(s) || s[i+1] != ']' {
					return segment{}, 0, errors.New("quoted key must be followed by ']'")
				}
				return segment{kind: keySegment, key: key.String()}, i + 2, nil
			default:
				key.WriteByte(s[i])
			}
		}
		return segment{}, 0, errors.New("unterminated quoted key")
	}

	closing := strings.Index(s, "]")
	inner := strings.TrimSpace(s[1:closing])
	if inner == "*" {
		return segment{kind: wildcardSegment}, closing + 1, nil
	}
	index, err := strconv.Atoi(inner)
	if err != nil || index < 0 {
		return segment{}, 0, fmt.Errorf("'%s' is not an index", inner)
	}
	return segment{kind: indexSegment, index: index}, closing + 1, nil
}

// String renders the path in a canonical form that jsonpath evaluators
// accept: keys that are not plain identifiers are written as ["key"].
func (p Path) String() string {
	var b strings.Builder
	b.WriteString("$")
	for _, s := range p {
		switch s.kind {
		case keySegment:
			if plainKey.MatchString(s.key) {
				b.WriteString("." + s.key)
			} else {
				b.WriteString("[" + strconv.Quote(s.key) + "]")
			}
		case indexSegment:
			b.WriteString("[" + strconv.Itoa(s.index) + "]")
		case wildcardSegment:
			b.WriteString("[*]")
		}
	}
	return b.String()
}

func (p Path) key(k string) Path {
	return append(append(Path(nil), p...), segment{kind: keySegment, key: k})
}

func (p Path) at(i int) Path {
	return append(append(Path(nil), p...), segment{kind: indexSegment, index: i})
}

func (p Path) HasWildcard() bool {
	for _, s := range p {
		if s.kind == wildcardSegment {
			return true
		}
	}
	return false
}

// Covers reports whether p addresses other or one of its ancestors.
func (p Path) Covers(other Path) bool {
	if len(p) > len(other) {
		return false
	}
	for i, s := range p {
		if s.kind == wildcardSegment {
			continue
		}
		if s != other[i] {
			return false
		}
	}
	return true
}

// replace returns a copy of n in which every node addressed by p has been
// passed through fn, together with the number of replaced nodes. n itself is
// left untouched.
func (p Path) replace(n Node, fn func(Node, Path) Node) (Node, int) {
	return replaceAt(n, p, nil, fn)
}

func replaceAt(n Node, rest, at Path, fn func(Node, Path) Node) (Node, int) {
	if len(rest) == 0 {
		return fn(n, at), 1
	}

	seg := rest[0]
	switch v := n.(type) {
	case *Mapping:
		switch seg.kind {
		case keySegment:
			child, ok := v.Get(seg.key)
			if !ok {
				return n, 0
			}
			replaced, count := replaceAt(child, rest[1:], at.key(seg.key), fn)
			if count == 0 {
				return n, 0
			}
			return v.with(seg.key, replaced), count
		case wildcardSegment:
			out := NewMapping()
			total := 0
			for _, e := range v.Entries() {
				replaced, count := replaceAt(e.Value, rest[1:], at.key(e.Key), fn)
				total += count
				out.set(e.Key, replaced)
			}
			if total == 0 {
				return n, 0
			}
			return out, total
		}
	case Sequence:
		switch seg.kind {
		case indexSegment:
			if seg.index >= len(v) {
				return n, 0
			}
			replaced, count := replaceAt(v[seg.index], rest[1:], at.at(seg.index), fn)
			if count == 0 {
				return n, 0
			}
			out := append(Sequence(nil), v...)
			out[seg.index] = replaced
			return out, count
		case wildcardSegment:
			out := make(Sequence, len(v))
			total := 0
			for i := range v {
				replaced, count := replaceAt(v[i], rest[1:], at.at(i), fn)
				total += count
				out[i] = replaced
			}
			if total == 0 {
				return n, 0
			}
			return out, total
		}
	}
	return n, 0
}

// lookup returns the first node addressed by p.
func (p Path) lookup(n Node) (Node, bool) {
	var found Node
	_, count := p.replace(n, func(current Node, _ Path) Node {
		if found == nil {
			found = current
		}
		return current
	})
	return found, count > 0
}
