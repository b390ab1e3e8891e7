package contract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePath(t *testing.T) {
	tests := []struct {
		expr string
		want string
	}{
		{"$", "$"},
		{"$.a.b", "$.a.b"},
		{"$['a']['b']", "$.a.b"},
		{`$["first name"]`, `$["first name"]`},
		{"$['it\\'s']", `$["it's"]`},
		{"$.items[*].id", "$.items[*].id"},
		{"$.items.*", "$.items[*]"},
		{"$[0][12]", "$[0][12]"},
		{"$.a-b", `$["a-b"]`},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			p, err := ParsePath(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.String())
		})
	}
}

func TestParsePathErrors(t *testing.T) {
	for _, expr := range []string{"", "a.b", "$.", "$[x]", "$[-1]", "$[1", "$['a'", "$['a'b]", "$a"} {
		_, err := ParsePath(expr)
		assert.Errorf(t, err, "expected '%s' to be rejected", expr)
	}
}

func TestPathCovers(t *testing.T) {
	tests := []struct {
		path  string
		other string
		want  bool
	}{
		{"$", "$.a", true},
		{"$.a", "$.a", true},
		{"$.a", "$.a.b", true},
		{"$.a.b", "$.a", false},
		{"$.a", "$.b", false},
		{"$.items[*]", "$.items[2].id", true},
		{"$.items[*].id", "$.items[2].name", false},
		{"$.*.id", "$.user.id", true},
	}
	for _, tt := range tests {
		p, err := ParsePath(tt.path)
		require.NoError(t, err)
		other, err := ParsePath(tt.other)
		require.NoError(t, err)

		assert.Equalf(t, tt.want, p.Covers(other), "%s covers %s", tt.path, tt.other)
	}
}

func TestPathReplaceIsCopyOnWrite(t *testing.T) {
	body := NewMapping(
		Entry{Key: "items", Value: Sequence{
			NewMapping(Entry{Key: "id", Value: Int(1)}),
			NewMapping(Entry{Key: "id", Value: Int(2)}),
		}},
		Entry{Key: "name", Value: String("x")},
	)
	p, err := ParsePath("$.items[*].id")
	require.NoError(t, err)

	var visited []string
	replaced, count := p.replace(body, func(_ Node, at Path) Node {
		visited = append(visited, at.String())
		return String("changed")
	})

	assert.Equal(t, 2, count)
	assert.Equal(t, []string{"$.items[0].id", "$.items[1].id"}, visited)

	want := NewMapping(
		Entry{Key: "items", Value: Sequence{
			NewMapping(Entry{Key: "id", Value: String("changed")}),
			NewMapping(Entry{Key: "id", Value: String("changed")}),
		}},
		Entry{Key: "name", Value: String("x")},
	)
	assert.True(t, Equal(want, replaced))

	original, _ := p.lookup(body)
	assert.Equal(t, Int(1), original)
}

func TestPathReplaceMissing(t *testing.T) {
	body := NewMapping(Entry{Key: "a", Value: Sequence{Int(1)}})

	for _, expr := range []string{"$.b", "$.a[3]", "$.a.b", "$[0]"} {
		p, err := ParsePath(expr)
		require.NoError(t, err)

		replaced, count := p.replace(body, func(Node, Path) Node { return Null() })
		assert.Zerof(t, count, "path %s", expr)
		assert.Same(t, body, replaced)

		_, found := p.lookup(body)
		assert.Falsef(t, found, "path %s", expr)
	}
}
