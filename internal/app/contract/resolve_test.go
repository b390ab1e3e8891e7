package contract

import (
	"sync"
	"testing"

	"github.com/form3tech-oss/pact-contracts/internal/app/pattern"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func literalOnlyInteraction(t *testing.T) *Interaction {
	t.Helper()
	i, err := NewHTTP().
		Name("create user").
		Method("POST").
		URL("/users").
		RequestHeader("Content-Type", "application/json").
		RequestHeader("Accept", "application/json").
		RequestBody(map[string]interface{}{"name": "bob", "roles": []interface{}{"admin", "ops"}}).
		Status(201).
		ResponseHeader("Content-Type", "application/json").
		ResponseBody(map[string]interface{}{"id": 1, "name": "bob", "address": nil}).
		Build()
	require.NoError(t, err)
	return i
}

func TestLiteralOnlyInteractionResolvesSymmetrically(t *testing.T) {
	i := literalOnlyInteraction(t)

	consumer, err := Resolve(i, Consumer)
	require.NoError(t, err)
	producer, err := Resolve(i, Producer)
	require.NoError(t, err)

	assert.Equal(t, Consumer, consumer.Mode)
	assert.Equal(t, Producer, producer.Mode)
	assert.True(t, consumer.HTTP.Equal(producer.HTTP))
	assert.Nil(t, consumer.Messaging)
	assert.Equal(t, String("/users"), consumer.HTTP.Request.URL)
	assert.Equal(t, Int(201), consumer.HTTP.Response.Status)
}

func TestSymmetricCellResolvesToItsValue(t *testing.T) {
	cell, err := DualOf("/1", "/1")
	require.NoError(t, err)

	i, err := NewHTTP().Method("GET").URL(cell).Status(200).Build()
	require.NoError(t, err)

	for _, mode := range []Mode{Consumer, Producer} {
		c, err := Resolve(i, mode)
		require.NoError(t, err)
		assert.Equal(t, String("/1"), c.HTTP.Request.URL, "mode %s", mode)
	}
}

func TestDualCellResolvesPerMode(t *testing.T) {
	users := mustRegex(t, `/users/\d+`)
	i, err := NewHTTP().
		Method("GET").
		URL(Dual(String("/users/1"), Match{Matcher: users})).
		Status(200).
		Build()
	require.NoError(t, err)

	consumer, err := Resolve(i, Consumer)
	require.NoError(t, err)
	assert.Equal(t, String("/users/1"), consumer.HTTP.Request.URL)

	producer, err := Resolve(i, Producer)
	require.NoError(t, err)
	match, ok := producer.HTTP.Request.URL.(Match)
	require.True(t, ok)
	assert.Same(t, users, match.Matcher)
}

func TestBareMatcherResolvesToExampleForConsumer(t *testing.T) {
	uuid := pattern.MustResolve(pattern.AnyUUID)
	integer := pattern.MustResolve(pattern.AnyInteger)
	i, err := NewHTTP().
		Method("GET").
		URL("/orders").
		RequestHeader("X-Request-Id", uuid).
		Status(200).
		ResponseBody(map[string]interface{}{"count": integer}).
		Build()
	require.NoError(t, err)

	c, err := Resolve(i, Consumer)
	require.NoError(t, err)

	id, _ := c.HTTP.Request.Headers.Get("X-Request-Id")
	s, ok := id.(Scalar)
	require.True(t, ok)
	assert.True(t, uuid.Matches(s.Text()))

	count, _ := c.HTTP.Response.Body.(*Mapping).Get("count")
	s, ok = count.(Scalar)
	require.True(t, ok)
	assert.Equal(t, NumberScalar, s.Kind())
	assert.True(t, integer.Matches(s.Text()))

	p, err := Resolve(i, Producer)
	require.NoError(t, err)
	id, _ = p.HTTP.Request.Headers.Get("X-Request-Id")
	assert.Equal(t, Match{Matcher: uuid}, id)
}

func TestMessagingExampleResolvesIdenticallyInBothModes(t *testing.T) {
	i, err := NewMessage().
		Source("input").
		InputBody(map[string]interface{}{"foo": "bar"}).
		Destination("output").
		OutputBody(map[string]interface{}{"foo2": "bar"}).
		Build()
	require.NoError(t, err)

	consumer, err := Resolve(i, Consumer)
	require.NoError(t, err)
	producer, err := Resolve(i, Producer)
	require.NoError(t, err)

	require.NotNil(t, consumer.Messaging)
	assert.Nil(t, consumer.HTTP)
	assert.True(t, consumer.Messaging.Equal(producer.Messaging))
	assert.Equal(t, "input", consumer.Messaging.Input.Channel)
	assert.Equal(t, "output", consumer.Messaging.Output.Channel)

	foo2, _ := consumer.Messaging.Output.Body.(*Mapping).Get("foo2")
	assert.Equal(t, String("bar"), foo2)
}

func TestTestOnlyTimestampMatcher(t *testing.T) {
	i, err := NewHTTP().
		Method("GET").
		URL("/users/1").
		Status(200).
		ResponseBody(map[string]interface{}{"id": 1, "created": "2020-01-01T00:00:00Z"}).
		ResponseMatchers(ByTimestamp("$.created", Test)).
		Build()
	require.NoError(t, err)

	e, _ := i.HTTP()
	assert.True(t, e.Response.Matchers.HasMatchers())

	producer, err := Resolve(i, Producer)
	require.NoError(t, err)
	created, _ := producer.HTTP.Response.Body.(*Mapping).Get("created")
	match, ok := created.(Match)
	require.True(t, ok)
	assert.Equal(t, pattern.AnyTimestamp, match.Matcher.Kind())
	require.Len(t, producer.HTTP.Response.Assertions, 1)
	assertion := producer.HTTP.Response.Assertions[0]
	assert.Equal(t, "$.created", assertion.Path)
	assert.Equal(t, TimestampMatch, assertion.Type)
	assert.Equal(t, String("2020-01-01T00:00:00Z"), assertion.Expected)

	consumer, err := Resolve(i, Consumer)
	require.NoError(t, err)
	created, _ = consumer.HTTP.Response.Body.(*Mapping).Get("created")
	assert.Equal(t, String("2020-01-01T00:00:00Z"), created)
	assert.Empty(t, consumer.HTTP.Response.Assertions)
}

func TestStubMatchers(t *testing.T) {
	uuid := pattern.MustResolve(pattern.AnyUUID)
	i, err := NewHTTP().
		Method("GET").
		URL("/users").
		Status(200).
		ResponseBody(map[string]interface{}{
			"id":    "not-a-uuid",
			"ref":   "7c9e6679-7425-40de-944b-e07fc1f90ae7",
			"name":  "bob",
			"count": 3,
		}).
		ResponseMatchers(
			ByRegex("$.id", uuid, Stub),
			ByRegex("$.ref", uuid, Stub),
			WithValue("$.name", String("stubbed")),
		).
		Build()
	require.NoError(t, err)

	consumer, err := Resolve(i, Consumer)
	require.NoError(t, err)
	body := consumer.HTTP.Response.Body.(*Mapping)

	id, _ := body.Get("id")
	assert.NotEqual(t, String("not-a-uuid"), id)
	assert.True(t, uuid.Matches(id.(Scalar).Text()))
	ref, _ := body.Get("ref")
	assert.Equal(t, String("7c9e6679-7425-40de-944b-e07fc1f90ae7"), ref)
	name, _ := body.Get("name")
	assert.Equal(t, String("stubbed"), name)
	assert.Len(t, consumer.HTTP.Response.Assertions, 3)

	producer, err := Resolve(i, Producer)
	require.NoError(t, err)
	body = producer.HTTP.Response.Body.(*Mapping)
	id, _ = body.Get("id")
	assert.Equal(t, String("not-a-uuid"), id)
	name, _ = body.Get("name")
	assert.Equal(t, String("bob"), name)
	assert.Empty(t, producer.HTTP.Response.Assertions)
}

func TestWildcardMatcher(t *testing.T) {
	integer := pattern.MustResolve(pattern.AnyInteger)
	body := map[string]interface{}{
		"items": []interface{}{
			map[string]interface{}{"id": 1},
			map[string]interface{}{"id": 2},
		},
	}
	i, err := NewHTTP().
		Method("GET").
		URL("/items").
		Status(200).
		ResponseBody(body).
		ResponseMatchers(ByRegex("$.items[*].id", integer, Both)).
		Build()
	require.NoError(t, err)

	consumer, err := Resolve(i, Consumer)
	require.NoError(t, err)
	want, err := Literal(body)
	require.NoError(t, err)
	assert.True(t, Equal(want, consumer.HTTP.Response.Body))

	producer, err := Resolve(i, Producer)
	require.NoError(t, err)
	items, _ := producer.HTTP.Response.Body.(*Mapping).Get("items")
	for _, item := range items.(Sequence) {
		id, _ := item.(*Mapping).Get("id")
		assert.Equal(t, Match{Matcher: integer}, id)
	}
	require.Len(t, producer.HTTP.Response.Assertions, 1)
	assert.Equal(t, "$.items[*].id", producer.HTTP.Response.Assertions[0].Path)
	assert.Equal(t, Int(1), producer.HTTP.Response.Assertions[0].Expected)
}

func TestResolveIsIdempotent(t *testing.T) {
	build := func() *Interaction {
		i, err := NewHTTP().
			Method("GET").
			URL(Dual(Match{Matcher: mustRegex(t, `/orders/[a-z]{3}\d{2}`)}, Match{Matcher: mustRegex(t, `/orders/\w+`)})).
			RequestHeader("X-Request-Id", pattern.MustResolve(pattern.AnyUUID)).
			Status(200).
			ResponseBody(map[string]interface{}{
				"id":      pattern.MustResolve(pattern.AnyPositiveInt),
				"email":   pattern.MustResolve(pattern.AnyEmail),
				"created": "2020-01-01T00:00:00Z",
			}).
			ResponseMatchers(ByRegex("$.created", pattern.MustResolve(pattern.AnyDateTime), Stub)).
			Build()
		require.NoError(t, err)
		return i
	}

	first, err := Resolve(build(), Consumer)
	require.NoError(t, err)
	second, err := Resolve(build(), Consumer)
	require.NoError(t, err)
	assert.True(t, first.Equal(second))

	i := build()
	again, err := Resolve(i, Consumer)
	require.NoError(t, err)
	assert.True(t, first.Equal(again))
}

func TestResolveConcurrently(t *testing.T) {
	i := literalOnlyInteraction(t)
	want, err := Resolve(i, Consumer)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]*Concrete, 16)
	for n := range results {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			results[n], _ = Resolve(i, Consumer)
		}(n)
	}
	wg.Wait()

	for _, got := range results {
		assert.True(t, want.Equal(got))
	}
}

func TestParseMode(t *testing.T) {
	for _, s := range []string{"consumer", "stub"} {
		m, err := ParseMode(s)
		require.NoError(t, err)
		assert.Equal(t, Consumer, m)
	}
	for _, s := range []string{"producer", "test"} {
		m, err := ParseMode(s)
		require.NoError(t, err)
		assert.Equal(t, Producer, m)
	}
	_, err := ParseMode("both")
	assert.Error(t, err)
}
