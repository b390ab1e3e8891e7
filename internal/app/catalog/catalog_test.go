package catalog

import (
	"sync"
	"testing"

	"github.com/form3tech-oss/pact-contracts/internal/app/contract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func interaction(t *testing.T, name string) *contract.Interaction {
	t.Helper()
	i, err := contract.NewHTTP().
		Name(name).
		Method("GET").
		URL("/users/1").
		Status(200).
		ResponseBody(map[string]interface{}{"id": 1}).
		Build()
	require.NoError(t, err)
	return i
}

func TestStoreDeduplicatesEqualInteractions(t *testing.T) {
	c := &Catalog{}

	id, duplicate := c.Store(interaction(t, "get user"))
	assert.False(t, duplicate)
	assert.Len(t, id, 16)

	again, duplicate := c.Store(interaction(t, "get user"))
	assert.True(t, duplicate)
	assert.Equal(t, id, again)
	assert.Len(t, c.All(), 1)

	other, duplicate := c.Store(interaction(t, "get another user"))
	assert.False(t, duplicate)
	assert.NotEqual(t, id, other)
	assert.Len(t, c.All(), 2)
}

func TestStoreSuffixesCollidingIds(t *testing.T) {
	c := &Catalog{}
	first := interaction(t, "first")
	second := interaction(t, "second")

	// occupy the id of second with a different interaction
	c.interactions.Store(ID(second), first)

	id, duplicate := c.Store(second)
	assert.False(t, duplicate)
	assert.Equal(t, ID(second)+"-1", id)

	loaded, ok := c.Load(id)
	require.True(t, ok)
	assert.Same(t, second, loaded)
}

func TestLoad(t *testing.T) {
	c := &Catalog{}
	i := interaction(t, "get user")
	id, _ := c.Store(i)

	loaded, ok := c.Load(id)
	require.True(t, ok)
	assert.True(t, i.Equal(loaded))

	_, ok = c.Load("missing")
	assert.False(t, ok)
}

func TestAllIsOrderedById(t *testing.T) {
	c := &Catalog{}
	for _, name := range []string{"a", "b", "c", "d"} {
		c.Store(interaction(t, name))
	}

	records := c.All()
	require.Len(t, records, 4)
	for i := 1; i < len(records); i++ {
		assert.Less(t, records[i-1].ID, records[i].ID)
	}
}

func TestClear(t *testing.T) {
	c := &Catalog{}
	id, _ := c.Store(interaction(t, "get user"))
	c.Clear()

	assert.Empty(t, c.All())
	_, ok := c.Load(id)
	assert.False(t, ok)
}

func TestConcurrentStore(t *testing.T) {
	c := &Catalog{}
	i := interaction(t, "get user")

	wg := sync.WaitGroup{}
	ids := make([]string, 20)
	for n := range ids {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			ids[n], _ = c.Store(i)
		}(n)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	assert.Len(t, c.All(), 1)
}
