package kv

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stamped struct {
	size int64
	body string
}

func TestCache_Lookup(t *testing.T) {
	c := New[string, stamped]()
	c.Put("/ws/.vscode/battle.json", stamped{size: 10, body: "v1"})

	size := int64(10)
	fresh := func(v stamped) bool { return v.size == size }

	val, ok := c.Lookup("/ws/.vscode/battle.json", fresh)
	assert.True(t, ok)
	assert.Equal(t, "v1", val.body)

	size = 12
	_, ok = c.Lookup("/ws/.vscode/battle.json", fresh)
	assert.False(t, ok, "stale entry is a miss")

	_, ok = c.Lookup("/missing", fresh)
	assert.False(t, ok)

	assert.Equal(t, Stats{Entries: 0, Hits: 1, Misses: 2}, c.Stats(), "stale entry is evicted")
}

func TestCache_ForgetAndReset(t *testing.T) {
	always := func(int) bool { return true }

	c := New[string, int]()
	c.Put("a", 1)
	c.Put("b", 2)

	c.Forget("a")
	_, ok := c.Lookup("a", always)
	assert.False(t, ok)
	_, ok = c.Lookup("b", always)
	assert.True(t, ok)

	c.Reset()
	assert.Equal(t, Stats{}, c.Stats())
}

func TestCache_ConcurrentAccess(t *testing.T) {
	c := New[int, int]()
	var wg sync.WaitGroup

	for i := range 100 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			c.Put(i, i*2)
		}()
		go func() {
			defer wg.Done()
			c.Lookup(i, func(v int) bool { return v == i*2 })
		}()
	}
	wg.Wait()

	st := c.Stats()
	assert.Equal(t, 100, st.Entries)
	assert.Equal(t, uint64(100), st.Hits+st.Misses)
}
