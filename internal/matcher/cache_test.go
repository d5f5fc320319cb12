package matcher

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCache_ReusesCompiledMatcher(t *testing.T) {
	cache := NewCache()
	words := []string{"spam", "scam"}

	first := cache.Get(100, words)
	second := cache.Get(100, words)

	assert.NotNil(t, first)
	assert.Same(t, first, second)
}

func TestCache_DistinctWordListsDistinctMatchers(t *testing.T) {
	cache := NewCache()

	a := cache.Get(100, []string{"spam"})
	b := cache.Get(100, []string{"spam", "scam"})

	assert.NotSame(t, a, b)
}

func TestCache_EmptyWordList(t *testing.T) {
	cache := NewCache()
	assert.Nil(t, cache.Get(100, nil))
	assert.Equal(t, 0, cache.Len())
}

func TestCache_InvalidateIsPerChat(t *testing.T) {
	cache := NewCache()
	words := []string{"spam"}

	first := cache.Get(100, words)
	other := cache.Get(200, words)

	cache.Invalidate(100)

	recompiled := cache.Get(100, words)
	assert.NotSame(t, first, recompiled)

	// Chat 200 still serves its original compiled matcher.
	assert.Same(t, other, cache.Get(200, words))
}

func TestCache_ConcurrentAccess(t *testing.T) {
	cache := NewCache()
	words := []string{"spam", "scam", "bad"}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(chatID int64) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				m := cache.Get(chatID, words)
				assert.NotNil(t, m)
				if j%50 == 0 {
					cache.Invalidate(chatID)
				}
			}
		}(int64(i % 3))
	}
	wg.Wait()
}
