package service

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyedMutex_SerializesPerKey(t *testing.T) {
	km := newKeyedMutex()

	const goroutines = 8
	const iterations = 500

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				m := km.lock("same")
				counter++
				m.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, goroutines*iterations, counter)
}

func TestKeyedMutex_IndependentKeys(t *testing.T) {
	km := newKeyedMutex()

	// Holding one key must not block another.
	first := km.lock("a")
	defer first.Unlock()

	done := make(chan struct{})
	go func() {
		km.lock("b").Unlock()
		close(done)
	}()
	<-done
}

func TestUserKey_Distinct(t *testing.T) {
	assert.NotEqual(t, userKey(1, 23), userKey(12, 3))
	assert.Equal(t, userKey(123, 456), userKey(123, 456))
}
