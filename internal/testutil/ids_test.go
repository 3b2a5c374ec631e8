package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequentialIDs_Sequence(t *testing.T) {
	ids := NewSequentialIDs("orbit")

	assert.Equal(t, "orbit-0001", ids.Next())
	assert.Equal(t, "orbit-0002", ids.Next())
	assert.Equal(t, "orbit-0003", ids.Next())
}

func TestSequentialIDs_EmptyPrefixDefault(t *testing.T) {
	ids := NewSequentialIDs("")
	assert.Equal(t, "test-0001", ids.Next())
}

func TestSequentialIDs_Deterministic(t *testing.T) {
	a := NewSequentialIDs("x")
	b := NewSequentialIDs("x")
	for i := 0; i < 50; i++ {
		assert.Equal(t, a.Next(), b.Next())
	}
}

func TestSequentialIDs_ThreadSafe(t *testing.T) {
	ids := NewSequentialIDs("p")
	const numGoroutines = 50
	const callsPerGoroutine = 20

	var mu sync.Mutex
	seen := make(map[string]bool)

	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < callsPerGoroutine; j++ {
				id := ids.Next()
				mu.Lock()
				assert.False(t, seen[id], "duplicate id %s", id)
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, numGoroutines*callsPerGoroutine)
}
