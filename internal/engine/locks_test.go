package engine

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSessionLocksSerializePerSession(t *testing.T) {
	locks := newSessionLocks()

	var mu sync.Mutex
	order := make(map[string][]int)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		for _, session := range []string{"a", "b"} {
			wg.Add(1)
			go func(i int, session string) {
				defer wg.Done()
				locks.lock(session)
				defer locks.unlock(session)

				mu.Lock()
				order[session] = append(order[session], i)
				mu.Unlock()
			}(i, session)
		}
	}
	wg.Wait()

	assert.Len(t, order["a"], 50)
	assert.Len(t, order["b"], 50)

	// All entries released; the lock table must not grow without bound.
	locks.mu.Lock()
	assert.Empty(t, locks.locks)
	locks.mu.Unlock()
}
