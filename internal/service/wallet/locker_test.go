package wallet

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyedMutex(t *testing.T) {
	m := newKeyedMutex()

	counter := 0
	var wg sync.WaitGroup
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := m.Lock("key")
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, counter)
	require.Empty(t, m.locks, "released keys must be forgotten")
}

func TestKeyedMutex_DifferentKeys(t *testing.T) {
	m := newKeyedMutex()

	unlockA := m.Lock("a")
	defer unlockA()

	// Would deadlock if keys shared the lock
	unlockB := m.Lock("b")
	unlockB()
}
