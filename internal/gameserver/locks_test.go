package gameserver

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestKeyedMutex_ReleasesEntries(t *testing.T) {
	k := newKeyedMutex()
	unlock := k.Lock("b", "a", "b", "")
	assert.Equal(t, 2, k.size())
	unlock()
	assert.Zero(t, k.size())
}

func TestKeyedMutex_SerializesSharedKeys(t *testing.T) {
	k := newKeyedMutex()
	var wg sync.WaitGroup
	counter := 0
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Overlapping sets in opposite orders must not deadlock.
			keys := []string{"trainer", "creature"}
			if i%2 == 0 {
				keys = []string{"creature", "trainer"}
			}
			unlock := k.Lock(keys...)
			defer unlock()
			counter++
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, counter)
	assert.Zero(t, k.size())
}

func TestProperty_KeyedMutex_AlwaysDrains(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		k := newKeyedMutex()
		keys := rapid.SliceOf(rapid.StringMatching(`[a-c]{0,2}`)).Draw(rt, "keys")
		unlock := k.Lock(keys...)
		if k.size() > len(keys) {
			rt.Fatalf("size %d exceeds %d keys", k.size(), len(keys))
		}
		unlock()
		if k.size() != 0 {
			rt.Fatalf("size %d after unlock", k.size())
		}
	})
}
