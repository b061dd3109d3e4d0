package keylock

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKeyLock_SerializesSameKey(t *testing.T) {
	kl := New()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			kl.Lock("place-1")
			defer kl.Unlock("place-1")
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, counter)
}

func TestKeyLock_IndependentKeysDoNotBlock(t *testing.T) {
	kl := New()

	kl.Lock("place-1")
	defer kl.Unlock("place-1")

	done := make(chan struct{})
	go func() {
		kl.Lock("place-2")
		kl.Unlock("place-2")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("lock on unrelated key blocked")
	}
}

func TestKeyLock_EntryDroppedAfterUnlock(t *testing.T) {
	kl := New()

	kl.Lock("place-1")
	kl.Unlock("place-1")

	kl.mu.Lock()
	defer kl.mu.Unlock()
	assert.Empty(t, kl.entries)
}
