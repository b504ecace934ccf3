package keylock

import (
	"sync"
	"testing"
)

func TestLockSerializesSameKey(t *testing.T) {
	kl := New()
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			kl.Lock("ticket-1")
			counter++
			kl.Unlock("ticket-1")
		}()
	}
	wg.Wait()

	if counter != 50 {
		t.Fatalf("counter = %d, want 50", counter)
	}
	if len(kl.locks) != 0 {
		t.Fatalf("lock map should be empty after all holders release, has %d entries", len(kl.locks))
	}
}

func TestDistinctKeysDoNotBlock(t *testing.T) {
	kl := New()
	kl.Lock("a")
	defer kl.Unlock("a")

	done := make(chan struct{})
	go func() {
		kl.Lock("b")
		kl.Unlock("b")
		close(done)
	}()
	<-done
}

func TestUnlockUnheldKeyPanics(t *testing.T) {
	kl := New()
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on unlock of unheld key")
		}
	}()
	kl.Unlock("never-locked")
}
