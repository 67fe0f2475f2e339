package workspace

import (
	"sync"
	"testing"
	"time"
)

func TestWritersToSamePathSerialize(t *testing.T) {
	locks := NewLockSet()
	var active, maxActive int
	var mu sync.Mutex
	var wg sync.WaitGroup

	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release := locks.Acquire([]string{"/ws/a.txt"}, true)
			defer release()
			mu.Lock()
			active++
			if active > maxActive {
				maxActive = active
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			active--
			mu.Unlock()
		}()
	}
	wg.Wait()

	if maxActive != 1 {
		t.Fatalf("expected writers to serialize, saw %d concurrent", maxActive)
	}
}

func TestReadersOfDisjointPathsOverlap(t *testing.T) {
	locks := NewLockSet()
	first := locks.Acquire([]string{"/ws/a.txt"}, false)
	defer first()

	done := make(chan struct{})
	go func() {
		release := locks.Acquire([]string{"/ws/b.txt"}, false)
		release()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("disjoint reader blocked behind unrelated lock")
	}
}

func TestExclusiveBlocksPathScoped(t *testing.T) {
	locks := NewLockSet()
	release := locks.AcquireExclusive()

	acquired := make(chan struct{})
	go func() {
		r := locks.Acquire([]string{"/ws/a.txt"}, false)
		r()
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("path-scoped call ran during exclusive hold")
	case <-time.After(50 * time.Millisecond):
	}

	release()
	select {
	case <-acquired:
	case <-time.After(2 * time.Second):
		t.Fatal("path-scoped call never ran after exclusive release")
	}
}

func TestDuplicatePathsInOneCall(t *testing.T) {
	locks := NewLockSet()
	// Same path twice must not self-deadlock.
	release := locks.Acquire([]string{"/ws/a.txt", "/ws/a.txt"}, true)
	release()
}
