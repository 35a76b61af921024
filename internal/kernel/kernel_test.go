package kernel

import (
	"sync/atomic"
	"testing"
)

func TestLaunchVisitsEveryID(t *testing.T) {
	const n = 257
	var seen [n]int32

	Launch(Config{GlobalSize: n, Workers: 7}, func(id int) {
		atomic.AddInt32(&seen[id], 1)
	})

	for id, count := range seen {
		if count != 1 {
			t.Fatalf("globalID %d visited %d times, want 1", id, count)
		}
	}
}

func TestLaunchZeroSizeNoop(t *testing.T) {
	called := false
	Launch(Config{GlobalSize: 0}, func(int) { called = true })
	if called {
		t.Fatal("fn called for zero-size launch")
	}
}

func TestLaunchDefaultWorkers(t *testing.T) {
	var count int32
	Launch(Config{GlobalSize: 10}, func(id int) { atomic.AddInt32(&count, 1) })
	if count != 10 {
		t.Fatalf("got %d items processed, want 10", count)
	}
}
