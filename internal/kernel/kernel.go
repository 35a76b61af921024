// Package kernel provides the launch-grid primitive both core kernels
// (the delay estimator and the residual-cube scorer) dispatch through. It
// is the Go-native stand-in for a GPU kernel launch: work is split into
// fixed-size blocks of independent "work-items", each identified by a
// single global id, and run across a worker-goroutine pool with no
// synchronization between items, matching the disjoint-write-range model
// the spec calls out for these kernels.
package kernel

import (
	"runtime"
	"sync"
)

// Config describes a one-dimensional launch grid: GlobalSize work-items,
// dispatched Workers at a time. Workers <= 0 defaults to GOMAXPROCS.
type Config struct {
	GlobalSize int
	Workers    int
}

// Launch runs fn(globalID) once for every globalID in [0, cfg.GlobalSize),
// distributing the range across a worker pool. fn must not write to any
// memory another globalID also writes to — Launch provides no
// synchronization, by design.
func Launch(cfg Config, fn func(globalID int)) {
	if cfg.GlobalSize <= 0 {
		return
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > cfg.GlobalSize {
		workers = cfg.GlobalSize
	}
	if workers <= 1 {
		for id := 0; id < cfg.GlobalSize; id++ {
			fn(id)
		}
		return
	}

	blockSize := (cfg.GlobalSize + workers - 1) / workers

	var wg sync.WaitGroup
	for start := 0; start < cfg.GlobalSize; start += blockSize {
		end := start + blockSize
		if end > cfg.GlobalSize {
			end = cfg.GlobalSize
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for id := start; id < end; id++ {
				fn(id)
			}
		}(start, end)
	}
	wg.Wait()
}
