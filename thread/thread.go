// Package thread implements the engine's optional parallel device-graph
// render pool (§5): distinct voice groups have disjoint state and can be
// rendered concurrently, as long as the caller gives each group its own,
// non-aliased work buffers. Synchronization is join-only — fork, render
// each group, join — with no shared mutable state crossing the join
// without this package's own happens-before edge.
//
// The reference engine is single-threaded; this package has no direct
// teacher analogue, so its shape follows spec.md's own description of the
// join-only contract plus the plain sync.WaitGroup style used for
// concurrency across the example pack (none of the pack's repos reach for
// golang.org/x/sync/errgroup for a fixed fan-out/fan-in like this one).
package thread

import (
	"context"
	"sync"
)

// Unit is one group's independent render work: it must not read or write
// any state another concurrently running Unit touches.
type Unit struct {
	GroupID uint64
	Render  func()
}

// Pool runs Units across a fixed number of worker goroutines, fork/join
// style: Run blocks until every Unit has completed or ctx is cancelled.
// Cancellation is cooperative at work-unit boundaries only — a Unit
// already running is allowed to finish; no new Unit is started once ctx is
// done.
type Pool struct {
	workers int
}

// New returns a Pool with the given worker count (at least 1).
func New(workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{workers: workers}
}

// Run dispatches units across the pool's workers and waits for all of them
// to either complete or be skipped due to cancellation. It returns ctx's
// error if cancellation cut the run short, nil otherwise.
func (p *Pool) Run(ctx context.Context, units []Unit) error {
	if len(units) == 0 {
		return nil
	}

	work := make(chan Unit)
	var wg sync.WaitGroup

	workers := p.workers
	if workers > len(units) {
		workers = len(units)
	}
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for u := range work {
				if ctx.Err() != nil {
					continue
				}
				u.Render()
			}
		}()
	}

	for _, u := range units {
		select {
		case work <- u:
		case <-ctx.Done():
		}
	}
	close(work)
	wg.Wait()

	return ctx.Err()
}
