package job

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Collector accumulates per-candidate results from concurrent workers.
type Collector struct {
	mu   sync.Mutex
	resp Response
}

func NewCollector(job, runID string, now time.Time) *Collector {
	return &Collector{
		resp: Response{
			RunID:   runID,
			Job:     job,
			Now:     now,
			Results: []ResultItem{},
		},
	}
}

func (c *Collector) Add(item ResultItem) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.resp.ProcessedCount++
	switch item.Outcome {
	case OutcomeSent:
		c.resp.SentCount++
	case OutcomeSkipped:
		c.resp.SkippedCount++
	case OutcomeFailed:
		c.resp.FailedCount++
	}
	if item.LedgerWriteFailed {
		c.resp.LedgerWriteFailures++
	}
	c.resp.Results = append(c.resp.Results, item)
}

// Response returns a snapshot of the accumulated summary.
func (c *Collector) Response() *Response {
	c.mu.Lock()
	defer c.mu.Unlock()

	resp := c.resp
	resp.Results = append([]ResultItem(nil), c.resp.Results...)
	return &resp
}

// ForEach runs fn over items with at most workers in flight. It stops
// starting new items once ctx is done and returns how many were started.
// fn must handle its own errors.
func ForEach[T any](ctx context.Context, workers int, items []T, fn func(ctx context.Context, item T)) int {
	if workers <= 0 {
		workers = 1
	}

	var g errgroup.Group
	g.SetLimit(workers)

	started := 0
	for _, item := range items {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			fn(ctx, item)
			return nil
		})
		started++
	}
	_ = g.Wait()

	return started
}
