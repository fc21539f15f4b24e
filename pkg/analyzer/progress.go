package analyzer

import (
	"context"
	"sync/atomic"
)

// ProgressFunc is called to report analysis progress.
// current is the number of items finished (including failures), total is the
// expected count, and path is the item that just finished.
type ProgressFunc func(current, total int, path string)

// Tracker counts finished and failed work items.
// It is safe for concurrent use from multiple goroutines.
type Tracker struct {
	total    atomic.Int64
	current  atomic.Int64
	failed   atomic.Int64
	callback ProgressFunc
}

// NewTracker creates a tracker that invokes callback after every finished item.
func NewTracker(callback ProgressFunc) *Tracker {
	return &Tracker{callback: callback}
}

// Add increases the expected item count by n.
func (t *Tracker) Add(n int) {
	t.total.Add(int64(n))
}

// SetTotal replaces the expected item count.
func (t *Tracker) SetTotal(n int) {
	t.total.Store(int64(n))
}

// Tick marks one item as successfully finished.
func (t *Tracker) Tick(path string) {
	t.finish(path)
}

// Fail marks one item as finished with an error.
func (t *Tracker) Fail(path string) {
	t.failed.Add(1)
	t.finish(path)
}

func (t *Tracker) finish(path string) {
	current := int(t.current.Add(1))
	if t.callback != nil {
		t.callback(current, int(t.total.Load()), path)
	}
}

// Current returns the number of finished items.
func (t *Tracker) Current() int {
	return int(t.current.Load())
}

// Failed returns the number of items finished with an error.
func (t *Tracker) Failed() int {
	return int(t.failed.Load())
}

// Total returns the expected item count.
func (t *Tracker) Total() int {
	return int(t.total.Load())
}

type trackerKey struct{}

// WithTracker returns a context that carries a progress tracker.
func WithTracker(ctx context.Context, t *Tracker) context.Context {
	return context.WithValue(ctx, trackerKey{}, t)
}

// TrackerFromContext extracts the progress tracker from the context.
// Returns nil if no tracker was set.
func TrackerFromContext(ctx context.Context) *Tracker {
	if t, ok := ctx.Value(trackerKey{}).(*Tracker); ok {
		return t
	}
	return nil
}
