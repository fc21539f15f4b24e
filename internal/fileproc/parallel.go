// Package fileproc provides concurrent, order-preserving file processing.
package fileproc

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/panbanda/pyscan/pkg/analyzer"
	"github.com/panbanda/pyscan/pkg/parser"
	"github.com/sourcegraph/conc/pool"
)

// ProcessingError represents an error that occurred while processing a file.
type ProcessingError struct {
	Path string
	Err  error
}

func (e ProcessingError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

// Unwrap exposes the underlying error to errors.Is and errors.As.
func (e ProcessingError) Unwrap() error {
	return e.Err
}

// ProcessingErrors collects multiple file processing errors.
type ProcessingErrors struct {
	Errors []ProcessingError
	mu     sync.Mutex
}

// Add appends an error to the collection (thread-safe).
func (e *ProcessingErrors) Add(path string, err error) {
	e.mu.Lock()
	e.Errors = append(e.Errors, ProcessingError{Path: path, Err: err})
	e.mu.Unlock()
}

// HasErrors returns true if any errors were collected.
func (e *ProcessingErrors) HasErrors() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.Errors) > 0
}

// Error implements the error interface.
func (e *ProcessingErrors) Error() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d files failed to process (first: %v)", len(e.Errors), e.Errors[0])
}

// DefaultWorkerMultiplier is the multiplier applied to NumCPU for worker count.
// 2x is optimal for mixed I/O and CGO workloads.
const DefaultWorkerMultiplier = 2

// DefaultWorkers returns the worker count used when none is configured.
func DefaultWorkers() int {
	return runtime.NumCPU() * DefaultWorkerMultiplier
}

// Result is the outcome of one task. Err is a ProcessingError when set.
type Result[T any] struct {
	Value T
	Err   error
}

// KeyFunc names an item for progress reporting and error messages.
type KeyFunc[I any] func(I) string

// MapIndexed runs fn for every item on a bounded pool, giving each task its
// own parser. The result for items[i] is stored at index i, so the output
// order matches the input order regardless of scheduling.
//
// Items not yet started when ctx is cancelled get the context error.
// Progress is reported through the tracker carried by ctx, if any.
// If maxWorkers is <= 0, defaults to 2x NumCPU.
func MapIndexed[I, T any](
	ctx context.Context,
	items []I,
	maxWorkers int,
	key KeyFunc[I],
	fn func(*parser.Parser, I) (T, error),
) []Result[T] {
	return run(ctx, items, maxWorkers, key, func(item I) (T, error) {
		psr := parser.New()
		defer psr.Close()
		return fn(psr, item)
	})
}

// ForEachIndexed is MapIndexed for tasks that do not parse, such as reading
// file content.
func ForEachIndexed[I, T any](
	ctx context.Context,
	items []I,
	maxWorkers int,
	key KeyFunc[I],
	fn func(I) (T, error),
) []Result[T] {
	return run(ctx, items, maxWorkers, key, fn)
}

func run[I, T any](
	ctx context.Context,
	items []I,
	maxWorkers int,
	key KeyFunc[I],
	fn func(I) (T, error),
) []Result[T] {
	if len(items) == 0 {
		return nil
	}
	if maxWorkers <= 0 {
		maxWorkers = DefaultWorkers()
	}

	tracker := analyzer.TrackerFromContext(ctx)
	if tracker != nil {
		tracker.Add(len(items))
	}

	// Each task owns results[i]; no lock is needed.
	results := make([]Result[T], len(items))

	p := pool.New().WithMaxGoroutines(maxWorkers).WithContext(ctx)
	for i, item := range items {
		p.Go(func(ctx context.Context) error {
			name := key(item)

			select {
			case <-ctx.Done():
				results[i].Err = ProcessingError{Path: name, Err: ctx.Err()}
				if tracker != nil {
					tracker.Fail(name)
				}
				return nil
			default:
			}

			value, err := fn(item)
			if err != nil {
				results[i].Err = ProcessingError{Path: name, Err: err}
				if tracker != nil {
					tracker.Fail(name)
				}
				return nil // Don't stop pool on individual file errors
			}

			results[i].Value = value
			if tracker != nil {
				tracker.Tick(name)
			}
			return nil
		})
	}
	_ = p.Wait() // Errors are recorded per result

	return results
}
