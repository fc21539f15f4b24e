package progress

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/panbanda/pyscan/pkg/analyzer"
)

func TestNewTracker(t *testing.T) {
	tests := []struct {
		name  string
		label string
		total int
	}{
		{"standard tracker", "Analyzing", 100},
		{"zero total", "Empty task", 0},
		{"single item", "One file", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tracker := NewTracker(tt.label, tt.total, WithWriter(&buf))

			if tracker.bar == nil {
				t.Error("tracker.bar should not be nil")
			}
			if tracker.label != tt.label {
				t.Errorf("tracker.label = %q, want %q", tracker.label, tt.label)
			}
			if tracker.out != &buf {
				t.Error("WithWriter should set the output")
			}
		})
	}
}

func TestTrackerTickConcurrent(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewTracker("Concurrent", 100, WithWriter(&buf))

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 10 {
				tracker.Tick()
			}
		}()
	}
	wg.Wait()

	if got := tracker.bar.State().CurrentNum; got != 100 {
		t.Errorf("CurrentNum = %d, want 100", got)
	}
	tracker.FinishSuccess()
}

func TestTrackerUpdateGrowsTotal(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewTracker("Analyzing", 0, WithWriter(&buf))

	tracker.Update(1, 4, "a.py")
	tracker.Update(3, 4, "c.py")

	state := tracker.bar.State()
	if state.Max != 4 {
		t.Errorf("Max = %d, want 4", state.Max)
	}
	if state.CurrentNum != 3 {
		t.Errorf("CurrentNum = %d, want 3", state.CurrentNum)
	}
}

func TestTrackerFollowsAnalysisTracker(t *testing.T) {
	var buf bytes.Buffer
	bar := NewTracker("Analyzing", 0, WithWriter(&buf))

	tracker := analyzer.NewTracker(bar.Update)
	ctx := analyzer.WithTracker(context.Background(), tracker)
	tr := analyzer.TrackerFromContext(ctx)
	tr.Add(2)
	tr.Tick("a.py")
	tr.Fail("b.py")

	if got := bar.bar.State().CurrentNum; got != 2 {
		t.Errorf("CurrentNum = %d, want 2", got)
	}
}

func TestTrackerFinishSkipped(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewTracker("Metrics export", 1, WithWriter(&buf))
	tracker.FinishSkipped("no files")

	if !strings.Contains(buf.String(), "Metrics export skipped (no files)") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestTrackerFinishError(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewTracker("Analyzing", 1, WithWriter(&buf))
	tracker.FinishError(errors.New("boom"))

	if !strings.Contains(buf.String(), "Analyzing error: boom") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestSpinnerLifecycle(t *testing.T) {
	var buf bytes.Buffer
	spinner := NewSpinner("Scanning", WithWriter(&buf))
	for range 5 {
		spinner.Tick()
	}
	// A spinner has no total to grow.
	spinner.Update(5, 10, "x.py")
	if spinner.bar.State().Max != -1 {
		t.Errorf("spinner Max = %d, want -1", spinner.bar.State().Max)
	}
	spinner.FinishSuccess()
}

func BenchmarkTrackerTick(b *testing.B) {
	var buf bytes.Buffer
	tracker := NewTracker("Benchmark", b.N, WithWriter(&buf))
	b.ResetTimer()
	for range b.N {
		tracker.Tick()
	}
}
