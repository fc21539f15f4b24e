// Package observability exposes Prometheus metrics for analysis runs.
package observability

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/panbanda/pyscan/pkg/models"
)

// Metrics holds the collectors for one process. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	FilesAnalyzed      prometheus.Counter
	FilesSkipped       *prometheus.CounterVec
	IssuesFound        *prometheus.CounterVec
	FunctionComplexity prometheus.Histogram
	AnalysisDuration   prometheus.Histogram
}

// New creates the metrics on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		FilesAnalyzed: factory.NewCounter(prometheus.CounterOpts{
			Name: "pyscan_files_analyzed_total",
			Help: "Total number of source files analyzed successfully.",
		}),
		FilesSkipped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pyscan_files_skipped_total",
			Help: "Total number of source files skipped, by failure stage.",
		}, []string{"stage"}),
		IssuesFound: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pyscan_issues_total",
			Help: "Total number of issues reported, by category.",
		}, []string{"category"}),
		FunctionComplexity: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "pyscan_function_complexity",
			Help:    "Cyclomatic complexity of analyzed functions.",
			Buckets: []float64{1, 2, 5, 10, 20, 50},
		}),
		AnalysisDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "pyscan_analysis_seconds",
			Help:    "Time spent analyzing a batch of source units.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// Registry returns the registry backing m.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// FileAnalyzed records one successfully analyzed file.
func (m *Metrics) FileAnalyzed(res models.FileResult) {
	if m == nil {
		return
	}
	m.FilesAnalyzed.Inc()
	for _, issue := range res.Issues {
		m.IssuesFound.WithLabelValues(issue.Category.String()).Inc()
	}
	for _, fn := range res.Metrics.FunctionMetrics {
		m.FunctionComplexity.Observe(float64(fn.Complexity))
	}
}

// FileSkipped records one file that produced a diagnostic instead of results.
func (m *Metrics) FileSkipped(stage models.Stage) {
	if m == nil {
		return
	}
	m.FilesSkipped.WithLabelValues(stage.String()).Inc()
}

// ObserveRun records the duration of one Analyze call.
func (m *Metrics) ObserveRun(d time.Duration) {
	if m == nil {
		return
	}
	m.AnalysisDuration.Observe(d.Seconds())
}

// WriteFile writes the current values in the Prometheus text format, for
// node_exporter's textfile collector.
func (m *Metrics) WriteFile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}

// Serve exposes /metrics on addr until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}
