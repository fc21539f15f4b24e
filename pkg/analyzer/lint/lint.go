// Package lint runs the Python rule set and metrics collection over source
// units and folds the per-file results into a report.
package lint

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/panbanda/pyscan/internal/fileproc"
	"github.com/panbanda/pyscan/internal/observability"
	"github.com/panbanda/pyscan/pkg/analyzer"
	"github.com/panbanda/pyscan/pkg/metrics"
	"github.com/panbanda/pyscan/pkg/models"
	"github.com/panbanda/pyscan/pkg/parser"
	"github.com/panbanda/pyscan/pkg/rules"
	"github.com/panbanda/pyscan/pkg/walker"
)

// Ensure Analyzer implements analyzer.UnitAnalyzer.
var _ analyzer.UnitAnalyzer[*models.Report] = (*Analyzer)(nil)

// ErrFileTooLarge is returned for units above the configured size limit.
var ErrFileTooLarge = errors.New("file exceeds maximum size")

// Analyzer drives one traversal per file that feeds both the rule engine and
// the metrics accumulator. It holds no per-run state and may be shared.
type Analyzer struct {
	thresholds  rules.Thresholds
	workers     int
	maxFileSize int64
	logger      *slog.Logger
	metrics     *observability.Metrics

	engine *rules.Engine
	walker *walker.Walker[*fileState]
}

// Option is a functional option for configuring Analyzer.
type Option func(*Analyzer)

// WithThresholds sets the rule limits.
func WithThresholds(t rules.Thresholds) Option {
	return func(a *Analyzer) {
		a.thresholds = t
	}
}

// WithWorkers sets the number of files analyzed concurrently (0 = 2x NumCPU).
func WithWorkers(n int) Option {
	return func(a *Analyzer) {
		a.workers = n
	}
}

// WithMaxFileSize sets the maximum file size to analyze (0 = no limit).
func WithMaxFileSize(maxSize int64) Option {
	return func(a *Analyzer) {
		a.maxFileSize = maxSize
	}
}

// WithLogger sets the logger used for skipped files and run summaries.
func WithLogger(l *slog.Logger) Option {
	return func(a *Analyzer) {
		a.logger = l
	}
}

// WithMetrics records run statistics into m.
func WithMetrics(m *observability.Metrics) Option {
	return func(a *Analyzer) {
		a.metrics = m
	}
}

// New creates a new analyzer.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		thresholds: rules.DefaultThresholds(),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}

	a.engine = rules.New(rules.WithThresholds(a.thresholds))
	a.walker = walker.New[*fileState]()
	rules.Register(a.walker, a.engine)
	metrics.Register(a.walker)
	return a
}

// fileState is the traversal context for one file.
type fileState struct {
	rules   *rules.FileContext
	metrics *metrics.Accumulator
}

func (s *fileState) Rules() *rules.FileContext     { return s.rules }
func (s *fileState) Metrics() *metrics.Accumulator { return s.metrics }

// AnalyzeUnit parses one unit and extracts its issues and metrics.
func (a *Analyzer) AnalyzeUnit(psr *parser.Parser, unit models.SourceUnit) (models.FileResult, error) {
	if a.maxFileSize > 0 && int64(len(unit.Content)) > a.maxFileSize {
		return models.FileResult{}, fmt.Errorf("%w (%d > %d bytes)", ErrFileTooLarge, len(unit.Content), a.maxFileSize)
	}

	result, err := psr.Parse(unit.Content, unit.Path)
	if err != nil {
		return models.FileResult{}, err
	}
	defer result.Close()

	state := &fileState{
		rules:   rules.NewFileContext(unit.Path, unit.Content),
		metrics: metrics.NewAccumulator(unit.Content),
	}
	a.walker.Walk(result.Root(), state)

	return models.FileResult{
		Metrics: state.metrics.FileMetrics(unit.Path, metrics.CountLines(unit.Content)),
		Issues:  state.rules.Issues(),
	}, nil
}

// Analyze processes units concurrently and folds the results in input order.
// It never fails: units that cannot be analyzed become diagnostics.
func (a *Analyzer) Analyze(ctx context.Context, units []models.SourceUnit) *models.Report {
	report := models.NewReport()
	if len(units) == 0 {
		report.AddDiagnostic(models.Diagnostic{Stage: models.StageInput, Message: "no source units to analyze"})
		a.logger.Warn("no source units to analyze")
		return report
	}

	start := time.Now()
	results := fileproc.MapIndexed(ctx, units, a.workers, unitPath, a.AnalyzeUnit)

	for i, r := range results {
		if r.Err != nil {
			d := diagnosticFor(units[i].Path, r.Err)
			report.AddDiagnostic(d)
			a.metrics.FileSkipped(d.Stage)
			a.logger.Warn("skipping file", "path", d.File, "stage", d.Stage, "error", d.Message)
			continue
		}
		report.AddFile(r.Value)
		a.metrics.FileAnalyzed(r.Value)
	}

	if len(report.Files) == 0 {
		report.AddDiagnostic(models.Diagnostic{
			Stage:   models.StageInput,
			Message: fmt.Sprintf("none of the %d source units could be analyzed", len(units)),
		})
	}

	elapsed := time.Since(start)
	a.metrics.ObserveRun(elapsed)
	a.logger.Debug("analysis complete",
		"files", len(report.Files),
		"skipped", len(units)-len(report.Files),
		"issues", len(report.Issues),
		"duration", elapsed)

	return report
}

func unitPath(u models.SourceUnit) string { return u.Path }

// diagnosticFor classifies a per-unit failure.
func diagnosticFor(path string, err error) models.Diagnostic {
	d := models.Diagnostic{File: path, Stage: models.StageParse, Message: err.Error()}

	// Drop the path prefix added by fileproc; the diagnostic names the file.
	var pe fileproc.ProcessingError
	if errors.As(err, &pe) {
		d.Message = pe.Err.Error()
	}

	var perr *parser.ParseError
	switch {
	case errors.As(err, &perr):
		d.Message = perr.Message
		if perr.Location != nil {
			d.Line = perr.Location.Line
			d.Column = perr.Location.Column
		}
	case errors.Is(err, ErrFileTooLarge):
		d.Stage = models.StageRead
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		d.Stage = models.StageInput
		d.Message = "analysis cancelled: " + d.Message
	}
	return d
}
