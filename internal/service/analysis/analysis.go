// Package analysis runs the scan, load and analyze pipeline behind the CLI
// and the MCP server.
package analysis

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/panbanda/pyscan/internal/observability"
	scansvc "github.com/panbanda/pyscan/internal/service/scanner"
	"github.com/panbanda/pyscan/pkg/analyzer"
	"github.com/panbanda/pyscan/pkg/analyzer/lint"
	"github.com/panbanda/pyscan/pkg/config"
	"github.com/panbanda/pyscan/pkg/models"
	"github.com/panbanda/pyscan/pkg/source"
)

// Service orchestrates code analysis operations.
type Service struct {
	config  *config.Config
	logger  *slog.Logger
	metrics *observability.Metrics
}

// Option configures a Service.
type Option func(*Service)

// WithConfig sets the configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

// WithLogger sets the logger for skipped files and run summaries.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// WithMetrics records every run in m.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New creates a new analysis service.
func New(opts ...Option) *Service {
	s := &Service{}
	for _, opt := range opts {
		opt(s)
	}
	if s.config == nil {
		s.config = config.DefaultConfig()
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	return s
}

// Options selects what to analyze.
type Options struct {
	// Paths are files or directories. Empty means the current directory.
	// With Ref set, the first path locates the repository and, when it is
	// a subdirectory, limits the analysis to files under it.
	Paths []string

	// Ref is a git revision to read files from instead of the working tree.
	Ref string

	// OnProgress is called as files finish analysis.
	OnProgress analyzer.ProgressFunc
}

// Result is a finished run.
type Result struct {
	Report *models.Report
	Files  int // files selected by the scan

	// Set when Options.Ref was used.
	Root   string
	Commit string
}

// Analyze scans, reads and analyzes the selected files. Only an invalid
// revision or path is an error; missing paths and unreadable or unparsable
// files become diagnostics in the report.
func (s *Service) Analyze(ctx context.Context, opts Options) (*Result, error) {
	scanner := scansvc.New(scansvc.WithConfig(s.config))

	var (
		scan *scansvc.ScanResult
		src  source.ContentSource
		err  error
	)
	if opts.Ref != "" {
		path := "."
		if len(opts.Paths) > 0 {
			path = opts.Paths[0]
		}
		scan, err = scanner.ScanRef(path, opts.Ref)
		if err != nil {
			return nil, err
		}
		scan.Files = underPath(scan.Files, scan.Tree.Root(), path)
		src = source.NewTree(scan.Tree)
	} else {
		scan, err = scanner.ScanPaths(opts.Paths)
		if err != nil {
			return nil, err
		}
		src = source.NewFilesystem()
	}
	s.logger.Debug("scan complete", "files", len(scan.Files), "ref", opts.Ref)

	// Reading is not reported as progress; only analysis is.
	units, readDiags := source.Load(analyzer.WithTracker(ctx, nil), src, scan.Files, s.config.Analysis.Workers)
	if len(scan.Unreachable) > 0 {
		pathDiags := make([]models.Diagnostic, 0, len(scan.Unreachable)+len(readDiags))
		for _, e := range scan.Unreachable {
			pathDiags = append(pathDiags, models.Diagnostic{
				File:    e.Path,
				Stage:   models.StageRead,
				Message: e.Err.Error(),
			})
		}
		readDiags = append(pathDiags, readDiags...)
	}
	for _, d := range readDiags {
		s.metrics.FileSkipped(d.Stage)
		s.logger.Warn("skipping file", "path", d.File, "stage", d.Stage, "error", d.Message)
	}

	if opts.OnProgress != nil {
		ctx = analyzer.WithTracker(ctx, analyzer.NewTracker(opts.OnProgress))
	}
	report := s.analyzer().Analyze(ctx, units)
	if len(readDiags) > 0 {
		report.Diagnostics = append(readDiags, report.Diagnostics...)
	}

	res := &Result{Report: report, Files: len(scan.Files)}
	if scan.Tree != nil {
		res.Root = scan.Tree.Root()
		res.Commit = scan.Tree.Commit()
	}
	return res, nil
}

// AnalyzeSource analyzes a single in-memory file.
func (s *Service) AnalyzeSource(ctx context.Context, path string, content []byte) *models.Report {
	return s.analyzer().Analyze(ctx, []models.SourceUnit{{Path: path, Content: content}})
}

func (s *Service) analyzer() *lint.Analyzer {
	return lint.New(
		lint.WithThresholds(s.config.RuleThresholds()),
		lint.WithWorkers(s.config.Analysis.Workers),
		lint.WithMaxFileSize(s.config.Analysis.MaxFileSize),
		lint.WithLogger(s.logger),
		lint.WithMetrics(s.metrics),
	)
}

// underPath keeps the repository-relative files that live under path.
func underPath(files []string, root, path string) []string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return files
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return files
	}

	prefix := filepath.ToSlash(rel)
	var out []string
	for _, f := range files {
		if f == prefix || strings.HasPrefix(f, prefix+"/") {
			out = append(out, f)
		}
	}
	return out
}
