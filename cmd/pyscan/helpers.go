package main

import (
	"log/slog"
	"os"
	"strconv"

	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"

	"github.com/panbanda/pyscan/internal/observability"
	"github.com/panbanda/pyscan/internal/output"
	"github.com/panbanda/pyscan/internal/progress"
	"github.com/panbanda/pyscan/internal/service/analysis"
	"github.com/panbanda/pyscan/pkg/config"
	"github.com/panbanda/pyscan/pkg/models"
)

// getPaths returns paths from positional args, defaulting to ["."]
func getPaths(c *cli.Context) []string {
	if c.Args().Len() > 0 {
		return c.Args().Slice()
	}
	return []string{"."}
}

// loadConfig reads --config when set, otherwise the first config file in
// the standard locations.
func loadConfig(c *cli.Context) (*config.Config, error) {
	if path := c.String("config"); path != "" {
		return config.Load(path)
	}
	return config.LoadOrDefault()
}

func newLogger(c *cli.Context) *slog.Logger {
	level := slog.LevelWarn
	if c.Bool("verbose") {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(c.App.ErrWriter, &slog.HandlerOptions{Level: level}))
}

// session holds what every analysis command needs.
type session struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *observability.Metrics
}

func newSession(c *cli.Context) (*session, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	s := &session{cfg: cfg, logger: newLogger(c)}
	if c.String("metrics-file") != "" {
		s.metrics = observability.New()
	}
	return s, nil
}

func (s *session) service() *analysis.Service {
	return analysis.New(
		analysis.WithConfig(s.cfg),
		analysis.WithLogger(s.logger),
		analysis.WithMetrics(s.metrics),
	)
}

func (s *session) analyze(c *cli.Context, ref string) (*analysis.Result, error) {
	opts := analysis.Options{Paths: getPaths(c), Ref: ref}

	var tracker *progress.Tracker
	if showProgress(c) {
		tracker = progress.NewTracker("Analyzing Python files...", 0)
		opts.OnProgress = tracker.Update
	}
	res, err := s.service().Analyze(c.Context, opts)
	if tracker != nil {
		if err != nil {
			tracker.FinishError(err)
		} else {
			tracker.FinishSuccess()
		}
	}
	if err != nil {
		return nil, err
	}

	if path := c.String("metrics-file"); path != "" {
		if err := s.metrics.WriteFile(path); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// showProgress draws the bar only when stderr is an interactive terminal.
func showProgress(c *cli.Context) bool {
	if c.Bool("quiet") || c.App.ErrWriter != os.Stderr {
		return false
	}
	fd := os.Stderr.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// format resolves --format against the configured default.
func (s *session) format(c *cli.Context) output.Format {
	if f := c.String("format"); f != "" {
		return output.ParseFormat(f)
	}
	return output.ParseFormat(s.cfg.Output.Format)
}

func (s *session) formatter(c *cli.Context) (*output.Formatter, error) {
	colored := s.cfg.Output.Color && !c.Bool("no-color")
	if path := c.String("output"); path != "" {
		return output.NewFormatter(s.format(c), path, false)
	}
	return output.NewWriterFormatter(s.format(c), c.App.Writer, colored), nil
}

func issueTable(issues []models.Issue, colored bool) *output.Table {
	rows := make([][]string, 0, len(issues))
	for _, issue := range issues {
		category := issue.Category.String()
		if colored {
			category = output.CategoryColor(issue.Category, category)
		}
		rows = append(rows, []string{
			issue.File,
			strconv.Itoa(issue.Line),
			category,
			issue.Description,
		})
	}
	return output.NewTable("Issues", []string{"File", "Line", "Type", "Description"}, rows, nil, issues)
}

func summaryTable(sum models.Summary) *output.Table {
	var rows [][]string
	for _, cat := range models.Categories() {
		rows = append(rows, []string{cat.String(), strconv.Itoa(sum.Count(cat))})
	}
	return output.NewTable("Summary", []string{"Type", "Count"}, rows,
		[]string{"Total", strconv.Itoa(sum.Total())}, sum)
}

func diagnosticTable(diags []models.Diagnostic) *output.Table {
	rows := make([][]string, 0, len(diags))
	for _, d := range diags {
		rows = append(rows, []string{d.File, d.Stage.String(), d.Message})
	}
	return output.NewTable("Skipped", []string{"File", "Stage", "Reason"}, rows, nil, diags)
}
