package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/panbanda/pyscan/internal/report"
	"github.com/panbanda/pyscan/pkg/models"
)

func reportCmd() *cli.Command {
	return &cli.Command{
		Name:      "report",
		Usage:     "Generate a code quality report with summary statistics",
		ArgsUsage: "[path...]",
		Description: `Summarizes an analysis: file and function counts, complexity spread,
the most complex files and functions, and issue counts per category.

Text, markdown and the structured formats follow --format. An HTML report
is written with --html or when --output ends in .html.

Examples:
  pyscan report src/                       # text summary
  pyscan -f markdown report -o REPORT.md   # markdown summary
  pyscan report --html -o report.html .    # standalone HTML page`,
		Flags: []cli.Flag{
			refFlag,
			&cli.BoolFlag{
				Name:  "html",
				Usage: "Render the report as a standalone HTML page",
			},
			&cli.IntFlag{
				Name:  "top",
				Value: report.DefaultLimit,
				Usage: "Number of entries in the ranked tables",
			},
		},
		Action: runReportCmd,
	}
}

func runReportCmd(c *cli.Context) error {
	if c.Int("top") <= 0 {
		return fmt.Errorf("--top must be a positive integer (got %d)", c.Int("top"))
	}

	s, err := newSession(c)
	if err != nil {
		return err
	}
	res, err := s.analyze(c, c.String("ref"))
	if err != nil {
		return err
	}

	doc := report.NewDocument(res.Report, report.Metadata{
		GeneratedAt:   time.Now().UTC(),
		PyscanVersion: version,
		Paths:         getPaths(c),
		Ref:           c.String("ref"),
		Commit:        res.Commit,
	}, c.Int("top"))

	outPath := c.String("output")
	if c.Bool("html") || strings.EqualFold(filepath.Ext(outPath), ".html") {
		renderer, err := report.NewRenderer()
		if err != nil {
			return err
		}
		if outPath == "" {
			return renderer.Render(doc, c.App.Writer)
		}
		if err := renderer.RenderToFile(doc, outPath); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		color.New(color.FgGreen).Fprintf(c.App.ErrWriter, "Report written to %s\n", outPath)
		return nil
	}

	formatter, err := s.formatter(c)
	if err != nil {
		return err
	}
	defer formatter.Close()
	return formatter.Output(doc.Renderable())
}

func validateCmd() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "Check JSON reports against the report schema",
		ArgsUsage: "<report.json>...",
		Action:    runValidateCmd,
	}
}

func runValidateCmd(c *cli.Context) error {
	if c.Args().Len() == 0 {
		return fmt.Errorf("validate requires at least one report file")
	}

	var failed int
	for _, path := range c.Args().Slice() {
		data, err := os.ReadFile(path)
		if err == nil {
			err = models.ValidateReportJSON(data)
		}
		if err != nil {
			failed++
			color.New(color.FgRed).Fprintf(c.App.Writer, "%s: invalid\n", path)
			fmt.Fprintf(c.App.Writer, "  - %s\n", err)
			continue
		}
		color.New(color.FgGreen).Fprintf(c.App.Writer, "%s: valid\n", path)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d reports failed validation", failed, c.Args().Len())
	}
	return nil
}
