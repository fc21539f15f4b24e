package main

import (
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"strconv"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/panbanda/pyscan/internal/output"
	"github.com/panbanda/pyscan/pkg/models"
)

var (
	version = "dev"
	commit  = "none"    //nolint:unused // set via ldflags at build time
	date    = "unknown" //nolint:unused // set via ldflags at build time
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:     "pyscan",
		Usage:    "Static analysis for Python source",
		Version:  version,
		Metadata: make(map[string]interface{}),
		Description: `pyscan parses Python files and reports empty except handlers, functions
with too many parameters, hardcoded secrets and eval/exec calls, together
with per-file and per-function code metrics.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (TOML, YAML, or JSON)",
				EnvVars: []string{"PYSCAN_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text, json, markdown, toon, yaml (default from config)",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write output to file",
			},
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "Disable colored output",
			},
			&cli.BoolFlag{
				Name:  "quiet",
				Usage: "Hide the progress bar",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Log debug information to stderr",
			},
			&cli.StringFlag{
				Name:  "metrics-file",
				Usage: "Write Prometheus metrics for the run to this file",
			},
			&cli.StringFlag{
				Name:  "pprof",
				Usage: "Enable pprof profiling and write to specified prefix (creates <prefix>.cpu.pprof and <prefix>.mem.pprof)",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("no-color") {
				color.NoColor = true
			}
			if pprofPrefix := c.String("pprof"); pprofPrefix != "" {
				cpuFile, err := os.Create(pprofPrefix + ".cpu.pprof")
				if err != nil {
					return fmt.Errorf("failed to create CPU profile: %w", err)
				}
				if err := pprof.StartCPUProfile(cpuFile); err != nil {
					cpuFile.Close()
					return fmt.Errorf("failed to start CPU profile: %w", err)
				}
				c.App.Metadata["pprofCPU"] = cpuFile
			}
			return nil
		},
		After: func(c *cli.Context) error {
			if pprofPrefix := c.String("pprof"); pprofPrefix != "" {
				pprof.StopCPUProfile()
				if cpuFile, ok := c.App.Metadata["pprofCPU"].(*os.File); ok {
					cpuFile.Close()
				}

				memFile, err := os.Create(pprofPrefix + ".mem.pprof")
				if err != nil {
					return fmt.Errorf("failed to create memory profile: %w", err)
				}
				defer memFile.Close()

				runtime.GC()
				if err := pprof.WriteHeapProfile(memFile); err != nil {
					return fmt.Errorf("failed to write memory profile: %w", err)
				}
			}
			return nil
		},
		Commands: []*cli.Command{
			analyzeCmd(),
			issuesCmd(),
			metricsCmd(),
			reportCmd(),
			validateCmd(),
			initCmd(),
			configCmd(),
			mcpCmd(),
		},
	}
}

var refFlag = &cli.StringFlag{
	Name:  "ref",
	Usage: "Analyze the files of a git revision instead of the working tree",
}

func analyzeCmd() *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Aliases:   []string{"a"},
		Usage:     "Run all rules and collect metrics",
		ArgsUsage: "[path...]",
		Flags: []cli.Flag{
			refFlag,
			&cli.BoolFlag{
				Name:  "fail-on-issues",
				Usage: "Exit with status 2 when any issue is found",
			},
		},
		Action: runAnalyzeCmd,
	}
}

func runAnalyzeCmd(c *cli.Context) error {
	s, err := newSession(c)
	if err != nil {
		return err
	}
	res, err := s.analyze(c, c.String("ref"))
	if err != nil {
		return err
	}

	formatter, err := s.formatter(c)
	if err != nil {
		return err
	}
	defer formatter.Close()

	out := &output.Report{
		Title: "Python Analysis",
		Sections: []output.Renderable{
			issueTable(res.Report.Issues, formatter.Colored()),
			summaryTable(res.Report.Summary),
		},
		Data: res.Report,
	}
	if len(res.Report.Diagnostics) > 0 {
		out.Sections = append(out.Sections, diagnosticTable(res.Report.Diagnostics))
	}
	if err := formatter.Output(out); err != nil {
		return err
	}

	if c.Bool("fail-on-issues") && res.Report.Summary.Total() > 0 {
		return cli.Exit("", 2)
	}
	return nil
}

func issuesCmd() *cli.Command {
	return &cli.Command{
		Name:      "issues",
		Aliases:   []string{"i"},
		Usage:     "List rule violations",
		ArgsUsage: "[path...]",
		Flags: []cli.Flag{
			refFlag,
			&cli.StringSliceFlag{
				Name:    "category",
				Aliases: []string{"t"},
				Usage:   "Only show issues of this category (maintainability, security, code_smell)",
			},
		},
		Action: runIssuesCmd,
	}
}

func runIssuesCmd(c *cli.Context) error {
	var cats []models.Category
	for _, name := range c.StringSlice("category") {
		cat, ok := models.ParseCategory(name)
		if !ok {
			return fmt.Errorf("unknown category %q", name)
		}
		cats = append(cats, cat)
	}

	s, err := newSession(c)
	if err != nil {
		return err
	}
	res, err := s.analyze(c, c.String("ref"))
	if err != nil {
		return err
	}
	report := res.Report
	if len(cats) > 0 {
		report = report.FilterCategory(cats...)
	}

	formatter, err := s.formatter(c)
	if err != nil {
		return err
	}
	defer formatter.Close()

	table := issueTable(report.Issues, formatter.Colored())
	table.Footer = []string{"Total", "", "", strconv.Itoa(report.Summary.Total())}
	table.Data = struct {
		Issues  []models.Issue `json:"issues" yaml:"issues" toon:"issues"`
		Summary models.Summary `json:"summary" yaml:"summary" toon:"summary"`
	}{report.Issues, report.Summary}
	return formatter.Output(table)
}

func metricsCmd() *cli.Command {
	return &cli.Command{
		Name:      "metrics",
		Aliases:   []string{"m"},
		Usage:     "Show per-file or per-function metrics",
		ArgsUsage: "[path...]",
		Flags: []cli.Flag{
			refFlag,
			&cli.BoolFlag{
				Name:  "functions",
				Usage: "Show one row per function instead of per file",
			},
		},
		Action: runMetricsCmd,
	}
}

// functionRow is a function metric tagged with its file.
type functionRow struct {
	File       string `json:"file" yaml:"file" toon:"file"`
	Name       string `json:"name" yaml:"name" toon:"name"`
	Line       int    `json:"line" yaml:"line" toon:"line"`
	Complexity int    `json:"complexity" yaml:"complexity" toon:"complexity"`
	ArgsCount  int    `json:"argsCount" yaml:"argsCount" toon:"argsCount"`
}

func runMetricsCmd(c *cli.Context) error {
	s, err := newSession(c)
	if err != nil {
		return err
	}
	res, err := s.analyze(c, c.String("ref"))
	if err != nil {
		return err
	}

	formatter, err := s.formatter(c)
	if err != nil {
		return err
	}
	defer formatter.Close()

	if c.Bool("functions") {
		var rows [][]string
		functions := make([]functionRow, 0, res.Report.TotalFunctions())
		for _, f := range res.Report.Files {
			for _, fn := range f.FunctionMetrics {
				functions = append(functions, functionRow{
					File:       f.File,
					Name:       fn.Name,
					Line:       fn.Line,
					Complexity: fn.Complexity,
					ArgsCount:  fn.ArgsCount,
				})
				rows = append(rows, []string{
					f.File,
					fn.Name,
					strconv.Itoa(fn.Line),
					strconv.Itoa(fn.Complexity),
					strconv.Itoa(fn.ArgsCount),
				})
			}
		}
		return formatter.Output(output.NewTable(
			"Functions",
			[]string{"File", "Function", "Line", "Complexity", "Args"},
			rows,
			nil,
			functions,
		))
	}

	var rows [][]string
	var loc, code int
	for _, f := range res.Report.Files {
		loc += f.LOC
		code += f.CodeOnly
		rows = append(rows, []string{
			f.File,
			strconv.Itoa(f.LOC),
			strconv.Itoa(f.Blank),
			strconv.Itoa(f.Comment),
			strconv.Itoa(f.CodeOnly),
			strconv.Itoa(f.Classes),
			strconv.Itoa(f.Functions),
			strconv.Itoa(len(f.Imports)),
		})
	}
	return formatter.Output(output.NewTable(
		"File Metrics",
		[]string{"File", "LOC", "Blank", "Comment", "Code", "Classes", "Functions", "Imports"},
		rows,
		[]string{fmt.Sprintf("%d files", len(res.Report.Files)), strconv.Itoa(loc), "", "", strconv.Itoa(code), "", strconv.Itoa(res.Report.TotalFunctions()), ""},
		res.Report.Files,
	))
}
