package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/panbanda/pyscan/internal/output"
	"github.com/panbanda/pyscan/internal/service/analysis"
	"github.com/panbanda/pyscan/pkg/models"
)

// AnalyzeInput selects the code every tool runs on.
type AnalyzeInput struct {
	Paths    []string `json:"paths,omitempty" jsonschema:"Files or directories to analyze. Defaults to current directory if empty."`
	Code     string   `json:"code,omitempty" jsonschema:"Inline Python source to analyze instead of paths."`
	Filename string   `json:"filename,omitempty" jsonschema:"Name reported for inline code. Default snippet.py."`
	Ref      string   `json:"ref,omitempty" jsonschema:"Git revision to read files from instead of the working tree."`
	Format   string   `json:"format,omitempty" jsonschema:"Output format: toon (default), json, or markdown."`
}

// IssuesInput adds a category filter.
type IssuesInput struct {
	AnalyzeInput
	Categories []string `json:"categories,omitempty" jsonschema:"Only return issues of these categories: maintainability, security, code_smell."`
}

// MetricsInput adds a function listing switch.
type MetricsInput struct {
	AnalyzeInput
	FunctionsOnly bool `json:"functions_only,omitempty" jsonschema:"Show only function-level metrics, omit file summaries."`
}

func getPaths(input AnalyzeInput) []string {
	if len(input.Paths) == 0 {
		return []string{"."}
	}
	return input.Paths
}

func getFormat(input AnalyzeInput) output.Format {
	switch strings.ToLower(input.Format) {
	case "json":
		return output.FormatJSON
	case "markdown", "md":
		return output.FormatMarkdown
	default:
		return output.FormatTOON
	}
}

func formatOutput(data any, format output.Format) (string, error) {
	switch format {
	case output.FormatJSON:
		out, err := output.Marshal(output.FormatJSON, data)
		if err != nil {
			return "", err
		}
		return string(out), nil
	case output.FormatMarkdown:
		out, err := output.Marshal(output.FormatTOON, data)
		if err != nil {
			return "", err
		}
		return "```\n" + string(out) + "```", nil
	default:
		out, err := output.Marshal(output.FormatTOON, data)
		if err != nil {
			return "", err
		}
		return string(out), nil
	}
}

func toolResult(data any, format output.Format) (*mcp.CallToolResult, any, error) {
	text, err := formatOutput(data, format)
	if err != nil {
		return nil, nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}, nil, nil
}

func toolError(msg string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: "Error: " + msg},
		},
		IsError: true,
	}, nil, nil
}

// run analyzes inline code when given, otherwise the paths.
func (s *Server) run(ctx context.Context, input AnalyzeInput) (*models.Report, error) {
	if input.Code != "" {
		name := input.Filename
		if name == "" {
			name = "snippet.py"
		}
		return s.analysis.AnalyzeSource(ctx, name, []byte(input.Code)), nil
	}

	res, err := s.analysis.Analyze(ctx, analysis.Options{
		Paths: getPaths(input),
		Ref:   input.Ref,
	})
	if err != nil {
		return nil, err
	}
	if res.Files == 0 {
		return nil, fmt.Errorf("no python files found")
	}
	return res.Report, nil
}

func (s *Server) handleAnalyze(ctx context.Context, req *mcp.CallToolRequest, input AnalyzeInput) (*mcp.CallToolResult, any, error) {
	report, err := s.run(ctx, input)
	if err != nil {
		return toolError(err.Error())
	}
	return toolResult(report, getFormat(input))
}

func (s *Server) handleListIssues(ctx context.Context, req *mcp.CallToolRequest, input IssuesInput) (*mcp.CallToolResult, any, error) {
	var cats []models.Category
	for _, name := range input.Categories {
		c, ok := models.ParseCategory(name)
		if !ok {
			return toolError(fmt.Sprintf("unknown category %q", name))
		}
		cats = append(cats, c)
	}

	report, err := s.run(ctx, input.AnalyzeInput)
	if err != nil {
		return toolError(err.Error())
	}
	if len(cats) > 0 {
		report = report.FilterCategory(cats...)
	}

	out := struct {
		Issues      []models.Issue      `json:"issues" toon:"issues"`
		Summary     models.Summary      `json:"summary" toon:"summary"`
		Diagnostics []models.Diagnostic `json:"diagnostics,omitempty" toon:"diagnostics,omitempty"`
	}{report.Issues, report.Summary, report.Diagnostics}
	return toolResult(out, getFormat(input.AnalyzeInput))
}

func (s *Server) handleFileMetrics(ctx context.Context, req *mcp.CallToolRequest, input MetricsInput) (*mcp.CallToolResult, any, error) {
	report, err := s.run(ctx, input.AnalyzeInput)
	if err != nil {
		return toolError(err.Error())
	}

	if input.FunctionsOnly {
		type function struct {
			File       string `json:"file" toon:"file"`
			Name       string `json:"name" toon:"name"`
			Line       int    `json:"line" toon:"line"`
			Complexity int    `json:"complexity" toon:"complexity"`
			ArgsCount  int    `json:"argsCount" toon:"argsCount"`
		}
		functions := make([]function, 0, report.TotalFunctions())
		for _, f := range report.Files {
			for _, fn := range f.FunctionMetrics {
				functions = append(functions, function{
					File:       f.File,
					Name:       fn.Name,
					Line:       fn.Line,
					Complexity: fn.Complexity,
					ArgsCount:  fn.ArgsCount,
				})
			}
		}
		out := struct {
			Functions []function `json:"functions" toon:"functions"`
		}{functions}
		return toolResult(out, getFormat(input.AnalyzeInput))
	}

	out := struct {
		Files []models.FileMetrics `json:"files" toon:"files"`
	}{report.Files}
	return toolResult(out, getFormat(input.AnalyzeInput))
}
