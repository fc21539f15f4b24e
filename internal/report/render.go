package report

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"os"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/panbanda/pyscan/internal/output"
	"github.com/panbanda/pyscan/pkg/models"
)

//go:embed template.html
var templateFS embed.FS

// Document is everything a rendered report shows.
type Document struct {
	Metadata    Metadata            `json:"metadata" yaml:"metadata" toon:"metadata"`
	Stats       Stats               `json:"stats" yaml:"stats" toon:"stats"`
	Issues      []models.Issue      `json:"issues" yaml:"issues" toon:"issues"`
	Diagnostics []models.Diagnostic `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty" toon:"diagnostics,omitempty"`
}

// NewDocument computes the statistics for r.
func NewDocument(r *models.Report, meta Metadata, limit int) *Document {
	return &Document{
		Metadata:    meta,
		Stats:       Compute(r, limit),
		Issues:      r.Issues,
		Diagnostics: r.Diagnostics,
	}
}

var printer = message.NewPrinter(language.English)

func num(n int) string {
	return printer.Sprintf("%d", n)
}

func pct(part, whole int) string {
	if whole == 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", float64(part)/float64(whole)*100)
}

// categoryTitle turns "Code_Smell" into "Code Smell".
func categoryTitle(cat string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(strings.ToLower(cat), "_", " "))
}

// Renderable builds the text/markdown form of the document. Structured
// formats serialize the document itself.
func (d *Document) Renderable() output.Renderable {
	s := d.Stats
	rep := &output.Report{
		Title: "Python Code Quality Report",
		Data:  d,
	}

	overview := []string{
		fmt.Sprintf("Files analyzed: %s (skipped: %s)", num(s.Files), num(s.Skipped)),
		fmt.Sprintf("Functions: %s, classes: %s", num(s.Functions), num(s.Classes)),
		fmt.Sprintf("Lines: %s total, %s code-only, %.1f%% comments", num(s.LOC), num(s.CodeOnly), s.CommentRate*100),
	}
	if s.Functions > 0 {
		c := s.Complexity
		overview = append(overview, fmt.Sprintf(
			"Complexity: mean %.2f, median %.1f, p90 %.1f, max %d (stddev %.2f)",
			c.Mean, c.Median, c.P90, c.Max, c.StdDev))
		overview = append(overview, fmt.Sprintf("Parameters: mean %.2f, max %d", s.Parameters.Mean, s.Parameters.Max))
	}
	if d.Metadata.Commit != "" {
		overview = append(overview, fmt.Sprintf("Revision: %s (%.12s)", d.Metadata.Ref, d.Metadata.Commit))
	}
	rep.Sections = append(rep.Sections, &output.Section{Title: "Overview", Content: strings.Join(overview, "\n")})

	var catRows [][]string
	for _, cat := range models.Categories() {
		n := s.ByCategory[string(cat)]
		catRows = append(catRows, []string{categoryTitle(string(cat)), num(n), pct(n, s.Issues)})
	}
	rep.Sections = append(rep.Sections, output.NewTable("Issues by Category",
		[]string{"Category", "Issues", "Share"}, catRows,
		[]string{"Total", num(s.Issues), ""}, nil))

	var distRows [][]string
	for _, b := range s.Distribution {
		distRows = append(distRows, []string{b.Label, num(b.Count), pct(b.Count, s.Functions)})
	}
	rep.Sections = append(rep.Sections, output.NewTable("Complexity Distribution",
		[]string{"Complexity", "Functions", "Share"}, distRows, nil, nil))

	if len(s.TopFiles) > 0 {
		var rows [][]string
		for _, f := range s.TopFiles {
			rows = append(rows, []string{
				f.File, num(f.Functions), fmt.Sprintf("%.2f", f.MeanComplexity), num(f.MaxComplexity), num(f.LOC),
			})
		}
		rep.Sections = append(rep.Sections, output.NewTable("Most Complex Files",
			[]string{"File", "Functions", "Mean", "Max", "LOC"}, rows, nil, nil))
	}

	if len(s.TopFunctions) > 0 {
		var rows [][]string
		for _, fn := range s.TopFunctions {
			rows = append(rows, []string{
				fn.Name, fmt.Sprintf("%s:%d", fn.File, fn.Line), num(fn.Complexity), num(fn.ArgsCount),
			})
		}
		rep.Sections = append(rep.Sections, output.NewTable("Most Complex Functions",
			[]string{"Function", "Location", "Complexity", "Args"}, rows, nil, nil))
	}

	if len(s.IssueFiles) > 0 {
		var rows [][]string
		for _, f := range s.IssueFiles {
			rows = append(rows, []string{f.File, num(f.Count)})
		}
		rep.Sections = append(rep.Sections, output.NewTable("Files with Most Issues",
			[]string{"File", "Issues"}, rows, nil, nil))
	}

	if len(d.Diagnostics) > 0 {
		var rows [][]string
		for _, diag := range d.Diagnostics {
			rows = append(rows, []string{diag.File, string(diag.Stage), diag.Message})
		}
		rep.Sections = append(rep.Sections, output.NewTable("Skipped",
			[]string{"File", "Stage", "Reason"}, rows, nil, nil))
	}

	return rep
}

// Renderer handles HTML report generation.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer creates a new renderer with the embedded template.
func NewRenderer() (*Renderer, error) {
	funcMap := template.FuncMap{
		"num":   num,
		"pct":   pct,
		"title": categoryTitle,
		"lower": strings.ToLower,
		"float": func(f float64) string { return fmt.Sprintf("%.2f", f) },
		"complexityBadge": func(c int) string {
			switch {
			case c > 20:
				return "critical"
			case c > 10:
				return "high"
			case c > 5:
				return "medium"
			default:
				return "low"
			}
		},
		"json": func(v any) template.JS {
			b, _ := json.Marshal(v)
			return template.JS(b)
		},
	}

	tmplContent, err := templateFS.ReadFile("template.html")
	if err != nil {
		return nil, err
	}

	tmpl, err := template.New("report").Funcs(funcMap).Parse(string(tmplContent))
	if err != nil {
		return nil, err
	}

	return &Renderer{tmpl: tmpl}, nil
}

// Render writes the HTML report for doc.
func (r *Renderer) Render(doc *Document, w io.Writer) error {
	return r.tmpl.Execute(w, doc)
}

// RenderToFile writes the HTML report to a file.
func (r *Renderer) RenderToFile(doc *Document, outputPath string) error {
	f, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	if err := r.Render(doc, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
