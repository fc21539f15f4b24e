package models

// SourceUnit is one file handed to the analyzer: a lookup path and its text.
type SourceUnit struct {
	Path    string
	Content []byte
}

// Stage identifies where a diagnostic originated.
type Stage string

const (
	StageInput Stage = "input"
	StageRead  Stage = "read"
	StageParse Stage = "parse"
)

// String implements fmt.Stringer (required for toon serialization).
func (s Stage) String() string { return string(s) }

// Diagnostic records a non-fatal failure. File is empty for run-level
// diagnostics such as an unreachable input set.
type Diagnostic struct {
	File    string `json:"file,omitempty" yaml:"file,omitempty" toon:"file,omitempty"`
	Stage   Stage  `json:"stage" yaml:"stage" toon:"stage"`
	Message string `json:"message" yaml:"message" toon:"message"`
	Line    int    `json:"line,omitempty" yaml:"line,omitempty" toon:"line,omitempty"`
	Column  int    `json:"column,omitempty" yaml:"column,omitempty" toon:"column,omitempty"`
}

// FileResult is everything extracted from a single source unit.
// Issues are in traversal (document) order.
type FileResult struct {
	Metrics FileMetrics
	Issues  []Issue
}

// Report is the run-wide analysis result.
type Report struct {
	Files       []FileMetrics `json:"files" yaml:"files" toon:"files"`
	Issues      []Issue       `json:"issues" yaml:"issues" toon:"issues"`
	Summary     Summary       `json:"summary" yaml:"summary" toon:"summary"`
	Diagnostics []Diagnostic  `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty" toon:"diagnostics,omitempty"`
}

// NewReport creates an empty report.
func NewReport() *Report {
	return &Report{
		Files:  make([]FileMetrics, 0),
		Issues: make([]Issue, 0),
	}
}

// AddFile folds one file's result into the report, preserving the order of
// its issues and counting each one in the summary.
func (r *Report) AddFile(res FileResult) {
	r.Files = append(r.Files, res.Metrics)
	for _, issue := range res.Issues {
		r.Issues = append(r.Issues, issue)
		r.Summary.Add(issue.Category)
	}
}

// AddDiagnostic records a non-fatal failure.
func (r *Report) AddDiagnostic(d Diagnostic) {
	r.Diagnostics = append(r.Diagnostics, d)
}

// FilterCategory returns a copy of the report restricted to issues of the
// given categories. Files and diagnostics are kept; the summary is recounted.
func (r *Report) FilterCategory(cats ...Category) *Report {
	keep := make(map[Category]bool, len(cats))
	for _, c := range cats {
		keep[c] = true
	}

	out := &Report{
		Files:       r.Files,
		Issues:      make([]Issue, 0, len(r.Issues)),
		Diagnostics: r.Diagnostics,
	}
	for _, issue := range r.Issues {
		if keep[issue.Category] {
			out.Issues = append(out.Issues, issue)
			out.Summary.Add(issue.Category)
		}
	}
	return out
}

// TotalFunctions returns the number of functions across all files.
func (r *Report) TotalFunctions() int {
	n := 0
	for _, f := range r.Files {
		n += len(f.FunctionMetrics)
	}
	return n
}
