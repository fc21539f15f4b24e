package report

import "time"

// Metadata contains report generation metadata.
type Metadata struct {
	GeneratedAt   time.Time `json:"generated_at" yaml:"generated_at" toon:"generated_at"`
	PyscanVersion string    `json:"pyscan_version" yaml:"pyscan_version" toon:"pyscan_version"`
	Paths         []string  `json:"paths" yaml:"paths" toon:"paths"`
	Ref           string    `json:"ref,omitempty" yaml:"ref,omitempty" toon:"ref,omitempty"`
	Commit        string    `json:"commit,omitempty" yaml:"commit,omitempty" toon:"commit,omitempty"`
}

// Stats summarizes a report for people.
type Stats struct {
	Files       int     `json:"files" yaml:"files" toon:"files"`
	Skipped     int     `json:"skipped" yaml:"skipped" toon:"skipped"`
	Functions   int     `json:"functions" yaml:"functions" toon:"functions"`
	Classes     int     `json:"classes" yaml:"classes" toon:"classes"`
	LOC         int     `json:"loc" yaml:"loc" toon:"loc"`
	CodeOnly    int     `json:"code_only" yaml:"code_only" toon:"code_only"`
	CommentRate float64 `json:"comment_rate" yaml:"comment_rate" toon:"comment_rate"` // comment lines / LOC

	Issues     int            `json:"issues" yaml:"issues" toon:"issues"`
	ByCategory map[string]int `json:"by_category" yaml:"by_category" toon:"by_category"`

	Complexity ComplexityStats `json:"complexity" yaml:"complexity" toon:"complexity"`
	Parameters ParameterStats  `json:"parameters" yaml:"parameters" toon:"parameters"`

	Distribution []Bucket       `json:"distribution" yaml:"distribution" toon:"distribution"`
	TopFiles     []FileStat     `json:"top_files" yaml:"top_files" toon:"top_files"`
	TopFunctions []FunctionStat `json:"top_functions" yaml:"top_functions" toon:"top_functions"`
	IssueFiles   []FileIssues   `json:"issue_files" yaml:"issue_files" toon:"issue_files"`
}

// ComplexityStats describes the spread of function complexity.
type ComplexityStats struct {
	Mean   float64 `json:"mean" yaml:"mean" toon:"mean"`
	StdDev float64 `json:"stddev" yaml:"stddev" toon:"stddev"`
	Median float64 `json:"median" yaml:"median" toon:"median"`
	P90    float64 `json:"p90" yaml:"p90" toon:"p90"`
	Max    int     `json:"max" yaml:"max" toon:"max"`
}

// ParameterStats describes positional parameter counts, receivers included.
type ParameterStats struct {
	Mean float64 `json:"mean" yaml:"mean" toon:"mean"`
	Max  int     `json:"max" yaml:"max" toon:"max"`
}

// Bucket counts functions whose complexity falls in [Min, Max].
// Max is 0 for the open-ended last bucket.
type Bucket struct {
	Label string `json:"label" yaml:"label" toon:"label"`
	Min   int    `json:"min" yaml:"min" toon:"min"`
	Max   int    `json:"max,omitempty" yaml:"max,omitempty" toon:"max,omitempty"`
	Count int    `json:"count" yaml:"count" toon:"count"`
}

// FileStat ranks a file by its function complexity.
type FileStat struct {
	File           string  `json:"file" yaml:"file" toon:"file"`
	Functions      int     `json:"functions" yaml:"functions" toon:"functions"`
	MeanComplexity float64 `json:"mean_complexity" yaml:"mean_complexity" toon:"mean_complexity"`
	MaxComplexity  int     `json:"max_complexity" yaml:"max_complexity" toon:"max_complexity"`
	LOC            int     `json:"loc" yaml:"loc" toon:"loc"`
}

// FunctionStat ranks a single function.
type FunctionStat struct {
	File       string `json:"file" yaml:"file" toon:"file"`
	Name       string `json:"name" yaml:"name" toon:"name"`
	Line       int    `json:"line" yaml:"line" toon:"line"`
	Complexity int    `json:"complexity" yaml:"complexity" toon:"complexity"`
	ArgsCount  int    `json:"args_count" yaml:"args_count" toon:"args_count"`
}

// FileIssues counts the issues found in one file.
type FileIssues struct {
	File  string `json:"file" yaml:"file" toon:"file"`
	Count int    `json:"count" yaml:"count" toon:"count"`
}
