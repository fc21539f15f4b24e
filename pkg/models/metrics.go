package models

// FunctionMetric holds per-function structural metrics.
type FunctionMetric struct {
	Name       string `json:"name" yaml:"name" toon:"name"`
	Line       int    `json:"line,omitempty" yaml:"line,omitempty" toon:"line,omitempty"`
	Complexity int    `json:"complexity" yaml:"complexity" toon:"complexity"` // always >= 1
	ArgsCount  int    `json:"argsCount" yaml:"argsCount" toon:"argsCount"`
}

// FileMetrics holds line statistics and structural metrics for one file.
//
// CodeOnly is always LOC - Blank - Comment.
type FileMetrics struct {
	File            string           `json:"file" yaml:"file" toon:"file"`
	LOC             int              `json:"LOC" yaml:"LOC" toon:"LOC"`
	Blank           int              `json:"blank" yaml:"blank" toon:"blank"`
	Comment         int              `json:"comment" yaml:"comment" toon:"comment"`
	CodeOnly        int              `json:"codeOnly" yaml:"codeOnly" toon:"codeOnly"`
	Classes         int              `json:"classes" yaml:"classes" toon:"classes"`
	Functions       int              `json:"functions" yaml:"functions" toon:"functions"`
	Imports         []string         `json:"imports" yaml:"imports" toon:"imports"`
	FunctionMetrics []FunctionMetric `json:"functionMetrics" yaml:"functionMetrics" toon:"functionMetrics"`
}

// MeanComplexity returns the average function complexity, or 0 when the
// file defines no functions.
func (f FileMetrics) MeanComplexity() float64 {
	if len(f.FunctionMetrics) == 0 {
		return 0
	}
	total := 0
	for _, fn := range f.FunctionMetrics {
		total += fn.Complexity
	}
	return float64(total) / float64(len(f.FunctionMetrics))
}

// MaxComplexity returns the highest function complexity in the file.
func (f FileMetrics) MaxComplexity() int {
	highest := 0
	for _, fn := range f.FunctionMetrics {
		if fn.Complexity > highest {
			highest = fn.Complexity
		}
	}
	return highest
}
