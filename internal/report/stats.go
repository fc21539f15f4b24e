// Package report turns an analysis report into human-oriented summaries:
// statistics, rankings and rendered text, markdown or HTML.
package report

import (
	"cmp"
	"slices"
	"strconv"

	"gonum.org/v1/gonum/stat"

	"github.com/panbanda/pyscan/pkg/models"
)

// DefaultLimit is the length of each ranking.
const DefaultLimit = 10

// bucketBounds are the lower bounds of the complexity buckets.
var bucketBounds = []int{1, 2, 6, 11, 21}

// Compute derives Stats from r. Rankings hold at most limit entries;
// limit <= 0 means DefaultLimit.
func Compute(r *models.Report, limit int) Stats {
	if limit <= 0 {
		limit = DefaultLimit
	}

	s := Stats{
		Files:      len(r.Files),
		Issues:     len(r.Issues),
		ByCategory: make(map[string]int, 3),
	}
	for cat, n := range r.Summary.ByCategory() {
		s.ByCategory[string(cat)] = n
	}
	for _, d := range r.Diagnostics {
		if d.File != "" {
			s.Skipped++
		}
	}

	var complexity, params []float64
	var functions []FunctionStat
	var files []FileStat
	for _, f := range r.Files {
		s.Functions += f.Functions
		s.Classes += f.Classes
		s.LOC += f.LOC
		s.CodeOnly += f.CodeOnly
		s.CommentRate += float64(f.Comment)

		for _, fn := range f.FunctionMetrics {
			complexity = append(complexity, float64(fn.Complexity))
			params = append(params, float64(fn.ArgsCount))
			s.Complexity.Max = max(s.Complexity.Max, fn.Complexity)
			s.Parameters.Max = max(s.Parameters.Max, fn.ArgsCount)
			functions = append(functions, FunctionStat{
				File:       f.File,
				Name:       fn.Name,
				Line:       fn.Line,
				Complexity: fn.Complexity,
				ArgsCount:  fn.ArgsCount,
			})
		}
		if len(f.FunctionMetrics) > 0 {
			files = append(files, FileStat{
				File:           f.File,
				Functions:      len(f.FunctionMetrics),
				MeanComplexity: f.MeanComplexity(),
				MaxComplexity:  f.MaxComplexity(),
				LOC:            f.LOC,
			})
		}
	}
	if s.LOC > 0 {
		s.CommentRate /= float64(s.LOC)
	} else {
		s.CommentRate = 0
	}

	s.Distribution = distribution(complexity, s.Complexity.Max)
	if len(complexity) > 0 {
		slices.Sort(complexity)
		s.Complexity.Mean, s.Complexity.StdDev = stat.MeanStdDev(complexity, nil)
		if len(complexity) == 1 {
			s.Complexity.StdDev = 0
		}
		s.Complexity.Median = stat.Quantile(0.5, stat.Empirical, complexity, nil)
		s.Complexity.P90 = stat.Quantile(0.9, stat.Empirical, complexity, nil)
		s.Parameters.Mean = stat.Mean(params, nil)
	}

	slices.SortStableFunc(files, func(a, b FileStat) int {
		return cmp.Or(
			cmp.Compare(b.MeanComplexity, a.MeanComplexity),
			cmp.Compare(b.MaxComplexity, a.MaxComplexity),
			cmp.Compare(a.File, b.File),
		)
	})
	slices.SortStableFunc(functions, func(a, b FunctionStat) int {
		return cmp.Or(
			cmp.Compare(b.Complexity, a.Complexity),
			cmp.Compare(a.File, b.File),
			cmp.Compare(a.Line, b.Line),
		)
	})
	s.TopFiles = truncate(files, limit)
	s.TopFunctions = truncate(functions, limit)
	s.IssueFiles = truncate(issueFiles(r.Issues), limit)
	return s
}

// distribution counts complexity values per bucket.
func distribution(values []float64, highest int) []Bucket {
	buckets := make([]Bucket, len(bucketBounds))
	for i, lo := range bucketBounds {
		buckets[i] = Bucket{Min: lo}
		if i+1 < len(bucketBounds) {
			buckets[i].Max = bucketBounds[i+1] - 1
		}
		buckets[i].Label = bucketLabel(buckets[i])
	}
	if len(values) == 0 {
		return buckets
	}

	sorted := slices.Clone(values)
	slices.Sort(sorted)
	dividers := make([]float64, 0, len(bucketBounds)+1)
	for _, lo := range bucketBounds {
		dividers = append(dividers, float64(lo))
	}
	// The last divider must exceed every value.
	dividers = append(dividers, float64(max(highest, bucketBounds[len(bucketBounds)-1])+1))

	counts := stat.Histogram(nil, dividers, sorted, nil)
	for i, c := range counts {
		buckets[i].Count = int(c)
	}
	return buckets
}

func bucketLabel(b Bucket) string {
	switch {
	case b.Max == 0:
		return strconv.Itoa(b.Min) + "+"
	case b.Min == b.Max:
		return strconv.Itoa(b.Min)
	default:
		return strconv.Itoa(b.Min) + "-" + strconv.Itoa(b.Max)
	}
}

func issueFiles(issues []models.Issue) []FileIssues {
	counts := make(map[string]int)
	var order []string
	for _, is := range issues {
		if counts[is.File] == 0 {
			order = append(order, is.File)
		}
		counts[is.File]++
	}
	out := make([]FileIssues, 0, len(order))
	for _, f := range order {
		out = append(out, FileIssues{File: f, Count: counts[f]})
	}
	slices.SortStableFunc(out, func(a, b FileIssues) int {
		return cmp.Or(cmp.Compare(b.Count, a.Count), cmp.Compare(a.File, b.File))
	})
	return out
}

func truncate[T any](items []T, n int) []T {
	if len(items) > n {
		items = items[:n]
	}
	if items == nil {
		return []T{}
	}
	return items
}
