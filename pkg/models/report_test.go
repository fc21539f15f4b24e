package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult(file string, cats ...Category) FileResult {
	res := FileResult{
		Metrics: FileMetrics{
			File:     file,
			LOC:      10,
			Blank:    2,
			Comment:  1,
			CodeOnly: 7,
			Imports:  []string{"os"},
			FunctionMetrics: []FunctionMetric{
				{Name: "f", Complexity: 2, ArgsCount: 1},
			},
			Functions: 1,
		},
	}
	for i, c := range cats {
		res.Issues = append(res.Issues, Issue{File: file, Line: i + 1, Category: c, Description: "x"})
	}
	return res
}

func TestReport_AddFileKeepsSummaryInSync(t *testing.T) {
	r := NewReport()
	r.AddFile(sampleResult("a.py", CategorySecurity, CategoryCodeSmell, CategorySecurity))
	r.AddFile(sampleResult("b.py", CategoryMaintainability))

	assert.Len(t, r.Files, 2)
	assert.Len(t, r.Issues, 4)
	assert.Equal(t, len(r.Issues), r.Summary.Total())
	assert.Equal(t, Summary{Maintainability: 1, Security: 2, CodeSmell: 1}, r.Summary)
	require.NoError(t, r.Check())
}

func TestReport_AddFilePreservesIssueOrder(t *testing.T) {
	r := NewReport()
	r.AddFile(sampleResult("a.py", CategorySecurity, CategoryCodeSmell))
	r.AddFile(sampleResult("b.py", CategoryMaintainability))

	got := make([]string, 0, len(r.Issues))
	for _, issue := range r.Issues {
		got = append(got, issue.File+":"+issue.Category.String())
	}
	assert.Equal(t, []string{"a.py:Security", "a.py:Code_Smell", "b.py:Maintainability"}, got)
}

func TestReport_FilterCategory(t *testing.T) {
	r := NewReport()
	r.AddFile(sampleResult("a.py", CategorySecurity, CategoryCodeSmell, CategorySecurity))

	sec := r.FilterCategory(CategorySecurity)
	assert.Len(t, sec.Issues, 2)
	assert.Equal(t, Summary{Security: 2}, sec.Summary)
	assert.Len(t, sec.Files, 1)
	assert.Len(t, r.Issues, 3, "original report must not change")
}

func TestReport_JSONShape(t *testing.T) {
	r := NewReport()
	r.AddFile(sampleResult("a.py", CategoryCodeSmell))

	data, err := json.Marshal(r)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Contains(t, raw, "files")
	assert.Contains(t, raw, "issues")
	assert.NotContains(t, raw, "diagnostics")

	summary := raw["summary"].(map[string]any)
	assert.Equal(t, float64(1), summary["Code_Smell"])
	assert.Equal(t, float64(0), summary["Security"])
	assert.Equal(t, float64(0), summary["Maintainability"])

	issue := raw["issues"].([]any)[0].(map[string]any)
	assert.Equal(t, "Code_Smell", issue["type"])
	assert.Equal(t, "x", issue["desc"])

	file := raw["files"].([]any)[0].(map[string]any)
	for _, key := range []string{"file", "LOC", "blank", "comment", "codeOnly", "classes", "functions", "imports", "functionMetrics"} {
		assert.Contains(t, file, key)
	}
	fn := file["functionMetrics"].([]any)[0].(map[string]any)
	assert.Equal(t, float64(1), fn["argsCount"])
}

func TestValidateReportJSON(t *testing.T) {
	r := NewReport()
	r.AddFile(sampleResult("a.py", CategorySecurity))
	r.AddDiagnostic(Diagnostic{File: "b.py", Stage: StageParse, Message: "invalid syntax", Line: 3, Column: 1})

	data, err := json.Marshal(r)
	require.NoError(t, err)
	require.NoError(t, ValidateReportJSON(data))

	t.Run("empty report", func(t *testing.T) {
		data, err := json.Marshal(NewReport())
		require.NoError(t, err)
		assert.NoError(t, ValidateReportJSON(data))
	})

	t.Run("summary mismatch", func(t *testing.T) {
		bad := `{"files":[],"issues":[],"summary":{"Maintainability":1,"Security":0,"Code_Smell":0}}`
		assert.Error(t, ValidateReportJSON([]byte(bad)))
	})

	t.Run("unknown category", func(t *testing.T) {
		bad := `{"files":[],"issues":[{"file":"a.py","line":1,"type":"Style","desc":"x"}],"summary":{"Maintainability":0,"Security":0,"Code_Smell":0}}`
		assert.Error(t, ValidateReportJSON([]byte(bad)))
	})

	t.Run("zero line", func(t *testing.T) {
		bad := `{"files":[],"issues":[{"file":"a.py","line":0,"type":"Security","desc":"x"}],"summary":{"Maintainability":0,"Security":1,"Code_Smell":0}}`
		assert.Error(t, ValidateReportJSON([]byte(bad)))
	})

	t.Run("not json", func(t *testing.T) {
		assert.Error(t, ValidateReportJSON([]byte("{")))
	})
}

func TestReport_CheckCodeOnlyIdentity(t *testing.T) {
	r := NewReport()
	res := sampleResult("a.py")
	res.Metrics.CodeOnly = 3
	r.AddFile(res)
	assert.Error(t, r.Check())
}

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in   string
		want Category
		ok   bool
	}{
		{"Security", CategorySecurity, true},
		{"maintainability", CategoryMaintainability, true},
		{"Code_Smell", CategoryCodeSmell, true},
		{"CodeSmell", CategoryCodeSmell, true},
		{"code-smell", CategoryCodeSmell, true},
		{"style", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseCategory(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFileMetrics_Complexity(t *testing.T) {
	f := FileMetrics{FunctionMetrics: []FunctionMetric{{Complexity: 1}, {Complexity: 4}}}
	assert.InDelta(t, 2.5, f.MeanComplexity(), 1e-9)
	assert.Equal(t, 4, f.MaxComplexity())
	assert.Zero(t, FileMetrics{}.MeanComplexity())
}
