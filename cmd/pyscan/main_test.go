package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/panbanda/pyscan/internal/testutil"
	"github.com/panbanda/pyscan/pkg/config"
	"github.com/panbanda/pyscan/pkg/models"
)

const scenario = `def connect(a, b, c, d, e, f, g, h):
    try:
        return eval(a)
    except Exception:
        pass
`

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &errOut
	err := app.Run(append([]string{"pyscan", "--no-color"}, args...))
	return out.String(), err
}

func projectDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	testutil.CreateFileTree(t, dir, map[string]string{
		"db.py":   scenario,
		"util.py": "def add(x, y):\n    return x + y\n",
	})
	return dir
}

// TestGetPaths verifies path handling from CLI arguments.
func TestGetPaths(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected []string
	}{
		{"no args defaults to current dir", []string{}, []string{"."}},
		{"single path", []string{"/foo/bar"}, []string{"/foo/bar"}},
		{"multiple paths", []string{"/foo", "/bar"}, []string{"/foo", "/bar"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var result []string
			app := &cli.App{
				Action: func(c *cli.Context) error {
					result = getPaths(c)
					return nil
				},
			}
			require.NoError(t, app.Run(append([]string{"test"}, tt.args...)))
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestAnalyzeJSON(t *testing.T) {
	dir := projectDir(t)

	out, err := runApp(t, "-f", "json", "analyze", dir)
	require.NoError(t, err)
	require.NoError(t, models.ValidateReportJSON([]byte(out)))

	var report models.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Len(t, report.Files, 2)
	require.Len(t, report.Issues, 3)
	assert.Equal(t, models.CategoryMaintainability, report.Issues[0].Category)
	assert.Equal(t, models.CategorySecurity, report.Issues[1].Category)
	assert.Equal(t, models.CategoryCodeSmell, report.Issues[2].Category)
	assert.Equal(t, 1, report.Summary.Count(models.CategorySecurity))
}

func TestAnalyzeText(t *testing.T) {
	dir := projectDir(t)

	out, err := runApp(t, "analyze", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "db.py")
	assert.Contains(t, out, "eval")
	assert.Contains(t, out, "Code_Smell")
	assert.NotContains(t, out, "Skipped")
}

func TestAnalyzeReportsSkippedFiles(t *testing.T) {
	dir := projectDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.py"), []byte("def broken(:\n"), 0644))

	out, err := runApp(t, "-f", "markdown", "analyze", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Skipped")
	assert.Contains(t, out, "broken.py")
	assert.Contains(t, out, "parse")
}

func TestAnalyzeFailOnIssues(t *testing.T) {
	var code int
	orig := cli.OsExiter
	cli.OsExiter = func(c int) { code = c }
	t.Cleanup(func() { cli.OsExiter = orig })

	_, err := runApp(t, "-f", "json", "analyze", "--fail-on-issues", projectDir(t))
	require.Error(t, err)
	assert.Equal(t, 2, code)

	clean := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(clean, "ok.py"), []byte("x = 1\n"), 0644))
	_, err = runApp(t, "-f", "json", "analyze", "--fail-on-issues", clean)
	assert.NoError(t, err)
}

func TestAnalyzeMissingPath(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing")
	out, err := runApp(t, "-f", "json", "analyze", missing)
	require.NoError(t, err)

	var report models.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Empty(t, report.Files)
	require.Len(t, report.Diagnostics, 2)
	assert.Equal(t, missing, report.Diagnostics[0].File)
	assert.Equal(t, models.StageInput, report.Diagnostics[1].Stage)
}

func TestAnalyzeMissingPathKeepsOthers(t *testing.T) {
	dir := projectDir(t)
	missing := filepath.Join(dir, "missing.py")

	out, err := runApp(t, "-f", "json", "analyze", dir, missing)
	require.NoError(t, err)
	require.NoError(t, models.ValidateReportJSON([]byte(out)))

	var report models.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Len(t, report.Files, 2)
	assert.Len(t, report.Issues, 3)
	require.Len(t, report.Diagnostics, 1)
	assert.Equal(t, missing, report.Diagnostics[0].File)
	assert.Equal(t, models.StageRead, report.Diagnostics[0].Stage)
}

func TestIssuesCategoryFilter(t *testing.T) {
	dir := projectDir(t)

	out, err := runApp(t, "-f", "json", "issues", "--category", "code_smell", dir)
	require.NoError(t, err)

	var res struct {
		Issues  []models.Issue `json:"issues"`
		Summary models.Summary `json:"summary"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Len(t, res.Issues, 1)
	assert.Equal(t, models.CategoryCodeSmell, res.Issues[0].Category)
	assert.Equal(t, 4, res.Issues[0].Line)
	assert.Equal(t, 1, res.Summary.Total())
}

func TestIssuesUnknownCategory(t *testing.T) {
	_, err := runApp(t, "issues", "--category", "style", projectDir(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown category")
}

func TestMetricsFiles(t *testing.T) {
	out, err := runApp(t, "-f", "json", "metrics", projectDir(t))
	require.NoError(t, err)

	var files []models.FileMetrics
	require.NoError(t, json.Unmarshal([]byte(out), &files))
	require.Len(t, files, 2)
	assert.Equal(t, 5, files[0].LOC)
	assert.Equal(t, 1, files[0].Functions)
}

func TestMetricsFunctions(t *testing.T) {
	out, err := runApp(t, "-f", "json", "metrics", "--functions", projectDir(t))
	require.NoError(t, err)

	var rows []functionRow
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "connect", rows[0].Name)
	assert.Equal(t, 8, rows[0].ArgsCount)
	assert.Equal(t, 2, rows[0].Complexity)
	assert.Equal(t, "add", rows[1].Name)
}

func TestReportMarkdown(t *testing.T) {
	out, err := runApp(t, "-f", "markdown", "report", projectDir(t))
	require.NoError(t, err)
	assert.Contains(t, out, "Python Code Quality Report")
	assert.Contains(t, out, "Most Complex Functions")
	assert.Contains(t, out, "connect")
}

func TestReportHTML(t *testing.T) {
	target := filepath.Join(t.TempDir(), "report.html")

	_, err := runApp(t, "-o", target, "report", projectDir(t))
	require.NoError(t, err)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(strings.TrimSpace(string(data)), "<!DOCTYPE html>"))
	assert.Contains(t, string(data), "connect")
}

func TestReportRejectsBadTop(t *testing.T) {
	_, err := runApp(t, "report", "--top", "0", projectDir(t))
	assert.Error(t, err)
}

func TestValidateCmd(t *testing.T) {
	tmp := t.TempDir()
	good := filepath.Join(tmp, "report.json")
	_, err := runApp(t, "-f", "json", "-o", good, "analyze", projectDir(t))
	require.NoError(t, err)

	out, err := runApp(t, "validate", good)
	require.NoError(t, err)
	assert.Contains(t, out, "report.json: valid")

	bad := filepath.Join(tmp, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"files": [], "issues": [], "summary": {"Maintainability": 1, "Security": 0, "Code_Smell": 0}}`), 0644))
	out, err = runApp(t, "validate", good, bad)
	require.Error(t, err)
	assert.Contains(t, out, "bad.json: invalid")
	assert.Contains(t, err.Error(), "1 of 2")

	_, err = runApp(t, "validate")
	assert.Error(t, err)
}

func TestMetricsFileFlag(t *testing.T) {
	target := filepath.Join(t.TempDir(), "pyscan.prom")

	_, err := runApp(t, "-f", "json", "--metrics-file", target, "analyze", projectDir(t))
	require.NoError(t, err)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(data), "pyscan_files_analyzed_total 2")
	assert.Contains(t, string(data), "pyscan_issues_total")
}

func TestInitCmd(t *testing.T) {
	target := filepath.Join(t.TempDir(), ".pyscan", "pyscan.toml")

	out, err := runApp(t, "init", "-o", target)
	require.NoError(t, err)
	assert.Contains(t, out, "Created")

	cfg, err := config.Load(target)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig().Rules, cfg.Rules)

	_, err = runApp(t, "init", "-o", target)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, err = runApp(t, "init", "-o", target, "--force")
	assert.NoError(t, err)
}

func TestConfigCommands(t *testing.T) {
	tmp := t.TempDir()
	good := filepath.Join(tmp, "pyscan.toml")
	require.NoError(t, os.WriteFile(good, []byte("[rules]\nmax_parameters = 3\n"), 0644))

	out, err := runApp(t, "-c", good, "config", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration valid")

	out, err = runApp(t, "-c", good, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "max_parameters = 3")

	bad := filepath.Join(tmp, "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("[rules]\nmax_parameters = -1\n"), 0644))
	out, err = runApp(t, "-c", bad, "config", "validate")
	require.Error(t, err)
	assert.Contains(t, out, "validation failed")
}

func TestConfigThresholdsApply(t *testing.T) {
	tmp := t.TempDir()
	cfgPath := filepath.Join(tmp, "pyscan.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("[rules]\nmax_parameters = 10\n"), 0644))

	out, err := runApp(t, "-c", cfgPath, "-f", "json", "issues", "--category", "maintainability", projectDir(t))
	require.NoError(t, err)
	assert.Contains(t, out, `"issues": []`)
}

func TestMCPManifest(t *testing.T) {
	out, err := runApp(t, "mcp", "manifest")
	require.NoError(t, err)
	assert.Contains(t, out, "io.github.panbanda/pyscan")
}
