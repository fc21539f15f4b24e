package analysis

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/pyscan/internal/observability"
	"github.com/panbanda/pyscan/internal/testutil"
	"github.com/panbanda/pyscan/pkg/config"
	"github.com/panbanda/pyscan/pkg/models"
)

const riskySource = `try:
    run()
except ValueError:
    pass

token = "my-api-token-value-1234"
eval("1 + 1")
`

func TestNew(t *testing.T) {
	svc := New()
	require.NotNil(t, svc)
	assert.NotNil(t, svc.config)
	assert.NotNil(t, svc.logger)
}

func TestNewWithConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	svc := New(WithConfig(cfg))
	assert.Same(t, cfg, svc.config)
}

func TestAnalyze_Directory(t *testing.T) {
	root := t.TempDir()
	testutil.CreateFileTree(t, root, map[string]string{
		"app/risky.py":  riskySource,
		"app/clean.py":  "def add(a, b):\n    return a + b\n",
		"app/notes.txt": "not python",
	})

	res, err := New().Analyze(context.Background(), Options{Paths: []string{root}})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Files)
	assert.Len(t, res.Report.Files, 2)
	assert.Empty(t, res.Report.Diagnostics)
	assert.Empty(t, res.Commit)

	// clean.py sorts before risky.py
	assert.Equal(t, filepath.Join(root, "app", "clean.py"), res.Report.Files[0].File)

	require.Len(t, res.Report.Issues, 3)
	assert.Equal(t, models.CategoryCodeSmell, res.Report.Issues[0].Category)
	assert.Equal(t, 3, res.Report.Issues[0].Line)
	assert.Equal(t, models.CategorySecurity, res.Report.Issues[1].Category)
	assert.Equal(t, 6, res.Report.Issues[1].Line)
	assert.Equal(t, models.CategorySecurity, res.Report.Issues[2].Category)
	assert.Equal(t, 7, res.Report.Issues[2].Line)
	assert.Equal(t, 3, res.Report.Summary.Total())
}

func TestAnalyze_SkipsBrokenFiles(t *testing.T) {
	root := t.TempDir()
	testutil.CreateFileTree(t, root, map[string]string{
		"a.py": "x = 1\n",
		"b.py": "def broken(:\n",
	})

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	res, err := New(WithLogger(logger)).Analyze(context.Background(), Options{Paths: []string{root}})
	require.NoError(t, err)

	assert.Len(t, res.Report.Files, 1)
	require.Len(t, res.Report.Diagnostics, 1)
	assert.Equal(t, models.StageParse, res.Report.Diagnostics[0].Stage)
	assert.Contains(t, logs.String(), "skipping file")
	assert.Contains(t, logs.String(), "scan complete")
}

func TestAnalyze_ReadFailuresBecomeDiagnostics(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("root can read unreadable files")
	}
	root := t.TempDir()
	testutil.CreateFileTree(t, root, map[string]string{
		"ok.py":     "x = 1\n",
		"secret.py": "y = 2\n",
	})
	require.NoError(t, os.Chmod(filepath.Join(root, "secret.py"), 0))

	m := observability.New()
	res, err := New(WithMetrics(m)).Analyze(context.Background(), Options{Paths: []string{root}})
	require.NoError(t, err)

	require.Len(t, res.Report.Diagnostics, 1)
	assert.Equal(t, models.StageRead, res.Report.Diagnostics[0].Stage)
	assert.Equal(t, 1.0, promtestutil.ToFloat64(m.FilesSkipped.WithLabelValues("read")))
}

func TestAnalyze_NoPythonFiles(t *testing.T) {
	root := t.TempDir()
	testutil.CreateFileTree(t, root, map[string]string{"README.md": "# hi\n"})

	res, err := New().Analyze(context.Background(), Options{Paths: []string{root}})
	require.NoError(t, err)

	assert.Zero(t, res.Files)
	require.Len(t, res.Report.Diagnostics, 1)
	assert.Equal(t, models.StageInput, res.Report.Diagnostics[0].Stage)
}

func TestAnalyze_MissingPath(t *testing.T) {
	res, err := New().Analyze(context.Background(), Options{Paths: []string{"/nonexistent/path"}})
	require.NoError(t, err)

	assert.Empty(t, res.Report.Files)
	assert.Empty(t, res.Report.Issues)
	require.Len(t, res.Report.Diagnostics, 2)
	assert.Equal(t, "/nonexistent/path", res.Report.Diagnostics[0].File)
	assert.Equal(t, models.StageRead, res.Report.Diagnostics[0].Stage)
	assert.Empty(t, res.Report.Diagnostics[1].File)
	assert.Equal(t, models.StageInput, res.Report.Diagnostics[1].Stage)
}

func TestAnalyze_MissingPathKeepsOthers(t *testing.T) {
	root := t.TempDir()
	testutil.CreateFileTree(t, root, map[string]string{"risky.py": riskySource})
	missing := filepath.Join(root, "missing.py")

	m := observability.New()
	res, err := New(WithMetrics(m)).Analyze(context.Background(), Options{
		Paths: []string{filepath.Join(root, "risky.py"), missing},
	})
	require.NoError(t, err)

	require.Len(t, res.Report.Files, 1)
	assert.Len(t, res.Report.Issues, 3)
	require.Len(t, res.Report.Diagnostics, 1)
	assert.Equal(t, missing, res.Report.Diagnostics[0].File)
	assert.Equal(t, models.StageRead, res.Report.Diagnostics[0].Stage)
	assert.Equal(t, 1.0, promtestutil.ToFloat64(m.FilesSkipped.WithLabelValues("read")))
}

func TestAnalyze_Progress(t *testing.T) {
	root := t.TempDir()
	testutil.CreateFileTree(t, root, map[string]string{
		"a.py": "x = 1\n",
		"b.py": "y = 2\n",
		"c.py": "z = 3\n",
	})

	var calls atomic.Int32
	var lastTotal atomic.Int32
	_, err := New().Analyze(context.Background(), Options{
		Paths: []string{root},
		OnProgress: func(current, total int, path string) {
			calls.Add(1)
			lastTotal.Store(int32(total))
		},
	})
	require.NoError(t, err)

	// Only the analysis phase reports progress.
	assert.EqualValues(t, 3, calls.Load())
	assert.EqualValues(t, 3, lastTotal.Load())
}

func TestAnalyze_UsesConfigThresholds(t *testing.T) {
	root := t.TempDir()
	testutil.CreateFileTree(t, root, map[string]string{
		"f.py": "def f(a, b, c):\n    pass\n",
	})

	cfg := config.DefaultConfig()
	cfg.Rules.MaxParameters = 2

	res, err := New(WithConfig(cfg)).Analyze(context.Background(), Options{Paths: []string{root}})
	require.NoError(t, err)
	require.Len(t, res.Report.Issues, 1)
	assert.Equal(t, models.CategoryMaintainability, res.Report.Issues[0].Category)
}

func initRepo(t *testing.T, files map[string]string) string {
	t.Helper()
	r := testutil.InitRepo(t)
	r.Commit(t, "initial", files)
	return r.Root
}

func TestAnalyze_Ref(t *testing.T) {
	root := initRepo(t, map[string]string{
		"pkg/risky.py": riskySource,
		"tools/gen.py": "x = 1\n",
	})

	// Working tree changes are invisible at HEAD.
	testutil.CreateFileTree(t, root, map[string]string{"pkg/risky.py": "x = 1\n"})

	res, err := New().Analyze(context.Background(), Options{Paths: []string{root}, Ref: "HEAD"})
	require.NoError(t, err)

	assert.Len(t, res.Commit, 40)
	assert.NotEmpty(t, res.Root)
	require.Len(t, res.Report.Files, 2)
	assert.Equal(t, "pkg/risky.py", res.Report.Files[0].File)
	assert.Len(t, res.Report.Issues, 3)
	assert.Equal(t, "pkg/risky.py", res.Report.Issues[0].File)
}

func TestAnalyze_RefSubdirectory(t *testing.T) {
	root := initRepo(t, map[string]string{
		"pkg/risky.py": riskySource,
		"tools/gen.py": "x = 1\n",
	})

	res, err := New().Analyze(context.Background(), Options{Paths: []string{filepath.Join(root, "tools")}, Ref: "HEAD"})
	require.NoError(t, err)

	require.Len(t, res.Report.Files, 1)
	assert.Equal(t, "tools/gen.py", res.Report.Files[0].File)
}

func TestAnalyze_RefNotRepository(t *testing.T) {
	_, err := New().Analyze(context.Background(), Options{Paths: []string{t.TempDir()}, Ref: "HEAD"})
	assert.Error(t, err)
}

func TestAnalyzeSource(t *testing.T) {
	report := New().AnalyzeSource(context.Background(), "snippet.py", []byte(riskySource))
	require.Len(t, report.Files, 1)
	assert.Equal(t, "snippet.py", report.Files[0].File)
	assert.Len(t, report.Issues, 3)
}

func TestUnderPath(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "a", "b"), 0755))
	files := []string{"a/x.py", "a/b/y.py", "ab/z.py", "c.py"}

	assert.Equal(t, files, underPath(files, root, root))
	assert.Equal(t, []string{"a/x.py", "a/b/y.py"}, underPath(files, root, filepath.Join(root, "a")))
	assert.Equal(t, []string{"a/b/y.py"}, underPath(files, root, filepath.Join(root, "a", "b")))
}
