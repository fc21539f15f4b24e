package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/pyscan/internal/output"
	"github.com/panbanda/pyscan/pkg/models"
)

func sampleDocument() *Document {
	meta := Metadata{
		GeneratedAt:   time.Date(2026, 1, 2, 15, 4, 0, 0, time.UTC),
		PyscanVersion: "1.2.3",
		Paths:         []string{"src"},
		Ref:           "main",
		Commit:        "0123456789abcdef0123456789abcdef01234567",
	}
	return NewDocument(sampleReport(), meta, 0)
}

func TestRenderableMarkdown(t *testing.T) {
	var buf bytes.Buffer
	f := output.NewWriterFormatter(output.FormatMarkdown, &buf, false)
	require.NoError(t, f.Output(sampleDocument().Renderable()))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "# Python Code Quality Report\n"))
	for _, want := range []string{
		"## Overview",
		"Lines: 1,250 total",
		"Revision: main (0123456789ab)",
		"| Code Smell | 1 | 33.3% |",
		"| Total | 3 |  |",
		"| 21+ | 1 | 25.0% |",
		"| dispatch | b.py:2 | 25 | 1 |",
		"| a.py | 2 |",
		"| broken.py | parse | invalid syntax |",
	} {
		assert.Contains(t, out, want)
	}
}

func TestRenderableText(t *testing.T) {
	var buf bytes.Buffer
	f := output.NewWriterFormatter(output.FormatText, &buf, false)
	require.NoError(t, f.Output(sampleDocument().Renderable()))

	out := buf.String()
	assert.Contains(t, out, "Python Code Quality Report")
	assert.Contains(t, out, "Complexity: mean 10.25, median 3.0, p90 25.0, max 25")
	assert.Contains(t, out, "Handler.run")
}

func TestRenderableStructured(t *testing.T) {
	var buf bytes.Buffer
	f := output.NewWriterFormatter(output.FormatJSON, &buf, false)
	require.NoError(t, f.Output(sampleDocument().Renderable()))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Contains(t, got, "metadata")
	assert.Contains(t, got, "issues")
	stats := got["stats"].(map[string]any)
	assert.EqualValues(t, 4, stats["functions"])
	assert.Len(t, stats["top_functions"], 4)
}

func TestRenderableWithoutFunctions(t *testing.T) {
	doc := NewDocument(models.NewReport(), Metadata{}, 0)

	var buf bytes.Buffer
	f := output.NewWriterFormatter(output.FormatMarkdown, &buf, false)
	require.NoError(t, f.Output(doc.Renderable()))

	out := buf.String()
	assert.NotContains(t, out, "Most Complex Functions")
	assert.NotContains(t, out, "Complexity: mean")
	assert.Contains(t, out, "| 1 | 0 | 0.0% |")
}

func TestHTMLRenderer(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, r.Render(sampleDocument(), &buf))

	out := buf.String()
	assert.Contains(t, out, "<title>pyscan report</title>")
	assert.Contains(t, out, "2026-01-02 15:04 UTC")
	assert.Contains(t, out, "by pyscan 1.2.3")
	assert.Contains(t, out, "<code>src</code>")
	assert.Contains(t, out, "1,250")
	assert.Contains(t, out, `<span class="badge critical">25</span>`)
	assert.Contains(t, out, `class="cat-code_smell">Code Smell`)
	assert.Contains(t, out, "call to eval()")
	assert.Contains(t, out, `id="pyscan-stats"`)
}

func TestHTMLRendererEscapes(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	doc := sampleDocument()
	doc.Issues[0].Description = "<script>alert(1)</script>"

	var buf bytes.Buffer
	require.NoError(t, r.Render(doc, &buf))
	assert.NotContains(t, buf.String(), "<script>alert(1)</script>")
}

func TestRenderToFile(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "report.html")
	require.NoError(t, r.RenderToFile(sampleDocument(), path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "Most Complex Functions")

	assert.Error(t, r.RenderToFile(sampleDocument(), "/nonexistent/dir/report.html"))
}

func TestCategoryTitle(t *testing.T) {
	assert.Equal(t, "Code Smell", categoryTitle("Code_Smell"))
	assert.Equal(t, "Security", categoryTitle("Security"))
}
