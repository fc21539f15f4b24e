// Package source reads file content for analysis from the file system or a
// git revision.
package source

import (
	"context"
	"errors"
	"os"
	"sync"

	"github.com/panbanda/pyscan/internal/fileproc"
	"github.com/panbanda/pyscan/internal/vcs"
	"github.com/panbanda/pyscan/pkg/models"
)

// ContentSource provides file content from a specific source.
type ContentSource interface {
	// Read returns the content of the file at path.
	Read(path string) ([]byte, error)
}

// FilesystemSource reads files from the local filesystem.
type FilesystemSource struct{}

// NewFilesystem creates a source that reads from the filesystem.
func NewFilesystem() *FilesystemSource {
	return &FilesystemSource{}
}

// Read implements ContentSource.
func (f *FilesystemSource) Read(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// TreeSource reads files from a git tree.
// It is safe for concurrent use by multiple goroutines.
type TreeSource struct {
	tree *vcs.Tree
	mu   sync.Mutex
}

// NewTree creates a source that reads from a git tree.
func NewTree(tree *vcs.Tree) *TreeSource {
	return &TreeSource{tree: tree}
}

// Read implements ContentSource.
func (t *TreeSource) Read(path string) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tree.File(path)
}

// Load reads every path from src concurrently. Units come back in path
// order; paths that cannot be read become read-stage diagnostics.
func Load(ctx context.Context, src ContentSource, paths []string, workers int) ([]models.SourceUnit, []models.Diagnostic) {
	results := fileproc.ForEachIndexed(ctx, paths, workers, func(p string) string { return p }, src.Read)

	units := make([]models.SourceUnit, 0, len(paths))
	var diags []models.Diagnostic
	for i, r := range results {
		if r.Err != nil {
			diags = append(diags, models.Diagnostic{
				File:    paths[i],
				Stage:   models.StageRead,
				Message: cause(r.Err).Error(),
			})
			continue
		}
		units = append(units, models.SourceUnit{Path: paths[i], Content: r.Value})
	}
	return units, diags
}

func cause(err error) error {
	var pe fileproc.ProcessingError
	if errors.As(err, &pe) {
		return pe.Err
	}
	return err
}
