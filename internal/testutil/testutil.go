// Package testutil builds Python project fixtures on disk for tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// WriteFile writes content to a file in the real filesystem.
func WriteFile(t testing.TB, path, content string) {
	t.Helper()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("MkdirAll(%s) error: %v", dir, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile(%s) error: %v", path, err)
	}
}

// CreateFileTree creates multiple files from a map of path -> content.
func CreateFileTree(t testing.TB, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		WriteFile(t, filepath.Join(root, name), content)
	}
}

// Repo is a throwaway git repository.
type Repo struct {
	Root string
	repo *git.Repository
}

// InitRepo creates an empty repository in a temporary directory.
func InitRepo(t testing.TB) *Repo {
	t.Helper()
	root := t.TempDir()
	repo, err := git.PlainInit(root, false)
	if err != nil {
		t.Fatalf("PlainInit(%s) error: %v", root, err)
	}
	return &Repo{Root: root, repo: repo}
}

// Commit writes files into the work tree, stages them and commits. It
// returns the commit hash.
func (r *Repo) Commit(t testing.TB, msg string, files map[string]string) string {
	t.Helper()
	w, err := r.repo.Worktree()
	if err != nil {
		t.Fatalf("Worktree() error: %v", err)
	}

	CreateFileTree(t, r.Root, files)
	for name := range files {
		if _, err := w.Add(filepath.ToSlash(name)); err != nil {
			t.Fatalf("Add(%s) error: %v", name, err)
		}
	}

	hash, err := w.Commit(msg, &git.CommitOptions{
		Author: &object.Signature{Name: "Test", Email: "test@example.com", When: time.Now()},
	})
	if err != nil {
		t.Fatalf("Commit(%q) error: %v", msg, err)
	}
	return hash.String()
}
