// Package vcs reads Python sources out of git revisions.
package vcs

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// ErrNotRepository is returned when no git repository encloses the path.
var ErrNotRepository = errors.New("not a git repository")

// TreeEntry represents a file in a git tree.
type TreeEntry struct {
	Path string
	Size int64
}

// Tree is a read-only snapshot of the files at one commit.
type Tree struct {
	root   string
	commit string
	tree   *object.Tree
}

// OpenTree resolves ref (a branch, tag, SHA or expression such as HEAD~2) in
// the repository enclosing path.
func OpenTree(path, ref string) (*Tree, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, fmt.Errorf("%s: %w", path, ErrNotRepository)
		}
		return nil, err
	}

	root := path
	if wt, err := repo.Worktree(); err == nil {
		root = wt.Filesystem.Root()
	}

	hash, err := repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %q: %w", ref, err)
	}
	commit, err := repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("failed to load commit %s: %w", hash, err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to load tree for %s: %w", hash, err)
	}

	return &Tree{root: root, commit: hash.String(), tree: tree}, nil
}

// Root returns the repository's working directory.
func (t *Tree) Root() string {
	return t.root
}

// Commit returns the resolved commit SHA.
func (t *Tree) Commit() string {
	return t.commit
}

// Entries returns every file in the tree, sorted by path. Paths are
// slash-separated and relative to the repository root.
func (t *Tree) Entries() ([]TreeEntry, error) {
	var entries []TreeEntry
	err := t.tree.Files().ForEach(func(f *object.File) error {
		entries = append(entries, TreeEntry{Path: f.Name, Size: f.Size})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries, nil
}

// File returns the content of path at this commit. Absolute paths inside the
// repository root are accepted.
func (t *Tree) File(path string) ([]byte, error) {
	if filepath.IsAbs(path) {
		rel, err := filepath.Rel(t.root, path)
		if err != nil {
			return nil, err
		}
		path = rel
	}

	f, err := t.tree.File(filepath.ToSlash(path))
	if err != nil {
		return nil, fmt.Errorf("%s at %.8s: %w", path, t.commit, err)
	}
	content, err := f.Contents()
	if err != nil {
		return nil, err
	}
	return []byte(content), nil
}
