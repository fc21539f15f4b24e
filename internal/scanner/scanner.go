// Package scanner discovers the Python files to analyze.
package scanner

import (
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"

	"github.com/panbanda/pyscan/internal/fileproc"
	"github.com/panbanda/pyscan/internal/vcs"
	"github.com/panbanda/pyscan/pkg/config"
	"github.com/panbanda/pyscan/pkg/parser"
)

// Scanner finds Python source files.
type Scanner struct {
	config   *config.Config
	matcher  gitignore.Matcher
	matchDir string // directory matcher paths are relative to
}

// NewScanner creates a new file scanner.
func NewScanner(cfg *config.Config) *Scanner {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Scanner{config: cfg}
}

// findGitRoot finds the root of the git repository by looking for .git.
// Returns empty string if not in a git repository.
func findGitRoot(start string) string {
	dir := start
	for {
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadExcludePatterns builds the matcher from config patterns and, when
// enabled, every .gitignore under the enclosing repository.
// Config patterns use gitignore syntax.
func (s *Scanner) loadExcludePatterns(root string) {
	var patterns []gitignore.Pattern
	for _, pattern := range s.config.Exclude.Patterns {
		patterns = append(patterns, gitignore.ParsePattern(pattern, nil))
	}

	s.matchDir = root
	if s.config.Exclude.Gitignore {
		if gitRoot := findGitRoot(root); gitRoot != "" {
			if gitPatterns, err := gitignore.ReadPatterns(osfs.New(gitRoot), nil); err == nil {
				patterns = append(patterns, gitPatterns...)
				s.matchDir = gitRoot
			}
		}
	}

	s.matcher = nil
	if len(patterns) > 0 {
		s.matcher = gitignore.NewMatcher(patterns)
	}
}

// isExcluded checks an absolute path against the loaded matcher.
func (s *Scanner) isExcluded(path string, isDir bool) bool {
	if s.matcher == nil {
		return false
	}
	rel, err := filepath.Rel(s.matchDir, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return false
	}
	return s.matcher.Match(strings.Split(rel, string(filepath.Separator)), isDir)
}

func (s *Scanner) isExcludedDir(name string) bool {
	return slices.Contains(s.config.Exclude.Dirs, name)
}

// ScanDir recursively scans a directory for Python files, in lexical order.
// Symlinks that resolve outside the root are skipped.
func (s *Scanner) ScanDir(root string) ([]string, error) {
	files := make([]string, 0, 256)

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	realRoot, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		return nil, err
	}

	s.loadExcludePatterns(absRoot)

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			resolved, err := filepath.EvalSymlinks(path)
			if err != nil || !isWithinRoot(resolved, realRoot) {
				return nil
			}
			info, err := os.Stat(resolved)
			if err != nil || info.IsDir() {
				return nil
			}
		}

		absPath := filepath.Join(absRoot, mustRel(root, path))
		if d.IsDir() {
			if path != root && (s.isExcludedDir(d.Name()) || s.isExcluded(absPath, true)) {
				return filepath.SkipDir
			}
			return nil
		}

		if !parser.IsPythonFile(path) || s.isExcluded(absPath, false) {
			return nil
		}
		files = append(files, path)
		return nil
	})

	return files, walkErr
}

func mustRel(base, target string) string {
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return target
	}
	return rel
}

// isWithinRoot checks if a path is contained within the root directory.
func isWithinRoot(path, root string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	absPath = filepath.Clean(absPath)
	root = filepath.Clean(root)

	// Add separator to prevent "/root2" matching "/root"
	return absPath == root || strings.HasPrefix(absPath, root+string(filepath.Separator))
}

// ScanFile checks if a single file should be analyzed. A file named
// explicitly is only rejected for its extension or a matching pattern.
func (s *Scanner) ScanFile(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	if info.IsDir() || !parser.IsPythonFile(path) {
		return false, nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return false, err
	}
	s.loadExcludePatterns(filepath.Dir(absPath))
	return !s.isExcluded(absPath, false), nil
}

// ScanPaths scans each path, which may be a file or a directory, and
// returns the files found in argument order without duplicates. A path that
// cannot be scanned does not stop the others; its failure is collected in the
// second result, which is nil when every path was scanned.
func (s *Scanner) ScanPaths(paths []string) ([]string, *fileproc.ProcessingErrors) {
	seen := make(map[string]bool)
	var files []string
	add := func(path string) {
		key := path
		if abs, err := filepath.Abs(path); err == nil {
			key = abs
		}
		if !seen[key] {
			seen[key] = true
			files = append(files, path)
		}
	}

	failed := &fileproc.ProcessingErrors{}
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			failed.Add(path, err)
			continue
		}
		if !info.IsDir() {
			ok, err := s.ScanFile(path)
			if err != nil {
				failed.Add(path, err)
				continue
			}
			if ok {
				add(path)
			}
			continue
		}
		found, err := s.ScanDir(path)
		if err != nil {
			failed.Add(path, err)
			continue
		}
		for _, f := range found {
			add(f)
		}
	}

	if !failed.HasErrors() {
		return files, nil
	}
	return files, failed
}

// FilterEntries selects the Python files of a git tree, applying the
// configured directory and pattern exclusions. Tracked files are never
// subject to .gitignore.
func (s *Scanner) FilterEntries(entries []vcs.TreeEntry) []string {
	var patterns []gitignore.Pattern
	for _, pattern := range s.config.Exclude.Patterns {
		patterns = append(patterns, gitignore.ParsePattern(pattern, nil))
	}
	matcher := gitignore.NewMatcher(patterns)

	var files []string
	for _, e := range entries {
		if !parser.IsPythonFile(e.Path) || s.config.ShouldExclude(e.Path) {
			continue
		}
		if matcher.Match(strings.Split(e.Path, "/"), false) {
			continue
		}
		files = append(files, e.Path)
	}
	return files
}
