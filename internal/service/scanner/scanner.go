package scanner

import (
	"path/filepath"

	"github.com/panbanda/pyscan/internal/scanner"
	"github.com/panbanda/pyscan/internal/vcs"
	"github.com/panbanda/pyscan/pkg/config"
)

// ScanResult contains the result of a file scan.
type ScanResult struct {
	Files []string

	// Unreachable lists the path arguments that could not be scanned.
	Unreachable []*ScanError

	// Tree is set when files were selected from a git revision; the
	// paths in Files are then relative to Tree.Root().
	Tree *vcs.Tree
}

// Service provides file scanning functionality.
type Service struct {
	config *config.Config
}

// Option configures a Service.
type Option func(*Service)

// WithConfig sets the configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

// New creates a new scanner service.
func New(opts ...Option) *Service {
	s := &Service{}
	for _, opt := range opts {
		opt(s)
	}
	if s.config == nil {
		s.config = config.DefaultConfig()
	}
	return s
}

// ScanPaths scans files and directories on disk. No paths means the
// current directory. Paths that cannot be scanned are listed in
// ScanResult.Unreachable rather than failing the scan.
func (s *Service) ScanPaths(paths []string) (*ScanResult, error) {
	if len(paths) == 0 {
		paths = []string{"."}
	}

	for _, path := range paths {
		if _, err := filepath.Abs(path); err != nil {
			return nil, &PathError{Path: path, Err: err}
		}
	}

	files, failed := scanner.NewScanner(s.config).ScanPaths(paths)
	res := &ScanResult{Files: files}
	if failed != nil {
		for _, pe := range failed.Errors {
			res.Unreachable = append(res.Unreachable, &ScanError{Path: pe.Path, Err: pe.Err})
		}
	}
	return res, nil
}

// ScanRef selects the Python files committed at ref in the repository
// enclosing path.
func (s *Service) ScanRef(path, ref string) (*ScanResult, error) {
	if path == "" {
		path = "."
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, &PathError{Path: path, Err: err}
	}

	tree, err := vcs.OpenTree(absPath, ref)
	if err != nil {
		return nil, &GitError{Err: err}
	}
	entries, err := tree.Entries()
	if err != nil {
		return nil, &ScanError{Path: path, Err: err}
	}

	return &ScanResult{
		Files: scanner.NewScanner(s.config).FilterEntries(entries),
		Tree:  tree,
	}, nil
}

// PathError indicates an invalid path.
type PathError struct {
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return "invalid path " + e.Path + ": " + e.Err.Error()
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// ScanError indicates a scanning failure.
type ScanError struct {
	Path string
	Err  error
}

func (e *ScanError) Error() string {
	return "failed to scan " + e.Path + ": " + e.Err.Error()
}

func (e *ScanError) Unwrap() error {
	return e.Err
}

// GitError indicates the revision could not be read.
type GitError struct {
	Err error
}

func (e *GitError) Error() string {
	return "git: " + e.Err.Error()
}

func (e *GitError) Unwrap() error {
	return e.Err
}
