// Package parser turns Python source into tree-sitter syntax trees.
package parser

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// Parser wraps a tree-sitter parser configured for Python.
// A Parser is not safe for concurrent use; create one per worker.
type Parser struct {
	parser *sitter.Parser
}

// ParseResult contains the parsed tree and the source it was built from.
type ParseResult struct {
	Tree   *sitter.Tree
	Source []byte
	Path   string
}

// Root returns the root node of the tree.
func (r *ParseResult) Root() *sitter.Node {
	return r.Tree.RootNode()
}

// Close releases the tree. Nodes obtained from it must not be used afterwards.
func (r *ParseResult) Close() {
	if r != nil && r.Tree != nil {
		r.Tree.Close()
	}
}

// Location is a 1-based position in source text.
type Location struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// ParseError is returned when source text is not syntactically valid Python.
type ParseError struct {
	Path     string
	Message  string
	Location *Location
}

func (e *ParseError) Error() string {
	var b strings.Builder
	if e.Path != "" {
		b.WriteString(e.Path)
		if e.Location != nil {
			fmt.Fprintf(&b, ":%d:%d", e.Location.Line, e.Location.Column)
		}
		b.WriteString(": ")
	} else if e.Location != nil {
		fmt.Fprintf(&b, "line %d, column %d: ", e.Location.Line, e.Location.Column)
	}
	b.WriteString(e.Message)
	return b.String()
}

// New creates a new parser instance.
func New() *Parser {
	p := sitter.NewParser()
	p.SetLanguage(python.GetLanguage())
	return &Parser{parser: p}
}

// Parse parses Python source. Syntax errors are reported as *ParseError and
// no tree is returned.
func (p *Parser) Parse(source []byte, path string) (*ParseResult, error) {
	return p.ParseContext(context.Background(), source, path)
}

// ParseContext is Parse with cancellation support.
func (p *Parser) ParseContext(ctx context.Context, source []byte, path string) (*ParseResult, error) {
	tree, err := p.parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse: %w", err)
	}

	root := tree.RootNode()
	var perr *ParseError
	if root.HasError() {
		perr = syntaxError(root, source)
	} else {
		perr = legacyStatement(root, source)
	}
	if perr != nil {
		perr.Path = path
		tree.Close()
		return nil, perr
	}

	return &ParseResult{
		Tree:   tree,
		Source: source,
		Path:   path,
	}, nil
}

// Close releases parser resources.
func (p *Parser) Close() {
	p.parser.Close()
}

// syntaxError locates the first ERROR or missing node in document order.
func syntaxError(root *sitter.Node, source []byte) *ParseError {
	var bad *sitter.Node
	WalkTyped(root, source, func(n *sitter.Node, nodeType string, _ []byte) bool {
		if bad != nil {
			return false
		}
		if nodeType == "ERROR" || n.IsMissing() {
			bad = n
			return false
		}
		return true
	})

	if bad == nil {
		return &ParseError{Message: "invalid syntax"}
	}

	loc := &Location{
		Line:   int(bad.StartPoint().Row) + 1,
		Column: int(bad.StartPoint().Column) + 1,
	}
	if bad.IsMissing() {
		return &ParseError{Message: fmt.Sprintf("invalid syntax: missing %q", bad.Type()), Location: loc}
	}

	snippet := firstLine(GetNodeText(bad, source))
	if snippet == "" {
		return &ParseError{Message: "invalid syntax", Location: loc}
	}
	return &ParseError{Message: fmt.Sprintf("invalid syntax near %q", snippet), Location: loc}
}

// python2Statements maps statement kinds the grammar still accepts, but
// Python 3 rejects, to their keyword.
var python2Statements = map[string]string{
	"print_statement": "print",
	"exec_statement":  "exec",
}

// legacyStatement reports the first Python 2 print or exec statement.
func legacyStatement(root *sitter.Node, source []byte) *ParseError {
	var perr *ParseError
	WalkTyped(root, source, func(n *sitter.Node, nodeType string, _ []byte) bool {
		if perr != nil {
			return false
		}
		keyword, ok := python2Statements[nodeType]
		if !ok {
			return true
		}
		perr = &ParseError{
			Message: fmt.Sprintf("invalid syntax: missing parentheses in call to %q", keyword),
			Location: &Location{
				Line:   int(n.StartPoint().Row) + 1,
				Column: int(n.StartPoint().Column) + 1,
			},
		}
		return false
	})
	return perr
}

func firstLine(s string) string {
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSpace(s)
	if len(s) > 40 {
		s = s[:40]
	}
	return s
}

// IsPythonFile reports whether path names a Python source file.
func IsPythonFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".py", ".pyw", ".pyi":
		return true
	default:
		return false
	}
}

// TypedNodeVisitor visits AST nodes with pre-cached node type to avoid CGO overhead.
// Returning false skips the node's children.
type TypedNodeVisitor func(node *sitter.Node, nodeType string, source []byte) bool

// WalkTyped traverses the AST with cached node types to reduce CGO overhead.
func WalkTyped(node *sitter.Node, source []byte, visitor TypedNodeVisitor) {
	if node == nil {
		return
	}

	nodeType := node.Type()
	if !visitor(node, nodeType, source) {
		return
	}

	for i := range int(node.ChildCount()) {
		WalkTyped(node.Child(i), source, visitor)
	}
}

// GetNodeText extracts the source text for a node.
// Returns empty string if node is nil or byte offsets are out of bounds.
func GetNodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	start := node.StartByte()
	end := node.EndByte()
	if start > end || end > uint32(len(source)) {
		return ""
	}
	return string(source[start:end])
}

// Line returns the 1-based line a node starts on.
func Line(node *sitter.Node) int {
	return int(node.StartPoint().Row) + 1
}
