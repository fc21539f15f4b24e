// Package rules implements the fixed set of Python checks run during the
// single tree traversal of each file.
package rules

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/panbanda/pyscan/pkg/models"
	"github.com/panbanda/pyscan/pkg/parser"
	"github.com/panbanda/pyscan/pkg/walker"
)

// Rule examines a single node and returns at most one issue.
// Rules never descend into children; the walker visits them separately.
type Rule interface {
	// Name returns a stable identifier for the rule.
	Name() string
	// Kinds returns the tree-sitter node kinds the rule is dispatched on.
	Kinds() []string
	// Check returns an issue for node, or nil.
	Check(node *sitter.Node, fc *FileContext) *models.Issue
}

// FileContext carries one file's identity and the issues found in it so far.
type FileContext struct {
	Path   string
	Source []byte

	issues []models.Issue
}

// NewFileContext creates the rule context for one file.
func NewFileContext(path string, source []byte) *FileContext {
	return &FileContext{Path: path, Source: source}
}

// Report records an issue.
func (fc *FileContext) Report(issue models.Issue) {
	fc.issues = append(fc.issues, issue)
}

// Issues returns the recorded issues in the order they were reported.
func (fc *FileContext) Issues() []models.Issue {
	return fc.issues
}

// Rules lets a FileContext serve as its own traversal context.
func (fc *FileContext) Rules() *FileContext { return fc }

// Text returns the source text of node.
func (fc *FileContext) Text(node *sitter.Node) string {
	return parser.GetNodeText(node, fc.Source)
}

func (fc *FileContext) issue(node *sitter.Node, cat models.Category, desc string) *models.Issue {
	return &models.Issue{
		File:        fc.Path,
		Line:        parser.Line(node),
		Category:    cat,
		Description: desc,
	}
}

// Thresholds holds the tunable limits of the rule set.
type Thresholds struct {
	MaxParameters     int
	LiteralMinLength  int // exclusive
	LiteralMaxLength  int // exclusive
	SensitiveKeywords []string
	DangerousCalls    []string
}

// DefaultThresholds returns the stock limits.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MaxParameters:     6,
		LiteralMinLength:  10,
		LiteralMaxLength:  100,
		SensitiveKeywords: []string{"token", "password", "secret", "apikey", "auth_key", "access_id"},
		DangerousCalls:    []string{"eval", "exec"},
	}
}

// Engine owns the rule set.
type Engine struct {
	thresholds Thresholds
	rules      []Rule
}

// Option configures an Engine.
type Option func(*Engine)

// WithThresholds replaces all limits at once.
func WithThresholds(t Thresholds) Option {
	return func(e *Engine) {
		e.thresholds = t
	}
}

// WithMaxParameters sets the parameter count above which a function is flagged.
func WithMaxParameters(n int) Option {
	return func(e *Engine) {
		e.thresholds.MaxParameters = n
	}
}

// New creates an engine with the fixed rule set.
func New(opts ...Option) *Engine {
	e := &Engine{thresholds: DefaultThresholds()}
	for _, opt := range opts {
		opt(e)
	}
	t := e.thresholds
	e.rules = []Rule{
		EmptyExceptHandler{},
		ExcessiveParameters{Max: t.MaxParameters},
		NewSensitiveLiteral(t.SensitiveKeywords, t.LiteralMinLength, t.LiteralMaxLength),
		NewDangerousCall(t.DangerousCalls...),
	}
	return e
}

// Rules returns the rules in evaluation order.
func (e *Engine) Rules() []Rule {
	return e.rules
}

// Thresholds returns the limits the engine was built with.
func (e *Engine) Thresholds() Thresholds {
	return e.thresholds
}

// Context is implemented by traversal contexts that carry a FileContext.
type Context interface {
	Rules() *FileContext
}

// Register binds every rule of e to the node kinds it handles. Issues are
// appended to the traversal context's FileContext.
func Register[C Context](w *walker.Walker[C], e *Engine) {
	for _, r := range e.rules {
		rule := r
		for _, kind := range rule.Kinds() {
			w.Register(kind, func(node *sitter.Node, ctx C) {
				fc := ctx.Rules()
				if issue := rule.Check(node, fc); issue != nil {
					fc.Report(*issue)
				}
			})
		}
	}
}

// Check runs the rule set over an already parsed tree and returns the issues
// in document order.
func (e *Engine) Check(root *sitter.Node, path string, source []byte) []models.Issue {
	w := walker.New[*FileContext]()
	Register(w, e)
	fc := NewFileContext(path, source)
	w.Walk(root, fc)
	return fc.Issues()
}
