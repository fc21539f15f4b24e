package metrics

import (
	"sort"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/panbanda/pyscan/pkg/models"
	"github.com/panbanda/pyscan/pkg/parser"
	"github.com/panbanda/pyscan/pkg/walker"
)

// decisionTypes are the node kinds that add one to a function's complexity.
var decisionTypes = makeSet([]string{
	"if_statement",
	"elif_clause",
	"for_statement",
	"while_statement",
	"try_statement",
	"with_statement",
})

var importTypes = []string{
	"import_statement",
	"import_from_statement",
	"future_import_statement",
}

// Accumulator gathers structural metrics for one file during traversal.
type Accumulator struct {
	source    []byte
	classes   int
	functions []models.FunctionMetric
	imports   map[string]struct{}
}

// NewAccumulator creates an accumulator for one file's source.
func NewAccumulator(source []byte) *Accumulator {
	return &Accumulator{
		source:  source,
		imports: make(map[string]struct{}),
	}
}

// Context is implemented by traversal contexts that carry an Accumulator.
type Context interface {
	Metrics() *Accumulator
}

// Register binds the structural metric handlers to w.
func Register[C Context](w *walker.Walker[C]) {
	w.Register("class_definition", func(_ *sitter.Node, ctx C) {
		ctx.Metrics().classes++
	})
	w.Register("function_definition", func(n *sitter.Node, ctx C) {
		ctx.Metrics().addFunction(n)
	})
	for _, kind := range importTypes {
		w.Register(kind, func(n *sitter.Node, ctx C) {
			ctx.Metrics().addImports(n)
		})
	}
}

func (a *Accumulator) addFunction(fn *sitter.Node) {
	a.functions = append(a.functions, models.FunctionMetric{
		Name:       parser.FunctionName(fn, a.source),
		Line:       parser.Line(fn),
		Complexity: 1 + CountDecisionPoints(fn, a.source),
		ArgsCount:  len(parser.PositionalParams(fn, a.source)),
	})
}

func (a *Accumulator) addImports(n *sitter.Node) {
	for _, mod := range parser.ImportedModules(n, a.source) {
		if mod != "" {
			a.imports[mod] = struct{}{}
		}
	}
}

// FileMetrics assembles the final metrics record for the file.
func (a *Accumulator) FileMetrics(path string, lines LineStats) models.FileMetrics {
	imports := make([]string, 0, len(a.imports))
	for mod := range a.imports {
		imports = append(imports, mod)
	}
	sort.Strings(imports)

	functions := a.functions
	if functions == nil {
		functions = make([]models.FunctionMetric, 0)
	}

	return models.FileMetrics{
		File:            path,
		LOC:             lines.LOC,
		Blank:           lines.Blank,
		Comment:         lines.Comment,
		CodeOnly:        lines.CodeOnly,
		Classes:         a.classes,
		Functions:       len(a.functions),
		Imports:         imports,
		FunctionMetrics: functions,
	}
}

// CountDecisionPoints counts branching, looping, exception-handling and
// context-manager statements anywhere under node, nested functions included.
func CountDecisionPoints(node *sitter.Node, source []byte) int {
	count := 0
	parser.WalkTyped(node, source, func(_ *sitter.Node, nodeType string, _ []byte) bool {
		if decisionTypes[nodeType] {
			count++
		}
		return true
	})
	return count
}

// Collect computes the complete metrics for an already parsed file.
func Collect(result *parser.ParseResult) models.FileMetrics {
	w := walker.New[*Accumulator]()
	Register(w)
	acc := NewAccumulator(result.Source)
	w.Walk(result.Root(), acc)
	return acc.FileMetrics(result.Path, CountLines(result.Source))
}

// Metrics lets an Accumulator serve as its own traversal context.
func (a *Accumulator) Metrics() *Accumulator { return a }

// makeSet converts a slice to a map for O(1) lookups.
func makeSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}
