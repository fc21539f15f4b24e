package rules

import (
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/panbanda/pyscan/pkg/models"
	"github.com/panbanda/pyscan/pkg/parser"
)

// ExcessiveParameters flags functions declaring more than Max positional
// parameters. Receivers named self or cls are not counted.
type ExcessiveParameters struct {
	Max int
}

func (ExcessiveParameters) Name() string { return "excessive-parameters" }

func (ExcessiveParameters) Kinds() []string { return []string{"function_definition"} }

func (r ExcessiveParameters) Check(node *sitter.Node, fc *FileContext) *models.Issue {
	n := 0
	for _, name := range parser.PositionalParams(node, fc.Source) {
		if !isReceiver(name) {
			n++
		}
	}
	if n <= r.Max {
		return nil
	}
	return fc.issue(node, models.CategoryMaintainability, fmt.Sprintf(
		"function '%s' has too many parameters (%d > %d); consider grouping them into an object",
		parser.FunctionName(node, fc.Source), n, r.Max))
}

func isReceiver(name string) bool {
	return name == "self" || name == "cls"
}
