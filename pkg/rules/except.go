package rules

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/panbanda/pyscan/pkg/models"
)

// EmptyExceptHandler flags exception handlers whose body is a lone pass.
type EmptyExceptHandler struct{}

func (EmptyExceptHandler) Name() string { return "empty-except-handler" }

func (EmptyExceptHandler) Kinds() []string {
	return []string{"except_clause", "except_group_clause"}
}

func (EmptyExceptHandler) Check(node *sitter.Node, fc *FileContext) *models.Issue {
	body := handlerBody(node)
	if len(body) != 1 || body[0].Type() != "pass_statement" {
		return nil
	}
	return fc.issue(node, models.CategoryCodeSmell,
		"empty except block only contains 'pass'; log or handle the exception instead")
}

// handlerBody returns the statements of an except clause, ignoring comments.
func handlerBody(node *sitter.Node) []*sitter.Node {
	var stmts []*sitter.Node
	colon := false
	for i := range int(node.ChildCount()) {
		child := node.Child(i)
		switch {
		case child.Type() == ":":
			colon = true
		case !colon || !child.IsNamed() || child.Type() == "comment":
		case child.Type() == "block":
			return statements(child)
		default:
			stmts = append(stmts, child)
		}
	}
	return stmts
}

func statements(block *sitter.Node) []*sitter.Node {
	var stmts []*sitter.Node
	for i := range int(block.NamedChildCount()) {
		if child := block.NamedChild(i); child.Type() != "comment" {
			stmts = append(stmts, child)
		}
	}
	return stmts
}
