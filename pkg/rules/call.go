package rules

import (
	"fmt"
	"slices"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/panbanda/pyscan/pkg/models"
)

// DangerousCall flags direct calls to code-evaluating builtins. Attribute
// calls such as sandbox.eval(x) are not flagged.
type DangerousCall struct {
	Names []string
}

// NewDangerousCall creates the rule for the given builtin names.
func NewDangerousCall(names ...string) DangerousCall {
	return DangerousCall{Names: names}
}

func (DangerousCall) Name() string { return "dangerous-call" }

func (DangerousCall) Kinds() []string { return []string{"call"} }

func (r DangerousCall) Check(node *sitter.Node, fc *FileContext) *models.Issue {
	fn := node.ChildByFieldName("function")
	if fn == nil || fn.Type() != "identifier" {
		return nil
	}
	name := fc.Text(fn)
	if !slices.Contains(r.Names, name) {
		return nil
	}
	return fc.issue(node, models.CategorySecurity,
		fmt.Sprintf("call to high-risk function %s(); it can execute arbitrary code", name))
}
