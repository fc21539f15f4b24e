package rules

import (
	"fmt"
	"strings"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/panbanda/pyscan/pkg/models"
	"github.com/panbanda/pyscan/pkg/parser"
)

// SensitiveLiteral flags string literals that look like embedded credentials.
// Only the literal's own text is inspected, not the name it is bound to.
type SensitiveLiteral struct {
	Keywords  []string
	MinLength int
	MaxLength int
}

// NewSensitiveLiteral lower-cases the keyword list once.
func NewSensitiveLiteral(keywords []string, minLen, maxLen int) SensitiveLiteral {
	lowered := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			lowered = append(lowered, k)
		}
	}
	return SensitiveLiteral{Keywords: lowered, MinLength: minLen, MaxLength: maxLen}
}

func (SensitiveLiteral) Name() string { return "sensitive-literal" }

func (SensitiveLiteral) Kinds() []string { return []string{"string", "concatenated_string"} }

func (r SensitiveLiteral) Check(node *sitter.Node, fc *FileContext) *models.Issue {
	// Parts of an implicit concatenation are judged as one literal.
	if parent := node.Parent(); parent != nil && parent.Type() == "concatenated_string" {
		return nil
	}

	segments, ok := parser.StringSegments(node, fc.Source)
	if !ok {
		return nil
	}
	// Each constant part of an f-string is a literal of its own; the first
	// one that qualifies is reported.
	for _, value := range segments {
		if n := utf8.RuneCountInString(value); n <= r.MinLength || n >= r.MaxLength {
			continue
		}
		if keyword := r.match(strings.ToLower(value)); keyword != "" {
			return fc.issue(node, models.CategorySecurity,
				fmt.Sprintf("possible hardcoded secret: string literal contains '%s'", keyword))
		}
	}
	return nil
}

func (r SensitiveLiteral) match(lower string) string {
	for _, k := range r.Keywords {
		if strings.Contains(lower, k) {
			return k
		}
	}
	return ""
}
