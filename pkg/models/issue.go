package models

// Category classifies an issue. The set is closed.
type Category string

const (
	CategoryMaintainability Category = "Maintainability"
	CategorySecurity        Category = "Security"
	CategoryCodeSmell       Category = "Code_Smell"
)

// Categories returns every category in report order.
func Categories() []Category {
	return []Category{CategoryMaintainability, CategorySecurity, CategoryCodeSmell}
}

// String implements fmt.Stringer (required for toon serialization).
func (c Category) String() string { return string(c) }

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryMaintainability, CategorySecurity, CategoryCodeSmell:
		return true
	default:
		return false
	}
}

// ParseCategory converts a user-supplied name to a Category.
// Matching ignores case and accepts "CodeSmell" / "code-smell" spellings.
func ParseCategory(s string) (Category, bool) {
	switch normalizeCategory(s) {
	case "maintainability":
		return CategoryMaintainability, true
	case "security":
		return CategorySecurity, true
	case "codesmell":
		return CategoryCodeSmell, true
	default:
		return "", false
	}
}

func normalizeCategory(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_' || c == '-' || c == ' ':
			continue
		case c >= 'A' && c <= 'Z':
			out = append(out, c+('a'-'A'))
		default:
			out = append(out, c)
		}
	}
	return string(out)
}

// Issue is one finding produced by a rule.
// File is the lookup key of the analyzed source unit; Line is 1-based.
type Issue struct {
	File        string   `json:"file" yaml:"file" toon:"file"`
	Line        int      `json:"line" yaml:"line" toon:"line"`
	Category    Category `json:"type" yaml:"type" toon:"type"`
	Description string   `json:"desc" yaml:"desc" toon:"desc"`
}

// Summary counts issues per category.
type Summary struct {
	Maintainability int `json:"Maintainability" yaml:"Maintainability" toon:"Maintainability"`
	Security        int `json:"Security" yaml:"Security" toon:"Security"`
	CodeSmell       int `json:"Code_Smell" yaml:"Code_Smell" toon:"Code_Smell"`
}

// Add increments the counter for c. Unknown categories are ignored.
func (s *Summary) Add(c Category) {
	switch c {
	case CategoryMaintainability:
		s.Maintainability++
	case CategorySecurity:
		s.Security++
	case CategoryCodeSmell:
		s.CodeSmell++
	}
}

// Count returns the counter for c.
func (s Summary) Count(c Category) int {
	switch c {
	case CategoryMaintainability:
		return s.Maintainability
	case CategorySecurity:
		return s.Security
	case CategoryCodeSmell:
		return s.CodeSmell
	default:
		return 0
	}
}

// Total returns the sum over all categories.
func (s Summary) Total() int {
	return s.Maintainability + s.Security + s.CodeSmell
}

// ByCategory returns the counters as a map keyed by category.
func (s Summary) ByCategory() map[Category]int {
	m := make(map[Category]int, 3)
	for _, c := range Categories() {
		m[c] = s.Count(c)
	}
	return m
}
