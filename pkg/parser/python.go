package parser

import (
	"strconv"
	"strings"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
)

// FunctionName returns the declared name of a function_definition node.
func FunctionName(fn *sitter.Node, source []byte) string {
	if name := fn.ChildByFieldName("name"); name != nil {
		return GetNodeText(name, source)
	}
	return "<anonymous>"
}

// PositionalParams returns the names of a function's positional-or-keyword
// parameters in declaration order. Positional-only parameters (those before a
// "/" separator) are excluded, and collection stops at the first "*", *args
// or **kwargs, so keyword-only and variadic parameters are never included.
func PositionalParams(fn *sitter.Node, source []byte) []string {
	params := fn.ChildByFieldName("parameters")
	if params == nil {
		return nil
	}

	var names []string
	for i := range int(params.ChildCount()) {
		child := params.Child(i)
		switch child.Type() {
		case "positional_separator", "/":
			names = names[:0]
		case "keyword_separator", "*", "list_splat_pattern", "dictionary_splat_pattern":
			return names
		case "identifier":
			names = append(names, GetNodeText(child, source))
		case "typed_parameter":
			inner := child.NamedChild(0)
			if inner == nil {
				continue
			}
			if t := inner.Type(); t == "list_splat_pattern" || t == "dictionary_splat_pattern" {
				return names
			}
			names = append(names, GetNodeText(inner, source))
		case "default_parameter", "typed_default_parameter":
			if name := child.ChildByFieldName("name"); name != nil {
				names = append(names, GetNodeText(name, source))
			}
		}
	}
	return names
}

// ImportedModules returns the module names referenced by an import node.
// "from . import x" names no module and yields nothing; relative imports of a
// named package yield the package without its leading dots.
func ImportedModules(node *sitter.Node, source []byte) []string {
	switch node.Type() {
	case "import_statement":
		var mods []string
		for i := range int(node.NamedChildCount()) {
			child := node.NamedChild(i)
			switch child.Type() {
			case "dotted_name":
				mods = append(mods, dottedName(child, source))
			case "aliased_import":
				if name := child.ChildByFieldName("name"); name != nil {
					mods = append(mods, dottedName(name, source))
				}
			}
		}
		return mods

	case "import_from_statement":
		mod := node.ChildByFieldName("module_name")
		if mod == nil {
			return nil
		}
		if mod.Type() == "relative_import" {
			for i := range int(mod.NamedChildCount()) {
				if child := mod.NamedChild(i); child.Type() == "dotted_name" {
					return []string{dottedName(child, source)}
				}
			}
			return nil
		}
		return []string{dottedName(mod, source)}

	case "future_import_statement":
		return []string{"__future__"}
	}
	return nil
}

func dottedName(node *sitter.Node, source []byte) string {
	return strings.Join(strings.Fields(GetNodeText(node, source)), "")
}

// StringSegments returns the constant text of a string or
// concatenated_string node, one segment per run of text between f-string
// interpolations. Adjacent parts of an implicit concatenation are joined, so a
// plain literal always yields a single segment. Escape sequences are decoded
// unless the literal is raw. The boolean is false for bytes literals and for
// nodes that are not strings.
func StringSegments(node *sitter.Node, source []byte) ([]string, bool) {
	var parts []*sitter.Node
	switch node.Type() {
	case "string":
		parts = []*sitter.Node{node}
	case "concatenated_string":
		for i := range int(node.NamedChildCount()) {
			if part := node.NamedChild(i); part.Type() == "string" {
				parts = append(parts, part)
			}
		}
	default:
		return nil, false
	}

	var segments []string
	var cur strings.Builder
	for _, part := range parts {
		texts, ok := literalTexts(part, source)
		if !ok {
			return nil, false
		}
		for i, text := range texts {
			if i > 0 {
				segments = append(segments, cur.String())
				cur.Reset()
			}
			cur.WriteString(text)
		}
	}
	return append(segments, cur.String()), true
}

// literalTexts splits one string node at its interpolations.
func literalTexts(str *sitter.Node, source []byte) ([]string, bool) {
	var start, end *sitter.Node
	var holes []*sitter.Node
	for i := range int(str.ChildCount()) {
		child := str.Child(i)
		switch child.Type() {
		case "string_start":
			start = child
		case "string_end":
			end = child
		case "interpolation":
			holes = append(holes, child)
		}
	}
	if start == nil || end == nil || start.EndByte() > end.StartByte() {
		return nil, false
	}

	opener := GetNodeText(start, source)
	quote := strings.IndexAny(opener, `'"`)
	if quote < 0 {
		return nil, false
	}
	prefix := strings.ToLower(opener[:quote])
	if strings.Contains(prefix, "b") {
		return nil, false
	}
	raw := strings.Contains(prefix, "r")
	formatted := strings.ContainsAny(prefix, "ft")

	texts := make([]string, 0, len(holes)+1)
	from := start.EndByte()
	for _, h := range holes {
		texts = append(texts, literalValue(source[from:h.StartByte()], raw, formatted))
		from = h.EndByte()
	}
	return append(texts, literalValue(source[from:end.StartByte()], raw, formatted)), true
}

var braceUnescaper = strings.NewReplacer("{{", "{", "}}", "}")

func literalValue(body []byte, raw, formatted bool) string {
	s := strings.ReplaceAll(string(body), "\r\n", "\n")
	if formatted {
		s = braceUnescaper.Replace(s)
	}
	if raw {
		return s
	}
	return Unescape(s)
}

var simpleEscapes = map[byte]byte{
	'\\': '\\',
	'\'': '\'',
	'"':  '"',
	'a':  '\a',
	'b':  '\b',
	'f':  '\f',
	'n':  '\n',
	'r':  '\r',
	't':  '\t',
	'v':  '\v',
}

// Unescape decodes the backslash escapes of a Python str literal body.
// A backslash before a newline joins the lines. Unknown or malformed escapes
// are kept as written, and a named escape (\N{...}) becomes one U+FFFD.
func Unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		if s[i] != '\\' || i+1 == len(s) {
			b.WriteByte(s[i])
			i++
			continue
		}

		next := s[i+1]
		if c, ok := simpleEscapes[next]; ok {
			b.WriteByte(c)
			i += 2
			continue
		}

		switch {
		case next == '\n':
			i += 2
		case next >= '0' && next <= '7':
			j := i + 1
			for j < len(s) && j < i+4 && s[j] >= '0' && s[j] <= '7' {
				j++
			}
			v, _ := strconv.ParseUint(s[i+1:j], 8, 32)
			b.WriteRune(rune(v))
			i = j
		case next == 'x' || next == 'u' || next == 'U':
			end := i + 2 + hexWidth(next)
			if end > len(s) {
				b.WriteString(s[i : i+2])
				i += 2
				continue
			}
			v, err := strconv.ParseUint(s[i+2:end], 16, 32)
			if err != nil {
				b.WriteString(s[i : i+2])
				i += 2
				continue
			}
			b.WriteRune(rune(v))
			i = end
		case next == 'N' && i+2 < len(s) && s[i+2] == '{':
			closing := strings.IndexByte(s[i+3:], '}')
			if closing < 0 {
				b.WriteString(s[i : i+2])
				i += 2
				continue
			}
			b.WriteRune(utf8.RuneError)
			i += 3 + closing + 1
		default:
			b.WriteString(s[i : i+2])
			i += 2
		}
	}
	return b.String()
}

func hexWidth(c byte) int {
	switch c {
	case 'x':
		return 2
	case 'u':
		return 4
	}
	return 8
}
