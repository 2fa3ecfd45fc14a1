package chunk

import (
	"context"
	"regexp"
	"strings"

	"github.com/aman-cerp/pingmem/internal/hashing"
)

var tsjsLanguages = map[string]bool{
	"typescript": true, "tsx": true, "javascript": true, "jsx": true,
}

// SymbolExtractor produces best-effort symbols with deterministic IDs
// (Invariant S1). Unsupported languages yield an empty sequence, never
// an error.
type SymbolExtractor struct {
	parser   *Parser
	registry *LanguageRegistry
}

// NewSymbolExtractor returns a SymbolExtractor using the default
// TypeScript/JavaScript language registry.
func NewSymbolExtractor() *SymbolExtractor {
	registry := DefaultRegistry()
	return &SymbolExtractor{
		parser:   NewParserWithRegistry(registry),
		registry: registry,
	}
}

// Close releases the underlying tree-sitter parser.
func (e *SymbolExtractor) Close() {
	if e.parser != nil {
		e.parser.Close()
	}
}

// Extract returns the symbols found in content for relPath/language.
func (e *SymbolExtractor) Extract(ctx context.Context, relPath, language string, content []byte) ([]Symbol, error) {
	switch {
	case tsjsLanguages[language]:
		return e.extractTSJS(ctx, relPath, language, content)
	case language == "python":
		return extractPythonSymbols(relPath, content), nil
	default:
		return nil, nil
	}
}

func (e *SymbolExtractor) extractTSJS(ctx context.Context, relPath, language string, content []byte) ([]Symbol, error) {
	tree, err := e.parser.Parse(ctx, content, language)
	if err != nil || tree == nil || tree.Root == nil {
		return nil, nil
	}
	config, ok := e.registry.GetByName(language)
	if !ok {
		return nil, nil
	}

	kindByType := make(map[string]SymbolKind)
	for _, t := range config.FunctionTypes {
		kindByType[t] = KindFunction
	}
	for _, t := range config.MethodTypes {
		kindByType[t] = KindMethod
	}
	for _, t := range config.ClassTypes {
		kindByType[t] = KindClass
	}
	for _, t := range config.InterfaceTypes {
		kindByType[t] = KindInterface
	}
	for _, t := range config.TypeDefTypes {
		kindByType[t] = KindTypeAlias
	}
	for _, t := range config.EnumTypes {
		kindByType[t] = KindEnum
	}
	for _, t := range config.PropertyTypes {
		kindByType[t] = KindProperty
	}
	// ConstantTypes/VariableTypes are resolved per-node below since a
	// lexical_declaration may be const or let.

	var symbols []Symbol
	tree.Root.Walk(func(n *Node) bool {
		if n.Type == "lexical_declaration" || n.Type == "variable_declaration" {
			if sym := symbolFromVariableStatement(n, tree.Source, relPath); sym != nil {
				symbols = append(symbols, *sym)
			}
			return true
		}
		kind, ok := kindByType[n.Type]
		if !ok {
			return true
		}
		name := nameOf(n, tree.Source)
		if name == "" {
			return true
		}
		symbols = append(symbols, buildSymbol(relPath, name, kind, n, tree.Source))
		return true
	})

	return symbols, nil
}

func buildSymbol(relPath, name string, kind SymbolKind, n *Node, source []byte) Symbol {
	startLine := int(n.StartPoint.Row) + 1
	endLine := int(n.EndPoint.Row) + 1
	return Symbol{
		SymbolID:  symbolID(relPath, name, string(kind), startLine),
		Name:      name,
		Kind:      kind,
		FilePath:  relPath,
		StartLine: startLine,
		EndLine:   endLine,
		Signature: firstLine(n.GetContent(source)),
	}
}

// symbolFromVariableStatement classifies a lexical/variable
// declaration as constant (immutable binding) or variable.
func symbolFromVariableStatement(n *Node, source []byte, relPath string) *Symbol {
	declarator := n.FindChildByType("variable_declarator")
	if declarator == nil {
		return nil
	}
	name := ""
	for _, child := range declarator.Children {
		if child.Type == "identifier" {
			name = child.GetContent(source)
			break
		}
	}
	if name == "" {
		return nil
	}

	kind := KindVariable
	if n.Type == "lexical_declaration" {
		text := n.GetContent(source)
		if strings.HasPrefix(strings.TrimSpace(text), "const") {
			kind = KindConstant
		}
	}

	sym := buildSymbol(relPath, name, kind, n, source)
	return &sym
}

func nameOf(n *Node, source []byte) string {
	for _, child := range n.Children {
		if child.Type == "identifier" || child.Type == "type_identifier" || child.Type == "property_identifier" {
			return child.GetContent(source)
		}
	}
	return ""
}

func firstLine(content string) string {
	if idx := strings.IndexByte(content, '\n'); idx >= 0 {
		content = content[:idx]
	}
	return strings.TrimSpace(content)
}

func symbolID(relPath, name, kind string, startLine int) string {
	return hashing.SHA256String(hashing.JoinKey(relPath, name, kind, hashing.Itoa(startLine)))
}

var (
	pyDefRe   = regexp.MustCompile(`^(\s*)def\s+([A-Za-z_][A-Za-z0-9_]*)\s*\(`)
	pyClassRe = regexp.MustCompile(`^(\s*)class\s+([A-Za-z_][A-Za-z0-9_]*)\s*[:(]`)
)

// extractPythonSymbols identifies `def NAME(` and `class NAME[:(]` by
// regex; a symbol's end line is the next top-level-or-shallower
// sibling at equal-or-lower indentation.
func extractPythonSymbols(relPath string, content []byte) []Symbol {
	lines := strings.Split(string(content), "\n")

	type match struct {
		line   int
		indent int
		name   string
		kind   SymbolKind
	}
	var matches []match

	for i, line := range lines {
		if m := pyDefRe.FindStringSubmatch(line); m != nil {
			matches = append(matches, match{line: i, indent: len(m[1]), name: m[2], kind: KindFunction})
			continue
		}
		if m := pyClassRe.FindStringSubmatch(line); m != nil {
			matches = append(matches, match{line: i, indent: len(m[1]), name: m[2], kind: KindClass})
		}
	}

	symbols := make([]Symbol, 0, len(matches))
	for _, m := range matches {
		endLine := len(lines)
		for j := m.line + 1; j < len(lines); j++ {
			trimmed := strings.TrimRight(lines[j], " \t\r")
			if trimmed == "" {
				continue
			}
			indent := len(lines[j]) - len(strings.TrimLeft(lines[j], " \t"))
			if indent <= m.indent {
				endLine = j + 1 // 1-based line number of the sibling itself
				break
			}
		}
		startLine := m.line + 1
		symbols = append(symbols, Symbol{
			SymbolID:  symbolID(relPath, m.name, string(m.kind), startLine),
			Name:      m.name,
			Kind:      m.kind,
			FilePath:  relPath,
			StartLine: startLine,
			EndLine:   endLine,
			Signature: strings.TrimSpace(lines[m.line]),
		})
	}
	return symbols
}
