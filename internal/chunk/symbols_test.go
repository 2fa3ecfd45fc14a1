package chunk

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractUnsupportedLanguageYieldsEmptySequence(t *testing.T) {
	e := NewSymbolExtractor()
	defer e.Close()
	syms, err := e.Extract(context.Background(), "main.go", "go", []byte("package main\nfunc main() {}\n"))
	require.NoError(t, err)
	assert.Empty(t, syms)
}

func TestExtractTypeScriptFunctionDeclaration(t *testing.T) {
	e := NewSymbolExtractor()
	defer e.Close()
	src := []byte("function greet(name: string): string {\n  return name;\n}\n")
	syms, err := e.Extract(context.Background(), "greet.ts", "typescript", src)
	require.NoError(t, err)
	require.NotEmpty(t, syms)
	var found bool
	for _, s := range syms {
		if s.Name == "greet" {
			found = true
			assert.Equal(t, KindFunction, s.Kind)
			assert.Equal(t, 1, s.StartLine)
		}
	}
	assert.True(t, found)
}

func TestExtractTypeScriptClassAndInterface(t *testing.T) {
	e := NewSymbolExtractor()
	defer e.Close()
	src := []byte("interface User {\n  name: string;\n}\n\nclass Account {\n  balance: number = 0;\n}\n")
	syms, err := e.Extract(context.Background(), "a.ts", "typescript", src)
	require.NoError(t, err)

	var kinds = map[string]SymbolKind{}
	for _, s := range syms {
		kinds[s.Name] = s.Kind
	}
	assert.Equal(t, KindInterface, kinds["User"])
	assert.Equal(t, KindClass, kinds["Account"])
}

func TestExtractTypeScriptConstVsLet(t *testing.T) {
	e := NewSymbolExtractor()
	defer e.Close()
	src := []byte("const PI = 3.14;\nlet counter = 0;\n")
	syms, err := e.Extract(context.Background(), "a.ts", "typescript", src)
	require.NoError(t, err)

	kinds := map[string]SymbolKind{}
	for _, s := range syms {
		kinds[s.Name] = s.Kind
	}
	assert.Equal(t, KindConstant, kinds["PI"])
	assert.Equal(t, KindVariable, kinds["counter"])
}

func TestSymbolIDDeterministic(t *testing.T) {
	a := symbolID("a.ts", "greet", "function", 1)
	b := symbolID("a.ts", "greet", "function", 1)
	c := symbolID("a.ts", "greet", "function", 2)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}

func TestExtractPythonFunctionAndClass(t *testing.T) {
	src := []byte("def top():\n    return 1\n\nclass Foo:\n    def method(self):\n        pass\n\ndef bottom():\n    pass\n")
	syms := extractPythonSymbols("a.py", src)
	require.Len(t, syms, 4)

	byName := map[string]Symbol{}
	for _, s := range syms {
		byName[s.Name] = s
	}
	require.Contains(t, byName, "top")
	require.Contains(t, byName, "Foo")
	require.Contains(t, byName, "method")
	require.Contains(t, byName, "bottom")

	assert.Equal(t, KindFunction, byName["top"].Kind)
	assert.Equal(t, KindClass, byName["Foo"].Kind)
	assert.Equal(t, 1, byName["top"].StartLine)
	assert.Equal(t, 4, byName["top"].EndLine, "end line is the next top-level-or-shallower sibling ('class Foo:' at line 4)")
}

func TestExtractPythonEmptyFileYieldsEmptySequence(t *testing.T) {
	syms := extractPythonSymbols("empty.py", []byte(""))
	assert.Empty(t, syms)
}
