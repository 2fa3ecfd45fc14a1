package chunk

// Tree is a parsed AST, used by the tree-sitter-backed TypeScript/
// JavaScript symbol extraction path.
type Tree struct {
	Root     *Node
	Source   []byte
	Language string
}

// Node is a node in the AST.
type Node struct {
	Type       string
	StartByte  uint32
	EndByte    uint32
	StartPoint Point
	EndPoint   Point
	Children   []*Node
	HasError   bool
}

// Point is a position in the source.
type Point struct {
	Row    uint32
	Column uint32
}

// LanguageConfig configures the node types that identify a symbol
// kind in one tree-sitter grammar.
type LanguageConfig struct {
	Name       string
	Extensions []string

	FunctionTypes  []string
	ClassTypes     []string
	InterfaceTypes []string
	MethodTypes    []string
	TypeDefTypes   []string
	EnumTypes      []string
	ConstantTypes  []string
	VariableTypes  []string
	PropertyTypes  []string

	NameField string
}
