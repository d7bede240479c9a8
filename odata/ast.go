package odata

// NodeKind tags the variant held by a Node.
type NodeKind int

const (
	KindComparison NodeKind = iota
	KindLogical
	KindNot
	KindFunctionCall
	KindProperty
	KindLiteral
)

func (k NodeKind) String() string {
	switch k {
	case KindComparison:
		return "comparison"
	case KindLogical:
		return "logical"
	case KindNot:
		return "not"
	case KindFunctionCall:
		return "functioncall"
	case KindProperty:
		return "property"
	case KindLiteral:
		return "literal"
	default:
		return "unknown"
	}
}

// Node is one element of a parsed $filter expression.
//
//nolint:govet // fieldalignment: readability preferred
type Node struct {
	Kind  NodeKind
	Op    string  // eq, ne, lt, le, gt, ge for comparisons; and, or for logical nodes
	Left  *Node   // left operand; the operand of a not node
	Right *Node   // right operand
	Name  string  // member path with '/' separators, or function name
	Args  []*Node // function arguments
	Value any     // literal value
	Pos   int     // 1-based byte offset in the filter text
}

func (n *Node) isProperty() bool {
	return n != nil && n.Kind == KindProperty
}

func (n *Node) isLiteral() bool {
	return n != nil && n.Kind == KindLiteral
}
