package odata

import (
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"
)

var comparisonOperators = map[string]string{
	"ne": "$ne",
	"lt": "$lt",
	"le": "$lte",
	"gt": "$gt",
	"ge": "$gte",
}

// memberPath turns an OData member path into a dotted document path.
func memberPath(name string) string {
	return strings.ReplaceAll(name, "/", ".")
}

// Transform converts a parsed expression into a filter fragment. Nodes that
// have no filter meaning, such as comparisons whose right side is not a
// literal, produce an empty fragment.
func Transform(n *Node) bson.M {
	result := bson.M{}
	if n == nil {
		return result
	}

	switch n.Kind {
	case KindComparison:
		switch {
		case n.Left.isProperty() && n.Right.isLiteral():
			path := memberPath(n.Left.Name)
			if n.Op == "eq" {
				result[path] = n.Right.Value
			} else {
				result[path] = bson.M{comparisonOperators[n.Op]: n.Right.Value}
			}
		case n.Left != nil && n.Left.Kind == KindFunctionCall && n.Right.isLiteral():
			want, ok := n.Right.Value.(bool)
			if !ok || (n.Op != "eq" && n.Op != "ne") {
				break
			}
			if n.Op == "ne" {
				want = !want
			}
			fragment := callFunction(n.Left)
			if len(fragment) == 0 {
				break
			}
			if want {
				return fragment
			}
			result["$nor"] = bson.A{fragment}
		}

	case KindLogical:
		key := "$" + n.Op
		result[key] = bson.A{Transform(n.Left), Transform(n.Right)}

	case KindNot:
		result["$nor"] = bson.A{Transform(n.Left)}

	case KindFunctionCall:
		if fragment := callFunction(n); fragment != nil {
			return fragment
		}
	}

	return result
}

func callFunction(n *Node) bson.M {
	return Lookup(n.Name)(n.Name, n.Args)
}
