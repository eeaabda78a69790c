package mutagens

import (
	"go/ast"
	"go/token"
)

const (
	trueStr  = "true"
	falseStr = "false"
)

// GenerateBooleanMutations flips a boolean literal.
func GenerateBooleanMutations(n ast.Node, fset *token.FileSet, _ []byte) []Mutation {
	ident, ok := n.(*ast.Ident)
	if !ok || !isBooleanLiteral(ident.Name) {
		return nil
	}

	start, ok := offsetForPos(fset, ident.Pos())
	if !ok {
		return nil
	}

	return []Mutation{{
		Operator:    OperatorLVR,
		Original:    ident.Name,
		Replacement: flipBoolean(ident.Name),
		Line:        fset.Position(ident.Pos()).Line,
		Start:       start,
		End:         start + len(ident.Name),
	}}
}

func isBooleanLiteral(name string) bool {
	return name == trueStr || name == falseStr
}

func flipBoolean(original string) string {
	if original == trueStr {
		return falseStr
	}

	return trueStr
}
