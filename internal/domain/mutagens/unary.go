package mutagens

import (
	"go/ast"
	"go/token"
)

// GenerateUnaryMutations deletes a unary minus, plus or logical not.
func GenerateUnaryMutations(n ast.Node, fset *token.FileSet, _ []byte) []Mutation {
	unary, ok := n.(*ast.UnaryExpr)
	if !ok {
		return nil
	}

	if unary.Op != token.SUB && unary.Op != token.ADD && unary.Op != token.NOT {
		return nil
	}

	start, ok := offsetForPos(fset, unary.OpPos)
	if !ok {
		return nil
	}

	return []Mutation{{
		Operator:    OperatorUOI,
		Original:    unary.Op.String(),
		Replacement: "",
		Line:        fset.Position(unary.OpPos).Line,
		Start:       start,
		End:         start + len(unary.Op.String()),
	}}
}
