package mutagens

import (
	"go/ast"
	"go/token"
)

// GenerateLogicalMutations swaps && and ||.
func GenerateLogicalMutations(n ast.Node, fset *token.FileSet, _ []byte) []Mutation {
	binExpr, ok := n.(*ast.BinaryExpr)
	if !ok {
		return nil
	}

	switch binExpr.Op {
	case token.LAND:
		return tokenMutations(OperatorCOR, fset, binExpr.OpPos, token.LAND, []token.Token{token.LOR})
	case token.LOR:
		return tokenMutations(OperatorCOR, fset, binExpr.OpPos, token.LOR, []token.Token{token.LAND})
	default:
		return nil
	}
}
