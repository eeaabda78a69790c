package mutagens

import (
	"go/ast"
	"go/token"
)

var comparisonOps = []token.Token{token.LSS, token.GTR, token.LEQ, token.GEQ, token.EQL, token.NEQ}

// GenerateComparisonMutations replaces a relational operator with every
// other one.
func GenerateComparisonMutations(n ast.Node, fset *token.FileSet, _ []byte) []Mutation {
	binExpr, ok := n.(*ast.BinaryExpr)
	if !ok || !isComparisonOp(binExpr.Op) {
		return nil
	}

	return tokenMutations(OperatorROR, fset, binExpr.OpPos, binExpr.Op, alternativesOf(binExpr.Op, comparisonOps))
}

func isComparisonOp(op token.Token) bool {
	return op == token.LSS || op == token.GTR || op == token.LEQ ||
		op == token.GEQ || op == token.EQL || op == token.NEQ
}
