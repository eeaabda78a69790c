package mutagens

import (
	"go/ast"
	"go/token"
)

var arithmeticOps = []token.Token{token.ADD, token.SUB, token.MUL, token.QUO, token.REM}

// GenerateArithmeticMutations replaces a binary arithmetic operator with
// every other one. String concatenation of literals is left alone.
func GenerateArithmeticMutations(n ast.Node, fset *token.FileSet, _ []byte) []Mutation {
	binExpr, ok := n.(*ast.BinaryExpr)
	if !ok || !isArithmeticOp(binExpr.Op) {
		return nil
	}

	if isStringLiteral(binExpr.X) || isStringLiteral(binExpr.Y) {
		return nil
	}

	return tokenMutations(OperatorAOR, fset, binExpr.OpPos, binExpr.Op, alternativesOf(binExpr.Op, arithmeticOps))
}

func isArithmeticOp(op token.Token) bool {
	return op == token.ADD || op == token.SUB || op == token.MUL || op == token.QUO || op == token.REM
}

func isStringLiteral(expr ast.Expr) bool {
	lit, ok := expr.(*ast.BasicLit)
	return ok && (lit.Kind == token.STRING || lit.Kind == token.CHAR)
}
