package mutagens

import (
	"go/ast"
	"go/token"
)

// GenerateBranchMutations forces the condition of an if statement to true
// and to false. Conditions that already are a boolean literal are covered
// by the literal mutations.
func GenerateBranchMutations(n ast.Node, fset *token.FileSet, content []byte) []Mutation {
	stmt, ok := n.(*ast.IfStmt)
	if !ok || stmt.Cond == nil {
		return nil
	}

	if ident, ok := stmt.Cond.(*ast.Ident); ok && isBooleanLiteral(ident.Name) {
		return nil
	}

	start, ok := offsetForPos(fset, stmt.Cond.Pos())
	if !ok {
		return nil
	}

	end, ok := offsetForPos(fset, stmt.Cond.End())
	if !ok || end > len(content) {
		return nil
	}

	original := string(content[start:end])
	line := fset.Position(stmt.Cond.Pos()).Line

	mutations := make([]Mutation, 0, 2)
	for _, forced := range []string{trueStr, falseStr} {
		mutations = append(mutations, Mutation{
			Operator:    OperatorCOR,
			Original:    original,
			Replacement: forced,
			Line:        line,
			Start:       start,
			End:         end,
		})
	}

	return mutations
}
