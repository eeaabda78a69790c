// Package mutagens generates first-order mutants of Go sources.
package mutagens

import (
	"go/ast"
	"go/token"
	"sort"
)

// Operator names a mutation operator in the mutants log.
type Operator string

// Operators written to the mutants log.
const (
	OperatorAOR Operator = "AOR" // arithmetic operator replacement
	OperatorROR Operator = "ROR" // relational operator replacement
	OperatorCOR Operator = "COR" // conditional operator replacement
	OperatorLVR Operator = "LVR" // literal value replacement
	OperatorUOI Operator = "UOI" // unary operator deletion
)

// Mutation is a single syntactic change of a source file. Start and End are
// the byte offsets of Original in the file.
type Mutation struct {
	Operator    Operator
	Original    string
	Replacement string
	Function    string
	Line        int
	Start       int
	End         int
}

// Apply returns a copy of content with the mutation applied.
func (mu Mutation) Apply(content []byte) []byte {
	return replaceRange(content, mu.Start, mu.End, mu.Replacement)
}

// Generator produces the mutations rooted at a single node.
type Generator func(n ast.Node, fset *token.FileSet, content []byte) []Mutation

// Generators are applied to every node in this order.
var Generators = []Generator{
	GenerateArithmeticMutations,
	GenerateComparisonMutations,
	GenerateLogicalMutations,
	GenerateBooleanMutations,
	GenerateUnaryMutations,
	GenerateBranchMutations,
}

// Generate returns every mutation of file ordered by position. Mutations
// inside a function carry its name, methods as Recv.Name.
func Generate(file *ast.File, fset *token.FileSet, content []byte) []Mutation {
	var mutations []Mutation

	for _, decl := range file.Decls {
		function := ""
		if fd, ok := decl.(*ast.FuncDecl); ok {
			function = funcName(fd)
		}

		ast.Inspect(decl, func(n ast.Node) bool {
			if n == nil {
				return true
			}

			for _, gen := range Generators {
				for _, mu := range gen(n, fset, content) {
					mu.Function = function
					mutations = append(mutations, mu)
				}
			}

			return true
		})
	}

	sort.SliceStable(mutations, func(i, j int) bool {
		return mutations[i].Start < mutations[j].Start
	})

	return mutations
}

func funcName(fd *ast.FuncDecl) string {
	if fd.Recv == nil || len(fd.Recv.List) == 0 {
		return fd.Name.Name
	}

	recv := fd.Recv.List[0].Type
	if star, ok := recv.(*ast.StarExpr); ok {
		recv = star.X
	}

	if index, ok := recv.(*ast.IndexExpr); ok {
		recv = index.X
	}

	if ident, ok := recv.(*ast.Ident); ok {
		return ident.Name + "." + fd.Name.Name
	}

	return fd.Name.Name
}

func offsetForPos(fset *token.FileSet, pos token.Pos) (int, bool) {
	if !pos.IsValid() {
		return 0, false
	}

	file := fset.File(pos)
	if file == nil {
		return 0, false
	}

	return file.Offset(pos), true
}

func replaceRange(content []byte, start, end int, replacement string) []byte {
	mutated := make([]byte, 0, len(content)-(end-start)+len(replacement))
	mutated = append(mutated, content[:start]...)
	mutated = append(mutated, replacement...)
	mutated = append(mutated, content[end:]...)

	return mutated
}

// tokenMutations replaces the operator token at pos with each alternative.
func tokenMutations(operator Operator, fset *token.FileSet, pos token.Pos, original token.Token, alternatives []token.Token) []Mutation {
	start, ok := offsetForPos(fset, pos)
	if !ok {
		return nil
	}

	line := fset.Position(pos).Line
	end := start + len(original.String())

	mutations := make([]Mutation, 0, len(alternatives))
	for _, alt := range alternatives {
		mutations = append(mutations, Mutation{
			Operator:    operator,
			Original:    original.String(),
			Replacement: alt.String(),
			Line:        line,
			Start:       start,
			End:         end,
		})
	}

	return mutations
}

func alternativesOf(original token.Token, all []token.Token) []token.Token {
	var alternatives []token.Token

	for _, op := range all {
		if op != original {
			alternatives = append(alternatives, op)
		}
	}

	return alternatives
}
