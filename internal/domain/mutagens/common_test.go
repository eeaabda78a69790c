package mutagens

import (
	"go/ast"
	"go/parser"
	"go/token"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const calcSource = `package calc

type Calc struct{}

func (c *Calc) Add(a, b int) int {
	return a + b
}

func Abs(x int) int {
	if x < 0 {
		return -x
	}

	return x
}

var label = "a" + "b"
`

func parseSource(t *testing.T, src string) (*ast.File, *token.FileSet, []byte) {
	t.Helper()

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "calc.go", src, parser.SkipObjectResolution)
	require.NoError(t, err)

	return file, fset, []byte(src)
}

func collect(t *testing.T, src string, gen Generator) []Mutation {
	t.Helper()

	file, fset, content := parseSource(t, src)

	var mutations []Mutation

	ast.Inspect(file, func(n ast.Node) bool {
		if n != nil {
			mutations = append(mutations, gen(n, fset, content)...)
		}

		return true
	})

	return mutations
}

func TestGenerate(t *testing.T) {
	file, fset, content := parseSource(t, calcSource)

	mutations := Generate(file, fset, content)

	var summary []string
	for _, mu := range mutations {
		summary = append(summary, mu.Function+" "+string(mu.Operator)+" "+mu.Original+"->"+mu.Replacement)
	}

	assert.Equal(t, []string{
		"Calc.Add AOR +->-",
		"Calc.Add AOR +->*",
		"Calc.Add AOR +->/",
		"Calc.Add AOR +->%",
		"Abs COR x < 0->true",
		"Abs COR x < 0->false",
		"Abs ROR <->>",
		"Abs ROR <-><=",
		"Abs ROR <->>=",
		"Abs ROR <->==",
		"Abs ROR <->!=",
		"Abs UOI -->",
	}, summary)

	for i := 1; i < len(mutations); i++ {
		assert.LessOrEqual(t, mutations[i-1].Start, mutations[i].Start)
	}
}

func TestMutation_Apply(t *testing.T) {
	content := []byte("return a + b\n")
	mu := Mutation{Original: "+", Replacement: "-", Start: 9, End: 10}

	assert.Equal(t, "return a - b\n", string(mu.Apply(content)))
	assert.Equal(t, "return a + b\n", string(content))
}

func TestGenerate_LinesAndOffsets(t *testing.T) {
	file, fset, content := parseSource(t, calcSource)

	for _, mu := range Generate(file, fset, content) {
		assert.Equal(t, mu.Original, string(content[mu.Start:mu.End]), "%+v", mu)

		switch mu.Operator {
		case OperatorAOR:
			assert.Equal(t, 6, mu.Line)
		case OperatorUOI:
			assert.Equal(t, 11, mu.Line)
		default:
			assert.Equal(t, 10, mu.Line)
		}
	}
}

func TestFuncName(t *testing.T) {
	src := `package p

type T[K any] struct{}

func (t T[K]) Get() {}
func (t *T[K]) Set() {}
func Free() {}
`
	file, _, _ := parseSource(t, src)

	var names []string

	for _, decl := range file.Decls {
		if fd, ok := decl.(*ast.FuncDecl); ok {
			names = append(names, funcName(fd))
		}
	}

	assert.Equal(t, []string{"T.Get", "T.Set", "Free"}, names)
}
