package mutagens

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func replacements(mutations []Mutation) []string {
	out := make([]string, 0, len(mutations))
	for _, mu := range mutations {
		out = append(out, mu.Replacement)
	}

	return out
}

func TestGenerateArithmeticMutations(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want []string
	}{
		{"add", "a + b", []string{"-", "*", "/", "%"}},
		{"sub", "a - b", []string{"+", "*", "/", "%"}},
		{"rem", "a % b", []string{"+", "-", "*", "/"}},
		{"string concatenation", `"a" + b`, nil},
		{"shift is not arithmetic", "a << b", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := "package p\n\nvar x = " + tt.expr + "\n"
			mutations := collect(t, src, GenerateArithmeticMutations)

			if tt.want == nil {
				assert.Empty(t, mutations)
				return
			}

			assert.Equal(t, tt.want, replacements(mutations))

			for _, mu := range mutations {
				assert.Equal(t, OperatorAOR, mu.Operator)
				assert.Equal(t, 3, mu.Line)
			}
		})
	}
}

func TestGenerateComparisonMutations(t *testing.T) {
	mutations := collect(t, "package p\n\nvar x = a >= b\n", GenerateComparisonMutations)

	assert.Equal(t, []string{"<", ">", "<=", "==", "!="}, replacements(mutations))

	for _, mu := range mutations {
		assert.Equal(t, ">=", mu.Original)
		assert.Equal(t, mu.Start+2, mu.End)
	}
}

func TestGenerateLogicalMutations(t *testing.T) {
	mutations := collect(t, "package p\n\nvar x = a && (b || c)\n", GenerateLogicalMutations)

	require.Len(t, mutations, 2)
	assert.Equal(t, "&&", mutations[0].Original)
	assert.Equal(t, "||", mutations[0].Replacement)
	assert.Equal(t, "||", mutations[1].Original)
	assert.Equal(t, "&&", mutations[1].Replacement)
	assert.Equal(t, OperatorCOR, mutations[0].Operator)
}

func TestGenerateBooleanMutations(t *testing.T) {
	src := "package p\n\nvar x, y = true, false\nvar z = truth\n"
	content := []byte(src)
	mutations := collect(t, src, GenerateBooleanMutations)

	require.Len(t, mutations, 2)
	assert.Equal(t, "false", mutations[0].Replacement)
	assert.Equal(t, "true", mutations[1].Replacement)
	assert.Equal(t, "package p\n\nvar x, y = false, false\nvar z = truth\n", string(mutations[0].Apply(content)))
}

func TestGenerateUnaryMutations(t *testing.T) {
	src := "package p\n\nvar x = -a + !b + ^c\n"
	mutations := collect(t, src, GenerateUnaryMutations)

	require.Len(t, mutations, 2)
	assert.Equal(t, "-", mutations[0].Original)
	assert.Equal(t, "!", mutations[1].Original)
	assert.Equal(t, "package p\n\nvar x = a + !b + ^c\n", string(mutations[0].Apply([]byte(src))))
}

func TestGenerateBranchMutations(t *testing.T) {
	src := `package p

func f(a int) int {
	if a > 0 && a < 10 {
		return 1
	}

	if true {
		return 2
	}

	return 0
}
`
	mutations := collect(t, src, GenerateBranchMutations)

	require.Len(t, mutations, 2)
	assert.Equal(t, "a > 0 && a < 10", mutations[0].Original)
	assert.Equal(t, []string{"true", "false"}, replacements(mutations))
	assert.Equal(t, 4, mutations[0].Line)
	assert.Contains(t, string(mutations[1].Apply([]byte(src))), "if false {\n\t\treturn 1")
}
