package adapter

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	m "mreval.dev/pkg/mreval/internal/model"
)

func TestGoMethodLocator_Declarations(t *testing.T) {
	locator := NewGoMethodLocator(NewLocalArtifactFSAdapter())

	decls, err := locator.Declarations(context.Background(), m.Path(filepath.Join("testdata", "subject", "calc.go.txt")))
	require.NoError(t, err)

	assert.Equal(t, []MethodDecl{
		{Name: "Add", Index: 0, StartLine: 5, EndLine: 7},
		{Name: "Add", Index: 1, StartLine: 9, EndLine: 11},
		{Name: "Abs", Index: 0, StartLine: 13, EndLine: 19},
	}, decls)

	abs, ok := FindDeclaration(decls, "Abs", 0)
	require.True(t, ok)
	assert.Equal(t, []int{13, 14, 15, 16, 17, 18, 19}, abs.Lines())

	_, ok = FindDeclaration(decls, "Add", 2)
	assert.False(t, ok)
}

func TestGoMethodLocator_Errors(t *testing.T) {
	locator := NewGoMethodLocator(NewLocalArtifactFSAdapter())

	_, err := locator.Declarations(context.Background(), m.Path(filepath.Join(t.TempDir(), "missing.go")))
	assert.Error(t, err)

	broken := filepath.Join(t.TempDir(), "broken.go")
	writeTestFile(t, broken, "package foo\n func")
	_, err = locator.Declarations(context.Background(), m.Path(broken))
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = locator.Declarations(ctx, m.Path(broken))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCommandMethodLocator_Declarations(t *testing.T) {
	processes := &recordingProcessAdapter{result: ProcessResult{Output: "factorial 0 10 20\n\nfactorial 1 22 30\n"}}
	tools := NewToolAdapter(m.Tools{m.ToolMethodLocator: {"locate", "{{.Source}}"}}, processes)

	decls, err := NewCommandMethodLocator(tools).Declarations(context.Background(), "Foo.java")
	require.NoError(t, err)
	assert.Equal(t, []MethodDecl{
		{Name: "factorial", Index: 0, StartLine: 10, EndLine: 20},
		{Name: "factorial", Index: 1, StartLine: 22, EndLine: 30},
	}, decls)

	processes.result = ProcessResult{Output: "factorial zero 10 20\n"}
	_, err = NewCommandMethodLocator(tools).Declarations(context.Background(), "Foo.java")
	assert.Error(t, err)

	processes.result = ProcessResult{ExitCode: 1}
	_, err = NewCommandMethodLocator(tools).Declarations(context.Background(), "Foo.java")
	assert.Error(t, err)
}
