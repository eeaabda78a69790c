package domain

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"mreval.dev/pkg/mreval/internal/adapter"
	m "mreval.dev/pkg/mreval/internal/model"
)

const mutagenSource = `package calc

func Max(a, b int) int {
	if a > b {
		return a
	}

	return b
}
`

func TestIsGoSource(t *testing.T) {
	assert.True(t, IsGoSource("src/calc.go"))
	assert.False(t, IsGoSource("src/calc_test.go"))
	assert.False(t, IsGoSource("src/Calc.java"))
}

func TestMutagen_GenerateMutants(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "calc.go")
	writeFile(t, source, mutagenSource)

	fsAdapter := adapter.NewLocalArtifactFSAdapter()
	outDir := m.Path(filepath.Join(dir, "out"))
	logPath := m.Path(filepath.Join(dir, "out", "mutants.log"))
	require.NoError(t, fsAdapter.MkdirAll(outDir))

	count, err := NewMutagen(fsAdapter).GenerateMutants(context.Background(), "Calc", m.Path(source), outDir, logPath)
	require.NoError(t, err)

	// if a > b: forced true and false, then five relational replacements.
	assert.Equal(t, 7, count)

	mutants, err := adapter.NewReportStore(fsAdapter).LoadMutantsLog(logPath)
	require.NoError(t, err)
	require.Len(t, mutants, 7)

	for _, mutant := range mutants {
		assert.Equal(t, 4, mutant.Line)
	}

	assert.Equal(t, "1:COR:a > b:true:Calc@Max:4:a > b |==> true\n", firstLine(readFile(t, logPath)))
	assert.Contains(t, readFile(t, m.Path(filepath.Join(string(outDir), "1", "calc.go"))), "if true {")
	assert.Contains(t, readFile(t, m.Path(filepath.Join(string(outDir), "3", "calc.go"))), "if a < b {")
}

func TestMutagen_GenerateMutants_Errors(t *testing.T) {
	dir := t.TempDir()
	fsAdapter := adapter.NewLocalArtifactFSAdapter()
	mg := NewMutagen(fsAdapter)
	logPath := m.Path(filepath.Join(dir, "mutants.log"))

	_, err := mg.GenerateMutants(context.Background(), "Calc", m.Path(filepath.Join(dir, "missing.go")), m.Path(dir), logPath)
	require.ErrorContains(t, err, "failed to read")

	broken := filepath.Join(dir, "broken.go")
	writeFile(t, broken, "package calc\n\nfunc {")

	_, err = mg.GenerateMutants(context.Background(), "Calc", m.Path(broken), m.Path(dir), logPath)
	require.ErrorContains(t, err, "failed to parse")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	good := filepath.Join(dir, "calc.go")
	writeFile(t, good, mutagenSource)

	_, err = mg.GenerateMutants(ctx, "Calc", m.Path(good), m.Path(dir), logPath)
	require.ErrorIs(t, err, context.Canceled)
}

func TestGenerateMutantsStage_BuiltinEngine(t *testing.T) {
	root := t.TempDir()
	source := filepath.Join(root, "src", "calc.go")
	writeFile(t, source, mutagenSource)

	tools := newFakeTools(map[string]toolFunc{})
	env := newTestEnv(tools, fakeLocator{})
	env.Mutagen = NewMutagen(env.FS)

	unit, err := m.NewUnit(m.Subject{Class: "Calc", Source: m.Path(source)}, "Max", 0)
	require.NoError(t, err)

	u := NewUnitContext("run", unit, NewLayout(m.Path(filepath.Join(root, "results"))), m.Settings{})
	stage := NewGenerateMutantsStage(env)

	result := stage.Run(context.Background(), u)
	require.Equal(t, m.Completed, result.Status, "%v", result.Err)
	assert.Equal(t, u.Layout.MutantsLog("Calc"), result.Artifact)
	assert.Equal(t, 0, tools.TotalCalls())
	assert.True(t, env.FS.IsComplete(u.Layout.MutantsDir("Calc")))
	assert.False(t, env.FS.Exists(env.FS.JoinPath(string(u.Layout.MutantsDir("Calc")), engineLogFile)))
	assert.Contains(t, readFile(t, u.Layout.MutantSource("Calc", "2", m.Path(source))), "if false {")

	again := stage.Run(context.Background(), u)
	assert.Equal(t, m.Skipped, again.Status)
}

func TestGenerateMutantsStage_MissingToolForOtherSources(t *testing.T) {
	env := newTestEnv(newFakeTools(map[string]toolFunc{}), fakeLocator{})
	env.Mutagen = NewMutagen(env.FS)

	unit, err := m.NewUnit(m.Subject{Class: "Calc", Source: "Calc.java"}, "max", 0)
	require.NoError(t, err)

	u := NewUnitContext("run", unit, NewLayout(m.Path(t.TempDir())), m.Settings{})

	result := NewGenerateMutantsStage(env).Run(context.Background(), u)
	assert.Equal(t, m.Failed, result.Status)
	require.ErrorIs(t, result.Err, m.ErrMissingConfig)
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i+1]
		}
	}

	return s
}
