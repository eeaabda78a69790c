package domain

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"mreval.dev/pkg/mreval/internal/adapter"
	m "mreval.dev/pkg/mreval/internal/model"
)

// toolFunc plays an external tool in-process.
type toolFunc func(args adapter.ToolArgs) adapter.ProcessResult

// fakeTools runs Go functions in place of configured tools. Commands it
// renders are executed by the fakeProcesses sharing it.
type fakeTools struct {
	mu      sync.Mutex
	funcs   map[string]toolFunc
	calls   map[string]int
	pending map[string]adapter.ToolArgs
	next    int
}

func newFakeTools(funcs map[string]toolFunc) *fakeTools {
	return &fakeTools{
		funcs:   funcs,
		calls:   make(map[string]int),
		pending: make(map[string]adapter.ToolArgs),
	}
}

func (f *fakeTools) Has(name string) bool {
	_, ok := f.funcs[name]
	return ok
}

func (f *fakeTools) Command(name string, args adapter.ToolArgs) (adapter.Command, error) {
	if !f.Has(name) {
		return adapter.Command{}, fmt.Errorf("%w: tool %q", m.ErrMissingConfig, name)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.next++
	label := fmt.Sprintf("%s#%d", name, f.next)
	f.pending[label] = args

	return adapter.Command{Name: name, Label: label, Timeout: args.Timeout}, nil
}

func (f *fakeTools) Run(_ context.Context, name string, args adapter.ToolArgs) (adapter.ProcessResult, error) {
	cmd, err := f.Command(name, args)
	if err != nil {
		return adapter.ProcessResult{}, err
	}

	return f.execute(cmd), nil
}

func (f *fakeTools) execute(cmd adapter.Command) adapter.ProcessResult {
	f.mu.Lock()
	args := f.pending[cmd.Label]
	delete(f.pending, cmd.Label)
	f.calls[cmd.Name]++
	fn := f.funcs[cmd.Name]
	f.mu.Unlock()

	result := fn(args)
	result.Command = cmd

	return result
}

func (f *fakeTools) Calls(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.calls[name]
}

func (f *fakeTools) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	total := 0
	for _, n := range f.calls {
		total += n
	}

	return total
}

type fakeProcesses struct {
	tools *fakeTools
}

func (p *fakeProcesses) Run(_ context.Context, cmd adapter.Command) adapter.ProcessResult {
	return p.tools.execute(cmd)
}

func (p *fakeProcesses) Start(_ context.Context, cmd adapter.Command) (adapter.Process, error) {
	return finishedProcess{result: p.tools.execute(cmd)}, nil
}

type finishedProcess struct {
	result adapter.ProcessResult
}

func (p finishedProcess) Done() bool                    { return true }
func (p finishedProcess) Result() adapter.ProcessResult { return p.result }

type fakeLocator struct {
	decls map[m.Path][]adapter.MethodDecl
	err   error
}

func (l fakeLocator) Declarations(_ context.Context, source m.Path) ([]adapter.MethodDecl, error) {
	if l.err != nil {
		return nil, l.err
	}

	return l.decls[source], nil
}

// newTestEnv wires the local filesystem adapters with fake tools.
func newTestEnv(tools *fakeTools, locator adapter.MethodLocator) Env {
	fsAdapter := adapter.NewLocalArtifactFSAdapter()

	return Env{
		FS:        fsAdapter,
		Tools:     tools,
		Processes: &fakeProcesses{tools: tools},
		Reports:   adapter.NewReportStore(fsAdapter),
		States:    adapter.NewStateStore(fsAdapter),
		Differ:    adapter.NewSourceDiffer(fsAdapter),
		Locator:   locator,
	}
}

func success() adapter.ProcessResult {
	return adapter.ProcessResult{}
}

func exitWith(code int) adapter.ProcessResult {
	return adapter.ProcessResult{ExitCode: code}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func readFile(t *testing.T, path m.Path) string {
	t.Helper()

	content, err := os.ReadFile(string(path))
	require.NoError(t, err)

	return string(content)
}
