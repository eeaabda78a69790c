package adapter

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"text/template"
	"time"

	m "mreval.dev/pkg/mreval/internal/model"
)

// ToolArgs is the data exposed to argv templates. Each tool uses the subset
// of fields relevant to it.
type ToolArgs struct {
	Unit      string
	Class     string
	Method    string
	Index     int
	Source    string
	Variant   string
	TestID    string
	Seed      int64
	MaxTests  int
	OutDir    string
	OutFile   string
	WorkDir   string
	MutantDir string
	InputsDir string
	InputFile string
	StatesDir string

	Experiment    string
	MR            string
	RelationDir   string
	RelationsDir  string
	FollowupsDir  string
	AssertionsDir string
	SuiteDir      string
	TestClass     string

	ExcludedMethods []string
	ExcludedTests   []string

	Timeout time.Duration
}

var toolFuncs = template.FuncMap{
	"join": strings.Join,
}

// ToolAdapter renders configured argv templates into commands and runs them.
type ToolAdapter interface {
	// Has reports whether tool name is configured.
	Has(name string) bool
	// Command renders the argv template of tool name.
	Command(name string, args ToolArgs) (Command, error)
	// Run renders and runs tool name. The error is reserved for configuration
	// problems; process failures are reported through the result.
	Run(ctx context.Context, name string, args ToolArgs) (ProcessResult, error)
}

type templateToolAdapter struct {
	tools     m.Tools
	processes ProcessAdapter

	mu     sync.Mutex
	parsed map[string][]*template.Template
}

// NewToolAdapter returns a ToolAdapter over the configured tools.
func NewToolAdapter(tools m.Tools, processes ProcessAdapter) ToolAdapter {
	return &templateToolAdapter{
		tools:     tools,
		processes: processes,
		parsed:    make(map[string][]*template.Template),
	}
}

func (a *templateToolAdapter) Has(name string) bool {
	return len(a.tools[name]) > 0
}

func (a *templateToolAdapter) Command(name string, args ToolArgs) (Command, error) {
	templates, err := a.templates(name)
	if err != nil {
		return Command{}, err
	}

	argv := make([]string, 0, len(templates))

	for _, tmpl := range templates {
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, args); err != nil {
			slog.Error("Failed to render tool argument", "tool", name, "template", tmpl.Name(), "error", err)
			return Command{}, fmt.Errorf("%w: tool %q: %w", m.ErrInvalidConfig, name, err)
		}

		argv = append(argv, buf.String())
	}

	return Command{
		Name:    argv[0],
		Args:    argv[1:],
		Dir:     args.WorkDir,
		Timeout: args.Timeout,
		Label:   name,
	}, nil
}

func (a *templateToolAdapter) Run(ctx context.Context, name string, args ToolArgs) (ProcessResult, error) {
	cmd, err := a.Command(name, args)
	if err != nil {
		return ProcessResult{}, err
	}

	slog.Info("Running tool", "tool", name, "unit", args.Unit)

	return a.processes.Run(ctx, cmd), nil
}

func (a *templateToolAdapter) templates(name string) ([]*template.Template, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if parsed, ok := a.parsed[name]; ok {
		return parsed, nil
	}

	raw := a.tools[name]
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: tool %q", m.ErrMissingConfig, name)
	}

	parsed := make([]*template.Template, 0, len(raw))

	for i, arg := range raw {
		tmpl, err := template.New(fmt.Sprintf("%s[%d]", name, i)).
			Funcs(toolFuncs).
			Option("missingkey=error").
			Parse(arg)
		if err != nil {
			slog.Error("Failed to parse tool template", "tool", name, "arg", arg, "error", err)
			return nil, fmt.Errorf("%w: tool %q: %w", m.ErrInvalidConfig, name, err)
		}

		parsed = append(parsed, tmpl)
	}

	a.parsed[name] = parsed

	return parsed, nil
}
