package adapter

import (
	"bufio"
	"context"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"log/slog"
	"strconv"
	"strings"

	m "mreval.dev/pkg/mreval/internal/model"
)

// MethodDecl is one method declaration of a source file. Index counts
// earlier declarations with the same name, so overloads are distinct.
type MethodDecl struct {
	Name      string
	Index     int
	StartLine int
	EndLine   int
}

// Lines returns every line the declaration spans.
func (d MethodDecl) Lines() []int {
	lines := make([]int, 0, d.EndLine-d.StartLine+1)
	for line := d.StartLine; line <= d.EndLine; line++ {
		lines = append(lines, line)
	}

	return lines
}

// MethodLocator finds method declarations in subject sources.
type MethodLocator interface {
	Declarations(ctx context.Context, source m.Path) ([]MethodDecl, error)
}

// FindDeclaration returns the index-th declaration of method.
func FindDeclaration(decls []MethodDecl, method string, index int) (MethodDecl, bool) {
	for _, decl := range decls {
		if decl.Name == method && decl.Index == index {
			return decl, true
		}
	}

	return MethodDecl{}, false
}

// GoMethodLocator reads declarations of Go sources with go/parser.
type GoMethodLocator struct {
	fsAdapter ArtifactFSAdapter
}

// NewGoMethodLocator constructs a GoMethodLocator.
func NewGoMethodLocator(fsAdapter ArtifactFSAdapter) *GoMethodLocator {
	return &GoMethodLocator{fsAdapter: fsAdapter}
}

// Declarations lists function and method declarations in file order. Methods
// are named by their identifier only, so same-named methods on different
// receivers become overloads.
func (l *GoMethodLocator) Declarations(ctx context.Context, source m.Path) ([]MethodDecl, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	content, err := l.fsAdapter.ReadFile(source)
	if err != nil {
		slog.Error("Failed to read source", "source", source, "error", err)
		return nil, fmt.Errorf("failed to read source: %w", err)
	}

	fileSet := token.NewFileSet()

	file, err := parser.ParseFile(fileSet, string(source), content, parser.SkipObjectResolution)
	if err != nil {
		slog.Error("Failed to parse source", "source", source, "error", err)
		return nil, fmt.Errorf("failed to parse source: %w", err)
	}

	seen := make(map[string]int)

	var decls []MethodDecl

	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok {
			continue
		}

		name := fn.Name.Name
		decls = append(decls, MethodDecl{
			Name:      name,
			Index:     seen[name],
			StartLine: fileSet.Position(fn.Pos()).Line,
			EndLine:   fileSet.Position(fn.End()).Line,
		})
		seen[name]++
	}

	return decls, nil
}

// CommandMethodLocator delegates to the configured method_locator tool,
// which prints one "name index startLine endLine" line per declaration.
type CommandMethodLocator struct {
	tools ToolAdapter
}

// NewCommandMethodLocator constructs a CommandMethodLocator.
func NewCommandMethodLocator(tools ToolAdapter) *CommandMethodLocator {
	return &CommandMethodLocator{tools: tools}
}

// Declarations runs the locator tool on source.
func (l *CommandMethodLocator) Declarations(ctx context.Context, source m.Path) ([]MethodDecl, error) {
	result, err := l.tools.Run(ctx, m.ToolMethodLocator, ToolArgs{Source: string(source)})
	if err != nil {
		return nil, err
	}

	if !result.Success() {
		slog.Error("Failed to locate methods", "source", source, "exitCode", result.ExitCode, "output", result.Output)
		return nil, fmt.Errorf("method locator failed on %s with exit code %d", source, result.ExitCode)
	}

	return parseDeclarations(result.Output)
}

func parseDeclarations(output string) ([]MethodDecl, error) {
	var decls []MethodDecl

	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		if len(fields) != 4 {
			return nil, fmt.Errorf("unexpected locator line %q", scanner.Text())
		}

		nums := make([]int, 3)

		for i, raw := range fields[1:] {
			n, err := strconv.Atoi(raw)
			if err != nil {
				return nil, fmt.Errorf("unexpected locator line %q: %w", scanner.Text(), err)
			}

			nums[i] = n
		}

		decls = append(decls, MethodDecl{Name: fields[0], Index: nums[0], StartLine: nums[1], EndLine: nums[2]})
	}

	return decls, scanner.Err()
}
