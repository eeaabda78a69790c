package domain

import (
	"context"
	"fmt"
	"go/parser"
	"go/token"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"mreval.dev/pkg/mreval/internal/adapter"
	"mreval.dev/pkg/mreval/internal/domain/mutagens"
	m "mreval.dev/pkg/mreval/internal/model"
)

// Mutagen generates the mutants of a Go source in the layout written by the
// mutation_engine tool: one directory per mutant id holding the mutated
// file, plus a colon separated log.
type Mutagen interface {
	GenerateMutants(ctx context.Context, class string, source, outDir, logPath m.Path) (int, error)
}

type mutagen struct {
	fs adapter.ArtifactFSAdapter
}

// NewMutagen returns the built-in Go mutation engine.
func NewMutagen(fsAdapter adapter.ArtifactFSAdapter) Mutagen {
	return &mutagen{fs: fsAdapter}
}

// IsGoSource reports whether the built-in engine can mutate source.
func IsGoSource(source m.Path) bool {
	return strings.HasSuffix(string(source), ".go") && !strings.HasSuffix(string(source), "_test.go")
}

func (mg *mutagen) GenerateMutants(ctx context.Context, class string, source, outDir, logPath m.Path) (int, error) {
	content, err := mg.fs.ReadFile(source)
	if err != nil {
		slog.Error("Failed to read source", "path", source, "error", err)
		return 0, fmt.Errorf("failed to read %s: %w", source, err)
	}

	fset := token.NewFileSet()

	file, err := parser.ParseFile(fset, string(source), content, parser.SkipObjectResolution)
	if err != nil {
		slog.Error("Failed to parse source", "path", source, "error", err)
		return 0, fmt.Errorf("failed to parse %s: %w", source, err)
	}

	mutations := mutagens.Generate(file, fset, content)
	base := filepath.Base(string(source))

	var log strings.Builder

	for i, mu := range mutations {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		id := strconv.Itoa(i + 1)
		if err := mg.fs.WriteFileAtomic(mg.fs.JoinPath(string(outDir), id, base), mu.Apply(content)); err != nil {
			return 0, fmt.Errorf("failed to write mutant %s: %w", id, err)
		}

		log.WriteString(mutantLogLine(id, class, mu))
	}

	if err := mg.fs.WriteFileAtomic(logPath, []byte(log.String())); err != nil {
		return 0, fmt.Errorf("failed to write mutants log: %w", err)
	}

	return len(mutations), nil
}

var logFieldEscaper = strings.NewReplacer(":", "_", "\n", " ", "\r", " ", "\t", " ")

// mutantLogLine renders id:operator:original:replacement:class@function:line:original |==> replacement.
func mutantLogLine(id, class string, mu mutagens.Mutation) string {
	original := logFieldEscaper.Replace(mu.Original)
	replacement := logFieldEscaper.Replace(mu.Replacement)

	function := class
	if mu.Function != "" {
		function += "@" + mu.Function
	}

	return fmt.Sprintf("%s:%s:%s:%s:%s:%d:%s |==> %s\n",
		id, mu.Operator, original, replacement, function, mu.Line, original, replacement)
}
