package adapter

import (
	"fmt"

	"github.com/pmezard/go-difflib/difflib"
	m "mreval.dev/pkg/mreval/internal/model"
)

// SourceDiffer compares a mutant source file with the original.
type SourceDiffer interface {
	// Diff returns a unified diff, empty when both files are identical.
	Diff(original, mutant m.Path) (string, error)
}

type unifiedSourceDiffer struct {
	fsAdapter ArtifactFSAdapter
}

// NewSourceDiffer returns a SourceDiffer producing unified diffs.
func NewSourceDiffer(fsAdapter ArtifactFSAdapter) SourceDiffer {
	return &unifiedSourceDiffer{fsAdapter: fsAdapter}
}

func (d *unifiedSourceDiffer) Diff(original, mutant m.Path) (string, error) {
	a, err := d.fsAdapter.ReadFile(original)
	if err != nil {
		return "", fmt.Errorf("failed to read original source: %w", err)
	}

	b, err := d.fsAdapter.ReadFile(mutant)
	if err != nil {
		return "", fmt.Errorf("failed to read mutant source: %w", err)
	}

	if string(a) == string(b) {
		return "", nil
	}

	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(a)),
		B:        difflib.SplitLines(string(b)),
		FromFile: string(original),
		ToFile:   string(mutant),
		Context:  1,
	})
	if err != nil {
		return "", fmt.Errorf("failed to diff sources: %w", err)
	}

	return diff, nil
}
