package domain

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/gobwas/glob"
	"mreval.dev/pkg/mreval/internal/adapter"
	m "mreval.dev/pkg/mreval/internal/model"
)

// EnumerateUnits returns the units of every subject: the listed methods, or
// every declared method when none are listed. Overloads become distinct
// units.
func EnumerateUnits(ctx context.Context, locator adapter.MethodLocator, subjects []m.Subject) ([]m.Unit, error) {
	var units []m.Unit

	for _, subject := range subjects {
		decls, err := locator.Declarations(ctx, subject.Source)
		if err != nil {
			slog.Error("Failed to locate methods", "class", subject.Class, "source", subject.Source, "error", err)
			return nil, fmt.Errorf("failed to locate methods of %s: %w", subject.Class, err)
		}

		found := 0

		for _, decl := range decls {
			if len(subject.Methods) > 0 && !slices.Contains(subject.Methods, decl.Name) {
				continue
			}

			unit, err := m.NewUnit(subject, decl.Name, decl.Index)
			if err != nil {
				return nil, err
			}

			units = append(units, unit)
			found++
		}

		slog.Debug("Found units", "class", subject.Class, "count", found)
	}

	return units, nil
}

// SelectUnits keeps the units whose id matches any pattern. In patterns
// "*" stops at the § separator and "**" does not. No patterns keeps every
// unit.
func SelectUnits(units []m.Unit, patterns []string) ([]m.Unit, error) {
	if len(patterns) == 0 {
		return units, nil
	}

	matchers := make([]glob.Glob, 0, len(patterns))

	for _, pattern := range patterns {
		matcher, err := glob.Compile(pattern, []rune(m.UnitSeparator)[0])
		if err != nil {
			return nil, fmt.Errorf("%w: unit pattern %q: %w", m.ErrInvalidConfig, pattern, err)
		}

		matchers = append(matchers, matcher)
	}

	var selected []m.Unit

	for _, unit := range units {
		for _, matcher := range matchers {
			if matcher.Match(string(unit.ID)) {
				selected = append(selected, unit)
				break
			}
		}
	}

	return selected, nil
}

// ShardUnits keeps the units whose position modulo count equals index.
// A zero count keeps every unit.
func ShardUnits(units []m.Unit, index, count uint) []m.Unit {
	if count == 0 {
		return units
	}

	var shard []m.Unit

	for i, unit := range units {
		if uint(i)%count == index {
			shard = append(shard, unit)
		}
	}

	return shard
}
