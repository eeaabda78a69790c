package domain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"strconv"
	"strings"

	m "mreval.dev/pkg/mreval/internal/model"
)

// ErrNoTestInputs is returned when no usable test input survives generation.
var ErrNoTestInputs = errors.New("no usable test inputs")

const renumberDir = ".renumber"

type generateTestInputsStage struct {
	env Env
}

// NewGenerateTestInputsStage runs the test generator for a unit and
// normalises its output into test0..testN-1.
func NewGenerateTestInputsStage(env Env) Stage {
	return &generateTestInputsStage{env: env}
}

func (s *generateTestInputsStage) Name() m.StageName { return m.StageGenerateTestInputs }

func (s *generateTestInputsStage) Target(*UnitContext) m.UnitState { return m.InputsReady }

func (s *generateTestInputsStage) Run(ctx context.Context, u *UnitContext) m.StageResult {
	target := u.Layout.TestInputsDir(u.Unit.ID)
	if s.env.FS.IsComplete(target) {
		return m.SkippedResult(s.Name(), target, "test inputs exist")
	}

	staging, err := s.env.FS.StagingDir(target)
	if err != nil {
		return m.FailedResult(s.Name(), err)
	}

	args := baseArgs(u)
	args.OutDir = string(staging)

	if err := runTool(ctx, s.env, u, m.ToolTestGenerator, args); err != nil {
		discardStaging(s.env, u, staging)
		return m.FailedResult(s.Name(), err)
	}

	count, err := s.normalize(u, staging)
	if err != nil {
		discardStaging(s.env, u, staging)
		return m.FailedResult(s.Name(), err)
	}

	if count == 0 {
		discardStaging(s.env, u, staging)
		u.Logger.Error("Failed to generate test inputs", "error", ErrNoTestInputs)

		return m.FailedResult(s.Name(), ErrNoTestInputs)
	}

	if err := s.env.FS.Publish(staging, target); err != nil {
		discardStaging(s.env, u, staging)
		return m.FailedResult(s.Name(), err)
	}

	u.Logger.Info("Generated test inputs", "count", count)

	return m.CompletedResult(s.Name(), target)
}

// normalize drops empty, unreadable and duplicate inputs, samples down to
// MaxTests and renumbers the survivors. It returns the surviving count.
func (s *generateTestInputsStage) normalize(u *UnitContext, dir m.Path) (int, error) {
	names, err := s.env.FS.ListFiles(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to list generated inputs: %w", err)
	}

	seen := make(map[string]bool)

	var kept []string

	for _, name := range names {
		path := s.env.FS.JoinPath(string(dir), name)

		content, err := s.env.FS.ReadFile(path)
		if err != nil || len(bytes.TrimSpace(content)) == 0 {
			u.Logger.Debug("Dropping unusable test input", "file", name, "error", err)
			s.remove(u, path)

			continue
		}

		hash, err := s.env.FS.HashFile(path)
		if err != nil {
			return 0, fmt.Errorf("failed to hash test input: %w", err)
		}

		if seen[hash] {
			u.Logger.Debug("Dropping duplicate test input", "file", name)
			s.remove(u, path)

			continue
		}

		seen[hash] = true
		kept = append(kept, name)
	}

	kept = s.sample(u, dir, kept)
	sortForRenumbering(u.Unit.ID, kept)

	return len(kept), s.renumber(u, dir, kept)
}

// sample keeps MaxTests inputs chosen with the configured seed.
func (s *generateTestInputsStage) sample(u *UnitContext, dir m.Path, names []string) []string {
	limit := u.Settings.MaxTests
	if limit <= 0 || len(names) <= limit {
		return names
	}

	seed := uint64(u.Settings.RandomSeed) //nolint:gosec // Seed bits only.
	rng := rand.New(rand.NewPCG(seed, seed))

	chosen := rng.Perm(len(names))[:limit]
	sort.Ints(chosen)

	keep := make(map[int]bool, limit)
	for _, i := range chosen {
		keep[i] = true
	}

	sampled := make([]string, 0, limit)

	for i, name := range names {
		if keep[i] {
			sampled = append(sampled, name)
			continue
		}

		s.remove(u, s.env.FS.JoinPath(string(dir), name))
	}

	return sampled
}

// renumber moves every input through a scratch directory so a target name
// held by another pending file is never overwritten.
func (s *generateTestInputsStage) renumber(u *UnitContext, dir m.Path, names []string) error {
	scratch := s.env.FS.JoinPath(string(dir), renumberDir)
	if err := s.env.FS.MkdirAll(scratch); err != nil {
		return fmt.Errorf("failed to create renumber directory: %w", err)
	}

	targets := make([]string, len(names))

	for i, name := range names {
		targets[i] = m.TestInputFileName(u.Unit.ID, "test"+strconv.Itoa(i))

		src := s.env.FS.JoinPath(string(dir), name)
		if err := s.env.FS.Rename(src, s.env.FS.JoinPath(string(scratch), targets[i])); err != nil {
			return fmt.Errorf("failed to renumber test input: %w", err)
		}
	}

	for _, target := range targets {
		src := s.env.FS.JoinPath(string(scratch), target)
		if err := s.env.FS.Rename(src, s.env.FS.JoinPath(string(dir), target)); err != nil {
			return fmt.Errorf("failed to renumber test input: %w", err)
		}
	}

	if err := s.env.FS.RemoveAll(scratch); err != nil {
		return fmt.Errorf("failed to remove renumber directory: %w", err)
	}

	return nil
}

func (s *generateTestInputsStage) remove(u *UnitContext, path m.Path) {
	if err := s.env.FS.Remove(path); err != nil {
		u.Logger.Warn("Failed to remove test input", "path", path, "error", err)
	}
}

// sortForRenumbering orders inputs already named testN for unit by N,
// followed by every other file by name.
func sortForRenumbering(unit m.UnitID, names []string) {
	number := func(name string) (int, bool) {
		owner, test, ok := m.ParseTestInputFileName(name)
		if !ok || owner != unit {
			return 0, false
		}

		n, err := strconv.Atoi(strings.TrimPrefix(test, "test"))
		if err != nil || !strings.HasPrefix(test, "test") {
			return 0, false
		}

		return n, true
	}

	sort.SliceStable(names, func(i, j int) bool {
		ni, oki := number(names[i])
		nj, okj := number(names[j])

		switch {
		case oki && okj:
			return ni < nj
		case oki != okj:
			return oki
		default:
			return names[i] < names[j]
		}
	})
}
