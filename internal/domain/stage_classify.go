package domain

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"
	m "mreval.dev/pkg/mreval/internal/model"
)

type classifyStatesStage struct {
	env Env
}

// NewClassifyStatesStage compares every variant's outputs with the
// original's and writes one classification per variant.
func NewClassifyStatesStage(env Env) Stage {
	return &classifyStatesStage{env: env}
}

func (s *classifyStatesStage) Name() m.StageName { return m.StageClassifyStates }

func (s *classifyStatesStage) Target(*UnitContext) m.UnitState { return m.Classified }

func (s *classifyStatesStage) Run(ctx context.Context, u *UnitContext) m.StageResult {
	target := u.Layout.ClassificationsDir(u.Unit.ID)
	if s.env.FS.IsComplete(target) {
		return m.SkippedResult(s.Name(), target, "classifications exist")
	}

	variants, err := s.loadStates(u)
	if err != nil {
		return m.FailedResult(s.Name(), err)
	}

	if len(variants[m.OriginalVariant]) == 0 {
		return m.FailedResult(s.Name(), ErrNoBaselineStates)
	}

	staging, err := s.env.FS.StagingDir(target)
	if err != nil {
		return m.FailedResult(s.Name(), err)
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(max(1, u.Settings.Workers))

	for variant, states := range variants {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}

			classification := Classify(u.Unit.ID, variant, variants[m.OriginalVariant], states)
			path := s.env.FS.JoinPath(string(staging), m.ClassificationFileName(u.Unit.ID, variant))

			return s.env.Reports.SaveClassification(path, classification)
		})
	}

	if err := group.Wait(); err != nil {
		discardStaging(s.env, u, staging)
		u.Logger.Error("Failed to write classifications", "error", err)

		return m.FailedResult(s.Name(), fmt.Errorf("failed to write classifications: %w", err))
	}

	if err := s.env.FS.Publish(staging, target); err != nil {
		discardStaging(s.env, u, staging)
		return m.FailedResult(s.Name(), err)
	}

	u.Logger.Info("Classified states", "variants", len(variants))

	return m.CompletedResult(s.Name(), target)
}

// loadStates groups the unit's states by variant and test id.
func (s *classifyStatesStage) loadStates(u *UnitContext) (map[string]map[string]m.ExecutionState, error) {
	dir := u.Layout.StatesDir(u.Unit.ID)

	names, err := s.env.FS.ListFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list states: %w", err)
	}

	variants := make(map[string]map[string]m.ExecutionState)

	for _, name := range names {
		unit, variant, test, ok := m.ParseStateFileName(name)
		if !ok || unit != u.Unit.ID {
			continue
		}

		state, err := s.env.States.LoadState(s.env.FS.JoinPath(string(dir), name))
		if err != nil {
			u.Logger.Error("Failed to load state", "file", name, "error", err)
			return nil, err
		}

		if variants[variant] == nil {
			variants[variant] = make(map[string]m.ExecutionState)
		}

		variants[variant][test] = state
	}

	return variants, nil
}

// Classify compares the states of variant with the reference states, test
// by test: O for equal outputs, X for different outputs and - when the
// reference has no state for the test.
func Classify(unit m.UnitID, variant string, reference, states map[string]m.ExecutionState) m.Classification {
	tests := make([]string, 0, len(states))
	for test := range states {
		tests = append(tests, test)
	}

	SortTestIDs(tests)

	classification := m.Classification{
		SystemID: string(m.MutantUnitID(unit, variant)),
		Keys:     []string{m.ClassificationKey},
	}

	for _, test := range tests {
		verdict := m.VerdictNoReference

		if ref, ok := reference[test]; ok {
			verdict = m.VerdictKilled
			if reflect.DeepEqual(ref.Variables.Outputs, states[test].Variables.Outputs) {
				verdict = m.VerdictSame
			}
		}

		classification.Rows = append(classification.Rows, m.ClassificationRow{
			TestID:   test,
			Verdicts: []m.Verdict{verdict},
		})
	}

	return classification
}

// SortTestIDs orders test ids by their numeric suffix, so test2 comes
// before test10. Ids without one sort after, by name.
func SortTestIDs(tests []string) {
	number := func(test string) (int, bool) {
		digits := strings.TrimLeft(test, "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ_")

		n, err := strconv.Atoi(digits)

		return n, err == nil && digits != ""
	}

	sort.SliceStable(tests, func(i, j int) bool {
		ni, oki := number(tests[i])
		nj, okj := number(tests[j])

		switch {
		case oki && okj && ni != nj:
			return ni < nj
		case oki != okj:
			return oki
		default:
			return tests[i] < tests[j]
		}
	})
}
