package domain

import (
	"context"
	"fmt"
	"slices"
	"sort"

	"mreval.dev/pkg/mreval/internal/adapter"
	m "mreval.dev/pkg/mreval/internal/model"
	"mreval.dev/pkg/mreval/pkg/ratio"
)

type runMutationTestingStage struct {
	env Env
}

// NewRunMutationTestingStage builds the executable suite, detects false
// positives on the original program and runs mutation testing for every MR
// without false positives.
func NewRunMutationTestingStage(env Env) Stage {
	return &runMutationTestingStage{env: env}
}

func (s *runMutationTestingStage) Name() m.StageName { return m.StageRunMutationTesting }

func (s *runMutationTestingStage) Target(*UnitContext) m.UnitState { return m.Scored }

// baselineOutcome is the result of one MR's test class on the original
// program.
type baselineOutcome struct {
	failures   int
	errorTests []string
}

func (s *runMutationTestingStage) Run(ctx context.Context, u *UnitContext) m.StageResult {
	target := u.Layout.MRStatus(u.Unit.ID)
	if s.env.FS.Exists(target) {
		return m.SkippedResult(s.Name(), target, "mutation results exist")
	}

	relations, err := listRelations(s.env, u)
	if err != nil {
		return m.FailedResult(s.Name(), err)
	}

	decls, err := s.env.Locator.Declarations(ctx, u.Unit.Source)
	if err != nil {
		return m.FailedResult(s.Name(), err)
	}

	decl, ok := adapter.FindDeclaration(decls, u.Unit.Method, u.Unit.Index)
	if !ok {
		return m.FailedResult(s.Name(), fmt.Errorf("%w: %s", ErrMethodNotFound, u.Unit.ID))
	}

	suite, err := s.buildSuite(ctx, u)
	if err != nil {
		return m.FailedResult(s.Name(), err)
	}

	baseline, err := s.runBaseline(ctx, u)
	if err != nil {
		return m.FailedResult(s.Name(), err)
	}

	var (
		statuses []m.MRStatus
		records  []m.KillRecord
	)

	for _, relation := range relations {
		status := m.MRStatus{Experiment: relation.Experiment, MR: relation.Name, FP: ratio.Zero, MS: ratio.Zero}

		entry, ok := suite[relation.Key()]
		if !ok {
			u.Logger.Warn("No test class for relation", "mr", relation.Key())
			statuses = append(statuses, status)

			continue
		}

		outcome := baseline[entry.TestClass]
		status.FP = ratio.New(outcome.failures, max(0, entry.Tests-len(outcome.errorTests)))

		if outcome.failures > 0 {
			u.Logger.Info("Relation raised false positives", "mr", relation.Key(), "fp", status.FP.String())
			statuses = append(statuses, status)

			continue
		}

		kills, err := s.runMutations(ctx, u, relation, entry, outcome, excludedMethods(decls, u.Unit.Method), decl)
		if err != nil {
			return m.FailedResult(s.Name(), err)
		}

		status.MS = MutationScore(kills)
		statuses = append(statuses, status)
		records = append(records, m.KillRecord{Experiment: relation.Experiment, MR: relation.Name, Kills: kills})
	}

	mutants := 0
	if len(records) > 0 {
		mutants = len(records[0].Kills)
	}

	for _, record := range records {
		if len(record.Kills) != mutants {
			err := fmt.Errorf("%w: %s/%s has %d mutants, expected %d",
				ErrInconsistentMutantCount, record.Experiment, record.MR, len(record.Kills), mutants)
			u.Logger.Error("Failed to merge kill vectors", "error", err)

			return m.FailedResult(s.Name(), err)
		}
	}

	if err := s.env.Reports.SaveKillRecords(u.Layout.MutantsKilled(u.Unit.ID), mutants, records); err != nil {
		return m.FailedResult(s.Name(), err)
	}

	if err := s.env.Reports.SaveMRStatus(target, statuses); err != nil {
		return m.FailedResult(s.Name(), err)
	}

	u.Logger.Info("Scored relations", "relations", len(statuses), "mutants", mutants)

	return m.CompletedResult(s.Name(), target)
}

// buildSuite builds the executable test classes once and returns the suite
// manifest keyed by experiment/MR.
func (s *runMutationTestingStage) buildSuite(ctx context.Context, u *UnitContext) (map[string]m.SuiteEntry, error) {
	dir := u.Layout.SuiteDir(u.Unit.ID)
	manifest := s.env.FS.JoinPath(string(dir), SuiteFile)

	err := s.produce(dir, SuiteFile, func(staging m.Path) error {
		args := baseArgs(u)
		args.RelationsDir = string(u.Layout.RelationsDir(u.Unit.ID))
		args.FollowupsDir = string(u.Layout.FollowupsDir(u.Unit.ID))
		args.InputsDir = string(u.Layout.TestInputsDir(u.Unit.ID))
		args.OutDir = string(staging)
		args.OutFile = string(s.env.FS.JoinPath(string(staging), SuiteFile))

		return runTool(ctx, s.env, u, m.ToolSuiteBuilder, args)
	})
	if err != nil {
		return nil, err
	}

	entries, err := s.env.Reports.LoadSuite(manifest)
	if err != nil {
		return nil, err
	}

	suite := make(map[string]m.SuiteEntry, len(entries))
	for _, entry := range entries {
		suite[m.Relation{Experiment: entry.Experiment, Name: entry.MR}.Key()] = entry
	}

	return suite, nil
}

// runBaseline runs the whole suite once on the original program and groups
// failures by test class.
func (s *runMutationTestingStage) runBaseline(ctx context.Context, u *UnitContext) (map[string]baselineOutcome, error) {
	dir := u.Layout.BaselineDir(u.Unit.ID)

	err := s.produce(dir, FailuresFile, func(staging m.Path) error {
		args := baseArgs(u)
		args.SuiteDir = string(u.Layout.SuiteDir(u.Unit.ID))
		args.OutDir = string(staging)
		args.OutFile = string(s.env.FS.JoinPath(string(staging), FailuresFile))

		return runTool(ctx, s.env, u, m.ToolBaselineRunner, args)
	})
	if err != nil {
		return nil, err
	}

	failures, err := s.env.Reports.LoadTestFailures(s.env.FS.JoinPath(string(dir), FailuresFile))
	if err != nil {
		u.Logger.Error("Failed to load baseline failures", "error", err)
		return nil, err
	}

	outcomes := make(map[string]baselineOutcome)

	for _, failure := range failures {
		outcome := outcomes[failure.TestClass]

		switch failure.Type {
		case m.FailureAssertion:
			outcome.failures++
		case m.FailureError:
			outcome.errorTests = append(outcome.errorTests, failure.TestID)
		}

		outcomes[failure.TestClass] = outcome
	}

	return outcomes, nil
}

func (s *runMutationTestingStage) runMutations(
	ctx context.Context,
	u *UnitContext,
	relation m.Relation,
	entry m.SuiteEntry,
	outcome baselineOutcome,
	excluded []string,
	decl adapter.MethodDecl,
) (KillVector, error) {
	dir := u.Layout.ReportDir(u.Unit.ID, relation.Experiment, relation.Name)

	err := s.produce(dir, MutationsFile, func(staging m.Path) error {
		args := baseArgs(u)
		args.Experiment = relation.Experiment
		args.MR = relation.Name
		args.SuiteDir = string(u.Layout.SuiteDir(u.Unit.ID))
		args.TestClass = entry.TestClass
		args.ExcludedMethods = excluded
		args.ExcludedTests = outcome.errorTests
		args.OutDir = string(staging)
		args.OutFile = string(s.env.FS.JoinPath(string(staging), MutationsFile))

		return runTool(ctx, s.env, u, m.ToolMutationRunner, args)
	})
	if err != nil {
		return nil, err
	}

	results, err := s.env.Reports.LoadMutations(s.env.FS.JoinPath(string(dir), MutationsFile))
	if err != nil {
		return nil, err
	}

	return KillsInMethod(results, decl), nil
}

// produce builds the directory artifact dir through build unless it is
// already complete. build must write file into the staging directory.
func (s *runMutationTestingStage) produce(dir m.Path, file string, build func(staging m.Path) error) error {
	if s.env.FS.IsComplete(dir) {
		return nil
	}

	staging, err := s.env.FS.StagingDir(dir)
	if err != nil {
		return err
	}

	if err := build(staging); err != nil {
		_ = s.env.FS.RemoveAll(staging)
		return err
	}

	if !s.env.FS.Exists(s.env.FS.JoinPath(string(staging), file)) {
		_ = s.env.FS.RemoveAll(staging)
		return fmt.Errorf("%w: no %s written to %s", ErrToolFailed, file, dir)
	}

	return s.env.FS.Publish(staging, dir)
}

// KillsInMethod keeps the mutations on lines of decl, in report order, and
// marks killed and timed out mutants.
func KillsInMethod(results []m.MutationResult, decl adapter.MethodDecl) KillVector {
	var kills KillVector

	for _, result := range results {
		if result.Line < decl.StartLine || result.Line > decl.EndLine {
			continue
		}

		kills = append(kills, result.Verdict.IsKill())
	}

	return kills
}

func excludedMethods(decls []adapter.MethodDecl, method string) []string {
	var excluded []string

	for _, decl := range decls {
		if decl.Name != method && !slices.Contains(excluded, decl.Name) {
			excluded = append(excluded, decl.Name)
		}
	}

	sort.Strings(excluded)

	return excluded
}
