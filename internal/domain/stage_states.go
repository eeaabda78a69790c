package domain

import (
	"context"
	"errors"
	"fmt"

	"mreval.dev/pkg/mreval/internal/adapter"
	m "mreval.dev/pkg/mreval/internal/model"
)

// ErrNoBaselineStates is returned when no test input yields a state on the
// original program.
var ErrNoBaselineStates = errors.New("no state captured on the original program")

type testInput struct {
	test string
	file m.Path
}

type captureStatesStage struct {
	env Env
}

// NewCaptureStatesStage executes the unit's test inputs on the original
// program and on every relevant mutant.
func NewCaptureStatesStage(env Env) Stage {
	return &captureStatesStage{env: env}
}

func (s *captureStatesStage) Name() m.StageName { return m.StageCaptureStates }

func (s *captureStatesStage) Target(*UnitContext) m.UnitState { return m.StatesReady }

func (s *captureStatesStage) Run(ctx context.Context, u *UnitContext) m.StageResult {
	target := u.Layout.StatesDir(u.Unit.ID)
	if s.env.FS.IsComplete(target) {
		return m.SkippedResult(s.Name(), target, "states exist")
	}

	inputs, err := listTestInputs(s.env, u)
	if err != nil {
		return m.FailedResult(s.Name(), err)
	}

	if len(inputs) == 0 {
		return m.FailedResult(s.Name(), ErrNoTestInputs)
	}

	mutants, _, err := relevantMutants(ctx, s.env, u)
	if err != nil {
		u.Logger.Error("Failed to find relevant mutants", "error", err)
		return m.FailedResult(s.Name(), err)
	}

	staging, err := s.env.FS.StagingDir(target)
	if err != nil {
		return m.FailedResult(s.Name(), err)
	}

	if err := s.captureAll(ctx, u, staging, inputs, mutants); err != nil {
		discardStaging(s.env, u, staging)
		return m.FailedResult(s.Name(), err)
	}

	if err := s.env.FS.Publish(staging, target); err != nil {
		discardStaging(s.env, u, staging)
		return m.FailedResult(s.Name(), err)
	}

	return m.CompletedResult(s.Name(), target)
}

func (s *captureStatesStage) captureAll(ctx context.Context, u *UnitContext, staging m.Path, inputs []testInput, mutants []m.Mutant) error {
	workRoot, err := s.env.FS.CreateTempDir("mreval-variants-*")
	if err != nil {
		return fmt.Errorf("failed to create work directory: %w", err)
	}

	defer func() {
		if err := s.env.FS.RemoveAll(workRoot); err != nil {
			u.Logger.Warn("Failed to remove work directory", "path", workRoot, "error", err)
		}
	}()

	built, err := s.capture(ctx, u, workRoot, staging, m.OriginalVariant, "", inputs)
	if err != nil {
		return err
	}

	if !built {
		return fmt.Errorf("%w: %s could not build the original program", ErrToolFailed, m.ToolVariantBuilder)
	}

	report, err := removeCorruptStates(s.env, u, staging)
	if err != nil {
		return err
	}

	inputs, err = s.dropInputsWithoutBaseline(u, staging, inputs)
	if err != nil {
		return err
	}

	if len(inputs) == 0 {
		u.Logger.Error("Failed to capture states", "error", ErrNoBaselineStates)
		return ErrNoBaselineStates
	}

	captured := 0

	for _, mutant := range mutants {
		if err := ctx.Err(); err != nil {
			return err
		}

		mutantSource := u.Layout.MutantSource(u.Unit.Class, mutant.ID, u.Unit.Source)

		diff, err := s.env.Differ.Diff(u.Unit.Source, mutantSource)
		if err != nil {
			u.Logger.Warn("Skipping mutant without readable source", "mutant", mutant.ID, "error", err)
			continue
		}

		if diff == "" {
			u.Logger.Debug("Skipping mutant identical to the original", "mutant", mutant.ID)
			continue
		}

		u.Logger.Debug("Capturing mutant", "mutant", mutant.ID, "diff", diff)

		mutantDir := s.env.FS.JoinPath(string(u.Layout.MutantsDir(u.Unit.Class)), mutant.ID)

		built, err := s.capture(ctx, u, workRoot, staging, m.MutantVariant(mutant.ID), mutantDir, inputs)
		if err != nil {
			return err
		}

		if built {
			captured++
		}
	}

	second, err := removeCorruptStates(s.env, u, staging)
	if err != nil {
		return err
	}

	for _, testID := range append(report.Conflicting, second.Conflicting...) {
		s.removeInput(u, inputs, testID)
	}

	u.Logger.Info("Captured states", "inputs", len(inputs), "mutants", captured, "relevant", len(mutants))

	return nil
}

// capture builds variant and runs every input on it through the process
// pool. It returns false when the variant does not build.
func (s *captureStatesStage) capture(
	ctx context.Context,
	u *UnitContext,
	workRoot, staging m.Path,
	variant string,
	mutantDir m.Path,
	inputs []testInput,
) (bool, error) {
	workDir := s.env.FS.JoinPath(string(workRoot), variant)
	if err := s.env.FS.MkdirAll(workDir); err != nil {
		return false, fmt.Errorf("failed to create work directory: %w", err)
	}

	args := baseArgs(u)
	args.Variant = variant
	args.MutantDir = string(mutantDir)
	args.WorkDir = string(workDir)
	args.OutDir = string(workDir)
	args.StatesDir = string(staging)

	result, err := s.env.Tools.Run(ctx, m.ToolVariantBuilder, args)
	if err != nil {
		return false, err
	}

	if !result.Success() {
		u.Logger.Warn("Skipping variant that does not build", "variant", variant, "exitCode", result.ExitCode)
		return false, nil
	}

	pool := adapter.NewProcessPool(s.env.Processes, u.Settings.Workers)

	for _, input := range inputs {
		inputArgs := args
		inputArgs.TestID = input.test
		inputArgs.InputFile = string(input.file)
		inputArgs.OutFile = string(s.env.FS.JoinPath(string(staging), m.StateFileName(u.Unit.ID, variant, input.test)))

		cmd, err := s.env.Tools.Command(m.ToolStateExecutor, inputArgs)
		if err != nil {
			pool.Wait()
			return false, err
		}

		if err := pool.Submit(ctx, cmd); err != nil {
			pool.Wait()
			return false, err
		}
	}

	for _, result := range pool.Wait() {
		if !result.Success() {
			u.Logger.Debug("No state captured", "variant", variant, "command", result.Command.String(), "exitCode", result.ExitCode)
		}
	}

	return true, nil
}

// dropInputsWithoutBaseline deletes every test input that has no state on
// the original program.
func (s *captureStatesStage) dropInputsWithoutBaseline(u *UnitContext, staging m.Path, inputs []testInput) ([]testInput, error) {
	kept := inputs[:0:0]

	for _, input := range inputs {
		state := s.env.FS.JoinPath(string(staging), m.StateFileName(u.Unit.ID, m.OriginalVariant, input.test))
		if s.env.FS.Exists(state) {
			kept = append(kept, input)
			continue
		}

		u.Logger.Info("Removing test input without baseline state", "test", input.test)

		if err := s.env.FS.Remove(input.file); err != nil {
			return nil, fmt.Errorf("failed to remove test input: %w", err)
		}
	}

	return kept, nil
}

func (s *captureStatesStage) removeInput(u *UnitContext, inputs []testInput, testID string) {
	for _, input := range inputs {
		if input.test != testID || !s.env.FS.Exists(input.file) {
			continue
		}

		u.Logger.Info("Removing test input with inconsistent states", "test", testID)

		if err := s.env.FS.Remove(input.file); err != nil {
			u.Logger.Warn("Failed to remove test input", "path", input.file, "error", err)
		}
	}
}

func listTestInputs(env Env, u *UnitContext) ([]testInput, error) {
	dir := u.Layout.TestInputsDir(u.Unit.ID)

	names, err := env.FS.ListFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list test inputs: %w", err)
	}

	var inputs []testInput

	for _, name := range names {
		unit, test, ok := m.ParseTestInputFileName(name)
		if !ok || unit != u.Unit.ID {
			continue
		}

		inputs = append(inputs, testInput{test: test, file: env.FS.JoinPath(string(dir), name)})
	}

	return inputs, nil
}
