package domain

import (
	"context"
	"fmt"

	"mreval.dev/pkg/mreval/internal/adapter"
	m "mreval.dev/pkg/mreval/internal/model"
)

type generateMutantsStage struct {
	env Env
}

// NewGenerateMutantsStage runs the mutation engine once per subject class.
// The mutant tree is shared read-only by every unit of the class.
func NewGenerateMutantsStage(env Env) Stage {
	return &generateMutantsStage{env: env}
}

func (s *generateMutantsStage) Name() m.StageName { return m.StageGenerateMutants }

func (s *generateMutantsStage) Target(*UnitContext) m.UnitState { return m.MutantsReady }

func (s *generateMutantsStage) Run(ctx context.Context, u *UnitContext) m.StageResult {
	logPath := u.Layout.MutantsLog(u.Unit.Class)
	if s.env.FS.Exists(logPath) {
		return m.SkippedResult(s.Name(), logPath, "mutants log exists")
	}

	target := u.Layout.MutantsDir(u.Unit.Class)

	staging, err := s.env.FS.StagingDir(target)
	if err != nil {
		return m.FailedResult(s.Name(), err)
	}

	stagingLog := s.env.FS.JoinPath(string(staging), engineLogFile)

	if err := s.generate(ctx, u, staging, stagingLog); err != nil {
		discardStaging(s.env, u, staging)
		return m.FailedResult(s.Name(), err)
	}

	content, err := s.env.FS.ReadFile(stagingLog)
	if err != nil {
		discardStaging(s.env, u, staging)
		u.Logger.Error("Failed to read mutants log", "path", stagingLog, "error", err)

		return m.FailedResult(s.Name(), fmt.Errorf("failed to read mutants log: %w", err))
	}

	if err := s.env.FS.Remove(stagingLog); err != nil {
		discardStaging(s.env, u, staging)
		return m.FailedResult(s.Name(), fmt.Errorf("failed to move mutants log: %w", err))
	}

	if err := s.env.FS.Publish(staging, target); err != nil {
		discardStaging(s.env, u, staging)
		return m.FailedResult(s.Name(), err)
	}

	// The log is the completion signal and goes last.
	if err := s.env.FS.WriteFileAtomic(logPath, content); err != nil {
		return m.FailedResult(s.Name(), err)
	}

	mutants, err := s.env.Reports.LoadMutantsLog(logPath)
	if err != nil {
		return m.FailedResult(s.Name(), err)
	}

	u.Logger.Info("Generated mutants", "class", u.Unit.Class, "count", len(mutants))

	return m.CompletedResult(s.Name(), logPath)
}

// generate runs the mutation_engine tool, or the built-in engine for Go
// sources when no tool is configured.
func (s *generateMutantsStage) generate(ctx context.Context, u *UnitContext, staging, stagingLog m.Path) error {
	if s.env.Mutagen == nil || s.env.Tools.Has(m.ToolMutationEngine) || !IsGoSource(u.Unit.Source) {
		args := baseArgs(u)
		args.OutDir = string(staging)
		args.OutFile = string(stagingLog)

		return runTool(ctx, s.env, u, m.ToolMutationEngine, args)
	}

	count, err := s.env.Mutagen.GenerateMutants(ctx, u.Unit.Class, u.Unit.Source, staging, stagingLog)
	if err != nil {
		u.Logger.Error("Failed to generate mutants", "source", u.Unit.Source, "error", err)
		return err
	}

	u.Logger.Debug("Generated mutants with the built-in engine", "source", u.Unit.Source, "count", count)

	return nil
}

// relevantMutants returns the mutants of the unit's class whose line lies
// inside the unit's method.
func relevantMutants(ctx context.Context, env Env, u *UnitContext) ([]m.Mutant, adapter.MethodDecl, error) {
	decl, err := locateUnit(ctx, env, u)
	if err != nil {
		return nil, decl, err
	}

	mutants, err := env.Reports.LoadMutantsLog(u.Layout.MutantsLog(u.Unit.Class))
	if err != nil {
		return nil, decl, err
	}

	var relevant []m.Mutant

	for _, mutant := range mutants {
		if mutant.Line >= decl.StartLine && mutant.Line <= decl.EndLine {
			relevant = append(relevant, mutant)
		}
	}

	return relevant, decl, nil
}

func locateUnit(ctx context.Context, env Env, u *UnitContext) (adapter.MethodDecl, error) {
	decls, err := env.Locator.Declarations(ctx, u.Unit.Source)
	if err != nil {
		return adapter.MethodDecl{}, err
	}

	decl, ok := adapter.FindDeclaration(decls, u.Unit.Method, u.Unit.Index)
	if !ok {
		return adapter.MethodDecl{}, fmt.Errorf("%w: %s", ErrMethodNotFound, u.Unit.ID)
	}

	return decl, nil
}
