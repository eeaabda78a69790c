package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gobwas/glob"
	"golang.org/x/sync/errgroup"
	m "mreval.dev/pkg/mreval/internal/model"
)

// ErrNoRelations is returned when no metamorphic relation exists for a unit.
var ErrNoRelations = errors.New("no metamorphic relations")

const (
	mrFileExt       = ".mr.txt"
	translateLimit  = 8
	experimentsGlob = "*"
)

type deriveRelationsStage struct {
	env Env
}

// NewDeriveRelationsStage splits every MR of the unit into input and output
// relations and translates them into executable checks.
func NewDeriveRelationsStage(env Env) Stage {
	return &deriveRelationsStage{env: env}
}

func (s *deriveRelationsStage) Name() m.StageName { return m.StageDeriveRelations }

func (s *deriveRelationsStage) Target(*UnitContext) m.UnitState { return m.RelationsReady }

func (s *deriveRelationsStage) Run(ctx context.Context, u *UnitContext) m.StageResult {
	target := u.Layout.RelationsDir(u.Unit.ID)
	if s.env.FS.IsComplete(target) {
		return m.SkippedResult(s.Name(), target, "relations exist")
	}

	sources, err := s.findMRs(u)
	if err != nil {
		return m.FailedResult(s.Name(), err)
	}

	if len(sources) == 0 {
		u.Logger.Error("Failed to derive relations", "assertions", u.Settings.AssertionsDir, "error", ErrNoRelations)
		return m.FailedResult(s.Name(), ErrNoRelations)
	}

	staging, err := s.env.FS.StagingDir(target)
	if err != nil {
		return m.FailedResult(s.Name(), err)
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(translateLimit)

	for _, source := range sources {
		group.Go(func() error {
			return s.derive(groupCtx, u, staging, source)
		})
	}

	if err := group.Wait(); err != nil {
		discardStaging(s.env, u, staging)
		return m.FailedResult(s.Name(), err)
	}

	if err := s.env.FS.Publish(staging, target); err != nil {
		discardStaging(s.env, u, staging)
		return m.FailedResult(s.Name(), err)
	}

	u.Logger.Info("Derived relations", "count", len(sources))

	return m.CompletedResult(s.Name(), target)
}

type mrSource struct {
	experiment string
	mr         string
	file       m.Path
}

// findMRs lists <assertions>/<experiment>/<unit>/<unit>@<MR>.mr.txt for every
// experiment matching the configured pattern.
func (s *deriveRelationsStage) findMRs(u *UnitContext) ([]mrSource, error) {
	pattern := u.Settings.Experiments
	if pattern == "" {
		pattern = experimentsGlob
	}

	matcher, err := glob.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: experiments pattern %q: %w", m.ErrInvalidConfig, pattern, err)
	}

	experiments, err := s.env.FS.ListDirs(u.Settings.AssertionsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list experiments: %w", err)
	}

	var sources []mrSource

	for _, experiment := range experiments {
		if !matcher.Match(experiment) {
			continue
		}

		dir := s.env.FS.JoinPath(string(u.Settings.AssertionsDir), experiment, string(u.Unit.ID))

		names, err := s.env.FS.ListFiles(dir)
		if err != nil {
			return nil, fmt.Errorf("failed to list relations: %w", err)
		}

		for _, name := range names {
			base, ok := strings.CutSuffix(name, mrFileExt)
			if !ok {
				continue
			}

			unit, rest, err := m.SplitVariantID(base)
			if err != nil || unit != u.Unit.ID || len(rest) != 1 {
				u.Logger.Debug("Ignoring relation file", "file", name)
				continue
			}

			sources = append(sources, mrSource{
				experiment: experiment,
				mr:         rest[0],
				file:       s.env.FS.JoinPath(string(dir), name),
			})
		}
	}

	return sources, nil
}

func (s *deriveRelationsStage) derive(ctx context.Context, u *UnitContext, staging m.Path, source mrSource) error {
	dir := s.env.FS.JoinPath(string(staging), source.experiment, source.mr)
	if err := s.env.FS.MkdirAll(dir); err != nil {
		return fmt.Errorf("failed to create relation directory: %w", err)
	}

	args := baseArgs(u)
	args.Experiment = source.experiment
	args.MR = source.mr
	args.InputFile = string(source.file)
	args.RelationDir = string(dir)
	args.OutDir = string(dir)

	if err := runTool(ctx, s.env, u, m.ToolRelationSplitter, args); err != nil {
		return err
	}

	for _, name := range []string{InputRelation, OutputRelation} {
		if !s.env.FS.Exists(s.env.FS.JoinPath(string(dir), name)) {
			return fmt.Errorf("%w: %s wrote no %s relation for %s/%s",
				ErrToolFailed, m.ToolRelationSplitter, name, source.experiment, source.mr)
		}
	}

	return runTool(ctx, s.env, u, m.ToolRelationTranslator, args)
}
