package domain

import (
	"context"
	"fmt"
	"strings"

	"mreval.dev/pkg/mreval/internal/adapter"
	m "mreval.dev/pkg/mreval/internal/model"
)

type generateFollowupsStage struct {
	env Env
}

// NewGenerateFollowupsStage generates follow-up inputs for every relation
// of the unit, one process per MR. An MR that runs past the follow-up
// timeout is published with only a TIMEOUT marker.
func NewGenerateFollowupsStage(env Env) Stage {
	return &generateFollowupsStage{env: env}
}

func (s *generateFollowupsStage) Name() m.StageName { return m.StageGenerateFollowups }

func (s *generateFollowupsStage) Target(*UnitContext) m.UnitState { return m.FollowupsReady }

type pendingFollowup struct {
	relation m.Relation
	staging  m.Path
	target   m.Path
	timedOut bool
	failed   bool
}

func (s *generateFollowupsStage) Run(ctx context.Context, u *UnitContext) m.StageResult {
	infoPath := u.Layout.MRInfo(u.Unit.ID)
	if s.env.FS.Exists(infoPath) {
		return m.SkippedResult(s.Name(), infoPath, "follow-ups exist")
	}

	relations, err := listRelations(s.env, u)
	if err != nil {
		return m.FailedResult(s.Name(), err)
	}

	pending, err := s.submit(ctx, u, relations)
	if err != nil {
		return m.FailedResult(s.Name(), err)
	}

	if err := s.collect(u, pending); err != nil {
		return m.FailedResult(s.Name(), err)
	}

	info := make([]m.MRInfo, 0, len(relations))
	for _, relation := range relations {
		info = append(info, m.MRInfo{
			MR:       relation.Key(),
			Source:   string(u.Layout.TestInputsDir(u.Unit.ID)),
			Followup: string(u.Layout.FollowupDir(u.Unit.ID, relation.Experiment, relation.Name)),
		})
	}

	if err := s.env.Reports.SaveMRInfo(infoPath, info); err != nil {
		return m.FailedResult(s.Name(), err)
	}

	return m.CompletedResult(s.Name(), infoPath)
}

func (s *generateFollowupsStage) submit(ctx context.Context, u *UnitContext, relations []m.Relation) ([]pendingFollowup, error) {
	pool := adapter.NewProcessPool(s.env.Processes, u.Settings.Workers)

	var pending []pendingFollowup

	abort := func(err error) ([]pendingFollowup, error) {
		pool.Wait()

		for _, p := range pending {
			discardStaging(s.env, u, p.staging)
		}

		return nil, err
	}

	for _, relation := range relations {
		target := u.Layout.FollowupDir(u.Unit.ID, relation.Experiment, relation.Name)
		if s.env.FS.IsComplete(target) {
			u.Logger.Debug("Skipping follow-ups", "mr", relation.Key())
			continue
		}

		staging, err := s.env.FS.StagingDir(target)
		if err != nil {
			return abort(err)
		}

		pending = append(pending, pendingFollowup{relation: relation, staging: staging, target: target})

		args := baseArgs(u)
		args.Experiment = relation.Experiment
		args.MR = relation.Name
		args.RelationDir = string(relation.Dir)
		args.InputFile = string(s.env.FS.JoinPath(string(relation.Dir), InputRelation))
		args.InputsDir = string(u.Layout.TestInputsDir(u.Unit.ID))
		args.StatesDir = string(u.Layout.StatesDir(u.Unit.ID))
		args.OutDir = string(staging)
		args.Timeout = u.Settings.FollowupTimeout

		cmd, err := s.env.Tools.Command(m.ToolFollowupGenerator, args)
		if err != nil {
			return abort(err)
		}

		if err := pool.Submit(ctx, cmd); err != nil {
			return abort(err)
		}
	}

	results := pool.Wait()
	for i, result := range results {
		switch {
		case result.TimedOut:
			pending[i].timedOut = true
		case !result.Success():
			u.Logger.Error("Tool failed", "tool", m.ToolFollowupGenerator, "mr", pending[i].relation.Key(),
				"exitCode", result.ExitCode, "output", tail(result.Output), "error", result.Err)

			pending[i].failed = true
		}
	}

	return pending, nil
}

// collect publishes every finished MR. A timed out MR keeps only the
// TIMEOUT marker. Failed MRs are discarded after the others are published.
func (s *generateFollowupsStage) collect(u *UnitContext, pending []pendingFollowup) error {
	var failed []string

	for _, p := range pending {
		if p.failed {
			discardStaging(s.env, u, p.staging)
			failed = append(failed, p.relation.Key())

			continue
		}

		if p.timedOut {
			u.Logger.Warn("Follow-up generation timed out", "mr", p.relation.Key(), "timeout", u.Settings.FollowupTimeout)

			if err := s.env.FS.RemoveAll(p.staging); err != nil {
				return fmt.Errorf("failed to clear timed out follow-ups: %w", err)
			}

			if err := s.env.FS.MkdirAll(p.staging); err != nil {
				return fmt.Errorf("failed to recreate staging directory: %w", err)
			}

			marker := s.env.FS.JoinPath(string(p.staging), TimeoutMarker)
			if err := s.env.FS.WriteFileAtomic(marker, []byte(u.Settings.FollowupTimeout.String()+"\n")); err != nil {
				return err
			}
		}

		if err := s.env.FS.Publish(p.staging, p.target); err != nil {
			discardStaging(s.env, u, p.staging)
			return err
		}
	}

	if len(failed) > 0 {
		return fmt.Errorf("%w: %s failed for %s", ErrToolFailed, m.ToolFollowupGenerator, strings.Join(failed, ", "))
	}

	return nil
}

// listRelations returns the unit's relations in experiment and MR order.
func listRelations(env Env, u *UnitContext) ([]m.Relation, error) {
	root := u.Layout.RelationsDir(u.Unit.ID)

	experiments, err := env.FS.ListDirs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to list relations: %w", err)
	}

	var relations []m.Relation

	for _, experiment := range experiments {
		mrs, err := env.FS.ListDirs(env.FS.JoinPath(string(root), experiment))
		if err != nil {
			return nil, fmt.Errorf("failed to list relations: %w", err)
		}

		for _, mr := range mrs {
			relations = append(relations, m.Relation{
				Experiment: experiment,
				Name:       mr,
				Dir:        u.Layout.RelationDir(u.Unit.ID, experiment, mr),
			})
		}
	}

	return relations, nil
}
