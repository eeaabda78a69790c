// Package domain runs the resumable evaluation pipeline and aggregates its
// results into mutation scores.
package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"mreval.dev/pkg/mreval/internal/adapter"
	m "mreval.dev/pkg/mreval/internal/model"
)

var (
	// ErrToolFailed is returned when an external tool exits unsuccessfully
	// and the stage cannot continue.
	ErrToolFailed = errors.New("external tool failed")
	// ErrUnknownStage is returned for stage names outside the pipeline.
	ErrUnknownStage = errors.New("unknown stage")
	// ErrMethodNotFound is returned when a unit's method is absent from its
	// source.
	ErrMethodNotFound = errors.New("method not found")
)

// Stage is one step of the per-unit pipeline. Stages only communicate
// through artifacts on disk.
type Stage interface {
	Name() m.StageName
	// Target is the unit state reached once the stage's artifact exists.
	Target(u *UnitContext) m.UnitState
	Run(ctx context.Context, u *UnitContext) m.StageResult
}

// UnitContext is everything a stage needs to process one unit.
type UnitContext struct {
	Unit     m.Unit
	Layout   Layout
	Settings m.Settings
	RunID    string
	Logger   *slog.Logger
}

// NewUnitContext returns a UnitContext whose logger carries the run and
// unit ids.
func NewUnitContext(runID string, unit m.Unit, layout Layout, settings m.Settings) *UnitContext {
	return &UnitContext{
		Unit:     unit,
		Layout:   layout,
		Settings: settings,
		RunID:    runID,
		Logger:   slog.Default().With("run", runID, "unit", string(unit.ID)),
	}
}

// Env holds the adapters shared by all stages.
type Env struct {
	FS        adapter.ArtifactFSAdapter
	Tools     adapter.ToolAdapter
	Processes adapter.ProcessAdapter
	Reports   adapter.ReportStore
	States    adapter.StateStore
	Differ    adapter.SourceDiffer
	Locator   adapter.MethodLocator
	// Mutagen replaces the mutation_engine tool for Go sources when the
	// tool is not configured.
	Mutagen Mutagen
}

// NewEnv wires the local adapters for tools. The Go locator is used unless
// a method_locator tool is configured.
func NewEnv(tools m.Tools) Env {
	fsAdapter := adapter.NewLocalArtifactFSAdapter()
	processes := adapter.NewLocalProcessAdapter()
	toolAdapter := adapter.NewToolAdapter(tools, processes)

	var locator adapter.MethodLocator = adapter.NewGoMethodLocator(fsAdapter)
	if toolAdapter.Has(m.ToolMethodLocator) {
		locator = adapter.NewCommandMethodLocator(toolAdapter)
	}

	return Env{
		FS:        fsAdapter,
		Tools:     toolAdapter,
		Processes: processes,
		Reports:   adapter.NewReportStore(fsAdapter),
		States:    adapter.NewStateStore(fsAdapter),
		Differ:    adapter.NewSourceDiffer(fsAdapter),
		Locator:   locator,
		Mutagen:   NewMutagen(fsAdapter),
	}
}

// NewStages returns the pipeline stages in dependency order.
func NewStages(env Env) []Stage {
	return []Stage{
		NewGenerateMutantsStage(env),
		NewGenerateTestInputsStage(env),
		NewCaptureStatesStage(env),
		NewClassifyStatesStage(env),
		NewDeriveRelationsStage(env),
		NewGenerateFollowupsStage(env),
		NewRunMutationTestingStage(env),
	}
}

// SelectStages keeps the stages named in names, preserving pipeline order.
// No names keeps every stage.
func SelectStages(stages []Stage, names []string) ([]Stage, error) {
	if len(names) == 0 {
		return stages, nil
	}

	known := make([]string, 0, len(stages))
	for _, stage := range stages {
		known = append(known, string(stage.Name()))
	}

	for _, name := range names {
		if !slices.Contains(known, name) {
			return nil, fmt.Errorf("%w: %q (known: %s)", ErrUnknownStage, name, strings.Join(known, ", "))
		}
	}

	var selected []Stage

	for _, stage := range stages {
		if slices.Contains(names, string(stage.Name())) {
			selected = append(selected, stage)
		}
	}

	return selected, nil
}

// UnitStateOf derives the state of unit from the artifacts present below
// layout. The walk stops at the first missing artifact.
func UnitStateOf(fsAdapter adapter.ArtifactFSAdapter, layout Layout, unit m.Unit) m.UnitState {
	checks := []struct {
		done  bool
		state m.UnitState
	}{
		{fsAdapter.Exists(layout.MutantsLog(unit.Class)), m.MutantsReady},
		{fsAdapter.IsComplete(layout.TestInputsDir(unit.ID)), m.InputsReady},
		{fsAdapter.IsComplete(layout.StatesDir(unit.ID)), m.StatesReady},
		{fsAdapter.IsComplete(layout.ClassificationsDir(unit.ID)), m.Classified},
		{fsAdapter.IsComplete(layout.RelationsDir(unit.ID)), m.RelationsReady},
		{fsAdapter.Exists(layout.MRInfo(unit.ID)), m.FollowupsReady},
		{fsAdapter.Exists(layout.MRStatus(unit.ID)), m.Scored},
	}

	state := m.Pending

	for _, check := range checks {
		if !check.done {
			break
		}

		state = check.state
	}

	return state
}

// runTool runs tool name and turns a non-zero exit into ErrToolFailed.
func runTool(ctx context.Context, env Env, u *UnitContext, name string, args adapter.ToolArgs) error {
	result, err := env.Tools.Run(ctx, name, args)
	if err != nil {
		u.Logger.Error("Failed to prepare tool", "tool", name, "error", err)
		return err
	}

	if !result.Success() {
		u.Logger.Error("Tool failed", "tool", name, "exitCode", result.ExitCode, "output", tail(result.Output), "error", result.Err)
		return fmt.Errorf("%w: %s exited with code %d", ErrToolFailed, name, result.ExitCode)
	}

	return nil
}

// baseArgs fills the unit fields of ToolArgs.
func baseArgs(u *UnitContext) adapter.ToolArgs {
	return adapter.ToolArgs{
		Unit:     string(u.Unit.ID),
		Class:    u.Unit.Class,
		Method:   u.Unit.Method,
		Index:    u.Unit.Index,
		Source:   string(u.Unit.Source),
		Seed:     u.Settings.RandomSeed,
		MaxTests: u.Settings.MaxTests,
	}
}

// discardStaging removes a staging directory left behind by a failed run.
func discardStaging(env Env, u *UnitContext, staging m.Path) {
	if err := env.FS.RemoveAll(staging); err != nil {
		u.Logger.Warn("Failed to remove staging directory", "path", staging, "error", err)
	}
}

func tail(output string) string {
	const limit = 2048
	if len(output) <= limit {
		return output
	}

	return output[len(output)-limit:]
}
