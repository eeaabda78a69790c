package domain

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"mreval.dev/pkg/mreval/internal/adapter"
	"mreval.dev/pkg/mreval/internal/controller"
	m "mreval.dev/pkg/mreval/internal/model"
)

// DefaultMetrics are compared when CompareArgs names none.
var DefaultMetrics = []string{"ms", "fp"}

// RunArgs contains the arguments for running the pipeline.
type RunArgs struct {
	Config     m.Config
	Profile    string
	Patterns   []string
	Stages     []string
	Workers    int
	ShardIndex uint
	ShardCount uint
}

// UnitsArgs contains the arguments for listing units.
type UnitsArgs struct {
	Config   m.Config
	Patterns []string
}

// MergeArgs contains the arguments for aggregating results roots.
type MergeArgs struct {
	Roots               []m.Path
	ExtraFalsePositives m.Path
	PerRun              bool
	Output              m.Path
}

// ViewArgs contains the arguments for printing a merged CSV.
type ViewArgs struct {
	Path   m.Path
	PerRun bool
}

// CompareArgs contains the arguments for comparing two strategies.
type CompareArgs struct {
	Input     m.Path
	StrategyA string
	StrategyB string
	Metrics   []string
}

// Workflow defines the interface for the evaluation workflow behind every
// command.
type Workflow interface {
	Run(ctx context.Context, args RunArgs) (PipelineReport, error)
	Units(ctx context.Context, args UnitsArgs) error
	Merge(ctx context.Context, args MergeArgs) error
	View(ctx context.Context, args ViewArgs) error
	Compare(ctx context.Context, args CompareArgs) error
}

type workflow struct {
	env Env
	ui  controller.UI
}

// NewWorkflow creates a new Workflow instance with the provided dependencies.
func NewWorkflow(env Env, ui controller.UI) Workflow {
	return &workflow{env: env, ui: ui}
}

func (w *workflow) Run(ctx context.Context, args RunArgs) (PipelineReport, error) {
	settings, err := args.Config.Resolve(args.Profile)
	if err != nil {
		return PipelineReport{}, err
	}

	if args.Workers > 0 {
		settings.Workers = args.Workers
	}

	if settings.Workers <= 0 {
		settings.Workers = adapter.DefaultWorkers()
	}

	units, err := w.selectUnits(ctx, args.Config, args.Patterns)
	if err != nil {
		return PipelineReport{}, err
	}

	units = ShardUnits(units, args.ShardIndex, args.ShardCount)

	stages, err := SelectStages(NewStages(w.env), args.Stages)
	if err != nil {
		return PipelineReport{}, err
	}

	runID := uuid.NewString()

	if err := w.ui.Start(ctx, controller.WithRunMode()); err != nil {
		return PipelineReport{}, err
	}
	defer w.ui.Close(ctx)

	names := make([]m.StageName, 0, len(stages))
	for _, stage := range stages {
		names = append(names, stage.Name())
	}

	w.ui.DisplayRunInfo(ctx, controller.RunInfo{
		RunID:      runID,
		Output:     args.Config.Output,
		Units:      len(units),
		Stages:     names,
		Workers:    settings.Workers,
		ShardIndex: args.ShardIndex,
		ShardCount: args.ShardCount,
	})

	observer := func(unit m.Unit, result m.StageResult) {
		w.ui.DisplayStageResult(ctx, unit, result)
	}

	orchestrator := NewOrchestrator(w.env.FS, NewLayout(args.Config.Output), settings, runID, observer)
	report := orchestrator.RunPipeline(ctx, units, stages)

	rows := make([]controller.UnitRow, 0, len(report.Units))
	for _, unit := range report.Units {
		row := controller.UnitRow{Unit: unit.Unit.ID, State: unit.State, Err: unit.Err}

		for _, result := range unit.Results {
			switch result.Status {
			case m.Completed:
				row.Completed++
			case m.Skipped:
				row.Skipped++
			case m.Failed:
				row.Failed++
			}
		}

		rows = append(rows, row)
	}

	if err := w.ui.DisplayUnits(ctx, rows); err != nil {
		return report, err
	}

	return report, ctx.Err()
}

func (w *workflow) Units(ctx context.Context, args UnitsArgs) error {
	units, err := w.selectUnits(ctx, args.Config, args.Patterns)
	if err != nil {
		return err
	}

	if err := w.ui.Start(ctx, controller.WithReportMode()); err != nil {
		return err
	}
	defer w.ui.Close(ctx)

	layout := NewLayout(args.Config.Output)
	rows := make([]controller.UnitRow, 0, len(units))

	for _, unit := range units {
		rows = append(rows, controller.UnitRow{Unit: unit.ID, State: UnitStateOf(w.env.FS, layout, unit)})
	}

	return w.ui.DisplayUnits(ctx, rows)
}

func (w *workflow) Merge(ctx context.Context, args MergeArgs) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var extra []adapter.ExtraFalsePositive

	if args.ExtraFalsePositives != "" {
		loaded, err := w.env.Reports.LoadExtraFalsePositives(args.ExtraFalsePositives)
		if err != nil {
			slog.Error("Failed to load extra false positives", "path", args.ExtraFalsePositives, "error", err)
			return fmt.Errorf("failed to load extra false positives: %w", err)
		}

		extra = loaded
	}

	spillDir, err := os.MkdirTemp("", "mreval-merge-")
	if err != nil {
		return fmt.Errorf("failed to create spill directory: %w", err)
	}
	defer os.RemoveAll(spillDir)

	aggregator := NewAggregator(w.env.FS, w.env.Reports, spillDir)

	if err := w.ui.Start(ctx, controller.WithReportMode()); err != nil {
		return err
	}
	defer w.ui.Close(ctx)

	if args.PerRun {
		rows, err := aggregator.PerRun(args.Roots, extra)
		if err != nil {
			return fmt.Errorf("failed to merge per-run results: %w", err)
		}

		if args.Output != "" {
			if err := w.env.Reports.SaveRunRows(args.Output, rows); err != nil {
				return fmt.Errorf("failed to save per-run results: %w", err)
			}
		}

		return w.ui.DisplayRunRows(ctx, rows)
	}

	rows, err := aggregator.Summarize(args.Roots, extra)
	if err != nil {
		return fmt.Errorf("failed to merge results: %w", err)
	}

	if args.Output != "" {
		if err := w.env.Reports.SaveSummary(args.Output, rows); err != nil {
			return fmt.Errorf("failed to save summary: %w", err)
		}
	}

	return w.ui.DisplaySummary(ctx, rows)
}

func (w *workflow) View(ctx context.Context, args ViewArgs) error {
	if err := w.ui.Start(ctx, controller.WithReportMode()); err != nil {
		return err
	}
	defer w.ui.Close(ctx)

	if args.PerRun {
		rows, err := w.env.Reports.LoadRunRows(args.Path)
		if err != nil {
			return fmt.Errorf("failed to load per-run results: %w", err)
		}

		return w.ui.DisplayRunRows(ctx, rows)
	}

	rows, err := w.env.Reports.LoadSummary(args.Path)
	if err != nil {
		return fmt.Errorf("failed to load summary: %w", err)
	}

	return w.ui.DisplaySummary(ctx, rows)
}

func (w *workflow) Compare(ctx context.Context, args CompareArgs) error {
	rows, err := w.env.Reports.LoadRunRows(args.Input)
	if err != nil {
		return fmt.Errorf("failed to load per-run results: %w", err)
	}

	metrics := args.Metrics
	if len(metrics) == 0 {
		metrics = DefaultMetrics
	}

	comparisons := make([]m.Comparison, 0, len(metrics))

	for _, metric := range metrics {
		comparison, err := Compare(rows, metric, args.StrategyA, args.StrategyB)
		if err != nil {
			slog.Error("Failed to compare strategies", "metric", metric, "a", args.StrategyA, "b", args.StrategyB, "error", err)
			return fmt.Errorf("failed to compare %s: %w", metric, err)
		}

		comparisons = append(comparisons, comparison)
	}

	if err := w.ui.Start(ctx, controller.WithReportMode()); err != nil {
		return err
	}
	defer w.ui.Close(ctx)

	return w.ui.DisplayComparison(ctx, comparisons)
}

func (w *workflow) selectUnits(ctx context.Context, config m.Config, patterns []string) ([]m.Unit, error) {
	units, err := EnumerateUnits(ctx, w.env.Locator, config.Subjects)
	if err != nil {
		return nil, err
	}

	selected, err := SelectUnits(units, patterns)
	if err != nil {
		return nil, err
	}

	slog.Info("Found units", "total", len(units), "selected", len(selected))

	return selected, nil
}
