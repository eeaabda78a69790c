package domain

import (
	"context"
	"log/slog"

	"mreval.dev/pkg/mreval/internal/adapter"
	m "mreval.dev/pkg/mreval/internal/model"
)

// UnitReport is the outcome of the pipeline for one unit.
type UnitReport struct {
	Unit    m.Unit
	Results []m.StageResult
	State   m.UnitState
	// Err is the error of the stage that abandoned the unit, if any.
	Err error
}

// Failed reports whether a stage failed for the unit.
func (r UnitReport) Failed() bool {
	return r.Err != nil
}

// PipelineReport collects the unit reports of a pipeline run.
type PipelineReport struct {
	RunID string
	Units []UnitReport
}

// StageCounts tallies stage results by status.
type StageCounts struct {
	Completed int
	Skipped   int
	Failed    int
}

// Counts tallies every stage result of the run.
func (r PipelineReport) Counts() StageCounts {
	var counts StageCounts

	for _, unit := range r.Units {
		for _, result := range unit.Results {
			switch result.Status {
			case m.Completed:
				counts.Completed++
			case m.Skipped:
				counts.Skipped++
			case m.Failed:
				counts.Failed++
			}
		}
	}

	return counts
}

// FailedUnits returns the units abandoned after a stage failure.
func (r PipelineReport) FailedUnits() []UnitReport {
	var failed []UnitReport

	for _, unit := range r.Units {
		if unit.Failed() {
			failed = append(failed, unit)
		}
	}

	return failed
}

// StageObserver is notified after every stage.
type StageObserver func(unit m.Unit, result m.StageResult)

// Orchestrator drives the stages over a set of units.
type Orchestrator interface {
	// RunPipeline runs stages in order for each unit, one unit after the
	// other. A failed stage abandons its unit only; the next unit still
	// runs. A cancelled context stops the run between stages.
	RunPipeline(ctx context.Context, units []m.Unit, stages []Stage) PipelineReport
}

type orchestrator struct {
	fsAdapter adapter.ArtifactFSAdapter
	layout    Layout
	settings  m.Settings
	runID     string
	observer  StageObserver
}

// NewOrchestrator constructs an Orchestrator writing below layout. observer
// may be nil.
func NewOrchestrator(
	fsAdapter adapter.ArtifactFSAdapter,
	layout Layout,
	settings m.Settings,
	runID string,
	observer StageObserver,
) Orchestrator {
	return &orchestrator{
		fsAdapter: fsAdapter,
		layout:    layout,
		settings:  settings,
		runID:     runID,
		observer:  observer,
	}
}

func (o *orchestrator) RunPipeline(ctx context.Context, units []m.Unit, stages []Stage) PipelineReport {
	report := PipelineReport{RunID: o.runID}

	for _, unit := range units {
		if ctx.Err() != nil {
			slog.Warn("Pipeline cancelled", "run", o.runID, "remaining", len(units)-len(report.Units))
			break
		}

		report.Units = append(report.Units, o.runUnit(ctx, unit, stages))
	}

	counts := report.Counts()
	slog.Info("Pipeline finished", "run", o.runID, "units", len(report.Units),
		"completed", counts.Completed, "skipped", counts.Skipped, "failed", counts.Failed)

	return report
}

func (o *orchestrator) runUnit(ctx context.Context, unit m.Unit, stages []Stage) UnitReport {
	u := NewUnitContext(o.runID, unit, o.layout, o.settings)
	unitReport := UnitReport{Unit: unit}

	for _, stage := range stages {
		if err := ctx.Err(); err != nil {
			unitReport.Err = err
			break
		}

		u.Logger.Debug("Running stage", "stage", stage.Name())

		result := o.runStage(ctx, stage, u)
		unitReport.Results = append(unitReport.Results, result)

		if o.observer != nil {
			o.observer(unit, result)
		}

		if result.Status == m.Failed {
			slog.Error("Stage failed", "run", o.runID, "unit", string(unit.ID), "stage", stage.Name(), "error", result.Err)
			unitReport.Err = result.Err

			break
		}

		u.Logger.Info("Stage finished", "stage", stage.Name(), "status", result.Status.String(), "reason", result.Reason)
	}

	unitReport.State = UnitStateOf(o.fsAdapter, o.layout, unit)

	return unitReport
}

// runStage reports a panicking stage as failed.
func (o *orchestrator) runStage(ctx context.Context, stage Stage, u *UnitContext) (result m.StageResult) {
	defer func() {
		if r := recover(); r != nil {
			result = m.FailedResult(stage.Name(), &stagePanic{value: r})
		}
	}()

	result = stage.Run(ctx, u)
	result.Stage = stage.Name()

	if result.Status == m.Failed && result.Err == nil {
		result.Err = ErrToolFailed
	}

	return result
}

type stagePanic struct {
	value any
}

func (p *stagePanic) Error() string {
	return "stage panicked: " + slog.AnyValue(p.value).String()
}
