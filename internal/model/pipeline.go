package model

import "fmt"

// StageName identifies a pipeline stage.
type StageName string

// Pipeline stages in dependency order.
const (
	StageGenerateMutants    StageName = "generate-mutants"
	StageGenerateTestInputs StageName = "generate-test-inputs"
	StageCaptureStates      StageName = "capture-states"
	StageClassifyStates     StageName = "classify-states"
	StageDeriveRelations    StageName = "derive-relations"
	StageGenerateFollowups  StageName = "generate-followups"
	StageRunMutationTesting StageName = "run-mutation-testing"
)

// StageStatus is the outcome of running a stage for a unit.
type StageStatus int

const (
	// Skipped indicates the stage artifact was already complete.
	Skipped StageStatus = iota
	// Completed indicates the stage produced its artifact.
	Completed
	// Failed indicates the stage could not produce its artifact.
	Failed
)

func (s StageStatus) String() string {
	switch s {
	case Skipped:
		return "skipped"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("StageStatus(%d)", int(s))
	}
}

// StageResult is what a stage reports back to the orchestrator.
type StageResult struct {
	Stage    StageName
	Status   StageStatus
	Reason   string
	Artifact Path
	Err      error
}

// SkippedResult reports an already complete artifact.
func SkippedResult(stage StageName, artifact Path, reason string) StageResult {
	return StageResult{Stage: stage, Status: Skipped, Artifact: artifact, Reason: reason}
}

// CompletedResult reports a freshly produced artifact.
func CompletedResult(stage StageName, artifact Path) StageResult {
	return StageResult{Stage: stage, Status: Completed, Artifact: artifact}
}

// FailedResult reports a stage failure.
func FailedResult(stage StageName, err error) StageResult {
	return StageResult{Stage: stage, Status: Failed, Err: err}
}

// UnitState is the progress of one unit through the pipeline.
type UnitState int

// Unit states, monotonic in pipeline order.
const (
	Pending UnitState = iota
	MutantsReady
	InputsReady
	StatesReady
	Classified
	RelationsReady
	FollowupsReady
	Scored
)

var unitStateNames = [...]string{
	"Pending",
	"MutantsReady",
	"InputsReady",
	"StatesReady",
	"Classified",
	"RelationsReady",
	"FollowupsReady",
	"Scored",
}

func (s UnitState) String() string {
	if s < Pending || int(s) >= len(unitStateNames) {
		return fmt.Sprintf("UnitState(%d)", int(s))
	}

	return unitStateNames[s]
}
