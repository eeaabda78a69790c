package model

// Variables holds the serialized inputs and outputs of one execution.
type Variables struct {
	Inputs  map[string]any `json:"inputs"`
	Outputs map[string]any `json:"outputs"`
}

// ExecutionState is one serialized execution of a unit's method for a
// variant and a test input.
type ExecutionState struct {
	SystemID  string    `json:"systemId"`
	TestID    string    `json:"testId"`
	Variables Variables `json:"variables"`
}

// Verdict classifies a variant's execution against the original.
type Verdict string

// Classification verdicts.
const (
	VerdictSame          Verdict = "O"
	VerdictKilled        Verdict = "X"
	VerdictPending       Verdict = "?"
	VerdictFalsePositive Verdict = "!"
	VerdictNoReference   Verdict = "-"
)

// ClassificationKey is the single key column written by classification.
const ClassificationKey = "@"

// ClassificationRow is one test's verdicts.
type ClassificationRow struct {
	TestID   string
	Verdicts []Verdict
}

// Classification holds the verdicts of one variant per test id.
type Classification struct {
	SystemID string
	Keys     []string
	Rows     []ClassificationRow
}
