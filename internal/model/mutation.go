package model

import (
	"errors"
	"fmt"
)

// ErrUnknownVerdict is returned for mutation-testing verdicts outside the
// known vocabulary.
var ErrUnknownVerdict = errors.New("unknown mutation verdict")

// ErrUnknownFailureType is returned for baseline failures that are neither
// failures nor errors.
var ErrUnknownFailureType = errors.New("unknown test failure type")

// Mutant is one generated mutant of a subject class.
type Mutant struct {
	ID   string
	Line int
}

// MutationVerdict is a mutation-testing runner verdict for one mutant.
type MutationVerdict string

// Known runner verdicts.
const (
	NoCoverage  MutationVerdict = "NO_COVERAGE"
	Survived    MutationVerdict = "SURVIVED"
	MemoryError MutationVerdict = "MEMORY_ERROR"
	TimedOut    MutationVerdict = "TIMED_OUT"
	Killed      MutationVerdict = "KILLED"
)

// ParseMutationVerdict validates a runner verdict.
func ParseMutationVerdict(s string) (MutationVerdict, error) {
	switch v := MutationVerdict(s); v {
	case NoCoverage, Survived, MemoryError, TimedOut, Killed:
		return v, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownVerdict, s)
	}
}

// IsKill reports whether the verdict counts the mutant as killed.
func (v MutationVerdict) IsKill() bool {
	return v == Killed || v == TimedOut
}

// MutationResult is one row of a runner's mutations report.
type MutationResult struct {
	SourceFile  string
	Class       string
	Operator    string
	Method      string
	Line        int
	Verdict     MutationVerdict
	FailingTest string
}

// FailureType is how a test failed on the unmutated program.
type FailureType string

// Baseline failure types.
const (
	// FailureAssertion is a check that failed, i.e. a false positive.
	FailureAssertion FailureType = "FAILURE"
	// FailureError is a test that crashed; it is excluded from mutation testing.
	FailureError FailureType = "ERROR"
)

// ParseFailureType validates a baseline failure type.
func ParseFailureType(s string) (FailureType, error) {
	switch t := FailureType(s); t {
	case FailureAssertion, FailureError:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFailureType, s)
	}
}

// TestFailure is one failing test of the baseline run.
type TestFailure struct {
	TestClass string
	TestID    string
	Type      FailureType
}
