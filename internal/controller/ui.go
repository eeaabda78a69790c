// Package controller provides output adapters for displaying pipeline
// progress and results.
package controller

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	m "mreval.dev/pkg/mreval/internal/model"
)

// StartMode defines the mode of operation for the UI.
type StartMode int

// Available StartMode values.
const (
	ModeReport StartMode = iota
	ModeRun
)

// StartOption is a functional option for Start method.
type StartOption func(*StartConfig)

// StartConfig holds configuration for starting the UI.
type StartConfig struct {
	mode StartMode
}

// WithRunMode makes the UI print per-stage progress.
func WithRunMode() StartOption {
	return func(c *StartConfig) {
		c.mode = ModeRun
	}
}

// WithReportMode makes the UI print tables only.
func WithReportMode() StartOption {
	return func(c *StartConfig) {
		c.mode = ModeReport
	}
}

// RunInfo describes a pipeline run before it starts.
type RunInfo struct {
	RunID      string
	Output     m.Path
	Units      int
	Stages     []m.StageName
	Workers    int
	ShardIndex uint
	ShardCount uint
}

// UnitRow is one line of a unit table.
type UnitRow struct {
	Unit      m.UnitID
	State     m.UnitState
	Completed int
	Skipped   int
	Failed    int
	Err       error
}

// UI defines the interface for displaying pipeline output.
// Implementations can use different output methods (plain text, colored).
//
//nolint:interfacebloat // One method per command output.
type UI interface {
	Start(ctx context.Context, options ...StartOption) error
	Close(ctx context.Context)
	DisplayRunInfo(ctx context.Context, info RunInfo)
	DisplayStageResult(ctx context.Context, unit m.Unit, result m.StageResult)
	DisplayUnits(ctx context.Context, rows []UnitRow) error
	DisplaySummary(ctx context.Context, rows []m.SummaryRow) error
	DisplayRunRows(ctx context.Context, rows []m.RunRow) error
	DisplayComparison(ctx context.Context, comparisons []m.Comparison) error
}

// NewUI returns the interactive TUI when color is true (a terminal) and a
// plain SimpleUI otherwise.
func NewUI(cmd *cobra.Command, color bool) UI {
	if color {
		return NewTUI(cmd)
	}

	return NewSimpleUI(cmd, false)
}

// IsTTY reports whether w is a terminal.
func IsTTY(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}

	return term.IsTerminal(int(file.Fd())) //nolint:gosec // File descriptors fit in int.
}
