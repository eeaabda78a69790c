package controller

import (
	"bytes"
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	m "mreval.dev/pkg/mreval/internal/model"
	"mreval.dev/pkg/mreval/pkg/ratio"
)

func newTestTUI(t *testing.T) (*TUI, *bytes.Buffer) {
	t.Helper()

	var buf bytes.Buffer

	cmd := &cobra.Command{}
	cmd.SetOut(&buf)

	return NewTUI(cmd), &buf
}

func updateModel(t *testing.T, model stageProgressModel, msgs ...tea.Msg) stageProgressModel {
	t.Helper()

	for _, msg := range msgs {
		next, _ := model.Update(msg)

		var ok bool

		model, ok = next.(stageProgressModel)
		require.True(t, ok)
	}

	return model
}

func TestStageProgressModel_TracksUnits(t *testing.T) {
	model := updateModel(t, newStageProgressModel(),
		runInfoMsg{RunID: "run-1", Units: 2, Stages: []m.StageName{m.StageGenerateMutants, m.StageGenerateTestInputs}, Workers: 3},
		stageResultMsg{unit: "Calc§abs§0", result: m.CompletedResult(m.StageGenerateMutants, "out")},
		stageResultMsg{unit: "Calc§max§0", result: m.FailedResult(m.StageGenerateMutants, errors.New("no mutants"))},
		stageResultMsg{unit: "Calc§abs§0", result: m.SkippedResult(m.StageGenerateTestInputs, "out", "inputs exist")},
	)

	assert.Equal(t, 4, model.total)
	assert.Equal(t, 3, model.done)
	assert.InDelta(t, 0.75, model.percent(), 1e-9)
	assert.Equal(t, []m.UnitID{"Calc§abs§0", "Calc§max§0"}, model.recent)
	assert.Equal(t, 2, model.units["Calc§abs§0"].finished)

	view := model.View()
	for _, want := range []string{
		"MR Eval - Pipeline Progress",
		"Run run-1: 2 unit(s), 2 stage(s), 3 worker(s)",
		"3/4",
		"Calc§abs§0 [2/2] generate-test-inputs -> skipped",
		"Calc§max§0 [1/2] generate-mutants -> failed (no mutants)",
		"Completed: 1 | Skipped: 1 | Failed: 1",
	} {
		assert.Contains(t, view, want)
	}
}

func TestStageProgressModel_KeepsRecentUnitsBounded(t *testing.T) {
	model := updateModel(t, newStageProgressModel(), runInfoMsg{Units: 20, Stages: []m.StageName{m.StageGenerateMutants}})

	for i := range 15 {
		model = updateModel(t, model, stageResultMsg{
			unit:   m.UnitID("C§m§" + string(rune('a'+i))),
			result: m.CompletedResult(m.StageGenerateMutants, ""),
		})
	}

	require.Len(t, model.recent, visibleUnits)
	assert.Equal(t, m.UnitID("C§m§o"), model.recent[0])
	assert.NotContains(t, model.View(), "C§m§a ")
}

func TestStageProgressModel_Quit(t *testing.T) {
	tests := []struct {
		name string
		msg  tea.Msg
	}{
		{name: "close", msg: closeMsg{}},
		{name: "ctrl+c", msg: tea.KeyMsg{Type: tea.KeyCtrlC}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, cmd := newStageProgressModel().Update(tt.msg)

			model, ok := next.(stageProgressModel)
			require.True(t, ok)
			assert.True(t, model.quitting)
			require.NotNil(t, cmd)
			assert.IsType(t, tea.QuitMsg{}, cmd())
		})
	}
}

func TestStageProgressModel_PercentWithoutTotal(t *testing.T) {
	model := updateModel(t, newStageProgressModel(),
		stageResultMsg{unit: "C§m§0", result: m.CompletedResult(m.StageGenerateMutants, "")})

	assert.Zero(t, model.percent())
}

func TestTUI_RunModeRendersProgress(t *testing.T) {
	tui, buf := newTestTUI(t)
	ctx := context.Background()

	require.NoError(t, tui.Start(ctx, WithRunMode()))

	tui.DisplayRunInfo(ctx, RunInfo{RunID: "run-1", Units: 1, Stages: []m.StageName{m.StageGenerateMutants}})
	tui.DisplayStageResult(ctx, m.Unit{ID: "Calc§abs§0"}, m.CompletedResult(m.StageGenerateMutants, "out"))

	require.NoError(t, tui.DisplayUnits(ctx, []UnitRow{{Unit: "Calc§abs§0", State: m.Scored, Completed: 1}}))
	tui.Close(ctx)

	got := buf.String()
	assert.Contains(t, got, "Calc§abs§0 [1/1] generate-mutants")
	assert.Contains(t, got, "TOTAL UNITS 1")
	assert.NotContains(t, got, "Stages: generate-mutants")
}

func TestTUI_ReportModePrintsTables(t *testing.T) {
	tui, buf := newTestTUI(t)
	ctx := context.Background()

	require.NoError(t, tui.Start(ctx, WithReportMode()))
	defer tui.Close(ctx)

	require.NoError(t, tui.DisplaySummary(ctx, []m.SummaryRow{
		{Unit: "Calc§abs§0", MS: ratio.New(1, 2), PZ: ratio.New(1, 1), PZO: ratio.New(1, 1)},
	}))

	got := buf.String()
	assert.Contains(t, got, "50.00%(1/2)")
	assert.NotContains(t, got, "Pipeline Progress")
}

func TestTUI_RunInfoWithoutProgressFallsBack(t *testing.T) {
	tui, buf := newTestTUI(t)
	ctx := context.Background()

	require.NoError(t, tui.Start(ctx, WithReportMode()))

	tui.DisplayRunInfo(ctx, RunInfo{RunID: "run-1", Units: 1, Workers: 1, ShardCount: 1})
	tui.Close(ctx)

	assert.Contains(t, buf.String(), "Run run-1: 1 unit(s)")
}

func TestNewUI(t *testing.T) {
	cmd := &cobra.Command{}

	assert.IsType(t, &TUI{}, NewUI(cmd, true))
	assert.IsType(t, &SimpleUI{}, NewUI(cmd, false))
}
