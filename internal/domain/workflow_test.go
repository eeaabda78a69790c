package domain

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"mreval.dev/pkg/mreval/internal/adapter"
	"mreval.dev/pkg/mreval/internal/controller"
	controllermocks "mreval.dev/pkg/mreval/internal/controller/mocks"
	m "mreval.dev/pkg/mreval/internal/model"
	"mreval.dev/pkg/mreval/pkg/ratio"
)

func newWorkflowConfig(t *testing.T) m.Config {
	t.Helper()

	return m.Config{
		Output:   m.Path(t.TempDir()),
		Subjects: []m.Subject{{Class: "Calc", Source: "calc.go"}},
		Defaults: m.Settings{Workers: 1, FollowupTimeout: time.Second, Experiments: "*"},
		Profiles: map[string]m.Overrides{},
	}
}

func workflowLocator() fakeLocator {
	return fakeLocator{decls: map[m.Path][]adapter.MethodDecl{
		"calc.go": {
			{Name: "add", Index: 0, StartLine: 3, EndLine: 5},
			{Name: "abs", Index: 0, StartLine: 7, EndLine: 13},
		},
	}}
}

func TestWorkflow_Run(t *testing.T) {
	tools := newFakeTools(map[string]toolFunc{
		m.ToolTestGenerator: generatorWriting(map[string]string{"a.in": "x=1"}),
	})
	ui := controllermocks.NewMockUI(t)
	config := newWorkflowConfig(t)

	ui.EXPECT().Start(mock.Anything, mock.Anything).Return(nil).Once()
	ui.EXPECT().DisplayRunInfo(mock.Anything, mock.MatchedBy(func(info controller.RunInfo) bool {
		return info.Units == 1 && info.Workers == 3 && info.ShardCount == 2 &&
			len(info.Stages) == 1 && info.Stages[0] == m.StageGenerateTestInputs && info.RunID != ""
	})).Return().Once()
	ui.EXPECT().DisplayStageResult(mock.Anything, mock.Anything, mock.MatchedBy(func(result m.StageResult) bool {
		return result.Stage == m.StageGenerateTestInputs && result.Status == m.Completed
	})).Return().Once()
	ui.EXPECT().DisplayUnits(mock.Anything, []controller.UnitRow{
		{Unit: "Calc§add§0", State: m.Pending, Completed: 1},
	}).Return(nil).Once()
	ui.EXPECT().Close(mock.Anything).Return().Once()

	report, err := NewWorkflow(newTestEnv(tools, workflowLocator()), ui).Run(context.Background(), RunArgs{
		Config:     config,
		Stages:     []string{string(m.StageGenerateTestInputs)},
		Workers:    3,
		ShardIndex: 0,
		ShardCount: 2,
	})
	require.NoError(t, err)

	require.Len(t, report.Units, 1)
	assert.Equal(t, m.UnitID("Calc§add§0"), report.Units[0].Unit.ID)
	assert.Equal(t, 1, tools.Calls(m.ToolTestGenerator))

	layout := NewLayout(config.Output)
	assert.True(t, newTestEnv(tools, nil).FS.IsComplete(layout.TestInputsDir("Calc§add§0")))
}

func TestWorkflow_Run_InvalidArguments(t *testing.T) {
	tests := []struct {
		name    string
		args    func(config m.Config) RunArgs
		wantErr error
	}{
		{
			name:    "unknown profile",
			args:    func(config m.Config) RunArgs { return RunArgs{Config: config, Profile: "nightly"} },
			wantErr: m.ErrInvalidConfig,
		},
		{
			name:    "unknown stage",
			args:    func(config m.Config) RunArgs { return RunArgs{Config: config, Stages: []string{"compile"}} },
			wantErr: ErrUnknownStage,
		},
		{
			name:    "invalid pattern",
			args:    func(config m.Config) RunArgs { return RunArgs{Config: config, Patterns: []string{"Calc[§"}} },
			wantErr: m.ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ui := controllermocks.NewMockUI(t)
			workflow := NewWorkflow(newTestEnv(newFakeTools(nil), workflowLocator()), ui)

			_, err := workflow.Run(context.Background(), tt.args(newWorkflowConfig(t)))
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestWorkflow_Units(t *testing.T) {
	ui := controllermocks.NewMockUI(t)
	config := newWorkflowConfig(t)

	ui.EXPECT().Start(mock.Anything, mock.Anything).Return(nil).Once()
	ui.EXPECT().DisplayUnits(mock.Anything, []controller.UnitRow{
		{Unit: "Calc§abs§0", State: m.Pending},
	}).Return(nil).Once()
	ui.EXPECT().Close(mock.Anything).Return().Once()

	err := NewWorkflow(newTestEnv(newFakeTools(nil), workflowLocator()), ui).Units(context.Background(), UnitsArgs{
		Config:   config,
		Patterns: []string{"Calc§abs§*"},
	})
	require.NoError(t, err)
}

func TestWorkflow_Merge(t *testing.T) {
	_, reports, roots := newResultsRoots(t)
	ui := controllermocks.NewMockUI(t)
	dir := t.TempDir()

	extraFP := filepath.Join(dir, "extra_fp.csv")
	writeFile(t, extraFP, "EXPERIMENT,UNIT,MR\n"+random+",C§m§0,MR0\n")

	expected := []m.SummaryRow{
		{Unit: "C§m§0", MS: ratio.New(2, 6), PZ: ratio.New(3, 4), PZO: ratio.New(2, 4)},
		{Unit: "C§n§0", MS: ratio.New(0, 0), PZ: ratio.Zero, PZO: ratio.Zero},
	}

	ui.EXPECT().Start(mock.Anything, mock.Anything).Return(nil).Once()
	ui.EXPECT().DisplaySummary(mock.Anything, expected).Return(nil).Once()
	ui.EXPECT().Close(mock.Anything).Return().Once()

	output := m.Path(filepath.Join(dir, "summary.csv"))

	err := NewWorkflow(newTestEnv(newFakeTools(nil), nil), ui).Merge(context.Background(), MergeArgs{
		Roots:               roots,
		ExtraFalsePositives: m.Path(extraFP),
		Output:              output,
	})
	require.NoError(t, err)

	saved, err := reports.LoadSummary(output)
	require.NoError(t, err)
	assert.Equal(t, expected, saved)
}

func TestWorkflow_MergePerRun(t *testing.T) {
	_, reports, roots := newResultsRoots(t)
	ui := controllermocks.NewMockUI(t)

	ui.EXPECT().Start(mock.Anything, mock.Anything).Return(nil).Once()
	ui.EXPECT().DisplayRunRows(mock.Anything, mock.MatchedBy(func(rows []m.RunRow) bool {
		return len(rows) == 3
	})).Return(nil).Once()
	ui.EXPECT().Close(mock.Anything).Return().Once()

	output := m.Path(filepath.Join(t.TempDir(), "per_run.csv"))

	err := NewWorkflow(newTestEnv(newFakeTools(nil), nil), ui).Merge(context.Background(), MergeArgs{
		Roots:  roots,
		PerRun: true,
		Output: output,
	})
	require.NoError(t, err)

	saved, err := reports.LoadRunRows(output)
	require.NoError(t, err)
	require.Len(t, saved, 3)
	assert.Equal(t, "random", saved[2].Strategy)
}

func TestWorkflow_Merge_MissingExtraFalsePositives(t *testing.T) {
	_, _, roots := newResultsRoots(t)
	ui := controllermocks.NewMockUI(t)

	err := NewWorkflow(newTestEnv(newFakeTools(nil), nil), ui).Merge(context.Background(), MergeArgs{
		Roots:               roots,
		ExtraFalsePositives: m.Path(filepath.Join(t.TempDir(), "missing.csv")),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "extra false positives")
}

func TestWorkflow_View(t *testing.T) {
	env := newTestEnv(newFakeTools(nil), nil)
	path := m.Path(filepath.Join(t.TempDir(), "summary.csv"))
	rows := []m.SummaryRow{{Unit: "C§m§0", MS: ratio.New(1, 2), PZ: ratio.New(1, 1), PZO: ratio.New(0, 1)}}
	require.NoError(t, env.Reports.SaveSummary(path, rows))

	ui := controllermocks.NewMockUI(t)
	ui.EXPECT().Start(mock.Anything, mock.Anything).Return(nil).Once()
	ui.EXPECT().DisplaySummary(mock.Anything, rows).Return(nil).Once()
	ui.EXPECT().Close(mock.Anything).Return().Once()

	require.NoError(t, NewWorkflow(env, ui).View(context.Background(), ViewArgs{Path: path}))
}

func TestWorkflow_Compare(t *testing.T) {
	env := newTestEnv(newFakeTools(nil), nil)
	path := m.Path(filepath.Join(t.TempDir(), "per_run.csv"))
	require.NoError(t, env.Reports.SaveRunRows(path, []m.RunRow{
		{Unit: "C§m§0", Strategy: "llm", Seed: "1", TestSeed: "1", FP: 0, MS: 0.9},
		{Unit: "C§m§0", Strategy: "random", Seed: "1", TestSeed: "1", FP: 0, MS: 0.5},
		{Unit: "C§n§0", Strategy: "llm", Seed: "1", TestSeed: "1", FP: 0, MS: 0.8},
		{Unit: "C§n§0", Strategy: "random", Seed: "1", TestSeed: "1", FP: 0, MS: 0.4},
	}))

	ui := controllermocks.NewMockUI(t)
	ui.EXPECT().Start(mock.Anything, mock.Anything).Return(nil).Once()
	ui.EXPECT().DisplayComparison(mock.Anything, mock.MatchedBy(func(comparisons []m.Comparison) bool {
		return len(comparisons) == 2 &&
			comparisons[0].Metric == "ms" && comparisons[0].Effect == EffectLarge &&
			comparisons[1].Metric == "fp" && comparisons[1].Effect == EffectNegligible
	})).Return(nil).Once()
	ui.EXPECT().Close(mock.Anything).Return().Once()

	err := NewWorkflow(env, ui).Compare(context.Background(), CompareArgs{
		Input:     path,
		StrategyA: "llm",
		StrategyB: "random",
	})
	require.NoError(t, err)
}

func TestWorkflow_Compare_UnknownStrategy(t *testing.T) {
	env := newTestEnv(newFakeTools(nil), nil)
	path := m.Path(filepath.Join(t.TempDir(), "per_run.csv"))
	require.NoError(t, env.Reports.SaveRunRows(path, []m.RunRow{
		{Unit: "C§m§0", Strategy: "llm", Seed: "1", TestSeed: "1", FP: 0, MS: 0.9},
	}))

	err := NewWorkflow(env, controllermocks.NewMockUI(t)).Compare(context.Background(), CompareArgs{
		Input:     path,
		StrategyA: "llm",
		StrategyB: "manual",
	})
	require.ErrorIs(t, err, ErrNoPairs)
}
