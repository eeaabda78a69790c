package cmd

import (
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"mreval.dev/pkg/mreval/internal/domain"
	domainmocks "mreval.dev/pkg/mreval/internal/domain/mocks"
	m "mreval.dev/pkg/mreval/internal/model"
)

func TestMergeCmd_Summary(t *testing.T) {
	mockWorkflow := domainmocks.NewMockWorkflow(t)
	cmd, _ := newTestCmd(t, newMergeCmd(), mockWorkflow)

	mockWorkflow.EXPECT().Merge(mock.Anything, domain.MergeArgs{
		Roots:  []m.Path{"results_seed1", "results_seed2"},
		Output: "summary.csv",
	}).Return(nil)

	cmd.SetArgs([]string{"merge", "results_seed1", "results_seed2", "--summary", "summary.csv"})
	require.NoError(t, cmd.Execute())
}

func TestMergeCmd_PerRunWithExtraFalsePositives(t *testing.T) {
	mockWorkflow := domainmocks.NewMockWorkflow(t)
	cmd, _ := newTestCmd(t, newMergeCmd(), mockWorkflow)

	mockWorkflow.EXPECT().Merge(mock.Anything, domain.MergeArgs{
		Roots:               []m.Path{"results_seed1"},
		ExtraFalsePositives: "extra_fp.csv",
		PerRun:              true,
	}).Return(nil)

	cmd.SetArgs([]string{"merge", "--per-run", "--extra-fp", "extra_fp.csv", "results_seed1"})
	require.NoError(t, cmd.Execute())
}

func TestMergeCmd_RequiresRoots(t *testing.T) {
	mockWorkflow := domainmocks.NewMockWorkflow(t)
	cmd, _ := newTestCmd(t, newMergeCmd(), mockWorkflow)

	cmd.SetArgs([]string{"merge"})
	require.Error(t, cmd.Execute())
}
