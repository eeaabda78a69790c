package cmd

import (
	"github.com/spf13/cobra"

	"mreval.dev/pkg/mreval/internal/domain"
	m "mreval.dev/pkg/mreval/internal/model"
)

var mergePerRunFlag bool
var mergeExtraFPFlag string
var mergeSummaryFlag string

// mergeCmd represents the merge command.
var mergeCmd = newMergeCmd()

func newMergeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge <results-roots...>",
		Short: "Merge results roots into unit scores",
		Long: `Merge the mrs_status.csv and mutants_killed.csv files of several results
roots (one pipeline output per test seed) into per-unit MS, PZ and PZO
scores, or into per-run FP and MS values with --per-run.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return currentWorkflow(nil).Merge(cmd.Context(), domain.MergeArgs{
				Roots:               parsePaths(args),
				ExtraFalsePositives: m.Path(mergeExtraFPFlag),
				PerRun:              mergePerRunFlag,
				Output:              m.Path(mergeSummaryFlag),
			})
		},
	}

	cmd.Flags().BoolVar(&mergePerRunFlag, "per-run", false, "report FP and MS per strategy, seed and test seed")
	cmd.Flags().StringVar(&mergeExtraFPFlag, "extra-fp", "", "CSV (EXPERIMENT,UNIT,MR) of relations known to be false positives")
	cmd.Flags().StringVar(&mergeSummaryFlag, "summary", "", "write the merged rows to this CSV file")

	return cmd
}

func init() {
	rootCmd.AddCommand(mergeCmd)
}
