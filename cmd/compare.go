package cmd

import (
	"github.com/spf13/cobra"

	"mreval.dev/pkg/mreval/internal/domain"
	m "mreval.dev/pkg/mreval/internal/model"
)

var compareMetricsFlag []string

// compareCmd represents the compare command.
var compareCmd = newCompareCmd()

func newCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare <per-run-csv> <strategy-a> <strategy-b>",
		Short: "Compare two strategies statistically",
		Long: `Pair the per-run rows of two strategies by unit, seed and test seed and
report means, medians, the Vargha-Delaney A12 effect size and a Wilcoxon
signed-rank p-value for each metric.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return currentWorkflow(nil).Compare(cmd.Context(), domain.CompareArgs{
				Input:     m.Path(args[0]),
				StrategyA: args[1],
				StrategyB: args[2],
				Metrics:   compareMetricsFlag,
			})
		},
	}

	cmd.Flags().StringSliceVar(&compareMetricsFlag, "metrics", domain.DefaultMetrics, "metrics to compare (ms, fp)")

	return cmd
}

func init() {
	rootCmd.AddCommand(compareCmd)
}
