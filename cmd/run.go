package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"mreval.dev/pkg/mreval/internal/domain"
	m "mreval.dev/pkg/mreval/internal/model"
)

var runParallelFlag int
var runProfileFlag string
var runShardFlag string
var runStagesFlag []string

// runCmd represents the run command.
var runCmd = newRunCmd()

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [unit-patterns...]",
		Short: "Run the evaluation pipeline",
		Long:  runLongDescription,
		RunE: func(cmd *cobra.Command, args []string) error {
			shardIndex, totalShards := parseShardFlag(runShardFlag)
			profile := viper.GetString(runProfileConfigKey)

			config, err := loadConfig(profile)
			if err != nil {
				return err
			}

			config.Output = m.Path(viper.GetString(outputFlagName))

			report, err := currentWorkflow(config.Tools).Run(cmd.Context(), domain.RunArgs{
				Config:     config,
				Profile:    profile,
				Patterns:   args,
				Stages:     runStagesFlag,
				Workers:    viper.GetInt(runParallelConfigKey),
				ShardIndex: uint(shardIndex),  //nolint:gosec // parseShardFlag never returns negatives.
				ShardCount: uint(totalShards), //nolint:gosec // parseShardFlag never returns negatives.
			})
			if err != nil {
				return err
			}

			if failed := report.FailedUnits(); len(failed) > 0 {
				return fmt.Errorf("%d of %d unit(s) failed: %w", len(failed), len(report.Units), failed[0].Err)
			}

			return nil
		},
	}

	configureRunFlags(cmd)

	return cmd
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func configureRunFlags(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&runParallelFlag, runParallelFlagName, "p", viper.GetInt(runParallelConfigKey), "number of parallel tool processes (0 uses the profile setting)")
	bindFlagToConfig(cmd.Flags().Lookup(runParallelFlagName), runParallelConfigKey)
	cmd.Flags().StringVar(&runProfileFlag, runProfileFlagName, viper.GetString(runProfileConfigKey), "settings profile applied over the defaults")
	bindFlagToConfig(cmd.Flags().Lookup(runProfileFlagName), runProfileConfigKey)
	cmd.Flags().StringVarP(&runShardFlag, "shard", "s", "", "shard index and total shard count in the format INDEX/TOTAL (e.g., 0/3)")
	cmd.Flags().StringSliceVar(&runStagesFlag, runStagesFlagName, nil, "run only these stages (e.g., generate-mutants,capture-states)")
}

func parseShardFlag(shard string) (int, int) {
	if shard == "" {
		return 0, 1
	}

	var index, total int

	_, err := fmt.Sscanf(shard, "%d/%d", &index, &total)
	if err != nil || total <= 0 || index < 0 || index >= total {
		return 0, 1
	}

	return index, total
}
