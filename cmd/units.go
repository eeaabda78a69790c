package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"mreval.dev/pkg/mreval/internal/domain"
	m "mreval.dev/pkg/mreval/internal/model"
)

// unitsCmd represents the units command.
var unitsCmd = newUnitsCmd()

func newUnitsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "units [unit-patterns...]",
		Short: "List units and their pipeline state",
		Long:  unitsLongDescription,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig("")
			if err != nil {
				return err
			}

			config.Output = m.Path(viper.GetString(outputFlagName))

			return currentWorkflow(config.Tools).Units(cmd.Context(), domain.UnitsArgs{
				Config:   config,
				Patterns: args,
			})
		},
	}

	return cmd
}

func init() {
	rootCmd.AddCommand(unitsCmd)
}
