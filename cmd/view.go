package cmd

import (
	"github.com/spf13/cobra"

	"mreval.dev/pkg/mreval/internal/domain"
	m "mreval.dev/pkg/mreval/internal/model"
)

var viewPerRunFlag bool

// viewCmd represents the view command.
var viewCmd = newViewCmd()

func newViewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view <csv>",
		Short: "View a merged summary",
		Long:  "View a summary CSV written by merge --summary as a table.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return currentWorkflow(nil).View(cmd.Context(), domain.ViewArgs{
				Path:   m.Path(args[0]),
				PerRun: viewPerRunFlag,
			})
		},
	}

	cmd.Flags().BoolVar(&viewPerRunFlag, "per-run", false, "the file holds per-run rows")

	return cmd
}

func init() {
	rootCmd.AddCommand(viewCmd)
}
