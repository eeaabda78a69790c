// Package cmd provides the root command and CLI setup for mreval.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"mreval.dev/pkg/mreval/internal/controller"
	"mreval.dev/pkg/mreval/internal/domain"
	m "mreval.dev/pkg/mreval/internal/model"
)

var ui controller.UI

// workflow replaces the tool-wired workflow when set.
var workflow domain.Workflow

// outputDirFlag is a root-level flag naming the results root.
var outputDirFlag string

// verboseFlag switches logging to debug.
var verboseFlag bool

func init() {
	configureRootFlags(rootCmd)

	ui = controller.NewUI(rootCmd, controller.IsTTY(os.Stdout))
}

const unitPatternsHelp = `Units are named Class§method§index. Patterns use glob syntax:
  - Calc§*§*       every method of Calc
  - Calc**         the same, "**" crosses the § separator
  - *§abs§0        the first abs overload of every class`

const rootLongDescription = `mreval evaluates generated test oracles (assertions and metamorphic
relations) against mutants of the program under test. It drives external
generators, executors and mutation runners through a resumable per-unit
pipeline and aggregates the results into mutation scores.

` + unitPatternsHelp

const runLongDescription = `Run the evaluation pipeline for the configured units (default: all).

Stages whose artifacts are already complete are skipped, so an interrupted
run resumes where it stopped.

` + unitPatternsHelp

const unitsLongDescription = `List the configured units and the pipeline state derived from their
artifacts.

` + unitPatternsHelp

// rootCmd represents the base command when called without any subcommands.
var rootCmd = baseRootCmd()

func newRootCmd() *cobra.Command {
	cmd := baseRootCmd()
	configureRootFlags(cmd)

	return cmd
}

func baseRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "mreval",
		Short:        "Test oracle evaluation pipeline",
		Long:         rootLongDescription,
		SilenceUsage: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			configureLogger(viper.GetString(logFilenameKey), viper.GetBool(logVerboseKey))
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
}

func configureRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().
		StringVarP(
			&outputDirFlag, outputFlagName, "o",
			viper.GetString(outputFlagName),
			"results root the pipeline writes below",
		)
	bindFlagToConfig(cmd.PersistentFlags().Lookup(outputFlagName), outputFlagName)

	cmd.PersistentFlags().BoolVarP(&verboseFlag, verboseFlagName, "v", viper.GetBool(logVerboseKey), "log at debug level")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(verboseFlagName), logVerboseKey)
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(viper.BindPFlag(key, flag))
}

// currentWorkflow returns the workflow wired with the configured tools.
func currentWorkflow(tools m.Tools) domain.Workflow {
	if workflow != nil {
		return workflow
	}

	return domain.NewWorkflow(domain.NewEnv(tools), ui)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
// An interrupt cancels the running pipeline between stages.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)

	stop()

	if err != nil {
		os.Exit(1)
	}
}

func parsePaths(args []string) []m.Path {
	paths := make([]m.Path, 0, len(args))
	for _, arg := range args {
		paths = append(paths, m.Path(arg))
	}

	return paths
}
