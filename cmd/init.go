package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// initCmd represents the init command.
var initCmd = newInitCmd()

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Generate a default mreval.yaml configuration file",
		Long: `Create a mreval.yaml in the current working directory with default
settings and a placeholder command for every external tool, ready to be
edited manually. An existing file is never overwritten.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			targetPath := filepath.Join(configFolderPath, configFileName)

			data, err := yaml.Marshal(defaultConfig())
			if err != nil {
				return fmt.Errorf("failed to encode config: %w", err)
			}

			file, err := os.OpenFile(targetPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
			if err != nil {
				if errors.Is(err, fs.ErrExist) {
					return fmt.Errorf("config file %s already exists", targetPath)
				}

				return fmt.Errorf("failed to write config file: %w", err)
			}
			defer file.Close()

			if _, err := file.Write(data); err != nil {
				return fmt.Errorf("failed to write config file: %w", err)
			}

			cmd.Println("wrote", targetPath)

			return nil
		},
	}
}

func init() {
	rootCmd.AddCommand(initCmd)
}
