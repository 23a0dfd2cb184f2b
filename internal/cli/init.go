package cli

import (
	"errors"
	"fmt"

	"github.com/mvp-joe/centrifuge/internal/config"
	"github.com/spf13/cobra"
)

var forceFlag bool

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default .centrifuge/config.yml",
	RunE: func(cmd *cobra.Command, args []string) error {
		rootDir, err := projectRoot()
		if err != nil {
			return err
		}

		path, err := config.WriteDefault(rootDir, forceFlag)
		if errors.Is(err, config.ErrConfigExists) {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&forceFlag, "force", false, "Overwrite an existing configuration")
}
