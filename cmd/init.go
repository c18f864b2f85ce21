package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shophub/supportflow/internal/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a configuration file interactively",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !initForce {
			if _, err := os.Stat(cfgFile); err == nil {
				return fmt.Errorf("%s already exists, use --force to overwrite", cfgFile)
			}
		}
		_, err := config.RunWizard()
		return err
	},
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite an existing config file")
	rootCmd.AddCommand(initCmd)
}
