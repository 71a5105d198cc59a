package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ausiq/corpuschat/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize corpuschat configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure corpuschat and generates a .corpuschat.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard()
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
