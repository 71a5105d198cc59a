package cmd

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "corpuschat",
	Short: "Grounded research chat over company announcement corpora",
	Long: `Corpuschat lets you pick a listed company and a set of announcement
filters, keeps a knowledge store in sync with your selection, and answers
research questions grounded on those documents with citations.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".corpuschat.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
