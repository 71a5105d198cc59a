package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ausiq/corpuschat/internal/catalog"
)

var loadCmd = &cobra.Command{
	Use:   "load [dir]",
	Short: "Load companies and announcements from a data directory",
	Long: `Reads a companies.yml manifest and the markdown documents under
markdown/<TICKER>/ and upserts them into the announcement index.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		d, err := buildStoreDeps(cfg)
		if err != nil {
			return err
		}
		defer d.Close()

		loader := catalog.NewLoader(d.announcements)
		stats, err := loader.Load(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Loaded %d companies and %d announcements", stats.Companies, stats.Announcements)
		if stats.Skipped > 0 {
			fmt.Printf(" (%d skipped)", stats.Skipped)
		}
		fmt.Println(".")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loadCmd)
}
