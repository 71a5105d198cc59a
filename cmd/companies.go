package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var companiesCmd = &cobra.Command{
	Use:   "companies",
	Short: "List the companies in the catalog",
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

		companies, err := d.announcements.Companies(cmd.Context())
		if err != nil {
			return err
		}
		if len(companies) == 0 {
			fmt.Println("The company catalog is empty.")
			return nil
		}
		for _, c := range companies {
			if c.Industry != "" {
				fmt.Printf("%-6s %s (%s)\n", c.Ticker, c.Name, c.Industry)
			} else {
				fmt.Printf("%-6s %s\n", c.Ticker, c.Name)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(companiesCmd)
}
