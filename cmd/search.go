package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ausiq/corpuschat/internal/progress"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search a company's announcement corpus",
	Long: `Runs a semantic search over the selected company's announcements and
prints the matching excerpts ranked by relevance.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().String("ticker", "", "company ticker (required)")
	searchCmd.Flags().Int("limit", 5, "maximum number of results")
	searchCmd.Flags().Int("days", 0, "lookback window in days (default from config)")
	searchCmd.Flags().String("from", "", "filter start date (YYYY-MM-DD)")
	searchCmd.Flags().String("to", "", "filter end date (YYYY-MM-DD)")
	searchCmd.Flags().StringSlice("types", nil, "announcement type filters")
	searchCmd.Flags().Bool("price-sensitive", false, "only price-sensitive announcements")
	searchCmd.Flags().Bool("json", false, "output results as JSON")
	searchCmd.MarkFlagRequired("ticker")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	d, err := buildDeps(cfg)
	if err != nil {
		return err
	}
	defer d.Close()

	if err := d.requireIngestor(); err != nil {
		return err
	}

	ctx := cmd.Context()

	ticker, _ := cmd.Flags().GetString("ticker")
	limit, _ := cmd.Flags().GetInt("limit")
	days, _ := cmd.Flags().GetInt("days")
	asJSON, _ := cmd.Flags().GetBool("json")
	if days <= 0 {
		days = cfg.LookbackDays
	}

	company, err := d.announcements.Company(ctx, strings.ToUpper(ticker))
	if err != nil {
		return err
	}

	query, err := filterQueryFromFlags(cmd, days)
	if err != nil {
		return err
	}

	sess := d.sessionFactory(progress.NewReporter())()
	sess.SelectCompany(company)
	sess.SetFilters(query)

	results, err := sess.Search(ctx, args[0], limit)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("No matching documents found.")
		return nil
	}
	for i, r := range results {
		fmt.Printf("%d. %s (%.1f%%)\n", i+1, r.Filename, r.Score*100)
		if r.Excerpt != "" {
			fmt.Printf("   %s\n", r.Excerpt)
		}
	}
	return nil
}
