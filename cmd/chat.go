package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/ausiq/corpuschat/internal/announce"
	"github.com/ausiq/corpuschat/internal/chat"
	"github.com/ausiq/corpuschat/internal/fingerprint"
	"github.com/ausiq/corpuschat/internal/progress"
)

const ownQuestion = "Ask your own question"

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive research chat about a company",
	Long: `Opens an interactive chat session. Pick a company, optionally narrow the
announcement filters, and ask questions grounded on the selected documents.`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().String("ticker", "", "company ticker (skips the picker)")
	chatCmd.Flags().String("from", "", "filter start date (YYYY-MM-DD)")
	chatCmd.Flags().String("to", "", "filter end date (YYYY-MM-DD)")
	chatCmd.Flags().StringSlice("types", nil, "announcement type filters")
	chatCmd.Flags().Bool("price-sensitive", false, "only price-sensitive announcements")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	d, err := buildDeps(cfg)
	if err != nil {
		return err
	}
	defer d.Close()

	if err := d.requireGeneration(); err != nil {
		return err
	}

	ctx := cmd.Context()

	company, err := pickCompany(ctx, d, cmd)
	if err != nil {
		return err
	}

	query, err := filterQueryFromFlags(cmd, cfg.LookbackDays)
	if err != nil {
		return err
	}

	sess := d.sessionFactory(progress.NewReporter())()
	sess.SelectCompany(company)
	sess.SetFilters(query)

	fmt.Printf("Chatting about %s (%s). Type 'exit' to quit, 'switch' to change company.\n\n",
		company.Name, company.Ticker)

	for {
		question, err := nextQuestion()
		if err != nil {
			return err
		}

		switch question {
		case "exit", "quit":
			return nil
		case "switch":
			company, err = promptCompany(ctx, d)
			if err != nil {
				return err
			}
			sess.SelectCompany(company)
			sess.SetFilters(query)
			fmt.Printf("\nNow chatting about %s (%s).\n\n", company.Name, company.Ticker)
			continue
		}

		turn, err := sess.Ask(ctx, question, func(chunk string) { fmt.Print(chunk) })
		if err != nil {
			return err
		}
		fmt.Println()
		if turn.References != "" {
			fmt.Println()
			fmt.Println(turn.References)
		}
		if verbose {
			fmt.Printf("\n[%s, %d tokens]\n", turn.Status, turn.TokensUsed)
		}
		fmt.Println()
	}
}

// pickCompany resolves the company from the --ticker flag or the picker.
func pickCompany(ctx context.Context, d *deps, cmd *cobra.Command) (announce.Company, error) {
	if ticker, _ := cmd.Flags().GetString("ticker"); ticker != "" {
		return d.announcements.Company(ctx, strings.ToUpper(ticker))
	}
	return promptCompany(ctx, d)
}

// promptCompany shows an interactive picker over the catalog.
func promptCompany(ctx context.Context, d *deps) (announce.Company, error) {
	companies, err := d.announcements.Companies(ctx)
	if err != nil {
		return announce.Company{}, err
	}
	if len(companies) == 0 {
		return announce.Company{}, fmt.Errorf("the company catalog is empty")
	}

	labels := make([]string, len(companies))
	for i, c := range companies {
		labels[i] = fmt.Sprintf("%s (%s)", c.Name, c.Ticker)
	}

	picker := promptui.Select{
		Label: "Select the company",
		Items: labels,
		Size:  12,
	}
	idx, _, err := picker.Run()
	if err != nil {
		return announce.Company{}, fmt.Errorf("company selection: %w", err)
	}
	return companies[idx], nil
}

// filterQueryFromFlags builds the filter query from CLI flags, defaulting
// to the configured lookback window ending today.
func filterQueryFromFlags(cmd *cobra.Command, lookbackDays int) (fingerprint.Query, error) {
	from, to := announce.DateRange(lookbackDays)
	q := fingerprint.Query{DateFrom: from, DateTo: to}

	if s, _ := cmd.Flags().GetString("from"); s != "" {
		var err error
		if q.DateFrom, err = time.Parse("2006-01-02", s); err != nil {
			return q, fmt.Errorf("invalid --from date %q, want YYYY-MM-DD", s)
		}
	}
	if s, _ := cmd.Flags().GetString("to"); s != "" {
		var err error
		if q.DateTo, err = time.Parse("2006-01-02", s); err != nil {
			return q, fmt.Errorf("invalid --to date %q, want YYYY-MM-DD", s)
		}
	}
	q.Types, _ = cmd.Flags().GetStringSlice("types")
	q.PriceSensitiveOnly, _ = cmd.Flags().GetBool("price-sensitive")
	return q, nil
}

// nextQuestion offers the canned research prompts or a free-form question.
func nextQuestion() (string, error) {
	items := append([]string{ownQuestion}, chat.PredefinedPrompts...)
	picker := promptui.Select{
		Label: "Pick a prompt",
		Items: items,
		Size:  len(items),
	}
	idx, choice, err := picker.Run()
	if err != nil {
		return "", fmt.Errorf("prompt selection: %w", err)
	}
	if idx != 0 {
		return choice, nil
	}

	prompt := promptui.Prompt{Label: "Your question"}
	question, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("reading question: %w", err)
	}
	return strings.TrimSpace(question), nil
}
