package cmd

import (
	"github.com/spf13/cobra"

	mcpserver "github.com/ausiq/corpuschat/internal/mcp"
	"github.com/ausiq/corpuschat/internal/progress"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the MCP server over stdio",
	Long: `Exposes the company catalog, corpus search, and grounded question
answering as MCP tools for AI assistants. Communicates over stdio.`,
	RunE: func(cmd *cobra.Command, args []string) error {
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

		mcpserver.Version = Version
		srv := mcpserver.NewServer(d.announcements, d.sessionFactory(progress.NopReporter{}))
		return srv.Serve()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
