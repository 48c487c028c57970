package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"dataviews/internal/app"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run as an MCP server on stdin/stdout",
	Long: `Runs the record and view tools as a Model Context Protocol server over
stdio. Logs go to stderr so they never interleave with protocol messages.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		a, err := app.New(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		return a.ServeMCP(ctx)
	},
}

func init() {
	RootCmd.AddCommand(mcpCmd)
}
