package cmd

import (
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/joescharf/scout/internal/daemon"
	"github.com/joescharf/scout/internal/logging"
	scoutmcp "github.com/joescharf/scout/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP stdio server",
	Long: `Start an MCP (Model Context Protocol) server on stdio, backed by the
gateway at gateway_url. Configure it in an MCP client with:

  {
    "mcpServers": {
      "scout": { "command": "scout", "args": ["mcp"] }
    }
  }

Available tools: scout_list_results, scout_result_detail, scout_get_item,
scout_related, scout_rate, scout_summary`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// stdout carries the protocol, so everything else goes to stderr.
		ui.Out = cmd.ErrOrStderr()
		c, err := newClient(nil)
		if err != nil {
			return err
		}
		if c.Log, err = logging.New("warn", viper.GetString("log.format"), cmd.ErrOrStderr()); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), daemon.ShutdownSignals()...)
		defer stop()
		return scoutmcp.NewServer(c, newAggregator(c), buildVersion).ServeStdio(ctx)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
