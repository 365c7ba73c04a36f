package commands

import (
	"context"

	"ops-mcs/internal/mcp"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve projections over MCP on stdio (default)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

func serve(ctx context.Context) error {
	store, err := loadStore(ctx)
	if err != nil {
		return err
	}

	log.Info().Msg("MCP Server starting Stdio loop")
	server := mcp.NewServer(cfg, store, Version)
	return server.Run(ctx, &gomcp.StdioTransport{})
}
