package cli

import (
	"github.com/spf13/cobra"

	"jobmate/offer-service/internal/app"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP, gRPC and MCP server",
		Long: `Run the offer service until interrupted.

Surfaces:
- HTTP REST API under /offers, /health and /metrics
- MCP streamable HTTP at /mcp
- gRPC OfferService on the gRPC port
- nightly rescore of open offers (rescore.schedule)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := runtimeFrom(cmd.Context())
			if err != nil {
				return err
			}
			rt.log.Info("starting offer-service",
				"version", Version,
				"store", rt.cfg.Store,
				"config_file", rt.loader.ConfigFile())
			return app.Serve(cmd.Context(), rt.cfg, rt.loader, Version, rt.log)
		},
	}
	cmd.Flags().StringP("port", "p", "", "HTTP port (default from config)")
	cmd.Flags().String("grpc-port", "", "gRPC port (default from config)")
	cmd.Flags().String("store", "", "offer store: postgres or memory (default from config)")
	return cmd
}
