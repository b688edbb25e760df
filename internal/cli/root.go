// Package cli is the offer-service command line: the long-running server
// plus offline commands that evaluate and compare offers from JSON files.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"jobmate/offer-service/internal/config"
	"jobmate/offer-service/internal/logging"
)

// Command annotations read by the root pre-run hook.
const (
	annotationNoConfig = "offer-service/no-config"
	annotationOffline  = "offer-service/offline"
)

type runtimeKey struct{}

// runtime is what every configured command receives through its context.
type runtime struct {
	cfg    *config.Config
	loader *config.Loader
	log    *logging.Logger
}

func runtimeFrom(ctx context.Context) (*runtime, error) {
	if rt, ok := ctx.Value(runtimeKey{}).(*runtime); ok {
		return rt, nil
	}
	return nil, errors.New("configuration not loaded")
}

// flagBindings maps command-line flags onto config keys. Flags a command
// does not define are skipped.
var flagBindings = map[string]string{
	"log-level": "logLevel",
	"port":      "port",
	"grpc-port": "grpcPort",
	"store":     "store",
}

// NewRootCmd builds the full command tree.
func NewRootCmd() *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:   "offer-service",
		Short: "Evaluate, compare and prepare negotiations for job offers",
		Long: `offer-service values job offers (salary, bonus, equity, benefits and
cost of living), scores them against market data, ranks competing offers and
prepares negotiation material. It runs as an HTTP/gRPC/MCP server or offline
against JSON files.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations[annotationNoConfig] == "true" {
				return nil
			}

			loader := config.NewLoader(configFile)
			v := loader.Viper()
			for flag, key := range flagBindings {
				if f := cmd.Flags().Lookup(flag); f != nil {
					if err := v.BindPFlag(key, f); err != nil {
						return err
					}
				}
			}
			if cmd.Annotations[annotationOffline] == "true" {
				v.Set("store", config.StoreMemory)
			}

			cfg, err := loader.Load()
			if err != nil {
				return err
			}
			log := logging.New(cfg.LogLevel)
			if err := config.LoadVaultSecrets(cmd.Context(), cfg, log); err != nil {
				return err
			}
			cmd.SetContext(context.WithValue(cmd.Context(), runtimeKey{}, &runtime{cfg: cfg, loader: loader, log: log}))
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if rt, err := runtimeFrom(cmd.Context()); err == nil {
				_ = rt.log.Sync()
			}
		},
	}

	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default offer-service.yaml in /etc/jobmate, ~/.jobmate or .)")
	root.PersistentFlags().String("log-level", "", "log level: debug, info, warn or error")

	root.AddCommand(
		newServeCmd(),
		newEvaluateCmd(),
		newCompareCmd(),
		newVersionCmd(),
	)
	return root
}

// Execute runs the command tree with ctx.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}
