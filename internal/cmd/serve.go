package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/taxongrid/arraygen/internal/config"
	"github.com/taxongrid/arraygen/internal/observability"
	"github.com/taxongrid/arraygen/internal/server"
	"github.com/taxongrid/arraygen/internal/server/handlers"
	"github.com/taxongrid/arraygen/pkg/jobregistry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve run registry state over HTTP",
	Long: `Start the read-only status server. It exposes health probes, build
information, and the registered runs.

Example:
  arraygen serve
  arraygen serve --port 9000`,
	RunE: runServe,
}

var (
	serveHost string
	servePort int
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveHost, "host", "", "Listen host (overrides config)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Listen port (overrides config)")
}

// registryHealthChecker verifies the run registry directory is readable.
type registryHealthChecker struct {
	dir string
}

func (c registryHealthChecker) CheckHealth(ctx context.Context) error {
	if c.dir == "" {
		return fmt.Errorf("registry directory not configured")
	}
	if _, err := os.Stat(c.dir); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("registry directory not readable: %w", err)
	}
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.GetConfig()

	host := cfg.Server.Host
	if serveHost != "" {
		host = serveHost
	}
	port := cfg.Server.Port
	if servePort != 0 {
		port = servePort
	}

	logger, err := observability.ServerLogger(cfg.Logging.Level)
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Invalid log level", err)
	}
	defer func() { _ = logger.Sync() }()

	handlers.InitHealthManager(versionInfo.Version)
	handlers.GetHealthManager().RegisterChecker("registry", registryHealthChecker{dir: cfg.Registry.Dir})

	store := jobregistry.NewStore(cfg.Registry.Dir)

	srv := server.New(host, port,
		server.WithVersion(handlers.VersionInfo{
			Version:   versionInfo.Version,
			Commit:    versionInfo.Commit,
			BuildDate: versionInfo.BuildDate,
		}),
		server.WithRegistry(store),
		server.WithLogger(logger),
	)

	logger.Info("Starting status server",
		zap.String("host", host),
		zap.Int("port", port),
		zap.String("registry_dir", cfg.Registry.Dir))

	if err := srv.Run(cmd.Context(), server.Timeouts{
		Read:     cfg.Server.ReadTimeout,
		Write:    cfg.Server.WriteTimeout,
		Idle:     cfg.Server.IdleTimeout,
		Shutdown: cfg.Server.ShutdownTimeout,
	}); err != nil {
		return exitError(foundry.ExitExternalServiceUnavailable, "Status server failed", err)
	}
	return nil
}
