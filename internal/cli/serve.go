package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xaenox/legal-assistant/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	deps := server.Deps{
		Providers: a.providers,
		Workflow:  a.workflow,
		Jobs:      a.jobs,
	}
	// typed nils would defeat the server's "not configured" checks
	if a.orchestrator != nil {
		deps.Assistant = a.orchestrator
	}
	if a.backend != nil {
		deps.Uploader = a.backend
	}
	if a.analyzer != nil {
		deps.Analyzer = a.analyzer
	}

	srv := server.New(server.Config{
		Port:           cfg.Server.Port,
		RequestTimeout: cfg.Server.RequestTimeout,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		RateLimit:      cfg.Server.RateLimit,
		JWTSecret:      cfg.Server.JWTSecret,
		StaticDir:      cfg.Server.StaticDir,
		MaxRetries:     cfg.Assistant.MaxRetries,
	}, deps, logger)

	logger.Info("Providers configured", zap.Int("count", len(a.providers)))
	return srv.Start(ctx)
}
