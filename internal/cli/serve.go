package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nobin-seemymachines/voice-recorder/internal/server"
)

func NewServeCmd(deps *Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP status API",
		Long:  "Serve the monitoring API: session state, capture statistics, configuration, and Prometheus metrics.",
		RunE: func(cmd *cobra.Command, args []string) error {
			httpCfg := deps.Config.HTTP
			if !httpCfg.Enabled {
				return fmt.Errorf("http is disabled in the configuration")
			}

			httpServer := server.NewHTTPServer(httpCfg, deps.Logger,
				deps.Config, deps.Recorder, deps.Metrics)

			if err := httpServer.Start(); err != nil {
				return fmt.Errorf("failed to start HTTP server: %w", err)
			}

			deps.Logger.Info("Status API started, waiting for signals...",
				slog.String("address", fmt.Sprintf("%s:%d", httpCfg.Address, httpCfg.Port)),
			)

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

			sig := <-sigChan
			deps.Logger.Info("Received shutdown signal", slog.String("signal", sig.String()))

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()

			if err := httpServer.Stop(shutdownCtx); err != nil {
				deps.Logger.Error("Error stopping HTTP server", slog.String("error", err.Error()))
			}

			deps.Recorder.Reset()
			deps.Logger.Info("Service stopped")
			return nil
		},
	}

	return cmd
}
