package cmd

import (
	"context"
	"log/slog"
	"time"

	"github.com/mrsingh-rishi/voice-assistant/config"
	"github.com/mrsingh-rishi/voice-assistant/output"
	"github.com/mrsingh-rishi/voice-assistant/queue"
	"github.com/mrsingh-rishi/voice-assistant/types"
	"github.com/mrsingh-rishi/voice-assistant/web"
	"github.com/mrsingh-rishi/voice-assistant/workers"
	"github.com/spf13/cobra"
)

const (
	historySize     = 50
	shutdownTimeout = 5 * time.Second
)

var webCmd = &cobra.Command{
	Use:   "web",
	Short: "Serve the local Speak Now page",
	Long: `Serve a page on the configured host and port. Speak Now starts a
microphone conversation; turns appear on the page as they finish.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(config.ModeWeb)
		if err != nil {
			return err
		}

		ctx, stop := signalContext(cmd.Context())
		defer stop()

		a, cleanup, err := newLocalAssistant(ctx, cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		broadcaster := output.NewBroadcaster(16)
		defer broadcaster.Close()
		worker, err := workers.NewConversationWorker(a, queue.New[types.Turn](historySize), broadcaster)
		if err != nil {
			return err
		}
		server, err := web.New(worker)
		if err != nil {
			return err
		}

		errCh := make(chan error, 1)
		go func() {
			slog.Info("web server listening", "addr", cfg.Server.Addr())
			errCh <- server.Listen(cfg.Server.Addr())
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		slog.Info("shutting down web server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	},
}
