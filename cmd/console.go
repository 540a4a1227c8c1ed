package cmd

import (
	"context"
	"log/slog"

	"github.com/mrsingh-rishi/voice-assistant/config"
	"github.com/mrsingh-rishi/voice-assistant/types"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Talk through the local microphone and speaker",
	Long: `Listen on the default microphone, reply out loud, and keep going
until you say "see you later".`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(config.ModeConsole)
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

		slog.Info("listening, say \"see you later\" to finish")
		err = a.Converse(ctx, func(turn types.Turn) {
			slog.Info("turn", "transcript", turn.Transcript, "reply", turn.Reply, "ended", turn.Ended)
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}
