package cmd

import (
	"context"
	"log/slog"

	"github.com/mrsingh-rishi/voice-assistant/call"
	"github.com/mrsingh-rishi/voice-assistant/config"
	"github.com/mrsingh-rishi/voice-assistant/phone"
	"github.com/mrsingh-rishi/voice-assistant/tunnel"
	"github.com/spf13/cobra"
)

var dialOnStart bool

var phoneCmd = &cobra.Command{
	Use:   "phone",
	Short: "Serve the Twilio voice webhooks",
	Long: `Serve the Twilio voice webhooks on PUBLIC_URL, or on an ngrok tunnel
when only NGROK_AUTH_TOKEN is set. Twilio's recognizer transcribes the
caller; replies are synthesized here and served back under /audio.

Examples:
  voice-assistant phone
  voice-assistant phone --dial`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(config.ModePhone)
		if err != nil {
			return err
		}

		ctx, stop := signalContext(cmd.Context())
		defer stop()

		a, err := newRemoteAssistant(ctx, cfg)
		if err != nil {
			return err
		}
		store, closeStore, err := newAudioStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeStore()
		signer, err := newSigner(cfg)
		if err != nil {
			return err
		}
		dialer, err := call.NewDialer(cfg.Twilio)
		if err != nil {
			return err
		}

		ln, err := tunnel.Open(ctx, cfg.Tunnel, cfg.Server.Addr())
		if err != nil {
			return err
		}
		defer ln.Close()

		authToken := ""
		if cfg.Twilio.ValidateSignature {
			authToken = cfg.Twilio.AuthToken
		}
		server, err := phone.New(phone.Options{
			PublicURL:    ln.URL(),
			TargetNumber: cfg.Twilio.TargetNumber,
			Replier:      a,
			Store:        store,
			Dialer:       dialer,
			Signer:       signer,
			AuthToken:    authToken,
		})
		if err != nil {
			return err
		}

		errCh := make(chan error, 1)
		go func() {
			slog.Info("phone server ready", "public_url", ln.URL())
			errCh <- server.Serve(ln)
		}()

		if dialOnStart {
			sid, err := dialer.StartCall(ctx, ln.URL())
			if err != nil {
				slog.Error("error making call", "error", err)
			} else {
				slog.Info("call initiated", "call_sid", sid)
			}
		}

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		slog.Info("shutting down phone server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	},
}

func init() {
	phoneCmd.Flags().BoolVar(&dialOnStart, "dial", false, "call TARGET_PHONE_NUMBER as soon as the server is up")
}
