// Package cmd implements the voice-assistant command line.
//
// Usage:
//
//	voice-assistant [--env-file .env] <command>
//
// Commands:
//
//	console - talk to the assistant through the local microphone
//	web     - serve the local Speak Now page
//	phone   - serve the Twilio voice webhooks
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/mrsingh-rishi/voice-assistant/config"
	"github.com/spf13/cobra"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:   "voice-assistant",
	Short: "Talk to a language model through speech",
	Long: `A voice assistant that chains hosted services: speech-to-text,
a language model, and ElevenLabs text-to-speech.

Say "see you later" to end a conversation.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	rootCmd.AddCommand(consoleCmd, webCmd, phoneCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig reads and validates configuration for mode and sets up logging.
func loadConfig(mode config.Mode) (*config.Config, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, err
	}
	config.SetupLogging(cfg.Logging)
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}
	return cfg, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
