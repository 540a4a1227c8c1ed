package cmd

import (
	"context"
	"log/slog"
	"time"

	"github.com/mrsingh-rishi/voice-assistant/assistant"
	"github.com/mrsingh-rishi/voice-assistant/audio"
	"github.com/mrsingh-rishi/voice-assistant/audio/device"
	"github.com/mrsingh-rishi/voice-assistant/audiostore"
	"github.com/mrsingh-rishi/voice-assistant/config"
	"github.com/mrsingh-rishi/voice-assistant/llm"
	"github.com/mrsingh-rishi/voice-assistant/stt"
	"github.com/mrsingh-rishi/voice-assistant/tts"
	"github.com/pkg/errors"
)

// listenConfig maps the audio settings onto the phrase detector.
func listenConfig(cfg config.AudioConfig) audio.ListenConfig {
	lc := audio.DefaultListenConfig
	lc.Ambient = cfg.AmbientDuration
	lc.Timeout = cfg.ListenTimeout
	lc.Pause = cfg.PauseThreshold
	lc.PhraseLimit = cfg.PhraseLimit
	return lc
}

// newLocalAssistant wires the full pipeline to the microphone and speaker.
// The returned func releases the audio devices and the transcriber.
func newLocalAssistant(ctx context.Context, cfg *config.Config) (*assistant.Assistant, func(), error) {
	terminate, err := device.Init()
	if err != nil {
		return nil, nil, err
	}

	transcriber, err := stt.New(ctx, cfg)
	if err != nil {
		terminate()
		return nil, nil, errors.Wrap(err, "creating transcriber")
	}
	responder, err := llm.New(ctx, cfg)
	if err != nil {
		transcriber.Close()
		terminate()
		return nil, nil, errors.Wrap(err, "creating responder")
	}
	synthesizer, err := newSynthesizer(cfg)
	if err != nil {
		transcriber.Close()
		terminate()
		return nil, nil, err
	}

	a := assistant.New(assistant.Options{
		Recorder:    device.NewMicrophone(cfg.Audio.SampleRate, listenConfig(cfg.Audio)),
		Player:      device.NewSpeaker(),
		Transcriber: transcriber,
		Responder:   responder,
		Synthesizer: synthesizer,
		ReplyPause:  cfg.Audio.ReplyPause,
	})
	cleanup := func() {
		if err := transcriber.Close(); err != nil {
			slog.Warn("error closing transcriber", "error", err)
		}
		terminate()
	}
	return a, cleanup, nil
}

// newRemoteAssistant wires only the reply and speech steps; the caller's
// speech arrives already transcribed by the telephony provider.
func newRemoteAssistant(ctx context.Context, cfg *config.Config) (*assistant.Assistant, error) {
	responder, err := llm.New(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "creating responder")
	}
	synthesizer, err := newSynthesizer(cfg)
	if err != nil {
		return nil, err
	}
	return assistant.New(assistant.Options{
		Responder:   responder,
		Synthesizer: synthesizer,
	}), nil
}

func newSynthesizer(cfg *config.Config) (tts.Synthesizer, error) {
	synthesizer, err := tts.NewElevenLabsClient(cfg.TTS.ElevenLabsAPIKey, cfg.TTS.VoiceID, cfg.TTS.ModelID, cfg.TTS.OutputFormat)
	if err != nil {
		return nil, errors.Wrap(err, "creating synthesizer")
	}
	return synthesizer, nil
}

// newAudioStore prefers Redis when it is configured.
func newAudioStore(ctx context.Context, cfg *config.Config) (audiostore.Store, func(), error) {
	if cfg.Store.RedisAddr != "" {
		store, err := audiostore.NewRedisStore(ctx, cfg.Store.RedisAddr, cfg.Store.RedisPassword, cfg.Store.RedisDB, cfg.Audio.CleanupDelay)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("storing generated audio in redis", "addr", cfg.Store.RedisAddr)
		return store, func() { store.Close() }, nil
	}

	store, err := audiostore.NewFileStore(cfg.Audio.Dir, cfg.Audio.CleanupDelay)
	if err != nil {
		return nil, nil, err
	}
	slog.Info("storing generated audio on disk", "dir", store.Dir)
	return store, func() {}, nil
}

// newSigner returns nil when no signing key is configured.
func newSigner(cfg *config.Config) (*audiostore.Signer, error) {
	if cfg.Store.SigningKey == "" {
		return nil, nil
	}
	// Twilio fetches the audio right after the TwiML arrives; the link
	// only has to outlive the store's own cleanup.
	return audiostore.NewSigner(cfg.Store.SigningKey, cfg.Audio.CleanupDelay+time.Minute)
}
