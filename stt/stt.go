// Package stt turns a recorded phrase into text using a hosted
// speech-to-text service.
package stt

import (
	"context"
	"strings"

	"github.com/mrsingh-rishi/voice-assistant/config"
	"github.com/mrsingh-rishi/voice-assistant/model"
	"github.com/pkg/errors"
)

//go:generate mockgen -destination=../mocks/mock_transcriber.go -package=mocks github.com/mrsingh-rishi/voice-assistant/stt Transcriber

// ErrNoSpeech is returned when the service heard nothing it could transcribe.
var ErrNoSpeech = errors.New("could not understand audio")

// Transcriber converts PCM audio to text.
type Transcriber interface {
	Transcribe(ctx context.Context, pcm model.AudioChunk, format model.PCMFormat) (string, error)
	Close() error
}

// New builds the transcriber selected by cfg.STT.Backend.
func New(ctx context.Context, cfg *config.Config) (Transcriber, error) {
	switch cfg.STT.Backend {
	case "google":
		return NewGoogleTranscriber(ctx, cfg.STT.GoogleCredentialsFile, cfg.STT.Language)
	case "deepgram":
		return NewDeepgramTranscriber(cfg.STT.DeepgramAPIKey, cfg.STT.DeepgramModel, cfg.STT.Language)
	case "whisper":
		return NewWhisperTranscriber(cfg.OpenAI.APIKey, cfg.OpenAI.WhisperModel, cfg.STT.Language)
	default:
		return nil, errors.Errorf("unknown STT backend %q", cfg.STT.Backend)
	}
}

// joinTranscripts glues recognized segments into one trimmed transcript.
func joinTranscripts(parts []string) (string, error) {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		return "", ErrNoSpeech
	}
	return strings.Join(kept, " "), nil
}
