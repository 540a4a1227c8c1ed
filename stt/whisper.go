package stt

import (
	"bytes"
	"context"
	"strings"

	"github.com/mrsingh-rishi/voice-assistant/audio"
	"github.com/mrsingh-rishi/voice-assistant/model"
	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"
)

// WhisperTranscriber uses the OpenAI audio transcription endpoint.
type WhisperTranscriber struct {
	client   *openai.Client
	model    string
	language string
}

// NewWhisperTranscriber creates a Whisper transcriber.
func NewWhisperTranscriber(apiKey, modelName, language string) (*WhisperTranscriber, error) {
	if apiKey == "" {
		return nil, errors.New("openai API key is required")
	}
	return NewWhisperTranscriberWithConfig(openai.DefaultConfig(apiKey), modelName, language), nil
}

// NewWhisperTranscriberWithConfig allows pointing the client at another base URL.
func NewWhisperTranscriberWithConfig(cfg openai.ClientConfig, modelName, language string) *WhisperTranscriber {
	return &WhisperTranscriber{
		client:   openai.NewClientWithConfig(cfg),
		model:    modelName,
		language: isoLanguage(language),
	}
}

// Transcribe uploads the phrase as a WAV file.
func (w *WhisperTranscriber) Transcribe(ctx context.Context, pcm model.AudioChunk, format model.PCMFormat) (string, error) {
	wav := audio.EncodeWAV(pcm, format.SampleRate, format.Channels)
	resp, err := w.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    w.model,
		FilePath: "speech.wav",
		Reader:   bytes.NewReader(wav),
		Language: w.language,
	})
	if err != nil {
		return "", errors.Wrap(err, "whisper transcription")
	}
	return joinTranscripts([]string{resp.Text})
}

// Close is a no-op for the HTTP client.
func (w *WhisperTranscriber) Close() error { return nil }

// isoLanguage turns a BCP-47 tag such as "en-US" into the ISO-639-1 code Whisper expects.
func isoLanguage(tag string) string {
	if i := strings.IndexAny(tag, "-_"); i > 0 {
		tag = tag[:i]
	}
	return strings.ToLower(tag)
}
