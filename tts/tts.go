// Package tts converts reply text into speech audio.
package tts

import (
	"context"

	"github.com/mrsingh-rishi/voice-assistant/model"
)

//go:generate mockgen -destination=../mocks/mock_synthesizer.go -package=mocks github.com/mrsingh-rishi/voice-assistant/tts Synthesizer

// Synthesizer converts text to audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (*model.Audio, error)
}
