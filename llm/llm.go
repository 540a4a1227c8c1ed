// Package llm asks a hosted language model for a short spoken reply.
package llm

import (
	"context"
	"fmt"

	"github.com/mrsingh-rishi/voice-assistant/config"
	"github.com/pkg/errors"
)

//go:generate mockgen -destination=../mocks/mock_responder.go -package=mocks github.com/mrsingh-rishi/voice-assistant/llm Responder

// Responder generates a reply to something the user said.
type Responder interface {
	Respond(ctx context.Context, text string) (string, error)
}

// ErrEmptyReply is returned when the model answered with no text.
var ErrEmptyReply = errors.New("model returned an empty reply")

const promptTemplate = "Here is the text I want you to respond to in one line only:\n\n%s"

// BuildPrompt wraps the user's words in the one-line reply instruction.
func BuildPrompt(text string) string {
	return fmt.Sprintf(promptTemplate, text)
}

// New builds the responder selected by cfg.LLM.Backend.
func New(ctx context.Context, cfg *config.Config) (Responder, error) {
	switch cfg.LLM.Backend {
	case "gemini":
		return NewGeminiResponder(ctx, cfg.LLM.GeminiAPIKey, cfg.LLM.GeminiModel)
	case "openai":
		return NewOpenAIClient(cfg.OpenAI.APIKey, "You are a helpful voice assistant.", cfg.LLM.OpenAIModel)
	default:
		return nil, errors.Errorf("unknown LLM backend %q", cfg.LLM.Backend)
	}
}
