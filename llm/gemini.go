package llm

import (
	"context"
	"log/slog"
	"strings"

	"github.com/pkg/errors"
	"google.golang.org/genai"
)

// GeminiResponder generates replies with the Gemini API.
type GeminiResponder struct {
	client *genai.Client
	model  string
}

// NewGeminiResponder creates a Gemini client for the given model.
func NewGeminiResponder(ctx context.Context, apiKey, model string) (*GeminiResponder, error) {
	if apiKey == "" {
		return nil, errors.New("gemini API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, errors.Wrap(err, "genai client")
	}
	return &GeminiResponder{client: client, model: model}, nil
}

// Respond asks Gemini for a one-line reply.
func (g *GeminiResponder) Respond(ctx context.Context, text string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, []*genai.Content{
		{Parts: []*genai.Part{{Text: BuildPrompt(text)}}, Role: "user"},
	}, nil)
	if err != nil {
		return "", errors.Wrap(err, "genai generate")
	}

	reply := responseText(resp)
	if reply == "" {
		return "", ErrEmptyReply
	}
	slog.Debug("gemini reply", "model", g.model, "length", len(reply))
	return reply, nil
}

// responseText concatenates the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && !part.Thought {
			sb.WriteString(part.Text)
		}
	}
	return strings.TrimSpace(sb.String())
}
