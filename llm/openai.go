package llm

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"
)

var sentenceRe = regexp.MustCompile(`[^\.!\?]*[\.!\?]`)

// OpenAIClient generates replies with the chat completions API, streaming
// the answer and emitting it sentence by sentence.
type OpenAIClient struct {
	Client             *openai.Client
	SystemInstructions string
	Model              string
}

// NewOpenAIClient creates a chat client for model.
func NewOpenAIClient(apiKey string, systemInstructions string, model string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, errors.New("openai API key is required")
	}
	return NewOpenAIClientWithConfig(openai.DefaultConfig(apiKey), systemInstructions, model), nil
}

// NewOpenAIClientWithConfig allows pointing the client at another base URL.
func NewOpenAIClientWithConfig(cfg openai.ClientConfig, systemInstructions string, model string) *OpenAIClient {
	return &OpenAIClient{
		Client:             openai.NewClientWithConfig(cfg),
		SystemInstructions: systemInstructions,
		Model:              model,
	}
}

// Respond collects the streamed sentences into a single line.
func (c *OpenAIClient) Respond(ctx context.Context, text string) (string, error) {
	var sentences []string
	err := c.StreamResponse(ctx, BuildPrompt(text), func(s string) {
		sentences = append(sentences, s)
	})
	if err != nil {
		return "", err
	}
	reply := strings.Join(sentences, " ")
	if reply == "" {
		return "", ErrEmptyReply
	}
	return reply, nil
}

// StreamResponse sends input to OpenAI and calls emit for every complete
// sentence, then once more for any trailing text.
func (c *OpenAIClient) StreamResponse(ctx context.Context, input string, emit func(string)) error {
	slog.Debug("sending input to OpenAI", "model", c.Model, "length", len(input))
	req := openai.ChatCompletionRequest{
		Model: c.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: c.SystemInstructions},
			{Role: openai.ChatMessageRoleUser, Content: input},
		},
		Stream: true,
	}

	stream, err := c.Client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return errors.Wrap(err, "failed to stream OpenAI response")
	}
	defer stream.Close()

	buffer := &strings.Builder{}
	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return errors.Wrap(err, "receiving OpenAI response")
		}
		if len(resp.Choices) == 0 {
			continue
		}
		chunk := resp.Choices[0].Delta.Content
		if chunk == "" {
			continue
		}
		for _, s := range processChunk(buffer, chunk) {
			emit(s)
		}
	}

	flushRemaining(buffer, emit)
	return nil
}

// processChunk appends new text, extracts all full sentences, and leaves
// the remainder in buffer.
func processChunk(buffer *strings.Builder, chunk string) []string {
	buffer.WriteString(chunk)
	text := buffer.String()

	var sentences []string
	for {
		loc := sentenceRe.FindStringIndex(text)
		if loc == nil {
			break
		}
		sentence := strings.TrimSpace(text[:loc[1]])
		if sentence != "" {
			sentences = append(sentences, sentence)
		}
		text = text[loc[1]:]
	}

	buffer.Reset()
	buffer.WriteString(text)
	return sentences
}

// flushRemaining emits any leftover text at end-of-stream.
func flushRemaining(buffer *strings.Builder, emit func(string)) {
	leftover := strings.TrimSpace(buffer.String())
	if leftover != "" {
		emit(leftover)
	}
	buffer.Reset()
}
