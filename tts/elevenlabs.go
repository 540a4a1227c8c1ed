package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mrsingh-rishi/voice-assistant/model"
	"github.com/pkg/errors"
)

const elevenLabsBaseURL = "https://api.elevenlabs.io"

// ElevenLabsClient calls the ElevenLabs text-to-speech convert endpoint.
type ElevenLabsClient struct {
	APIKey       string
	VoiceID      string
	ModelID      string
	OutputFormat string
	BaseURL      string
	HTTPClient   *http.Client
}

// NewElevenLabsClient creates a client. outputFormat is an ElevenLabs
// format id such as "mp3_44100_128".
func NewElevenLabsClient(apiKey, voiceID, modelID, outputFormat string) (*ElevenLabsClient, error) {
	if apiKey == "" {
		return nil, errors.New("elevenlabs API key is required")
	}
	if voiceID == "" {
		return nil, errors.New("elevenlabs voice id is required")
	}
	return &ElevenLabsClient{
		APIKey:       apiKey,
		VoiceID:      voiceID,
		ModelID:      modelID,
		OutputFormat: outputFormat,
		BaseURL:      elevenLabsBaseURL,
		HTTPClient:   &http.Client{Timeout: 60 * time.Second},
	}, nil
}

// Synthesize converts text and returns the whole audio body.
func (c *ElevenLabsClient) Synthesize(ctx context.Context, text string) (*model.Audio, error) {
	base, err := url.Parse(fmt.Sprintf("%s/v1/text-to-speech/%s", strings.TrimRight(c.BaseURL, "/"), url.PathEscape(c.VoiceID)))
	if err != nil {
		return nil, errors.Wrap(err, "build url")
	}
	q := base.Query()
	q.Set("output_format", c.OutputFormat)
	base.RawQuery = q.Encode()

	payload := map[string]interface{}{
		"text":     text,
		"model_id": c.ModelID,
	}
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "marshal payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base.String(), bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("xi-api-key", c.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	start := time.Now()
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "HTTP request error")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, errors.Errorf("elevenlabs error %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "reading audio")
	}
	if len(data) == 0 {
		return nil, errors.New("elevenlabs returned no audio")
	}

	slog.Debug("speech synthesized",
		"voice", c.VoiceID,
		"bytes", len(data),
		"took", time.Since(start))
	return &model.Audio{Data: data, Format: audioFormat(c.OutputFormat)}, nil
}

// audioFormat maps "mp3_44100_128" to "mp3".
func audioFormat(outputFormat string) string {
	if i := strings.IndexByte(outputFormat, '_'); i > 0 {
		return outputFormat[:i]
	}
	if outputFormat == "" {
		return "mp3"
	}
	return outputFormat
}
