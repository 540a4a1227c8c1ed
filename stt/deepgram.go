package stt

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	gws "github.com/gorilla/websocket"
	"github.com/mrsingh-rishi/voice-assistant/model"
	"github.com/pkg/errors"
)

const deepgramListenURL = "wss://api.deepgram.com/v1/listen"

// deepgramChunkSize is how many bytes of audio go into one websocket frame.
const deepgramChunkSize = 8000

// TranscriptionMessage is a Deepgram live "Results" message.
type TranscriptionMessage struct {
	Type    string `json:"type"`
	IsFinal bool   `json:"is_final"`
	Channel struct {
		Alternatives []struct {
			Transcript string  `json:"transcript"`
			Confidence float64 `json:"confidence"`
		} `json:"alternatives"`
	} `json:"channel"`
}

// DeepgramTranscriber streams a recorded phrase over Deepgram's live
// websocket API and collects the final transcripts.
type DeepgramTranscriber struct {
	APIKey   string
	Model    string
	Language string
	Endpoint string
	Dialer   *gws.Dialer
}

// NewDeepgramTranscriber creates a Deepgram transcriber.
func NewDeepgramTranscriber(apiKey, modelName, language string) (*DeepgramTranscriber, error) {
	if apiKey == "" {
		return nil, errors.New("deepgram API key is required")
	}
	return &DeepgramTranscriber{
		APIKey:   apiKey,
		Model:    modelName,
		Language: language,
		Endpoint: deepgramListenURL,
		Dialer:   gws.DefaultDialer,
	}, nil
}

func (dg *DeepgramTranscriber) listenURL(format model.PCMFormat) (string, error) {
	u, err := url.Parse(dg.Endpoint)
	if err != nil {
		return "", errors.Wrap(err, "parsing deepgram endpoint")
	}
	q := u.Query()
	q.Set("model", dg.Model)
	q.Set("encoding", "linear16")
	q.Set("sample_rate", strconv.Itoa(format.SampleRate))
	q.Set("channels", strconv.Itoa(format.Channels))
	q.Set("language", dg.Language)
	q.Set("punctuate", "true")
	q.Set("smart_format", "true")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Transcribe sends the audio, asks Deepgram to flush with CloseStream and
// reads results until the server closes the connection.
func (dg *DeepgramTranscriber) Transcribe(ctx context.Context, pcm model.AudioChunk, format model.PCMFormat) (string, error) {
	endpoint, err := dg.listenURL(format)
	if err != nil {
		return "", err
	}
	header := http.Header{
		"Authorization": {fmt.Sprintf("Token %s", dg.APIKey)},
	}
	conn, _, err := dg.Dialer.DialContext(ctx, endpoint, header)
	if err != nil {
		return "", errors.Wrap(err, "deepgram dial")
	}
	defer conn.Close()
	slog.Debug("connected to deepgram", "model", dg.Model)

	// Unblock the reader if the caller gives up.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	var (
		wg       sync.WaitGroup
		writeErr error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		for start := 0; start < len(pcm); start += deepgramChunkSize {
			end := start + deepgramChunkSize
			if end > len(pcm) {
				end = len(pcm)
			}
			if err := conn.WriteMessage(gws.BinaryMessage, pcm[start:end]); err != nil {
				writeErr = errors.Wrap(err, "deepgram write")
				return
			}
		}
		if err := conn.WriteMessage(gws.TextMessage, []byte(`{"type":"CloseStream"}`)); err != nil {
			writeErr = errors.Wrap(err, "deepgram close stream")
		}
	}()

	var parts []string
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				wg.Wait()
				return "", ctxErr
			}
			// A server-side failure with nothing heard is not silence.
			if !gws.IsCloseError(err, gws.CloseNormalClosure) && len(parts) == 0 {
				wg.Wait()
				return "", errors.Wrap(err, "deepgram read")
			}
			break
		}

		var transcription TranscriptionMessage
		if err := json.Unmarshal(message, &transcription); err != nil {
			slog.Warn("error parsing Deepgram response", "error", err)
			continue
		}
		if transcription.Type != "" && transcription.Type != "Results" {
			continue
		}
		if transcription.IsFinal && len(transcription.Channel.Alternatives) > 0 {
			parts = append(parts, transcription.Channel.Alternatives[0].Transcript)
		}
	}

	wg.Wait()
	if writeErr != nil && len(parts) == 0 {
		return "", writeErr
	}
	return joinTranscripts(parts)
}

// Close is a no-op; connections live for a single Transcribe call.
func (dg *DeepgramTranscriber) Close() error { return nil }
