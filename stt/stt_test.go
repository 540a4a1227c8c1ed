package stt

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	gws "github.com/gorilla/websocket"
	"github.com/mrsingh-rishi/voice-assistant/config"
	"github.com/mrsingh-rishi/voice-assistant/model"
	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinTranscripts(t *testing.T) {
	text, err := joinTranscripts([]string{" hello ", "", "world"})
	require.NoError(t, err)
	assert.Equal(t, "hello world", text)

	_, err = joinTranscripts([]string{"  ", ""})
	assert.ErrorIs(t, err, ErrNoSpeech)
}

func TestIsoLanguage(t *testing.T) {
	assert.Equal(t, "en", isoLanguage("en-US"))
	assert.Equal(t, "pt", isoLanguage("pt_BR"))
	assert.Equal(t, "fr", isoLanguage("FR"))
	assert.Equal(t, "", isoLanguage(""))
}

func TestNew_UnknownBackend(t *testing.T) {
	cfg := &config.Config{STT: config.STTConfig{Backend: "carrier-pigeon"}}
	_, err := New(context.Background(), cfg)
	assert.Error(t, err)
}

func deepgramResult(text string, final bool) []byte {
	msg := map[string]interface{}{
		"type":     "Results",
		"is_final": final,
		"channel": map[string]interface{}{
			"alternatives": []map[string]interface{}{{"transcript": text, "confidence": 0.9}},
		},
	}
	b, _ := json.Marshal(msg)
	return b
}

func TestDeepgramTranscriber(t *testing.T) {
	received := make(chan int, 1)
	upgrader := gws.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Token dg-key", r.Header.Get("Authorization"))
		assert.Equal(t, "linear16", r.URL.Query().Get("encoding"))
		assert.Equal(t, "16000", r.URL.Query().Get("sample_rate"))
		assert.Equal(t, "nova-2", r.URL.Query().Get("model"))

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		total := 0
		for {
			mt, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if mt == gws.BinaryMessage {
				total += len(msg)
				continue
			}
			if strings.Contains(string(msg), "CloseStream") {
				break
			}
		}
		received <- total

		conn.WriteMessage(gws.TextMessage, deepgramResult("hel", false))
		conn.WriteMessage(gws.TextMessage, deepgramResult("Hello there.", true))
		conn.WriteMessage(gws.TextMessage, []byte(`{"type":"Metadata","request_id":"abc"}`))
		conn.WriteMessage(gws.TextMessage, deepgramResult("How are you?", true))
		conn.WriteMessage(gws.CloseMessage, gws.FormatCloseMessage(gws.CloseNormalClosure, ""))
	}))
	defer srv.Close()

	dg, err := NewDeepgramTranscriber("dg-key", "nova-2", "en-US")
	require.NoError(t, err)
	dg.Endpoint = "ws" + strings.TrimPrefix(srv.URL, "http")

	pcm := make(model.AudioChunk, 20000)
	text, err := dg.Transcribe(context.Background(), pcm, model.DefaultPCMFormat)
	require.NoError(t, err)
	assert.Equal(t, "Hello there. How are you?", text)
	assert.Equal(t, len(pcm), <-received)
}

func TestDeepgramTranscriber_NothingHeard(t *testing.T) {
	upgrader := gws.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil || strings.Contains(string(msg), "CloseStream") {
				break
			}
		}
		conn.WriteMessage(gws.TextMessage, deepgramResult("", true))
		conn.WriteMessage(gws.CloseMessage, gws.FormatCloseMessage(gws.CloseNormalClosure, ""))
	}))
	defer srv.Close()

	dg, err := NewDeepgramTranscriber("dg-key", "nova-2", "en-US")
	require.NoError(t, err)
	dg.Endpoint = "ws" + strings.TrimPrefix(srv.URL, "http")

	_, err = dg.Transcribe(context.Background(), make(model.AudioChunk, 100), model.DefaultPCMFormat)
	assert.ErrorIs(t, err, ErrNoSpeech)
}

func TestDeepgramTranscriber_ServerFailure(t *testing.T) {
	upgrader := gws.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		conn.WriteMessage(gws.CloseMessage, gws.FormatCloseMessage(gws.CloseInternalServerErr, "DATA-0000 bad audio"))
	}))
	defer srv.Close()

	dg, err := NewDeepgramTranscriber("dg-key", "nova-2", "en-US")
	require.NoError(t, err)
	dg.Endpoint = "ws" + strings.TrimPrefix(srv.URL, "http")

	_, err = dg.Transcribe(context.Background(), make(model.AudioChunk, 100), model.DefaultPCMFormat)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoSpeech)
	assert.True(t, gws.IsCloseError(errors.Cause(err), gws.CloseInternalServerErr), err.Error())
}

func TestNewDeepgramTranscriber_RequiresKey(t *testing.T) {
	_, err := NewDeepgramTranscriber("", "nova-2", "en-US")
	assert.Error(t, err)
}

func TestWhisperTranscriber(t *testing.T) {
	var (
		gotModel    string
		gotLanguage string
		gotHeader   []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/audio/transcriptions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		gotModel = r.FormValue("model")
		gotLanguage = r.FormValue("language")

		file, header, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		assert.Equal(t, "speech.wav", header.Filename)
		gotHeader, _ = io.ReadAll(io.LimitReader(file, 4))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text":" What's the weather like? "}`))
	}))
	defer srv.Close()

	cfg := openai.DefaultConfig("sk-test")
	cfg.BaseURL = srv.URL + "/v1"
	wt := NewWhisperTranscriberWithConfig(cfg, "whisper-1", "en-US")

	text, err := wt.Transcribe(context.Background(), make(model.AudioChunk, 320), model.DefaultPCMFormat)
	require.NoError(t, err)
	assert.Equal(t, "What's the weather like?", text)
	assert.Equal(t, "whisper-1", gotModel)
	assert.Equal(t, "en", gotLanguage)
	assert.Equal(t, "RIFF", string(gotHeader))
}
