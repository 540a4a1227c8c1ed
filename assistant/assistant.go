// Package assistant chains the four pipeline steps: listen, transcribe,
// generate a reply, and speak it.
//
// Vendor failures never escape this package. They are logged and turned
// into sentinels ("" or nil) that callers swap for canned apologies.
package assistant

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/mrsingh-rishi/voice-assistant/audio"
	"github.com/mrsingh-rishi/voice-assistant/llm"
	"github.com/mrsingh-rishi/voice-assistant/model"
	"github.com/mrsingh-rishi/voice-assistant/stt"
	"github.com/mrsingh-rishi/voice-assistant/tts"
	"github.com/mrsingh-rishi/voice-assistant/types"
	"github.com/pkg/errors"
)

//go:generate mockgen -destination=../mocks/mock_device.go -package=mocks github.com/mrsingh-rishi/voice-assistant/assistant Recorder,Player

const (
	ExitPhrase      = "see you later"
	RepromptMessage = "I did not catch that. Could you please speak again?"
	FarewellMessage = "Goodbye! You can ping me anytime if you have any questions."
	FallbackReply   = "Sorry, I couldn't generate a response."
	FollowUpMessage = "Do you have any other questions?"
)

// Recorder captures one spoken phrase.
type Recorder interface {
	Record(ctx context.Context) (model.AudioChunk, error)
	Format() model.PCMFormat
}

// Player plays synthesized audio out loud.
type Player interface {
	Play(ctx context.Context, a *model.Audio) error
}

// Options wires an Assistant. Recorder and Player may be nil for front
// ends that never touch local audio devices.
type Options struct {
	Recorder    Recorder
	Player      Player
	Transcriber stt.Transcriber
	Responder   llm.Responder
	Synthesizer tts.Synthesizer
	// ReplyPause is slept between generating a reply and speaking it.
	ReplyPause time.Duration
	Logger     *slog.Logger
}

// Assistant runs the listen → transcribe → reply → speak pipeline.
type Assistant struct {
	recorder    Recorder
	player      Player
	transcriber stt.Transcriber
	responder   llm.Responder
	synthesizer tts.Synthesizer
	replyPause  time.Duration
	logger      *slog.Logger
}

// New creates an Assistant.
func New(opts Options) *Assistant {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Assistant{
		recorder:    opts.Recorder,
		player:      opts.Player,
		transcriber: opts.Transcriber,
		responder:   opts.Responder,
		synthesizer: opts.Synthesizer,
		replyPause:  opts.ReplyPause,
		logger:      logger.With("component", "assistant"),
	}
}

// IsExitPhrase reports whether the whole utterance is the exit phrase.
func IsExitPhrase(s string) bool {
	return strings.ToLower(strings.TrimSpace(s)) == ExitPhrase
}

// ContainsExitPhrase reports whether the exit phrase appears anywhere in s.
// Telephony recognizers add punctuation and filler, so calls match loosely.
func ContainsExitPhrase(s string) bool {
	return strings.Contains(strings.ToLower(s), ExitPhrase)
}

// Listen records a phrase and transcribes it. It returns "" when nothing
// usable was heard.
func (a *Assistant) Listen(ctx context.Context) string {
	if a.recorder == nil || a.transcriber == nil {
		a.logger.Error("listen called without a microphone or transcriber")
		return ""
	}

	pcm, err := a.recorder.Record(ctx)
	if err != nil {
		switch {
		case errors.Is(err, audio.ErrListenTimeout):
			a.logger.Info("timeout: no speech detected")
		case ctx.Err() != nil:
		default:
			a.logger.Error("recording failed", "error", err)
		}
		return ""
	}

	format := a.recorder.Format()
	a.logger.Debug("recorded phrase", "format", format.String(), "duration", format.Duration(pcm))

	text, err := a.transcriber.Transcribe(ctx, pcm, format)
	if err != nil {
		if errors.Is(err, stt.ErrNoSpeech) {
			a.logger.Info("could not understand audio")
		} else {
			a.logger.Error("transcription failed", "error", err)
		}
		return ""
	}
	a.logger.Info("you said", "transcript", text)
	return text
}

// Respond asks the language model for a reply. It returns "" on failure.
func (a *Assistant) Respond(ctx context.Context, transcript string) string {
	reply, err := a.responder.Respond(ctx, transcript)
	if err != nil {
		a.logger.Error("error generating response", "error", err)
		return ""
	}
	reply = strings.TrimSpace(reply)
	a.logger.Info("ai response", "reply", reply)
	return reply
}

// Reply is Respond with the canned apology substituted for a failure.
func (a *Assistant) Reply(ctx context.Context, transcript string) string {
	if reply := a.Respond(ctx, transcript); reply != "" {
		return reply
	}
	return FallbackReply
}

// Synthesize converts text to audio. It returns nil on failure.
func (a *Assistant) Synthesize(ctx context.Context, text string) *model.Audio {
	speech, err := a.synthesizer.Synthesize(ctx, text)
	if err != nil {
		a.logger.Error("error generating speech", "error", err)
		return nil
	}
	return speech
}

// Say synthesizes text and plays it. Failures are logged only.
func (a *Assistant) Say(ctx context.Context, text string) {
	speech := a.Synthesize(ctx, text)
	if speech == nil {
		return
	}
	if a.player == nil {
		a.logger.Warn("no speaker configured, dropping audio", "text", text)
		return
	}
	if err := a.player.Play(ctx, speech); err != nil && ctx.Err() == nil {
		a.logger.Error("error playing speech", "error", err)
	}
}

// ListenUntilHeard keeps listening, re-prompting after every empty
// attempt, until something is transcribed or ctx is done.
func (a *Assistant) ListenUntilHeard(ctx context.Context) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if transcript := a.Listen(ctx); transcript != "" {
			return transcript, nil
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}
		a.Say(ctx, RepromptMessage)
	}
}

// Converse runs turns until the user says the exit phrase or ctx is done.
// onTurn, if set, is called after every completed turn.
func (a *Assistant) Converse(ctx context.Context, onTurn func(types.Turn)) error {
	report := func(t types.Turn) {
		if onTurn != nil {
			t.At = time.Now()
			onTurn(t)
		}
	}

	for {
		transcript, err := a.ListenUntilHeard(ctx)
		if err != nil {
			return err
		}

		if IsExitPhrase(transcript) {
			a.Say(ctx, FarewellMessage)
			report(types.Turn{Transcript: transcript, Reply: FarewellMessage, Ended: true})
			return nil
		}

		reply := a.Reply(ctx, transcript)
		if err := sleep(ctx, a.replyPause); err != nil {
			return err
		}
		a.Say(ctx, reply)
		report(types.Turn{Transcript: transcript, Reply: reply})
		a.Say(ctx, FollowUpMessage)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
