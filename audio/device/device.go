// Package device binds the audio package to real hardware through PortAudio.
// It needs the PortAudio C library at build time.
package device

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/gordonklaus/portaudio"
	"github.com/hajimehoshi/go-mp3"
	"github.com/mrsingh-rishi/voice-assistant/audio"
	"github.com/mrsingh-rishi/voice-assistant/model"
	"github.com/pkg/errors"
)

// Init initializes PortAudio and returns the matching terminate func.
func Init() (func(), error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, errors.Wrap(err, "initializing portaudio")
	}
	return func() {
		if err := portaudio.Terminate(); err != nil {
			slog.Warn("portaudio terminate failed", "error", err)
		}
	}, nil
}

// Microphone records single phrases from the default input device.
type Microphone struct {
	format model.PCMFormat
	frame  time.Duration
	cfg    audio.ListenConfig
}

// NewMicrophone creates a mono microphone recorder at sampleRate.
func NewMicrophone(sampleRate int, cfg audio.ListenConfig) *Microphone {
	return &Microphone{
		format: model.PCMFormat{SampleRate: sampleRate, Channels: 1},
		frame:  50 * time.Millisecond,
		cfg:    cfg,
	}
}

// Format returns the PCM format of recorded audio.
func (m *Microphone) Format() model.PCMFormat { return m.format }

// Record opens the input stream, waits for a phrase and returns it.
func (m *Microphone) Record(ctx context.Context) (model.AudioChunk, error) {
	buf := make([]int16, m.format.SampleRate*int(m.frame)/int(time.Second))
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(m.format.SampleRate), len(buf), buf)
	if err != nil {
		return nil, errors.Wrap(err, "opening input stream")
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return nil, errors.Wrap(err, "starting input stream")
	}
	defer stream.Stop()

	slog.Info("speak now...")
	pcm, err := audio.Listen(ctx, &inputFrames{stream: stream, buf: buf, frame: m.frame}, m.cfg)
	if err != nil {
		return nil, err
	}
	return model.AudioChunk(pcm), nil
}

type inputFrames struct {
	stream *portaudio.Stream
	buf    []int16
	frame  time.Duration
}

func (f *inputFrames) ReadFrame() ([]int16, error) {
	if err := f.stream.Read(); err != nil && !errors.Is(err, portaudio.InputOverflowed) {
		return nil, err
	}
	out := make([]int16, len(f.buf))
	copy(out, f.buf)
	return out, nil
}

func (f *inputFrames) FrameDuration() time.Duration { return f.frame }

// Speaker plays synthesized MP3 audio on the default output device.
type Speaker struct{}

// NewSpeaker creates a speaker.
func NewSpeaker() *Speaker { return &Speaker{} }

// Play blocks until the audio has been played or ctx is cancelled.
func (s *Speaker) Play(ctx context.Context, a *model.Audio) error {
	if a == nil || len(a.Data) == 0 {
		return nil
	}
	if a.Format != "mp3" {
		return errors.Errorf("unsupported audio format %q", a.Format)
	}

	dec, err := mp3.NewDecoder(bytes.NewReader(a.Data))
	if err != nil {
		return errors.Wrap(err, "decoding mp3")
	}

	// go-mp3 always yields interleaved 16-bit stereo.
	const channels = 2
	out := make([]int16, 1024*channels)
	stream, err := portaudio.OpenDefaultStream(0, channels, float64(dec.SampleRate()), len(out)/channels, out)
	if err != nil {
		return errors.Wrap(err, "opening output stream")
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return errors.Wrap(err, "starting output stream")
	}
	defer stream.Stop()

	raw := make([]byte, len(out)*2)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, readErr := io.ReadFull(dec, raw)
		if n == 0 && readErr != nil {
			if readErr == io.EOF {
				return nil
			}
			return errors.Wrap(readErr, "reading mp3 frames")
		}
		samples := audio.BytesToSamples(raw[:n])
		copy(out, samples)
		for i := len(samples); i < len(out); i++ {
			out[i] = 0
		}
		if err := stream.Write(); err != nil && !errors.Is(err, portaudio.OutputUnderflowed) {
			return errors.Wrap(err, "writing output stream")
		}
		if readErr != nil {
			// Short read: that was the last frame.
			return nil
		}
	}
}
