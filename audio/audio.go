// Package audio holds the hardware-independent half of microphone capture:
// ambient-noise calibration, phrase segmentation, and PCM helpers.
package audio

import (
	"context"
	"encoding/binary"
	"math"
	"time"

	"github.com/pkg/errors"
)

// ErrListenTimeout is returned when nobody starts speaking before the
// listen timeout elapses.
var ErrListenTimeout = errors.New("listening timed out while waiting for phrase to start")

// FrameSource yields fixed-size frames of mono 16-bit samples.
type FrameSource interface {
	ReadFrame() ([]int16, error)
	FrameDuration() time.Duration
}

// ListenConfig controls how a phrase is captured.
type ListenConfig struct {
	// Ambient is how long to sample background noise before listening.
	Ambient time.Duration
	// Timeout is how long to wait for speech to start. Zero waits forever.
	Timeout time.Duration
	// Pause is how much trailing silence ends a phrase.
	Pause time.Duration
	// PhraseLimit caps the phrase length. Zero means no cap.
	PhraseLimit time.Duration
	// MinThreshold is the lowest energy that can count as speech.
	MinThreshold float64
	// DynamicThreshold lets the threshold follow the background noise
	// while waiting for speech to start.
	DynamicThreshold bool
}

// DefaultListenConfig mirrors the usual speech-recognizer settings.
var DefaultListenConfig = ListenConfig{
	Ambient:          time.Second,
	Timeout:          10 * time.Second,
	Pause:            800 * time.Millisecond,
	PhraseLimit:      30 * time.Second,
	MinThreshold:     300,
	DynamicThreshold: true,
}

// RMS returns the root-mean-square energy of a frame.
func RMS(frame []int16) float64 {
	if len(frame) == 0 {
		return 0
	}
	var sum float64
	for _, s := range frame {
		v := float64(s)
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(frame)))
}

// Calibrate derives an energy threshold from frames of background noise.
// The result is never below min.
func Calibrate(frames [][]int16, min float64) float64 {
	threshold := min
	if len(frames) == 0 {
		return threshold
	}
	var total float64
	for _, f := range frames {
		total += RMS(f)
	}
	if t := total / float64(len(frames)) * thresholdRatio; t > threshold {
		threshold = t
	}
	return threshold
}

const (
	// thresholdRatio is how far above the noise floor speech must be.
	thresholdRatio = 1.5
	// thresholdDamping is how much of the old threshold survives one second
	// of background noise.
	thresholdDamping = 0.15
)

// Segmenter accumulates frames into a single spoken phrase.
type Segmenter struct {
	threshold   float64
	minimum     float64
	damping     float64
	dynamic     bool
	pauseFrames int
	maxFrames   int
	preRoll     int

	pending [][]int16
	phrase  []int16
	started bool
	silent  int
	frames  int
}

// NewSegmenter creates a segmenter for frames of the given duration.
func NewSegmenter(threshold float64, frameDur time.Duration, cfg ListenConfig) *Segmenter {
	frames := func(d time.Duration) int {
		if d <= 0 || frameDur <= 0 {
			return 0
		}
		n := int(d / frameDur)
		if n < 1 {
			n = 1
		}
		return n
	}
	return &Segmenter{
		threshold:   threshold,
		minimum:     cfg.MinThreshold,
		damping:     math.Pow(thresholdDamping, frameDur.Seconds()),
		dynamic:     cfg.DynamicThreshold,
		pauseFrames: frames(cfg.Pause),
		maxFrames:   frames(cfg.PhraseLimit),
		preRoll:     frames(300 * time.Millisecond),
	}
}

// Push feeds one frame and reports whether the phrase is complete.
func (s *Segmenter) Push(frame []int16) bool {
	energy := RMS(frame)
	loud := energy >= s.threshold

	if !s.started {
		if !loud {
			if s.dynamic {
				s.adjust(energy)
			}
			// Keep a little audio from before speech so the first syllable isn't clipped.
			s.pending = append(s.pending, frame)
			if len(s.pending) > s.preRoll {
				s.pending = s.pending[1:]
			}
			return false
		}
		s.started = true
		for _, p := range s.pending {
			s.phrase = append(s.phrase, p...)
		}
		s.pending = nil
	}

	s.phrase = append(s.phrase, frame...)
	s.frames++
	if loud {
		s.silent = 0
	} else {
		s.silent++
	}

	if s.pauseFrames > 0 && s.silent >= s.pauseFrames {
		return true
	}
	return s.maxFrames > 0 && s.frames >= s.maxFrames
}

// adjust moves the threshold toward the current noise level, never below
// the configured minimum.
func (s *Segmenter) adjust(energy float64) {
	target := energy * thresholdRatio
	s.threshold = s.threshold*s.damping + target*(1-s.damping)
	if s.threshold < s.minimum {
		s.threshold = s.minimum
	}
}

// Threshold returns the energy a frame needs to count as speech.
func (s *Segmenter) Threshold() float64 { return s.threshold }

// Started reports whether speech has been detected.
func (s *Segmenter) Started() bool { return s.started }

// Phrase returns the samples captured so far.
func (s *Segmenter) Phrase() []int16 { return s.phrase }

// Listen calibrates against ambient noise, waits for speech, and returns the
// phrase as little-endian PCM bytes.
func Listen(ctx context.Context, src FrameSource, cfg ListenConfig) ([]byte, error) {
	frameDur := src.FrameDuration()
	if frameDur <= 0 {
		return nil, errors.New("frame source reports no frame duration")
	}

	var ambient [][]int16
	for elapsed := time.Duration(0); elapsed < cfg.Ambient; elapsed += frameDur {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		frame, err := src.ReadFrame()
		if err != nil {
			return nil, errors.Wrap(err, "reading ambient noise")
		}
		ambient = append(ambient, frame)
	}

	seg := NewSegmenter(Calibrate(ambient, cfg.MinThreshold), frameDur, cfg)
	var waited time.Duration
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		frame, err := src.ReadFrame()
		if err != nil {
			return nil, errors.Wrap(err, "reading microphone")
		}
		if seg.Push(frame) {
			break
		}
		if !seg.Started() {
			waited += frameDur
			if cfg.Timeout > 0 && waited >= cfg.Timeout {
				return nil, ErrListenTimeout
			}
		}
	}
	return SamplesToBytes(seg.Phrase()), nil
}

// SamplesToBytes encodes samples as little-endian 16-bit PCM.
func SamplesToBytes(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

// BytesToSamples decodes little-endian 16-bit PCM. A trailing odd byte is dropped.
func BytesToSamples(data []byte) []int16 {
	out := make([]int16, len(data)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
	}
	return out
}
