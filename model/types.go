package model

import (
	"fmt"
	"time"
)

// AudioChunk represents a chunk of raw PCM audio (16-bit little-endian).
type AudioChunk []byte

// PCMFormat describes how an AudioChunk was captured.
type PCMFormat struct {
	SampleRate int
	Channels   int
}

// DefaultPCMFormat is what the microphone records: mono 16 kHz.
var DefaultPCMFormat = PCMFormat{SampleRate: 16000, Channels: 1}

// BytesPerSecond returns the byte rate of 16-bit samples in this format.
func (f PCMFormat) BytesPerSecond() int {
	return f.SampleRate * f.Channels * 2
}

// Duration returns how long pcm plays for in this format.
func (f PCMFormat) Duration(pcm AudioChunk) time.Duration {
	bps := f.BytesPerSecond()
	if bps <= 0 {
		return 0
	}
	return time.Duration(len(pcm)) * time.Second / time.Duration(bps)
}

func (f PCMFormat) String() string {
	return fmt.Sprintf("pcm_s16le/%dHz/%dch", f.SampleRate, f.Channels)
}

// Audio is synthesized speech as returned by a text-to-speech service.
type Audio struct {
	Data   []byte
	Format string // e.g. "mp3"
}
