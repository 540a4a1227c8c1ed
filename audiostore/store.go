// Package audiostore keeps synthesized replies just long enough for the
// telephony provider to fetch them.
package audiostore

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	namePrefix = "temp_audio_"
	nameSuffix = ".mp3"
)

var (
	ErrNotFound    = errors.New("audio not found")
	ErrInvalidName = errors.New("invalid audio name")
)

//go:generate mockgen -destination=../mocks/mock_store.go -package=mocks github.com/mrsingh-rishi/voice-assistant/audiostore Store

// Store saves audio under a generated name and serves it back by that name.
type Store interface {
	Save(ctx context.Context, data []byte) (string, error)
	Open(ctx context.Context, name string) ([]byte, error)
}

// NewName returns a fresh temp_audio_<hex>.mp3 name.
func NewName() string {
	return namePrefix + strings.ReplaceAll(uuid.NewString(), "-", "") + nameSuffix
}

// ValidName reports whether name could have come from NewName. Anything
// that could escape the storage directory is rejected.
func ValidName(name string) bool {
	if !strings.HasPrefix(name, namePrefix) || !strings.HasSuffix(name, nameSuffix) {
		return false
	}
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return false
	}
	return len(name) > len(namePrefix)+len(nameSuffix)
}
