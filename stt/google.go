package stt

import (
	"context"
	"log/slog"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/mrsingh-rishi/voice-assistant/model"
	"github.com/pkg/errors"
	"google.golang.org/api/option"
)

// GoogleTranscriber uses Google Cloud Speech-to-Text synchronous recognition.
type GoogleTranscriber struct {
	client   *speech.Client
	language string
}

// NewGoogleTranscriber creates a Cloud Speech client. With an empty
// credentialsFile it relies on Application Default Credentials.
func NewGoogleTranscriber(ctx context.Context, credentialsFile, language string) (*GoogleTranscriber, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create speech client")
	}
	return &GoogleTranscriber{client: client, language: language}, nil
}

// Transcribe sends the phrase as LINEAR16 and joins the best alternatives.
func (g *GoogleTranscriber) Transcribe(ctx context.Context, pcm model.AudioChunk, format model.PCMFormat) (string, error) {
	resp, err := g.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:          speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz:   int32(format.SampleRate),
			AudioChannelCount: int32(format.Channels),
			LanguageCode:      g.language,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: pcm},
		},
	})
	if err != nil {
		return "", errors.Wrap(err, "could not request results from Google Speech")
	}

	var parts []string
	for _, result := range resp.GetResults() {
		if alts := result.GetAlternatives(); len(alts) > 0 {
			parts = append(parts, alts[0].GetTranscript())
		}
	}
	text, err := joinTranscripts(parts)
	if err == nil {
		slog.Debug("google transcription complete", "text_length", len(text))
	}
	return text, err
}

// Close cleans up the speech client connection.
func (g *GoogleTranscriber) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}
