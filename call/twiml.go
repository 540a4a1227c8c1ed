// Package call speaks Twilio: it renders TwiML for the voice webhooks,
// starts outbound calls, and checks webhook signatures.
package call

import (
	"github.com/pkg/errors"
	"github.com/twilio/twilio-go/twiml"
)

const (
	AnswerPath  = "/answer"
	SpeechPath  = "/process_speech"
	sayVoice    = "alice"
	gatherInput = "speech"
	language    = "en-US"
)

// Messages spoken by Twilio on our behalf.
const (
	GreetingMessage      = "Hello! I'm your AI assistant. How can I help you today?"
	GoodbyeMessage       = "Thanks for chatting! Have a great day!"
	FollowUpMessage      = "May I help you with something else? Say 'see you later' when you're done."
	PlaybackErrorMessage = "Sorry, there was an error with the audio playback."
	SpeechErrorMessage   = "Sorry, I couldn't convert my response to speech."
	NoReplyMessage       = "I couldn't generate a response. Please try again."
	NoInputMessage       = "I didn't catch that. Please try again."
	ProcessErrorMessage  = "Sorry, there was an error processing your request."
)

func say(message string) *twiml.VoiceSay {
	return &twiml.VoiceSay{Message: message, Voice: sayVoice}
}

// gather listens for speech and posts the result to the speech webhook.
// A prompt, when given, is spoken while listening.
func gather(prompt string) *twiml.VoiceGather {
	g := &twiml.VoiceGather{
		Input:         gatherInput,
		Action:        SpeechPath,
		Method:        "POST",
		Language:      language,
		SpeechTimeout: "auto",
	}
	if prompt != "" {
		g.InnerElements = []twiml.Element{say(prompt)}
	}
	return g
}

func render(verbs ...twiml.Element) (string, error) {
	doc, err := twiml.Voice(verbs)
	if err != nil {
		return "", errors.Wrap(err, "rendering twiml")
	}
	return doc, nil
}

// Answer greets the caller and starts listening.
func Answer() (string, error) {
	return render(gather(GreetingMessage))
}

// Goodbye ends the call politely; Twilio hangs up once the verbs run out.
func Goodbye() (string, error) {
	return render(say(GoodbyeMessage))
}

// Reply plays the synthesized answer, asks for a follow-up, and listens again.
func Reply(audioURL string) (string, error) {
	return render(
		&twiml.VoicePlay{Url: audioURL},
		&twiml.VoicePause{Length: "1"},
		say(FollowUpMessage),
		gather(""),
	)
}

// Failure apologizes with message and keeps the call listening.
func Failure(message string) (string, error) {
	return render(say(message), gather(""))
}

// NoInput re-prompts and sends the call back to the answer webhook.
func NoInput() (string, error) {
	return render(say(NoInputMessage), &twiml.VoiceRedirect{Url: AnswerPath})
}

// ProcessError apologizes without listening again.
func ProcessError() (string, error) {
	return render(say(ProcessErrorMessage))
}
