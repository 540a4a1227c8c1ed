package call

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/mrsingh-rishi/voice-assistant/config"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

func TestAnswer(t *testing.T) {
	doc, err := Answer()
	require.NoError(t, err)

	assert.Contains(t, doc, "<Response>")
	assert.Contains(t, doc, `<Gather`)
	assert.Contains(t, doc, `input="speech"`)
	assert.Contains(t, doc, `action="/process_speech"`)
	assert.Contains(t, doc, `method="POST"`)
	assert.Contains(t, doc, `language="en-US"`)
	assert.Contains(t, doc, `speechTimeout="auto"`)
	assert.Contains(t, doc, `voice="alice"`)
	assert.Contains(t, doc, "How can I help you today?")
	assert.Less(t, strings.Index(doc, "<Gather"), strings.Index(doc, "<Say"))
}

func TestReply(t *testing.T) {
	doc, err := Reply("https://example.com/audio/temp_audio_1.mp3")
	require.NoError(t, err)

	play := strings.Index(doc, "<Play>https://example.com/audio/temp_audio_1.mp3</Play>")
	pause := strings.Index(doc, `<Pause length="1"`)
	followUp := strings.Index(doc, "May I help you with something else?")
	listen := strings.Index(doc, "<Gather")
	require.True(t, play >= 0 && pause >= 0 && followUp >= 0 && listen >= 0, doc)
	assert.True(t, play < pause && pause < followUp && followUp < listen, doc)
}

func TestGoodbye(t *testing.T) {
	doc, err := Goodbye()
	require.NoError(t, err)
	assert.Contains(t, doc, "Thanks for chatting! Have a great day!")
	assert.NotContains(t, doc, "<Gather")
}

func TestFailure(t *testing.T) {
	doc, err := Failure(PlaybackErrorMessage)
	require.NoError(t, err)
	assert.Contains(t, doc, "Sorry, there was an error with the audio playback.")
	assert.Contains(t, doc, `action="/process_speech"`)
}

func TestNoInput(t *testing.T) {
	doc, err := NoInput()
	require.NoError(t, err)
	assert.Contains(t, doc, "Please try again.")
	assert.Contains(t, doc, "<Redirect>/answer</Redirect>")
}

type fakeCalls struct {
	params *openapi.CreateCallParams
	sid    *string
	err    error
}

func (f *fakeCalls) CreateCall(params *openapi.CreateCallParams) (*openapi.ApiV2010Call, error) {
	f.params = params
	if f.err != nil {
		return nil, f.err
	}
	return &openapi.ApiV2010Call{Sid: f.sid}, nil
}

func TestDialer_StartCall(t *testing.T) {
	sid := "CA123"
	calls := &fakeCalls{sid: &sid}
	d := NewDialerWithCreator(calls, "+15550001111", "+15552223333")

	got, err := d.StartCall(context.Background(), "https://voice.example.com")
	require.NoError(t, err)
	assert.Equal(t, "CA123", got)
	assert.Equal(t, "+15552223333", *calls.params.To)
	assert.Equal(t, "+15550001111", *calls.params.From)
	assert.Equal(t, "https://voice.example.com/answer", *calls.params.Url)
	assert.Equal(t, "POST", *calls.params.Method)
}

func TestDialer_Errors(t *testing.T) {
	sid := "CA123"
	_, err := NewDialerWithCreator(&fakeCalls{sid: &sid}, "+1", "").StartCall(context.Background(), "https://x")
	assert.Error(t, err)

	_, err = NewDialerWithCreator(&fakeCalls{sid: &sid}, "+1", "+2").StartCall(context.Background(), "")
	assert.Error(t, err)

	_, err = NewDialerWithCreator(&fakeCalls{err: errors.New("unverified number")}, "+1", "+2").StartCall(context.Background(), "https://x")
	assert.ErrorContains(t, err, "unverified number")

	_, err = NewDialerWithCreator(&fakeCalls{}, "+1", "+2").StartCall(context.Background(), "https://x")
	assert.Error(t, err)

	_, err = NewDialer(config.TwilioConfig{PhoneNumber: "+1"})
	assert.Error(t, err)
}

func sign(authToken, url string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString(url)
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString(params[k])
	}
	mac := hmac.New(sha1.New, []byte(authToken))
	mac.Write([]byte(b.String()))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestSignatureMiddleware(t *testing.T) {
	const token = "auth-token"
	const public = "https://voice.example.com"

	app := fiber.New()
	app.Use(SignatureMiddleware(token, func() string { return public }))
	app.Post(SpeechPath, func(c *fiber.Ctx) error { return c.SendString("ok") })

	params := map[string]string{"CallSid": "CA1", "SpeechResult": "hello"}
	form := url.Values{}
	for k, v := range params {
		form.Set(k, v)
	}

	good := httptest.NewRequest("POST", SpeechPath, strings.NewReader(form.Encode()))
	good.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	good.Header.Set(signatureHeader, sign(token, public+SpeechPath, params))
	resp, err := app.Test(good)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	bad := httptest.NewRequest("POST", SpeechPath, strings.NewReader(form.Encode()))
	bad.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	bad.Header.Set(signatureHeader, "forged")
	resp, err = app.Test(bad)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestProcessError(t *testing.T) {
	doc, err := ProcessError()
	require.NoError(t, err)
	assert.Contains(t, doc, "there was an error processing your request.")
	assert.NotContains(t, doc, "<Gather")
}
