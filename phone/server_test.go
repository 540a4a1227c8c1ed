package phone_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/mrsingh-rishi/voice-assistant/audiostore"
	"github.com/mrsingh-rishi/voice-assistant/mocks"
	"github.com/mrsingh-rishi/voice-assistant/model"
	"github.com/mrsingh-rishi/voice-assistant/phone"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const publicURL = "https://voice.example.com"

type fixture struct {
	replier *mocks.MockReplier
	store   *mocks.MockStore
	dialer  *mocks.MockCallStarter
	server  *phone.Server
}

func newFixture(t *testing.T, mutate func(*phone.Options)) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &fixture{
		replier: mocks.NewMockReplier(ctrl),
		store:   mocks.NewMockStore(ctrl),
		dialer:  mocks.NewMockCallStarter(ctrl),
	}
	opts := phone.Options{
		PublicURL:    publicURL,
		TargetNumber: "+15552223333",
		Replier:      f.replier,
		Store:        f.store,
		Dialer:       f.dialer,
	}
	if mutate != nil {
		mutate(&opts)
	}
	server, err := phone.New(opts)
	require.NoError(t, err)
	f.server = server
	return f
}

func (f *fixture) do(t *testing.T, req *http.Request) (int, string) {
	t.Helper()
	resp, err := f.server.App().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func speechRequest(speech string) *http.Request {
	form := url.Values{"CallSid": {"CA1"}}
	if speech != "" {
		form.Set("SpeechResult", speech)
	}
	req := httptest.NewRequest(http.MethodPost, "/process_speech", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestNew_Validation(t *testing.T) {
	_, err := phone.New(phone.Options{})
	assert.Error(t, err)
}

func TestIndex(t *testing.T) {
	f := newFixture(t, nil)
	status, body := f.do(t, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Server URL: "+publicURL)
	assert.Contains(t, body, `action="/make_call"`)
	assert.Contains(t, body, "Start Call")
}

func TestAnswer(t *testing.T) {
	f := newFixture(t, nil)
	status, body := f.do(t, httptest.NewRequest(http.MethodPost, "/answer", nil))
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `action="/process_speech"`)
	assert.Contains(t, body, "How can I help you today?")
}

func TestProcessSpeech_NoInput(t *testing.T) {
	f := newFixture(t, nil)
	_, body := f.do(t, speechRequest(""))
	assert.Contains(t, body, "Please try again.")
	assert.Contains(t, body, "<Redirect>/answer</Redirect>")
}

func TestProcessSpeech_ExitPhrase(t *testing.T) {
	f := newFixture(t, nil)
	_, body := f.do(t, speechRequest("Okay, see you later."))
	assert.Contains(t, body, "Thanks for chatting! Have a great day!")
	assert.NotContains(t, body, "<Gather")
}

func TestProcessSpeech_Reply(t *testing.T) {
	f := newFixture(t, nil)
	f.replier.EXPECT().Respond(gomock.Any(), "what is the capital of France").Return("Paris.")
	f.replier.EXPECT().Synthesize(gomock.Any(), "Paris.").Return(&model.Audio{Data: []byte("mp3"), Format: "mp3"})
	f.store.EXPECT().Save(gomock.Any(), []byte("mp3")).Return("temp_audio_abc.mp3", nil)

	status, body := f.do(t, speechRequest("what is the capital of France"))
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "<Play>"+publicURL+"/audio/temp_audio_abc.mp3</Play>")
	assert.Contains(t, body, `<Pause length="1"`)
	assert.Contains(t, body, "May I help you with something else?")
	assert.Contains(t, body, "<Gather")
}

func TestProcessSpeech_Failures(t *testing.T) {
	t.Run("no reply", func(t *testing.T) {
		f := newFixture(t, nil)
		f.replier.EXPECT().Respond(gomock.Any(), "hi").Return("")
		_, body := f.do(t, speechRequest("hi"))
		assert.Contains(t, body, "generate a response. Please try again.")
		assert.Contains(t, body, "<Gather")
	})

	t.Run("no speech", func(t *testing.T) {
		f := newFixture(t, nil)
		f.replier.EXPECT().Respond(gomock.Any(), "hi").Return("Hello.")
		f.replier.EXPECT().Synthesize(gomock.Any(), "Hello.").Return(nil)
		_, body := f.do(t, speechRequest("hi"))
		assert.Contains(t, body, "convert my response to speech.")
		assert.Contains(t, body, "<Gather")
	})

	t.Run("store down", func(t *testing.T) {
		f := newFixture(t, nil)
		f.replier.EXPECT().Respond(gomock.Any(), "hi").Return("Hello.")
		f.replier.EXPECT().Synthesize(gomock.Any(), "Hello.").Return(&model.Audio{Data: []byte("mp3")})
		f.store.EXPECT().Save(gomock.Any(), gomock.Any()).Return("", errors.New("disk full"))
		_, body := f.do(t, speechRequest("hi"))
		assert.Contains(t, body, "Sorry, there was an error with the audio playback.")
		assert.Contains(t, body, "<Gather")
	})
}

func TestServeAudio(t *testing.T) {
	f := newFixture(t, nil)
	f.store.EXPECT().Open(gomock.Any(), "temp_audio_abc.mp3").Return([]byte("mp3"), nil)
	f.store.EXPECT().Open(gomock.Any(), "temp_audio_gone.mp3").Return(nil, audiostore.ErrNotFound)

	resp, err := f.server.App().Test(httptest.NewRequest(http.MethodGet, "/audio/temp_audio_abc.mp3", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "audio/mpeg", resp.Header.Get("Content-Type"))

	status, body := f.do(t, httptest.NewRequest(http.MethodGet, "/audio/temp_audio_gone.mp3", nil))
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Error serving audio file", body)
}

func TestServeAudio_SignedLinks(t *testing.T) {
	signer, err := audiostore.NewSigner("secret", time.Minute)
	require.NoError(t, err)
	store, err := audiostore.NewFileStore(t.TempDir(), time.Minute)
	require.NoError(t, err)

	f := newFixture(t, func(o *phone.Options) {
		o.Signer = signer
		o.Store = store
	})
	f.replier.EXPECT().Respond(gomock.Any(), "hi").Return("Hello.")
	f.replier.EXPECT().Synthesize(gomock.Any(), "Hello.").Return(&model.Audio{Data: []byte("mp3")})

	_, body := f.do(t, speechRequest("hi"))
	require.Contains(t, body, "<Play>")
	start := strings.Index(body, "<Play>") + len("<Play>")
	end := strings.Index(body, "</Play>")
	require.Greater(t, end, start, body)
	link, err := url.Parse(strings.ReplaceAll(body[start:end], "&amp;", "&"))
	require.NoError(t, err)
	require.NotEmpty(t, link.Query().Get("token"))

	status, audio := f.do(t, httptest.NewRequest(http.MethodGet, link.RequestURI(), nil))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "mp3", audio)

	status, _ = f.do(t, httptest.NewRequest(http.MethodGet, link.Path, nil))
	assert.Equal(t, http.StatusNotFound, status)
}

func TestMakeCall(t *testing.T) {
	f := newFixture(t, nil)
	f.dialer.EXPECT().StartCall(gomock.Any(), publicURL).Return("CA123", nil)

	status, body := f.do(t, httptest.NewRequest(http.MethodPost, "/make_call", nil))
	assert.Equal(t, http.StatusOK, status)

	var got map[string]string
	require.NoError(t, json.Unmarshal([]byte(body), &got))
	assert.Equal(t, "Call initiated", got["message"])
	assert.Equal(t, "CA123", got["call_sid"])
}

func TestMakeCall_Errors(t *testing.T) {
	f := newFixture(t, nil)
	f.dialer.EXPECT().StartCall(gomock.Any(), publicURL).Return("", errors.New("unverified number"))

	status, body := f.do(t, httptest.NewRequest(http.MethodPost, "/make_call", nil))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.JSONEq(t, `{"error":"unverified number"}`, body)

	noURL := newFixture(t, func(o *phone.Options) { o.PublicURL = "" })
	status, body = noURL.do(t, httptest.NewRequest(http.MethodPost, "/make_call", nil))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.JSONEq(t, `{"error":"Ngrok tunnel not available"}`, body)
}

func TestWebhookSignatureRequired(t *testing.T) {
	f := newFixture(t, func(o *phone.Options) { o.AuthToken = "auth-token" })
	status, _ := f.do(t, httptest.NewRequest(http.MethodPost, "/answer", nil))
	assert.Equal(t, http.StatusForbidden, status)
}
