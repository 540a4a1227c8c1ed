// Package phone is the Twilio webhook server: it answers calls, turns the
// caller's recognized speech into a spoken reply, serves the generated
// audio, and starts outbound calls.
package phone

import (
	"context"
	"embed"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"net/url"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/html/v2"
	"github.com/mrsingh-rishi/voice-assistant/assistant"
	"github.com/mrsingh-rishi/voice-assistant/audiostore"
	"github.com/mrsingh-rishi/voice-assistant/call"
	"github.com/mrsingh-rishi/voice-assistant/model"
	"github.com/pkg/errors"
)

//go:generate mockgen -destination=../mocks/mock_phone.go -package=mocks github.com/mrsingh-rishi/voice-assistant/phone Replier,CallStarter

//go:embed views/*.html
var views embed.FS

const audioPath = "/audio/"

// Replier produces the reply text and its audio. Both return their zero
// value on failure. *assistant.Assistant satisfies it.
type Replier interface {
	Respond(ctx context.Context, transcript string) string
	Synthesize(ctx context.Context, text string) *model.Audio
}

// CallStarter dials out. *call.Dialer satisfies it.
type CallStarter interface {
	StartCall(ctx context.Context, publicURL string) (string, error)
}

type Options struct {
	// PublicURL is the base URL Twilio reaches this server at.
	PublicURL    string
	TargetNumber string
	Replier      Replier
	Store        audiostore.Store
	Dialer       CallStarter
	// Signer, when set, adds a token to every audio link and requires it.
	Signer *audiostore.Signer
	// AuthToken, when set, turns on webhook signature validation.
	AuthToken string
}

type Server struct {
	app    *fiber.App
	opts   Options
	logger *slog.Logger
}

func New(opts Options) (*Server, error) {
	if opts.Replier == nil {
		return nil, errors.New("replier is required")
	}
	if opts.Store == nil {
		return nil, errors.New("audio store is required")
	}
	if opts.Dialer == nil {
		return nil, errors.New("dialer is required")
	}

	sub, err := fs.Sub(views, "views")
	if err != nil {
		return nil, errors.Wrap(err, "loading views")
	}
	app := fiber.New(fiber.Config{
		Views:                 html.NewFileSystem(http.FS(sub), ".html"),
		DisableStartupMessage: true,
	})

	s := &Server{
		app:    app,
		opts:   opts,
		logger: slog.Default().With("component", "phone"),
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	webhook := func(c *fiber.Ctx) error { return c.Next() }
	if s.opts.AuthToken != "" {
		webhook = call.SignatureMiddleware(s.opts.AuthToken, func() string { return s.opts.PublicURL })
	}

	s.app.Get("/", s.index)
	s.app.Post(call.AnswerPath, webhook, s.answer)
	s.app.Post(call.SpeechPath, webhook, s.processSpeech)
	s.app.Get(audioPath+":name", s.serveAudio)
	s.app.Post("/make_call", s.makeCall)
}

// App exposes the fiber app, mainly for tests.
func (s *Server) App() *fiber.App { return s.app }

// Serve blocks serving on ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	return s.app.Listener(ln)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) index(c *fiber.Ctx) error {
	return c.Render("status", fiber.Map{
		"PublicURL":    s.opts.PublicURL,
		"TargetNumber": s.opts.TargetNumber,
	})
}

func (s *Server) twiml(c *fiber.Ctx, doc string, err error) error {
	if err != nil {
		s.logger.Error("error rendering twiml", "error", err)
		return c.Status(fiber.StatusInternalServerError).SendString("error rendering response")
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationXML)
	return c.SendString(doc)
}

func (s *Server) answer(c *fiber.Ctx) error {
	s.logger.Info("answering call", "call_sid", c.FormValue("CallSid"))
	doc, err := call.Answer()
	return s.twiml(c, doc, err)
}

func (s *Server) processSpeech(c *fiber.Ctx) error {
	speech := c.FormValue("SpeechResult")
	s.logger.Info("received speech", "speech", speech, "call_sid", c.FormValue("CallSid"))

	if speech == "" {
		doc, err := call.NoInput()
		return s.twiml(c, doc, err)
	}
	if assistant.ContainsExitPhrase(speech) {
		doc, err := call.Goodbye()
		return s.twiml(c, doc, err)
	}

	doc, err := s.reply(c.UserContext(), speech)
	if err != nil {
		s.logger.Error("error processing speech", "error", err)
		doc, err = call.ProcessError()
	}
	return s.twiml(c, doc, err)
}

// reply runs one turn and renders the TwiML for it. Recoverable failures
// become spoken apologies; only rendering errors are returned.
func (s *Server) reply(ctx context.Context, speech string) (string, error) {
	text := s.opts.Replier.Respond(ctx, speech)
	if text == "" {
		return call.Failure(call.NoReplyMessage)
	}

	speechAudio := s.opts.Replier.Synthesize(ctx, text)
	if speechAudio == nil {
		return call.Failure(call.SpeechErrorMessage)
	}

	link, err := s.audioURL(ctx, speechAudio.Data)
	if err != nil {
		s.logger.Error("error publishing audio", "error", err)
		return call.Failure(call.PlaybackErrorMessage)
	}
	return call.Reply(link)
}

func (s *Server) audioURL(ctx context.Context, data []byte) (string, error) {
	if s.opts.PublicURL == "" {
		return "", errors.New("no public URL")
	}
	name, err := s.opts.Store.Save(ctx, data)
	if err != nil {
		return "", err
	}
	link := s.opts.PublicURL + audioPath + name
	if s.opts.Signer != nil {
		token, err := s.opts.Signer.Sign(name)
		if err != nil {
			return "", err
		}
		link += "?token=" + url.QueryEscape(token)
	}
	return link, nil
}

func (s *Server) serveAudio(c *fiber.Ctx) error {
	name := c.Params("name")
	if s.opts.Signer != nil {
		if err := s.opts.Signer.Verify(name, c.Query("token")); err != nil {
			s.logger.Warn("error serving audio file", "name", name, "error", err)
			return c.Status(fiber.StatusNotFound).SendString("Error serving audio file")
		}
	}

	data, err := s.opts.Store.Open(c.UserContext(), name)
	if err != nil {
		s.logger.Warn("error serving audio file", "name", name, "error", err)
		return c.Status(fiber.StatusNotFound).SendString("Error serving audio file")
	}
	c.Set(fiber.HeaderContentType, "audio/mpeg")
	return c.Send(data)
}

func (s *Server) makeCall(c *fiber.Ctx) error {
	if s.opts.PublicURL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Ngrok tunnel not available"})
	}
	sid, err := s.opts.Dialer.StartCall(c.UserContext(), s.opts.PublicURL)
	if err != nil {
		s.logger.Error("error making call", "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	s.logger.Info("call initiated", "call_sid", sid)
	return c.JSON(fiber.Map{"message": "Call initiated", "call_sid": sid})
}
