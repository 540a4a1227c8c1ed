// Package web serves the local voice assistant page. Pressing Speak Now
// runs a microphone conversation until the exit phrase; finished turns are
// pushed to the page over a websocket as they happen.
package web

import (
	"context"
	"embed"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/html/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/mrsingh-rishi/voice-assistant/output"
	"github.com/mrsingh-rishi/voice-assistant/types"
	"github.com/mrsingh-rishi/voice-assistant/workers"
	"github.com/pkg/errors"
)

//go:embed views/*.html
var views embed.FS

type Server struct {
	app    *fiber.App
	worker *workers.ConversationWorker
	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger
}

func New(worker *workers.ConversationWorker) (*Server, error) {
	if worker == nil {
		return nil, errors.New("conversation worker is required")
	}
	sub, err := fs.Sub(views, "views")
	if err != nil {
		return nil, errors.Wrap(err, "loading views")
	}

	// A conversation outlives the request context, so it gets its own,
	// cancelled on Shutdown.
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		app: fiber.New(fiber.Config{
			Views:                 html.NewFileSystem(http.FS(sub), ".html"),
			DisableStartupMessage: true,
		}),
		worker: worker,
		ctx:    ctx,
		cancel: cancel,
		logger: slog.Default().With("component", "web"),
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.app.Get("/", s.index)
	s.app.Post("/listen", s.listen)
	s.app.Post("/stop", s.stop)

	s.app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	s.app.Get("/ws", websocket.New(s.feed))
}

func (s *Server) App() *fiber.App { return s.app }

// Listen blocks serving on addr until Shutdown.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown stops any running conversation and the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancel()
	s.worker.Stop()
	return s.app.ShutdownWithContext(ctx)
}

type page struct {
	Transcript string
	Reply      string
	History    []types.Turn
	Error      string
}

func (s *Server) render(c *fiber.Ctx, p page) error {
	p.History = s.worker.History.Items()
	return c.Render("index", p)
}

func (s *Server) index(c *fiber.Ctx) error {
	var p page
	if last, ok := s.worker.History.Last(); ok {
		p.Transcript, p.Reply = last.Transcript, last.Reply
	}
	return s.render(c, p)
}

func (s *Server) listen(c *fiber.Ctx) error {
	last, err := s.worker.Run(s.ctx)
	switch {
	case errors.Is(err, workers.ErrBusy):
		c.Status(fiber.StatusConflict)
		return s.render(c, page{Error: "A conversation is already running."})
	case err != nil && !errors.Is(err, workers.ErrStopped):
		s.logger.Error("conversation failed", "error", err)
		c.Status(fiber.StatusInternalServerError)
		return s.render(c, page{Transcript: last.Transcript, Reply: last.Reply, Error: "The conversation stopped unexpectedly."})
	}
	return s.render(c, page{Transcript: last.Transcript, Reply: last.Reply})
}

func (s *Server) stop(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"stopped": s.worker.Stop()})
}

func (s *Server) feed(conn *websocket.Conn) {
	turns, unsubscribe := s.worker.Broadcaster.Subscribe()
	defer unsubscribe()

	out, err := output.NewWebsocketOutput(conn, turns)
	if err != nil {
		s.logger.Error("error starting live feed", "error", err)
		return
	}
	out.Start()
	defer out.Stop()

	// The page never sends anything; reading only notices the disconnect.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
