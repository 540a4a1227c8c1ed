package output

import (
	"context"
	"log/slog"

	"github.com/mrsingh-rishi/voice-assistant/types"
	"github.com/pkg/errors"
)

// JSONWriter is the part of a websocket connection the output needs.
// *websocket.Conn from gofiber/websocket satisfies it.
type JSONWriter interface {
	WriteJSON(v interface{}) error
	Close() error
}

type turnMessage struct {
	Event string     `json:"event"`
	Turn  types.Turn `json:"turn"`
}

// WebsocketOutput forwards turns from a channel to one websocket client.
type WebsocketOutput struct {
	ctx         context.Context
	cancel      context.CancelFunc
	TurnChannel <-chan types.Turn
	ws          JSONWriter
	done        chan struct{}
	logger      *slog.Logger
}

func NewWebsocketOutput(ws JSONWriter, turnChannel <-chan types.Turn) (*WebsocketOutput, error) {
	if ws == nil {
		return nil, errors.New("websocket connection is required")
	}
	if turnChannel == nil {
		return nil, errors.New("turn channel is required")
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &WebsocketOutput{
		ctx:         ctx,
		cancel:      cancel,
		TurnChannel: turnChannel,
		ws:          ws,
		done:        make(chan struct{}),
		logger:      slog.Default().With("component", "websocket-output"),
	}, nil
}

// Start begins forwarding in a goroutine. Forwarding ends when Stop is
// called, the channel closes, or a write fails.
func (o *WebsocketOutput) Start() {
	go func() {
		defer close(o.done)
		for {
			select {
			case <-o.ctx.Done():
				return
			case turn, ok := <-o.TurnChannel:
				if !ok {
					return
				}
				if err := o.ws.WriteJSON(turnMessage{Event: "turn", Turn: turn}); err != nil {
					o.logger.Warn("turn write error", "error", err)
					return
				}
			}
		}
	}()
}

// Done is closed once the forwarding goroutine has exited.
func (o *WebsocketOutput) Done() <-chan struct{} {
	return o.done
}

func (o *WebsocketOutput) Stop() {
	o.cancel()
	if o.ws != nil {
		o.ws.Close()
	}
}
