package workers

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mrsingh-rishi/voice-assistant/output"
	"github.com/mrsingh-rishi/voice-assistant/queue"
	"github.com/mrsingh-rishi/voice-assistant/types"
	"github.com/pkg/errors"
)

var (
	// ErrBusy is returned by Run while another conversation holds the microphone.
	ErrBusy = errors.New("a conversation is already running")
	// ErrStopped is returned by Run when Stop ended the conversation.
	ErrStopped = errors.New("conversation stopped")
)

// Conversation is anything that runs turns until it is done.
// *assistant.Assistant satisfies it.
type Conversation interface {
	Converse(ctx context.Context, onTurn func(types.Turn)) error
}

// ConversationFunc adapts a plain function to Conversation.
type ConversationFunc func(ctx context.Context, onTurn func(types.Turn)) error

func (f ConversationFunc) Converse(ctx context.Context, onTurn func(types.Turn)) error {
	return f(ctx, onTurn)
}

// ConversationWorker runs at most one conversation at a time and records
// every turn in the history queue and on the broadcaster.
type ConversationWorker struct {
	mu      sync.Mutex
	cancel  context.CancelFunc
	stopped bool

	conversation Conversation
	History      *queue.Queue[types.Turn]
	Broadcaster  *output.Broadcaster
	logger       *slog.Logger
}

func NewConversationWorker(conversation Conversation, history *queue.Queue[types.Turn], broadcaster *output.Broadcaster) (*ConversationWorker, error) {
	if conversation == nil {
		return nil, errors.New("conversation is required")
	}
	if history == nil {
		return nil, errors.New("history queue is required")
	}
	if broadcaster == nil {
		return nil, errors.New("broadcaster is required")
	}
	return &ConversationWorker{
		conversation: conversation,
		History:      history,
		Broadcaster:  broadcaster,
		logger:       slog.Default().With("component", "conversation-worker"),
	}, nil
}

// Run blocks until the conversation ends and returns its last turn.
func (w *ConversationWorker) Run(ctx context.Context) (types.Turn, error) {
	w.mu.Lock()
	if w.cancel != nil {
		w.mu.Unlock()
		return types.Turn{}, ErrBusy
	}
	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.stopped = false
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.cancel = nil
		w.mu.Unlock()
		cancel()
	}()

	var last types.Turn
	w.logger.Info("conversation started")
	err := w.conversation.Converse(ctx, func(turn types.Turn) {
		last = turn
		w.History.Enqueue(turn)
		w.Broadcaster.Publish(turn)
	})

	w.mu.Lock()
	stopped := w.stopped
	w.mu.Unlock()

	switch {
	case err == nil:
		w.logger.Info("conversation ended")
		return last, nil
	case stopped && errors.Is(err, context.Canceled):
		w.logger.Info("conversation stopped")
		return last, ErrStopped
	default:
		return last, errors.Wrap(err, "conversation")
	}
}

// Stop cancels the running conversation. It reports whether one was running.
func (w *ConversationWorker) Stop() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel == nil {
		return false
	}
	w.stopped = true
	w.cancel()
	return true
}

func (w *ConversationWorker) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cancel != nil
}
