package output

import (
	"sync"
	"testing"
	"time"

	"github.com/mrsingh-rishi/voice-assistant/types"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	mu      sync.Mutex
	written []interface{}
	failOn  int
	closed  bool
}

func (w *recordingWriter) WriteJSON(v interface{}) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.failOn > 0 && len(w.written)+1 == w.failOn {
		return errors.New("broken pipe")
	}
	w.written = append(w.written, v)
	return nil
}

func (w *recordingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func (w *recordingWriter) at(i int) interface{} {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.written[i]
}

func (w *recordingWriter) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.written)
}

func TestBroadcaster_FanOut(t *testing.T) {
	b := NewBroadcaster(4)
	first, cancelFirst := b.Subscribe()
	second, cancelSecond := b.Subscribe()
	defer cancelFirst()
	defer cancelSecond()

	turn := types.Turn{Transcript: "hi", Reply: "hello"}
	b.Publish(turn)

	assert.Equal(t, turn, <-first)
	assert.Equal(t, turn, <-second)
}

func TestBroadcaster_DropsSlowSubscriber(t *testing.T) {
	b := NewBroadcaster(1)
	slow, _ := b.Subscribe()

	b.Publish(types.Turn{Transcript: "one"})
	b.Publish(types.Turn{Transcript: "two"})

	assert.Equal(t, 0, b.Subscribers())
	turn, ok := <-slow
	assert.True(t, ok)
	assert.Equal(t, "one", turn.Transcript)
	_, ok = <-slow
	assert.False(t, ok)
}

func TestBroadcaster_UnsubscribeTwice(t *testing.T) {
	b := NewBroadcaster(1)
	_, cancel := b.Subscribe()
	cancel()
	cancel()
	assert.Equal(t, 0, b.Subscribers())
}

func TestBroadcaster_Close(t *testing.T) {
	b := NewBroadcaster(1)
	ch, _ := b.Subscribe()
	b.Close()

	_, ok := <-ch
	assert.False(t, ok)

	late, _ := b.Subscribe()
	_, ok = <-late
	assert.False(t, ok)
}

func TestWebsocketOutput_Forwards(t *testing.T) {
	_, err := NewWebsocketOutput(nil, make(chan types.Turn))
	require.Error(t, err)

	w := &recordingWriter{}
	turns := make(chan types.Turn, 2)
	out, err := NewWebsocketOutput(w, turns)
	require.NoError(t, err)
	out.Start()

	turns <- types.Turn{Transcript: "a"}
	turns <- types.Turn{Transcript: "b"}
	require.Eventually(t, func() bool { return w.count() == 2 }, time.Second, 5*time.Millisecond)

	msg, ok := w.at(1).(turnMessage)
	require.True(t, ok)
	assert.Equal(t, "turn", msg.Event)
	assert.Equal(t, "b", msg.Turn.Transcript)

	out.Stop()
	<-out.Done()
	assert.True(t, w.closed)
}

func TestWebsocketOutput_StopsOnWriteError(t *testing.T) {
	w := &recordingWriter{failOn: 1}
	turns := make(chan types.Turn, 1)
	out, err := NewWebsocketOutput(w, turns)
	require.NoError(t, err)
	out.Start()

	turns <- types.Turn{Transcript: "a"}
	select {
	case <-out.Done():
	case <-time.After(time.Second):
		t.Fatal("output did not stop after a write error")
	}
}

func TestWebsocketOutput_StopsWhenChannelCloses(t *testing.T) {
	turns := make(chan types.Turn)
	out, err := NewWebsocketOutput(&recordingWriter{}, turns)
	require.NoError(t, err)
	out.Start()
	close(turns)

	select {
	case <-out.Done():
	case <-time.After(time.Second):
		t.Fatal("output did not stop after channel close")
	}
}
