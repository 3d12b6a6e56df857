package session

import (
	"net"
	"testing"
	"time"

	"github.com/macwinctl/macwinctl/internal/model"
)

var testLog = log

type recordingHandler struct {
	ch chan model.Message
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{ch: make(chan model.Message, 16)}
}

func (h *recordingHandler) HandleMessage(msg model.Message) {
	h.ch <- msg
}

type recordingDisplaySink struct {
	ch chan model.RemoteDisplays
}

func newRecordingDisplaySink() *recordingDisplaySink {
	return &recordingDisplaySink{ch: make(chan model.RemoteDisplays, 16)}
}

func (s *recordingDisplaySink) Set(entry model.RemoteDisplays) {
	s.ch <- entry
}

func pipeConns(t *testing.T) (*Conn, *Conn) {
	t.Helper()
	a, b := net.Pipe()
	return newConn(a), newConn(b)
}

func TestConnSendAndReadMessageRoundTrip(t *testing.T) {
	a, b := pipeConns(t)
	defer a.Close()
	defer b.Close()

	go func() {
		a.Send(model.MouseMoveMessage(42, 7))
	}()

	msg, err := b.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if msg.Type != model.TypeMouseMove || msg.X != 42 || msg.Y != 7 {
		t.Fatalf("unexpected message: %+v", msg)
	}
}

func TestConnReadMessageSkipsMalformedLineWithoutClosing(t *testing.T) {
	a, b := pipeConns(t)
	defer a.Close()
	defer b.Close()

	go func() {
		a.Conn.Write([]byte("not json\n"))
		a.Send(model.PingMessage())
	}()

	_, err := b.ReadMessage()
	if err == nil || !isMalformedLine(err) {
		t.Fatalf("expected malformed line error, got %v", err)
	}

	msg, err := b.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage after malformed line: %v", err)
	}
	if msg.Type != model.TypePing {
		t.Fatalf("expected ping after recovering from malformed line, got %+v", msg)
	}
}

func newTestManager(handler Handler, sink RemoteDisplaySink) *Manager {
	return NewManager(0, "test-host", model.KindMac, func() []model.Display {
		return []model.Display{{Name: "main", Width: 1920, Height: 1080, IsPrimary: true}}
	}, sink, handler)
}

func TestManagerDispatchRoutesHelloToDisplaySinkAndNotHandler(t *testing.T) {
	handler := newRecordingHandler()
	sink := newRecordingDisplaySink()
	m := newTestManager(handler, sink)

	a, b := pipeConns(t)
	defer a.Close()
	defer b.Close()

	go a.Send(model.HelloMessage("peer-a", model.KindWindows, []model.Display{{Width: 2560, Height: 1440}}))

	msg, err := b.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	m.dispatch(b, testLog, msg)

	select {
	case entry := <-sink.ch:
		if entry.Name != "peer-a" || len(entry.Displays) != 1 {
			t.Fatalf("unexpected remote displays entry: %+v", entry)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for display sink update")
	}

	select {
	case msg := <-handler.ch:
		t.Fatalf("hello should not reach the control handler, got %+v", msg)
	default:
	}
}

func TestManagerDispatchAnswersPingWithPongWithoutInvokingHandler(t *testing.T) {
	handler := newRecordingHandler()
	sink := newRecordingDisplaySink()
	m := newTestManager(handler, sink)

	a, b := pipeConns(t)
	defer a.Close()
	defer b.Close()

	go m.dispatch(a, testLog, model.PingMessage())

	pong, err := b.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if pong.Type != model.TypePong {
		t.Fatalf("expected pong reply, got %+v", pong)
	}
}

func TestManagerDispatchForwardsControlMessagesToHandler(t *testing.T) {
	handler := newRecordingHandler()
	sink := newRecordingDisplaySink()
	m := newTestManager(handler, sink)

	m.dispatch(nil, testLog, model.MouseMoveMessage(1, 2))

	select {
	case msg := <-handler.ch:
		if msg.Type != model.TypeMouseMove {
			t.Fatalf("unexpected forwarded message: %+v", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for handler dispatch")
	}
}

func TestManagerSendFailsWithoutOutboundSession(t *testing.T) {
	m := newTestManager(newRecordingHandler(), newRecordingDisplaySink())
	if err := m.Send(model.PingMessage()); err == nil {
		t.Fatal("expected Send to fail with no outbound session")
	}
}

func TestManagerHasOutboundReflectsTrackedConnection(t *testing.T) {
	m := newTestManager(newRecordingHandler(), newRecordingDisplaySink())
	if m.HasOutbound() {
		t.Fatal("fresh manager should report no outbound session")
	}

	a, _ := pipeConns(t)
	defer a.Close()

	m.mu.Lock()
	m.outbound = a
	m.outboundKey = "10.0.0.5"
	m.mu.Unlock()

	if !m.HasOutbound() {
		t.Fatal("expected HasOutbound to report true once outbound is set")
	}

	m.untrack(a, true)
	if m.HasOutbound() {
		t.Fatal("expected HasOutbound to report false after untrack")
	}
}
