package control

import (
	"testing"

	"github.com/macwinctl/macwinctl/internal/model"
	"github.com/macwinctl/macwinctl/internal/platform"
)

// fakeInput is an in-memory platform.Input double: cursor position is a
// plain field, every synthesis call is recorded for assertions.
type fakeInput struct {
	x, y         int
	displays     []model.Display
	moves        []model.Point
	clicks       []platform.Button
	keys         []int
	hideCalls    int
	showCalls    int
}

func newFakeInput(displays []model.Display) *fakeInput {
	return &fakeInput{displays: displays}
}

func (f *fakeInput) EnumerateDisplays() ([]model.Display, error) { return f.displays, nil }
func (f *fakeInput) GetCursor() (int, int, error)                { return f.x, f.y, nil }
func (f *fakeInput) MoveCursor(x, y int) error {
	f.x, f.y = x, y
	f.moves = append(f.moves, model.Point{X: x, Y: y})
	return nil
}
func (f *fakeInput) Click(button platform.Button, action platform.Action) error {
	f.clicks = append(f.clicks, button)
	return nil
}
func (f *fakeInput) Key(code int, action platform.Action) error {
	f.keys = append(f.keys, code)
	return nil
}
func (f *fakeInput) Scroll(dx, dy int) error { return nil }
func (f *fakeInput) HideCursor() error       { f.hideCalls++; return nil }
func (f *fakeInput) ShowCursor() error       { f.showCalls++; return nil }

// recordingSender captures every message sent by the control loop.
type recordingSender struct {
	sent []model.Message
	fail bool
}

func (s *recordingSender) Send(msg model.Message) error {
	if s.fail {
		return errSendFailed
	}
	s.sent = append(s.sent, msg)
	return nil
}

var errSendFailed = &sendError{}

type sendError struct{}

func (e *sendError) Error() string { return "send failed" }

type fakeRemotes struct {
	displays []model.Display
}

func (r *fakeRemotes) All() []model.Display { return r.displays }
func (r *fakeRemotes) Empty() bool          { return len(r.displays) == 0 }

func alwaysSession() bool { return true }

func newTestLoop(t *testing.T, local, remote []model.Display, edge model.Edge) (*Loop, *fakeInput, *recordingSender, *fakeRemotes) {
	t.Helper()
	input := newFakeInput(local)
	sender := &recordingSender{}
	remotes := &fakeRemotes{displays: remote}

	loop, err := NewLoop(input, sender, remotes, alwaysSession, nil, Config{
		RemoteEdge:         edge,
		ThresholdPx:        10,
		Sensitivity:        1.5,
		ReturnCooldownMs:   500,
		ReturnInwardPx:     50,
		TickMs:             8,
		DebugSnapshotTicks: 25,
	})
	if err != nil {
		t.Fatalf("NewLoop: %v", err)
	}
	return loop, input, sender, remotes
}

// TestRightEdgeTransfer is scenario S2.
func TestRightEdgeTransfer(t *testing.T) {
	local := []model.Display{{X: 0, Y: 0, Width: 1920, Height: 1080}}
	remote := []model.Display{{X: 0, Y: 0, Width: 1920, Height: 1080}}
	loop, input, sender, _ := newTestLoop(t, local, remote, model.EdgeRight)

	input.x, input.y = 1919, 540
	loop.tick()

	if loop.Phase() != model.PhaseControllingRemote {
		t.Fatalf("expected CONTROLLING_REMOTE, got %v", loop.Phase())
	}
	if len(sender.sent) != 1 || sender.sent[0].Type != model.TypeControlStart {
		t.Fatalf("expected a single control_start message, got %+v", sender.sent)
	}
	if sender.sent[0].X != 10 || sender.sent[0].Y != 540 {
		t.Fatalf("expected control_start{10,540}, got {%d,%d}", sender.sent[0].X, sender.sent[0].Y)
	}

	state := loop.State()
	if state.EdgeLock != (model.Point{X: 1919, Y: 540}) {
		t.Fatalf("unexpected edge lock: %+v", state.EdgeLock)
	}
	if input.hideCalls != 1 {
		t.Fatalf("expected cursor to be hidden once, got %d calls", input.hideCalls)
	}
}

// TestDeltaCaptureForwardsScaledMotionAndRepins is scenario S3.
func TestDeltaCaptureForwardsScaledMotionAndRepins(t *testing.T) {
	local := []model.Display{{X: 0, Y: 0, Width: 1920, Height: 1080}}
	remote := []model.Display{{X: 0, Y: 0, Width: 1920, Height: 1080}}
	loop, input, sender, _ := newTestLoop(t, local, remote, model.EdgeRight)

	input.x, input.y = 1919, 540
	loop.tick() // enters CONTROLLING_REMOTE, edge lock = (1919, 540)

	input.x, input.y = 2019, 540 // user moved 100px further right
	loop.tick()

	last := sender.sent[len(sender.sent)-1]
	if last.Type != model.TypeMouseMove || last.X != 160 || last.Y != 540 {
		t.Fatalf("expected mouse_move{160,540}, got %+v", last)
	}
	if input.x != 1919 || input.y != 540 {
		t.Fatalf("expected local cursor repinned to edge lock, got (%d,%d)", input.x, input.y)
	}
}

// TestCooldownPreventsImmediateReturn checks that a same-tick drag across
// the armed edge never triggers control_end before the 500ms cooldown.
func TestCooldownPreventsImmediateReturn(t *testing.T) {
	local := []model.Display{{X: 0, Y: 0, Width: 1920, Height: 1080}}
	remote := []model.Display{{X: 0, Y: 0, Width: 1920, Height: 1080}}
	loop, input, sender, _ := newTestLoop(t, local, remote, model.EdgeRight)

	input.x, input.y = 1919, 540
	loop.tick()

	// A huge leftward delta, same tick window as entry (cooldown not elapsed).
	input.x, input.y = 1719, 540
	loop.tick()

	if loop.Phase() != model.PhaseControllingRemote {
		t.Fatalf("expected cooldown to suppress return, phase is %v", loop.Phase())
	}
	for _, msg := range sender.sent {
		if msg.Type == model.TypeControlEnd {
			t.Fatal("control_end must not fire before the cooldown elapses")
		}
	}
}

// TestReturnAfterCooldown is scenario S4, with the cooldown bypassed by
// directly backdating control_start_ms.
func TestReturnAfterCooldown(t *testing.T) {
	local := []model.Display{{X: 0, Y: 0, Width: 1920, Height: 1080}}
	remote := []model.Display{{X: 0, Y: 0, Width: 1920, Height: 1080}}
	loop, input, sender, _ := newTestLoop(t, local, remote, model.EdgeRight)

	input.x, input.y = 1919, 540
	loop.tick()

	input.x, input.y = 2019, 540 // +100px, remote_cursor.x = 160
	loop.tick()

	loop.mu.Lock()
	loop.state.ControlStartMs -= 1000
	loop.mu.Unlock()

	input.x, input.y = 1719, 540 // -200px from the repinned edge lock
	loop.tick()

	if loop.Phase() != model.PhaseIdle {
		t.Fatalf("expected IDLE after return, got %v", loop.Phase())
	}
	found := false
	for _, msg := range sender.sent {
		if msg.Type == model.TypeControlEnd {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a control_end message on return")
	}
	if input.x != 1870 || input.y != 540 {
		t.Fatalf("expected cursor returned to (1870,540), got (%d,%d)", input.x, input.y)
	}
	if input.showCalls != 1 {
		t.Fatalf("expected cursor shown once on return, got %d", input.showCalls)
	}
}

// TestRemoteCursorClampedToRemoteBounds is the clamping boundary behavior.
func TestRemoteCursorClampedToRemoteBounds(t *testing.T) {
	local := []model.Display{{X: 0, Y: 0, Width: 1920, Height: 1080}}
	remote := []model.Display{{X: 0, Y: 0, Width: 1920, Height: 1080}}
	loop, input, sender, _ := newTestLoop(t, local, remote, model.EdgeRight)

	input.x, input.y = 1919, 540
	loop.tick()

	input.x, input.y = 1919 + 10000, 540
	loop.tick()

	last := sender.sent[len(sender.sent)-1]
	if last.X != 1919 {
		t.Fatalf("expected remote cursor clamped to remote_max_x-1 (1919), got %d", last.X)
	}
}

// TestBeingControlledIgnoresLocalSampling verifies step 3: while
// BEING_CONTROLLED the loop does nothing locally.
func TestBeingControlledIgnoresLocalSampling(t *testing.T) {
	loop, input, sender, _ := newTestLoop(t, []model.Display{{Width: 1920, Height: 1080}}, nil, model.EdgeRight)
	loop.handleControlStart(model.ControlStartMessage(10, 540))

	input.x, input.y = 1919, 540
	loop.tick()

	if loop.Phase() != model.PhaseBeingControlled {
		t.Fatalf("expected BEING_CONTROLLED to persist, got %v", loop.Phase())
	}
	if len(sender.sent) != 0 {
		t.Fatalf("expected no outbound messages while being controlled, got %+v", sender.sent)
	}
}

// TestHandleControlStartClampsToLocalBounds ensures an out-of-range
// control_start target is clamped before the cursor is moved.
func TestHandleControlStartClampsToLocalBounds(t *testing.T) {
	loop, input, _, _ := newTestLoop(t, []model.Display{{X: 0, Y: 0, Width: 1920, Height: 1080}}, nil, model.EdgeRight)
	loop.handleControlStart(model.ControlStartMessage(5000, 5000))

	if input.x != 1919 || input.y != 1079 {
		t.Fatalf("expected control_start target clamped inside local bounds, got (%d,%d)", input.x, input.y)
	}
	if loop.Phase() != model.PhaseBeingControlled {
		t.Fatalf("expected BEING_CONTROLLED, got %v", loop.Phase())
	}
}

// TestSessionLossRevertsToIdle is scenario S6.
func TestSessionLossRevertsToIdle(t *testing.T) {
	local := []model.Display{{X: 0, Y: 0, Width: 1920, Height: 1080}}
	remote := []model.Display{{X: 0, Y: 0, Width: 1920, Height: 1080}}

	input := newFakeInput(local)
	sender := &recordingSender{}
	remotes := &fakeRemotes{displays: remote}
	sessionAlive := true

	loop, err := NewLoop(input, sender, remotes, func() bool { return sessionAlive }, nil, Config{
		RemoteEdge: model.EdgeRight, ThresholdPx: 10, Sensitivity: 1.5,
		ReturnCooldownMs: 500, ReturnInwardPx: 50, TickMs: 8, DebugSnapshotTicks: 25,
	})
	if err != nil {
		t.Fatalf("NewLoop: %v", err)
	}

	input.x, input.y = 1919, 540
	loop.tick()
	if loop.Phase() != model.PhaseControllingRemote {
		t.Fatal("expected to enter CONTROLLING_REMOTE")
	}

	sessionAlive = false
	loop.tick()

	if loop.Phase() != model.PhaseIdle {
		t.Fatalf("expected IDLE after session loss, got %v", loop.Phase())
	}
	if input.showCalls != 1 {
		t.Fatalf("expected cursor shown on session loss, got %d calls", input.showCalls)
	}
}

// TestKeyAndClickForwardingGatedOnPhase checks forwarding only occurs while
// CONTROLLING_REMOTE.
func TestKeyAndClickForwardingGatedOnPhase(t *testing.T) {
	loop, _, sender, _ := newTestLoop(t, []model.Display{{Width: 1920, Height: 1080}}, []model.Display{{Width: 1920, Height: 1080}}, model.EdgeRight)

	loop.ForwardClick(platform.ButtonLeft, platform.ActionPress)
	loop.ForwardKey(65, platform.ActionPress)
	if len(sender.sent) != 0 {
		t.Fatalf("expected no forwarding while IDLE, got %+v", sender.sent)
	}

	loop.mu.Lock()
	loop.state.Phase = model.PhaseControllingRemote
	loop.mu.Unlock()

	loop.ForwardClick(platform.ButtonLeft, platform.ActionPress)
	loop.ForwardKey(65, platform.ActionPress)
	if len(sender.sent) != 2 {
		t.Fatalf("expected click and key forwarded while CONTROLLING_REMOTE, got %+v", sender.sent)
	}
}

// TestHandleClipboardInvokesSetter verifies clipboard messages reach the
// configured ClipboardSetter.
func TestHandleClipboardInvokesSetter(t *testing.T) {
	var got string
	setter := clipboardSetterFunc(func(text string) error {
		got = text
		return nil
	})

	input := newFakeInput([]model.Display{{Width: 1920, Height: 1080}})
	sender := &recordingSender{}
	remotes := &fakeRemotes{}

	loop, err := NewLoop(input, sender, remotes, alwaysSession, setter, Config{
		RemoteEdge: model.EdgeRight, ThresholdPx: 10, Sensitivity: 1.5,
		ReturnCooldownMs: 500, ReturnInwardPx: 50, TickMs: 8, DebugSnapshotTicks: 25,
	})
	if err != nil {
		t.Fatalf("NewLoop: %v", err)
	}

	loop.HandleMessage(model.ClipboardMessage("hello from peer"))
	if got != "hello from peer" {
		t.Fatalf("expected clipboard text forwarded to setter, got %q", got)
	}
}

func TestHandleLayoutSyncStoresLatestPayload(t *testing.T) {
	loop, _, _, _ := newTestLoop(t, []model.Display{{Width: 1920, Height: 1080}}, nil, model.EdgeRight)

	if _, ok := loop.SyncedLayout(); ok {
		t.Fatal("expected no synced layout before any layout_sync message")
	}

	loop.HandleMessage(model.LayoutSyncMessage(`{"order":["a","b"]}`))
	layout, ok := loop.SyncedLayout()
	if !ok || layout != `{"order":["a","b"]}` {
		t.Fatalf("unexpected synced layout: %q, ok=%v", layout, ok)
	}
}

type clipboardSetterFunc func(text string) error

func (f clipboardSetterFunc) SetRemoteText(text string) error { return f(text) }
