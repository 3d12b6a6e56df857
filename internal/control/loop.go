// Package control implements the control state machine: the ~125 Hz cursor
// sampling loop, edge detection, coordinate mapping between heterogeneous
// multi-monitor layouts, and the delta-capture loop that pins the local
// cursor while the remote is being controlled. It is the composition point
// for platform I/O (input synthesis), session (message delivery), and
// discovery (the remote display registry).
package control

import (
	"fmt"
	"sync"
	"time"

	"github.com/macwinctl/macwinctl/internal/logging"
	"github.com/macwinctl/macwinctl/internal/model"
	"github.com/macwinctl/macwinctl/internal/platform"
)

var log = logging.L("control")

// Sender delivers a message over the canonical write endpoint. Implemented
// by *session.Manager; kept as an interface so control does not import
// session directly.
type Sender interface {
	Send(msg model.Message) error
}

// RemoteDisplayReader is the read side of discovery.RemoteDisplayRegistry
// that the control loop needs: the flattened remote display union and
// whether any remote displays are known at all.
type RemoteDisplayReader interface {
	All() []model.Display
	Empty() bool
}

// ClipboardSetter receives clipboard text pushed by the remote peer.
// Implemented by *clipboard.Syncer; optional (nil disables clipboard
// message handling).
type ClipboardSetter interface {
	SetRemoteText(text string) error
}

// Config is the control loop's tunable parameters, sourced from
// internal/config.
type Config struct {
	RemoteEdge         model.Edge
	ThresholdPx        int
	Sensitivity        float64
	ReturnCooldownMs   int64
	ReturnInwardPx     int
	TickMs             int
	DebugSnapshotTicks int
}

// Loop owns the process-wide control state tuple and runs the periodic
// sampling tick. Every field that is mutated concurrently is behind its own
// narrowly-scoped lock, per the shared-state discipline: no lock is ever
// held across a suspending call (a network send, a platform syscall).
type Loop struct {
	input      platform.Input
	sender     Sender
	remotes    RemoteDisplayReader
	hasSession func() bool
	clipboard  ClipboardSetter

	cfg Config

	mu    sync.RWMutex
	state model.ControlState

	displayMu     sync.RWMutex
	localDisplays []model.Display
	localBounds   model.Bounds

	debugMu sync.RWMutex
	debug   model.DebugSnapshot

	layoutMu     sync.RWMutex
	syncedLayout *string
}

// NewLoop constructs a Loop and performs the initial local display
// enumeration; callers should treat a non-nil error as fatal startup
// failure (platform I/O is expected to always return at least the
// fallback display, so this should only fail if the platform backend
// itself is broken).
func NewLoop(input platform.Input, sender Sender, remotes RemoteDisplayReader, hasSession func() bool, clip ClipboardSetter, cfg Config) (*Loop, error) {
	l := &Loop{
		input:      input,
		sender:     sender,
		remotes:    remotes,
		hasSession: hasSession,
		clipboard:  clip,
		cfg:        cfg,
	}
	l.state.RemoteEdge = cfg.RemoteEdge

	if err := l.RefreshLocalDisplays(); err != nil {
		return nil, fmt.Errorf("initial display enumeration: %w", err)
	}
	return l, nil
}

// Run drives the control loop at cfg.TickMs cadence until stop is closed.
func (l *Loop) Run(stop <-chan struct{}) {
	ticker := time.NewTicker(time.Duration(l.cfg.TickMs) * time.Millisecond)
	defer ticker.Stop()

	ticks := 0
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			l.tick()
			ticks++
			if l.cfg.DebugSnapshotTicks > 0 && ticks%l.cfg.DebugSnapshotTicks == 0 {
				l.updateDebugSnapshot()
			}
		}
	}
}

func (l *Loop) tick() {
	phase := l.Phase()

	if !l.hasSession() {
		if phase != model.PhaseIdle {
			l.revertToIdleOnSessionLoss()
		}
		return
	}

	if phase == model.PhaseBeingControlled {
		return
	}

	mx, my, err := l.input.GetCursor()
	if err != nil {
		log.Debug("get cursor failed", "error", err)
		return
	}

	switch phase {
	case model.PhaseIdle:
		l.detectEdge(mx, my)
	case model.PhaseControllingRemote:
		l.captureDelta(mx, my)
	}
}

// revertToIdleOnSessionLoss handles S6: a dropped session is noticed on the
// next tick. control_end is best-effort and allowed to fail silently.
func (l *Loop) revertToIdleOnSessionLoss() {
	l.mu.Lock()
	l.state.Phase = model.PhaseIdle
	l.mu.Unlock()

	if err := l.sender.Send(model.ControlEndMessage()); err != nil {
		log.Debug("best-effort control_end on session loss failed", "error", err)
	}
	if err := l.input.ShowCursor(); err != nil {
		log.Debug("show cursor on session loss failed", "error", err)
	}
}

// detectEdge runs the IDLE -> CONTROLLING_REMOTE transition.
func (l *Loop) detectEdge(mx, my int) {
	edge := l.RemoteEdge()
	bounds := l.LocalBounds()

	if !atEdge(mx, my, bounds, edge, l.cfg.ThresholdPx) {
		return
	}
	if l.remotes.Empty() {
		return
	}

	remoteBounds := model.UnionBounds(l.remotes.All())
	rel := relativePosition(mx, my, bounds, edge)
	entry := mapToRemoteEntry(edge, remoteBounds, rel, l.cfg.ThresholdPx)
	lock := edgeLockPosition(edge, bounds, mx, my)

	l.mu.Lock()
	l.state.Phase = model.PhaseControllingRemote
	l.state.EdgeLock = lock
	l.state.RemoteCursor = entry
	l.state.ControlStartMs = nowMs()
	l.state.RemoteEdge = edge
	l.mu.Unlock()

	if err := l.sender.Send(model.ControlStartMessage(entry.X, entry.Y)); err != nil {
		log.Warn("control_start send failed", "error", err)
	}
	if err := l.input.MoveCursor(lock.X, lock.Y); err != nil {
		log.Warn("move cursor to edge lock failed", "error", err)
	}
	if err := l.input.HideCursor(); err != nil {
		log.Warn("hide cursor failed", "error", err)
	}
}

// captureDelta runs the CONTROLLING_REMOTE tick: it reads the raw motion
// since the last repin, scales it, advances the simulated remote cursor,
// checks for a cooldown-gated return, and otherwise forwards the motion
// and repins the local cursor.
func (l *Loop) captureDelta(mx, my int) {
	state := l.State()

	if l.remotes.Empty() {
		l.returnToIdle(state)
		return
	}

	rawDX := mx - state.EdgeLock.X
	rawDY := my - state.EdgeLock.Y
	if rawDX == 0 && rawDY == 0 {
		return
	}

	scaledDX := int(float64(rawDX) * l.cfg.Sensitivity)
	scaledDY := int(float64(rawDY) * l.cfg.Sensitivity)
	candidate := model.Point{
		X: state.RemoteCursor.X + scaledDX,
		Y: state.RemoteCursor.Y + scaledDY,
	}

	cooldownElapsed := nowMs()-state.ControlStartMs > l.cfg.ReturnCooldownMs
	if cooldownElapsed && crossedReturnBoundary(state.RemoteEdge, candidate, model.UnionBounds(l.remotes.All())) {
		l.returnToIdle(state)
		return
	}

	remoteBounds := model.UnionBounds(l.remotes.All())
	clampedX, clampedY := remoteBounds.Clamp(candidate.X, candidate.Y)

	l.mu.Lock()
	l.state.RemoteCursor = model.Point{X: clampedX, Y: clampedY}
	l.mu.Unlock()

	if err := l.sender.Send(model.MouseMoveMessage(clampedX, clampedY)); err != nil {
		log.Debug("mouse_move send failed", "error", err)
	}
	if err := l.input.MoveCursor(state.EdgeLock.X, state.EdgeLock.Y); err != nil {
		log.Debug("repin cursor failed", "error", err)
	}
}

// returnToIdle runs the CONTROLLING_REMOTE -> IDLE transition (S4).
func (l *Loop) returnToIdle(state model.ControlState) {
	l.mu.Lock()
	l.state.Phase = model.PhaseIdle
	l.mu.Unlock()

	if err := l.sender.Send(model.ControlEndMessage()); err != nil {
		log.Debug("control_end send failed", "error", err)
	}
	if err := l.input.ShowCursor(); err != nil {
		log.Warn("show cursor failed", "error", err)
	}

	bounds := l.LocalBounds()
	rx, ry := inwardReturnPoint(state.RemoteEdge, bounds, state.EdgeLock, l.cfg.ReturnInwardPx)
	if err := l.input.MoveCursor(rx, ry); err != nil {
		log.Warn("move cursor on return failed", "error", err)
	}
}

// HandleMessage implements session.Handler. It receives every wire message
// other than hello/ping, which the session layer handles itself.
func (l *Loop) HandleMessage(msg model.Message) {
	switch msg.Type {
	case model.TypeMouseMove:
		l.handleMouseMove(msg)
	case model.TypeMouseClick:
		l.handleMouseClick(msg)
	case model.TypeKeyEvent:
		l.handleKeyEvent(msg)
	case model.TypeControlStart:
		l.handleControlStart(msg)
	case model.TypeControlEnd:
		l.handleControlEnd()
	case model.TypeClipboard:
		l.handleClipboard(msg)
	case model.TypeLayoutSync:
		l.handleLayoutSync(msg)
	case model.TypePong:
		// liveness only; nothing to update.
	default:
		log.Debug("unhandled message type", "type", msg.Type)
	}
}

func (l *Loop) handleMouseMove(msg model.Message) {
	if l.Phase() != model.PhaseBeingControlled {
		return
	}
	if err := l.input.MoveCursor(msg.X, msg.Y); err != nil {
		log.Debug("move cursor failed", "error", err)
	}
}

func (l *Loop) handleMouseClick(msg model.Message) {
	if err := l.input.Click(platform.Button(msg.Button), platform.Action(msg.Action)); err != nil {
		log.Debug("click failed", "error", err)
	}
}

func (l *Loop) handleKeyEvent(msg model.Message) {
	if err := l.input.Key(msg.KeyCode, platform.Action(msg.Action)); err != nil {
		log.Debug("key event failed", "error", err)
	}
}

func (l *Loop) handleControlStart(msg model.Message) {
	bounds := l.LocalBounds()
	x, y := bounds.Clamp(msg.X, msg.Y)

	l.mu.Lock()
	l.state.Phase = model.PhaseBeingControlled
	l.mu.Unlock()

	if err := l.input.MoveCursor(x, y); err != nil {
		log.Warn("move cursor on control_start failed", "error", err)
	}
}

func (l *Loop) handleControlEnd() {
	l.mu.Lock()
	l.state.Phase = model.PhaseIdle
	l.mu.Unlock()
}

func (l *Loop) handleClipboard(msg model.Message) {
	if l.clipboard == nil {
		return
	}
	if err := l.clipboard.SetRemoteText(msg.Text); err != nil {
		log.Debug("clipboard set failed", "error", err)
	}
}

func (l *Loop) handleLayoutSync(msg model.Message) {
	l.layoutMu.Lock()
	defer l.layoutMu.Unlock()
	layout := msg.Layout
	l.syncedLayout = &layout
}

// ForwardClick is called by the external keyboard/mouse-capture
// collaborator. It is a no-op while IDLE: the OS already handles the event
// locally because the cursor is on the local desktop.
func (l *Loop) ForwardClick(button platform.Button, action platform.Action) {
	if l.Phase() != model.PhaseControllingRemote {
		return
	}
	if err := l.sender.Send(model.MouseClickMessage(string(button), string(action))); err != nil {
		log.Debug("forward click failed", "error", err)
	}
}

// ForwardKey is the key-event analogue of ForwardClick. No cross-OS key
// code translation is attempted; code is the host's native virtual-key
// code, forwarded as-is per spec.
func (l *Loop) ForwardKey(code int, action platform.Action) {
	if l.Phase() != model.PhaseControllingRemote {
		return
	}
	if err := l.sender.Send(model.KeyEventMessage(code, string(action))); err != nil {
		log.Debug("forward key failed", "error", err)
	}
}

// Phase returns the current control phase.
func (l *Loop) Phase() model.Phase {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state.Phase
}

// State returns a snapshot of the full control state tuple.
func (l *Loop) State() model.ControlState {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// RemoteEdge returns the configured armed edge.
func (l *Loop) RemoteEdge() model.Edge {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state.RemoteEdge
}

// SetRemoteEdge reconfigures which local edge leads to the remote, for the
// GUI's set_screen_layout operation.
func (l *Loop) SetRemoteEdge(edge model.Edge) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state.RemoteEdge = edge
	l.cfg.RemoteEdge = edge
}

// MousePosition exposes the raw cursor query for the GUI's
// get_mouse_position operation.
func (l *Loop) MousePosition() (int, int, error) {
	return l.input.GetCursor()
}

// SendLayoutSync forwards an opaque layout blob to the peer.
func (l *Loop) SendLayoutSync(layout string) error {
	return l.sender.Send(model.LayoutSyncMessage(layout))
}

// SyncedLayout returns the most recently received layout_sync payload, if
// any has arrived yet.
func (l *Loop) SyncedLayout() (string, bool) {
	l.layoutMu.RLock()
	defer l.layoutMu.RUnlock()
	if l.syncedLayout == nil {
		return "", false
	}
	return *l.syncedLayout, true
}

// RefreshLocalDisplays re-enumerates and re-sorts this host's displays. The
// GUI does not change monitor layout at runtime often, but a re-query is
// cheap and keeps a long-running daemon correct across hot-plug.
func (l *Loop) RefreshLocalDisplays() error {
	displays, err := l.input.EnumerateDisplays()
	if err != nil {
		return err
	}
	model.SortDisplays(displays)
	bounds := model.UnionBounds(displays)

	l.displayMu.Lock()
	l.localDisplays = displays
	l.localBounds = bounds
	l.displayMu.Unlock()
	return nil
}

// LocalDisplays returns a copy of this host's display inventory.
func (l *Loop) LocalDisplays() []model.Display {
	l.displayMu.RLock()
	defer l.displayMu.RUnlock()
	out := make([]model.Display, len(l.localDisplays))
	copy(out, l.localDisplays)
	return out
}

// LocalBounds returns this host's virtual-desktop union bounding box.
func (l *Loop) LocalBounds() model.Bounds {
	l.displayMu.RLock()
	defer l.displayMu.RUnlock()
	return l.localBounds
}

// DebugSnapshot returns the most recently published debug status.
func (l *Loop) DebugSnapshot() model.DebugSnapshot {
	l.debugMu.RLock()
	defer l.debugMu.RUnlock()
	return l.debug
}

func (l *Loop) updateDebugSnapshot() {
	mx, my, err := l.input.GetCursor()
	if err != nil {
		log.Debug("debug snapshot cursor read failed", "error", err)
	}

	snapshot := model.DebugSnapshot{
		MouseX:            mx,
		MouseY:            my,
		ScreenBounds:      l.LocalBounds(),
		EdgeStatus:        l.Phase(),
		RemoteScreenCount: len(l.remotes.All()),
		LastUpdateMs:      nowMs(),
	}

	l.debugMu.Lock()
	l.debug = snapshot
	l.debugMu.Unlock()
}

func nowMs() int64 {
	return time.Now().UnixMilli()
}
