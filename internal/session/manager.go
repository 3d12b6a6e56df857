package session

import (
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/macwinctl/macwinctl/internal/logging"
	"github.com/macwinctl/macwinctl/internal/model"
)

var log = logging.L("session")

// Handler receives every message read off any session connection, inbound
// or outbound. It is implemented by the control loop's message adapter.
type Handler interface {
	HandleMessage(msg model.Message)
}

// DisplaysFunc returns this host's current display inventory for the hello
// handshake; it is supplied by the platform package at construction.
type DisplaysFunc func() []model.Display

// Manager owns the TCP listener, the outbound dialer, and the single
// canonical write endpoint. Send only ever writes to the connection this
// process dialed out on; accepted connections carry only the hello
// handshake and pong replies in this direction, so a simultaneous mutual
// dial never produces two processes racing to write on the same logical
// channel.
type Manager struct {
	tcpPort  int
	name     string
	kind     model.ComputerKind
	displays DisplaysFunc
	handler  Handler

	remoteDisplays *RemoteDisplaySink

	mu          sync.RWMutex
	outbound    *Conn
	outboundKey string // peer address the outbound connection targets
	inbound     map[*Conn]struct{}

	sessionID string
}

// RemoteDisplaySink is satisfied by discovery.RemoteDisplayRegistry; kept as
// an interface here so session does not import discovery.
type RemoteDisplaySink interface {
	Set(entry model.RemoteDisplays)
}

func NewManager(tcpPort int, name string, kind model.ComputerKind, displays DisplaysFunc, remoteDisplays RemoteDisplaySink, handler Handler) *Manager {
	return &Manager{
		tcpPort:        tcpPort,
		name:           name,
		kind:           kind,
		displays:       displays,
		remoteDisplays: remoteDisplays,
		handler:        handler,
		inbound:        make(map[*Conn]struct{}),
		sessionID:      uuid.NewString(),
	}
}

// HasOutbound reports whether this process already has an outbound session,
// consumed by discovery's auto-connect policy to avoid redundant dials.
func (m *Manager) HasOutbound() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.outbound != nil
}

// ConnectedTo reports the address of the canonical outbound session, for
// the GUI's get_connection_status operation.
func (m *Manager) ConnectedTo() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.outbound == nil {
		return "", false
	}
	return m.outboundKey, true
}

// ListenAndServe accepts inbound connections until stop is closed.
func (m *Manager) ListenAndServe(stop <-chan struct{}) error {
	ln, err := net.Listen("tcp4", fmt.Sprintf(":%d", m.tcpPort))
	if err != nil {
		return fmt.Errorf("listen tcp: %w", err)
	}
	defer ln.Close()

	go func() {
		<-stop
		ln.Close()
	}()

	for {
		nc, err := ln.Accept()
		if err != nil {
			select {
			case <-stop:
				return nil
			default:
				log.Warn("accept error", "error", err)
				continue
			}
		}
		conn := newConn(nc)
		m.trackInbound(conn)
		go m.runConn(conn, false)
	}
}

// Dial opens an outbound session to address, becoming the write endpoint if
// none is currently set. Per the precedence rule, only one outbound
// connection is ever kept — a second Dial call while one is live is a
// no-op.
func (m *Manager) Dial(address string) error {
	if m.HasOutbound() {
		return nil
	}

	nc, err := net.DialTimeout("tcp4", fmt.Sprintf("%s:%d", address, m.tcpPort), 5*time.Second)
	if err != nil {
		return fmt.Errorf("dial %s: %w", address, err)
	}
	conn := newConn(nc)

	m.mu.Lock()
	if m.outbound != nil {
		m.mu.Unlock()
		conn.Close()
		return nil
	}
	m.outbound = conn
	m.outboundKey = address
	m.mu.Unlock()

	go m.runConn(conn, true)
	return nil
}

func (m *Manager) trackInbound(c *Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inbound[c] = struct{}{}
}

func (m *Manager) untrack(c *Conn, outbound bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if outbound {
		if m.outbound == c {
			m.outbound = nil
			m.outboundKey = ""
		}
	} else {
		delete(m.inbound, c)
	}
}

// runConn sends the handshake hello, then reads lines until the connection
// fails or is closed. Malformed individual lines are skipped without
// tearing down the session; only a genuine connection error ends the loop.
func (m *Manager) runConn(c *Conn, outbound bool) {
	defer c.Close()
	defer m.untrack(c, outbound)

	connLog := logging.WithPeer(log, m.sessionID, c.RemoteAddr().String())

	hello := model.HelloMessage(m.name, m.kind, m.displays())
	if err := c.Send(hello); err != nil {
		connLog.Warn("failed to send hello", "error", err)
		return
	}

	for {
		msg, err := c.ReadMessage()
		if err != nil {
			if isMalformedLine(err) {
				connLog.Debug("skipping malformed line", "error", err)
				continue
			}
			connLog.Debug("session connection closed", "error", err, "outbound", outbound)
			return
		}
		m.dispatch(c, connLog, msg)
	}
}

func (m *Manager) dispatch(c *Conn, connLog *slog.Logger, msg model.Message) {
	switch msg.Type {
	case model.TypeHello:
		m.remoteDisplays.Set(model.RemoteDisplays{Name: msg.Name, Kind: msg.ComputerType, Displays: msg.Screens})
		return
	case model.TypePing:
		if err := c.Send(model.PongMessage()); err != nil {
			connLog.Debug("pong send failed", "error", err)
		}
		return
	}
	m.handler.HandleMessage(msg)
}

// Send writes msg to the canonical write endpoint. If no outbound session
// exists yet the message is dropped — the control loop never has a peer to
// control without one, so this is never reached on the hot path.
func (m *Manager) Send(msg model.Message) error {
	m.mu.RLock()
	out := m.outbound
	m.mu.RUnlock()

	if out == nil {
		return fmt.Errorf("no outbound session")
	}
	return out.Send(msg)
}
