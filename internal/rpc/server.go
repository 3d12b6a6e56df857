package rpc

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/macwinctl/macwinctl/internal/clipboard"
	"github.com/macwinctl/macwinctl/internal/discovery"
	"github.com/macwinctl/macwinctl/internal/identity"
	"github.com/macwinctl/macwinctl/internal/logging"
	"github.com/macwinctl/macwinctl/internal/model"
)

var log = logging.L("rpc")

// Loop is the subset of *control.Loop the RPC surface depends on, kept as
// an interface so rpc does not need a hard dependency on control's
// concrete type (and so it can be faked in tests without a real platform
// backend).
type Loop interface {
	LocalDisplays() []model.Display
	MousePosition() (int, int, error)
	RemoteEdge() model.Edge
	SetRemoteEdge(edge model.Edge)
	SendLayoutSync(layout string) error
	SyncedLayout() (string, bool)
	DebugSnapshot() model.DebugSnapshot
}

// SessionStatus is the subset of *session.Manager the RPC surface needs
// for get_connection_status and the pair operation.
type SessionStatus interface {
	ConnectedTo() (string, bool)
	Dial(address string) error
}

// PeerSource is the subset of *discovery.Registry the RPC surface needs.
type PeerSource interface {
	Live(now time.Time, window time.Duration) []model.Peer
}

// RemoteDisplaySource is the subset of *discovery.RemoteDisplayRegistry the
// RPC surface needs for get_remote_screens.
type RemoteDisplaySource interface {
	Entries() []model.RemoteDisplays
}

// Server is the loopback control-plane server: it answers request/response
// operations and pushes unsolicited debug_info frames to every connected
// client at debugPushInterval.
type Server struct {
	addr               string
	loop               Loop
	sessions           SessionStatus
	peers              PeerSource
	remoteDisplays     RemoteDisplaySource
	clipboardProvider  clipboard.Provider
	livenessWindow     time.Duration
	debugPushInterval  time.Duration

	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// NewServer constructs a Server bound to addr (typically 127.0.0.1:<port>).
func NewServer(addr string, loop Loop, sessions SessionStatus, peers PeerSource, remoteDisplays RemoteDisplaySource, clipboardProvider clipboard.Provider, livenessWindow, debugPushInterval time.Duration) *Server {
	return &Server{
		addr:              addr,
		loop:              loop,
		sessions:          sessions,
		peers:             peers,
		remoteDisplays:    remoteDisplays,
		clipboardProvider: clipboardProvider,
		livenessWindow:    livenessWindow,
		debugPushInterval: debugPushInterval,
		clients:           make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{
			// Loopback-only transport for the local GUI collaborator; the
			// peer-channel encryption/auth non-goal does not apply here
			// since no traffic crosses the LAN boundary.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ListenAndServe binds addr and serves both the websocket RPC endpoint and
// the background debug_info push loop until stop is closed.
func (s *Server) ListenAndServe(stop <-chan struct{}) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleWS)
	httpServer := &http.Server{Addr: s.addr, Handler: mux}

	go s.runDebugPush(stop)

	go func() {
		<-stop
		httpServer.Close()
	}()

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("rpc listen: %w", err)
	}
	return nil
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("websocket upgrade failed", "error", err)
		return
	}
	s.trackClient(conn)
	defer s.untrackClient(conn)
	defer conn.Close()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var req Request
		if err := json.Unmarshal(data, &req); err != nil {
			log.Debug("malformed rpc request", "error", err)
			continue
		}

		resp := s.dispatch(req)
		respData, err := json.Marshal(resp)
		if err != nil {
			log.Warn("failed to marshal rpc response", "error", err)
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, respData); err != nil {
			return
		}
	}
}

func (s *Server) trackClient(c *websocket.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[c] = struct{}{}
}

func (s *Server) untrackClient(c *websocket.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clients, c)
}

func (s *Server) runDebugPush(stop <-chan struct{}) {
	ticker := time.NewTicker(s.debugPushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.broadcast(Response{Type: "debug_info", Op: "get_debug_info", Debug: toDebugInfo(s.loop.DebugSnapshot())})
		}
	}
}

func (s *Server) broadcast(resp Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		log.Warn("failed to marshal debug push", "error", err)
		return
	}

	s.mu.Lock()
	clients := make([]*websocket.Conn, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()

	for _, c := range clients {
		if err := c.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Debug("debug push write failed", "error", err)
		}
	}
}

// dispatch answers a single Request. It never returns an error itself —
// failures are reported in Response.Error so the GUI always gets a framed
// reply to correlate against the request ID.
func (s *Server) dispatch(req Request) Response {
	resp := Response{ID: req.ID, Op: req.Op, Type: "response"}

	switch req.Op {
	case "get_local_ip":
		resp.LocalIP = discovery.GetLocalIP()

	case "get_computer_name":
		resp.ComputerName = identity.Name()

	case "get_all_screens":
		resp.Screens = toScreenDTOs(s.loop.LocalDisplays())

	case "get_mouse_position":
		x, y, err := s.loop.MousePosition()
		if err != nil {
			resp.Error = err.Error()
			break
		}
		resp.MouseX = intPtr(x)
		resp.MouseY = intPtr(y)

	case "get_connection_status":
		resp.Status = s.connectionStatus()

	case "get_remote_screens":
		resp.RemoteScreens = s.remoteScreens()

	case "set_screen_layout":
		edge, ok := model.ParseEdge(req.Edge)
		if !ok {
			resp.Error = fmt.Sprintf("unknown edge %q", req.Edge)
			break
		}
		s.loop.SetRemoteEdge(edge)
		resp.LayoutEdge = string(edge)

	case "get_screen_layout":
		resp.LayoutEdge = string(s.loop.RemoteEdge())

	case "send_layout_sync":
		if err := s.loop.SendLayoutSync(req.Layout); err != nil {
			resp.Error = err.Error()
		}

	case "get_synced_layout":
		layout, ok := s.loop.SyncedLayout()
		resp.SyncedLayout = layout
		resp.HasSyncedLayout = ok

	case "get_clipboard_text":
		text, err := s.clipboardProvider.GetText()
		if err != nil {
			resp.Error = err.Error()
			break
		}
		resp.ClipboardText = text

	case "set_clipboard_text":
		if err := s.clipboardProvider.SetText(req.Text); err != nil {
			resp.Error = err.Error()
		}

	case "get_debug_info":
		resp.Debug = toDebugInfo(s.loop.DebugSnapshot())

	case "pair":
		if req.Address == "" {
			resp.Error = "pair requires an address"
			break
		}
		if err := s.sessions.Dial(req.Address); err != nil {
			resp.Error = err.Error()
		}

	default:
		resp.Error = fmt.Sprintf("unknown op %q", req.Op)
	}

	return resp
}

func (s *Server) connectionStatus() *ConnectionStatus {
	addr, connected := s.sessions.ConnectedTo()

	live := s.peers.Live(time.Now(), s.livenessWindow)
	peers := make([]PeerDTO, 0, len(live))
	for _, p := range live {
		peers = append(peers, PeerDTO{Name: p.Name, Address: p.Address, Kind: string(p.Kind)})
	}

	return &ConnectionStatus{IsConnected: connected, ConnectedTo: addr, DiscoveredPeers: peers}
}

func (s *Server) remoteScreens() []RemoteScreen {
	entries := s.remoteDisplays.Entries()
	var out []RemoteScreen
	for _, e := range entries {
		for _, d := range e.Displays {
			out = append(out, RemoteScreen{Owner: e.Name, ScreenDTO: toScreenDTO(d)})
		}
	}
	return out
}
