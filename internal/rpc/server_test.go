package rpc

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/macwinctl/macwinctl/internal/model"
)

type fakeLoop struct {
	displays     []model.Display
	mouseX       int
	mouseY       int
	mouseErr     error
	edge         model.Edge
	sentLayouts  []string
	syncedLayout string
	hasSynced    bool
	debug        model.DebugSnapshot
}

func (f *fakeLoop) LocalDisplays() []model.Display      { return f.displays }
func (f *fakeLoop) MousePosition() (int, int, error)    { return f.mouseX, f.mouseY, f.mouseErr }
func (f *fakeLoop) RemoteEdge() model.Edge              { return f.edge }
func (f *fakeLoop) SetRemoteEdge(edge model.Edge)        { f.edge = edge }
func (f *fakeLoop) SendLayoutSync(layout string) error {
	f.sentLayouts = append(f.sentLayouts, layout)
	return nil
}
func (f *fakeLoop) SyncedLayout() (string, bool)       { return f.syncedLayout, f.hasSynced }
func (f *fakeLoop) DebugSnapshot() model.DebugSnapshot { return f.debug }

type fakeSessionStatus struct {
	addr      string
	connected bool
	dialed    []string
}

func (f *fakeSessionStatus) ConnectedTo() (string, bool) { return f.addr, f.connected }

func (f *fakeSessionStatus) Dial(address string) error {
	f.dialed = append(f.dialed, address)
	return nil
}

type fakePeerSource struct {
	peers []model.Peer
}

func (f *fakePeerSource) Live(now time.Time, window time.Duration) []model.Peer { return f.peers }

type fakeRemoteDisplaySource struct {
	entries []model.RemoteDisplays
}

func (f *fakeRemoteDisplaySource) Entries() []model.RemoteDisplays { return f.entries }

type fakeClipboard struct {
	text string
	err  error
}

func (f *fakeClipboard) GetText() (string, error) { return f.text, f.err }
func (f *fakeClipboard) SetText(text string) error {
	f.text = text
	return nil
}

func newTestServer() (*Server, *fakeLoop, *fakeSessionStatus, *fakePeerSource, *fakeRemoteDisplaySource, *fakeClipboard) {
	loop := &fakeLoop{displays: []model.Display{{Name: "main", Width: 1920, Height: 1080, IsPrimary: true}}, edge: model.EdgeRight}
	sessions := &fakeSessionStatus{}
	peers := &fakePeerSource{}
	remotes := &fakeRemoteDisplaySource{}
	clip := &fakeClipboard{}

	s := NewServer("", loop, sessions, peers, remotes, clip, 6*time.Second, time.Hour)
	return s, loop, sessions, peers, remotes, clip
}

func dialTestServer(t *testing.T, s *Server) (*websocket.Conn, *httptest.Server) {
	t.Helper()
	httpServer := httptest.NewServer(http.HandlerFunc(s.handleWS))

	wsURL := "ws" + strings.TrimPrefix(httpServer.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		httpServer.Close()
		t.Fatalf("dial: %v", err)
	}
	return conn, httpServer
}

func roundTrip(t *testing.T, conn *websocket.Conn, req Request) Response {
	t.Helper()
	data, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		t.Fatalf("write request: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, respData, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read response: %v", err)
	}

	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	return resp
}

func TestGetAllScreensReturnsLocalDisplays(t *testing.T) {
	s, _, _, _, _, _ := newTestServer()
	conn, httpServer := dialTestServer(t, s)
	defer httpServer.Close()
	defer conn.Close()

	resp := roundTrip(t, conn, Request{ID: "1", Op: "get_all_screens"})
	if len(resp.Screens) != 1 || resp.Screens[0].Name != "main" {
		t.Fatalf("unexpected screens: %+v", resp.Screens)
	}
}

func TestGetMousePositionReturnsCoordinates(t *testing.T) {
	s, loop, _, _, _, _ := newTestServer()
	loop.mouseX, loop.mouseY = 42, 99
	conn, httpServer := dialTestServer(t, s)
	defer httpServer.Close()
	defer conn.Close()

	resp := roundTrip(t, conn, Request{Op: "get_mouse_position"})
	if resp.MouseX == nil || resp.MouseY == nil || *resp.MouseX != 42 || *resp.MouseY != 99 {
		t.Fatalf("unexpected mouse position: %+v", resp)
	}
}

func TestSetScreenLayoutRejectsUnknownEdge(t *testing.T) {
	s, _, _, _, _, _ := newTestServer()
	conn, httpServer := dialTestServer(t, s)
	defer httpServer.Close()
	defer conn.Close()

	resp := roundTrip(t, conn, Request{Op: "set_screen_layout", Edge: "north"})
	if resp.Error == "" {
		t.Fatal("expected an error for an unknown edge")
	}
}

func TestSetScreenLayoutAppliesValidEdge(t *testing.T) {
	s, loop, _, _, _, _ := newTestServer()
	conn, httpServer := dialTestServer(t, s)
	defer httpServer.Close()
	defer conn.Close()

	resp := roundTrip(t, conn, Request{Op: "set_screen_layout", Edge: "left"})
	if resp.Error != "" || resp.LayoutEdge != "left" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if loop.edge != model.EdgeLeft {
		t.Fatalf("expected loop edge updated to left, got %v", loop.edge)
	}
}

func TestGetConnectionStatusReportsLivePeersAndOutbound(t *testing.T) {
	s, _, sessions, peers, _, _ := newTestServer()
	sessions.addr, sessions.connected = "10.0.0.3", true
	peers.peers = []model.Peer{{Name: "b", Address: "10.0.0.3", Kind: model.KindWindows}}

	conn, httpServer := dialTestServer(t, s)
	defer httpServer.Close()
	defer conn.Close()

	resp := roundTrip(t, conn, Request{Op: "get_connection_status"})
	if resp.Status == nil || !resp.Status.IsConnected || resp.Status.ConnectedTo != "10.0.0.3" {
		t.Fatalf("unexpected status: %+v", resp.Status)
	}
	if len(resp.Status.DiscoveredPeers) != 1 || resp.Status.DiscoveredPeers[0].Address != "10.0.0.3" {
		t.Fatalf("unexpected discovered peers: %+v", resp.Status.DiscoveredPeers)
	}
}

func TestGetRemoteScreensFlattensEntriesWithOwner(t *testing.T) {
	s, _, _, _, remotes, _ := newTestServer()
	remotes.entries = []model.RemoteDisplays{
		{Name: "b", Displays: []model.Display{{Width: 2560, Height: 1440}}},
	}

	conn, httpServer := dialTestServer(t, s)
	defer httpServer.Close()
	defer conn.Close()

	resp := roundTrip(t, conn, Request{Op: "get_remote_screens"})
	if len(resp.RemoteScreens) != 1 || resp.RemoteScreens[0].Owner != "b" || resp.RemoteScreens[0].Width != 2560 {
		t.Fatalf("unexpected remote screens: %+v", resp.RemoteScreens)
	}
}

func TestClipboardGetAndSet(t *testing.T) {
	s, _, _, _, _, clip := newTestServer()
	clip.text = "initial"

	conn, httpServer := dialTestServer(t, s)
	defer httpServer.Close()
	defer conn.Close()

	resp := roundTrip(t, conn, Request{Op: "get_clipboard_text"})
	if resp.ClipboardText != "initial" {
		t.Fatalf("unexpected clipboard text: %q", resp.ClipboardText)
	}

	resp = roundTrip(t, conn, Request{Op: "set_clipboard_text", Text: "updated"})
	if resp.Error != "" {
		t.Fatalf("unexpected error: %s", resp.Error)
	}
	if clip.text != "updated" {
		t.Fatalf("expected clipboard updated, got %q", clip.text)
	}
}

func TestPairDialsRequestedAddress(t *testing.T) {
	s, _, sessions, _, _, _ := newTestServer()
	conn, httpServer := dialTestServer(t, s)
	defer httpServer.Close()
	defer conn.Close()

	resp := roundTrip(t, conn, Request{Op: "pair", Address: "10.0.0.9"})
	if resp.Error != "" {
		t.Fatalf("unexpected error: %s", resp.Error)
	}
	if len(sessions.dialed) != 1 || sessions.dialed[0] != "10.0.0.9" {
		t.Fatalf("expected dial to 10.0.0.9, got %+v", sessions.dialed)
	}
}

func TestPairWithoutAddressIsRejected(t *testing.T) {
	s, _, _, _, _, _ := newTestServer()
	conn, httpServer := dialTestServer(t, s)
	defer httpServer.Close()
	defer conn.Close()

	resp := roundTrip(t, conn, Request{Op: "pair"})
	if resp.Error == "" {
		t.Fatal("expected an error when pairing without an address")
	}
}

func TestUnknownOpReturnsError(t *testing.T) {
	s, _, _, _, _, _ := newTestServer()
	conn, httpServer := dialTestServer(t, s)
	defer httpServer.Close()
	defer conn.Close()

	resp := roundTrip(t, conn, Request{Op: "not_a_real_op"})
	if resp.Error == "" {
		t.Fatal("expected an error for an unknown op")
	}
}

func TestSyncedLayoutRoundTrip(t *testing.T) {
	s, loop, _, _, _, _ := newTestServer()
	loop.syncedLayout = `{"order":["a","b"]}`
	loop.hasSynced = true

	conn, httpServer := dialTestServer(t, s)
	defer httpServer.Close()
	defer conn.Close()

	resp := roundTrip(t, conn, Request{Op: "get_synced_layout"})
	if !resp.HasSyncedLayout || resp.SyncedLayout != `{"order":["a","b"]}` {
		t.Fatalf("unexpected synced layout response: %+v", resp)
	}

	resp = roundTrip(t, conn, Request{Op: "send_layout_sync", Layout: "new layout"})
	if resp.Error != "" {
		t.Fatalf("unexpected error: %s", resp.Error)
	}
	if len(loop.sentLayouts) != 1 || loop.sentLayouts[0] != "new layout" {
		t.Fatalf("expected layout forwarded to loop, got %+v", loop.sentLayouts)
	}
}
