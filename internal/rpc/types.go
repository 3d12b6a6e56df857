// Package rpc implements the local control-plane surface the external GUI
// collaborator talks to: a loopback websocket server exposing the
// operations named in spec.md §6 (get_local_ip, get_connection_status,
// set_screen_layout, get_debug_info, ...), plus unsolicited debug_info
// pushes at the control loop's "every N ticks" cadence. This transport is
// process-local only; it is not the LAN peer-to-peer wire protocol, which
// stays raw newline-JSON TCP per internal/session.
package rpc

import "github.com/macwinctl/macwinctl/internal/model"

// Request is a single operation call from the GUI collaborator. Only the
// fields relevant to Op are populated.
type Request struct {
	ID string `json:"id,omitempty"`
	Op string `json:"op"`

	// set_screen_layout
	Edge string `json:"edge,omitempty"`

	// send_layout_sync
	Layout string `json:"layout,omitempty"`

	// set_clipboard_text
	Text string `json:"text,omitempty"`

	// pair
	Address string `json:"address,omitempty"`
}

// Response answers a Request, or — when Type is "debug_info" — carries an
// unsolicited push that was not asked for.
type Response struct {
	ID    string `json:"id,omitempty"`
	Op    string `json:"op,omitempty"`
	Type  string `json:"type"`
	Error string `json:"error,omitempty"`

	LocalIP      string `json:"local_ip,omitempty"`
	ComputerName string `json:"computer_name,omitempty"`

	Screens []ScreenDTO `json:"screens,omitempty"`

	MouseX *int `json:"mouse_x,omitempty"`
	MouseY *int `json:"mouse_y,omitempty"`

	Status *ConnectionStatus `json:"status,omitempty"`

	RemoteScreens []RemoteScreen `json:"remote_screens,omitempty"`

	LayoutEdge string `json:"layout_edge,omitempty"`

	SyncedLayout    string `json:"synced_layout,omitempty"`
	HasSyncedLayout bool   `json:"has_synced_layout,omitempty"`

	ClipboardText string `json:"clipboard_text,omitempty"`

	Debug *DebugInfo `json:"debug,omitempty"`
}

// ScreenDTO mirrors model.Display across the RPC boundary; kept distinct
// from the wire model so the local control-plane schema can evolve
// independently of the LAN protocol.
type ScreenDTO struct {
	Name      string `json:"name"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	IsPrimary bool   `json:"is_primary"`
}

func toScreenDTO(d model.Display) ScreenDTO {
	return ScreenDTO{Name: d.Name, X: d.X, Y: d.Y, Width: d.Width, Height: d.Height, IsPrimary: d.IsPrimary}
}

func toScreenDTOs(displays []model.Display) []ScreenDTO {
	out := make([]ScreenDTO, 0, len(displays))
	for _, d := range displays {
		out = append(out, toScreenDTO(d))
	}
	return out
}

// RemoteScreen is a remote display tagged with the peer name that owns it.
type RemoteScreen struct {
	Owner string `json:"owner"`
	ScreenDTO
}

// PeerDTO mirrors model.Peer across the RPC boundary.
type PeerDTO struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Kind    string `json:"kind"`
}

// ConnectionStatus answers get_connection_status.
type ConnectionStatus struct {
	IsConnected     bool      `json:"is_connected"`
	ConnectedTo     string    `json:"connected_to,omitempty"`
	DiscoveredPeers []PeerDTO `json:"discovered_peers"`
}

// BoundsDTO mirrors model.Bounds across the RPC boundary.
type BoundsDTO struct {
	MinX int `json:"min_x"`
	MinY int `json:"min_y"`
	MaxX int `json:"max_x"`
	MaxY int `json:"max_y"`
}

// DebugInfo answers get_debug_info and is pushed unsolicited.
type DebugInfo struct {
	MouseX            int       `json:"mouse_x"`
	MouseY            int       `json:"mouse_y"`
	ScreenBounds      BoundsDTO `json:"screen_bounds"`
	EdgeStatus        string    `json:"edge_status"`
	RemoteScreenCount int       `json:"remote_screen_count"`
	LastUpdate        int64     `json:"last_update"`
}

func toDebugInfo(s model.DebugSnapshot) *DebugInfo {
	return &DebugInfo{
		MouseX: s.MouseX,
		MouseY: s.MouseY,
		ScreenBounds: BoundsDTO{
			MinX: s.ScreenBounds.MinX,
			MinY: s.ScreenBounds.MinY,
			MaxX: s.ScreenBounds.MaxX,
			MaxY: s.ScreenBounds.MaxY,
		},
		EdgeStatus:        string(s.EdgeStatus),
		RemoteScreenCount: s.RemoteScreenCount,
		LastUpdate:        s.LastUpdateMs,
	}
}

func intPtr(v int) *int { return &v }
