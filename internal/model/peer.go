package model

import "time"

// ComputerKind identifies the OS family of a peer, mirrored from the
// computer_type field the original macOS/Windows clients exchange.
type ComputerKind string

const (
	KindMac     ComputerKind = "mac"
	KindWindows ComputerKind = "windows"
	KindOther   ComputerKind = "other"
)

// Peer is a discovered LAN host, keyed by network address.
type Peer struct {
	Name     string
	Address  string
	Kind     ComputerKind
	LastSeen time.Time
}

// Live reports whether the peer has beaconed within the liveness window.
func (p Peer) Live(now time.Time, window time.Duration) bool {
	return now.Sub(p.LastSeen) <= window
}

// RemoteDisplays is a peer's advertised display inventory, keyed by the name
// it sent in its hello message. Replace-all semantics apply per name.
type RemoteDisplays struct {
	Name     string
	Kind     ComputerKind
	Displays []Display
}
