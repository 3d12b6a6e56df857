package discovery

import (
	"net"
	"time"

	"github.com/macwinctl/macwinctl/internal/model"
)

// DialFunc attempts an outbound TCP dial to a discovered peer's address.
// The discovery layer only knows how to trigger a dial, not how sessions
// are tracked — that decision belongs to the session manager.
type DialFunc func(address string)

// Listener binds the discovery UDP port, parses beacons, upserts the peer
// registry, and triggers the auto-connect policy.
type Listener struct {
	udpPort  int
	registry *Registry
	dial     DialFunc

	// hasOutbound reports whether an outbound session already exists, so
	// the auto-connect policy only dials when none does.
	hasOutbound func() bool
}

func NewListener(udpPort int, registry *Registry, hasOutbound func() bool, dial DialFunc) *Listener {
	return &Listener{udpPort: udpPort, registry: registry, hasOutbound: hasOutbound, dial: dial}
}

// Run binds the UDP socket and processes datagrams until stop is closed.
func (l *Listener) Run(stop <-chan struct{}) error {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{Port: l.udpPort})
	if err != nil {
		return err
	}
	defer conn.Close()

	go func() {
		<-stop
		conn.Close()
	}()

	localIP := GetLocalIP()
	buf := make([]byte, maxDatagramSize+256)

	for {
		n, addr, err := conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-stop:
				return nil
			default:
				log.Debug("udp read error", "error", err)
				continue
			}
		}

		name, ip, kind, ok := ParseBeacon(buf[:n])
		if !ok {
			continue
		}
		if ip == localIP {
			continue // suppress self-echo
		}
		_ = addr

		l.registry.Upsert(model.Peer{
			Name:     name,
			Address:  ip,
			Kind:     kind,
			LastSeen: time.Now(),
		})

		if !l.hasOutbound() {
			l.dial(ip)
		}
	}
}
