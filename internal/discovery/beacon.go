package discovery

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/macwinctl/macwinctl/internal/logging"
	"github.com/macwinctl/macwinctl/internal/model"
)

var log = logging.L("discovery")

// Magic is the fixed 10-byte tag leading every beacon datagram.
const Magic = "MACWINCTRL"

const maxDatagramSize = 1024

// Beacon broadcasts this host's presence every interval to 255.255.255.255
// and the inferred /24 broadcast address.
type Beacon struct {
	name     string
	kind     model.ComputerKind
	udpPort  int
	interval time.Duration
}

func NewBeacon(name string, kind model.ComputerKind, udpPort int, interval time.Duration) *Beacon {
	return &Beacon{name: name, kind: kind, udpPort: udpPort, interval: interval}
}

// Run broadcasts until stop is closed.
func (b *Beacon) Run(stop <-chan struct{}) {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			b.broadcastOnce()
		}
	}
}

func (b *Beacon) broadcastOnce() {
	localIP, err := localIPv4()
	if err != nil {
		log.Warn("could not determine local IP for beacon", "error", err)
		return
	}

	payload := fmt.Sprintf("%s|%s|%s|%s\n", Magic, b.name, localIP.String(), b.kind)
	targets := []string{fmt.Sprintf("255.255.255.255:%d", b.udpPort)}
	if subnetBroadcast := broadcastAddressFor(localIP); subnetBroadcast != "" {
		targets = append(targets, fmt.Sprintf("%s:%d", subnetBroadcast, b.udpPort))
	}

	for _, target := range targets {
		if err := sendDatagram(target, payload); err != nil {
			log.Debug("beacon send failed", "target", target, "error", err)
		}
	}
}

func sendDatagram(target, payload string) error {
	addr, err := net.ResolveUDPAddr("udp4", target)
	if err != nil {
		return err
	}
	conn, err := net.DialUDP("udp4", nil, addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
	_, err = conn.Write([]byte(payload))
	return err
}

// localIPv4 returns this host's non-loopback IPv4 address by dialing a UDP
// socket toward a public address without sending any traffic — the
// standard Go idiom for asking the routing table which interface would be
// used.
func localIPv4() (net.IP, error) {
	conn, err := net.Dial("udp4", "8.8.8.8:80")
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	addr := conn.LocalAddr().(*net.UDPAddr)
	return addr.IP, nil
}

// broadcastAddressFor infers the /24 broadcast address for ip by matching
// it against the host's configured interfaces.
func broadcastAddressFor(ip net.IP) string {
	ifaces, err := net.Interfaces()
	if err != nil {
		return ""
	}
	for _, iface := range ifaces {
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, a := range addrs {
			ipNet, ok := a.(*net.IPNet)
			if !ok || ipNet.IP.To4() == nil {
				continue
			}
			if !ipNet.Contains(ip) {
				continue
			}
			bcast := make(net.IP, 4)
			ip4 := ipNet.IP.To4()
			mask := net.CIDRMask(24, 32)
			for i := range bcast {
				bcast[i] = ip4[i] | ^mask[i]
			}
			return bcast.String()
		}
	}
	return ""
}

// GetLocalIP is exported for the RPC surface's get_local_ip operation.
func GetLocalIP() string {
	ip, err := localIPv4()
	if err != nil {
		return ""
	}
	return ip.String()
}

// ParseBeacon validates and parses a raw beacon datagram, rejecting those
// that don't start with Magic or have fewer than 4 fields, and truncating
// anything larger than maxDatagramSize before parsing.
func ParseBeacon(data []byte) (name, ip string, kind model.ComputerKind, ok bool) {
	if len(data) > maxDatagramSize {
		data = data[:maxDatagramSize]
	}
	line := strings.TrimRight(string(data), "\r\n")
	fields := strings.Split(line, "|")
	if len(fields) < 4 || fields[0] != Magic {
		return "", "", "", false
	}
	return fields[1], fields[2], model.ComputerKind(fields[3]), true
}
