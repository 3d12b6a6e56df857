package discovery

import (
	"testing"
	"time"

	"github.com/macwinctl/macwinctl/internal/model"
)

func TestParseBeaconValid(t *testing.T) {
	name, ip, kind, ok := ParseBeacon([]byte("MACWINCTRL|mac-mini|10.0.0.2|mac\n"))
	if !ok {
		t.Fatal("expected valid beacon to parse")
	}
	if name != "mac-mini" || ip != "10.0.0.2" || kind != model.KindMac {
		t.Fatalf("unexpected parse result: %q %q %q", name, ip, kind)
	}
}

func TestParseBeaconRejectsWrongMagic(t *testing.T) {
	_, _, _, ok := ParseBeacon([]byte("OTHERTAG|name|10.0.0.2|mac"))
	if ok {
		t.Fatal("expected non-matching magic to be rejected")
	}
}

func TestParseBeaconRejectsTooFewFields(t *testing.T) {
	_, _, _, ok := ParseBeacon([]byte("MACWINCTRL|name|10.0.0.2"))
	if ok {
		t.Fatal("expected fewer than 4 fields to be rejected")
	}
}

func TestParseBeaconTruncatesOversizedDatagram(t *testing.T) {
	huge := make([]byte, maxDatagramSize*2)
	copy(huge, []byte("MACWINCTRL|name|10.0.0.2|mac|"))
	for i := 30; i < len(huge); i++ {
		huge[i] = 'x'
	}
	name, ip, kind, ok := ParseBeacon(huge)
	if !ok {
		t.Fatal("expected oversized-but-truncated datagram to still parse its leading fields")
	}
	if name != "name" || ip != "10.0.0.2" || kind != model.KindMac {
		t.Fatalf("unexpected parse result after truncation: %q %q %q", name, ip, kind)
	}
}

func TestRegistryLiveWindow(t *testing.T) {
	r := NewRegistry()
	now := time.Now()
	r.Upsert(model.Peer{Name: "a", Address: "10.0.0.2", Kind: model.KindMac, LastSeen: now})
	r.Upsert(model.Peer{Name: "b", Address: "10.0.0.3", Kind: model.KindWindows, LastSeen: now.Add(-10 * time.Second)})

	live := r.Live(now, 6*time.Second)
	if len(live) != 1 || live[0].Address != "10.0.0.2" {
		t.Fatalf("expected only the recently-seen peer to be live, got %+v", live)
	}
}

func TestRegistryPruneRequiresNotLiveAndNotInUse(t *testing.T) {
	r := NewRegistry()
	now := time.Now()
	stale := now.Add(-1 * time.Hour)
	r.Upsert(model.Peer{Name: "a", Address: "10.0.0.2", LastSeen: stale})
	r.Upsert(model.Peer{Name: "b", Address: "10.0.0.3", LastSeen: stale})

	r.Prune(now, 6*time.Second, func(address string) bool {
		return address == "10.0.0.3" // still in use by a session
	})

	if _, ok := r.Get("10.0.0.2"); ok {
		t.Fatal("stale, unused peer should have been pruned")
	}
	if _, ok := r.Get("10.0.0.3"); !ok {
		t.Fatal("stale but in-use peer must not be pruned")
	}
}

func TestRemoteDisplayRegistryReplaceAllPerName(t *testing.T) {
	r := NewRemoteDisplayRegistry()
	r.Set(model.RemoteDisplays{Name: "b", Displays: []model.Display{{Width: 1920, Height: 1080}}})
	r.Set(model.RemoteDisplays{Name: "b", Displays: []model.Display{{Width: 2560, Height: 1440}}})

	entries := r.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected replace-all semantics to keep one entry for name b, got %d", len(entries))
	}
	if entries[0].Displays[0].Width != 2560 {
		t.Fatalf("expected the second Set to replace the first, got width %d", entries[0].Displays[0].Width)
	}
}
