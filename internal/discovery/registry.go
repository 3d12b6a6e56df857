package discovery

import (
	"sync"
	"time"

	"github.com/macwinctl/macwinctl/internal/model"
)

// Registry is the peer registry keyed by network address, protected by a
// reader-writer lock acquired for the shortest possible span per the
// shared-state discipline — it is never held across a network call.
type Registry struct {
	mu    sync.RWMutex
	peers map[string]model.Peer
}

func NewRegistry() *Registry {
	return &Registry{peers: make(map[string]model.Peer)}
}

// Upsert refreshes a peer's last-seen timestamp, inserting it if new.
func (r *Registry) Upsert(peer model.Peer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.peers[peer.Address] = peer
}

// Get returns the peer at address, if known.
func (r *Registry) Get(address string) (model.Peer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.peers[address]
	return p, ok
}

// Live returns every peer that has beaconed within window, as of now.
func (r *Registry) Live(now time.Time, window time.Duration) []model.Peer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	live := make([]model.Peer, 0, len(r.peers))
	for _, p := range r.peers {
		if p.Live(now, window) {
			live = append(live, p)
		}
	}
	return live
}

// Prune removes every peer that is not live and is not referenced by
// inUse, per the invariant that a peer is only removed once both
// conditions hold.
func (r *Registry) Prune(now time.Time, window time.Duration, inUse func(address string) bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for addr, p := range r.peers {
		if !p.Live(now, window) && !inUse(addr) {
			delete(r.peers, addr)
		}
	}
}

// RemoteDisplayRegistry stores each peer's advertised display inventory,
// keyed by the name the peer sent in its hello message. Replace-all applies
// per name.
type RemoteDisplayRegistry struct {
	mu    sync.RWMutex
	byName map[string]model.RemoteDisplays
}

func NewRemoteDisplayRegistry() *RemoteDisplayRegistry {
	return &RemoteDisplayRegistry{byName: make(map[string]model.RemoteDisplays)}
}

func (r *RemoteDisplayRegistry) Set(entry model.RemoteDisplays) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byName[entry.Name] = entry
}

// All returns every display across every known peer, flattened, for the
// control loop's "remote display registry non-empty" and union-bounds
// calculations.
func (r *RemoteDisplayRegistry) All() []model.Display {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var all []model.Display
	for _, entry := range r.byName {
		all = append(all, entry.Displays...)
	}
	return all
}

func (r *RemoteDisplayRegistry) Empty() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, entry := range r.byName {
		if len(entry.Displays) > 0 {
			return false
		}
	}
	return true
}

func (r *RemoteDisplayRegistry) Entries() []model.RemoteDisplays {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.RemoteDisplays, 0, len(r.byName))
	for _, e := range r.byName {
		out = append(out, e)
	}
	return out
}
