// Package seed implements the stateless rendezvous node peers use to find
// each other: a registry of address to last-seen time, with no chain
// knowledge and no message types beyond peer discovery.
package seed

import (
	"sync"
	"time"

	"github.com/hashline/powchain/foundation/blockchain/peer"
)

// DefaultTTL is how long an address may go unseen before it's evicted.
const DefaultTTL = 5 * time.Minute

// Registry is a pure in-memory key-value store of address to last-seen
// time. It never holds chain state.
type Registry struct {
	mu       sync.Mutex
	ttl      time.Duration
	lastSeen map[string]time.Time
}

// NewRegistry constructs an empty registry evicting entries older than ttl.
func NewRegistry(ttl time.Duration) *Registry {
	return &Registry{
		ttl:      ttl,
		lastSeen: make(map[string]time.Time),
	}
}

// Touch inserts or refreshes host's last-seen time.
func (r *Registry) Touch(host string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.evictLocked(time.Now())
	r.lastSeen[host] = time.Now()
}

// Peers returns every registered address except exclude, evicting any
// entry whose last-seen time has exceeded the TTL first.
func (r *Registry) Peers(exclude string) []peer.Peer {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.evictLocked(time.Now())

	peers := make([]peer.Peer, 0, len(r.lastSeen))
	for host := range r.lastSeen {
		if host == exclude {
			continue
		}
		peers = append(peers, peer.New(host))
	}

	return peers
}

// Count returns the number of currently registered addresses, evicting
// stale entries first.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.evictLocked(time.Now())
	return len(r.lastSeen)
}

// evictLocked removes every entry whose last-seen time is older than the
// TTL. Callers must hold r.mu.
func (r *Registry) evictLocked(now time.Time) {
	for host, seenAt := range r.lastSeen {
		if now.Sub(seenAt) > r.ttl {
			delete(r.lastSeen, host)
		}
	}
}
