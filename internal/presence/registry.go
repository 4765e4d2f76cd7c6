/*
Package presence
File: registry.go
Description:
    Best-effort view of other miners. Peers publish their position on an
    interval; the registry keeps the latest snapshot per opaque session id.

    Delivery is unordered and lossy: a peer is absent until its first
    update, an older timestamp never overwrites a newer one, and a peer
    that stays silent longer than the TTL is evicted (a crashed client
    cannot linger forever).
*/

package presence

import (
	"sort"
	"sync"
	"time"
)

// Position is the payload a peer broadcasts.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Peer is one observed remote miner.
type Peer struct {
	ID       string    `json:"id"`
	Position Position  `json:"position"`
	SeenAt   time.Time `json:"seen_at"`
}

// Registry is safe for concurrent use; the hub writes, HTTP handlers read.
type Registry struct {
	mu    sync.RWMutex
	ttl   time.Duration
	peers map[string]Peer
}

// NewRegistry returns a registry that drops peers silent for longer than ttl.
// A non-positive ttl disables eviction.
func NewRegistry(ttl time.Duration) *Registry {
	return &Registry{
		ttl:   ttl,
		peers: make(map[string]Peer),
	}
}

// Observe records a position update. Out-of-order (older) updates are ignored.
// Returns true if the update was applied.
func (r *Registry) Observe(id string, pos Position, at time.Time) bool {
	if id == "" {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if cur, ok := r.peers[id]; ok && at.Before(cur.SeenAt) {
		return false
	}
	r.peers[id] = Peer{ID: id, Position: pos, SeenAt: at}
	return true
}

// Leave removes a peer immediately (its key was cleared).
func (r *Registry) Leave(id string) {
	r.mu.Lock()
	delete(r.peers, id)
	r.mu.Unlock()
}

// Expire evicts stale peers and returns their ids.
func (r *Registry) Expire(now time.Time) []string {
	if r.ttl <= 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var gone []string
	for id, p := range r.peers {
		if now.Sub(p.SeenAt) > r.ttl {
			delete(r.peers, id)
			gone = append(gone, id)
		}
	}
	sort.Strings(gone)
	return gone
}

// Snapshot lists live peers, sorted by id, excluding the given id (the local player).
func (r *Registry) Snapshot(now time.Time, exclude string) []Peer {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Peer, 0, len(r.peers))
	for id, p := range r.peers {
		if id == exclude {
			continue
		}
		if r.ttl > 0 && now.Sub(p.SeenAt) > r.ttl {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len is the number of tracked peers, stale or not.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.peers)
}
