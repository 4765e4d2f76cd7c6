package game

import (
	"encoding/json"
	"fmt"
	"time"
)

// SnapshotVersion is bumped whenever the saved layout changes.
const SnapshotVersion = 1

// Snapshot is the persisted form of a Session.
type Snapshot struct {
	Version   int            `json:"version"`
	Seed      int64          `json:"seed"`
	Frame     uint64         `json:"frame"`
	SavedAt   time.Time      `json:"saved_at"`
	World     *World         `json:"world"`
	Player    Player         `json:"player"`
	Quest     Quest          `json:"quest"`
	Purchases map[string]int `json:"purchases"` // upgrade key -> times bought
}

// Snapshot captures the session state. The result shares no memory with s.
func (s *Session) Snapshot(now time.Time) Snapshot {
	w := &World{
		Width: s.World.Width,
		Depth: s.World.Depth,
		Cells: make([][]Block, len(s.World.Cells)),
	}
	for y, row := range s.World.Cells {
		w.Cells[y] = append([]Block(nil), row...)
	}
	for _, sh := range s.World.Shafts {
		c := *sh
		w.Shafts = append(w.Shafts, &c)
	}

	p := *s.Player
	p.Haul = make(map[Block]int, len(s.Player.Haul))
	for b, n := range s.Player.Haul {
		p.Haul[b] = n
	}

	purchases := map[string]int{}
	for _, u := range s.Upgrades {
		if u.Purchases > 0 {
			purchases[u.Key] = u.Purchases
		}
	}

	return Snapshot{
		Version:   SnapshotVersion,
		Seed:      s.cfg.World.Seed,
		Frame:     s.Frame,
		SavedAt:   now.UTC(),
		World:     w,
		Player:    p,
		Quest:     *s.Quest,
		Purchases: purchases,
	}
}

// RestoreSession rebuilds a session from a snapshot. Upgrade prices come from
// cfg, so retuned base costs apply to restored purchase counts.
func RestoreSession(cfg Config, snap Snapshot, opts ...Option) (*Session, error) {
	if snap.Version != SnapshotVersion {
		return nil, fmt.Errorf("snapshot version %d, want %d", snap.Version, SnapshotVersion)
	}
	if snap.World == nil || len(snap.World.Cells) != snap.World.Depth {
		return nil, fmt.Errorf("snapshot world is malformed")
	}
	for y, row := range snap.World.Cells {
		if len(row) != snap.World.Width {
			return nil, fmt.Errorf("snapshot row %d has %d cells, want %d", y, len(row), snap.World.Width)
		}
	}

	cfg.World.Seed = snap.Seed
	s := newSession(cfg)
	for _, o := range opts {
		o(s)
	}
	override := s.Player.ID

	s.World = snap.World
	s.Frame = snap.Frame
	p := snap.Player
	if p.Haul == nil {
		p.Haul = map[Block]int{}
	}
	if override != defaultPlayerID || p.ID == "" {
		p.ID = override
	}
	s.Player = &p
	q := snap.Quest
	s.Quest = &q
	for _, u := range s.Upgrades {
		u.Purchases = snap.Purchases[u.Key]
	}
	return s, nil
}

// EncodeSnapshot serializes a snapshot for a store backend.
func EncodeSnapshot(snap Snapshot) ([]byte, error) {
	return json.Marshal(snap)
}

// DecodeSnapshot is the inverse of EncodeSnapshot.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return snap, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}
