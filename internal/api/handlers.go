/*
Package api
File: handlers.go
Description:
    Contains the HTTP handlers for the REST API.
    Read endpoints render the session for a client; action endpoints feed
    player input into it. Every handler works under Server.mu, the same lock
    the frame ticker takes, so a request never sees half a frame.

    Key Responsibilities:
    - Input Validation (Is the JSON valid? Does the upgrade exist?)
    - State Modification (held intents, one-shot actions, purchases, saves)
    - Mapping rejection reasons to HTTP status codes
*/

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/everforgeworks/deepdrill/internal/game"
	"github.com/everforgeworks/deepdrill/internal/logger"
	"github.com/everforgeworks/deepdrill/internal/presence"
	"github.com/everforgeworks/deepdrill/internal/store"
)

// Request DTOs

type InputRequest struct {
	game.Intents
	Actions []game.Action `json:"actions"`
}

type BuyUpgradeRequest struct {
	Key string `json:"key"`
}

// UpgradeView is an upgrade with its current price filled in.
type UpgradeView struct {
	*game.Upgrade
	Cost int `json:"cost"`
}

type PlayerView struct {
	*game.Player
	Stats     game.Stats `json:"stats"`
	StatsLine string     `json:"stats_line"`
}

type SaveResponse struct {
	Backend string    `json:"backend"`
	Key     string    `json:"key"`
	SavedAt time.Time `json:"saved_at"`
}

// Server owns the live session and everything that touches it.
type Server struct {
	mu      sync.Mutex
	session *game.Session

	store   *store.Chain
	peers   *presence.Registry
	hub     *Hub
	saveKey string
	now     func() time.Time

	lastStats game.Stats
}

// NewServer wires a session to its persistence chain, presence registry and hub.
func NewServer(session *game.Session, chain *store.Chain, peers *presence.Registry, hub *Hub, saveKey string) *Server {
	return &Server{
		session: session,
		store:   chain,
		peers:   peers,
		hub:     hub,
		saveKey: saveKey,
		now:     time.Now,
	}
}

// Routes registers every endpoint on mux.
func (s *Server) Routes(mux *http.ServeMux) {
	// Rendering
	mux.HandleFunc("/api/world", s.handleGetWorld)
	mux.HandleFunc("/api/player", s.handleGetPlayer)
	mux.HandleFunc("/api/shafts", s.handleGetShafts)
	mux.HandleFunc("/api/upgrades", s.handleGetUpgrades)
	mux.HandleFunc("/api/quest", s.handleGetQuest)
	mux.HandleFunc("/api/peers", s.handleGetPeers)

	// Actions
	mux.HandleFunc("/api/input", s.handleInput)
	mux.HandleFunc("/api/upgrades/buy", s.handleBuyUpgrade)
	mux.HandleFunc("/api/save", s.handleSave)

	// Real-time
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		ServeWs(s.hub, w, r)
	})
}

// Tick runs one simulation frame under the server lock and publishes the
// stats line whenever it changed (sale, pipe, payout, digging).
func (s *Server) Tick(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.Tick(now)
	s.publishStatsLocked()
}

func (s *Server) publishStatsLocked() {
	stats := s.session.Stats()
	if stats == s.lastStats {
		return
	}
	s.lastStats = stats
	s.hub.Publish(TypeStats, stats)
}

// Retune applies reloaded tuning to the live session.
func (s *Server) Retune(cfg game.Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.Retune(cfg)
}

// PresencePulse publishes the local miner, evicts silent peers and
// broadcasts the resulting peer list.
func (s *Server) PresencePulse(now time.Time) {
	s.mu.Lock()
	p := s.session.Player
	id, pos := p.ID, presence.Position{X: p.X, Y: p.Y}
	s.mu.Unlock()

	s.peers.Observe(id, pos, now)
	for _, gone := range s.peers.Expire(now) {
		logger.Log.WithField("peer", gone).Info("presence: peer timed out")
	}
	s.hub.Publish(TypePresence, s.peers.Snapshot(now, ""))
}

// Save snapshots the session and writes it through the store chain.
func (s *Server) Save(ctx context.Context) (SaveResponse, error) {
	now := s.now()
	s.mu.Lock()
	snap := s.session.Snapshot(now)
	s.mu.Unlock()

	data, err := game.EncodeSnapshot(snap)
	if err != nil {
		return SaveResponse{}, err
	}
	if err := s.store.Save(ctx, s.saveKey, data); err != nil {
		return SaveResponse{}, err
	}
	resp := SaveResponse{Backend: s.store.Active(), Key: s.saveKey, SavedAt: snap.SavedAt}
	logger.Log.WithFields(logrus.Fields{"backend": resp.Backend, "frame": snap.Frame}).Info("session saved")
	return resp, nil
}

func (s *Server) handleGetWorld(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, s.session.World)
}

func (s *Server) handleGetPlayer(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := s.session.Stats()
	writeJSON(w, PlayerView{Player: s.session.Player, Stats: stats, StatsLine: stats.String()})
}

func (s *Server) handleGetShafts(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, s.session.World.Shafts)
}

func (s *Server) handleGetUpgrades(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	views := make([]UpgradeView, 0, len(s.session.Upgrades))
	for _, u := range s.session.Upgrades {
		views = append(views, UpgradeView{Upgrade: u, Cost: u.Cost()})
	}
	writeJSON(w, views)
}

func (s *Server) handleGetQuest(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, s.session.Quest)
}

// handleGetPeers lists the other miners currently visible.
func (s *Server) handleGetPeers(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	self := s.session.Player.ID
	s.mu.Unlock()
	writeJSON(w, s.peers.Snapshot(s.now(), self))
}

// handleInput replaces the held intents and queues one-shot actions.
func (s *Server) handleInput(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	var req InputRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	for _, a := range req.Actions {
		if a != game.ActionBuildPipe && a != game.ActionTeleport {
			http.Error(w, "Unknown action", http.StatusBadRequest)
			return
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.session.SetHeld(req.Intents)
	for _, a := range req.Actions {
		s.session.Trigger(a)
	}
	writeJSON(w, s.session.Held())
}

// handleBuyUpgrade purchases one level of an upgrade.
func (s *Server) handleBuyUpgrade(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	var req BuyUpgradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.session.BuyUpgrade(req.Key); err != nil {
		writeReason(w, err)
		return
	}
	s.publishStatsLocked()
	u := s.session.FindUpgrade(req.Key)
	writeJSON(w, UpgradeView{Upgrade: u, Cost: u.Cost()})
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	resp, err := s.Save(r.Context())
	if err != nil {
		logger.Log.WithError(err).Error("save failed")
		http.Error(w, "Save failed", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, resp)
}

// writeReason maps a gameplay rejection to a status code.
func writeReason(w http.ResponseWriter, err error) {
	var reason game.Reason
	if !errors.As(err, &reason) {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	switch reason {
	case game.ReasonInsufficientCredits:
		http.Error(w, reason.Error(), http.StatusPaymentRequired)
	case game.ReasonUnknownUpgrade, game.ReasonNoShaft:
		http.Error(w, reason.Error(), http.StatusNotFound)
	default:
		http.Error(w, reason.Error(), http.StatusConflict)
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.WithError(err).Warn("encode response")
	}
}
