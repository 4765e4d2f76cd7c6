/*
Package game
File: session.go
Description:
    The Simulation Loop. A Session owns one mine (world, player, quest,
    upgrade shop) and advances it one frame per Tick. It replaces the
    module-level globals of a single-page game so several sessions can run
    side by side and tests can build their own.

    A Session is not safe for concurrent use; the server serializes access
    with its own lock (see api.Server).
*/

package game

import (
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/everforgeworks/deepdrill/internal/logger"
)

// Notifier receives the one-line messages shown to the player.
type Notifier interface {
	Notify(msg string)
}

// NotifierFunc adapts a plain function to Notifier.
type NotifierFunc func(msg string)

func (f NotifierFunc) Notify(msg string) { f(msg) }

const defaultPlayerID = "local"

// repeatWindow suppresses the same message while a key is held down.
const repeatWindow = time.Second

// Session is the explicit context every operation runs against.
type Session struct {
	cfg Config
	rng *rand.Rand

	World    *World
	Player   *Player
	Quest    *Quest
	Upgrades []*Upgrade

	Frame uint64

	notifier Notifier
	held     Intents
	pending  map[Action]bool

	now        time.Time
	lastIncome time.Time
	lastMsg    string
	lastMsgAt  time.Time
}

// Option customizes NewSession.
type Option func(*Session)

// WithNotifier routes player messages to n.
func WithNotifier(n Notifier) Option {
	return func(s *Session) { s.notifier = n }
}

// WithPlayerID sets the opaque id the player is published under.
func WithPlayerID(id string) Option {
	return func(s *Session) { s.Player.ID = id }
}

// WithSeed overrides the configured world seed.
func WithSeed(seed int64) Option {
	return func(s *Session) { s.cfg.World.Seed = seed }
}

// NewSession generates a fresh mine from cfg. A zero seed draws one from the clock.
func NewSession(cfg Config, opts ...Option) *Session {
	s := newSession(cfg)
	for _, o := range opts {
		o(s)
	}
	if s.cfg.World.Seed == 0 {
		s.cfg.World.Seed = time.Now().UnixNano()
	}
	s.rng = rand.New(rand.NewSource(s.cfg.World.Seed))

	s.World = GenerateWorld(cfg.World.Width, cfg.World.Depth, cfg.Ores, s.rng)
	s.World.PlaceShafts(cfg.World.ShaftInterval, s.rng)

	logger.Log.WithFields(logrus.Fields{
		"seed":   s.cfg.World.Seed,
		"width":  s.World.Width,
		"depth":  s.World.Depth,
		"shafts": len(s.World.Shafts),
	}).Info("mine generated")

	s.notify("Quest: " + s.Quest.Title)
	return s
}

// newSession builds everything except the world.
func newSession(cfg Config) *Session {
	pc := cfg.Player
	s := &Session{
		cfg:      cfg,
		notifier: NotifierFunc(func(string) {}),
		pending:  map[Action]bool{},
		Player: &Player{
			ID:            defaultPlayerID,
			X:             float64(cfg.World.Width / 2),
			Speed:         pc.Speed,
			DrillPower:    pc.DrillPower,
			TeleportRange: pc.TeleportRange,
			DirtCapacity:  pc.DirtCapacity,
			OreCapacity:   pc.OreCapacity,
			Haul:          map[Block]int{},
			Credits:       cfg.Balance.StartingCredits,
		},
		Quest: newQuest(cfg.Quest),
	}
	for _, u := range cfg.Upgrades {
		s.Upgrades = append(s.Upgrades, newUpgrade(u))
	}
	return s
}

// Config returns the configuration the session runs with.
func (s *Session) Config() Config { return s.cfg }

// Seed returns the seed the world was generated from.
func (s *Session) Seed() int64 { return s.cfg.World.Seed }

// SetHeld replaces the directional intents read on the next free-roam frame.
func (s *Session) SetHeld(in Intents) { s.held = in }

// Held returns the current directional intents.
func (s *Session) Held() Intents { return s.held }

// Trigger queues a one-shot action. It fires on the next free-roam frame
// and is then cleared, so holding the key down does not repeat it.
func (s *Session) Trigger(a Action) { s.pending[a] = true }

// Tick advances the simulation by one frame.
//
// States: free-roam (input drives velocity) and returning (forced ascent,
// sale on arrival). Passive income and quest completion run every frame.
func (s *Session) Tick(now time.Time) {
	s.now = now
	s.Frame++

	if !s.Player.Returning {
		s.handleInput()
	}
	s.step()
	s.TickPassiveIncome(now)
	s.CheckQuestCompletion()
}

func (s *Session) handleInput() {
	in := s.held
	p := s.Player

	switch {
	case in.Left:
		p.VX = -p.Speed
	case in.Right:
		p.VX = p.Speed
	default:
		p.VX = 0
	}

	switch {
	case in.Up:
		p.VY = -p.Speed
	case in.Down:
		s.drillBelow()
		p.VY = p.Speed
	default:
		p.VY = 0
	}

	if s.pending[ActionBuildPipe] {
		delete(s.pending, ActionBuildPipe)
		s.report(s.BuildPipe())
	}
	if s.pending[ActionTeleport] {
		delete(s.pending, ActionTeleport)
		s.report(s.Teleport())
	}
}

// Stats is the status line for the rendering collaborator.
func (s *Session) Stats() Stats {
	p := s.Player
	return Stats{
		DirtCargo:    p.DirtCargo,
		DirtCapacity: p.DirtCapacity,
		OreCargo:     p.OreCargo,
		OreCapacity:  p.OreCapacity,
		Credits:      p.Credits,
		Pipes:        s.World.PipedCount(),
	}
}

// report forwards a rejection to the player; nil is a no-op.
func (s *Session) report(err error) {
	if err == nil {
		return
	}
	logger.Log.WithField("frame", s.Frame).Debugf("rejected: %v", err)
	s.notify(err.Error())
}

func (s *Session) notify(msg string) {
	if msg == s.lastMsg && !s.now.IsZero() && s.now.Sub(s.lastMsgAt) < repeatWindow {
		return
	}
	s.lastMsg = msg
	s.lastMsgAt = s.now
	s.notifier.Notify(msg)
}
