/*
Package game
File: economy.go
Description:
    Handles the economy of the mine.
    This includes:
    1. Selling cargo at the surface (and feeding the quest).
    2. Building pipes on shafts and paying passive income on a wall clock.
    3. The upgrade shop with compounding prices.
    4. Latching the quest reward.
*/

package game

import (
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/everforgeworks/deepdrill/internal/logger"
)

// SellCargo converts both holds to credits and empties them.
// Order matters: the quest must see the haul before the holds are reset.
// Returns the credits earned; zero cargo earns zero and changes nothing.
func (s *Session) SellCargo() int {
	p := s.Player
	bal := s.cfg.Balance

	// 1. Record what is being delivered
	delivered := p.Haul[s.Quest.Target]

	// 2. Apply the sale
	value := p.DirtCargo*bal.DirtValue + p.OreCargo*bal.OreValue
	p.Credits += value

	// 3. Advance the quest
	s.Quest.Advance(delivered)

	// 4. Reset the holds
	p.DirtCargo = 0
	p.OreCargo = 0
	p.Haul = map[Block]int{}

	if value > 0 {
		logger.Log.WithFields(logrus.Fields{"value": value, "credits": p.Credits}).Debug("cargo sold")
		s.notify(fmt.Sprintf("Sold cargo for %d credits", value))
	}
	s.CheckQuestCompletion()
	return value
}

// BuildPipe pipes the shaft under the player.
func (s *Session) BuildPipe() error {
	x, y := s.Player.Cell()
	shaft := s.World.ShaftAt(x, y)
	if shaft == nil {
		return ReasonNoShaft
	}
	return s.BuildPipeAt(shaft)
}

// BuildPipeAt pipes shaft if it is not piped yet and the player can pay.
func (s *Session) BuildPipeAt(shaft *Shaft) error {
	if shaft.Piped {
		return ReasonAlreadyPiped
	}
	cost := s.cfg.Balance.PipeCost
	if s.Player.Credits < cost {
		return ReasonInsufficientCredits
	}
	s.Player.Credits -= cost
	shaft.Piped = true
	s.notify("Pipe built. Passive income increased")
	return nil
}

// TickPassiveIncome pays one credit per piped shaft for every full interval
// elapsed since the last payout. The first call only starts the clock.
// Returns the credits paid.
func (s *Session) TickPassiveIncome(now time.Time) int {
	interval := s.cfg.Balance.PassiveIncomeInterval()
	if interval <= 0 {
		return 0
	}
	if s.lastIncome.IsZero() {
		s.lastIncome = now
		return 0
	}
	elapsed := now.Sub(s.lastIncome)
	if elapsed < interval {
		return 0
	}
	periods := int(elapsed / interval)
	s.lastIncome = s.lastIncome.Add(time.Duration(periods) * interval)

	paid := periods * s.World.PipedCount()
	s.Player.Credits += paid
	return paid
}

// FindUpgrade looks an upgrade up by key.
func (s *Session) FindUpgrade(key string) *Upgrade {
	for _, u := range s.Upgrades {
		if u.Key == key {
			return u
		}
	}
	return nil
}

// BuyUpgrade charges the current price, applies the effect and raises the price.
func (s *Session) BuyUpgrade(key string) error {
	u := s.FindUpgrade(key)
	if u == nil {
		s.report(ReasonUnknownUpgrade)
		return ReasonUnknownUpgrade
	}
	cost := u.Cost()
	if s.Player.Credits < cost {
		s.report(ReasonInsufficientCredits)
		return ReasonInsufficientCredits
	}

	s.Player.Credits -= cost
	applyUpgrade(s.Player, u.Field, u.Delta)
	u.Purchases++

	logger.Log.WithFields(logrus.Fields{"upgrade": u.Key, "paid": cost, "next": u.Cost()}).Info("upgrade bought")
	s.notify("Upgraded " + u.Name)
	return nil
}

// applyUpgrade adds delta to the player attribute named by field.
func applyUpgrade(p *Player, field string, delta float64) {
	switch field {
	case FieldDirtCapacity:
		p.DirtCapacity += int(delta)
	case FieldOreCapacity:
		p.OreCapacity += int(delta)
	case FieldDrillPower:
		p.DrillPower += int(delta)
	case FieldSpeed:
		p.Speed += delta
	case FieldTeleportRange:
		p.TeleportRange += int(delta)
	}
}

// CheckQuestCompletion grants the quest reward the first time progress
// reaches the goal. Later calls do nothing.
func (s *Session) CheckQuestCompletion() bool {
	q := s.Quest
	if q.Completed || q.Progress < q.Goal {
		return false
	}
	q.Completed = true
	s.Player.Credits += q.Reward
	logger.Log.WithField("reward", q.Reward).Info("quest complete")
	s.notify(fmt.Sprintf("Quest complete! Reward %d", q.Reward))
	return true
}

// Advance adds delivered units to the quest progress.
func (q *Quest) Advance(delivered int) {
	if delivered > 0 {
		q.Progress += delivered
	}
}

func newQuest(qc QuestConfig) *Quest {
	target, err := ParseBlock(qc.Block)
	if err != nil {
		target = BlockOre2
	}
	return &Quest{
		Title:  qc.Title,
		Target: target,
		Goal:   qc.Goal,
		Reward: qc.Reward,
	}
}

const defaultGrowth = 1.5

func newUpgrade(uc UpgradeConfig) *Upgrade {
	growth := uc.Growth
	if growth <= 0 {
		growth = defaultGrowth
	}
	return &Upgrade{
		Key:      uc.Key,
		Name:     uc.Name,
		BaseCost: uc.Cost,
		Field:    uc.Field,
		Delta:    uc.Delta,
		Growth:   growth,
	}
}

// Cost is the price of the next purchase: floor(BaseCost * Growth^Purchases).
// The floor is taken once on the closed form, not after every purchase, so
// prices can run a credit above a floor-each-step sequence (flight speed:
// 506 rather than 505 for the fourth level) and stay exact after a retune.
func (u *Upgrade) Cost() int {
	return int(math.Floor(float64(u.BaseCost) * math.Pow(u.Growth, float64(u.Purchases))))
}

// Retune swaps in new balance and shop tuning without touching the mine.
// Known upgrades keep their purchase counts; new keys are appended.
func (s *Session) Retune(cfg Config) {
	s.cfg.Balance = cfg.Balance
	s.cfg.Presence = cfg.Presence
	s.cfg.Upgrades = cfg.Upgrades

	for _, uc := range cfg.Upgrades {
		next := newUpgrade(uc)
		if u := s.FindUpgrade(uc.Key); u != nil {
			next.Purchases = u.Purchases
			*u = *next
			continue
		}
		s.Upgrades = append(s.Upgrades, next)
	}
	logger.Log.WithField("upgrades", len(s.Upgrades)).Info("tuning reloaded")
}
