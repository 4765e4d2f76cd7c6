/*
Package game
File: config.go
Description:
    Tuning variables for a mining session, loaded from 'mine.yaml'.
    DefaultConfig reproduces the stock game when no file is present.
*/

package game

import "time"

// Config is the root configuration struct, mapping to the entire 'mine.yaml' file.
type Config struct {
	World    WorldConfig     `yaml:"world" json:"world"`
	Ores     []OreRule       `yaml:"ores" json:"ores"`
	Balance  Balance         `yaml:"balance" json:"balance"`
	Player   PlayerConfig    `yaml:"player" json:"player"`
	Upgrades []UpgradeConfig `yaml:"upgrades" json:"upgrades"`
	Quest    QuestConfig     `yaml:"quest" json:"quest"`
	Presence PresenceConfig  `yaml:"presence" json:"presence"`
	Storage  StorageConfig   `yaml:"storage" json:"storage"`
}

// WorldConfig sizes and seeds the grid.
type WorldConfig struct {
	Width         int   `yaml:"width" json:"width"`
	Depth         int   `yaml:"depth" json:"depth"`
	Seed          int64 `yaml:"seed" json:"seed"`                     // 0 = seed from the clock
	ShaftInterval int   `yaml:"shaft_interval" json:"shaft_interval"` // a shaft every N rows, starting at N
}

// OreRule places Block with probability Chance on rows deeper than MinDepth.
// Rules are tried in file order; the first hit wins, so list the most valuable first.
type OreRule struct {
	Block    string  `yaml:"block" json:"block"`
	MinDepth int     `yaml:"min_depth" json:"min_depth"`
	Chance   float64 `yaml:"chance" json:"chance"`
}

// Balance holds the economy constants.
type Balance struct {
	StartingCredits int `yaml:"starting_credits" json:"starting_credits"`
	DirtValue       int `yaml:"dirt_value" json:"dirt_value"` // credits per dirt unit sold
	OreValue        int `yaml:"ore_value" json:"ore_value"`   // credits per ore unit sold
	PipeCost        int `yaml:"pipe_cost" json:"pipe_cost"`
	PassiveIncomeMs int `yaml:"passive_income_ms" json:"passive_income_ms"` // one credit per piped shaft per interval
	FrameRateHz     int `yaml:"frame_rate_hz" json:"frame_rate_hz"`
}

// PlayerConfig is the starting loadout of a fresh miner.
type PlayerConfig struct {
	Speed         float64 `yaml:"speed" json:"speed"`
	DrillPower    int     `yaml:"drill_power" json:"drill_power"`
	TeleportRange int     `yaml:"teleport_range" json:"teleport_range"`
	DirtCapacity  int     `yaml:"dirt_capacity" json:"dirt_capacity"`
	OreCapacity   int     `yaml:"ore_capacity" json:"ore_capacity"`
}

// UpgradeConfig describes one entry of the upgrade shop.
type UpgradeConfig struct {
	Key    string  `yaml:"key" json:"key"`
	Name   string  `yaml:"name" json:"name"`
	Cost   int     `yaml:"cost" json:"cost"`
	Field  string  `yaml:"field" json:"field"`
	Delta  float64 `yaml:"delta" json:"delta"`
	Growth float64 `yaml:"growth" json:"growth"`
}

// QuestConfig is the delivery quest offered at the start of a session.
type QuestConfig struct {
	Title  string `yaml:"title" json:"title"`
	Block  string `yaml:"block" json:"block"`
	Goal   int    `yaml:"goal" json:"goal"`
	Reward int    `yaml:"reward" json:"reward"`
}

// PresenceConfig tunes the peer presence channel.
type PresenceConfig struct {
	BroadcastMs int `yaml:"broadcast_ms" json:"broadcast_ms"`
	TTLMs       int `yaml:"ttl_ms" json:"ttl_ms"` // peers silent for longer are dropped
}

// StorageConfig lists the persistence backends, tried in this order.
type StorageConfig struct {
	SQLitePath string `yaml:"sqlite_path" json:"sqlite_path"`
	FileDir    string `yaml:"file_dir" json:"file_dir"`
	SaveKey    string `yaml:"save_key" json:"save_key"`
}

// PassiveIncomeInterval is the wall-clock period between passive payouts.
func (b Balance) PassiveIncomeInterval() time.Duration {
	return time.Duration(b.PassiveIncomeMs) * time.Millisecond
}

// FrameInterval is the period of the simulation ticker.
func (b Balance) FrameInterval() time.Duration {
	if b.FrameRateHz <= 0 {
		return time.Second / 60
	}
	return time.Second / time.Duration(b.FrameRateHz)
}

// BroadcastInterval is the presence publish period.
func (p PresenceConfig) BroadcastInterval() time.Duration {
	return time.Duration(p.BroadcastMs) * time.Millisecond
}

// TTL is how long a silent peer stays visible.
func (p PresenceConfig) TTL() time.Duration {
	return time.Duration(p.TTLMs) * time.Millisecond
}

// DefaultConfig returns the stock mine: 20x200, four ore tiers, five upgrades.
func DefaultConfig() Config {
	return Config{
		World: WorldConfig{
			Width:         20,
			Depth:         200,
			ShaftInterval: 40,
		},
		Ores: []OreRule{
			{Block: "artifact", MinDepth: 100, Chance: 0.02},
			{Block: "ore3", MinDepth: 80, Chance: 0.05},
			{Block: "ore2", MinDepth: 40, Chance: 0.08},
			{Block: "ore1", MinDepth: 0, Chance: 0.15},
		},
		Balance: Balance{
			DirtValue:       1,
			OreValue:        10,
			PipeCost:        100,
			PassiveIncomeMs: 1000,
			FrameRateHz:     60,
		},
		Player: PlayerConfig{
			Speed:         1,
			DrillPower:    1,
			TeleportRange: 20,
			DirtCapacity:  20,
			OreCapacity:   10,
		},
		Upgrades: []UpgradeConfig{
			{Key: "cargo_space", Name: "Cargo Space", Cost: 50, Field: FieldDirtCapacity, Delta: 10, Growth: 1.5},
			{Key: "ore_hold", Name: "Ore Hold", Cost: 100, Field: FieldOreCapacity, Delta: 5, Growth: 1.5},
			{Key: "drill_power", Name: "Drill Power", Cost: 200, Field: FieldDrillPower, Delta: 1, Growth: 1.5},
			{Key: "flight_speed", Name: "Flight Speed", Cost: 150, Field: FieldSpeed, Delta: 0.5, Growth: 1.5},
			{Key: "teleport_range", Name: "Teleport Range", Cost: 300, Field: FieldTeleportRange, Delta: 20, Growth: 1.5},
		},
		Quest: QuestConfig{
			Title:  "Deliver 5 gold ore",
			Block:  "ore2",
			Goal:   5,
			Reward: 200,
		},
		Presence: PresenceConfig{
			BroadcastMs: 100,
			TTLMs:       3000,
		},
		Storage: StorageConfig{
			SQLitePath: "data/deepdrill.db",
			FileDir:    "data/saves",
			SaveKey:    "session",
		},
	}
}
