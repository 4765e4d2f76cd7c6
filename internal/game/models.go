/*
Package game
File: models.go
Description:
    Defines the data structures used throughout the mine.
    This file serves as the "schema" for the application, mapping directly to
    the YAML configuration file (mine.yaml) and JSON API responses.

    No simulation logic is performed here; only type definitions and the
    small lookup helpers that belong to a type.
*/

package game

import "fmt"

// Block is the content of one grid cell.
type Block uint8

const (
	BlockEmpty Block = iota
	BlockDirt
	BlockOre1
	BlockOre2
	BlockOre3
	BlockArtifact
	BlockShaft
)

var blockNames = [...]string{
	BlockEmpty:    "empty",
	BlockDirt:     "dirt",
	BlockOre1:     "ore1",
	BlockOre2:     "ore2",
	BlockOre3:     "ore3",
	BlockArtifact: "artifact",
	BlockShaft:    "shaft",
}

func (b Block) String() string {
	if int(b) < len(blockNames) {
		return blockNames[b]
	}
	return fmt.Sprintf("block(%d)", uint8(b))
}

// ParseBlock maps a config/API name ("ore2") back to its Block.
func ParseBlock(name string) (Block, error) {
	for i, n := range blockNames {
		if n == name {
			return Block(i), nil
		}
	}
	return BlockEmpty, fmt.Errorf("unknown block %q", name)
}

func (b Block) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

func (b *Block) UnmarshalText(text []byte) error {
	v, err := ParseBlock(string(text))
	if err != nil {
		return err
	}
	*b = v
	return nil
}

// Tier is the ordinal rank of a block: dirt is 1, artifact is 5.
// Empty cells and shafts have no tier.
func (b Block) Tier() int {
	if b < BlockDirt || b > BlockArtifact {
		return 0
	}
	return int(b)
}

// RequiredPower is the minimum drill power needed to break the block (tier - 1).
func (b Block) RequiredPower() int {
	if b.Tier() <= 1 {
		return 0
	}
	return b.Tier() - 1
}

// IsOre reports whether the block goes into the ore hold rather than the dirt hold.
func (b Block) IsOre() bool {
	return b >= BlockOre1 && b <= BlockArtifact
}

// Shaft is a fixed location where a pipe can be built for passive income.
type Shaft struct {
	X     int  `json:"x"`
	Y     int  `json:"y"`
	Piped bool `json:"piped"` // flips false -> true once, never back
}

// Player is the local miner.
type Player struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	VX float64 `json:"vx"`
	VY float64 `json:"vy"`

	// Upgrade-scaled attributes (only ever increase)
	Speed         float64 `json:"speed"`
	DrillPower    int     `json:"drill_power"`
	TeleportRange int     `json:"teleport_range"`
	DirtCapacity  int     `json:"dirt_capacity"`
	OreCapacity   int     `json:"ore_capacity"`

	// Cargo holds
	DirtCargo int           `json:"dirt_cargo"`
	OreCargo  int           `json:"ore_cargo"`
	Haul      map[Block]int `json:"haul"` // ore cargo broken down by block, sums to OreCargo

	Credits   int  `json:"credits"`
	Returning bool `json:"returning"`
}

// Cell returns the grid cell the player occupies.
func (p *Player) Cell() (int, int) {
	return int(p.X), int(p.Y)
}

// CargoFull reports whether either hold has reached its capacity.
func (p *Player) CargoFull() bool {
	return p.DirtCargo >= p.DirtCapacity || p.OreCargo >= p.OreCapacity
}

// Quest is a single delivery goal with a one-time reward.
type Quest struct {
	Title     string `json:"title"`
	Target    Block  `json:"target"`
	Goal      int    `json:"goal"`
	Progress  int    `json:"progress"`
	Reward    int    `json:"reward"`
	Completed bool   `json:"completed"` // latches true exactly once
}

// Upgrade is a purchasable player improvement.
// The price compounds: Cost() = floor(BaseCost * Growth^Purchases).
type Upgrade struct {
	Key       string  `json:"key"`
	Name      string  `json:"name"`
	BaseCost  int     `json:"base_cost"`
	Field     string  `json:"field"` // player attribute the delta is added to
	Delta     float64 `json:"delta"`
	Growth    float64 `json:"growth"`
	Purchases int     `json:"purchases"`
}

// Upgrade fields understood by applyUpgrade.
const (
	FieldDirtCapacity  = "dirt_capacity"
	FieldOreCapacity   = "ore_capacity"
	FieldDrillPower    = "drill_power"
	FieldSpeed         = "speed"
	FieldTeleportRange = "teleport_range"
)

// Intents is the snapshot of directional input held during a frame.
type Intents struct {
	Left  bool `json:"left"`
	Right bool `json:"right"`
	Up    bool `json:"up"`
	Down  bool `json:"down"`
}

// Action is an edge-triggered input that fires once per press.
type Action string

const (
	ActionBuildPipe Action = "build_pipe"
	ActionTeleport  Action = "teleport"
)

// Stats is the status line shown to the player.
type Stats struct {
	DirtCargo    int `json:"dirt_cargo"`
	DirtCapacity int `json:"dirt_capacity"`
	OreCargo     int `json:"ore_cargo"`
	OreCapacity  int `json:"ore_capacity"`
	Credits      int `json:"credits"`
	Pipes        int `json:"pipes"`
}

func (s Stats) String() string {
	return fmt.Sprintf("Cargo: %d/%d | Ore: %d/%d | Credits: %d | Pipes: %d",
		s.DirtCargo, s.DirtCapacity, s.OreCargo, s.OreCapacity, s.Credits, s.Pipes)
}
