/*
Package game
File: world.go
Description:
    The World Model: a fixed-size 2D grid of blocks generated once per session.
    Row 0 is the surface and is always empty. Drilled cells become empty and
    never regrow. Shafts sit at fixed depth intervals and can be piped once.
*/

package game

import "math/rand"

// World is the mine grid plus its shafts.
type World struct {
	Width  int       `json:"width"`
	Depth  int       `json:"depth"`
	Cells  [][]Block `json:"cells"` // Cells[y][x]
	Shafts []*Shaft  `json:"shafts"`
}

// oreRule is an OreRule with its block name resolved.
type oreRule struct {
	block    Block
	minDepth int
	chance   float64
}

func resolveOres(rules []OreRule) []oreRule {
	out := make([]oreRule, 0, len(rules))
	for _, r := range rules {
		b, err := ParseBlock(r.Block)
		if err != nil || !b.IsOre() {
			continue
		}
		out = append(out, oreRule{block: b, minDepth: r.MinDepth, chance: r.Chance})
	}
	return out
}

// GenerateWorld fills a width x depth grid. For every cell below the surface
// each ore rule is tried in order with an independent Bernoulli trial; the
// first success wins and the fallback is dirt.
func GenerateWorld(width, depth int, ores []OreRule, rng *rand.Rand) *World {
	rules := resolveOres(ores)
	w := &World{
		Width: width,
		Depth: depth,
		Cells: make([][]Block, depth),
	}
	for y := 0; y < depth; y++ {
		row := make([]Block, width)
		w.Cells[y] = row
		if y == 0 {
			continue // surface stays empty
		}
		for x := 0; x < width; x++ {
			row[x] = pickBlock(y, rules, rng)
		}
	}
	return w
}

func pickBlock(y int, rules []oreRule, rng *rand.Rand) Block {
	for _, r := range rules {
		if y > r.minDepth && rng.Float64() < r.chance {
			return r.block
		}
	}
	return BlockDirt
}

// PlaceShafts puts one shaft in a random column on every row that is a
// multiple of interval, starting at interval itself.
func (w *World) PlaceShafts(interval int, rng *rand.Rand) {
	if interval <= 0 {
		return
	}
	for d := interval; d < w.Depth; d += interval {
		x := rng.Intn(w.Width)
		w.Cells[d][x] = BlockShaft
		w.Shafts = append(w.Shafts, &Shaft{X: x, Y: d})
	}
}

// InBounds reports whether (x, y) is a cell of the grid.
func (w *World) InBounds(x, y int) bool {
	return x >= 0 && x < w.Width && y >= 0 && y < w.Depth
}

// At returns the block at (x, y); out-of-range reads are empty.
func (w *World) At(x, y int) Block {
	if !w.InBounds(x, y) {
		return BlockEmpty
	}
	return w.Cells[y][x]
}

// CheckDrill reports whether Drill(x, y, power) would succeed, without mutating.
func (w *World) CheckDrill(x, y, power int) (Block, error) {
	if !w.InBounds(x, y) {
		return BlockEmpty, ReasonOutOfRange
	}
	b := w.Cells[y][x]
	if b == BlockEmpty || b == BlockShaft {
		return b, ReasonNotDrillable
	}
	if b.RequiredPower() > power {
		return b, ReasonDrillTooWeak
	}
	return b, nil
}

// Drill clears the cell at (x, y) and returns what was removed.
// On any rejection the grid is unchanged.
func (w *World) Drill(x, y, power int) (Block, error) {
	b, err := w.CheckDrill(x, y, power)
	if err != nil {
		return b, err
	}
	w.Cells[y][x] = BlockEmpty
	return b, nil
}

// ShaftAt returns the shaft at (x, y), or nil.
func (w *World) ShaftAt(x, y int) *Shaft {
	for _, s := range w.Shafts {
		if s.X == x && s.Y == y {
			return s
		}
	}
	return nil
}

// PipedCount is the number of shafts that pay passive income.
func (w *World) PipedCount() int {
	n := 0
	for _, s := range w.Shafts {
		if s.Piped {
			n++
		}
	}
	return n
}
