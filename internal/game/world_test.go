package game

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// filledWorld is a width x depth grid of fill with an empty surface row.
func filledWorld(width, depth int, fill Block) *World {
	w := &World{Width: width, Depth: depth, Cells: make([][]Block, depth)}
	for y := range w.Cells {
		w.Cells[y] = make([]Block, width)
		if y == 0 {
			continue
		}
		for x := range w.Cells[y] {
			w.Cells[y][x] = fill
		}
	}
	return w
}

func TestGenerateWorld_SurfaceEmptyAndDeterministic(t *testing.T) {
	cfg := DefaultConfig()
	a := GenerateWorld(20, 200, cfg.Ores, rand.New(rand.NewSource(7)))
	b := GenerateWorld(20, 200, cfg.Ores, rand.New(rand.NewSource(7)))

	require.Len(t, a.Cells, 200)
	for x := 0; x < 20; x++ {
		assert.Equal(t, BlockEmpty, a.At(x, 0))
	}
	assert.Equal(t, a.Cells, b.Cells, "same seed must give the same mine")
}

func TestGenerateWorld_DepthTiers(t *testing.T) {
	cfg := DefaultConfig()
	w := GenerateWorld(20, 200, cfg.Ores, rand.New(rand.NewSource(42)))

	for y := 1; y < w.Depth; y++ {
		for x := 0; x < w.Width; x++ {
			b := w.At(x, y)
			switch b {
			case BlockArtifact:
				assert.Greater(t, y, 100)
			case BlockOre3:
				assert.Greater(t, y, 80)
			case BlockOre2:
				assert.Greater(t, y, 40)
			case BlockDirt, BlockOre1:
			default:
				t.Fatalf("unexpected %s at (%d,%d)", b, x, y)
			}
		}
	}
}

func TestGenerateWorld_HigherTierTakesPrecedence(t *testing.T) {
	ores := []OreRule{
		{Block: "ore3", MinDepth: 5, Chance: 1},
		{Block: "ore1", MinDepth: 0, Chance: 1},
	}
	w := GenerateWorld(3, 10, ores, rand.New(rand.NewSource(1)))
	assert.Equal(t, BlockOre1, w.At(0, 5))
	assert.Equal(t, BlockOre3, w.At(0, 6))
}

func TestPlaceShafts(t *testing.T) {
	w := filledWorld(20, 200, BlockDirt)
	w.PlaceShafts(40, rand.New(rand.NewSource(3)))

	require.Len(t, w.Shafts, 4)
	for i, s := range w.Shafts {
		assert.Equal(t, 40*(i+1), s.Y)
		assert.False(t, s.Piped)
		assert.Equal(t, BlockShaft, w.At(s.X, s.Y))
		assert.Same(t, s, w.ShaftAt(s.X, s.Y))
	}
}

func TestDrill_RequiredPower(t *testing.T) {
	blocks := []Block{BlockDirt, BlockOre1, BlockOre2, BlockOre3, BlockArtifact}
	for _, b := range blocks {
		for power := 0; power <= 5; power++ {
			w := filledWorld(1, 2, b)
			got, err := w.Drill(0, 1, power)
			if power >= b.Tier()-1 {
				assert.NoError(t, err, "%s with power %d", b, power)
				assert.Equal(t, b, got)
				assert.Equal(t, BlockEmpty, w.At(0, 1))
			} else {
				assert.ErrorIs(t, err, ReasonDrillTooWeak, "%s with power %d", b, power)
				assert.Equal(t, b, w.At(0, 1))
			}
		}
	}
}

func TestDrill_Rejections(t *testing.T) {
	w := filledWorld(2, 3, BlockDirt)
	w.Cells[2][1] = BlockShaft

	_, err := w.Drill(0, 0, 9)
	assert.ErrorIs(t, err, ReasonNotDrillable)

	_, err = w.Drill(1, 2, 9)
	assert.ErrorIs(t, err, ReasonNotDrillable)
	assert.Equal(t, BlockShaft, w.At(1, 2))

	_, err = w.Drill(0, 3, 9)
	assert.ErrorIs(t, err, ReasonOutOfRange)
	_, err = w.Drill(-1, 1, 9)
	assert.ErrorIs(t, err, ReasonOutOfRange)
}

func TestParseBlock(t *testing.T) {
	b, err := ParseBlock("ore2")
	require.NoError(t, err)
	assert.Equal(t, BlockOre2, b)
	assert.Equal(t, 3, b.Tier())
	assert.Equal(t, 2, b.RequiredPower())

	_, err = ParseBlock("diamond")
	assert.Error(t, err)
}
