package game

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	require.NoError(t, ValidateConfig(DefaultConfig()))
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig_PartialOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mine.yaml")
	raw := `
world:
  width: 12
  depth: 90
  seed: 77
  shaft_interval: 30
balance:
  pipe_cost: 250
  passive_income_ms: 500
quest:
  title: "Bring up copper"
  block: ore1
  goal: 8
  reward: 50
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.World.Width)
	assert.Equal(t, int64(77), cfg.World.Seed)
	assert.Equal(t, 250, cfg.Balance.PipeCost)
	assert.Equal(t, 500*time.Millisecond, cfg.Balance.PassiveIncomeInterval())
	assert.Equal(t, 10, cfg.Balance.OreValue, "untouched keys keep their defaults")
	assert.Len(t, cfg.Upgrades, 5)

	s := NewSession(cfg)
	assert.Equal(t, int64(77), s.Seed())
	assert.Equal(t, BlockOre1, s.Quest.Target)
	assert.Len(t, s.World.Shafts, 2)
}

func TestLoadConfig_Rejects(t *testing.T) {
	cases := map[string]string{
		"bad yaml":        "world: [",
		"negative width":  "world: {width: -1, depth: 10, shaft_interval: 5}",
		"chance above 1":  "ores: [{block: ore1, min_depth: 0, chance: 1.5}]",
		"unknown ore":     "ores: [{block: mithril, min_depth: 0, chance: 0.5}]",
		"dirt is not ore": "ores: [{block: dirt, min_depth: 0, chance: 0.5}]",
		"unknown field":   "upgrades: [{key: x, name: X, cost: 1, field: luck, delta: 1}]",
		"duplicate key":   "upgrades: [{key: x, name: X, cost: 1, field: speed, delta: 1}, {key: x, name: Y, cost: 2, field: speed, delta: 1}]",
		"zero goal":       "quest: {block: ore2, goal: 0, reward: 1}",
		"unknown quest":   "quest: {block: gold, goal: 1, reward: 1}",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "mine.yaml")
			require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))
			_, err := LoadConfig(path)
			assert.Error(t, err)
		})
	}
}

func TestSnapshot_RestoreContinuesSession(t *testing.T) {
	s, _ := newTestSession(t, 6, 20)
	s.World.Shafts = []*Shaft{{X: 1, Y: 5, Piped: true}}
	s.Player.Credits = 1000
	require.NoError(t, s.BuyUpgrade("drill_power"))
	require.NoError(t, s.BuyUpgrade("drill_power"))
	_, err := s.DrillAt(3, 4)
	require.NoError(t, err)
	s.World.Cells[2][2] = BlockOre2
	_, err = s.DrillAt(2, 2)
	require.NoError(t, err)
	s.Quest.Progress = 2

	snap := s.Snapshot(time.Unix(100, 0))
	data, err := EncodeSnapshot(snap)
	require.NoError(t, err)

	// the snapshot is detached from the live session
	s.World.Cells[5][5] = BlockEmpty
	s.Player.Haul[BlockOre2] = 99

	back, err := DecodeSnapshot(data)
	require.NoError(t, err)
	r, err := RestoreSession(s.Config(), back)
	require.NoError(t, err)

	assert.Equal(t, s.Seed(), r.Seed())
	assert.Equal(t, BlockEmpty, r.World.At(3, 4))
	assert.Equal(t, BlockDirt, r.World.At(5, 5))
	assert.True(t, r.World.ShaftAt(1, 5).Piped)
	assert.Equal(t, 1, r.Player.DirtCargo)
	assert.Equal(t, 1, r.Player.Haul[BlockOre2])
	assert.Equal(t, 3, r.Player.DrillPower)
	assert.Equal(t, 1000-200-300, r.Player.Credits)
	assert.Equal(t, 2, r.FindUpgrade("drill_power").Purchases)
	assert.Equal(t, 450, r.FindUpgrade("drill_power").Cost())
	assert.Equal(t, 2, r.Quest.Progress)
	assert.Equal(t, "local", r.Player.ID)
}

func TestRestoreSession_RejectsMalformed(t *testing.T) {
	s, _ := newTestSession(t, 4, 4)
	snap := s.Snapshot(time.Unix(0, 0))

	bad := snap
	bad.Version = 99
	_, err := RestoreSession(s.Config(), bad)
	assert.Error(t, err)

	bad = s.Snapshot(time.Unix(0, 0))
	bad.World.Cells[1] = bad.World.Cells[1][:2]
	_, err = RestoreSession(s.Config(), bad)
	assert.Error(t, err)

	r, err := RestoreSession(s.Config(), snap, WithPlayerID("abc"))
	require.NoError(t, err)
	assert.Equal(t, "abc", r.Player.ID)
}

func TestLoadConfig_ShippedFileMatchesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join("..", "..", "mine.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}
