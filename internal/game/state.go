/*
Package game
File: state.go
Description:
    Loads and validates the mine configuration.

    LoadConfig reads 'mine.yaml', overlays it on DefaultConfig and checks the
    result against the embedded JSON Schema before anything else sees it.
*/

package game

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/everforgeworks/deepdrill/internal/logger"
)

const configSchemaURL = "mine.schema.json"

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

// LoadConfig reads the YAML file at path. A missing file is not an error:
// the stock configuration is returned instead.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	// 1. Read the YAML file
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Log.WithField("path", path).Info("config not found; using defaults")
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}

	// 2. Unmarshal over the defaults so partial files stay valid
	if err := ParseConfig(raw, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig decodes YAML into cfg and validates the result.
func ParseConfig(raw []byte, cfg *Config) error {
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return err
	}
	return ValidateConfig(*cfg)
}

// ValidateConfig checks cfg against the config schema plus the cross-field
// rules a schema cannot express (block names, upgrade fields).
func ValidateConfig(cfg Config) error {
	s, err := configSchema()
	if err != nil {
		return err
	}

	// The schema validates JSON values, so round-trip the struct.
	b, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	var doc any
	if err := json.Unmarshal(b, &doc); err != nil {
		return err
	}
	if err := s.Validate(doc); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	for _, r := range cfg.Ores {
		b, err := ParseBlock(r.Block)
		if err != nil {
			return fmt.Errorf("invalid config: ores: %w", err)
		}
		if !b.IsOre() {
			return fmt.Errorf("invalid config: ores: %s is not an ore", b)
		}
	}
	if _, err := ParseBlock(cfg.Quest.Block); err != nil {
		return fmt.Errorf("invalid config: quest: %w", err)
	}
	seen := map[string]bool{}
	for _, u := range cfg.Upgrades {
		if seen[u.Key] {
			return fmt.Errorf("invalid config: duplicate upgrade %q", u.Key)
		}
		seen[u.Key] = true
	}
	return nil
}

func configSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		if err := c.AddResource(configSchemaURL, strings.NewReader(configSchemaJSON)); err != nil {
			schemaErr = err
			return
		}
		schema, schemaErr = c.Compile(configSchemaURL)
	})
	return schema, schemaErr
}

const configSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["world", "ores", "balance", "player", "quest", "presence"],
  "properties": {
    "world": {
      "type": "object",
      "required": ["width", "depth", "shaft_interval"],
      "properties": {
        "width": {"type": "integer", "minimum": 1},
        "depth": {"type": "integer", "minimum": 2},
        "seed": {"type": "integer"},
        "shaft_interval": {"type": "integer", "minimum": 1}
      }
    },
    "ores": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["block", "chance"],
        "properties": {
          "block": {"type": "string"},
          "min_depth": {"type": "integer", "minimum": 0},
          "chance": {"type": "number", "minimum": 0, "maximum": 1}
        }
      }
    },
    "balance": {
      "type": "object",
      "properties": {
        "starting_credits": {"type": "integer", "minimum": 0},
        "dirt_value": {"type": "integer", "minimum": 0},
        "ore_value": {"type": "integer", "minimum": 0},
        "pipe_cost": {"type": "integer", "minimum": 0},
        "passive_income_ms": {"type": "integer", "minimum": 1},
        "frame_rate_hz": {"type": "integer", "minimum": 1, "maximum": 240}
      }
    },
    "player": {
      "type": "object",
      "properties": {
        "speed": {"type": "number", "exclusiveMinimum": 0},
        "drill_power": {"type": "integer", "minimum": 0},
        "teleport_range": {"type": "integer", "minimum": 0},
        "dirt_capacity": {"type": "integer", "minimum": 1},
        "ore_capacity": {"type": "integer", "minimum": 1}
      }
    },
    "upgrades": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "required": ["key", "name", "cost", "field", "delta"],
        "properties": {
          "key": {"type": "string", "minLength": 1},
          "name": {"type": "string"},
          "cost": {"type": "integer", "minimum": 0},
          "field": {"enum": ["dirt_capacity", "ore_capacity", "drill_power", "speed", "teleport_range"]},
          "delta": {"type": "number", "exclusiveMinimum": 0},
          "growth": {"type": "number", "minimum": 0}
        }
      }
    },
    "quest": {
      "type": "object",
      "properties": {
        "goal": {"type": "integer", "minimum": 1},
        "reward": {"type": "integer", "minimum": 0}
      }
    },
    "presence": {
      "type": "object",
      "properties": {
        "broadcast_ms": {"type": "integer", "minimum": 1},
        "ttl_ms": {"type": "integer", "minimum": 1}
      }
    }
  }
}`
