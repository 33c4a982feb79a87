// Package config loads the simulation settings: embedded defaults, an
// optional YAML file on top and DMSIM_* environment overrides last.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

// LightLevels is the number of light power levels.
const LightLevels = 16

// MaxCapacity is the largest timeline a save file can describe.
const MaxCapacity = 0xFFFF

var ErrInvalid = errors.New("config: invalid")

type Config struct {
	Seed        uint64              `yaml:"seed" env:"DMSIM_SEED"`
	Timeline    TimelineConfig      `yaml:"timeline"`
	Light       LightConfig         `yaml:"light"`
	Doors       DoorConfig          `yaml:"doors"`
	Groups      GroupConfig         `yaml:"groups"`
	Poison      PoisonConfig        `yaml:"poison"`
	Projectiles ProjectileConfig    `yaml:"projectiles"`
	Explosions  ExplosionConfig     `yaml:"explosions"`
	Rebirth     RebirthConfig       `yaml:"rebirth"`
	Pits        PitConfig           `yaml:"pits"`
	Creatures   map[string]Creature `yaml:"creatures"`
}

type TimelineConfig struct {
	Capacity int `yaml:"capacity" env:"DMSIM_TIMELINE_CAPACITY"`
}

type LightConfig struct {
	Table      []int  `yaml:"table"`
	DecayTicks uint32 `yaml:"decay_ticks" env:"DMSIM_LIGHT_DECAY_TICKS"`
}

type DoorConfig struct {
	PartyDamage    int `yaml:"party_damage" env:"DMSIM_DOOR_PARTY_DAMAGE"`
	CreatureDamage int `yaml:"creature_damage" env:"DMSIM_DOOR_CREATURE_DAMAGE"`
}

type GroupConfig struct {
	MoveRetryTicks   uint32 `yaml:"move_retry_ticks"`
	FreezeRetryTicks uint32 `yaml:"freeze_retry_ticks"`
	// Groups away from the party map wait |map distance| << OffMapShift.
	OffMapShift   uint8  `yaml:"off_map_shift"`
	ReactionTicks uint32 `yaml:"reaction_ticks"`
	AttackTicks   uint32 `yaml:"attack_ticks"`
}

type PoisonConfig struct {
	IntervalTicks uint32 `yaml:"interval_ticks" env:"DMSIM_POISON_INTERVAL_TICKS"`
}

type ProjectileConfig struct {
	StepEnergy     uint8  `yaml:"step_energy"`
	ExplosionTicks uint32 `yaml:"explosion_ticks"`
}

type ExplosionConfig struct {
	PoisonCloudDecay uint8 `yaml:"poison_cloud_decay"`
	PoisonCloudFloor uint8 `yaml:"poison_cloud_floor"`
}

type PitConfig struct {
	FallDamage int `yaml:"fall_damage"`
}

type RebirthConfig struct {
	StepTicks uint32 `yaml:"step_ticks"`
}

// Creature holds the attributes the handlers need for one creature kind.
type Creature struct {
	Height        uint8  `yaml:"height"`
	MovementTicks uint16 `yaml:"movement_ticks"`
	Attack        int    `yaml:"attack"`
	Health        int    `yaml:"health"`
	Incorporeal   bool   `yaml:"incorporeal"`
	RetryMove     bool   `yaml:"retry_move"`
	AspectTicks   uint16 `yaml:"aspect_ticks"`
}

// Creature returns the attributes of kind, falling back to a one square
// high creature that moves every 10 ticks.
func (c *Config) Creature(kind string) Creature {
	if cr, ok := c.Creatures[kind]; ok {
		return cr
	}
	return Creature{Height: 1, MovementTicks: 10, Attack: 1, Health: 10, AspectTicks: 10}
}

// LightAmount maps a light power to its light amount. Powers are clamped
// to the table.
func (c *Config) LightAmount(power int) int {
	if power < 0 {
		power = 0
	}
	if power >= len(c.Light.Table) {
		power = len(c.Light.Table) - 1
	}
	return c.Light.Table[power]
}

// Default returns the embedded configuration.
func Default() (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(defaultYAML, &cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal default.yaml: %w", err)
	}
	return &cfg, nil
}

// Load builds the configuration. path may be empty; values in the file
// replace the defaults they name.
func Load(path string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: load %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: unmarshal %s: %w", path, err)
		}
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values the engine relies on.
func (c *Config) Validate() error {
	if c.Timeline.Capacity <= 0 || c.Timeline.Capacity > MaxCapacity {
		return fmt.Errorf("%w: timeline capacity %d outside 1..%d", ErrInvalid, c.Timeline.Capacity, MaxCapacity)
	}
	if len(c.Light.Table) != LightLevels {
		return fmt.Errorf("%w: light table has %d entries, want %d", ErrInvalid, len(c.Light.Table), LightLevels)
	}
	for i := 1; i < len(c.Light.Table); i++ {
		if c.Light.Table[i] < c.Light.Table[i-1] {
			return fmt.Errorf("%w: light table decreases at power %d", ErrInvalid, i)
		}
	}
	if c.Light.DecayTicks == 0 {
		return fmt.Errorf("%w: light decay_ticks must be positive", ErrInvalid)
	}
	if c.Poison.IntervalTicks == 0 {
		return fmt.Errorf("%w: poison interval_ticks must be positive", ErrInvalid)
	}
	for name, cr := range c.Creatures {
		if cr.MovementTicks == 0 {
			return fmt.Errorf("%w: creature %s has no movement_ticks", ErrInvalid, name)
		}
		if cr.Height == 0 {
			return fmt.Errorf("%w: creature %s has no height", ErrInvalid, name)
		}
	}
	return nil
}
