package engine

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Config holds every numeric knob the engine recognizes (spec.md §6).
// It is loaded and schema-validated the way pkg/simulation/config.go
// in the teacher repo loads its own Config: compile a JSON Schema,
// validate the raw document against it, then unmarshal into the
// struct.
type Config struct {
	// World geometry.
	GridHeight int `json:"gridHeight"`
	GridWidth  int `json:"gridWidth"`
	MaxAgents  int `json:"maxAgents"`

	// Steering (spec.md §4.6).
	SensorAngleDegrees   float64 `json:"sensorAngleDegrees"`
	SensorDistance       float64 `json:"sensorDistance"`
	RotationAngleDegrees float64 `json:"rotationAngleDegrees"`

	// Combat.
	CombatChance float64 `json:"combatChance"`

	// Pheromone field (spec.md §4.2).
	PheromoneDecayRate       float64 `json:"pheromoneDecayRate"`
	PheromoneBlurSigma       float64 `json:"pheromoneBlurSigma"`
	PheromoneDepositAmount   float64 `json:"pheromoneDepositAmount"`

	// Resolver (spec.md §4.7).
	EnemySenseRadius float64 `json:"enemySenseRadius"`
	BaseAttackRadius float64 `json:"baseAttackRadius"`
	AIUpdateInterval int     `json:"aiUpdateInterval"`

	// Base spawning (spec.md §4.5).
	SpawnRate      int `json:"spawnRate"`
	UnitsPerSpawn  int `json:"unitsPerSpawn"`

	// Terminal timer (spec.md §7, winner_info reason "kills" uses this).
	TotalFrames int     `json:"totalFrames"`
	FPS         float64 `json:"fps"`

	// Logging.
	LogLevel  string `json:"logLevel"`
	LogFormat string `json:"logFormat"`

	// TeamOverrides lets the steering, combat, pheromone, resolver and
	// spawning keys above be overridden per team id. GetParam consults
	// this map first, then falls back to the matching Config field.
	// World geometry, the terminal timer and logging are global only.
	TeamOverrides map[uint8]map[string]float64 `json:"teamOverrides"`
}

// DefaultConfig mirrors pkg/simulation/config.go's DefaultConfig,
// translated to the combat-and-foraging domain.
func DefaultConfig() *Config {
	return &Config{
		GridHeight:             480,
		GridWidth:              540,
		MaxAgents:              10000,
		SensorAngleDegrees:     45,
		SensorDistance:         9,
		RotationAngleDegrees:   35,
		CombatChance:           0.5,
		PheromoneDecayRate:     0.97,
		PheromoneBlurSigma:     1.0,
		PheromoneDepositAmount: 5.0,
		EnemySenseRadius:       60,
		BaseAttackRadius:       40,
		AIUpdateInterval:       4,
		SpawnRate:              30,
		UnitsPerSpawn:          1,
		TotalFrames:            0,
		FPS:                    60,
		LogLevel:               "info",
		LogFormat:              "json",
		TeamOverrides:          map[uint8]map[string]float64{},
	}
}

// Validate checks the cross-field invariants spec.md §7 calls out as
// construction-time ConfigErrors.
func (c *Config) Validate() error {
	if c.GridHeight <= 2 || c.GridWidth <= 2 {
		return &ConfigError{Field: "gridHeight/gridWidth", Msg: "grid must be larger than the 1-cell boundary on each side"}
	}
	if c.MaxAgents < 1 {
		return &ConfigError{Field: "maxAgents", Msg: "must be >= 1"}
	}
	if c.PheromoneDecayRate <= 0 || c.PheromoneDecayRate > 1 {
		return &ConfigError{Field: "pheromoneDecayRate", Msg: "must be in (0, 1]"}
	}
	if c.PheromoneBlurSigma < 0 {
		return &ConfigError{Field: "pheromoneBlurSigma", Msg: "must be >= 0"}
	}
	if c.CombatChance < 0 || c.CombatChance > 1 {
		return &ConfigError{Field: "combatChance", Msg: "must be a probability in [0, 1]"}
	}
	if c.AIUpdateInterval < 1 {
		return &ConfigError{Field: "aiUpdateInterval", Msg: "must be >= 1"}
	}
	if c.UnitsPerSpawn < 1 {
		return &ConfigError{Field: "unitsPerSpawn", Msg: "must be >= 1"}
	}
	if c.SpawnRate < 1 {
		return &ConfigError{Field: "spawnRate", Msg: "must be >= 1"}
	}
	if c.EnemySenseRadius < 0 || c.BaseAttackRadius < 0 {
		return &ConfigError{Field: "enemySenseRadius/baseAttackRadius", Msg: "must be >= 0"}
	}
	return nil
}

// GetParam consults team_overrides[teamID][key] first, then falls
// back to the matching Config field, matching the get_param lookup
// order spec.md §6 specifies. Unknown keys return (0, false).
func (c *Config) GetParam(teamID uint8, key string) (float64, bool) {
	if overrides, ok := c.TeamOverrides[teamID]; ok {
		if v, ok := overrides[key]; ok {
			return v, true
		}
	}
	switch key {
	case "sensorAngleDegrees":
		return c.SensorAngleDegrees, true
	case "sensorDistance":
		return c.SensorDistance, true
	case "rotationAngleDegrees":
		return c.RotationAngleDegrees, true
	case "combatChance":
		return c.CombatChance, true
	case "pheromoneDecayRate":
		return c.PheromoneDecayRate, true
	case "pheromoneBlurSigma":
		return c.PheromoneBlurSigma, true
	case "pheromoneDepositAmount":
		return c.PheromoneDepositAmount, true
	case "enemySenseRadius":
		return c.EnemySenseRadius, true
	case "baseAttackRadius":
		return c.BaseAttackRadius, true
	case "aiUpdateInterval":
		return float64(c.AIUpdateInterval), true
	case "spawnRate":
		return float64(c.SpawnRate), true
	case "unitsPerSpawn":
		return float64(c.UnitsPerSpawn), true
	default:
		return 0, false
	}
}

// LoadConfig loads configuration from a JSON file and validates it
// against a JSON Schema, exactly as pkg/simulation/config.go does in
// the teacher repo.
func LoadConfig(configFile, schemaFile string) (*Config, error) {
	sch, err := jsonschema.Compile(schemaFile)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	f, err := os.Open(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	var v interface{}
	if err := json.NewDecoder(f).Decode(&v); err != nil {
		return nil, fmt.Errorf("failed to decode config json: %w", err)
	}
	if err := sch.Validate(v); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	b, err := os.ReadFile(configFile)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if cfg.TeamOverrides == nil {
		cfg.TeamOverrides = map[uint8]map[string]float64{}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
