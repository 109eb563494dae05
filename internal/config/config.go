// Package config holds the simulation settings: team sizes, drone tuning,
// spawn cadence, steering, arena layout and service wiring.
// Settings start from Default, may be overlaid by a YAML file and then by
// HARVEST_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/talgya/drone-harvest/internal/world"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// BaseConfig places a team base.
type BaseConfig struct {
	Team   world.Team `yaml:"team"`
	X      float64    `yaml:"x"`
	Y      float64    `yaml:"y"`
	Radius float64    `yaml:"radius"`
}

// ObstacleConfig places a fixed circular obstacle.
type ObstacleConfig struct {
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	Radius float64 `yaml:"radius"`
}

// GenerateConfig controls noise-scattered obstacles on top of the fixed ones.
type GenerateConfig struct {
	Enabled        bool    `yaml:"enabled"`
	MaxObstacles   int     `yaml:"max_obstacles"`
	Threshold      float64 `yaml:"threshold"`
	ObstacleRadius float64 `yaml:"obstacle_radius"`
	Clearance      float64 `yaml:"clearance"`
}

// Config is the complete simulation configuration.
type Config struct {
	Seed     int64   `yaml:"seed"`      // 0 = derive one at startup
	TimeStep float64 `yaml:"time_step"` // Simulated time per tick

	// Teams
	RedDrones  int `yaml:"red_drones"`
	BlueDrones int `yaml:"blue_drones"`

	// Drones
	DroneSpeed       float64 `yaml:"drone_speed"`
	DroneRadius      float64 `yaml:"drone_radius"`
	CollectDelay     float64 `yaml:"collect_delay"`
	DeliveryDebounce float64 `yaml:"delivery_debounce"`

	// Steering
	AvoidanceRadius float64 `yaml:"avoidance_radius"`
	AvoidanceForce  float64 `yaml:"avoidance_force"`
	ProbeDistance   float64 `yaml:"probe_distance"`

	// Coordinator cadences
	AssignInterval float64 `yaml:"assign_interval"`
	SpawnInterval  float64 `yaml:"spawn_interval"`
	SpawnDelay     float64 `yaml:"spawn_delay"`
	SpawnRadius    float64 `yaml:"spawn_radius"`
	SpawnAttempts  int     `yaml:"spawn_attempts"`
	ResourceRadius float64 `yaml:"resource_radius"`

	// Arena
	ArenaRadius float64          `yaml:"arena_radius"`
	Bases       []BaseConfig     `yaml:"bases"`
	Obstacles   []ObstacleConfig `yaml:"obstacles"`
	Generate    GenerateConfig   `yaml:"generate"`

	// Services
	LedgerPath string `yaml:"ledger_path"` // Empty = no run ledger
	APIPort    int    `yaml:"api_port"`    // 0 = no HTTP API
	AdminKey   string `yaml:"-"`           // Env only
}

// Default returns the stock contest: three drones a side, a resource every
// three time units inside a radius of five, assignment twice per time unit.
func Default() Config {
	return Config{
		Seed:     0,
		TimeStep: 0.05,

		RedDrones:  3,
		BlueDrones: 3,

		DroneSpeed:       2.0,
		DroneRadius:      0.25,
		CollectDelay:     2.0,
		DeliveryDebounce: 0.5,

		AvoidanceRadius: 1.0,
		AvoidanceForce:  1.0,
		ProbeDistance:   0.5,

		AssignInterval: 0.5,
		SpawnInterval:  3.0,
		SpawnDelay:     1.0,
		SpawnRadius:    5.0,
		SpawnAttempts:  10,
		ResourceRadius: 0.2,

		ArenaRadius: 8.0,
		Bases: []BaseConfig{
			{Team: world.TeamRed, X: -6, Y: 0, Radius: 0.6},
			{Team: world.TeamBlue, X: 6, Y: 0, Radius: 0.6},
		},
		Generate: GenerateConfig{
			Enabled:        true,
			MaxObstacles:   6,
			Threshold:      0.68,
			ObstacleRadius: 0.45,
			Clearance:      2.0,
		},

		LedgerPath: "",
		APIPort:    8080,
	}
}

// Load reads a YAML file over the defaults. Keys missing from the file keep
// their default values.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overlays HARVEST_* environment variables.
func (c *Config) ApplyEnv() error {
	ints := map[string]*int{
		"HARVEST_RED_DRONES":  &c.RedDrones,
		"HARVEST_BLUE_DRONES": &c.BlueDrones,
		"HARVEST_API_PORT":    &c.APIPort,
	}
	for key, dst := range ints {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = n
		}
	}

	floats := map[string]*float64{
		"HARVEST_DRONE_SPEED":    &c.DroneSpeed,
		"HARVEST_SPAWN_INTERVAL": &c.SpawnInterval,
		"HARVEST_SPAWN_RADIUS":   &c.SpawnRadius,
		"HARVEST_TIME_STEP":      &c.TimeStep,
	}
	for key, dst := range floats {
		if v := os.Getenv(key); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = f
		}
	}

	if v := os.Getenv("HARVEST_SEED"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("HARVEST_SEED: %w", err)
		}
		c.Seed = n
	}
	if v := os.Getenv("HARVEST_LEDGER"); v != "" {
		c.LedgerPath = v
	}
	c.AdminKey = os.Getenv("HARVEST_ADMIN_KEY")
	return nil
}

// Validate checks ranges and arena layout.
func (c Config) Validate() error {
	var problems []string
	check := func(ok bool, format string, args ...any) {
		if !ok {
			problems = append(problems, fmt.Sprintf(format, args...))
		}
	}

	check(c.TimeStep > 0, "time_step must be positive")
	check(c.RedDrones >= 0 && c.BlueDrones >= 0, "drone counts must not be negative")
	check(c.DroneSpeed > 0, "drone_speed must be positive")
	check(c.DroneRadius >= 0 && c.ResourceRadius >= 0, "radii must not be negative")
	check(c.CollectDelay >= 0 && c.DeliveryDebounce >= 0, "delays must not be negative")
	check(c.AvoidanceRadius >= 0 && c.ProbeDistance >= 0, "steering distances must not be negative")
	check(c.AssignInterval >= c.TimeStep, "assign_interval must be at least one time_step")
	check(c.SpawnInterval >= c.TimeStep, "spawn_interval must be at least one time_step")
	check(c.SpawnDelay >= 0, "spawn_delay must not be negative")
	check(c.SpawnRadius > 0, "spawn_radius must be positive")
	check(c.SpawnAttempts > 0, "spawn_attempts must be positive")
	check(c.ArenaRadius > 0, "arena_radius must be positive")

	seen := make(map[world.Team]bool)
	for _, b := range c.Bases {
		check(!seen[b.Team], "duplicate base for team %s", b.Team)
		seen[b.Team] = true
		check(b.Radius > 0, "base %s radius must be positive", b.Team)
	}
	for _, t := range world.Teams {
		check(seen[t], "missing base for team %s", t)
	}
	for i, o := range c.Obstacles {
		check(o.Radius > 0, "obstacle %d radius must be positive", i)
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

// DroneCount returns the configured squad size for a team.
func (c Config) DroneCount(t world.Team) int {
	if t == world.TeamBlue {
		return c.BlueDrones
	}
	return c.RedDrones
}
