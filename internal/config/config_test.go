package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/drone-harvest/internal/world"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 3, cfg.DroneCount(world.TeamRed))
	assert.Equal(t, 3, cfg.DroneCount(world.TeamBlue))
	assert.Equal(t, 10, cfg.SpawnAttempts)
	assert.InDelta(t, 0.5, cfg.AssignInterval, 1e-12)
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "harvest.yaml")
	doc := `
red_drones: 5
drone_speed: 1.5
bases:
  - {team: red, x: -4, y: 1, radius: 0.5}
  - {team: blue, x: 4, y: -1, radius: 0.5}
obstacles:
  - {x: 0, y: 0, radius: 1}
generate:
  enabled: false
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 5, cfg.RedDrones)
	assert.Equal(t, 3, cfg.BlueDrones, "unset keys keep defaults")
	assert.InDelta(t, 1.5, cfg.DroneSpeed, 1e-12)
	assert.Equal(t, world.TeamBlue, cfg.Bases[1].Team)
	assert.Len(t, cfg.Obstacles, 1)
	assert.False(t, cfg.Generate.Enabled)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("bases:\n  - {team: green}\n"), 0o644))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("HARVEST_BLUE_DRONES", "7")
	t.Setenv("HARVEST_DRONE_SPEED", "3.25")
	t.Setenv("HARVEST_SEED", "99")
	t.Setenv("HARVEST_ADMIN_KEY", "secret")

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv())
	assert.Equal(t, 7, cfg.BlueDrones)
	assert.InDelta(t, 3.25, cfg.DroneSpeed, 1e-12)
	assert.Equal(t, int64(99), cfg.Seed)
	assert.Equal(t, "secret", cfg.AdminKey)

	t.Setenv("HARVEST_RED_DRONES", "many")
	assert.Error(t, cfg.ApplyEnv())
}

func TestValidateReportsProblems(t *testing.T) {
	cfg := Default()
	cfg.TimeStep = 0
	cfg.SpawnAttempts = 0
	cfg.Bases = cfg.Bases[:1]

	err := cfg.Validate()
	require.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, err.Error(), "time_step")
	assert.Contains(t, err.Error(), "spawn_attempts")
	assert.Contains(t, err.Error(), "missing base for team blue")
}

func TestBuildArena(t *testing.T) {
	cfg := Default()
	cfg.Seed = 11
	cfg.Obstacles = []ObstacleConfig{{X: 0, Y: 2, Radius: 0.5}}
	cfg.Generate.Threshold = 0
	cfg.Generate.MaxObstacles = 4

	arena, err := cfg.BuildArena()
	require.NoError(t, err)

	red := arena.Base(world.TeamRed)
	require.NotNil(t, red)
	assert.Equal(t, orb.Point{-6, 0}, red.Position)
	assert.Equal(t, 1, arena.Obstacles()[0].ID)
	assert.Len(t, arena.Obstacles(), 5)
	for _, o := range arena.Obstacles()[1:] {
		assert.GreaterOrEqual(t, world.Distance(o.Center, red.Position), cfg.Generate.Clearance)
	}

	cfg.Obstacles[0].Radius = 0
	_, err = cfg.BuildArena()
	assert.ErrorIs(t, err, world.ErrInvalidObstacle)
}
