package config

import (
	"fmt"

	"github.com/paulmach/orb"

	"github.com/talgya/drone-harvest/internal/world"
)

// BuildArena lays out the arena: bases, fixed obstacles, then generated
// obstacles kept clear of the bases.
func (c Config) BuildArena() (*world.Arena, error) {
	arena := world.NewArena(c.ArenaRadius)

	keepOut := make([]orb.Point, 0, len(c.Bases))
	for _, b := range c.Bases {
		pos := orb.Point{b.X, b.Y}
		arena.SetBase(world.NewBase(b.Team, pos, b.Radius))
		keepOut = append(keepOut, pos)
	}

	for i, oc := range c.Obstacles {
		o, err := world.NewObstacle(i+1, orb.Point{oc.X, oc.Y}, oc.Radius)
		if err != nil {
			return nil, fmt.Errorf("build arena: %w", err)
		}
		arena.AddObstacle(o)
	}

	if c.Generate.Enabled {
		gen := world.GenConfig{
			Seed:           c.Seed + 1,
			Radius:         c.ArenaRadius,
			Cell:           world.DefaultGenConfig().Cell,
			Threshold:      c.Generate.Threshold,
			ObstacleRadius: c.Generate.ObstacleRadius,
			Clearance:      c.Generate.Clearance,
			MaxObstacles:   c.Generate.MaxObstacles,
		}
		for _, o := range world.GenerateObstacles(gen, keepOut, len(c.Obstacles)+1) {
			arena.AddObstacle(o)
		}
	}
	return arena, nil
}
