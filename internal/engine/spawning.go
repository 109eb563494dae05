package engine

import (
	"log/slog"

	"github.com/paulmach/orb"

	"github.com/talgya/drone-harvest/internal/resources"
	"github.com/talgya/drone-harvest/internal/world"
)

// ResourceFactory creates the resource entity for a spawn position.
type ResourceFactory func(id resources.ID, pos orb.Point, radius float64) (*resources.Resource, error)

// NewResource is the default ResourceFactory.
func NewResource(id resources.ID, pos orb.Point, radius float64) (*resources.Resource, error) {
	return resources.New(id, pos, radius), nil
}

// SpawnCycle runs one spawn cycle outside the tick cadence.
func (c *Coordinator) SpawnCycle() *resources.Resource {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, _ := c.spawnResource()
	return r
}

// spawnResource tries up to SpawnAttempts random points in the spawn disk
// and registers a resource at the first one clear of obstacles. When every
// attempt collides the cycle is skipped. Returns the resource, if any, and
// the number of attempts used.
func (c *Coordinator) spawnResource() (*resources.Resource, int) {
	for attempt := 1; attempt <= c.cfg.SpawnAttempts; attempt++ {
		pos := world.PointInDisk(orb.Point{}, c.cfg.SpawnRadius, c.rng.Float64(), c.rng.Float64())
		if c.obstacles.Overlaps(pos, c.cfg.ResourceRadius) {
			continue
		}

		c.nextResource++
		r, err := c.factory(c.nextResource, pos, c.cfg.ResourceRadius)
		if err != nil || r == nil {
			slog.Error("spawned resource rejected", "id", c.nextResource, "error", err)
			return nil, attempt
		}
		c.registry.Register(r)
		c.record(CategorySpawn, "resource %d spawned at (%.2f, %.2f)", r.ID, pos[0], pos[1])
		return r, attempt
	}

	slog.Debug("resource placement exhausted", "attempts", c.cfg.SpawnAttempts)
	return nil, c.cfg.SpawnAttempts
}
