package engine

import (
	"log/slog"
	"math"

	"github.com/talgya/drone-harvest/internal/agents"
	"github.com/talgya/drone-harvest/internal/resources"
	"github.com/talgya/drone-harvest/internal/world"
)

// AssignCycle runs one assignment cycle outside the tick cadence.
// Returns true if a drone was paired with a resource.
func (c *Coordinator) AssignCycle() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.assignOnce()
}

// assignOnce commits the single globally nearest (available drone,
// unclaimed resource) pair. The scan is O(available × unclaimed), fine
// for tens of drones and resources.
//
// Ties resolve to the first minimum found: drones in the order they became
// available (outer loop), resources in registration order (inner loop).
// Only one pair is committed per cycle, so match quality depends on the
// cycle cadence relative to the population.
func (c *Coordinator) assignOnce() bool {
	if len(c.available) == 0 {
		return false
	}
	candidates := c.registry.Unclaimed()
	if len(candidates) == 0 {
		return false
	}

	var (
		bestDrone *agents.Drone
		bestRes   *resources.Resource
		minDist   = math.MaxFloat64
	)
	for _, d := range c.available {
		if !d.Assignable() {
			continue
		}
		for _, r := range candidates {
			dist := world.Distance(d.Position, r.Position)
			if dist < minDist {
				minDist = dist
				bestDrone = d
				bestRes = r
			}
		}
	}
	if bestDrone == nil {
		return false
	}

	// Reserve, assign and move pool membership in one step so no drone
	// ever sees a half-set reservation.
	if err := bestRes.Reserve(); err != nil {
		slog.Error("reservation failed", "resource", bestRes.ID, "error", err)
		c.registry.Remove(bestRes.ID)
		return false
	}
	if err := bestDrone.Assign(bestRes); err != nil {
		slog.Error("assignment failed", "drone", bestDrone.Name, "error", err)
		return false
	}
	c.removeAvailable(bestDrone)
	c.busy[bestDrone.ID] = bestDrone
	c.registry.Remove(bestRes.ID)

	c.record(CategoryAssign, "%s assigned resource %d at distance %.2f", bestDrone.Name, bestRes.ID, minDist)
	slog.Debug("drone assigned",
		"drone", bestDrone.Name,
		"resource", bestRes.ID,
		"distance", minDist,
		"available", len(c.available),
		"unclaimed", len(candidates)-1,
	)
	return true
}
