// Package steering computes per-tick drone displacement: seek the target,
// deflect sideways when an obstacle lies ahead, and push away from nearby
// peers. It is purely local and keeps no state between ticks.
package steering

import (
	"math"

	"github.com/paulmach/orb"

	"github.com/talgya/drone-harvest/internal/world"
)

// minPeerDistance clamps the inverse-distance repulsion near zero.
const minPeerDistance = 0.01

// Prober answers whether a short probe from a point along a heading hits an obstacle.
type Prober interface {
	Probe(from, dir orb.Point, distance float64) bool
}

// Params tunes the steering behavior.
type Params struct {
	AvoidanceRadius float64 // Peers farther than this are ignored
	AvoidanceForce  float64 // Weight of the repulsion term against the heading
	ProbeDistance   float64 // Obstacle lookahead along the heading
}

// DefaultParams returns the stock drone tuning.
func DefaultParams() Params {
	return Params{
		AvoidanceRadius: 1.0,
		AvoidanceForce:  1.0,
		ProbeDistance:   0.5,
	}
}

// Engine produces bounded per-tick displacements.
type Engine struct {
	Params Params
	Prober Prober // May be nil: nothing ever blocks
}

// New creates a steering engine.
func New(p Params, prober Prober) *Engine {
	return &Engine{Params: p, Prober: prober}
}

// Heading returns the unit direction from pos to target, rotated a quarter
// turn when the obstacle probe along it is blocked.
func (e *Engine) Heading(pos, target orb.Point) orb.Point {
	heading := world.Normalize(world.Sub(target, pos))
	if e.Prober != nil && heading != (orb.Point{}) && e.Prober.Probe(pos, heading, e.Params.ProbeDistance) {
		heading = world.Perpendicular(heading)
	}
	return heading
}

// Avoidance sums unit vectors pointing away from each peer within the
// avoidance radius, each scaled by the inverse of its distance. Peers at
// exactly pos contribute nothing.
func (e *Engine) Avoidance(pos orb.Point, peers []orb.Point) orb.Point {
	var sum orb.Point
	for _, p := range peers {
		away := world.Sub(pos, p)
		d := world.Length(away)
		if d > e.Params.AvoidanceRadius {
			continue
		}
		sum = world.Add(sum, world.Scale(world.Normalize(away), 1/math.Max(d, minPeerDistance)))
	}
	return sum
}

// Displacement returns the movement for one tick of length dt toward target.
// The caller passes peers excluding the moving drone itself.
func (e *Engine) Displacement(pos, target orb.Point, peers []orb.Point, speed, dt float64) orb.Point {
	heading := e.Heading(pos, target)
	avoid := e.Avoidance(pos, peers)
	dir := world.Normalize(world.Add(heading, world.Scale(avoid, e.Params.AvoidanceForce)))
	return world.Scale(dir, speed*dt)
}

// Steer is Displacement for an optional target; no target means no movement.
func (e *Engine) Steer(pos orb.Point, target *orb.Point, peers []orb.Point, speed, dt float64) orb.Point {
	if target == nil {
		return orb.Point{}
	}
	return e.Displacement(pos, *target, peers, speed, dt)
}
