package engine

import (
	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"

	"github.com/talgya/drone-harvest/internal/agents"
)

// spotExtent is the side of the tiny box indexing a drone position.
const spotExtent = 1e-6

// droneSpot indexes a drone position at the start of a tick.
type droneSpot struct {
	id  agents.DroneID
	pos orb.Point
}

// Bounds implements rtreego.Spatial.
func (s droneSpot) Bounds() rtreego.Rect {
	return rtreego.Point{s.pos[0], s.pos[1]}.ToRect(spotExtent)
}

// moveDrones updates every active drone against a snapshot of drone
// positions taken at the start of the tick, then emits contact events.
// Disabled drones stay in the index: they do not move but are still
// avoided.
func (c *Coordinator) moveDrones(dt float64) {
	if len(c.drones) == 0 {
		return
	}

	index := c.peerIndex()
	for _, d := range c.drones {
		if d.State() == agents.StateDisabled {
			continue
		}
		d.Update(dt, c.peers(index, d))
		c.contacts(d)
	}
}

// peerIndex indexes the current position of every drone.
func (c *Coordinator) peerIndex() *rtreego.Rtree {
	spots := make([]rtreego.Spatial, 0, len(c.drones))
	for _, d := range c.drones {
		spots = append(spots, droneSpot{id: d.ID, pos: d.Position})
	}
	return rtreego.NewTree(2, 4, 16, spots...)
}

// peers returns the positions of other drones within the avoidance radius.
func (c *Coordinator) peers(index *rtreego.Rtree, d *agents.Drone) []orb.Point {
	r := c.cfg.AvoidanceRadius
	if r <= 0 {
		return nil
	}
	bb, err := rtreego.NewRect(rtreego.Point{d.Position[0] - r, d.Position[1] - r}, []float64{2 * r, 2 * r})
	if err != nil {
		return nil
	}
	var out []orb.Point
	for _, s := range index.SearchIntersect(bb) {
		spot := s.(droneSpot)
		if spot.id == d.ID {
			continue
		}
		out = append(out, spot.pos)
	}
	return out
}

// contacts delivers touch events for the drone's reserved resource and for
// every base it overlaps. The drone decides which contacts matter.
func (c *Coordinator) contacts(d *agents.Drone) {
	if r := d.Resource(); r != nil && d.InContact(r.Position, r.Radius) {
		d.TouchResource(r)
	}
	for _, b := range c.arena.Bases() {
		if d.InContact(b.Position, b.Radius) {
			d.TouchBase(b)
		}
	}
}
