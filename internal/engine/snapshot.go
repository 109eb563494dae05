package engine

import (
	"github.com/paulmach/orb"

	"github.com/talgya/drone-harvest/internal/agents"
	"github.com/talgya/drone-harvest/internal/resources"
	"github.com/talgya/drone-harvest/internal/world"
)

// DroneView is a read-only copy of a drone for observers.
type DroneView struct {
	ID       agents.DroneID `json:"id"`
	Name     string         `json:"name"`
	Team     world.Team     `json:"team"`
	State    agents.State   `json:"state"`
	Position orb.Point      `json:"position"`
	Carrying bool           `json:"carrying"`
	Resource *resources.ID  `json:"resource,omitempty"`
	Path     []orb.Point    `json:"path,omitempty"` // Present when path display is on
}

// ResourceView is a read-only copy of a live resource.
type ResourceView struct {
	ID       resources.ID `json:"id"`
	Position orb.Point    `json:"position"`
	Reserved bool         `json:"reserved"`
}

// Snapshot is a consistent copy of the contest state.
type Snapshot struct {
	Tick      uint64             `json:"tick"`
	Elapsed   float64            `json:"elapsed"`
	Started   bool               `json:"started"`
	Delivered map[world.Team]int `json:"delivered"`
	Collected int                `json:"collected"`
	Available int                `json:"available"`
	Busy      int                `json:"busy"`
	Drones    []DroneView        `json:"drones"`
	Resources []ResourceView     `json:"resources"`
	Obstacles []*world.Obstacle  `json:"obstacles"`
	Bases     []*world.Base      `json:"bases"`
}

// Snapshot copies the current state under the read lock.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Snapshot{
		Tick:      c.tick,
		Elapsed:   c.elapsed,
		Started:   c.started,
		Delivered: make(map[world.Team]int, world.NumTeams),
		Collected: c.collected,
		Available: len(c.available),
		Busy:      len(c.busy),
		Drones:    make([]DroneView, 0, len(c.drones)),
		Obstacles: c.arena.Obstacles(),
		Bases:     c.arena.Bases(),
	}
	for _, t := range world.Teams {
		s.Delivered[t] = c.delivered[t]
	}

	for _, d := range c.drones {
		v := DroneView{
			ID:       d.ID,
			Name:     d.Name,
			Team:     d.Team,
			State:    d.State(),
			Position: d.Position,
			Carrying: d.Carrying(),
		}
		if r := d.Resource(); r != nil {
			id := r.ID
			v.Resource = &id
			s.Resources = append(s.Resources, ResourceView{ID: r.ID, Position: r.Position, Reserved: true})
		}
		if from, to, ok := d.Path(); ok {
			v.Path = []orb.Point{from, to}
		}
		s.Drones = append(s.Drones, v)
	}
	for _, r := range c.registry.All() {
		s.Resources = append(s.Resources, ResourceView{ID: r.ID, Position: r.Position, Reserved: r.Reserved()})
	}
	return s
}
