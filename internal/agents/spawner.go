// Drone spawning: each team's squad appears around its base.
package agents

import (
	"fmt"
	"math/rand"

	"github.com/talgya/drone-harvest/internal/steering"
	"github.com/talgya/drone-harvest/internal/world"
)

// SpawnScatter is the radius around a base in which new drones appear.
const SpawnScatter = 1.0

// Spawner creates drones for the simulation.
type Spawner struct {
	rng    *rand.Rand
	nextID DroneID
}

// NewSpawner creates a drone spawner with the given seed.
func NewSpawner(seed int64) *Spawner {
	return &Spawner{
		rng:    rand.New(rand.NewSource(seed + 300)),
		nextID: 1,
	}
}

// SkipPast makes sure IDs issued later are above id.
func (s *Spawner) SkipPast(id DroneID) {
	if id >= s.nextID {
		s.nextID = id + 1
	}
}

// SpawnSquad creates count drones scattered around base. The drones are
// not started; the caller starts them once they are tracked.
func (s *Spawner) SpawnSquad(base *world.Base, count int, p Params, steer *steering.Engine, dispatcher Dispatcher) []*Drone {
	drones := make([]*Drone, 0, count)
	for i := 0; i < count; i++ {
		id := s.nextID
		s.nextID++

		pos := world.PointInDisk(base.Position, SpawnScatter, s.rng.Float64(), s.rng.Float64())
		name := fmt.Sprintf("%s-%d", base.Team, i+1)
		drones = append(drones, New(id, name, base, pos, p, steer, dispatcher))
	}
	return drones
}
