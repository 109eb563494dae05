// Coordinator owns the assignment pool, the resource registry and the
// delivery tallies. Drones report back to it through agents.Dispatcher.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"

	"github.com/paulmach/orb"

	"github.com/talgya/drone-harvest/internal/agents"
	"github.com/talgya/drone-harvest/internal/config"
	"github.com/talgya/drone-harvest/internal/resources"
	"github.com/talgya/drone-harvest/internal/steering"
	"github.com/talgya/drone-harvest/internal/world"
)

// ErrAlreadyStarted is returned by a second Start.
var ErrAlreadyStarted = errors.New("simulation already started")

// ErrNoBase is returned when a team with drones has no base.
var ErrNoBase = errors.New("team has no base")

// ObstacleField is the spatial collaborator: obstacle overlap for spawning
// and the line-of-sight probe for steering.
type ObstacleField interface {
	Overlaps(p orb.Point, radius float64) bool
	Probe(from, dir orb.Point, distance float64) bool
}

// Coordinator runs the contest. Its exported methods take the lock; the
// agents.Dispatcher methods are called by drones from inside Tick and
// must not.
type Coordinator struct {
	mu sync.RWMutex

	cfg       config.Config
	arena     *world.Arena
	obstacles ObstacleField
	steer     *steering.Engine
	spawner   *agents.Spawner
	rng       *rand.Rand
	factory   ResourceFactory

	registry     *resources.Registry
	nextResource resources.ID

	drones    []*agents.Drone
	available []*agents.Drone                  // In the order drones became available
	busy      map[agents.DroneID]*agents.Drone // Disjoint from available

	delivered [world.NumTeams]int
	collected int

	tick        uint64
	elapsed     float64
	started     bool
	drawPaths   bool
	assignTimer float64 // Time until the next assignment cycle
	spawnTimer  float64 // Time until the next spawn cycle

	events        []Event
	pending       []Event // Awaiting TakeEvents, bounded by maxEvents
	droppedEvents int
}

// NewCoordinator creates a coordinator for an arena. Nothing moves until
// Start. The configuration must pass config.Validate.
func NewCoordinator(cfg config.Config, arena *world.Arena) (*Coordinator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("new coordinator: %w", err)
	}
	if arena == nil {
		return nil, errors.New("new coordinator: nil arena")
	}
	return &Coordinator{
		cfg:       cfg,
		arena:     arena,
		obstacles: arena,
		steer:     steering.New(steeringParams(cfg), arena),
		spawner:   agents.NewSpawner(cfg.Seed),
		rng:       rand.New(rand.NewSource(cfg.Seed + 200)),
		factory:   NewResource,
		registry:  resources.NewRegistry(),
		busy:      make(map[agents.DroneID]*agents.Drone),
	}, nil
}

// SetResourceFactory replaces the entity factory used by spawning.
func (c *Coordinator) SetResourceFactory(f ResourceFactory) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.factory = f
}

func steeringParams(cfg config.Config) steering.Params {
	return steering.Params{
		AvoidanceRadius: cfg.AvoidanceRadius,
		AvoidanceForce:  cfg.AvoidanceForce,
		ProbeDistance:   cfg.ProbeDistance,
	}
}

func droneParams(cfg config.Config) agents.Params {
	return agents.Params{
		Speed:            cfg.DroneSpeed,
		Radius:           cfg.DroneRadius,
		CollectDelay:     cfg.CollectDelay,
		DeliveryDebounce: cfg.DeliveryDebounce,
	}
}

// Start spawns each team's squad at its base and starts the spawn and
// assignment cadences.
func (c *Coordinator) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started {
		return ErrAlreadyStarted
	}
	for _, team := range world.Teams {
		count := c.cfg.DroneCount(team)
		if count == 0 {
			continue
		}
		base := c.arena.Base(team)
		if base == nil {
			return ErrNoBase
		}
		squad := c.spawner.SpawnSquad(base, count, droneParams(c.cfg), c.steer, c)
		c.drones = append(c.drones, squad...)
	}
	for _, d := range c.drones {
		if err := d.Start(); err != nil {
			slog.Error("drone failed to start", "drone", d.Name, "error", err)
		}
		d.SetDrawPath(c.drawPaths)
	}

	c.started = true
	c.assignTimer = 0
	c.spawnTimer = c.cfg.SpawnDelay
	slog.Info("simulation started",
		"red_drones", c.cfg.RedDrones,
		"blue_drones", c.cfg.BlueDrones,
		"obstacles", len(c.arena.Obstacles()),
	)
	return nil
}

// Config returns the configuration the coordinator runs with.
func (c *Coordinator) Config() config.Config {
	return c.cfg
}

// Started reports whether Start has run.
func (c *Coordinator) Started() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.started
}

// AddDrone tracks an externally built drone and starts it. Squads spawned
// later get IDs above it.
func (c *Coordinator) AddDrone(d *agents.Drone) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.drones = append(c.drones, d)
	c.spawner.SkipPast(d.ID)
	d.SetDrawPath(c.drawPaths)
	return d.Start()
}

// Tick runs one fixed step: drone motion and contacts every tick, then
// the spawn and assignment cycles when their timers come due.
func (c *Coordinator) Tick(tick uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.tick = tick
	if !c.started {
		return
	}
	dt := c.cfg.TimeStep
	c.elapsed += dt

	c.moveDrones(dt)

	c.spawnTimer -= dt
	for c.spawnTimer <= timerEpsilon {
		c.spawnResource()
		c.spawnTimer += c.cfg.SpawnInterval
	}

	c.assignTimer -= dt
	for c.assignTimer <= timerEpsilon {
		c.assignOnce()
		c.assignTimer += c.cfg.AssignInterval
	}
}

// timerEpsilon absorbs float drift in cadence timers.
const timerEpsilon = 1e-9

// SetDrawPaths broadcasts the path display flag to every drone.
func (c *Coordinator) SetDrawPaths(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.drawPaths = on
	for _, d := range c.drones {
		d.SetDrawPath(on)
	}
}

// Delivered returns the delivery count of a team's base.
func (c *Coordinator) Delivered(t world.Team) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if int(t) >= world.NumTeams {
		return 0
	}
	return c.delivered[t]
}

// RedDelivered returns the red base's delivery count.
func (c *Coordinator) RedDelivered() int { return c.Delivered(world.TeamRed) }

// BlueDelivered returns the blue base's delivery count.
func (c *Coordinator) BlueDelivered() int { return c.Delivered(world.TeamBlue) }

// PoolSizes returns the number of available and busy drones.
func (c *Coordinator) PoolSizes() (available, busy int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.available), len(c.busy)
}

// MarkAvailable implements agents.Dispatcher. Marking an already available
// drone changes nothing.
func (c *Coordinator) MarkAvailable(d *agents.Drone) {
	for _, a := range c.available {
		if a == d {
			return
		}
	}
	if _, wasBusy := c.busy[d.ID]; wasBusy && d.State() == agents.StateIdle {
		c.record(CategoryAbort, "%s dropped its task", d.Name)
	}
	delete(c.busy, d.ID)
	c.available = append(c.available, d)
}

// ResourceCollected implements agents.Dispatcher.
func (c *Coordinator) ResourceCollected(d *agents.Drone, r *resources.Resource) {
	c.collected++
	c.registry.Remove(r.ID)
	c.record(CategoryCollect, "%s collected resource %d", d.Name, r.ID)
}

// ResourceDelivered implements agents.Dispatcher. A delivery counts only
// for the drone's own base.
func (c *Coordinator) ResourceDelivered(d *agents.Drone, b *world.Base) {
	if b == nil || b != d.Base() {
		slog.Warn("delivery to foreign base ignored", "drone", d.Name, "team", d.Team)
		return
	}
	c.delivered[b.Team]++
	c.record(CategoryDeliver, "%s delivered to the %s base", d.Name, b.Team)
	slog.Info("resource delivered",
		"drone", d.Name,
		"red", c.delivered[world.TeamRed],
		"blue", c.delivered[world.TeamBlue],
	)
}

func (c *Coordinator) removeAvailable(d *agents.Drone) {
	for i, a := range c.available {
		if a == d {
			c.available = append(c.available[:i], c.available[i+1:]...)
			return
		}
	}
}
