// Package agents provides the drone data model and its task state machine.
// Drones travel to a reserved resource, collect it, carry it to their own
// team base and report back to a Dispatcher for their next task.
package agents

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"

	"github.com/talgya/drone-harvest/internal/resources"
	"github.com/talgya/drone-harvest/internal/steering"
	"github.com/talgya/drone-harvest/internal/world"
)

// DroneID is a unique identifier for a drone.
type DroneID uint64

// State is the single tagged state of a drone's task cycle.
type State uint8

const (
	StateIdle       State = iota // No task; waiting for assignment
	StateSeeking                 // Flying to the reserved resource
	StateCollecting              // Collection delay running at the resource
	StateReturning               // Carrying the payload home
	StateDelivering              // Post-delivery debounce; contacts ignored
	StateDisabled                // No dispatcher at start; never updates
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSeeking:
		return "seeking"
	case StateCollecting:
		return "collecting"
	case StateReturning:
		return "returning"
	case StateDelivering:
		return "delivering"
	case StateDisabled:
		return "disabled"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// MarshalText encodes the state as its name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

var (
	// ErrNoDispatcher is returned by Start when the drone has no coordinator.
	ErrNoDispatcher = errors.New("drone has no dispatcher")
	// ErrNotAssignable is returned when assigning a drone that is mid-task.
	ErrNotAssignable = errors.New("drone is not assignable")
)

// Dispatcher is the coordinator side of the drone task cycle. Drones call
// it from inside a simulation tick.
type Dispatcher interface {
	// MarkAvailable returns the drone to the idle pool. Must be idempotent.
	MarkAvailable(d *Drone)
	// ResourceCollected reports that a reserved resource was consumed.
	ResourceCollected(d *Drone, r *resources.Resource)
	// ResourceDelivered reports a payload dropped at the drone's base.
	ResourceDelivered(d *Drone, b *world.Base)
}

// Params holds per-drone tuning.
type Params struct {
	Speed            float64 // Arena units per time unit
	Radius           float64 // Contact radius
	CollectDelay     float64 // Time spent collecting before the resource is consumed
	DeliveryDebounce float64 // Window after a delivery in which base contacts are ignored
}

// DefaultParams returns the stock drone tuning.
func DefaultParams() Params {
	return Params{
		Speed:            2.0,
		Radius:           0.25,
		CollectDelay:     2.0,
		DeliveryDebounce: 0.5,
	}
}

// Drone is a mobile agent that harvests resources for its team.
type Drone struct {
	ID       DroneID    `json:"id"`
	Name     string     `json:"name"`
	Team     world.Team `json:"team"`
	Position orb.Point  `json:"position"`
	Speed    float64    `json:"speed"`
	Radius   float64    `json:"radius"`

	base         *world.Base
	state        State
	target       *resources.Resource // Reserved resource while seeking or collecting
	timer        float64             // Remaining collection delay or debounce
	collectDelay float64
	debounce     float64
	drawPath     bool

	steer      *steering.Engine
	dispatcher Dispatcher
}

// New creates an idle drone belonging to base's team. The dispatcher is
// injected here; Start fails if it is nil.
func New(id DroneID, name string, base *world.Base, pos orb.Point, p Params, steer *steering.Engine, dispatcher Dispatcher) *Drone {
	d := &Drone{
		ID:           id,
		Name:         name,
		Position:     pos,
		Speed:        p.Speed,
		Radius:       p.Radius,
		base:         base,
		state:        StateIdle,
		collectDelay: p.CollectDelay,
		debounce:     p.DeliveryDebounce,
		steer:        steer,
		dispatcher:   dispatcher,
	}
	if base != nil {
		d.Team = base.Team
	}
	return d
}

// State returns the drone's current state.
func (d *Drone) State() State { return d.state }

// Base returns the drone's own team base.
func (d *Drone) Base() *world.Base { return d.base }

// Resource returns the reserved resource while seeking or collecting, else nil.
func (d *Drone) Resource() *resources.Resource { return d.target }

// Timer returns the remaining collection delay or debounce window.
func (d *Drone) Timer() float64 { return d.timer }

// Carrying reports whether the drone holds a payload.
func (d *Drone) Carrying() bool { return d.state == StateReturning }

// Busy reports whether the drone is working on a task.
func (d *Drone) Busy() bool {
	switch d.state {
	case StateSeeking, StateCollecting, StateReturning:
		return true
	}
	return false
}

// Assignable reports whether Assign would accept a resource.
func (d *Drone) Assignable() bool {
	return d.state == StateIdle || d.state == StateDelivering
}

// Target returns the point the drone is steering toward, if any.
func (d *Drone) Target() (orb.Point, bool) {
	switch d.state {
	case StateSeeking, StateCollecting:
		if d.target != nil {
			return d.target.Position, true
		}
	case StateReturning:
		if d.base != nil {
			return d.base.Position, true
		}
	}
	return orb.Point{}, false
}

// SetDrawPath toggles path display. It has no effect on behavior.
func (d *Drone) SetDrawPath(on bool) { d.drawPath = on }

// Path returns the segment to display when path drawing is on and the
// drone has a target.
func (d *Drone) Path() (from, to orb.Point, ok bool) {
	if !d.drawPath {
		return orb.Point{}, orb.Point{}, false
	}
	to, ok = d.Target()
	return d.Position, to, ok
}

// InContact reports whether the drone touches a circle at pos with radius.
func (d *Drone) InContact(pos orb.Point, radius float64) bool {
	return world.Distance(d.Position, pos) <= d.Radius+radius
}

// String returns the drone's name and state.
func (d *Drone) String() string {
	return fmt.Sprintf("%s[%s]", d.Name, d.state)
}
