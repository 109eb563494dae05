// Drone task cycle: idle → seeking → collecting → returning → delivering → idle.
// Every tick the coordinator calls Update; contact events arrive through
// TouchResource and TouchBase after movement.
package agents

import (
	"fmt"
	"log/slog"

	"github.com/paulmach/orb"

	"github.com/talgya/drone-harvest/internal/resources"
	"github.com/talgya/drone-harvest/internal/world"
)

// timerEpsilon absorbs float drift when a delay is consumed in fixed steps.
const timerEpsilon = 1e-9

// Start registers the drone with its dispatcher. A drone without a
// dispatcher disables itself instead of failing the simulation.
func (d *Drone) Start() error {
	if d.dispatcher == nil {
		d.state = StateDisabled
		slog.Error("drone has no coordinator, disabling", "drone", d.Name)
		return fmt.Errorf("start %s: %w", d.Name, ErrNoDispatcher)
	}
	d.state = StateIdle
	d.requestTask()
	return nil
}

// Assign hands the drone a reserved resource. Only idle drones, or drones
// still inside their delivery debounce, accept work. A nil resource clears
// the task and asks for another.
func (d *Drone) Assign(r *resources.Resource) error {
	if !d.Assignable() {
		return fmt.Errorf("assign %s in state %s: %w", d.Name, d.state, ErrNotAssignable)
	}
	if r == nil {
		d.clearTask()
		d.requestTask()
		return nil
	}
	d.target = r
	d.timer = 0
	d.state = StateSeeking
	return nil
}

// Update advances the drone by dt. peers are the positions of other drones
// near this one.
func (d *Drone) Update(dt float64, peers []orb.Point) {
	switch d.state {
	case StateSeeking:
		if !d.targetValid() {
			d.abort("target vanished while seeking")
			return
		}
		d.moveToward(d.target.Position, dt, peers)

	case StateCollecting:
		if !d.targetValid() {
			d.abort("target vanished while collecting")
			return
		}
		d.moveToward(d.target.Position, dt, peers)
		d.timer -= dt
		if d.timer <= timerEpsilon {
			d.finishCollecting()
		}

	case StateReturning:
		if d.base == nil {
			d.abort("no base to return to")
			return
		}
		d.moveToward(d.base.Position, dt, peers)

	case StateDelivering:
		d.timer -= dt
		if d.timer <= timerEpsilon {
			d.timer = 0
			d.state = StateIdle
		}
	}
}

// TouchResource handles contact with a resource. Only the drone's own
// reserved, uncollected target starts collection. Returns true if it did.
func (d *Drone) TouchResource(r *resources.Resource) bool {
	if d.state != StateSeeking || r == nil || r != d.target {
		return false
	}
	if r.Collected() {
		d.abort("target already collected on contact")
		return false
	}
	d.state = StateCollecting
	d.timer = d.collectDelay
	slog.Debug("drone collecting", "drone", d.Name, "resource", r.ID, "delay", d.collectDelay)
	return true
}

// TouchBase handles contact with a base. A carrying drone delivers only to
// its own base; every other contact, including repeats during the debounce
// window, is ignored. Returns true if a delivery was made.
func (d *Drone) TouchBase(b *world.Base) bool {
	if d.state != StateReturning || b == nil || b != d.base {
		return false
	}
	if d.dispatcher != nil {
		d.dispatcher.ResourceDelivered(d, b)
	}
	d.state = StateDelivering
	d.timer = d.debounce
	d.requestTask()
	return true
}

func (d *Drone) finishCollecting() {
	r := d.target
	if err := r.Collect(); err != nil {
		d.abort(err.Error())
		return
	}
	slog.Debug("drone collected resource", "drone", d.Name, "resource", r.ID)
	if d.dispatcher != nil {
		d.dispatcher.ResourceCollected(d, r)
	}
	d.target = nil
	d.timer = 0
	d.state = StateReturning
}

func (d *Drone) moveToward(dest orb.Point, dt float64, peers []orb.Point) {
	if d.steer == nil {
		return
	}
	step := d.steer.Displacement(d.Position, dest, peers, d.Speed, dt)
	d.Position = world.Add(d.Position, step)
}

func (d *Drone) targetValid() bool {
	return d.target != nil && !d.target.Collected()
}

// abort drops the current task and asks for a new one.
func (d *Drone) abort(reason string) {
	slog.Debug("drone aborting task", "drone", d.Name, "state", d.state, "reason", reason)
	d.clearTask()
	d.requestTask()
}

func (d *Drone) clearTask() {
	d.target = nil
	d.timer = 0
	d.state = StateIdle
}

func (d *Drone) requestTask() {
	if d.dispatcher != nil {
		d.dispatcher.MarkAvailable(d)
	}
}
