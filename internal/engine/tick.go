// Package engine provides the fixed-step simulation loop and the
// coordinator that pairs drones with resources.
package engine

import (
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"
)

// Cadence runs a callback every Every ticks.
type Cadence struct {
	Name  string
	Every uint64
	Fn    func(tick uint64)
}

// Engine drives the simulation forward in fixed steps.
type Engine struct {
	Tick     uint64        // Current tick counter (monotonic, never resets)
	Interval time.Duration // Wall time per tick at speed 1.0

	// Callbacks populated during setup.
	OnTick   func(tick uint64) // Every tick
	Cadences []Cadence         // Slower periodic work

	mu      sync.Mutex
	speed   float64 // Multiplier: 1.0 = real-time, 0 = paused
	running atomic.Bool
}

// NewEngine creates a simulation engine running at real-time speed.
func NewEngine(interval time.Duration) *Engine {
	return &Engine{
		Interval: interval,
		speed:    1.0,
	}
}

// Every registers a callback run on ticks divisible by every.
func (e *Engine) Every(name string, every uint64, fn func(tick uint64)) {
	if every == 0 {
		every = 1
	}
	e.Cadences = append(e.Cadences, Cadence{Name: name, Every: every, Fn: fn})
}

// SetSpeed sets the wall-clock multiplier. Zero or less pauses the loop.
func (e *Engine) SetSpeed(speed float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.speed = speed
}

// Speed returns the wall-clock multiplier.
func (e *Engine) Speed() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.speed
}

// Running reports whether Run is looping.
func (e *Engine) Running() bool {
	return e.running.Load()
}

// Run starts the paced simulation loop. Blocks until Stop() is called.
func (e *Engine) Run() {
	e.running.Store(true)
	slog.Info("simulation engine started", "tick", e.Tick, "speed", e.Speed())

	for e.running.Load() {
		speed := e.Speed()
		if speed <= 0 {
			// Paused; sleep briefly and check again.
			time.Sleep(100 * time.Millisecond)
			continue
		}

		start := time.Now()

		e.Step()

		// Sleep for the remainder of the tick interval, adjusted for speed.
		elapsed := time.Since(start)
		target := time.Duration(float64(e.Interval) / speed)
		if elapsed < target {
			time.Sleep(target - elapsed)
		}
	}

	slog.Info("simulation engine stopped", "tick", e.Tick)
}

// Stop halts the simulation loop.
func (e *Engine) Stop() {
	e.running.Store(false)
}

// Advance runs n ticks back to back without pacing.
func (e *Engine) Advance(n uint64) {
	for i := uint64(0); i < n; i++ {
		e.Step()
	}
}

// Step advances the simulation by one tick.
func (e *Engine) Step() {
	e.Tick++

	if e.OnTick != nil {
		e.OnTick(e.Tick)
	}
	for _, c := range e.Cadences {
		if e.Tick%c.Every == 0 {
			c.Fn(e.Tick)
		}
	}
}

// TicksFor converts a duration in simulated time units to a tick count,
// never less than one.
func TicksFor(duration, step float64) uint64 {
	if step <= 0 {
		return 1
	}
	n := math.Round(duration / step)
	if n < 1 {
		return 1
	}
	return uint64(n)
}

// SimTime returns a human-readable simulated time for a tick number.
func SimTime(tick uint64, step float64) string {
	total := float64(tick) * step
	minutes := int(total) / 60
	seconds := total - float64(minutes*60)
	return fmt.Sprintf("%d:%05.2f", minutes, seconds)
}
