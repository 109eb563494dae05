// Package resources tracks collectible resources and their reservation state.
package resources

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"
)

// ID is a unique identifier for a resource.
type ID uint64

var (
	// ErrAlreadyReserved is returned when a resource is reserved twice.
	ErrAlreadyReserved = errors.New("resource already reserved")
	// ErrAlreadyCollected is returned when a resource is collected twice.
	ErrAlreadyCollected = errors.New("resource already collected")
)

// Resource is a collectible item in the arena.
// Once reserved it stays reserved; it leaves play when collected.
type Resource struct {
	ID       ID        `json:"id"`
	Position orb.Point `json:"position"`
	Radius   float64   `json:"radius"` // Contact radius

	reserved  bool
	collected bool
}

// New creates an unreserved, uncollected resource.
func New(id ID, pos orb.Point, radius float64) *Resource {
	return &Resource{ID: id, Position: pos, Radius: radius}
}

// Reserved reports whether the resource has been handed to an agent.
func (r *Resource) Reserved() bool { return r.reserved }

// Collected reports whether the resource has been consumed.
func (r *Resource) Collected() bool { return r.collected }

// Available reports whether the resource may still be offered for assignment.
func (r *Resource) Available() bool { return !r.reserved && !r.collected }

// Reserve marks the resource as claimed by exactly one agent.
func (r *Resource) Reserve() error {
	if r.collected {
		return fmt.Errorf("reserve resource %d: %w", r.ID, ErrAlreadyCollected)
	}
	if r.reserved {
		return fmt.Errorf("reserve resource %d: %w", r.ID, ErrAlreadyReserved)
	}
	r.reserved = true
	return nil
}

// Collect consumes the resource.
func (r *Resource) Collect() error {
	if r.collected {
		return fmt.Errorf("collect resource %d: %w", r.ID, ErrAlreadyCollected)
	}
	r.collected = true
	return nil
}

// String returns a short description of the resource.
func (r *Resource) String() string {
	return fmt.Sprintf("resource %d (%.2f, %.2f)", r.ID, r.Position[0], r.Position[1])
}
