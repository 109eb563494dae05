package engine

import "fmt"

// maxEvents bounds the in-memory event history.
const maxEvents = 1000

// Event categories.
const (
	CategorySpawn   = "spawn"
	CategoryAssign  = "assign"
	CategoryCollect = "collect"
	CategoryDeliver = "deliver"
	CategoryAbort   = "abort"
)

// Event is a notable occurrence in the contest.
type Event struct {
	Tick        uint64 `json:"tick" db:"tick"`
	Description string `json:"description" db:"description"`
	Category    string `json:"category" db:"category"`
}

// record appends an event to the history and the unflushed queue. Without
// a consumer calling TakeEvents the queue keeps only the newest maxEvents.
func (c *Coordinator) record(category, format string, args ...any) {
	e := Event{Tick: c.tick, Description: fmt.Sprintf(format, args...), Category: category}
	c.events = append(c.events, e)
	if len(c.events) > maxEvents {
		c.events = c.events[len(c.events)-maxEvents:]
	}
	c.pending = append(c.pending, e)
	if over := len(c.pending) - maxEvents; over > 0 {
		c.pending = c.pending[over:]
		c.droppedEvents += over
	}
}

// RecentEvents returns up to limit of the most recent events, oldest first.
func (c *Coordinator) RecentEvents(limit int) []Event {
	c.mu.RLock()
	defer c.mu.RUnlock()

	start := 0
	if limit > 0 && len(c.events) > limit {
		start = len(c.events) - limit
	}
	out := make([]Event, len(c.events)-start)
	copy(out, c.events[start:])
	return out
}

// DroppedEvents returns how many queued events were discarded unflushed.
func (c *Coordinator) DroppedEvents() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.droppedEvents
}

// TakeEvents returns the events recorded since the previous call.
func (c *Coordinator) TakeEvents() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := c.pending
	c.pending = nil
	return out
}
