package world

import (
	"errors"
	"fmt"
	"math"

	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
)

// Rtree shape parameters, same branching as a small collision index.
const (
	treeMinChildren = 25
	treeMaxChildren = 50
)

// minExtent keeps degenerate bounding boxes valid for the rtree.
const minExtent = 1e-6

// ErrInvalidObstacle is returned for obstacles without a positive radius.
var ErrInvalidObstacle = errors.New("obstacle radius must be positive")

// Obstacle is a circular footprint that blocks movement and spawning.
type Obstacle struct {
	ID     int       `json:"id"`
	Center orb.Point `json:"center"`
	Radius float64   `json:"radius"`

	rect rtreego.Rect
}

// NewObstacle builds an obstacle and its bounding box.
func NewObstacle(id int, center orb.Point, radius float64) (*Obstacle, error) {
	if radius <= 0 || math.IsNaN(radius) {
		return nil, fmt.Errorf("obstacle %d: %w", id, ErrInvalidObstacle)
	}
	rect, err := circleRect(center, radius)
	if err != nil {
		return nil, fmt.Errorf("obstacle %d bounds: %w", id, err)
	}
	return &Obstacle{ID: id, Center: center, Radius: radius, rect: rect}, nil
}

// Bounds implements rtreego.Spatial.
func (o *Obstacle) Bounds() rtreego.Rect {
	return o.rect
}

// Arena holds the static layout of a contest: its extent, obstacles and bases.
type Arena struct {
	Radius float64 `json:"radius"` // Playable disk around the origin

	obstacles []*Obstacle
	tree      *rtreego.Rtree
	bases     [NumTeams]*Base
}

// NewArena creates an empty arena of the given radius.
func NewArena(radius float64) *Arena {
	return &Arena{
		Radius: radius,
		tree:   rtreego.NewTree(2, treeMinChildren, treeMaxChildren),
	}
}

// AddObstacle inserts an obstacle into the arena index.
func (a *Arena) AddObstacle(o *Obstacle) {
	a.obstacles = append(a.obstacles, o)
	a.tree.Insert(o)
}

// Obstacles returns the obstacles in insertion order.
func (a *Arena) Obstacles() []*Obstacle {
	return a.obstacles
}

// SetBase places the base for its team, replacing any previous one.
func (a *Arena) SetBase(b *Base) {
	a.bases[b.Team] = b
}

// Base returns the base of a team, or nil if none was placed.
func (a *Arena) Base(t Team) *Base {
	if int(t) >= NumTeams {
		return nil
	}
	return a.bases[t]
}

// Bases returns the placed bases in team order.
func (a *Arena) Bases() []*Base {
	out := make([]*Base, 0, NumTeams)
	for _, b := range a.bases {
		if b != nil {
			out = append(out, b)
		}
	}
	return out
}

// InBounds reports whether p lies inside the arena disk.
func (a *Arena) InBounds(p orb.Point) bool {
	return Distance(p, orb.Point{}) <= a.Radius
}

// Overlaps reports whether a circle at p with the given radius intersects
// any obstacle footprint.
func (a *Arena) Overlaps(p orb.Point, radius float64) bool {
	bb, err := circleRect(p, math.Max(radius, minExtent))
	if err != nil {
		return false
	}
	for _, s := range a.tree.SearchIntersect(bb) {
		o := s.(*Obstacle)
		if Distance(p, o.Center) < radius+o.Radius {
			return true
		}
	}
	return false
}

// Probe casts a segment of the given length from `from` along dir and
// reports whether it touches an obstacle. A zero direction never hits.
func (a *Arena) Probe(from, dir orb.Point, distance float64) bool {
	dir = Normalize(dir)
	if dir == (orb.Point{}) || distance <= 0 {
		return false
	}
	to := Add(from, Scale(dir, distance))

	bb, err := segmentRect(from, to)
	if err != nil {
		return false
	}
	for _, s := range a.tree.SearchIntersect(bb) {
		o := s.(*Obstacle)
		if segmentHitsCircle(from, to, o.Center, o.Radius) {
			return true
		}
	}
	return false
}

// segmentHitsCircle tests the closest point of segment ab against the circle.
func segmentHitsCircle(a, b, center orb.Point, radius float64) bool {
	ab := Sub(b, a)
	t := 0.0
	if l2 := Dot(ab, ab); l2 > 0 {
		t = Dot(Sub(center, a), ab) / l2
	}
	t = math.Max(0, math.Min(1, t))
	closest := Add(a, Scale(ab, t))
	return Distance(closest, center) <= radius
}

func circleRect(c orb.Point, r float64) (rtreego.Rect, error) {
	return rtreego.NewRect(rtreego.Point{c[0] - r, c[1] - r}, []float64{2 * r, 2 * r})
}

func segmentRect(a, b orb.Point) (rtreego.Rect, error) {
	bound := orb.MultiPoint{a, b}.Bound()
	return rtreego.NewRect(
		rtreego.Point{bound.Min[0], bound.Min[1]},
		[]float64{
			math.Max(bound.Max[0]-bound.Min[0], minExtent),
			math.Max(bound.Max[1]-bound.Min[1], minExtent),
		},
	)
}
