// Package world provides the arena geometry: planar positions, circular
// obstacles, and the two team bases.
// Positions are orb points in arena units with the origin at the arena center.
package world

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Distance returns the Euclidean distance between two points.
func Distance(a, b orb.Point) float64 {
	return planar.Distance(a, b)
}

// Vector algebra runs on mgl64 vectors; positions stay orb points.

func vec(p orb.Point) mgl64.Vec2 { return mgl64.Vec2{p[0], p[1]} }

func point(v mgl64.Vec2) orb.Point { return orb.Point{v[0], v[1]} }

// Add returns a + b.
func Add(a, b orb.Point) orb.Point {
	return point(vec(a).Add(vec(b)))
}

// Sub returns a - b.
func Sub(a, b orb.Point) orb.Point {
	return point(vec(a).Sub(vec(b)))
}

// Scale returns p multiplied by f.
func Scale(p orb.Point, f float64) orb.Point {
	return point(vec(p).Mul(f))
}

// Dot returns the dot product of a and b.
func Dot(a, b orb.Point) float64 {
	return vec(a).Dot(vec(b))
}

// Length returns the magnitude of p.
func Length(p orb.Point) float64 {
	return vec(p).Len()
}

// Normalize returns p scaled to unit length. The zero vector stays zero.
func Normalize(p orb.Point) orb.Point {
	v := vec(p)
	if v.Len() == 0 {
		return orb.Point{}
	}
	return point(v.Normalize())
}

// Perpendicular returns p rotated 90° clockwise in the arena plane: the
// cross product of p with the out-of-plane axis.
func Perpendicular(p orb.Point) orb.Point {
	c := vec(p).Vec3(0).Cross(mgl64.Vec3{0, 0, 1})
	return orb.Point{c[0], c[1]}
}

// PointInDisk maps two uniform samples in [0, 1) to a uniformly
// distributed point inside the disk of the given center and radius.
func PointInDisk(center orb.Point, radius, u, v float64) orb.Point {
	r := radius * math.Sqrt(u)
	theta := 2 * math.Pi * v
	return orb.Point{center[0] + r*math.Cos(theta), center[1] + r*math.Sin(theta)}
}
