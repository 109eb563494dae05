package steering

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"

	"github.com/talgya/drone-harvest/internal/world"
)

type wall bool

func (w wall) Probe(orb.Point, orb.Point, float64) bool { return bool(w) }

func TestDisplacementSeeksTarget(t *testing.T) {
	e := New(DefaultParams(), nil)

	d := e.Displacement(orb.Point{0, 0}, orb.Point{3, 0}, nil, 2, 0.5)
	assert.InDelta(t, 1.0, d[0], 1e-12)
	assert.InDelta(t, 0.0, d[1], 1e-12)
}

func TestDisplacementDeflectsOnBlockedProbe(t *testing.T) {
	e := New(DefaultParams(), wall(true))

	d := e.Displacement(orb.Point{0, 0}, orb.Point{3, 0}, nil, 1, 1)
	assert.InDelta(t, 0.0, d[0], 1e-12)
	assert.InDelta(t, -1.0, d[1], 1e-12)
}

func TestDisplacementDeflectsAroundArenaObstacle(t *testing.T) {
	a := world.NewArena(10)
	o, err := world.NewObstacle(1, orb.Point{1, 0}, 0.6)
	assert.NoError(t, err)
	a.AddObstacle(o)
	e := New(DefaultParams(), a)

	d := e.Displacement(orb.Point{0, 0}, orb.Point{5, 0}, nil, 1, 1)
	assert.InDelta(t, 0.0, d[0], 1e-12)
	assert.InDelta(t, -1.0, d[1], 1e-12)
}

func TestAvoidanceIgnoresDistantPeers(t *testing.T) {
	e := New(DefaultParams(), nil)

	assert.Equal(t, orb.Point{}, e.Avoidance(orb.Point{0, 0}, []orb.Point{{2, 0}, {0, -1.5}}))
}

func TestAvoidanceScalesInverselyWithDistance(t *testing.T) {
	e := New(DefaultParams(), nil)

	near := e.Avoidance(orb.Point{0, 0}, []orb.Point{{0.5, 0}})
	far := e.Avoidance(orb.Point{0, 0}, []orb.Point{{1, 0}})
	assert.InDelta(t, -2.0, near[0], 1e-12)
	assert.InDelta(t, -1.0, far[0], 1e-12)

	both := e.Avoidance(orb.Point{0, 0}, []orb.Point{{0.5, 0}, {-0.5, 0}})
	assert.InDelta(t, 0.0, world.Length(both), 1e-12)
}

func TestAvoidanceClampsNearZeroDistance(t *testing.T) {
	e := New(DefaultParams(), nil)

	v := e.Avoidance(orb.Point{0, 0}, []orb.Point{{0.001, 0}})
	assert.InDelta(t, -100.0, v[0], 1e-9)
	assert.Equal(t, orb.Point{}, e.Avoidance(orb.Point{1, 1}, []orb.Point{{1, 1}}))
}

func TestDisplacementBlendsAvoidance(t *testing.T) {
	e := New(Params{AvoidanceRadius: 1, AvoidanceForce: 1, ProbeDistance: 0.5}, nil)

	// Peer directly below pushes up with magnitude 2; heading is +x.
	d := e.Displacement(orb.Point{0, 0}, orb.Point{4, 0}, []orb.Point{{0, -0.5}}, 1, 1)
	want := world.Normalize(orb.Point{1, 2})
	assert.InDelta(t, want[0], d[0], 1e-12)
	assert.InDelta(t, want[1], d[1], 1e-12)
	assert.InDelta(t, 1.0, world.Length(d), 1e-12)
}

func TestSteerWithoutTargetDoesNotMove(t *testing.T) {
	e := New(DefaultParams(), nil)

	assert.Equal(t, orb.Point{}, e.Steer(orb.Point{1, 1}, nil, []orb.Point{{1.2, 1}}, 2, 0.1))
}
