package agents

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/drone-harvest/internal/resources"
	"github.com/talgya/drone-harvest/internal/steering"
	"github.com/talgya/drone-harvest/internal/world"
)

type recorder struct {
	available []*Drone
	collected []*resources.Resource
	delivered []*world.Base
}

func (r *recorder) MarkAvailable(d *Drone) { r.available = append(r.available, d) }

func (r *recorder) ResourceCollected(_ *Drone, res *resources.Resource) {
	r.collected = append(r.collected, res)
}

func (r *recorder) ResourceDelivered(_ *Drone, b *world.Base) { r.delivered = append(r.delivered, b) }

const dt = 0.1

func newTestDrone(t *testing.T, base *world.Base, pos orb.Point, rec *recorder) *Drone {
	t.Helper()
	p := Params{Speed: 1, Radius: 0.05, CollectDelay: 2, DeliveryDebounce: 0.5}
	var disp Dispatcher
	if rec != nil {
		disp = rec
	}
	return New(1, "red-1", base, pos, p, steering.New(steering.DefaultParams(), nil), disp)
}

// tickUntil runs Update plus contact checks until cond holds, returning elapsed time.
func tickUntil(t *testing.T, d *Drone, limit int, cond func() bool) float64 {
	t.Helper()
	for i := 1; i <= limit; i++ {
		d.Update(dt, nil)
		if r := d.Resource(); r != nil && d.InContact(r.Position, r.Radius) {
			d.TouchResource(r)
		}
		if b := d.Base(); b != nil && d.InContact(b.Position, b.Radius) {
			d.TouchBase(b)
		}
		if cond() {
			return float64(i) * dt
		}
	}
	t.Fatalf("condition not reached after %d ticks, drone %s", limit, d)
	return 0
}

func TestStartWithoutDispatcherDisables(t *testing.T) {
	d := newTestDrone(t, world.NewBase(world.TeamRed, orb.Point{}, 0.5), orb.Point{}, nil)

	err := d.Start()
	assert.ErrorIs(t, err, ErrNoDispatcher)
	assert.Equal(t, StateDisabled, d.State())
	assert.ErrorIs(t, d.Assign(resources.New(1, orb.Point{1, 0}, 0.05)), ErrNotAssignable)

	d.Update(dt, nil)
	assert.Equal(t, orb.Point{}, d.Position)
}

func TestStartReportsAvailable(t *testing.T) {
	rec := &recorder{}
	d := newTestDrone(t, world.NewBase(world.TeamRed, orb.Point{}, 0.5), orb.Point{}, rec)

	require.NoError(t, d.Start())
	assert.Equal(t, StateIdle, d.State())
	assert.Equal(t, []*Drone{d}, rec.available)
}

func TestAssignRejectsBusyDrone(t *testing.T) {
	rec := &recorder{}
	d := newTestDrone(t, world.NewBase(world.TeamRed, orb.Point{}, 0.5), orb.Point{}, rec)

	require.NoError(t, d.Assign(resources.New(1, orb.Point{1, 0}, 0.05)))
	assert.Equal(t, StateSeeking, d.State())
	assert.True(t, d.Busy())
	assert.ErrorIs(t, d.Assign(resources.New(2, orb.Point{2, 0}, 0.05)), ErrNotAssignable)
}

func TestAssignNilRequestsNewTask(t *testing.T) {
	rec := &recorder{}
	d := newTestDrone(t, world.NewBase(world.TeamRed, orb.Point{}, 0.5), orb.Point{}, rec)

	require.NoError(t, d.Assign(nil))
	assert.Equal(t, StateIdle, d.State())
	assert.Len(t, rec.available, 1)
}

func TestSeekCollectReturnDeliver(t *testing.T) {
	rec := &recorder{}
	base := world.NewBase(world.TeamRed, orb.Point{0, 0}, 0.05)
	d := newTestDrone(t, base, orb.Point{0, 0}, rec)
	res := resources.New(1, orb.Point{3, 0}, 0.05)
	require.NoError(t, res.Reserve())
	require.NoError(t, d.Assign(res))

	// Distance 3 at speed 1: contact after roughly 3 time units.
	reached := tickUntil(t, d, 100, func() bool { return d.State() == StateCollecting })
	assert.InDelta(t, 3.0, reached, 0.25)
	assert.False(t, res.Collected())
	assert.False(t, d.Carrying())

	// Fixed collection delay of 2 time units.
	collected := tickUntil(t, d, 100, func() bool { return d.State() == StateReturning })
	assert.InDelta(t, 2.0, collected, dt+1e-9)
	assert.True(t, res.Collected())
	assert.True(t, d.Carrying())
	assert.Nil(t, d.Resource())
	assert.Equal(t, []*resources.Resource{res}, rec.collected)
	target, ok := d.Target()
	require.True(t, ok)
	assert.Equal(t, base.Position, target)

	tickUntil(t, d, 100, func() bool { return d.State() == StateDelivering })
	assert.Equal(t, []*world.Base{base}, rec.delivered)
	assert.Equal(t, []*Drone{d}, rec.available, "requests a new task right after delivery")
	assert.False(t, d.Carrying())

	tickUntil(t, d, 10, func() bool { return d.State() == StateIdle })
}

func TestDeliveryDebounce(t *testing.T) {
	rec := &recorder{}
	base := world.NewBase(world.TeamRed, orb.Point{0, 0}, 0.5)
	d := newTestDrone(t, base, orb.Point{0, 0}, rec)
	d.state = StateReturning

	assert.True(t, d.TouchBase(base))
	assert.False(t, d.TouchBase(base), "overlapping contact inside debounce window")
	d.Update(0.2, nil)
	assert.False(t, d.TouchBase(base))

	assert.Len(t, rec.delivered, 1)
	assert.Equal(t, StateDelivering, d.State())
	d.Update(0.3, nil)
	assert.Equal(t, StateIdle, d.State())
}

func TestDeliversOnlyToOwnBase(t *testing.T) {
	rec := &recorder{}
	red := world.NewBase(world.TeamRed, orb.Point{0, 0}, 0.5)
	blue := world.NewBase(world.TeamBlue, orb.Point{0, 0}, 0.5)
	d := newTestDrone(t, red, orb.Point{0, 0}, rec)
	d.state = StateReturning

	assert.False(t, d.TouchBase(blue))
	assert.Equal(t, StateReturning, d.State())
	assert.Empty(t, rec.delivered)

	assert.True(t, d.TouchBase(red))
	assert.Equal(t, []*world.Base{red}, rec.delivered)
}

func TestTouchIgnoresForeignResource(t *testing.T) {
	rec := &recorder{}
	d := newTestDrone(t, world.NewBase(world.TeamRed, orb.Point{}, 0.5), orb.Point{}, rec)
	mine := resources.New(1, orb.Point{1, 0}, 0.05)
	other := resources.New(2, orb.Point{0, 0}, 0.05)
	require.NoError(t, d.Assign(mine))

	assert.False(t, d.TouchResource(other))
	assert.Equal(t, StateSeeking, d.State())
	assert.True(t, d.TouchResource(mine))
	assert.Equal(t, StateCollecting, d.State())
	assert.InDelta(t, 2.0, d.Timer(), 1e-12)
}

func TestSeekingSelfHealsOnVanishedTarget(t *testing.T) {
	rec := &recorder{}
	d := newTestDrone(t, world.NewBase(world.TeamRed, orb.Point{}, 0.5), orb.Point{}, rec)
	res := resources.New(1, orb.Point{2, 0}, 0.05)
	require.NoError(t, d.Assign(res))
	require.NoError(t, res.Collect())

	d.Update(dt, nil)
	assert.Equal(t, StateIdle, d.State())
	assert.Nil(t, d.Resource())
	assert.Len(t, rec.available, 1)
	assert.Equal(t, orb.Point{}, d.Position, "no movement toward a stale target")
}

func TestCollectingAbortsOnStaleResource(t *testing.T) {
	rec := &recorder{}
	d := newTestDrone(t, world.NewBase(world.TeamRed, orb.Point{}, 0.5), orb.Point{1, 0}, rec)
	res := resources.New(1, orb.Point{1, 0}, 0.05)
	require.NoError(t, d.Assign(res))
	require.True(t, d.TouchResource(res))

	d.Update(dt, nil)
	require.Equal(t, StateCollecting, d.State())
	require.NoError(t, res.Collect())

	d.Update(dt, nil)
	assert.Equal(t, StateIdle, d.State())
	assert.Empty(t, rec.collected, "never reports a collection it did not make")
	assert.Len(t, rec.available, 1)
}

func TestTouchCollectedTargetAborts(t *testing.T) {
	rec := &recorder{}
	d := newTestDrone(t, world.NewBase(world.TeamRed, orb.Point{}, 0.5), orb.Point{}, rec)
	res := resources.New(1, orb.Point{0, 0}, 0.05)
	require.NoError(t, d.Assign(res))
	require.NoError(t, res.Collect())

	assert.False(t, d.TouchResource(res))
	assert.Equal(t, StateIdle, d.State())
	assert.Len(t, rec.available, 1)
}

func TestAssignDuringDebounce(t *testing.T) {
	rec := &recorder{}
	base := world.NewBase(world.TeamRed, orb.Point{}, 0.5)
	d := newTestDrone(t, base, orb.Point{}, rec)
	d.state = StateReturning
	require.True(t, d.TouchBase(base))

	res := resources.New(1, orb.Point{4, 0}, 0.05)
	require.NoError(t, d.Assign(res))
	assert.Equal(t, StateSeeking, d.State())
	assert.InDelta(t, 0.0, d.Timer(), 1e-12)
}

func TestPathOnlyWhenEnabled(t *testing.T) {
	d := newTestDrone(t, world.NewBase(world.TeamRed, orb.Point{}, 0.5), orb.Point{1, 1}, &recorder{})
	require.NoError(t, d.Assign(resources.New(1, orb.Point{3, 1}, 0.05)))

	_, _, ok := d.Path()
	assert.False(t, ok)

	d.SetDrawPath(true)
	from, to, ok := d.Path()
	require.True(t, ok)
	assert.Equal(t, orb.Point{1, 1}, from)
	assert.Equal(t, orb.Point{3, 1}, to)
}
