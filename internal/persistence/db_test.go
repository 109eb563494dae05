package persistence

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/drone-harvest/internal/config"
	"github.com/talgya/drone-harvest/internal/engine"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestWritesNeedARun(t *testing.T) {
	db := openTestDB(t)

	assert.ErrorIs(t, db.SaveEvents([]engine.Event{{Tick: 1}}), ErrNoRun)
	assert.ErrorIs(t, db.SaveTally(Tally{}), ErrNoRun)
	assert.ErrorIs(t, db.FinishRun(Tally{}), ErrNoRun)
	assert.NoError(t, db.SaveEvents(nil), "nothing to write")
}

func TestRunLedgerRoundTrip(t *testing.T) {
	db := openTestDB(t)
	cfg := config.Default()
	cfg.Seed = 42

	id, err := db.StartRun(cfg)
	require.NoError(t, err)
	assert.Equal(t, id, db.RunID())

	require.NoError(t, db.SaveEvents([]engine.Event{
		{Tick: 3, Description: "resource 1 spawned", Category: engine.CategorySpawn},
		{Tick: 9, Description: "red-1 assigned resource 1", Category: engine.CategoryAssign},
	}))
	require.NoError(t, db.SaveTally(Tally{Tick: 10, Collected: 0}))
	require.NoError(t, db.FinishRun(Tally{Tick: 400, Red: 2, Blue: 1, Collected: 4}))

	events, err := db.RecentEvents(1)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, engine.CategoryAssign, events[0].Category)
	assert.Equal(t, uint64(9), events[0].Tick)

	tallies, err := db.Tallies()
	require.NoError(t, err)
	require.Len(t, tallies, 2)
	assert.Equal(t, Tally{Tick: 400, Red: 2, Blue: 1, Collected: 4}, tallies[1])

	run, err := db.GetRun(id)
	require.NoError(t, err)
	assert.Equal(t, int64(42), run.Seed)
	assert.Equal(t, db.RunLabel(), run.Label)
	assert.Contains(t, run.Label, "-")
	assert.True(t, run.FinishedAt.Valid)
	assert.Equal(t, uint64(400), run.Ticks)
	assert.Equal(t, 2, run.Red)
	assert.Contains(t, run.ConfigYAML, "seed: 42")
}

func TestRunsAreIsolated(t *testing.T) {
	db := openTestDB(t)

	_, err := db.StartRun(config.Default())
	require.NoError(t, err)
	require.NoError(t, db.SaveEvents([]engine.Event{{Tick: 1, Description: "first", Category: engine.CategorySpawn}}))

	second, err := db.StartRun(config.Default())
	require.NoError(t, err)
	assert.Equal(t, second, db.RunID())

	events, err := db.RecentEvents(10)
	require.NoError(t, err)
	assert.Empty(t, events)
}
