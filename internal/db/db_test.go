package db

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GrupoUS/steadyinput/internal/activation"
	"github.com/GrupoUS/steadyinput/internal/input"
	"github.com/GrupoUS/steadyinput/internal/targets"
	"github.com/GrupoUS/steadyinput/internal/tremor"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenAppliesMigrations(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	version, dirty, err := db.MigrateVersion()
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.GreaterOrEqual(t, version, uint(1))
}

func TestOpenIsIdempotentOnExistingDatabase(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "sessions.db")
	db, err := Open(path)
	require.NoError(t, err)
	_, err = db.CreateSession(time.Now(), "first run")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	// Reopening an already-migrated database must not fail.
	db2, err := Open(path)
	require.NoError(t, err)
	defer db2.Close()
	var sessions int
	require.NoError(t, db2.QueryRow(`SELECT COUNT(*) FROM sessions`).Scan(&sessions))
	assert.Equal(t, 1, sessions)
}

func TestSessionRecordingAndSummary(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	sessionID, err := db.CreateSession(time.Now(), "replay of clinic trace")
	require.NoError(t, err)
	require.NotEmpty(t, sessionID)

	// One insufficient tick, one positive detection.
	require.NoError(t, db.RecordPattern(sessionID, 10_000, nil))
	p := &tremor.Pattern{
		FrequencyHz:    5.1,
		AmplitudePx:    22,
		Consistency:    0.9,
		DominantAxis:   tremor.AxisX,
		Classification: tremor.ClassParkinsonian,
		HasTremor:      true,
		Confidence:     0.8,
		SampleCount:    120,
		PathLengthPx:   640,
		Recommended:    tremor.RecommendationFor(tremor.ClassParkinsonian),
	}
	require.NoError(t, db.RecordPattern(sessionID, 20_000, p))

	require.NoError(t, db.RecordActivation(sessionID, activation.Event{
		TargetID: "confirm",
		Method:   targets.MethodDwell,
		AtMs:     21_000,
		Pos:      input.Point{X: 150, Y: 150},
	}))
	require.NoError(t, db.RecordAutoApply(sessionID, 20_000, p.Classification, p.Recommended))

	sum, err := db.Summarize(sessionID)
	require.NoError(t, err)
	assert.Equal(t, sessionID, sum.SessionID)
	assert.Equal(t, 2, sum.AnalysisTicks)
	assert.Equal(t, 1, sum.SufficientTicks)
	assert.Equal(t, 1, sum.TremorTicks)
	assert.Equal(t, 1, sum.Activations)
	assert.Equal(t, 1, sum.AutoApplies)
}

func TestSummarizeEmptySession(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	sessionID, err := db.CreateSession(time.Now(), "")
	require.NoError(t, err)

	sum, err := db.Summarize(sessionID)
	require.NoError(t, err)
	assert.Zero(t, sum.AnalysisTicks)
	assert.Zero(t, sum.Activations)
	assert.Zero(t, sum.AutoApplies)
}
