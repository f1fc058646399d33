package db

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thesavant42/nbmfetch/internal/models"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	database, err := New(MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

func TestProbeCacheExpiry(t *testing.T) {
	database := newTestDB(t)
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	url := "https://example.test/2026/10/19/NBM4.2/12/KXMR.csv"

	_, ok, err := database.GetProbe(url, now)
	require.NoError(t, err)
	assert.False(t, ok, "empty cache should miss")

	require.NoError(t, database.PutProbe(url, models.ProbeExists, now.Add(5*time.Minute)))

	outcome, ok, err := database.GetProbe(url, now.Add(4*time.Minute))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, models.ProbeExists, outcome)

	_, ok, err = database.GetProbe(url, now.Add(5*time.Minute))
	require.NoError(t, err)
	assert.False(t, ok, "entry must not be served at its expiry instant")
}

func TestProbeCacheKeepsFailedOutcome(t *testing.T) {
	database := newTestDB(t)
	now := time.Now()

	require.NoError(t, database.PutProbe("u", models.ProbeFailed, now.Add(time.Minute)))
	outcome, ok, err := database.GetProbe("u", now)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, models.ProbeFailed, outcome)
}

func TestPayloadCacheRoundTrip(t *testing.T) {
	database := newTestDB(t)
	now := time.Now()
	body := []byte("a,b\n1,2\n")

	require.NoError(t, database.PutPayload("u", body, now.Add(time.Minute)))
	got, ok, err := database.GetPayload("u", now)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, body, got)

	_, ok, err = database.GetPayload("u", now.Add(2*time.Minute))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRunCache(t *testing.T) {
	database := newTestDB(t)
	now := time.Date(2026, 10, 19, 3, 0, 0, 0, time.UTC)
	run := models.RunResult{
		URL:     "https://example.test/2026/10/18/NBM4.1/12/KXMR.csv",
		Station: "KXMR",
		Date:    time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC),
		Hour:    12,
		Version: "NBM4.1",
	}

	got, err := database.GetRun("KXMR", now)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, database.PutRun(run, now.Add(5*time.Minute)))

	got, err = database.GetRun("KXMR", now)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, run, *got)

	got, err = database.GetRun("KTTS", now)
	require.NoError(t, err)
	assert.Nil(t, got, "runs are keyed per station")
}

func TestPurgeExpired(t *testing.T) {
	database := newTestDB(t)
	now := time.Now()

	require.NoError(t, database.PutProbe("old", models.ProbeAbsent, now.Add(-time.Second)))
	require.NoError(t, database.PutProbe("new", models.ProbeAbsent, now.Add(time.Minute)))
	require.NoError(t, database.PutPayload("old", []byte("x"), now.Add(-time.Second)))

	removed, err := database.PurgeExpired(now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	counts, err := database.Counts(now)
	require.NoError(t, err)
	assert.Equal(t, CacheCounts{Probes: 1}, counts)
}
