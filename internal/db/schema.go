package db

// Expiry columns hold unix nanoseconds so comparisons stay in SQL

const createProbeCacheTable = `
CREATE TABLE IF NOT EXISTS probe_cache (
    url TEXT PRIMARY KEY,
    outcome INTEGER NOT NULL,
    expires_at INTEGER NOT NULL
);
`

const upsertProbe = `
INSERT OR REPLACE INTO probe_cache (url, outcome, expires_at)
VALUES (?, ?, ?)
`

const selectProbe = `
SELECT outcome FROM probe_cache
WHERE url = ? AND expires_at > ?
`

const createPayloadCacheTable = `
CREATE TABLE IF NOT EXISTS payload_cache (
    url TEXT PRIMARY KEY,
    body BLOB NOT NULL,
    expires_at INTEGER NOT NULL
);
`

const upsertPayload = `
INSERT OR REPLACE INTO payload_cache (url, body, expires_at)
VALUES (?, ?, ?)
`

const selectPayload = `
SELECT body FROM payload_cache
WHERE url = ? AND expires_at > ?
`

// Schema for located runs (one row per station)
const createRunCacheTable = `
CREATE TABLE IF NOT EXISTS run_cache (
    station TEXT PRIMARY KEY,
    url TEXT NOT NULL,
    run_date TEXT NOT NULL,
    cycle_hour INTEGER NOT NULL,
    version TEXT NOT NULL,
    expires_at INTEGER NOT NULL
);
`

const upsertRun = `
INSERT OR REPLACE INTO run_cache (station, url, run_date, cycle_hour, version, expires_at)
VALUES (?, ?, ?, ?, ?, ?)
`

const selectRun = `
SELECT url, run_date, cycle_hour, version FROM run_cache
WHERE station = ? AND expires_at > ?
`

const deleteExpiredProbes = `DELETE FROM probe_cache WHERE expires_at <= ?`

const deleteExpiredPayloads = `DELETE FROM payload_cache WHERE expires_at <= ?`

const deleteExpiredRuns = `DELETE FROM run_cache WHERE expires_at <= ?`

const selectCacheCounts = `
SELECT
    (SELECT COUNT(*) FROM probe_cache WHERE expires_at > ?),
    (SELECT COUNT(*) FROM payload_cache WHERE expires_at > ?),
    (SELECT COUNT(*) FROM run_cache WHERE expires_at > ?)
`
