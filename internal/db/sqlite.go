package db

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// MemoryPath opens a database that lives only as long as the process
const MemoryPath = ":memory:"

// DB wraps the SQLite connection backing the TTL caches
type DB struct {
	conn *sql.DB
}

// New opens the cache database and initializes the schema.
// Use MemoryPath unless a test needs something else.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Every new connection to :memory: gets its own empty database
	conn.SetMaxOpenConns(1)

	for name, stmt := range map[string]string{
		"probe cache":   createProbeCacheTable,
		"payload cache": createPayloadCacheTable,
		"run cache":     createRunCacheTable,
	} {
		if _, err := conn.Exec(stmt); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to create %s schema: %w", name, err)
		}
	}

	return &DB{conn: conn}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// CacheCounts reports how many live entries each cache holds
type CacheCounts struct {
	Probes   int
	Payloads int
	Runs     int
}

// Counts returns the number of unexpired entries at now
func (db *DB) Counts(now time.Time) (CacheCounts, error) {
	var c CacheCounts
	n := now.UnixNano()
	if err := db.conn.QueryRow(selectCacheCounts, n, n, n).Scan(&c.Probes, &c.Payloads, &c.Runs); err != nil {
		return CacheCounts{}, fmt.Errorf("failed to count cache entries: %w", err)
	}
	return c, nil
}

// PurgeExpired deletes every entry whose expiry is at or before now
func (db *DB) PurgeExpired(now time.Time) (int64, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var total int64
	for _, stmt := range []string{deleteExpiredProbes, deleteExpiredPayloads, deleteExpiredRuns} {
		result, err := tx.Exec(stmt, now.UnixNano())
		if err != nil {
			return 0, fmt.Errorf("failed to purge expired entries: %w", err)
		}
		n, _ := result.RowsAffected()
		total += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return total, nil
}
