package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/thesavant42/nbmfetch/internal/models"
)

const runDateLayout = "2006-01-02"

// GetProbe returns the cached probe outcome for a URL.
// ok is false when there is no live entry.
func (db *DB) GetProbe(url string, now time.Time) (outcome models.ProbeOutcome, ok bool, err error) {
	var raw int
	err = db.conn.QueryRow(selectProbe, url, now.UnixNano()).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ProbeAbsent, false, nil
	}
	if err != nil {
		return models.ProbeAbsent, false, fmt.Errorf("failed to read probe cache: %w", err)
	}
	return models.ProbeOutcome(raw), true, nil
}

// PutProbe stores a probe outcome until expiresAt
func (db *DB) PutProbe(url string, outcome models.ProbeOutcome, expiresAt time.Time) error {
	if _, err := db.conn.Exec(upsertProbe, url, int(outcome), expiresAt.UnixNano()); err != nil {
		return fmt.Errorf("failed to write probe cache: %w", err)
	}
	return nil
}

// GetPayload returns cached resource bytes for a URL
func (db *DB) GetPayload(url string, now time.Time) ([]byte, bool, error) {
	var body []byte
	err := db.conn.QueryRow(selectPayload, url, now.UnixNano()).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read payload cache: %w", err)
	}
	return body, true, nil
}

// PutPayload stores resource bytes until expiresAt
func (db *DB) PutPayload(url string, body []byte, expiresAt time.Time) error {
	if _, err := db.conn.Exec(upsertPayload, url, body, expiresAt.UnixNano()); err != nil {
		return fmt.Errorf("failed to write payload cache: %w", err)
	}
	return nil
}

// GetRun returns the cached located run for a station, or nil
func (db *DB) GetRun(station string, now time.Time) (*models.RunResult, error) {
	var r models.RunResult
	var runDate string
	err := db.conn.QueryRow(selectRun, station, now.UnixNano()).Scan(&r.URL, &runDate, &r.Hour, &r.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read run cache: %w", err)
	}

	r.Date, err = time.ParseInLocation(runDateLayout, runDate, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("corrupt run date %q: %w", runDate, err)
	}
	r.Station = station
	return &r, nil
}

// PutRun stores a located run for its station until expiresAt
func (db *DB) PutRun(run models.RunResult, expiresAt time.Time) error {
	_, err := db.conn.Exec(upsertRun,
		run.Station,
		run.URL,
		run.Date.Format(runDateLayout),
		run.Hour,
		run.Version,
		expiresAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to write run cache: %w", err)
	}
	return nil
}
