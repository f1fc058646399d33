package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thesavant42/nbmfetch/internal/api"
	"github.com/thesavant42/nbmfetch/internal/config"
	"github.com/thesavant42/nbmfetch/internal/db"
	"github.com/thesavant42/nbmfetch/internal/models"
)

const publishedPath = "/2026/10/19/NBM4.2/05/KXMR.csv"

func newArchiveServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != publishedPath {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestLocator(t *testing.T, baseURL string) *api.Locator {
	t.Helper()
	cache, err := db.New(db.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })

	client := api.NewArchiveClient(api.ClientOptions{BaseURL: baseURL, Timeout: 2 * time.Second})
	return api.NewLocator(client, cache, api.LocatorOptions{
		Stations: models.Stations,
		Window:   api.SearchWindow{DaysBack: 3, Versions: models.Versions},
		TTL:      time.Minute,
		Now: func() time.Time {
			return time.Date(2026, 10, 19, 5, 30, 0, 0, time.UTC)
		},
	})
}

func TestLocateAndSave(t *testing.T) {
	srv := newArchiveServer(t, "validTime,TMP\n2026-10-19T06,51\n2026-10-19T07,53\n")
	dir := t.TempDir()

	result, err := locateAndSave(context.Background(), newTestLocator(t, srv.URL), "KXMR", dir)
	require.NoError(t, err)

	assert.Equal(t, srv.URL+publishedPath, result.Run.URL)
	assert.Equal(t, filepath.Join(dir, "KXMR_2026101905_NBM4.2.csv"), result.Path)
	assert.Equal(t, 2, result.Preview.RowCount)

	saved, err := os.ReadFile(result.Path)
	require.NoError(t, err)
	assert.Contains(t, string(saved), "2026-10-19T07,53")

	var out bytes.Buffer
	printReport(&out, result)
	assert.Contains(t, out.String(), "Found latest: 2026-10-19 05Z (NBM4.2)")
	assert.Contains(t, out.String(), "Rows: 2  Columns: 2")
	assert.Contains(t, out.String(), "Saved "+result.Path)
}

func TestLocateAndSaveNotFound(t *testing.T) {
	srv := newArchiveServer(t, "")

	_, err := locateAndSave(context.Background(), newTestLocator(t, srv.URL), "KTTS", t.TempDir())
	require.ErrorIs(t, err, api.ErrNotFound)
	assert.Equal(t, "No CSV found for KTTS in the last 3 day(s).", describe(err, "KTTS", 3))
}

func TestDescribe(t *testing.T) {
	statusErr := &api.HTTPStatusError{URL: "http://x/f.csv", StatusCode: 503}
	assert.Equal(t, "Download failed: archive returned status 503 for http://x/f.csv", describe(statusErr, "KXMR", 3))

	wrapped := fmt.Errorf("fetch: %w", &api.TransportError{URL: "http://x/f.csv", Err: context.DeadlineExceeded})
	assert.Contains(t, describe(wrapped, "KXMR", 3), "Download failed: request to http://x/f.csv failed")
}

func TestNewLogger(t *testing.T) {
	logger, closeFn, err := newLogger(config.LogConfig{Level: "info"}, false)
	require.NoError(t, err)
	assert.Nil(t, logger, "TUI without a log file must not write to the terminal")
	closeFn()

	path := filepath.Join(t.TempDir(), "nbmfetch.log")
	logger, closeFn, err = newLogger(config.LogConfig{Level: "debug", File: path}, false)
	require.NoError(t, err)
	logger.Debug("probe", "url", "http://x/f.csv")
	closeFn()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "http://x/f.csv")

	_, _, err = newLogger(config.LogConfig{Level: "loud"}, true)
	assert.Error(t, err)
}

func TestSweepCache(t *testing.T) {
	cache, err := db.New(db.MemoryPath)
	require.NoError(t, err)
	defer cache.Close()

	require.NoError(t, cache.PutProbe("http://x/old.csv", models.ProbeAbsent, time.Now().Add(-time.Second)))
	require.NoError(t, cache.PutProbe("http://x/new.csv", models.ProbeExists, time.Now().Add(time.Hour)))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweepCache(ctx, cache, 10*time.Millisecond, nil)
		close(done)
	}()

	// Counts ignores expired rows, so count from the epoch to see what is stored
	require.Eventually(t, func() bool {
		counts, err := cache.Counts(time.Unix(0, 0))
		return err == nil && counts.Probes == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	<-done
}
