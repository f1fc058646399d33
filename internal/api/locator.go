package api

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/thesavant42/nbmfetch/internal/models"
)

// Archive is the remote side the locator searches
type Archive interface {
	RunURL(key models.SearchKey) string
	Probe(ctx context.Context, url string) models.ProbeOutcome
	Download(ctx context.Context, url string) ([]byte, error)
}

// Cache is a TTL store for probe outcomes, payloads and located runs.
// Lookups must ignore entries whose expiry is not after now.
type Cache interface {
	GetProbe(url string, now time.Time) (models.ProbeOutcome, bool, error)
	PutProbe(url string, outcome models.ProbeOutcome, expiresAt time.Time) error
	GetPayload(url string, now time.Time) ([]byte, bool, error)
	PutPayload(url string, body []byte, expiresAt time.Time) error
	GetRun(station string, now time.Time) (*models.RunResult, error)
	PutRun(run models.RunResult, expiresAt time.Time) error
}

// SearchWindow bounds the locator's search space
type SearchWindow struct {
	DaysBack int      // today (UTC) plus DaysBack-1 earlier days
	Hours    []int    // cycle hours in probe order
	Versions []string // version tags in probe order
}

// HoursDescending returns 23, 22, ..., 0
func HoursDescending() []int {
	hours := make([]int, 24)
	for i := range hours {
		hours[i] = 23 - i
	}
	return hours
}

// Size is the number of keys in the window for one station
func (w SearchWindow) Size() int {
	return w.DaysBack * len(w.Hours) * len(w.Versions)
}

// ProbeEvent reports one existence check during a search
type ProbeEvent struct {
	Key     models.SearchKey
	URL     string
	Outcome models.ProbeOutcome
	Cached  bool // answered from cache, no request sent
	Index   int  // 1-based position in the search order
	Total   int
}

// ProbeObserver is called after every existence check
type ProbeObserver func(ProbeEvent)

// LocatorOptions configures a Locator
type LocatorOptions struct {
	Stations []string
	Window   SearchWindow
	TTL      time.Duration    // 0 disables caching
	Now      func() time.Time // nil means time.Now
	Logger   *log.Logger
}

// Locator finds the newest published run for a station
type Locator struct {
	archive  Archive
	cache    Cache
	stations map[string]bool
	window   SearchWindow
	ttl      time.Duration
	now      func() time.Time
	logger   *log.Logger
}

// NewLocator creates a locator. cache may be nil.
func NewLocator(archive Archive, cache Cache, opts LocatorOptions) *Locator {
	stations := make(map[string]bool, len(opts.Stations))
	for _, s := range opts.Stations {
		stations[s] = true
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	if len(opts.Window.Hours) == 0 {
		opts.Window.Hours = HoursDescending()
	}

	return &Locator{
		archive:  archive,
		cache:    cache,
		stations: stations,
		window:   opts.Window,
		ttl:      opts.TTL,
		now:      now,
		logger:   opts.Logger,
	}
}

// Window returns the search window in use
func (l *Locator) Window() SearchWindow {
	return l.window
}

// Keys lists the search space for station in probe order: newest date
// first, then hour order, then version order. today is taken in UTC.
func (l *Locator) Keys(station string, today time.Time) []models.SearchKey {
	y, m, d := today.UTC().Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	keys := make([]models.SearchKey, 0, l.window.Size())
	for offset := 0; offset < l.window.DaysBack; offset++ {
		day := start.AddDate(0, 0, -offset)
		for _, hour := range l.window.Hours {
			for _, version := range l.window.Versions {
				keys = append(keys, models.SearchKey{
					Station: station,
					Date:    day,
					Hour:    hour,
					Version: version,
				})
			}
		}
	}
	return keys
}

// FindLatest walks the search window and returns the first run whose CSV
// exists. Every negative probe, including failed ones, moves on to the next
// key. Returns ErrNotFound when the window is exhausted.
func (l *Locator) FindLatest(ctx context.Context, station string, observe ProbeObserver) (*models.RunResult, error) {
	if !l.stations[station] {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStation, station)
	}

	if l.cache != nil && l.ttl > 0 {
		run, err := l.cache.GetRun(station, l.now())
		if err != nil {
			l.warn("Run cache read failed", "station", station, "err", err)
		} else if run != nil {
			l.info("Using cached run", "station", station, "run", run.Label())
			return run, nil
		}
	}

	keys := l.Keys(station, l.now())
	for i, key := range keys {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		url := l.archive.RunURL(key)
		outcome, cached := l.exists(ctx, url)

		if l.logger != nil {
			l.logger.Debug("Probed", "key", key.String(), "outcome", outcome, "cached", cached)
		}
		if observe != nil {
			observe(ProbeEvent{
				Key:     key,
				URL:     url,
				Outcome: outcome,
				Cached:  cached,
				Index:   i + 1,
				Total:   len(keys),
			})
		}

		if !outcome.Found() {
			continue
		}

		run := &models.RunResult{
			URL:     url,
			Station: station,
			Date:    key.Date,
			Hour:    key.Hour,
			Version: key.Version,
		}
		if l.cache != nil && l.ttl > 0 {
			if err := l.cache.PutRun(*run, l.now().Add(l.ttl)); err != nil {
				l.warn("Run cache write failed", "station", station, "err", err)
			}
		}
		l.info("Found latest run", "station", station, "run", run.Label(), "probes", i+1)
		return run, nil
	}

	return nil, fmt.Errorf("%w: %s in the last %d day(s)", ErrNotFound, station, l.window.DaysBack)
}

// Fetch returns the bytes at a confirmed run URL, from cache when fresh.
// Download errors are returned as-is (*TransportError, *HTTPStatusError).
func (l *Locator) Fetch(ctx context.Context, url string) ([]byte, error) {
	if l.cache != nil && l.ttl > 0 {
		body, ok, err := l.cache.GetPayload(url, l.now())
		if err != nil {
			l.warn("Payload cache read failed", "url", url, "err", err)
		} else if ok {
			return body, nil
		}
	}

	body, err := l.archive.Download(ctx, url)
	if err != nil {
		return nil, err
	}

	if l.cache != nil && l.ttl > 0 {
		if err := l.cache.PutPayload(url, body, l.now().Add(l.ttl)); err != nil {
			l.warn("Payload cache write failed", "url", url, "err", err)
		}
	}
	return body, nil
}

// exists answers a probe from cache or the network. All outcomes are
// cached, failed ones included.
func (l *Locator) exists(ctx context.Context, url string) (models.ProbeOutcome, bool) {
	if l.cache != nil && l.ttl > 0 {
		outcome, ok, err := l.cache.GetProbe(url, l.now())
		if err != nil {
			l.warn("Probe cache read failed", "url", url, "err", err)
		} else if ok {
			return outcome, true
		}
	}

	outcome := l.archive.Probe(ctx, url)

	// A cancelled search must not poison the cache with failures
	if outcome == models.ProbeFailed && ctx.Err() != nil {
		return outcome, false
	}

	if l.cache != nil && l.ttl > 0 {
		if err := l.cache.PutProbe(url, outcome, l.now().Add(l.ttl)); err != nil {
			l.warn("Probe cache write failed", "url", url, "err", err)
		}
	}
	return outcome, false
}

func (l *Locator) info(msg string, keyvals ...interface{}) {
	if l.logger != nil {
		l.logger.Info(msg, keyvals...)
	}
}

func (l *Locator) warn(msg string, keyvals ...interface{}) {
	if l.logger != nil {
		l.logger.Warn(msg, keyvals...)
	}
}
