package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/thesavant42/nbmfetch/internal/api"
	"github.com/thesavant42/nbmfetch/internal/config"
	"github.com/thesavant42/nbmfetch/internal/db"
	"github.com/thesavant42/nbmfetch/internal/ui"
)

func main() {
	stationFlag := flag.String("station", "", "Station to search (e.g. KXMR)")
	headless := flag.Bool("headless", false, "Search, print a preview and save the CSV without the TUI")
	outDir := flag.String("out", "", "Directory to save CSVs into (overrides output.dir)")
	configFile := flag.String("config", "", "Path to config file (default: ./nbmfetch.yaml)")
	debug := flag.Bool("debug", false, "Log every probe")
	flag.Parse()

	// Also accept station as positional argument
	if *stationFlag == "" && flag.NArg() > 0 {
		*stationFlag = flag.Arg(0)
	}
	station := strings.ToUpper(strings.TrimSpace(*stationFlag))

	cfg, err := config.Load(*configFile)
	if err != nil {
		ui.PrintError(os.Stderr, err.Error())
		os.Exit(1)
	}
	if *outDir != "" {
		cfg.Output.Dir = *outDir
	}
	if *debug {
		cfg.Log.Level = "debug"
	}

	if station != "" && !cfg.HasStation(station) {
		ui.PrintError(os.Stderr, fmt.Sprintf("unknown station %q (known: %s)", station, strings.Join(cfg.Archive.Stations, ", ")))
		os.Exit(1)
	}

	logger, closeLog, err := newLogger(cfg.Log, *headless)
	if err != nil {
		ui.PrintError(os.Stderr, err.Error())
		os.Exit(1)
	}
	defer closeLog()

	// Cache lives for this process only
	cache, err := db.New(db.MemoryPath)
	if err != nil {
		ui.PrintError(os.Stderr, fmt.Sprintf("Failed to initialize cache: %v", err))
		os.Exit(1)
	}
	defer cache.Close()

	locator := newLocator(cfg, cache, logger)

	if !*headless {
		ctx, stop := context.WithCancel(context.Background())
		go sweepCache(ctx, cache, cfg.Cache.TTL, logger)

		err := ui.RunLocatorTUI(ui.LocatorDeps{
			Locator:   locator,
			Stations:  cfg.Archive.Stations,
			OutputDir: cfg.Output.Dir,
			Station:   station,
			Logger:    logger,
		})
		stop()
		if err != nil {
			ui.PrintError(os.Stderr, fmt.Sprintf("TUI error: %v", err))
			os.Exit(1)
		}
		return
	}

	if station == "" {
		station, err = ui.PromptForStation(cfg.Archive.Stations)
		if err != nil {
			ui.PrintError(os.Stderr, err.Error())
			os.Exit(1)
		}
	}

	var result *headlessResult
	var runErr error
	err = ui.RunWithSpinner(fmt.Sprintf("Searching for the latest %s run...", station), func(ctx context.Context) {
		result, runErr = locateAndSave(ctx, locator, station, cfg.Output.Dir)
	})
	if err == nil {
		err = runErr
	}
	if err != nil {
		if !errors.Is(err, ui.ErrInterrupted) {
			ui.PrintError(os.Stderr, describe(err, station, cfg.Archive.DaysBack))
		}
		os.Exit(1)
	}

	// Print after the spinner has cleared its line
	printReport(os.Stdout, result)
}

// newLogger builds the process logger. The TUI owns the terminal, so it only
// logs when a log file is configured.
func newLogger(cfg config.LogConfig, headless bool) (*log.Logger, func(), error) {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log.level %q: %w", cfg.Level, err)
	}

	var w io.Writer = os.Stderr
	closeFn := func() {}

	switch {
	case cfg.File != "":
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		w = f
		closeFn = func() { _ = f.Close() }
	case !headless:
		// Silence logger during TUI
		return nil, closeFn, nil
	}

	logger := log.NewWithOptions(w, log.Options{
		Level:           level,
		ReportTimestamp: true,
		Prefix:          "nbmfetch",
	})
	return logger, closeFn, nil
}

func newLocator(cfg *config.Config, cache *db.DB, logger *log.Logger) *api.Locator {
	client := api.NewArchiveClient(api.ClientOptions{
		BaseURL:           cfg.Archive.BaseURL,
		Timeout:           cfg.Archive.Timeout,
		RequestsPerSecond: cfg.Archive.RequestsPerSecond,
		Logger:            logger,
	})

	return api.NewLocator(client, cache, api.LocatorOptions{
		Stations: cfg.Archive.Stations,
		Window: api.SearchWindow{
			DaysBack: cfg.Archive.DaysBack,
			Versions: cfg.Archive.Versions,
		},
		TTL:    cfg.Cache.TTL,
		Logger: logger,
	})
}

// sweepCache drops expired cache entries every interval until ctx ends
func sweepCache(ctx context.Context, cache *db.DB, interval time.Duration, logger *log.Logger) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			removed, err := cache.PurgeExpired(now)
			if logger == nil {
				continue
			}
			if err != nil {
				logger.Warn("Cache sweep failed", "err", err)
				continue
			}
			counts, _ := cache.Counts(now)
			logger.Debug("Cache swept", "removed", removed, "probes", counts.Probes, "payloads", counts.Payloads, "runs", counts.Runs)
		}
	}
}

// describe turns pipeline errors into the message shown to the user
func describe(err error, station string, daysBack int) string {
	var statusErr *api.HTTPStatusError
	var transportErr *api.TransportError
	switch {
	case errors.Is(err, api.ErrNotFound):
		return fmt.Sprintf("No CSV found for %s in the last %d day(s).", station, daysBack)
	case errors.As(err, &statusErr):
		return fmt.Sprintf("Download failed: %v", statusErr)
	case errors.As(err, &transportErr):
		return fmt.Sprintf("Download failed: %v", transportErr)
	default:
		return err.Error()
	}
}
