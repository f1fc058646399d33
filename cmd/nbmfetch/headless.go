package main

import (
	"context"
	"fmt"
	"io"

	"github.com/thesavant42/nbmfetch/internal/api"
	"github.com/thesavant42/nbmfetch/internal/models"
	"github.com/thesavant42/nbmfetch/internal/ui"
)

// headlessResult is everything the non-interactive run prints
type headlessResult struct {
	Run     *models.RunResult
	Preview *models.Preview
	Path    string
}

// locateAndSave finds the newest run for station, downloads it, parses the
// preview and writes the CSV into dir
func locateAndSave(ctx context.Context, locator ui.RunLocator, station, dir string) (*headlessResult, error) {
	run, err := locator.FindLatest(ctx, station, nil)
	if err != nil {
		return nil, err
	}

	data, err := locator.Fetch(ctx, run.URL)
	if err != nil {
		return nil, err
	}

	preview, err := api.ParsePreview(data, api.PreviewRows)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", run.Filename(), err)
	}

	path, err := ui.SaveCSV(dir, run, data)
	if err != nil {
		return nil, err
	}

	return &headlessResult{Run: run, Preview: preview, Path: path}, nil
}

func printReport(w io.Writer, r *headlessResult) {
	ui.PrintRunSummary(w, r.Run)
	fmt.Fprintln(w)
	ui.PrintPreview(w, r.Preview, ui.MaxViewportWidth)
	fmt.Fprintln(w)
	ui.PrintSuccess(w, "Saved "+r.Path)
}
