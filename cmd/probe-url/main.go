// Debug tool to check archive probing directly
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/thesavant42/nbmfetch/internal/api"
	"github.com/thesavant42/nbmfetch/internal/config"
	"github.com/thesavant42/nbmfetch/internal/models"
)

// Usage:
//
//	probe-url <url>
//	probe-url <station> <yyyy-mm-dd> <hour> <version>
func main() {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		Level:           log.DebugLevel,
		ReportTimestamp: true,
	})

	cfg, err := config.Load("")
	if err != nil {
		fmt.Printf("ERROR: %v\n", err)
		os.Exit(1)
	}

	client := api.NewArchiveClient(api.ClientOptions{
		BaseURL: cfg.Archive.BaseURL,
		Timeout: cfg.Archive.Timeout,
		Logger:  logger,
	})

	url, err := targetURL(client, os.Args[1:])
	if err != nil {
		fmt.Printf("ERROR: %v\n", err)
		fmt.Println("usage: probe-url <url> | probe-url <station> <yyyy-mm-dd> <hour> <version>")
		os.Exit(2)
	}

	fmt.Printf("Probing: %s\n", url)

	ctx := context.Background()
	outcome := client.Probe(ctx, url)
	fmt.Printf("Outcome: %s\n", outcome)
	if !outcome.Found() {
		os.Exit(1)
	}

	fmt.Println("\n--- Downloading ---")
	data, err := client.Download(ctx, url)
	if err != nil {
		fmt.Printf("ERROR: %v\n", err)
		os.Exit(1)
	}

	preview, err := api.ParsePreview(data, 3)
	if err != nil {
		fmt.Printf("ERROR: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Bytes: %d\n", len(data))
	fmt.Printf("Rows: %d  Columns: %d\n", preview.RowCount, preview.ColumnCount)
	fmt.Printf("Header: %v\n", preview.Header)
	for i, row := range preview.Rows {
		fmt.Printf("  %d. %v\n", i+1, row)
	}
}

func targetURL(client *api.ArchiveClient, args []string) (string, error) {
	switch len(args) {
	case 1:
		return args[0], nil
	case 4:
		date, err := time.Parse("2006-01-02", args[1])
		if err != nil {
			return "", fmt.Errorf("bad date %q: %w", args[1], err)
		}
		var hour int
		if _, err := fmt.Sscanf(args[2], "%d", &hour); err != nil || hour < 0 || hour > 23 {
			return "", fmt.Errorf("bad hour %q", args[2])
		}
		return client.RunURL(models.SearchKey{
			Station: args[0],
			Date:    date,
			Hour:    hour,
			Version: args[3],
		}), nil
	default:
		return "", fmt.Errorf("expected 1 or 4 arguments, got %d", len(args))
	}
}
