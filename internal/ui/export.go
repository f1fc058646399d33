package ui

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/thesavant42/nbmfetch/internal/models"
)

// SaveCSV writes the run's CSV bytes into dir under the run's canonical
// filename and returns the written path
func SaveCSV(dir string, run *models.RunResult, data []byte) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(dir, run.Filename())
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write CSV file: %w", err)
	}

	return path, nil
}
