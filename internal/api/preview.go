package api

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/thesavant42/nbmfetch/internal/models"
)

// PreviewRows is how many data rows the preview keeps
const PreviewRows = 30

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParsePreview reads a CSV: the first record is the header, the rest are
// counted and the first limit are kept. Ragged rows are accepted.
func ParsePreview(data []byte, limit int) (*models.Preview, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.ReuseRecord = false

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("empty CSV")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV header: %w", err)
	}

	preview := &models.Preview{
		Header:      header,
		ColumnCount: len(header),
	}

	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse CSV row %d: %w", preview.RowCount+1, err)
		}
		preview.RowCount++
		if len(preview.Rows) < limit {
			preview.Rows = append(preview.Rows, record)
		}
	}

	return preview, nil
}
