package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

// Frame is an uploaded file parsed into memory: sanitized column names plus
// raw string cells. Short records are padded with empty strings so every row
// has len(Columns) cells.
type Frame struct {
	Columns []string
	Rows    [][]string
}

// ParseCSV reads delimited data with a header row and returns a Frame with
// sanitized, de-duplicated column names.
func ParseCSV(r io.Reader) (*Frame, error) {
	// Cell values are stored exactly as they appear in the file; only the
	// header goes through sanitization (which trims for itself).
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parse csv: file is empty")
		}
		return nil, fmt.Errorf("parse csv: read header: %w", err)
	}

	columns, err := SanitizeHeader(header)
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	ncol := len(columns)

	var rows [][]string
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("parse csv: line %d: %w", line, err)
		}
		row := make([]string, ncol)
		copy(row, rec)
		rows = append(rows, row)
	}

	return &Frame{Columns: columns, Rows: rows}, nil
}
