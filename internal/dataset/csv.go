package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

// readCSV parses a whole CSV split up front, so a malformed file fails
// before any of its records are used. The first row names the fields and
// every later row becomes a Record of string values.
func readCSV(r io.Reader, name string) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("csv: %s is empty (no header row)", name)
	}
	if err != nil {
		return nil, fmt.Errorf("csv: parse %s: %w", name, err)
	}

	var records []Record
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return nil, fmt.Errorf("csv: parse %s: %w", name, err)
		}
		if len(row) != len(header) {
			line, _ := reader.FieldPos(0)
			return nil, fmt.Errorf("csv: %s line %d has %d columns, expected %d", name, line, len(row), len(header))
		}

		rec := make(Record, len(header))
		for i, field := range header {
			rec[field] = row[i]
		}
		records = append(records, rec)
	}
}
