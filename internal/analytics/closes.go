package analytics

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
)

// ReadCloseSeries loads a date,close CSV, skipping a header row when the
// second column does not parse as a number.
func ReadCloseSeries(path string) ([]float64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open close series: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read close series: %w", err)
	}

	closes := make([]float64, 0, len(records))
	for i, rec := range records {
		if len(rec) < 2 {
			return nil, fmt.Errorf("row %d: expected date,close columns", i+1)
		}
		v, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			if i == 0 {
				continue // header
			}
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		closes = append(closes, v)
	}
	if len(closes) == 0 {
		return nil, fmt.Errorf("%s: no close values", path)
	}
	return closes, nil
}
