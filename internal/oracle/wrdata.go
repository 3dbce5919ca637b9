package oracle

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ReadSamples parses a two-vector wrdata table. Rows are either
// "time in time out" (the default layout) or "time in out" (single scale).
// Blank lines and lines starting with a non-numeric token are skipped.
func ReadSamples(r io.Reader) ([]Sample, error) {
	var samples []Sample
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if _, err := strconv.ParseFloat(fields[0], 64); err != nil {
			continue
		}
		values := make([]float64, len(fields))
		for i, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("wrdata line %d: column %d: %w", line, i+1, err)
			}
			values[i] = v
		}
		switch len(values) {
		case 3:
			samples = append(samples, Sample{Time: values[0], In: values[1], Out: values[2]})
		case 4:
			samples = append(samples, Sample{Time: values[0], In: values[1], Out: values[3]})
		default:
			return nil, fmt.Errorf("wrdata line %d: expected 3 or 4 columns, got %d", line, len(values))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read wrdata: %w", err)
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("wrdata contains no samples")
	}
	return samples, nil
}
