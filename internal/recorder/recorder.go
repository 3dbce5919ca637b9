// Package recorder appends one summary line per completed search to a log
// keyed by topology and technology.
package recorder

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/GoSim-25-26J-441/sizing-core/pkg/utils"
)

// ErrResultLogOpen is matched by every failure to acquire the result log
var ErrResultLogOpen = errors.New("failed to open result log")

// LogOpenError reports the log path that could not be opened
type LogOpenError struct {
	Path string
	Err  error
}

func (e *LogOpenError) Error() string {
	return fmt.Sprintf("failed to open result log %s: %v", e.Path, e.Err)
}

func (e *LogOpenError) Unwrap() error {
	return e.Err
}

// Is matches ErrResultLogOpen
func (e *LogOpenError) Is(target error) bool {
	return target == ErrResultLogOpen
}

// Param is one run configuration value
type Param struct {
	Key   string
	Value string
}

// Entry is one completed run
type Entry struct {
	Time       time.Time
	RunID      string
	Params     []Param
	Found      bool // false when no probe ever transitioned
	BestDelay  float64
	BestWidths []float64
	TotalWidth float64

	// Ratios are the per-stage width ratios, the last one against the load
	Ratios             []float64
	AverageRatio       float64
	AverageRatioNoLoad float64

	BaselineSupported bool
	BaselineFailed    bool // the logical-effort probe itself errored
	BaselineFound     bool
	BaselineDelay     float64
}

// Log is an append-only result log
type Log struct {
	mu   sync.Mutex
	f    *os.File
	path string
}

// FileName returns the log file name for a topology and technology
func FileName(topology, technology string) string {
	return topology + "_" + technology + ".log"
}

// Open opens (creating if needed) the log for topology and technology in dir
func Open(dir, topology, technology string) (*Log, error) {
	path := filepath.Join(dir, FileName(topology, technology))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &LogOpenError{Path: path, Err: err}
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, &LogOpenError{Path: path, Err: err}
	}
	return &Log{f: f, path: path}, nil
}

// Path returns the log file path
func (l *Log) Path() string {
	return l.path
}

// Append writes one line for the entry
func (l *Log) Append(e Entry) error {
	line := Format(e)
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.f.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("failed to append to %s: %w", l.path, err)
	}
	return nil
}

// Close closes the log
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f.Close()
}

// Format renders an entry as a single line of key=value fields
func Format(e Entry) string {
	fields := []string{
		e.Time.UTC().Format(time.RFC3339),
		"run=" + e.RunID,
	}
	for _, p := range e.Params {
		fields = append(fields, p.Key+"="+p.Value)
	}

	if !e.Found {
		fields = append(fields, "tp=none")
	} else {
		fields = append(fields,
			"tp="+utils.FormatSI(e.BestDelay, 6),
			"widths="+list(e.BestWidths),
			"total="+utils.FormatSI(e.TotalWidth, 6),
		)
	}
	if len(e.Ratios) > 0 {
		fields = append(fields,
			"ratios="+ratioList(e.Ratios),
			fmt.Sprintf("avg=%.3f", e.AverageRatio),
			fmt.Sprintf("avg_noload=%.3f", e.AverageRatioNoLoad),
		)
	}

	switch {
	case e.BaselineFailed:
		fields = append(fields, "le=failed")
	case !e.BaselineSupported:
		fields = append(fields, "le=unsupported")
	case !e.BaselineFound:
		fields = append(fields, "le_tp=none")
	default:
		fields = append(fields, "le_tp="+utils.FormatSI(e.BaselineDelay, 6))
	}
	return strings.Join(fields, " ")
}

func list(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = utils.FormatSI(v, 4)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func ratioList(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%.3f", v)
	}
	return "[" + strings.Join(parts, ",") + "]"
}
