// Package kpi records per-run key performance indicators: an append-only
// JSONL log for audit plus trend smoothing for the dashboard.
package kpi

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

// Record is one optimisation run's summary. Written as a single JSON line.
type Record struct {
	Timestamp      time.Time `json:"timestamp"`
	RunID          string    `json:"run_id"`
	Status         string    `json:"status"`
	TotalFee       int64     `json:"total_fee"`
	TotalShortfall int64     `json:"total_shortfall"`
	RuntimeSec     float64   `json:"runtime_sec"`
	MemMB          float64   `json:"mem_mb"`
	CPUPercent     float64   `json:"cpu_percent"`
}

// Logger appends run records to a JSONL file.
type Logger struct {
	path string
}

// NewLogger creates a logger writing to path; parent directories are
// created on first append.
func NewLogger(path string) *Logger {
	return &Logger{path: path}
}

// Path returns the log file location.
func (l *Logger) Path() string {
	return l.path
}

// Append writes one record as a JSON line.
func (l *Logger) Append(rec Record) error {
	if dir := filepath.Dir(l.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create log directory: %w", err)
		}
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open kpi log: %w", err)
	}
	defer f.Close()

	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	_, err = f.Write(append(data, '\n'))
	return err
}

// LoadRecent returns records newer than the given number of days, in file
// (chronological) order. A missing log file yields an empty slice.
func (l *Logger) LoadRecent(days int) ([]Record, error) {
	f, err := os.Open(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	threshold := time.Now().AddDate(0, 0, -days)
	var out []Record
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("corrupt kpi record: %w", err)
		}
		if rec.Timestamp.Before(threshold) {
			continue
		}
		out = append(out, rec)
	}
	return out, sc.Err()
}

// Snapshot captures the process's current resource usage for a record.
// Failures degrade to zeros; resource stats are informational only.
func Snapshot() (memMB, cpuPercent float64) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return 0, 0
	}
	if mi, err := proc.MemoryInfo(); err == nil && mi != nil {
		memMB = float64(mi.RSS) / (1024 * 1024)
	}
	if pct, err := proc.CPUPercent(); err == nil {
		cpuPercent = pct
	}
	return memMB, cpuPercent
}
