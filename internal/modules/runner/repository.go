package runner

import (
	"fmt"
	"time"

	"github.com/aristath/fundflow/internal/database"
	"github.com/aristath/fundflow/internal/modules/kpi"
)

// RunRepository persists run summaries to the runs table.
type RunRepository struct {
	db *database.DB
}

// NewRunRepository creates a repository over the store.
func NewRunRepository(db *database.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Save upserts one run record.
func (r *RunRepository) Save(rec kpi.Record) error {
	_, err := r.db.Conn().Exec(`
		INSERT OR REPLACE INTO runs
			(run_id, started_at, status, total_fee, total_shortfall, runtime_sec, mem_mb, cpu_percent)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID,
		rec.Timestamp.UTC().Format(time.RFC3339),
		rec.Status,
		rec.TotalFee,
		rec.TotalShortfall,
		rec.RuntimeSec,
		rec.MemMB,
		rec.CPUPercent,
	)
	if err != nil {
		return fmt.Errorf("save run %s: %w", rec.RunID, err)
	}
	return nil
}

// Recent returns the latest runs, newest first.
func (r *RunRepository) Recent(limit int) ([]kpi.Record, error) {
	rows, err := r.db.Conn().Query(`
		SELECT run_id, started_at, status, total_fee, total_shortfall, runtime_sec, mem_mb, cpu_percent
		FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []kpi.Record
	for rows.Next() {
		var rec kpi.Record
		var started string
		if err := rows.Scan(&rec.RunID, &started, &rec.Status, &rec.TotalFee,
			&rec.TotalShortfall, &rec.RuntimeSec, &rec.MemMB, &rec.CPUPercent); err != nil {
			return nil, err
		}
		rec.Timestamp, err = time.Parse(time.RFC3339, started)
		if err != nil {
			return nil, fmt.Errorf("parse started_at for run %s: %w", rec.RunID, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
