package duckdb

import (
	"context"

	"github.com/corrigo/corrigo/internal/core/domain"
)

func (r *Repository) SaveCorrectionRecord(ctx context.Context, rec domain.CorrectionRecord) error {
	query := `
	INSERT INTO correction_history (job_id, original_length, corrected_length, processing_ms, outcome, created_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT (job_id) DO NOTHING;
	`
	_, err := r.db.ExecContext(ctx, query,
		rec.JobID, rec.OriginalLength, rec.CorrectedLength,
		rec.ProcessingTimeMs, rec.Outcome, rec.CreatedAt,
	)
	return err
}

func (r *Repository) ListCorrectionRecords(ctx context.Context, limit int) ([]domain.CorrectionRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT job_id, original_length, corrected_length, processing_ms, outcome, created_at
		 FROM correction_history ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.CorrectionRecord
	for rows.Next() {
		var rec domain.CorrectionRecord
		if err := rows.Scan(&rec.JobID, &rec.OriginalLength, &rec.CorrectedLength,
			&rec.ProcessingTimeMs, &rec.Outcome, &rec.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
