package duckdb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/corrigo/corrigo/internal/core/domain"
)

func (r *Repository) SavePreset(ctx context.Context, p *domain.Preset) error {
	query := `
	INSERT INTO presets (id, name, directive, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		name = excluded.name,
		directive = excluded.directive,
		updated_at = excluded.updated_at;
	`
	_, err := r.db.ExecContext(ctx, query, p.ID, p.Name, p.Directive, p.CreatedAt, p.UpdatedAt)
	return err
}

func (r *Repository) GetPreset(ctx context.Context, id domain.PresetID) (*domain.Preset, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, directive, created_at, updated_at FROM presets WHERE id = ?`, id)

	var p domain.Preset
	if err := row.Scan(&p.ID, &p.Name, &p.Directive, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("preset not found: %s", id)
		}
		return nil, err
	}
	return &p, nil
}

func (r *Repository) ListPresets(ctx context.Context) ([]domain.Preset, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, directive, created_at, updated_at FROM presets ORDER BY updated_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var presets []domain.Preset
	for rows.Next() {
		var p domain.Preset
		if err := rows.Scan(&p.ID, &p.Name, &p.Directive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		presets = append(presets, p)
	}
	return presets, rows.Err()
}

func (r *Repository) DeletePreset(ctx context.Context, id domain.PresetID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM presets WHERE id = ?`, id)
	return err
}
