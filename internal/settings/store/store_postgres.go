package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Onahi7/napps-sub001/internal/settings/models"
	"github.com/Onahi7/napps-sub001/pkg/platform/sentinel"
	"github.com/Onahi7/napps-sub001/pkg/platform/tx"
)

// PostgresStore persists settings in PostgreSQL. It is the source of truth;
// the cache in front of it is an optimization only.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Get(ctx context.Context, key string) (*models.Setting, error) {
	var setting models.Setting
	err := tx.Pick(ctx, s.db).QueryRowContext(ctx,
		`SELECT key, value, description, updated_at, updated_by FROM settings WHERE key = $1`,
		key,
	).Scan(&setting.Key, &setting.Value, &setting.Description, &setting.UpdatedAt, &setting.UpdatedBy)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("get setting: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("get setting: %w", err)
	}
	return &setting, nil
}

func (s *PostgresStore) Upsert(ctx context.Context, setting *models.Setting) error {
	_, err := tx.Pick(ctx, s.db).ExecContext(ctx, `
		INSERT INTO settings (key, value, description, updated_at, updated_by)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value,
		    description = EXCLUDED.description,
		    updated_at = EXCLUDED.updated_at,
		    updated_by = EXCLUDED.updated_by
	`, setting.Key, setting.Value, setting.Description, setting.UpdatedAt, setting.UpdatedBy)
	if err != nil {
		return fmt.Errorf("upsert setting: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, prefix string) ([]*models.Setting, error) {
	rows, err := tx.Pick(ctx, s.db).QueryContext(ctx,
		`SELECT key, value, description, updated_at, updated_by FROM settings WHERE key LIKE $1 || '%' ORDER BY key`,
		prefix,
	)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	var out []*models.Setting
	for rows.Next() {
		var setting models.Setting
		if err := rows.Scan(&setting.Key, &setting.Value, &setting.Description, &setting.UpdatedAt, &setting.UpdatedBy); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		out = append(out, &setting)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	return out, nil
}

// Seed inserts defaults without overwriting admin-edited values.
func (s *PostgresStore) Seed(ctx context.Context, defaults []*models.Setting) error {
	for _, setting := range defaults {
		_, err := tx.Pick(ctx, s.db).ExecContext(ctx, `
			INSERT INTO settings (key, value, description, updated_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (key) DO NOTHING
		`, setting.Key, setting.Value, setting.Description, setting.UpdatedAt)
		if err != nil {
			return fmt.Errorf("seed setting %q: %w", setting.Key, err)
		}
	}
	return nil
}
