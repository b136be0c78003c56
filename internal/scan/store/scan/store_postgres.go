package scan

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/Onahi7/napps-sub001/internal/scan/models"
	"github.com/Onahi7/napps-sub001/pkg/platform/tx"
)

// PostgresStore persists the append-only scan audit trail. It exposes no
// update or delete operations on purpose.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, scan *models.Scan) error {
	query := `
		INSERT INTO scans (id, user_id, scanned_by, scan_type, location, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := tx.Pick(ctx, s.db).ExecContext(ctx, query,
		scan.ID, scan.UserID, scan.ScannedBy, scan.Type, scan.Location, scan.Notes, scan.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append scan: %w", err)
	}
	return nil
}

// ListByValidator returns a validator's own scan history, newest first.
func (s *PostgresStore) ListByValidator(ctx context.Context, validatorID uuid.UUID, limit int) ([]*models.Scan, error) {
	query := `
		SELECT id, user_id, scanned_by, scan_type, location, notes, created_at
		FROM scans
		WHERE scanned_by = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	return s.list(ctx, query, "list scans by validator", validatorID, limit)
}

// ListAll returns the full trail for admins, newest first.
func (s *PostgresStore) ListAll(ctx context.Context, limit int) ([]*models.Scan, error) {
	query := `
		SELECT id, user_id, scanned_by, scan_type, location, notes, created_at
		FROM scans
		ORDER BY created_at DESC
		LIMIT $1
	`
	return s.list(ctx, query, "list scans", limit)
}

// ListBySubject returns every scan recorded against one participant.
func (s *PostgresStore) ListBySubject(ctx context.Context, userID uuid.UUID, limit int) ([]*models.Scan, error) {
	query := `
		SELECT id, user_id, scanned_by, scan_type, location, notes, created_at
		FROM scans
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	return s.list(ctx, query, "list scans by subject", userID, limit)
}

func (s *PostgresStore) list(ctx context.Context, query, op string, args ...any) ([]*models.Scan, error) {
	rows, err := tx.Pick(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var scans []*models.Scan
	for rows.Next() {
		var sc models.Scan
		if err := rows.Scan(&sc.ID, &sc.UserID, &sc.ScannedBy, &sc.Type, &sc.Location, &sc.Notes, &sc.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: scan row: %w", op, err)
		}
		scans = append(scans, &sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return scans, nil
}
