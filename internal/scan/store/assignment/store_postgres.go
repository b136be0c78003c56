package assignment

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Onahi7/napps-sub001/internal/scan/models"
	"github.com/Onahi7/napps-sub001/pkg/platform/sentinel"
	"github.com/Onahi7/napps-sub001/pkg/platform/tx"
)

// PostgresStore persists validator schedule assignments. Rows are
// soft-deleted: DeletedAt is stamped, nothing is physically removed.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const assignmentColumns = `
	id, validator_id, meal_type, location, schedule_date::text, schedule_time, status, created_at, deleted_at
`

func (s *PostgresStore) Create(ctx context.Context, a *models.ValidatorAssignment) error {
	query := `
		INSERT INTO validator_assignments (id, validator_id, meal_type, location, schedule_date, schedule_time, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := tx.Pick(ctx, s.db).ExecContext(ctx, query,
		a.ID, a.ValidatorID, a.MealType, a.Location, a.ScheduleDate, a.ScheduleTime, a.Status, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create assignment: %w", err)
	}
	return nil
}

// ListUpcoming returns a validator's non-deleted assignments from the given
// date forward, ordered by date then time.
func (s *PostgresStore) ListUpcoming(ctx context.Context, validatorID uuid.UUID, fromDate string) ([]*models.ValidatorAssignment, error) {
	query := `
		SELECT ` + assignmentColumns + `
		FROM validator_assignments
		WHERE validator_id = $1 AND deleted_at IS NULL AND schedule_date >= $2
		ORDER BY schedule_date, schedule_time
	`
	rows, err := tx.Pick(ctx, s.db).QueryContext(ctx, query, validatorID, fromDate)
	if err != nil {
		return nil, fmt.Errorf("list upcoming assignments: %w", err)
	}
	defer rows.Close()

	var out []*models.ValidatorAssignment
	for rows.Next() {
		var a models.ValidatorAssignment
		if err := rows.Scan(&a.ID, &a.ValidatorID, &a.MealType, &a.Location, &a.ScheduleDate, &a.ScheduleTime, &a.Status, &a.CreatedAt, &a.DeletedAt); err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		out = append(out, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list upcoming assignments: %w", err)
	}
	return out, nil
}

// SoftDelete hides an assignment from schedules without losing its history.
func (s *PostgresStore) SoftDelete(ctx context.Context, id uuid.UUID, now time.Time) error {
	res, err := tx.Pick(ctx, s.db).ExecContext(ctx,
		`UPDATE validator_assignments SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`, id, now)
	if err != nil {
		return fmt.Errorf("soft delete assignment: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("soft delete assignment rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("soft delete assignment: %w", sentinel.ErrNotFound)
	}
	return nil
}

// CompletePast closes out pending/active assignments scheduled before the
// given date. Run nightly alongside meal-validation expiry.
func (s *PostgresStore) CompletePast(ctx context.Context, beforeDate string) (int64, error) {
	query := `
		UPDATE validator_assignments
		SET status = 'completed'
		WHERE schedule_date < $1 AND status <> 'completed' AND deleted_at IS NULL
	`
	res, err := tx.Pick(ctx, s.db).ExecContext(ctx, query, beforeDate)
	if err != nil {
		return 0, fmt.Errorf("complete past assignments: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("complete past assignments rows affected: %w", err)
	}
	return rows, nil
}
