package mealvalidation

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/Onahi7/napps-sub001/internal/scan/models"
	"github.com/Onahi7/napps-sub001/pkg/platform/tx"
)

// PostgresStore persists meal validations. The UNIQUE constraint on
// (participant_id, meal_type, validation_date) is the idempotency backstop;
// InsertIfAbsent leans on it instead of a racy check-then-insert.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// InsertIfAbsent writes the validation row only when none exists for the
// participant/meal/day. Returns false when an earlier writer already
// validated; two concurrent scans therefore yield exactly one row.
func (s *PostgresStore) InsertIfAbsent(ctx context.Context, mv *models.MealValidation) (bool, error) {
	query := `
		INSERT INTO meal_validations (id, participant_id, meal_type, validation_date, status, validated_at, validator_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (participant_id, meal_type, validation_date) DO NOTHING
	`
	res, err := tx.Pick(ctx, s.db).ExecContext(ctx, query,
		mv.ID, mv.ParticipantID, mv.MealType, mv.Date, mv.Status, mv.ValidatedAt, mv.ValidatorName,
	)
	if err != nil {
		return false, fmt.Errorf("insert meal validation: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert meal validation rows affected: %w", err)
	}
	return rows > 0, nil
}

// Find returns the validation row for a participant/meal/day, or nil.
func (s *PostgresStore) Find(ctx context.Context, participantID uuid.UUID, mealType models.ScanType, date string) (*models.MealValidation, error) {
	query := `
		SELECT id, participant_id, meal_type, validation_date::text, status, validated_at, validator_name
		FROM meal_validations
		WHERE participant_id = $1 AND meal_type = $2 AND validation_date = $3
	`
	var mv models.MealValidation
	err := tx.Pick(ctx, s.db).QueryRowContext(ctx, query, participantID, mealType, date).Scan(
		&mv.ID, &mv.ParticipantID, &mv.MealType, &mv.Date, &mv.Status, &mv.ValidatedAt, &mv.ValidatorName,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find meal validation: %w", err)
	}
	return &mv, nil
}

// ListByParticipant returns a participant's validations, newest day first.
func (s *PostgresStore) ListByParticipant(ctx context.Context, participantID uuid.UUID) ([]*models.MealValidation, error) {
	query := `
		SELECT id, participant_id, meal_type, validation_date::text, status, validated_at, validator_name
		FROM meal_validations
		WHERE participant_id = $1
		ORDER BY validation_date DESC, validated_at DESC
	`
	rows, err := tx.Pick(ctx, s.db).QueryContext(ctx, query, participantID)
	if err != nil {
		return nil, fmt.Errorf("list meal validations: %w", err)
	}
	defer rows.Close()

	var out []*models.MealValidation
	for rows.Next() {
		var mv models.MealValidation
		if err := rows.Scan(&mv.ID, &mv.ParticipantID, &mv.MealType, &mv.Date, &mv.Status, &mv.ValidatedAt, &mv.ValidatorName); err != nil {
			return nil, fmt.Errorf("scan meal validation: %w", err)
		}
		out = append(out, &mv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list meal validations: %w", err)
	}
	return out, nil
}

// ExpireBefore marks validations from days before cutoffDate as expired.
// Run nightly; returns the number of rows transitioned.
func (s *PostgresStore) ExpireBefore(ctx context.Context, cutoffDate string) (int64, error) {
	query := `
		UPDATE meal_validations
		SET status = 'expired'
		WHERE validation_date < $1 AND status = 'validated'
	`
	res, err := tx.Pick(ctx, s.db).ExecContext(ctx, query, cutoffDate)
	if err != nil {
		return 0, fmt.Errorf("expire meal validations: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("expire meal validations rows affected: %w", err)
	}
	return rows, nil
}
