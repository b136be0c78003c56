package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/Onahi7/napps-sub001/internal/registration/models"
	"github.com/Onahi7/napps-sub001/pkg/platform/sentinel"
	"github.com/Onahi7/napps-sub001/pkg/platform/tx"
)

// PostgresStore persists profiles in PostgreSQL.
// The store is pure I/O; payment and accreditation guard logic belongs in the
// services; the conditional WHERE clauses here are the storage half of those
// guards, checked against the same snapshot as the write.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed profile store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const profileColumns = `
	id, email, phone, full_name, school, role,
	payment_status, payment_reference, payment_amount, payment_proof, payment_completed_at,
	accreditation_status, accreditation_date, created_at, updated_at
`

func (s *PostgresStore) Create(ctx context.Context, p *models.Profile) error {
	query := `
		INSERT INTO profiles (` + profileColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := tx.Pick(ctx, s.db).ExecContext(ctx, query,
		p.ID, p.Email, p.Phone, p.FullName, p.School, p.Role,
		p.PaymentStatus, nullIfEmpty(p.PaymentReference), p.PaymentAmount, p.PaymentProof, p.PaymentCompletedAt,
		p.AccreditationStatus, p.AccreditationDate, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return mapUnique("create profile", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	return s.findOne(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, "find profile by id", id)
}

func (s *PostgresStore) FindByPhone(ctx context.Context, phone string) (*models.Profile, error) {
	return s.findOne(ctx, `SELECT `+profileColumns+` FROM profiles WHERE phone = $1`, "find profile by phone", phone)
}

func (s *PostgresStore) FindByReference(ctx context.Context, reference string) (*models.Profile, error) {
	return s.findOne(ctx, `SELECT `+profileColumns+` FROM profiles WHERE payment_reference = $1`, "find profile by reference", reference)
}

// FindByIDForUpdate locks the profile row for the remainder of the enclosing
// transaction. Callers must be inside RunInTx; outside one, the lock is
// released immediately and provides no guarantee.
func (s *PostgresStore) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	return s.findOne(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1 FOR UPDATE`, "lock profile by id", id)
}

// FindByReferenceForUpdate locks the row owning the payment reference.
func (s *PostgresStore) FindByReferenceForUpdate(ctx context.Context, reference string) (*models.Profile, error) {
	return s.findOne(ctx, `SELECT `+profileColumns+` FROM profiles WHERE payment_reference = $1 FOR UPDATE`, "lock profile by reference", reference)
}

// UpdatePayment writes the payment-owned fields. The reference column is
// written through COALESCE-on-conflict semantics at the constraint level: a
// duplicate generated reference surfaces as a FieldConflict for retry.
func (s *PostgresStore) UpdatePayment(ctx context.Context, p *models.Profile) error {
	query := `
		UPDATE profiles
		SET payment_status = $2,
		    payment_reference = $3,
		    payment_amount = $4,
		    payment_proof = $5,
		    payment_completed_at = $6,
		    updated_at = $7
		WHERE id = $1
	`
	res, err := tx.Pick(ctx, s.db).ExecContext(ctx, query,
		p.ID, p.PaymentStatus, nullIfEmpty(p.PaymentReference), p.PaymentAmount,
		p.PaymentProof, p.PaymentCompletedAt, p.UpdatedAt,
	)
	if err != nil {
		return mapUnique("update payment", err)
	}
	return requireRow(res, "update payment")
}

// CompleteAccreditation applies the one-way pending → completed edge as a
// single conditional UPDATE. Returns false when another scan already
// completed it; the caller reports "already accredited" without re-writing.
func (s *PostgresStore) CompleteAccreditation(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	query := `
		UPDATE profiles
		SET accreditation_status = 'completed', accreditation_date = $2, updated_at = $2
		WHERE id = $1 AND accreditation_status = 'pending'
	`
	res, err := tx.Pick(ctx, s.db).ExecContext(ctx, query, id, now)
	if err != nil {
		return false, fmt.Errorf("complete accreditation: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("complete accreditation rows affected: %w", err)
	}
	return rows > 0, nil
}

// DeclineAccreditation is the admin-only pending → declined edge.
func (s *PostgresStore) DeclineAccreditation(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	query := `
		UPDATE profiles
		SET accreditation_status = 'declined', updated_at = $2
		WHERE id = $1 AND accreditation_status = 'pending'
	`
	res, err := tx.Pick(ctx, s.db).ExecContext(ctx, query, id, now)
	if err != nil {
		return false, fmt.Errorf("decline accreditation: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("decline accreditation rows affected: %w", err)
	}
	return rows > 0, nil
}

// PaymentStatusCounts feeds the admin analytics summary.
func (s *PostgresStore) PaymentStatusCounts(ctx context.Context) (map[models.PaymentStatus]int, error) {
	rows, err := tx.Pick(ctx, s.db).QueryContext(ctx,
		`SELECT payment_status, COUNT(*) FROM profiles GROUP BY payment_status`)
	if err != nil {
		return nil, fmt.Errorf("payment status counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.PaymentStatus]int)
	for rows.Next() {
		var status models.PaymentStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan payment status count: %w", err)
		}
		counts[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("payment status counts: %w", err)
	}
	return counts, nil
}

func (s *PostgresStore) findOne(ctx context.Context, query, op string, arg any) (*models.Profile, error) {
	p, err := scanProfile(tx.Pick(ctx, s.db).QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*models.Profile, error) {
	var p models.Profile
	var reference sql.NullString
	err := row.Scan(
		&p.ID, &p.Email, &p.Phone, &p.FullName, &p.School, &p.Role,
		&p.PaymentStatus, &reference, &p.PaymentAmount, &p.PaymentProof, &p.PaymentCompletedAt,
		&p.AccreditationStatus, &p.AccreditationDate, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.PaymentReference = reference.String
	return &p, nil
}

// constraintFields names the user-facing field behind each uniqueness
// constraint so the boundary can produce field-level messages.
var constraintFields = map[string]string{
	"profiles_email_key":             "email",
	"profiles_phone_key":             "phone",
	"profiles_payment_reference_key": "payment_reference",
}

func mapUnique(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		field := constraintFields[pqErr.Constraint]
		if field == "" {
			field = pqErr.Constraint
		}
		return fmt.Errorf("%s: %w", op, &sentinel.FieldConflict{Field: field})
	}
	return fmt.Errorf("%s: %w", op, err)
}

func requireRow(res sql.Result, op string) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", op, sentinel.ErrNotFound)
	}
	return nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
