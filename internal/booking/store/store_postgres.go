package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Onahi7/napps-sub001/internal/booking/models"
	"github.com/Onahi7/napps-sub001/pkg/platform/sentinel"
	"github.com/Onahi7/napps-sub001/pkg/platform/tx"
)

// PostgresStore persists hotel bookings in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const bookingColumns = `
	id, participant_id, hotel_name, room_type, check_in, check_out, status, created_at, updated_at
`

func (s *PostgresStore) Create(ctx context.Context, b *models.Booking) error {
	query := `
		INSERT INTO hotel_bookings (` + bookingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := tx.Pick(ctx, s.db).ExecContext(ctx, query,
		b.ID, b.ParticipantID, b.HotelName, b.RoomType, b.CheckIn, b.CheckOut,
		b.Status, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create booking: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	row := tx.Pick(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM hotel_bookings WHERE id = $1`, id)
	b, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("find booking: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find booking: %w", err)
	}
	return b, nil
}

// UpdateStatus applies a transition as a conditional UPDATE against the
// expected current status. Returns false when the row was not in `from`.
func (s *PostgresStore) UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.BookingStatus, now time.Time) (bool, error) {
	res, err := tx.Pick(ctx, s.db).ExecContext(ctx, `
		UPDATE hotel_bookings SET status = $3, updated_at = $4
		WHERE id = $1 AND status = $2
	`, id, from, to, now)
	if err != nil {
		return false, fmt.Errorf("update booking status: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update booking status rows affected: %w", err)
	}
	return rows > 0, nil
}

func (s *PostgresStore) ListByParticipant(ctx context.Context, participantID uuid.UUID) ([]*models.Booking, error) {
	rows, err := tx.Pick(ctx, s.db).QueryContext(ctx,
		`SELECT `+bookingColumns+` FROM hotel_bookings WHERE participant_id = $1 ORDER BY created_at DESC`,
		participantID)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	var out []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	var b models.Booking
	var checkIn, checkOut time.Time
	err := row.Scan(
		&b.ID, &b.ParticipantID, &b.HotelName, &b.RoomType, &checkIn, &checkOut,
		&b.Status, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	b.CheckIn = checkIn.Format("2006-01-02")
	b.CheckOut = checkOut.Format("2006-01-02")
	return &b, nil
}
