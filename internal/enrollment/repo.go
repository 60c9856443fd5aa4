package enrollment

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// Repository looks up enrollment records.
type Repository interface {
	// FindActive returns a non-canceled enrollment for the student whose
	// end date has not passed, or nil when none exists.
	FindActive(ctx context.Context, studentID int64, now time.Time) (*Enrollment, error)
}

type postgresRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewRepository creates a Postgres-backed repository.
func NewRepository(db *sql.DB, logger zerolog.Logger) Repository {
	return &postgresRepository{db: db, logger: logger}
}

func (r *postgresRepository) FindActive(ctx context.Context, studentID int64, now time.Time) (*Enrollment, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, student_id, end_date, canceled_at
		FROM enrollments
		WHERE student_id = $1 AND canceled_at IS NULL AND end_date >= $2
		ORDER BY end_date DESC
		LIMIT 1
	`, studentID, now)

	var e Enrollment
	if err := row.Scan(&e.ID, &e.StudentID, &e.EndDate, &e.CanceledAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	// The WHERE clause and Active encode the same predicate; the Go side
	// stays authoritative so drift in the SQL cannot widen the gate.
	if !e.Active(now) {
		return nil, nil
	}
	return &e, nil
}
