package checkin

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

// Repository persists check-in events.
type Repository interface {
	Insert(ctx context.Context, c Checkin) (Checkin, error)
	CountSince(ctx context.Context, studentID int64, since time.Time) (int, error)
	CountInRange(ctx context.Context, studentID int64, from, to time.Time) (int, error)
	ListRecent(ctx context.Context, studentID int64, limit int) ([]Checkin, error)
}

type postgresRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewRepository creates a Postgres-backed repository.
func NewRepository(db *sql.DB, logger zerolog.Logger) Repository {
	return &postgresRepository{db: db, logger: logger}
}

func (r *postgresRepository) Insert(ctx context.Context, c Checkin) (Checkin, error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO checkins (id, student_id, created_at, day)
		VALUES ($1, $2, $3, $4)
	`, c.ID, c.StudentID, c.CreatedAt, DayKey(c.CreatedAt))
	if err != nil {
		// The unique (student_id, day) index closes the window between
		// the daily-limit check and this insert.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Checkin{}, ErrAlreadyCheckedIn
		}
		return Checkin{}, err
	}
	return c, nil
}

func (r *postgresRepository) CountSince(ctx context.Context, studentID int64, since time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM checkins
		WHERE student_id = $1 AND created_at >= $2
	`, studentID, since).Scan(&n)
	return n, err
}

func (r *postgresRepository) CountInRange(ctx context.Context, studentID int64, from, to time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM checkins
		WHERE student_id = $1 AND created_at >= $2 AND created_at <= $3
	`, studentID, from, to).Scan(&n)
	return n, err
}

func (r *postgresRepository) ListRecent(ctx context.Context, studentID int64, limit int) ([]Checkin, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, student_id, created_at FROM checkins
		WHERE student_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, studentID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []Checkin
	for rows.Next() {
		var c Checkin
		if err := rows.Scan(&c.ID, &c.StudentID, &c.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}
