package student

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

// Repository persists student profiles.
type Repository interface {
	Create(ctx context.Context, s *Student) error
	GetByID(ctx context.Context, id int64) (*Student, error)
	GetByEmail(ctx context.Context, email string) (*Student, error)
	Update(ctx context.Context, s *Student) error
}

type postgresRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewRepository creates a Postgres-backed repository.
func NewRepository(db *sql.DB, logger zerolog.Logger) Repository {
	return &postgresRepository{db: db, logger: logger}
}

func (r *postgresRepository) Create(ctx context.Context, s *Student) error {
	now := time.Now()
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO students (name, email, age, weight, height, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		RETURNING id
	`, s.Name, s.Email, s.Age, s.Weight, s.Height, now).Scan(&s.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return err
	}
	s.CreatedAt = now
	s.UpdatedAt = now
	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id int64) (*Student, error) {
	return r.get(ctx, `
		SELECT id, name, email, age, weight, height, created_at, updated_at
		FROM students WHERE id = $1
	`, id)
}

func (r *postgresRepository) GetByEmail(ctx context.Context, email string) (*Student, error) {
	return r.get(ctx, `
		SELECT id, name, email, age, weight, height, created_at, updated_at
		FROM students WHERE email = $1
	`, email)
}

func (r *postgresRepository) get(ctx context.Context, query string, arg any) (*Student, error) {
	var s Student
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&s.ID, &s.Name, &s.Email, &s.Age, &s.Weight, &s.Height, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *postgresRepository) Update(ctx context.Context, s *Student) error {
	s.UpdatedAt = time.Now()
	_, err := r.db.ExecContext(ctx, `
		UPDATE students
		SET name = $2, email = $3, age = $4, weight = $5, height = $6, updated_at = $7
		WHERE id = $1
	`, s.ID, s.Name, s.Email, s.Age, s.Weight, s.Height, s.UpdatedAt)
	if err != nil && isUniqueViolation(err) {
		return ErrEmailTaken
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
