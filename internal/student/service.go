package student

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Service orchestrates profile creation and partial updates.
type Service struct {
	repo   Repository
	logger zerolog.Logger
}

// NewService creates a service over the given repository.
func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Create registers a new student. The email must not already be taken.
func (s *Service) Create(ctx context.Context, p Profile) (*Student, error) {
	existing, err := s.repo.GetByEmail(ctx, p.Email)
	if err != nil {
		return nil, fmt.Errorf("check existing student: %w", err)
	}
	if existing != nil {
		return nil, ErrAlreadyExists
	}

	st := &Student{
		Name:   p.Name,
		Email:  p.Email,
		Age:    p.Age,
		Weight: p.Weight,
		Height: p.Height,
	}
	if err := s.repo.Create(ctx, st); err != nil {
		return nil, err
	}
	s.logger.Info().Int64("student_id", st.ID).Str("email", st.Email).Msg("student created")
	return st, nil
}

// Update applies a partial patch to an existing student. A changed email is
// re-checked for uniqueness; keeping the current email is never a conflict.
func (s *Service) Update(ctx context.Context, id int64, patch Patch) (*Student, error) {
	st, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch student: %w", err)
	}
	if st == nil {
		return nil, ErrNotFound
	}

	if patch.Email != nil && *patch.Email != st.Email {
		existing, err := s.repo.GetByEmail(ctx, *patch.Email)
		if err != nil {
			return nil, fmt.Errorf("check email availability: %w", err)
		}
		if existing != nil {
			return nil, ErrEmailTaken
		}
	}

	patch.Apply(st)
	if err := s.repo.Update(ctx, st); err != nil {
		return nil, err
	}
	s.logger.Info().Int64("student_id", st.ID).Msg("student updated")
	return st, nil
}
