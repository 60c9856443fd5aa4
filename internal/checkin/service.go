package checkin

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"gympoint/internal/enrollment"
	"gympoint/internal/metrics"
	"gympoint/internal/queue"
)

// Service orchestrates the eligibility policy and check-in persistence.
type Service struct {
	repo        Repository
	enrollments enrollment.Repository
	policy      *Policy
	queue       queue.Queue
	logger      zerolog.Logger

	// now is swappable for tests.
	now func() time.Time
}

// NewService creates a service. q may be nil when no worker is deployed.
func NewService(repo Repository, enrollments enrollment.Repository, policy *Policy, q queue.Queue, logger zerolog.Logger) *Service {
	return &Service{
		repo:        repo,
		enrollments: enrollments,
		policy:      policy,
		queue:       q,
		logger:      logger,
		now:         time.Now,
	}
}

// List returns the student's newest check-ins, capped at ListLimit, ordered
// newest-first. Requires an active enrollment.
func (s *Service) List(ctx context.Context, studentID int64) ([]Checkin, error) {
	enr, err := s.enrollments.FindActive(ctx, studentID, s.now())
	if err != nil {
		return nil, err
	}
	if enr == nil {
		return nil, ErrNotEnrolled
	}
	return s.repo.ListRecent(ctx, studentID, ListLimit)
}

// Create evaluates the eligibility policy and, when allowed, appends exactly
// one check-in stamped with the current time. Denials append nothing.
func (s *Service) Create(ctx context.Context, studentID int64) (Checkin, error) {
	now := s.now()
	if err := s.policy.CanCheckIn(ctx, studentID, now); err != nil {
		metrics.ObserveCheckin(denialResult(err))
		return Checkin{}, err
	}

	c, err := s.repo.Insert(ctx, Checkin{StudentID: studentID, CreatedAt: now})
	if err != nil {
		metrics.ObserveCheckin(denialResult(err))
		return Checkin{}, err
	}
	metrics.ObserveCheckin(metrics.ResultAllowed)
	s.logger.Info().Int64("student_id", studentID).Time("created_at", c.CreatedAt).Msg("checkin recorded")

	s.publish(ctx, c)
	return c, nil
}

// publish hands the event to the worker. Best effort: a queue failure never
// fails a recorded check-in.
func (s *Service) publish(ctx context.Context, c Checkin) {
	if s.queue == nil {
		return
	}
	body, err := json.Marshal(Event{StudentID: c.StudentID, CreatedAt: c.CreatedAt})
	if err != nil {
		return
	}
	if err := s.queue.Publish(ctx, queue.Message{Type: "checkin", Body: body}); err != nil {
		s.logger.Warn().Err(err).Int64("student_id", c.StudentID).Msg("queue publish failed")
	}
}

func denialResult(err error) string {
	switch {
	case errors.Is(err, ErrNotEnrolled):
		return metrics.ResultNotEnrolled
	case errors.Is(err, ErrAlreadyCheckedIn):
		return metrics.ResultDailyLimit
	case errors.Is(err, ErrWeeklyLimit):
		return metrics.ResultWeeklyLimit
	default:
		return metrics.ResultError
	}
}
