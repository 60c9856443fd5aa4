package checkin

import (
	"context"
	"time"

	"gympoint/internal/enrollment"
)

// Policy decides whether a student may check in. Checks run in a fixed
// order and the first failing check wins; the policy itself never writes.
type Policy struct {
	enrollments enrollment.Repository
	checkins    Repository
	weekStart   time.Weekday
}

// NewPolicy creates a policy. weekStart pins the first day of the weekly
// window; the original service used Sunday.
func NewPolicy(enrollments enrollment.Repository, checkins Repository, weekStart time.Weekday) *Policy {
	return &Policy{enrollments: enrollments, checkins: checkins, weekStart: weekStart}
}

// CanCheckIn returns nil when a check-in may be recorded at now, or one of
// ErrNotEnrolled, ErrAlreadyCheckedIn, ErrWeeklyLimit.
func (p *Policy) CanCheckIn(ctx context.Context, studentID int64, now time.Time) error {
	enr, err := p.enrollments.FindActive(ctx, studentID, now)
	if err != nil {
		return err
	}
	if enr == nil {
		return ErrNotEnrolled
	}

	today, err := p.checkins.CountSince(ctx, studentID, StartOfDay(now))
	if err != nil {
		return err
	}
	if today >= 1 {
		return ErrAlreadyCheckedIn
	}

	weekStart := StartOfWeek(now, p.weekStart)
	week, err := p.checkins.CountInRange(ctx, studentID, weekStart, EndOfWeek(now, p.weekStart))
	if err != nil {
		return err
	}
	if week >= WeeklyLimit {
		return ErrWeeklyLimit
	}
	return nil
}

// StartOfDay returns midnight of t's calendar day, in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DayKey names the calendar day a check-in belongs to, derived from the same
// boundary StartOfDay draws. The uniqueness backstop in the checkins table
// partitions by this value, so it can never disagree with the daily-limit
// check.
func DayKey(t time.Time) string {
	return StartOfDay(t).Format("2006-01-02")
}

// StartOfWeek returns midnight of the most recent weekStart day at or
// before t.
func StartOfWeek(t time.Time, weekStart time.Weekday) time.Time {
	diff := (int(t.Weekday()) - int(weekStart) + 7) % 7
	return StartOfDay(t).AddDate(0, 0, -diff)
}

// EndOfWeek returns the last instant of the week containing t, so the
// inclusive range [StartOfWeek, EndOfWeek] covers exactly seven days.
func EndOfWeek(t time.Time, weekStart time.Weekday) time.Time {
	return StartOfWeek(t, weekStart).AddDate(0, 0, 7).Add(-time.Nanosecond)
}
