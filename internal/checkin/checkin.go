// Package checkin implements gym check-in recording and the eligibility
// policy that gates it: one check-in per day, five per calendar week, active
// enrollment required.
package checkin

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// WeeklyLimit is the maximum number of check-ins allowed inside one
// calendar week.
const WeeklyLimit = 5

// ListLimit caps how many check-ins a listing returns.
const ListLimit = 20

// Error messages are part of the public API contract and must match the
// responses of the original service byte for byte.
var (
	ErrNotEnrolled      = errors.New("Student is not enrolled")
	ErrAlreadyCheckedIn = errors.New("Already checked in today")
	ErrWeeklyLimit      = errors.New("Checkins limit reached")
)

// Checkin is a timestamped attendance event. Records are append-only.
type Checkin struct {
	ID        uuid.UUID `json:"-"`
	StudentID int64     `json:"studentId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Event is the queue message body published after a successful check-in.
type Event struct {
	StudentID int64     `json:"student_id"`
	CreatedAt time.Time `json:"created_at"`
}
