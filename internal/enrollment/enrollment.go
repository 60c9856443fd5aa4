// Package enrollment reads enrollment records. Enrollments are managed by an
// external system; this service only ever asks whether a student holds an
// active one.
package enrollment

import "time"

// Enrollment grants a student permission to check in until EndDate, unless
// canceled earlier.
type Enrollment struct {
	ID         int64
	StudentID  int64
	EndDate    time.Time
	CanceledAt *time.Time
}

// Active reports whether the enrollment permits check-ins at the given time.
func (e Enrollment) Active(now time.Time) bool {
	return e.CanceledAt == nil && !e.EndDate.Before(now)
}
