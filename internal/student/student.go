// Package student implements CRUD over student profiles with
// email-uniqueness enforcement.
package student

import (
	"errors"
	"time"
)

// Error messages are part of the public API contract and must match the
// responses of the original service byte for byte.
var (
	ErrAlreadyExists = errors.New("Student already exists.")
	ErrEmailTaken    = errors.New("A student with this email already exists")
	ErrNotFound      = errors.New("Student not found")
)

// Student is a gym member profile.
type Student struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Age       int       `json:"age"`
	Weight    float64   `json:"weight"`
	Height    float64   `json:"height"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// Profile carries the fields required to create a student.
type Profile struct {
	Name   string
	Email  string
	Age    int
	Weight float64
	Height float64
}

// Patch is a partial profile update. Nil fields are left untouched.
type Patch struct {
	Name   *string
	Email  *string
	Age    *int
	Weight *float64
	Height *float64
}

// Apply overwrites the student's fields with the patch's present values.
func (p Patch) Apply(s *Student) {
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.Email != nil {
		s.Email = *p.Email
	}
	if p.Age != nil {
		s.Age = *p.Age
	}
	if p.Weight != nil {
		s.Weight = *p.Weight
	}
	if p.Height != nil {
		s.Height = *p.Height
	}
}
