package domain

import (
	"context"
	"time"
)

// Registration represents a student's registration for an event. StudentName
// and EventTitle are snapshots taken at registration time so certificates do
// not change when the event or profile is edited later. CheckinToken is the
// capability used to mark attendance (the QR code payload).
type Registration struct {
	ID                string     `json:"id"`
	StudentID         string     `json:"student_id"`
	StudentName       string     `json:"student_name"`
	EventID           string     `json:"event_id"`
	EventTitle        string     `json:"event_title"`
	CheckinToken      string     `json:"qr_code_data"`
	Attended          bool       `json:"attendance_marked"`
	AttendanceTime    *time.Time `json:"attendance_time,omitempty"`
	CertificateIssued bool       `json:"certificate_issued"`
	CreatedAt         time.Time  `json:"created_at"`
}

// NewRegistration returns a new, not-yet-attended Registration.
func NewRegistration(id, studentID, studentName, eventID, eventTitle, checkinToken string, now time.Time) *Registration {
	return &Registration{
		ID:           id,
		StudentID:    studentID,
		StudentName:  studentName,
		EventID:      eventID,
		EventTitle:   eventTitle,
		CheckinToken: checkinToken,
		CreatedAt:    now,
	}
}

// RegistrationRepository defines storage operations for registrations.
type RegistrationRepository interface {
	// Book atomically validates and creates the registration: the event row
	// is locked, the (student_id, event_id) uniqueness and the capacity
	// ceiling are checked, the row inserted, and registration_count
	// incremented, all in one transaction. Returns ErrNotFound,
	// ErrConflict, or ErrCapacityExceeded accordingly.
	Book(ctx context.Context, reg *Registration) error
	// Cancel atomically deletes the registration and decrements the
	// event's registration_count.
	Cancel(ctx context.Context, registrationID, eventID string) error
	GetByID(ctx context.Context, id string) (*Registration, error)
	GetByToken(ctx context.Context, checkinToken string) (*Registration, error)
	GetByEventAndStudent(ctx context.Context, eventID, studentID string) (*Registration, error)
	ListByStudentID(ctx context.Context, studentID string) ([]*Registration, error)
	ListByEventID(ctx context.Context, eventID string) ([]*Registration, error)
	// MarkAttended sets attended and the attendance time. Returns
	// ErrConflict if attendance was already marked.
	MarkAttended(ctx context.Context, id string, at time.Time) error
}

// RegistrationService defines the registration ledger operations.
type RegistrationService interface {
	Register(ctx context.Context, studentID, eventID string) (*Registration, error)
	Cancel(ctx context.Context, registrationID, studentID string) error
	ListForStudent(ctx context.Context, studentID string) ([]*Registration, error)
	ListForEvent(ctx context.Context, eventID, organizerID string) ([]*Registration, error)
}
