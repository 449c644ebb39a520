package domain

import (
	"context"
	"time"
)

// Certificate is an immutable attendance certificate, one per registration.
// StudentName and EventTitle are denormalized at issuance time; later edits
// to the event or profile never alter an issued certificate. Data is the
// opaque artifact produced by the renderer.
type Certificate struct {
	ID             string    `json:"id"`
	RegistrationID string    `json:"registration_id"`
	StudentID      string    `json:"student_id"`
	StudentName    string    `json:"student_name"`
	EventID        string    `json:"event_id"`
	EventTitle     string    `json:"event_title"`
	IssuedDate     time.Time `json:"issued_date"`
	Data           []byte    `json:"certificate_data"`
}

// NewCertificate returns a new Certificate snapshot.
func NewCertificate(id, registrationID, studentID, studentName, eventID, eventTitle string, issued time.Time, data []byte) *Certificate {
	return &Certificate{
		ID:             id,
		RegistrationID: registrationID,
		StudentID:      studentID,
		StudentName:    studentName,
		EventID:        eventID,
		EventTitle:     eventTitle,
		IssuedDate:     issued,
		Data:           data,
	}
}

// CertificateRenderer renders a certificate artifact for the given fields.
// The returned bytes are opaque to the rest of the system.
type CertificateRenderer interface {
	Render(studentName, eventTitle, formattedDate string) ([]byte, error)
}

// CertificateRepository defines storage operations for certificates.
type CertificateRepository interface {
	// CreateAndMarkIssued inserts the certificate and sets the
	// registration's certificate_issued flag in one transaction.
	CreateAndMarkIssued(ctx context.Context, cert *Certificate) error
	GetByRegistrationID(ctx context.Context, registrationID string) (*Certificate, error)
	ListByStudentID(ctx context.Context, studentID string) ([]*Certificate, error)
}

// AttendanceService advances a registration through check-in and
// certificate issuance. Transitions are one-directional:
// registered, then attended, then certified.
type AttendanceService interface {
	// MarkAttendance marks the registration identified by the check-in
	// token as attended and returns the student's name.
	MarkAttendance(ctx context.Context, checkinToken, organizerID string) (studentName string, err error)
	// IssueCertificate issues a certificate for an attended registration.
	// Re-issuance returns the stored certificate unchanged.
	IssueCertificate(ctx context.Context, registrationID, organizerID string) (*Certificate, error)
	ListCertificatesForStudent(ctx context.Context, studentID string) ([]*Certificate, error)
}
