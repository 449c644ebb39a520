package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"campusevents/internal/domain"
)

// certificateDateLayout formats the event date printed on certificates.
const certificateDateLayout = "January 2, 2006"

type attendanceService struct {
	registrationRepo domain.RegistrationRepository
	eventRepo        domain.EventRepository
	certificateRepo  domain.CertificateRepository
	renderer         domain.CertificateRenderer
	contextTimeout   time.Duration
}

// NewAttendanceService creates the attendance and certification service.
func NewAttendanceService(
	registrationRepo domain.RegistrationRepository,
	eventRepo domain.EventRepository,
	certificateRepo domain.CertificateRepository,
	renderer domain.CertificateRenderer,
	timeout time.Duration,
) domain.AttendanceService {
	return &attendanceService{
		registrationRepo: registrationRepo,
		eventRepo:        eventRepo,
		certificateRepo:  certificateRepo,
		renderer:         renderer,
		contextTimeout:   timeout,
	}
}

// MarkAttendance looks up the registration by its check-in token and marks
// it attended. The token is the sole lookup key; only the organizer owning
// the referenced event may scan it, and each token transitions exactly once.
func (s *attendanceService) MarkAttendance(ctx context.Context, checkinToken, organizerID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	reg, err := s.registrationRepo.GetByToken(ctx, checkinToken)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("get registration by token: %w", err)
	}

	event, err := s.eventRepo.GetByID(ctx, reg.EventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("get event: %w", err)
	}
	if event.OrganizerID != organizerID {
		return "", domain.ErrForbidden
	}

	if reg.Attended {
		return "", domain.ErrConflict
	}
	if err := s.registrationRepo.MarkAttended(ctx, reg.ID, time.Now().UTC()); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return "", domain.ErrConflict
		}
		return "", fmt.Errorf("mark attended: %w", err)
	}
	return reg.StudentName, nil
}

// IssueCertificate renders and stores a certificate for an attended
// registration. Issuance is idempotent: if a certificate already exists it
// is returned unchanged, regardless of the certificate_issued flag, which
// also heals a flag left unset by a crash between the two writes.
func (s *attendanceService) IssueCertificate(ctx context.Context, registrationID, organizerID string) (*domain.Certificate, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	reg, err := s.registrationRepo.GetByID(ctx, registrationID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get registration: %w", err)
	}

	event, err := s.eventRepo.GetByID(ctx, reg.EventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event.OrganizerID != organizerID {
		return nil, domain.ErrForbidden
	}

	existing, err := s.certificateRepo.GetByRegistrationID(ctx, reg.ID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("get certificate: %w", err)
	}

	if !reg.Attended {
		return nil, fmt.Errorf("%w: attendance not marked", domain.ErrNotEligible)
	}

	data, err := s.renderer.Render(reg.StudentName, event.Title, event.Date.Format(certificateDateLayout))
	if err != nil {
		return nil, fmt.Errorf("%w: render certificate: %v", domain.ErrDependency, err)
	}

	cert := domain.NewCertificate(
		uuid.New().String(),
		reg.ID, reg.StudentID, reg.StudentName,
		reg.EventID, reg.EventTitle,
		time.Now().UTC(),
		data,
	)
	if err := s.certificateRepo.CreateAndMarkIssued(ctx, cert); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			// Lost a race with a concurrent issuance; return the winner's.
			winner, getErr := s.certificateRepo.GetByRegistrationID(ctx, reg.ID)
			if getErr != nil {
				return nil, fmt.Errorf("get certificate after conflict: %w", getErr)
			}
			return winner, nil
		}
		return nil, fmt.Errorf("store certificate: %w", err)
	}
	return cert, nil
}

func (s *attendanceService) ListCertificatesForStudent(ctx context.Context, studentID string) ([]*domain.Certificate, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	certs, err := s.certificateRepo.ListByStudentID(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("list certificates: %w", err)
	}
	return certs, nil
}
