package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"campusevents/internal/domain"
)

// checkinTokenPrefix marks check-in tokens so scanned payloads are
// recognizable. The random suffix is the capability.
const checkinTokenPrefix = "chk-"

func newCheckinToken() string {
	return checkinTokenPrefix + uuid.New().String()
}

type registrationService struct {
	registrationRepo domain.RegistrationRepository
	eventRepo        domain.EventRepository
	userRepo         domain.UserRepository
	contextTimeout   time.Duration
}

// NewRegistrationService creates the registration ledger service.
func NewRegistrationService(
	registrationRepo domain.RegistrationRepository,
	eventRepo domain.EventRepository,
	userRepo domain.UserRepository,
	timeout time.Duration,
) domain.RegistrationService {
	return &registrationService{
		registrationRepo: registrationRepo,
		eventRepo:        eventRepo,
		userRepo:         userRepo,
		contextTimeout:   timeout,
	}
}

// Register creates a registration for the student. The duplicate and
// capacity checks run inside the repository's booking transaction, so two
// concurrent requests for the last open seat cannot both succeed.
func (s *registrationService) Register(ctx context.Context, studentID, eventID string) (*domain.Registration, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}

	student, err := s.userRepo.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get student: %w", err)
	}

	reg := domain.NewRegistration(
		uuid.New().String(),
		student.ID, student.Name,
		event.ID, event.Title,
		newCheckinToken(),
		time.Now().UTC(),
	)
	if err := s.registrationRepo.Book(ctx, reg); err != nil {
		if errors.Is(err, domain.ErrNotFound) ||
			errors.Is(err, domain.ErrConflict) ||
			errors.Is(err, domain.ErrCapacityExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("book registration: %w", err)
	}
	return reg, nil
}

// Cancel hard-deletes the registration and releases its seat. Only the
// owning student may cancel, and only before attendance is marked.
func (s *registrationService) Cancel(ctx context.Context, registrationID, studentID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	reg, err := s.registrationRepo.GetByID(ctx, registrationID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get registration: %w", err)
	}
	if reg.StudentID != studentID {
		return domain.ErrForbidden
	}
	if reg.Attended {
		return domain.ErrConflict
	}

	if err := s.registrationRepo.Cancel(ctx, reg.ID, reg.EventID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("cancel registration: %w", err)
	}
	return nil
}

func (s *registrationService) ListForStudent(ctx context.Context, studentID string) ([]*domain.Registration, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	regs, err := s.registrationRepo.ListByStudentID(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	return regs, nil
}

// ListForEvent requires the requester to own the event.
func (s *registrationService) ListForEvent(ctx context.Context, eventID, organizerID string) ([]*domain.Registration, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event.OrganizerID != organizerID {
		return nil, domain.ErrForbidden
	}

	regs, err := s.registrationRepo.ListByEventID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	return regs, nil
}
