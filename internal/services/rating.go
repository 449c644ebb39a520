package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"campusevents/internal/domain"
)

type ratingService struct {
	ratingRepo       domain.RatingRepository
	registrationRepo domain.RegistrationRepository
	eventRepo        domain.EventRepository
	userRepo         domain.UserRepository
	contextTimeout   time.Duration
}

// NewRatingService creates the rating service.
func NewRatingService(
	ratingRepo domain.RatingRepository,
	registrationRepo domain.RegistrationRepository,
	eventRepo domain.EventRepository,
	userRepo domain.UserRepository,
	timeout time.Duration,
) domain.RatingService {
	return &ratingService{
		ratingRepo:       ratingRepo,
		registrationRepo: registrationRepo,
		eventRepo:        eventRepo,
		userRepo:         userRepo,
		contextTimeout:   timeout,
	}
}

// Rate records a one-time rating for an event the student attended and
// recomputes the event's rating aggregates.
func (s *ratingService) Rate(ctx context.Context, studentID, eventID string, score int, feedback *string) (*domain.Rating, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if score < domain.MinRatingScore || score > domain.MaxRatingScore {
		return nil, fmt.Errorf("%w: score must be between %d and %d",
			domain.ErrInvalidInput, domain.MinRatingScore, domain.MaxRatingScore)
	}

	if _, err := s.eventRepo.GetByID(ctx, eventID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}

	reg, err := s.registrationRepo.GetByEventAndStudent(ctx, eventID, studentID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: must have attended the event", domain.ErrNotEligible)
		}
		return nil, fmt.Errorf("get registration: %w", err)
	}
	if !reg.Attended {
		return nil, fmt.Errorf("%w: must have attended the event", domain.ErrNotEligible)
	}

	if _, err := s.ratingRepo.GetByEventAndStudent(ctx, eventID, studentID); err == nil {
		return nil, domain.ErrConflict
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("get rating: %w", err)
	}

	student, err := s.userRepo.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get student: %w", err)
	}

	rating := domain.NewRating(
		uuid.New().String(),
		eventID, student.ID, student.Name,
		score, feedback,
		time.Now().UTC(),
	)
	if err := s.ratingRepo.CreateAndRecompute(ctx, rating); err != nil {
		if errors.Is(err, domain.ErrConflict) || errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("create rating: %w", err)
	}
	return rating, nil
}

func (s *ratingService) ListForEvent(ctx context.Context, eventID string) ([]*domain.Rating, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	ratings, err := s.ratingRepo.ListByEventID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list ratings: %w", err)
	}
	return ratings, nil
}
