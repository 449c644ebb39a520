package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"campusevents/internal/domain"
)

// maxRecommendations caps the recommendation list length.
const maxRecommendations = 10

// Score weights. Each term contributes its ceiling at most, summing to 100.
const (
	categoryWeight   = 40.0
	collegeBonus     = 30.0
	ratingWeight     = 20.0
	popularityWeight = 10.0

	// popularityScale is the registration count at which the popularity
	// term saturates.
	popularityScale = 50.0
)

type recommendationService struct {
	eventRepo        domain.EventRepository
	registrationRepo domain.RegistrationRepository
	userRepo         domain.UserRepository
	contextTimeout   time.Duration
}

// NewRecommendationService creates the recommendation scorer.
func NewRecommendationService(
	eventRepo domain.EventRepository,
	registrationRepo domain.RegistrationRepository,
	userRepo domain.UserRepository,
	timeout time.Duration,
) domain.RecommendationService {
	return &recommendationService{
		eventRepo:        eventRepo,
		registrationRepo: registrationRepo,
		userRepo:         userRepo,
		contextTimeout:   timeout,
	}
}

// Recommend scores future events the student has not registered for and
// returns the top ten by descending score.
func (s *recommendationService) Recommend(ctx context.Context, studentID string) ([]*domain.ScoredEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	student, err := s.userRepo.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get student: %w", err)
	}

	regs, err := s.registrationRepo.ListByStudentID(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}

	registeredIDs := make([]string, 0, len(regs))
	categoryCounts := make(map[string]int)
	totalRegistrations := 0
	for _, reg := range regs {
		registeredIDs = append(registeredIDs, reg.EventID)
		event, err := s.eventRepo.GetByID(ctx, reg.EventID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				// Registration outlived its event; skip it for preferences.
				continue
			}
			return nil, fmt.Errorf("get registered event: %w", err)
		}
		categoryCounts[event.Category]++
		totalRegistrations++
	}

	candidates, err := s.eventRepo.ListUpcoming(ctx, time.Now().UTC(), registeredIDs)
	if err != nil {
		return nil, fmt.Errorf("list upcoming events: %w", err)
	}

	return rankEvents(candidates, student.College, categoryCounts, totalRegistrations), nil
}

// scoreEvent computes the relevance score in [0,100]:
// up to 40 for the share of the student's past registrations in the event's
// category, 30 for a same-college event, up to 20 scaled from the event's
// rating average, and up to 10 for popularity, saturating at 50
// registrations. Pure function: identical inputs give identical scores.
func scoreEvent(event *domain.Event, studentCollege string, categoryCounts map[string]int, totalRegistrations int) float64 {
	var score float64
	if totalRegistrations > 0 {
		if n, ok := categoryCounts[event.Category]; ok {
			score += categoryWeight * float64(n) / float64(totalRegistrations)
		}
	}
	if event.College == studentCollege {
		score += collegeBonus
	}
	score += ratingWeight * event.RatingAverage / float64(domain.MaxRatingScore)
	if event.RegistrationCount > 0 {
		score += popularityWeight * math.Min(float64(event.RegistrationCount)/popularityScale, 1)
	}
	return score
}

// rankEvents scores the candidates and returns the top entries by
// descending score. The sort is stable: ties keep the candidate order,
// which is the catalog's date-ascending listing.
func rankEvents(candidates []*domain.Event, studentCollege string, categoryCounts map[string]int, totalRegistrations int) []*domain.ScoredEvent {
	scored := make([]*domain.ScoredEvent, 0, len(candidates))
	for _, event := range candidates {
		scored = append(scored, &domain.ScoredEvent{
			Event: event,
			Score: scoreEvent(event, studentCollege, categoryCounts, totalRegistrations),
		})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if len(scored) > maxRecommendations {
		scored = scored[:maxRecommendations]
	}
	return scored
}
