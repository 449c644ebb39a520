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

// topEventsLimit caps the organizer's top-events list.
const topEventsLimit = 5

type analyticsService struct {
	eventRepo        domain.EventRepository
	registrationRepo domain.RegistrationRepository
	contextTimeout   time.Duration
}

// NewAnalyticsService creates the dashboard service.
func NewAnalyticsService(
	eventRepo domain.EventRepository,
	registrationRepo domain.RegistrationRepository,
	timeout time.Duration,
) domain.AnalyticsService {
	return &analyticsService{
		eventRepo:        eventRepo,
		registrationRepo: registrationRepo,
		contextTimeout:   timeout,
	}
}

func (s *analyticsService) StudentDashboard(ctx context.Context, studentID string) (*domain.StudentDashboard, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	regs, err := s.registrationRepo.ListByStudentID(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}

	dashboard := &domain.StudentDashboard{
		TotalEventsRegistered: len(regs),
	}
	now := time.Now().UTC()
	for _, reg := range regs {
		if reg.Attended {
			dashboard.AttendedEvents++
		}
		if reg.CertificateIssued {
			dashboard.CertificatesEarned++
		}
		if !reg.Attended {
			event, err := s.eventRepo.GetByID(ctx, reg.EventID)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					continue
				}
				return nil, fmt.Errorf("get event: %w", err)
			}
			if event.Date.After(now) {
				dashboard.UpcomingEvents++
			}
		}
	}
	return dashboard, nil
}

func (s *analyticsService) OrganizerAnalytics(ctx context.Context, organizerID string) (*domain.OrganizerAnalytics, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	events, err := s.eventRepo.ListByOrganizerID(ctx, organizerID)
	if err != nil {
		return nil, fmt.Errorf("list organizer events: %w", err)
	}

	analytics := &domain.OrganizerAnalytics{
		TotalEvents: len(events),
	}

	now := time.Now().UTC()
	var weightedRatingSum float64
	var ratingCount int
	for _, event := range events {
		analytics.TotalRegistrations += event.RegistrationCount
		if event.Date.After(now) {
			analytics.UpcomingEvents++
		} else {
			analytics.PastEvents++
		}
		weightedRatingSum += event.RatingAverage * float64(event.RatingCount)
		ratingCount += event.RatingCount

		regs, err := s.registrationRepo.ListByEventID(ctx, event.ID)
		if err != nil {
			return nil, fmt.Errorf("list event registrations: %w", err)
		}
		for _, reg := range regs {
			if reg.Attended {
				analytics.TotalAttendees++
			}
		}
	}
	if ratingCount > 0 {
		analytics.AverageRating = math.Round(weightedRatingSum/float64(ratingCount)*100) / 100
	}

	top := make([]*domain.Event, len(events))
	copy(top, events)
	sort.SliceStable(top, func(i, j int) bool {
		return top[i].RegistrationCount > top[j].RegistrationCount
	})
	if len(top) > topEventsLimit {
		top = top[:topEventsLimit]
	}
	analytics.TopEvents = make([]domain.TopEvent, 0, len(top))
	for _, event := range top {
		analytics.TopEvents = append(analytics.TopEvents, domain.TopEvent{
			EventID:       event.ID,
			Title:         event.Title,
			Registrations: event.RegistrationCount,
			Rating:        event.RatingAverage,
		})
	}
	return analytics, nil
}
