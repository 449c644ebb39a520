package domain

import "context"

// StudentDashboard summarizes a student's participation.
type StudentDashboard struct {
	TotalEventsRegistered int `json:"total_events_registered"`
	AttendedEvents        int `json:"attended_events"`
	CertificatesEarned    int `json:"certificates_earned"`
	UpcomingEvents        int `json:"upcoming_events"`
}

// TopEvent is an entry in the organizer's top-events list.
type TopEvent struct {
	EventID       string  `json:"event_id"`
	Title         string  `json:"title"`
	Registrations int     `json:"registrations"`
	Rating        float64 `json:"rating"`
}

// OrganizerAnalytics summarizes an organizer's events.
type OrganizerAnalytics struct {
	TotalEvents        int        `json:"total_events"`
	TotalRegistrations int        `json:"total_registrations"`
	TotalAttendees     int        `json:"total_attendees"`
	UpcomingEvents     int        `json:"upcoming_events"`
	PastEvents         int        `json:"past_events"`
	AverageRating      float64    `json:"average_rating"`
	TopEvents          []TopEvent `json:"top_events"`
}

// AnalyticsService computes dashboard summaries.
type AnalyticsService interface {
	StudentDashboard(ctx context.Context, studentID string) (*StudentDashboard, error)
	OrganizerAnalytics(ctx context.Context, organizerID string) (*OrganizerAnalytics, error)
}
