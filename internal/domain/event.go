package domain

import (
	"context"
	"time"
)

// DefaultCategory is assigned when an event is created without a category.
const DefaultCategory = "General"

// Event represents an organizer-run event.
// Capacity is nil when registrations are unlimited. The aggregate fields
// (RegistrationCount, RatingCount, RatingAverage) are mutated only by the
// registration and rating repositories.
type Event struct {
	ID                string    `json:"id"`
	Title             string    `json:"title"`
	Description       string    `json:"description"`
	Date              time.Time `json:"date"`
	Venue             string    `json:"venue"`
	Fee               float64   `json:"fee"`
	College           string    `json:"college"`
	Category          string    `json:"category"`
	Capacity          *int      `json:"max_participants,omitempty"`
	OrganizerID       string    `json:"organizer_id"`
	OrganizerName     string    `json:"organizer_name"`
	RegistrationCount int       `json:"current_registrations"`
	RatingCount       int       `json:"total_ratings"`
	RatingAverage     float64   `json:"average_rating"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// EventFields holds the organizer-editable fields of an event. Update is a
// full-field overwrite with these values.
type EventFields struct {
	Title       string
	Description string
	Date        time.Time
	Venue       string
	Fee         float64
	College     string
	Category    string
	Capacity    *int
}

// NewEvent returns a new Event owned by the given organizer, with zeroed
// aggregates and the default category applied when none is set.
func NewEvent(id, organizerID, organizerName string, fields EventFields, now time.Time) *Event {
	category := fields.Category
	if category == "" {
		category = DefaultCategory
	}
	return &Event{
		ID:            id,
		Title:         fields.Title,
		Description:   fields.Description,
		Date:          fields.Date,
		Venue:         fields.Venue,
		Fee:           fields.Fee,
		College:       fields.College,
		Category:      category,
		Capacity:      fields.Capacity,
		OrganizerID:   organizerID,
		OrganizerName: organizerName,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// EventFilter narrows catalog listings. Search is a case-insensitive
// substring match over title and description; College is an equality match.
type EventFilter struct {
	Search  string
	College string
}

// EventRepository defines the interface for event storage.
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	// List returns events matching the filter, ordered by date ascending.
	List(ctx context.Context, filter EventFilter) ([]*Event, error)
	// ListByOrganizerID returns the organizer's events, date descending.
	ListByOrganizerID(ctx context.Context, organizerID string) ([]*Event, error)
	// ListUpcoming returns events dated strictly after the given time,
	// excluding the given ids, ordered by date ascending.
	ListUpcoming(ctx context.Context, after time.Time, excludeIDs []string) ([]*Event, error)
	Update(ctx context.Context, event *Event) error
	// DeleteCascade removes the event together with all registrations,
	// ratings, and certificates that reference it, in one transaction.
	DeleteCascade(ctx context.Context, id string) error
}

// EventService defines the catalog operations.
type EventService interface {
	Create(ctx context.Context, organizerID string, fields EventFields) (*Event, error)
	Get(ctx context.Context, id string) (*Event, error)
	List(ctx context.Context, filter EventFilter) ([]*Event, error)
	ListByOrganizer(ctx context.Context, organizerID string) ([]*Event, error)
	Update(ctx context.Context, eventID, organizerID string, fields EventFields) (*Event, error)
	Delete(ctx context.Context, eventID, organizerID string) error
}
