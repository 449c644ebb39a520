package domain

import (
	"context"
	"time"
)

// Rating score bounds.
const (
	MinRatingScore = 1
	MaxRatingScore = 5
)

// Rating is a student's one-time rating of an attended event. Ratings are
// immutable once created.
type Rating struct {
	ID          string    `json:"id"`
	EventID     string    `json:"event_id"`
	StudentID   string    `json:"student_id"`
	StudentName string    `json:"student_name"`
	Score       int       `json:"rating"`
	Feedback    *string   `json:"feedback,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewRating returns a new Rating.
func NewRating(id, eventID, studentID, studentName string, score int, feedback *string, now time.Time) *Rating {
	return &Rating{
		ID:          id,
		EventID:     eventID,
		StudentID:   studentID,
		StudentName: studentName,
		Score:       score,
		Feedback:    feedback,
		CreatedAt:   now,
	}
}

// RatingRepository defines storage operations for ratings.
type RatingRepository interface {
	// CreateAndRecompute inserts the rating and recomputes the event's
	// rating_average (mean of all ratings, rounded to 2 decimals) and
	// rating_count in one transaction. Returns ErrConflict if the student
	// already rated the event.
	CreateAndRecompute(ctx context.Context, rating *Rating) error
	GetByEventAndStudent(ctx context.Context, eventID, studentID string) (*Rating, error)
	// ListByEventID returns ratings ordered by creation time descending.
	ListByEventID(ctx context.Context, eventID string) ([]*Rating, error)
}

// RatingService defines the rating operations.
type RatingService interface {
	Rate(ctx context.Context, studentID, eventID string, score int, feedback *string) (*Rating, error)
	ListForEvent(ctx context.Context, eventID string) ([]*Rating, error)
}
