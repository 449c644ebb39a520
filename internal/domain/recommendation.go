package domain

import "context"

// ScoredEvent pairs a candidate event with its relevance score in [0,100].
type ScoredEvent struct {
	Event *Event  `json:"event"`
	Score float64 `json:"score"`
}

// RecommendationService scores upcoming events for a student. Events the
// student is already registered for never appear in the result.
type RecommendationService interface {
	Recommend(ctx context.Context, studentID string) ([]*ScoredEvent, error)
}
