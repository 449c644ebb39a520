package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"campusevents/internal/domain"
)

type ratingRepository struct {
	DB *sql.DB
}

func NewRatingRepository(db *sql.DB) domain.RatingRepository {
	return &ratingRepository{
		DB: db,
	}
}

const ratingColumns = `id, event_id, student_id, student_name, score, feedback, created_at`

func scanRating(row rowScanner) (*domain.Rating, error) {
	rating := &domain.Rating{}
	var feedback sql.NullString
	err := row.Scan(
		&rating.ID, &rating.EventID, &rating.StudentID, &rating.StudentName,
		&rating.Score, &feedback, &rating.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if feedback.Valid {
		f := feedback.String
		rating.Feedback = &f
	}
	return rating, nil
}

func feedbackArg(feedback *string) sql.NullString {
	if feedback == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *feedback, Valid: true}
}

// CreateAndRecompute inserts the rating and recomputes the event's
// aggregates from the full rating set in one transaction. The event row is
// locked first so concurrent raters serialize and no update is lost. The
// average is the arithmetic mean rounded to 2 decimal places.
func (r *ratingRepository) CreateAndRecompute(ctx context.Context, rating *domain.Rating) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var eventID string
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM events WHERE id = $1 FOR UPDATE`, rating.EventID,
	).Scan(&eventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = domain.ErrNotFound
			return err
		}
		return fmt.Errorf("lock event row: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO ratings (id, event_id, student_id, student_name, score, feedback, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rating.ID, rating.EventID, rating.StudentID, rating.StudentName,
		rating.Score, feedbackArg(rating.Feedback), rating.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			err = domain.ErrConflict
			return err
		}
		return fmt.Errorf("insert rating: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE events
		SET rating_average = (SELECT ROUND(AVG(score)::numeric, 2) FROM ratings WHERE event_id = $1),
			rating_count = (SELECT COUNT(*) FROM ratings WHERE event_id = $1)
		WHERE id = $1`,
		rating.EventID,
	)
	if err != nil {
		return fmt.Errorf("recompute rating aggregates: %w", err)
	}

	return tx.Commit()
}

func (r *ratingRepository) GetByEventAndStudent(ctx context.Context, eventID, studentID string) (*domain.Rating, error) {
	query := `SELECT ` + ratingColumns + ` FROM ratings WHERE event_id = $1 AND student_id = $2`
	rating, err := scanRating(r.DB.QueryRowContext(ctx, query, eventID, studentID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return rating, nil
}

func (r *ratingRepository) ListByEventID(ctx context.Context, eventID string) ([]*domain.Rating, error) {
	query := `SELECT ` + ratingColumns + ` FROM ratings WHERE event_id = $1 ORDER BY created_at DESC`
	rows, err := r.DB.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ratings []*domain.Rating
	for rows.Next() {
		rating, err := scanRating(rows)
		if err != nil {
			return nil, err
		}
		ratings = append(ratings, rating)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if ratings == nil {
		ratings = []*domain.Rating{}
	}
	return ratings, nil
}
