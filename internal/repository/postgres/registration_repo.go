package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"campusevents/internal/domain"
)

const uniqueViolation = pq.ErrorCode("23505")

type registrationRepository struct {
	DB *sql.DB
}

func NewRegistrationRepository(db *sql.DB) domain.RegistrationRepository {
	return &registrationRepository{
		DB: db,
	}
}

const registrationColumns = `id, student_id, student_name, event_id, event_title, checkin_token,
		attended, attendance_time, certificate_issued, created_at`

func scanRegistration(row rowScanner) (*domain.Registration, error) {
	reg := &domain.Registration{}
	var attendanceTime sql.NullTime
	err := row.Scan(
		&reg.ID, &reg.StudentID, &reg.StudentName, &reg.EventID, &reg.EventTitle,
		&reg.CheckinToken, &reg.Attended, &attendanceTime, &reg.CertificateIssued,
		&reg.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if attendanceTime.Valid {
		t := attendanceTime.Time
		reg.AttendanceTime = &t
	}
	return reg, nil
}

// Book validates and creates the registration in one transaction.
//
// The event row is locked with SELECT ... FOR UPDATE before the duplicate
// and capacity checks. Concurrent registrations for the same event
// serialize on that lock, so two requests for the last open seat cannot
// both pass the capacity check, and read-modify-write on the counter is
// safe. The unique index on (student_id, event_id) is the backstop for the
// duplicate check.
func (r *registrationRepository) Book(ctx context.Context, reg *domain.Registration) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var capacity sql.NullInt64
	var registrationCount int
	err = tx.QueryRowContext(ctx,
		`SELECT capacity, registration_count FROM events WHERE id = $1 FOR UPDATE`,
		reg.EventID,
	).Scan(&capacity, &registrationCount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = domain.ErrNotFound
			return err
		}
		return fmt.Errorf("lock event row: %w", err)
	}

	var existing int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM registrations WHERE event_id = $1 AND student_id = $2`,
		reg.EventID, reg.StudentID,
	).Scan(&existing)
	if err != nil {
		return fmt.Errorf("check duplicate: %w", err)
	}
	if existing > 0 {
		err = domain.ErrConflict
		return err
	}

	if capacity.Valid && int64(registrationCount) >= capacity.Int64 {
		err = domain.ErrCapacityExceeded
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO registrations (id, student_id, student_name, event_id, event_title,
			checkin_token, attended, attendance_time, certificate_issued, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE, NULL, FALSE, $7)`,
		reg.ID, reg.StudentID, reg.StudentName, reg.EventID, reg.EventTitle,
		reg.CheckinToken, reg.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			err = domain.ErrConflict
			return err
		}
		return fmt.Errorf("insert registration: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE events SET registration_count = registration_count + 1 WHERE id = $1`,
		reg.EventID,
	)
	if err != nil {
		return fmt.Errorf("increment registration_count: %w", err)
	}

	return tx.Commit()
}

// Cancel hard-deletes the registration and decrements registration_count.
// The event row lock serializes against concurrent Book calls, and the
// deleted row accounts for at least one prior increment, so the counter
// cannot go negative through this path.
func (r *registrationRepository) Cancel(ctx context.Context, registrationID, eventID string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `SELECT 1 FROM events WHERE id = $1 FOR UPDATE`, eventID)
	if err != nil {
		return fmt.Errorf("lock event row: %w", err)
	}

	var result sql.Result
	result, err = tx.ExecContext(ctx, `DELETE FROM registrations WHERE id = $1`, registrationID)
	if err != nil {
		return fmt.Errorf("delete registration: %w", err)
	}
	var affected int64
	affected, err = result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		err = domain.ErrNotFound
		return err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE events SET registration_count = registration_count - 1 WHERE id = $1`,
		eventID,
	)
	if err != nil {
		return fmt.Errorf("decrement registration_count: %w", err)
	}

	return tx.Commit()
}

func (r *registrationRepository) GetByID(ctx context.Context, id string) (*domain.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE id = $1`
	return r.getOne(ctx, query, id)
}

func (r *registrationRepository) GetByToken(ctx context.Context, checkinToken string) (*domain.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE checkin_token = $1`
	return r.getOne(ctx, query, checkinToken)
}

func (r *registrationRepository) GetByEventAndStudent(ctx context.Context, eventID, studentID string) (*domain.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE event_id = $1 AND student_id = $2`
	return r.getOne(ctx, query, eventID, studentID)
}

func (r *registrationRepository) getOne(ctx context.Context, query string, args ...any) (*domain.Registration, error) {
	reg, err := scanRegistration(r.DB.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return reg, nil
}

func (r *registrationRepository) ListByStudentID(ctx context.Context, studentID string) ([]*domain.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE student_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, studentID)
}

func (r *registrationRepository) ListByEventID(ctx context.Context, eventID string) ([]*domain.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE event_id = $1 ORDER BY created_at ASC`
	return r.list(ctx, query, eventID)
}

func (r *registrationRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Registration, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var regs []*domain.Registration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		regs = append(regs, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if regs == nil {
		regs = []*domain.Registration{}
	}
	return regs, nil
}

// MarkAttended is guarded on attended = FALSE so a concurrent double scan of
// the same token results in exactly one transition and one ErrConflict.
func (r *registrationRepository) MarkAttended(ctx context.Context, id string, at time.Time) error {
	result, err := r.DB.ExecContext(ctx,
		`UPDATE registrations SET attended = TRUE, attendance_time = $2 WHERE id = $1 AND attended = FALSE`,
		id, at,
	)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrConflict
	}
	return nil
}
