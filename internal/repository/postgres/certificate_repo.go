package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"campusevents/internal/domain"
)

type certificateRepository struct {
	DB *sql.DB
}

func NewCertificateRepository(db *sql.DB) domain.CertificateRepository {
	return &certificateRepository{
		DB: db,
	}
}

const certificateColumns = `id, registration_id, student_id, student_name, event_id, event_title,
		issued_date, data`

func scanCertificate(row rowScanner) (*domain.Certificate, error) {
	cert := &domain.Certificate{}
	err := row.Scan(
		&cert.ID, &cert.RegistrationID, &cert.StudentID, &cert.StudentName,
		&cert.EventID, &cert.EventTitle, &cert.IssuedDate, &cert.Data,
	)
	if err != nil {
		return nil, err
	}
	return cert, nil
}

// CreateAndMarkIssued inserts the certificate and flips the registration's
// certificate_issued flag in one transaction, so the flag and the row never
// diverge on a partial write. The unique index on registration_id enforces
// one certificate per registration.
func (r *certificateRepository) CreateAndMarkIssued(ctx context.Context, cert *domain.Certificate) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO certificates (id, registration_id, student_id, student_name, event_id,
			event_title, issued_date, data)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		cert.ID, cert.RegistrationID, cert.StudentID, cert.StudentName,
		cert.EventID, cert.EventTitle, cert.IssuedDate, cert.Data,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			err = domain.ErrConflict
			return err
		}
		return fmt.Errorf("insert certificate: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE registrations SET certificate_issued = TRUE WHERE id = $1`,
		cert.RegistrationID,
	)
	if err != nil {
		return fmt.Errorf("mark certificate issued: %w", err)
	}

	return tx.Commit()
}

func (r *certificateRepository) GetByRegistrationID(ctx context.Context, registrationID string) (*domain.Certificate, error) {
	query := `SELECT ` + certificateColumns + ` FROM certificates WHERE registration_id = $1`
	cert, err := scanCertificate(r.DB.QueryRowContext(ctx, query, registrationID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return cert, nil
}

func (r *certificateRepository) ListByStudentID(ctx context.Context, studentID string) ([]*domain.Certificate, error) {
	query := `SELECT ` + certificateColumns + ` FROM certificates WHERE student_id = $1 ORDER BY issued_date DESC`
	rows, err := r.DB.QueryContext(ctx, query, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var certs []*domain.Certificate
	for rows.Next() {
		cert, err := scanCertificate(rows)
		if err != nil {
			return nil, err
		}
		certs = append(certs, cert)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if certs == nil {
		certs = []*domain.Certificate{}
	}
	return certs, nil
}
