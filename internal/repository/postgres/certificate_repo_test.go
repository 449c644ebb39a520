package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"campusevents/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

var certificateTestColumns = []string{
	"id", "registration_id", "student_id", "student_name", "event_id", "event_title",
	"issued_date", "data",
}

func sampleCertificate(id string) *domain.Certificate {
	return &domain.Certificate{
		ID:             id,
		RegistrationID: "reg-1",
		StudentID:      "stu-1",
		StudentName:    "Asha Rao",
		EventID:        "evt-1",
		EventTitle:     "Tech Symposium",
		IssuedDate:     time.Date(2026, 9, 12, 12, 0, 0, 0, time.UTC),
		Data:           []byte("certificate body"),
	}
}

func TestCertificateRepository_CreateAndMarkIssued(t *testing.T) {
	ctx := context.Background()

	t.Run("inserts and flips the flag", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		cert := sampleCertificate("cert-1")
		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO certificates`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE registrations SET certificate_issued = TRUE WHERE id = \$1`).
			WithArgs(cert.RegistrationID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		repo := NewCertificateRepository(db)
		require.NoError(t, repo.CreateAndMarkIssued(ctx, cert))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate registration", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO certificates`).
			WillReturnError(&pq.Error{Code: "23505"})
		mock.ExpectRollback()

		repo := NewCertificateRepository(db)
		err = repo.CreateAndMarkIssued(ctx, sampleCertificate("cert-1"))
		require.True(t, errors.Is(err, domain.ErrConflict))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("flag update failure rolls back", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO certificates`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE registrations SET certificate_issued = TRUE`).
			WillReturnError(sql.ErrConnDone)
		mock.ExpectRollback()

		repo := NewCertificateRepository(db)
		err = repo.CreateAndMarkIssued(ctx, sampleCertificate("cert-1"))
		require.Error(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCertificateRepository_GetByRegistrationID(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		want := sampleCertificate("cert-1")
		mock.ExpectQuery(`FROM certificates WHERE registration_id = \$1`).
			WithArgs("reg-1").
			WillReturnRows(sqlmock.NewRows(certificateTestColumns).AddRow(
				want.ID, want.RegistrationID, want.StudentID, want.StudentName,
				want.EventID, want.EventTitle, want.IssuedDate, want.Data,
			))

		repo := NewCertificateRepository(db)
		got, err := repo.GetByRegistrationID(ctx, "reg-1")
		require.NoError(t, err)
		require.Equal(t, want, got)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`FROM certificates WHERE registration_id = \$1`).
			WithArgs("reg-missing").
			WillReturnError(sql.ErrNoRows)

		repo := NewCertificateRepository(db)
		got, err := repo.GetByRegistrationID(ctx, "reg-missing")
		require.True(t, errors.Is(err, domain.ErrNotFound))
		require.Nil(t, got)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCertificateRepository_ListByStudentID(t *testing.T) {
	ctx := context.Background()

	t.Run("success empty", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`FROM certificates WHERE student_id = \$1 ORDER BY issued_date DESC`).
			WithArgs("stu-none").
			WillReturnRows(sqlmock.NewRows(certificateTestColumns))

		repo := NewCertificateRepository(db)
		got, err := repo.ListByStudentID(ctx, "stu-none")
		require.NoError(t, err)
		require.Equal(t, []*domain.Certificate{}, got)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success multiple", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		first := sampleCertificate("cert-2")
		second := sampleCertificate("cert-1")
		rows := sqlmock.NewRows(certificateTestColumns)
		for _, c := range []*domain.Certificate{first, second} {
			rows.AddRow(c.ID, c.RegistrationID, c.StudentID, c.StudentName,
				c.EventID, c.EventTitle, c.IssuedDate, c.Data)
		}
		mock.ExpectQuery(`FROM certificates WHERE student_id = \$1 ORDER BY issued_date DESC`).
			WithArgs("stu-1").
			WillReturnRows(rows)

		repo := NewCertificateRepository(db)
		got, err := repo.ListByStudentID(ctx, "stu-1")
		require.NoError(t, err)
		require.Len(t, got, 2)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
