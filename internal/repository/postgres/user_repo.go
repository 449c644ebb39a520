package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"campusevents/internal/domain"
)

type userRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) domain.UserRepository {
	return &userRepository{
		DB: db,
	}
}

const userColumns = `id, email, name, role, college, department, year, organization_name,
		password_hash, created_at`

func scanUser(row rowScanner) (*domain.User, error) {
	u := &domain.User{}
	var (
		department   sql.NullString
		year         sql.NullInt64
		organization sql.NullString
	)
	err := row.Scan(
		&u.ID, &u.Email, &u.Name, &u.Role, &u.College,
		&department, &year, &organization, &u.PasswordHash, &u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if department.Valid {
		d := department.String
		u.Department = &d
	}
	if year.Valid {
		y := int(year.Int64)
		u.Year = &y
	}
	if organization.Valid {
		o := organization.String
		u.OrganizationName = &o
	}
	return u, nil
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, email, name, role, college, department, year, organization_name,
			password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	var (
		department   = sql.NullString{}
		year         = sql.NullInt64{}
		organization = sql.NullString{}
	)
	if user.Department != nil {
		department = sql.NullString{String: *user.Department, Valid: true}
	}
	if user.Year != nil {
		year = sql.NullInt64{Int64: int64(*user.Year), Valid: true}
	}
	if user.OrganizationName != nil {
		organization = sql.NullString{String: *user.OrganizationName, Valid: true}
	}
	_, err := r.DB.ExecContext(ctx, query,
		user.ID, user.Email, user.Name, user.Role, user.College,
		department, year, organization, user.PasswordHash, user.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return domain.ErrDuplicateEmail
		}
		return err
	}
	return nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	user, err := scanUser(r.DB.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return user, nil
}
