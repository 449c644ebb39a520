package domain

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for identity operations.
var (
	ErrDuplicateEmail     = errors.New("email already in use")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Role values carried in the identity token.
const (
	RoleStudent   = "student"
	RoleOrganizer = "organizer"
	RoleAdmin     = "admin"
)

// User represents a registered user (student or organizer).
type User struct {
	ID               string    `json:"id"`
	Email            string    `json:"email"`
	Name             string    `json:"name"`
	Role             string    `json:"role"`
	College          string    `json:"college"`
	Department       *string   `json:"department,omitempty"`
	Year             *int      `json:"year,omitempty"`
	OrganizationName *string   `json:"organization_name,omitempty"`
	PasswordHash     string    `json:"-"`
	CreatedAt        time.Time `json:"created_at"`
}

// Identity is the opaque authorization context every service receives: who
// the requester is and which role they act under. Services never perform
// authentication themselves.
type Identity struct {
	SubjectID string
	Role      string
}

// RegisterUserInput holds the fields for creating a user account.
type RegisterUserInput struct {
	Email            string
	Password         string
	Name             string
	Role             string
	College          string
	Department       *string
	Year             *int
	OrganizationName *string
}

// PasswordHasher handles password hashing and verification.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// TokenIssuer issues a signed token carrying the subject id and role.
type TokenIssuer interface {
	Issue(subjectID, role string, expiry time.Duration) (string, error)
}

// TokenVerifier verifies a token and returns the identity it carries.
type TokenVerifier interface {
	Verify(token string) (*Identity, error)
}

// UserRepository defines the interface for user storage.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
}

// UserService is the identity provider: given credentials it yields a token
// whose claims carry the (subject_id, role) pair consumed by every other
// service as its authorization context.
type UserService interface {
	Register(ctx context.Context, input RegisterUserInput) (token string, user *User, err error)
	Login(ctx context.Context, email, password string) (token string, user *User, err error)
	GetByID(ctx context.Context, id string) (*User, error)
}
