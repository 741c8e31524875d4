package nurse

import (
	"context"
	"errors"
)

var (
	// ErrNotFound reports a missing nurse account.
	ErrNotFound = errors.New("nurse not found")
	// ErrDuplicateEmail reports a signup with an email already in use.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrInvalidCredentials reports a failed login.
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// Repository is the persistence contract for nurse accounts.
type Repository interface {
	Create(ctx context.Context, n *Nurse) error
	GetByID(ctx context.Context, id string) (*Nurse, error)
	GetByEmail(ctx context.Context, email string) (*Nurse, error)
	UpdateStatus(ctx context.Context, id, status string) error
}
