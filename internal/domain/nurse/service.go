package nurse

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/careward/careward/internal/platform/auth"
	"github.com/careward/careward/internal/platform/idgen"
)

// Service manages nurse accounts and implements auth.Verifier so the token
// middleware can reject deactivated staff on every request.
type Service struct {
	repo       Repository
	ids        *idgen.Generator
	jwtSecret  string
	jwtTTL     time.Duration
	bcryptCost int
}

func NewService(repo Repository, ids *idgen.Generator, jwtSecret string, jwtTTL time.Duration, bcryptCost int) *Service {
	return &Service{
		repo:       repo,
		ids:        ids,
		jwtSecret:  jwtSecret,
		jwtTTL:     jwtTTL,
		bcryptCost: bcryptCost,
	}
}

// Signup registers a nurse account: validates role and department, hashes
// the password, and assigns the staff serial.
func (s *Service) Signup(ctx context.Context, n *Nurse, password string) error {
	n.Email = strings.ToLower(strings.TrimSpace(n.Email))
	if n.Name == "" {
		return fmt.Errorf("name is required")
	}
	if n.Email == "" || !strings.Contains(n.Email, "@") {
		return fmt.Errorf("valid email is required")
	}
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}
	if !validRoles[n.Role] {
		return fmt.Errorf("invalid role: %s", n.Role)
	}
	if !validDepartments[n.Department] {
		return fmt.Errorf("invalid department: %s", n.Department)
	}

	if _, err := s.repo.GetByEmail(ctx, n.Email); err == nil {
		return ErrDuplicateEmail
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	nurseID, err := s.ids.NurseID(ctx)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	n.NurseID = nurseID
	n.PasswordHash = string(hash)
	n.Status = StatusActive
	n.CreatedAt = now
	n.UpdatedAt = now
	return s.repo.Create(ctx, n)
}

// Login checks credentials and returns the nurse with a signed token.
// Deactivated accounts cannot log in.
func (s *Service) Login(ctx context.Context, email, password string) (*Nurse, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	n, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(n.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}
	if n.Status != StatusActive {
		return nil, "", auth.ErrInactiveIdentity
	}

	token, err := auth.NewToken(s.jwtSecret, n.ID.Hex(), n.Role, s.jwtTTL)
	if err != nil {
		return nil, "", err
	}
	return n, token, nil
}

// UpdateStatus activates or deactivates an account.
func (s *Service) UpdateStatus(ctx context.Context, id, status string) error {
	if status != StatusActive && status != StatusInactive {
		return fmt.Errorf("invalid status: %s", status)
	}
	return s.repo.UpdateStatus(ctx, id, status)
}

// Profile returns the account for the given internal ID.
func (s *Service) Profile(ctx context.Context, id string) (*Nurse, error) {
	return s.repo.GetByID(ctx, id)
}

// Verify implements auth.Verifier.
func (s *Service) Verify(ctx context.Context, subject string) (*auth.Identity, error) {
	n, err := s.repo.GetByID(ctx, subject)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, auth.ErrUnknownIdentity
		}
		return nil, err
	}
	if n.Status != StatusActive {
		return nil, auth.ErrInactiveIdentity
	}
	return &auth.Identity{
		ID:      n.ID.Hex(),
		NurseID: n.NurseID,
		Name:    n.Name,
		Email:   n.Email,
		Role:    n.Role,
	}, nil
}
