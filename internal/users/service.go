package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound        = errors.New("users: not found")
	ErrInvalidArgument = errors.New("users: invalid argument")
)

// Repository is the persistence contract for user rows.
type Repository interface {
	GetBySubject(ctx context.Context, subject string) (User, error)
	GetByID(ctx context.Context, id string) (User, error)
	Insert(ctx context.Context, u User) error
	UpdateEmail(ctx context.Context, subject, email string, at time.Time) error
}

const (
	PlanFree    = "free"
	PlanStarter = "starter"
	PlanPro     = "pro"
)

// Service owns user lifecycle rules.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

// EnsureBySubject resolves the internal user for an auth subject, creating
// one on first contact. The create path stamps a placeholder email that the
// identity webhook corrects later; when the caller's token already carries an
// email it is used directly. Not idempotent beyond create-if-missing.
func (s *Service) EnsureBySubject(ctx context.Context, subject, email string) (User, error) {
	if subject == "" {
		return User{}, ErrInvalidArgument
	}

	u, err := s.repo.GetBySubject(ctx, subject)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return User{}, err
	}

	if email == "" {
		email = placeholderEmail(subject)
	}
	now := s.clock().UTC()
	u = User{
		ID:          uuid.NewString(),
		AuthSubject: subject,
		Email:       email,
		Plan:        PlanFree,
		Role:        "user",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Insert(ctx, u); err != nil {
		return User{}, err
	}
	return u, nil
}

// GetBySubject looks up an existing user without creating one.
func (s *Service) GetBySubject(ctx context.Context, subject string) (User, error) {
	if subject == "" {
		return User{}, ErrInvalidArgument
	}
	return s.repo.GetBySubject(ctx, subject)
}

func (s *Service) GetByID(ctx context.Context, id string) (User, error) {
	if id == "" {
		return User{}, ErrInvalidArgument
	}
	return s.repo.GetByID(ctx, id)
}

// ApplyIdentityUpdate replaces the stored email for a subject. Driven by the
// identity-provider webhook.
func (s *Service) ApplyIdentityUpdate(ctx context.Context, subject, email string) error {
	if subject == "" || email == "" {
		return ErrInvalidArgument
	}
	return s.repo.UpdateEmail(ctx, subject, email, s.clock().UTC())
}

func placeholderEmail(subject string) string {
	return fmt.Sprintf("%s@placeholder.invalid", subject)
}
