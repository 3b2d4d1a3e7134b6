package personas

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound        = errors.New("personas: prospect not found")
	ErrNotOwner        = errors.New("personas: not the owner")
	ErrDefaultReadOnly = errors.New("personas: default prospects are read-only")
	ErrInvalidArgument = errors.New("personas: invalid argument")
)

// Repository is the persistence contract for prospects.
//
// Ownership invariant: user-scoped reads return the user's rows plus the
// shipped defaults; writes only ever touch the user's own rows.
type Repository interface {
	Insert(ctx context.Context, p Prospect) error
	Get(ctx context.Context, id string) (Prospect, error)
	ListForUser(ctx context.Context, userID string) ([]Prospect, error)
	Delete(ctx context.Context, id string) error
	SetFavorite(ctx context.Context, id string, favorite bool) error
	IncrementTimesUsed(ctx context.Context, id string) error
}

// Service owns prospect CRUD rules.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

func (s *Service) Create(ctx context.Context, userID string, name string, cfg Config) (Prospect, error) {
	if userID == "" || strings.TrimSpace(name) == "" {
		return Prospect{}, ErrInvalidArgument
	}
	if cfg.Name == "" {
		cfg.Name = name
	}
	p := Prospect{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      strings.TrimSpace(name),
		Config:    cfg,
		CreatedAt: s.clock().UTC(),
	}
	if err := s.repo.Insert(ctx, p); err != nil {
		return Prospect{}, err
	}
	return p, nil
}

// List returns the user's prospects plus shipped defaults.
func (s *Service) List(ctx context.Context, userID string) ([]Prospect, error) {
	if userID == "" {
		return nil, ErrInvalidArgument
	}
	return s.repo.ListForUser(ctx, userID)
}

// Get returns a prospect visible to the user (own or default).
func (s *Service) Get(ctx context.Context, userID, id string) (Prospect, error) {
	if userID == "" || id == "" {
		return Prospect{}, ErrInvalidArgument
	}
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return Prospect{}, err
	}
	if !p.IsDefault() && p.UserID != userID {
		return Prospect{}, ErrNotOwner
	}
	return p, nil
}

// Delete removes a user-owned prospect. Defaults are never deletable.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	p, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	if p.IsDefault() {
		return ErrDefaultReadOnly
	}
	return s.repo.Delete(ctx, id)
}

// ToggleFavorite flips the favorite flag and returns the new value.
func (s *Service) ToggleFavorite(ctx context.Context, userID, id string) (bool, error) {
	p, err := s.Get(ctx, userID, id)
	if err != nil {
		return false, err
	}
	next := !p.Favorite
	if err := s.repo.SetFavorite(ctx, id, next); err != nil {
		return false, err
	}
	return next, nil
}

// RecordUse bumps the usage counter. Best-effort: callers log failures and
// carry on.
func (s *Service) RecordUse(ctx context.Context, id string) error {
	if id == "" {
		return ErrInvalidArgument
	}
	return s.repo.IncrementTimesUsed(ctx, id)
}
