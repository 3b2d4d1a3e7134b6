package personas

import (
	"context"
	"errors"
	"testing"
	"time"
)

func seedDefault(t *testing.T, repo *MemoryRepository) Prospect {
	t.Helper()
	p := Prospect{ID: "default-1", Name: "Busy CFO", Config: Config{Name: "Busy CFO", Role: "CFO"}, CreatedAt: time.Now()}
	if err := repo.Insert(context.Background(), p); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return p
}

func TestProspects_CreateAndList(t *testing.T) {
	repo := NewMemoryRepository()
	seedDefault(t, repo)
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), "u1", "My Prospect", Config{Role: "CTO"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.UserID != "u1" || created.ID == "" {
		t.Fatalf("unexpected prospect: %+v", created)
	}

	list, err := svc.List(context.Background(), "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected own + default, got %d", len(list))
	}

	// another user sees only the default
	other, err := svc.List(context.Background(), "u2")
	if err != nil {
		t.Fatalf("list other: %v", err)
	}
	if len(other) != 1 || !other[0].IsDefault() {
		t.Fatalf("expected only default for other user, got %+v", other)
	}
}

func TestProspects_DeleteRules(t *testing.T) {
	repo := NewMemoryRepository()
	def := seedDefault(t, repo)
	svc := NewService(repo)

	own, _ := svc.Create(context.Background(), "u1", "Mine", Config{})

	if err := svc.Delete(context.Background(), "u1", def.ID); !errors.Is(err, ErrDefaultReadOnly) {
		t.Fatalf("expected ErrDefaultReadOnly, got %v", err)
	}
	if err := svc.Delete(context.Background(), "u2", own.ID); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
	if err := svc.Delete(context.Background(), "u1", own.ID); err != nil {
		t.Fatalf("delete own: %v", err)
	}
	if _, err := svc.Get(context.Background(), "u1", own.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestProspects_ToggleFavorite(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo)
	own, _ := svc.Create(context.Background(), "u1", "Mine", Config{})

	fav, err := svc.ToggleFavorite(context.Background(), "u1", own.ID)
	if err != nil || !fav {
		t.Fatalf("expected favorite=true, got %v err=%v", fav, err)
	}
	fav, err = svc.ToggleFavorite(context.Background(), "u1", own.ID)
	if err != nil || fav {
		t.Fatalf("expected favorite=false, got %v err=%v", fav, err)
	}
}
