package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "jiva.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateAndFetchUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u, err := s.CreateUser(ctx, "919999999999", PendingName)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.ID == 0 {
		t.Fatal("expected assigned id")
	}

	got, err := s.UserByPhone(ctx, "919999999999")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got.Name != PendingName {
		t.Fatalf("expected pending name, got %q", got.Name)
	}

	if _, err := s.UserByPhone(ctx, "910000000000"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDuplicatePhoneRejected(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.CreateUser(ctx, "911", "A"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.CreateUser(ctx, "911", "B"); err == nil {
		t.Fatal("expected unique constraint violation")
	}
}

func TestUpdateProfile(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.CreateUser(ctx, "911", PendingName); err != nil {
		t.Fatalf("create: %v", err)
	}
	err := s.UpdateProfile(ctx, "911", map[string]any{
		"name":              "Asha",
		"age":               34,
		"emergency_contact": "912",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	u, err := s.UserByPhone(ctx, "911")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if u.Name != "Asha" || u.Age != 34 || u.EmergencyContact != "912" {
		t.Fatalf("unexpected profile: %+v", u)
	}
}

func TestUpdateProfileRejectsUnknownColumn(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.CreateUser(ctx, "911", "Asha"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.UpdateProfile(ctx, "911", map[string]any{"is_admin": true}); err == nil {
		t.Fatal("expected rejection of unknown column")
	}
}

func TestUpdateProfileUnknownUser(t *testing.T) {
	s := newTestStore(t)
	err := s.UpdateProfile(context.Background(), "nobody", map[string]any{"name": "X"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestHistoryChronologicalAndLimited(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u, err := s.CreateUser(ctx, "911", "Asha")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	for i := 0; i < 15; i++ {
		role := "user"
		if i%2 == 1 {
			role = "assistant"
		}
		if err := s.SaveMessage(ctx, u.ID, role, string(rune('a'+i))); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	h, err := s.History(ctx, u.ID, 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(h) != 10 {
		t.Fatalf("expected 10 messages, got %d", len(h))
	}
	// The newest 10, oldest first.
	if h[0].Content != "f" || h[9].Content != "o" {
		t.Fatalf("unexpected window: first=%q last=%q", h[0].Content, h[9].Content)
	}
	for i := 1; i < len(h); i++ {
		if h[i].ID <= h[i-1].ID {
			t.Fatal("history not chronological")
		}
	}
}

func TestRemindersDueAndMarkSent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u, err := s.CreateUser(ctx, "911", "Asha")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	now := time.Now()
	past, err := s.CreateReminder(ctx, u.ID, now.Add(-time.Minute), "Take Metformin")
	if err != nil {
		t.Fatalf("create reminder: %v", err)
	}
	if _, err := s.CreateReminder(ctx, u.ID, now.Add(time.Hour), "Evening dose"); err != nil {
		t.Fatalf("create reminder: %v", err)
	}

	due, err := s.Due(ctx, now)
	if err != nil {
		t.Fatalf("due: %v", err)
	}
	if len(due) != 1 || due[0].ID != past {
		t.Fatalf("expected only the past reminder, got %+v", due)
	}

	if err := s.MarkSent(ctx, past); err != nil {
		t.Fatalf("mark sent: %v", err)
	}
	due, err = s.Due(ctx, now)
	if err != nil {
		t.Fatalf("due: %v", err)
	}
	if len(due) != 0 {
		t.Fatalf("sent reminder still reported due: %+v", due)
	}
}

func TestUserByID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u, err := s.CreateUser(ctx, "911", "Asha")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := s.UserByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got.PhoneNumber != "911" {
		t.Fatalf("unexpected user: %+v", got)
	}
}
