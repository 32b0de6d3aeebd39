package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/findshroom/findshroom-server/internal/domain"
	"github.com/findshroom/findshroom-server/internal/store"
)

func TestDiaryEntries(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	alice := createTestUser(t, s, "alice")
	bob := createTestUser(t, s, "bob")

	older := &domain.DiaryEntry{UserID: alice.ID, Note: "First walk", MushroomsCollected: 2, Timestamp: mustTime(t, "2024-07-01T10:00:00Z")}
	newer := &domain.DiaryEntry{UserID: alice.ID, Note: "Rainy day", MushroomsCollected: 0, Timestamp: mustTime(t, "2024-07-05T10:00:00Z")}
	other := &domain.DiaryEntry{UserID: bob.ID, Note: "Bob's note"}
	for _, e := range []*domain.DiaryEntry{older, newer, other} {
		if err := s.CreateDiaryEntry(ctx, e); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	entries, err := s.ListDiaryEntries(ctx, alice.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 2 || entries[0].Note != "Rainy day" || entries[1].Note != "First walk" {
		t.Errorf("unexpected entries: %+v", entries)
	}

	older.Note = "First walk, edited"
	older.MushroomsCollected = 3
	if err := s.UpdateDiaryEntry(ctx, older); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := s.GetDiaryEntry(ctx, older.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Note != "First walk, edited" || got.MushroomsCollected != 3 {
		t.Errorf("unexpected entry after update: %+v", got)
	}

	rec := &recordingEmitter{}
	s.SetEmitter(rec)
	if err := s.DeleteDiaryEntry(ctx, older.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if changes := rec.all(); len(changes) != 1 || changes[0].UserID != alice.ID {
		t.Errorf("expected delete change carrying owner, got %+v", changes)
	}
	if err := s.DeleteDiaryEntry(ctx, older.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateDiaryEntry_RejectsNegativeCount(t *testing.T) {
	s := newTestStore(t)
	u := createTestUser(t, s, "alice")

	err := s.CreateDiaryEntry(context.Background(), &domain.DiaryEntry{UserID: u.ID, Note: "n", MushroomsCollected: -1})
	if err == nil {
		t.Error("expected CHECK constraint failure for negative count")
	}
}
