package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/donnachab/jam/internal/application"
)

func TestEventRepository_CRUD(t *testing.T) {
	repo := NewEventRepository(newTestStore(t))
	ctx := context.Background()
	now := referenceTime()

	event := application.SpecialEvent{
		ID:          "event-1",
		Title:       "Folk Weekend",
		StartDate:   "2024-07-12",
		EndDate:     "2024-07-14",
		Time:        "8:00 PM",
		Venue:       "The Front Room",
		MapLink:     "https://maps.example.com/front-room",
		Description: "Three days of sessions.",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := repo.CreateEvent(ctx, event); err != nil {
		t.Fatalf("CreateEvent failed: %v", err)
	}

	retrieved, err := repo.GetEvent(ctx, "event-1")
	if err != nil {
		t.Fatalf("GetEvent failed: %v", err)
	}
	if retrieved.Title != "Folk Weekend" || retrieved.EndDate != "2024-07-14" {
		t.Fatalf("unexpected event %+v", retrieved)
	}

	event.Title = "Folk Weekend 2024"
	event.UpdatedAt = now.Add(time.Hour)
	if _, err := repo.UpdateEvent(ctx, event); err != nil {
		t.Fatalf("UpdateEvent failed: %v", err)
	}
	retrieved, err = repo.GetEvent(ctx, "event-1")
	if err != nil {
		t.Fatalf("GetEvent failed: %v", err)
	}
	if retrieved.Title != "Folk Weekend 2024" {
		t.Fatalf("expected rename persisted, got %+v", retrieved)
	}

	if err := repo.DeleteEvent(ctx, "event-1"); err != nil {
		t.Fatalf("DeleteEvent failed: %v", err)
	}
	if _, err := repo.GetEvent(ctx, "event-1"); !errors.Is(err, application.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := repo.DeleteEvent(ctx, "event-1"); !errors.Is(err, application.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestEventRepository_UpdateMissing(t *testing.T) {
	repo := NewEventRepository(newTestStore(t))

	_, err := repo.UpdateEvent(context.Background(), application.SpecialEvent{ID: "missing", UpdatedAt: referenceTime()})
	if !errors.Is(err, application.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestEventRepository_ListOrderedByStartDate(t *testing.T) {
	repo := NewEventRepository(newTestStore(t))
	ctx := context.Background()
	now := referenceTime()

	for _, event := range []application.SpecialEvent{
		{ID: "event-1", Title: "Later", StartDate: "2024-08-01", EndDate: "2024-08-02", Description: "x", CreatedAt: now, UpdatedAt: now},
		{ID: "event-2", Title: "Sooner", StartDate: "2024-07-01", EndDate: "2024-07-02", Description: "x", CreatedAt: now, UpdatedAt: now},
	} {
		if _, err := repo.CreateEvent(ctx, event); err != nil {
			t.Fatalf("CreateEvent failed: %v", err)
		}
	}

	events, err := repo.ListEvents(ctx)
	if err != nil {
		t.Fatalf("ListEvents failed: %v", err)
	}
	if len(events) != 2 || events[0].Title != "Sooner" {
		t.Fatalf("expected start date order, got %+v", events)
	}
}
