package sqlite_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/example/responder/internal/adapters/sqlite"
	"github.com/example/responder/internal/models"
	"github.com/example/responder/internal/ports/secondary"
)

func TestQueueRepository_InsertIfNew(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewQueueRepository(db)
	ctx := context.Background()
	seedChannel(t, db, "CHAN-001")

	item := &models.QueueItem{
		ChannelID:  "CHAN-001",
		ExternalID: "yt-comment-1",
		ContentRef: "video-9",
		Body:       "Can I get a refund?",
		Priority:   5,
	}

	inserted, err := repo.InsertIfNew(ctx, item)
	if err != nil {
		t.Fatalf("InsertIfNew failed: %v", err)
	}
	if !inserted {
		t.Fatal("first insert reported duplicate")
	}
	if item.ID == 0 {
		t.Error("item.ID not set on insert")
	}

	// Same external id again: idempotent, no duplicate.
	dup := &models.QueueItem{ChannelID: "CHAN-001", ExternalID: "yt-comment-1", Body: "Can I get a refund?"}
	inserted, err = repo.InsertIfNew(ctx, dup)
	if err != nil {
		t.Fatalf("second InsertIfNew failed: %v", err)
	}
	if inserted {
		t.Error("duplicate external id inserted twice")
	}

	items, err := repo.List(ctx, secondary.QueueFilters{ChannelID: "CHAN-001"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(items) != 1 {
		t.Errorf("len(items) = %d, want 1", len(items))
	}
}

func TestQueueRepository_ListPending_Ordering(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewQueueRepository(db)
	ctx := context.Background()
	seedChannel(t, db, "CHAN-001")

	// Equal timestamps: priority is the only ordering signal.
	for _, p := range []int{10, 50, 5} {
		seedItem(t, db, "CHAN-001", fmt.Sprintf("ext-%d", p), "body", p)
	}

	items, err := repo.ListPending(ctx, "CHAN-001", 100)
	if err != nil {
		t.Fatalf("ListPending failed: %v", err)
	}

	want := []int{50, 10, 5}
	if len(items) != len(want) {
		t.Fatalf("len = %d, want %d", len(items), len(want))
	}
	for i, item := range items {
		if item.Priority != want[i] {
			t.Errorf("position %d priority = %d, want %d", i, item.Priority, want[i])
		}
	}
}

func TestQueueRepository_ListPending_ExcludesNonPending(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewQueueRepository(db)
	ctx := context.Background()
	seedChannel(t, db, "CHAN-001")

	id := seedItem(t, db, "CHAN-001", "ext-1", "body", 0)
	seedItem(t, db, "CHAN-001", "ext-2", "body", 0)

	if _, err := db.Exec("UPDATE queue_items SET status = 'done' WHERE id = ?", id); err != nil {
		t.Fatalf("failed to mark done: %v", err)
	}

	items, err := repo.ListPending(ctx, "CHAN-001", 100)
	if err != nil {
		t.Fatalf("ListPending failed: %v", err)
	}
	if len(items) != 1 {
		t.Errorf("len = %d, want 1", len(items))
	}
}

func TestQueueRepository_TransitionStatus(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewQueueRepository(db)
	ctx := context.Background()
	seedChannel(t, db, "CHAN-001")

	id := seedItem(t, db, "CHAN-001", "ext-1", "body", 0)

	ok, err := repo.TransitionStatus(ctx, id, models.ItemStatusPending, models.ItemStatusProcessing)
	if err != nil {
		t.Fatalf("TransitionStatus failed: %v", err)
	}
	if !ok {
		t.Fatal("first transition lost, want won")
	}

	// The losing racer observes zero rows affected: not an error.
	ok, err = repo.TransitionStatus(ctx, id, models.ItemStatusPending, models.ItemStatusNeedsReview)
	if err != nil {
		t.Fatalf("second TransitionStatus errored: %v", err)
	}
	if ok {
		t.Error("second transition from pending won, want lost")
	}

	got, err := repo.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != models.ItemStatusProcessing {
		t.Errorf("Status = %q, want %q", got.Status, models.ItemStatusProcessing)
	}
}
