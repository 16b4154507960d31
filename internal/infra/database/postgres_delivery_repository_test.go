//go:build integration

package database

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"homework_status_bot/internal/domain/notification"
)

// Run with: TEST_DATABASE_URL=postgres://... go test -tags integration ./internal/infra/database/
func TestPostgresDeliveryRepository(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}
	ctx := context.Background()

	db, err := NewPostgresConnection(ctx, dsn)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	if err := EnsureSchema(ctx, db); err != nil {
		t.Fatal(err)
	}
	// Schema creation must be repeatable.
	if err := EnsureSchema(ctx, db); err != nil {
		t.Fatal(err)
	}

	chatID := time.Now().UnixNano()
	t.Cleanup(func() {
		_, _ = db.ExecContext(ctx, `DELETE FROM homework_deliveries WHERE chat_id = $1`, chatID)
	})

	repo := NewPostgresDeliveryRepository(db)
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	for i, status := range []string{"reviewing", "rejected", "approved"} {
		d := &notification.Delivery{
			ChatID:       chatID,
			HomeworkName: "Project 1",
			Status:       status,
			Message:      "msg " + status,
			Cursor:       1700000000 + int64(i),
			SentAt:       base.Add(time.Duration(i) * time.Minute),
		}
		if err := repo.CreateDelivery(ctx, d); err != nil {
			t.Fatalf("CreateDelivery() error: %v", err)
		}
		if d.ID == 0 {
			t.Fatal("CreateDelivery() did not set ID")
		}
	}

	got, err := repo.ListRecentDeliveries(ctx, chatID, 2)
	if err != nil {
		t.Fatalf("ListRecentDeliveries() error: %v", err)
	}
	if len(got) != 2 || got[0].Status != "approved" || got[1].Status != "rejected" {
		t.Errorf("unexpected deliveries: %+v", got)
	}
	if got[0].Cursor != 1700000002 {
		t.Errorf("cursor = %d", got[0].Cursor)
	}

	if _, err := repo.ListRecentDeliveries(ctx, chatID, 0); !errors.Is(err, ErrInvalidLimit) {
		t.Errorf("error = %v, want ErrInvalidLimit", err)
	}
}
