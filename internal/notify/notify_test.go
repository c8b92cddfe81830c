package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"loandesk.org/internal/contract"
)

func TestContractEditedAndList(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	svc := NewService(NewMemoryStore(), WithClock(func() time.Time { return now }))
	ctx := context.Background()

	changes := map[string]contract.FieldChange{
		"loanAmount": {Old: int64(1000), New: int64(2000)},
	}
	if err := svc.ContractEdited(ctx, "alice", "LC-1", "admin1", changes); err != nil {
		t.Fatalf("contract edited: %v", err)
	}
	if err := svc.ContractEdited(ctx, "bob", "LC-2", "admin1", nil); err != nil {
		t.Fatalf("contract edited: %v", err)
	}

	items, unread, err := svc.List(ctx, "alice")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 || unread != 1 {
		t.Fatalf("expected 1 item and 1 unread, got %d/%d", len(items), unread)
	}
	n := items[0]
	if n.Recipient != "alice" || n.ContractNumber != "LC-1" || n.EditedBy != "admin1" {
		t.Fatalf("unexpected notification %+v", n)
	}
	if ch := n.Changes["loanAmount"]; ch.Old != int64(1000) || ch.New != int64(2000) {
		t.Fatalf("unexpected change set %+v", n.Changes)
	}
	if !n.CreatedAt.Equal(now) {
		t.Fatalf("created_at = %v, want %v", n.CreatedAt, now)
	}
}

func TestMarkReadScopedToRecipient(t *testing.T) {
	svc := NewService(NewMemoryStore())
	ctx := context.Background()

	if err := svc.ContractEdited(ctx, "alice", "LC-1", "admin1", nil); err != nil {
		t.Fatalf("contract edited: %v", err)
	}
	items, _, err := svc.List(ctx, "alice")
	if err != nil || len(items) != 1 {
		t.Fatalf("list: %v (%d items)", err, len(items))
	}
	id := items[0].ID

	if err := svc.MarkRead(ctx, "bob", id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign mark-read: expected ErrNotFound, got %v", err)
	}
	if err := svc.MarkRead(ctx, "alice", id); err != nil {
		t.Fatalf("mark read: %v", err)
	}

	_, unread, err := svc.List(ctx, "alice")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if unread != 0 {
		t.Fatalf("expected 0 unread, got %d", unread)
	}
}

func TestClear(t *testing.T) {
	svc := NewService(NewMemoryStore())
	ctx := context.Background()
	_ = svc.ContractEdited(ctx, "alice", "LC-1", "admin1", nil)
	_ = svc.ContractEdited(ctx, "alice", "LC-2", "admin1", nil)
	_ = svc.ContractEdited(ctx, "bob", "LC-3", "admin1", nil)

	n, err := svc.Clear(ctx, "alice")
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 deleted, got %d", n)
	}
	items, _, _ := svc.List(ctx, "bob")
	if len(items) != 1 {
		t.Fatalf("bob's notifications must survive, got %d", len(items))
	}
}
