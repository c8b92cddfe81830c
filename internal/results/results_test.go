package results

import (
	"context"
	"errors"
	"testing"

	"loandesk.org/internal/auth"
)

var (
	alice = &auth.User{Username: "alice", Role: auth.RoleUser, Active: true}
	bob   = &auth.User{Username: "bob", Role: auth.RoleUser, Active: true}
)

func TestSaveAndLoadScopedToOwner(t *testing.T) {
	svc := NewService(NewMemoryStore())
	ctx := context.Background()

	rows := []Row{
		{Name: "J. Smith", Income: 54000, Score: 712, Result: "approved", ContactStatus: "reached"},
		{Name: "A. Doe", Income: 23000, Score: 540, Result: "rejected", ContactStatus: "no answer"},
	}
	session, err := svc.Save(ctx, alice, "batch one", rows)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if session.ID == "" || session.Username != "alice" {
		t.Fatalf("unexpected session %+v", session)
	}
	if session.RowCount != 2 {
		t.Fatalf("expected row count 2, got %d", session.RowCount)
	}
	if session.Rows[0].RowNumber != 1 || session.Rows[1].RowNumber != 2 {
		t.Fatalf("rows not numbered: %+v", session.Rows)
	}

	aliceSessions, err := svc.Load(ctx, alice)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(aliceSessions) != 1 || aliceSessions[0].Name != "batch one" {
		t.Fatalf("unexpected sessions %+v", aliceSessions)
	}
	if len(aliceSessions[0].Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(aliceSessions[0].Rows))
	}

	bobSessions, err := svc.Load(ctx, bob)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(bobSessions) != 0 {
		t.Fatalf("bob must not see alice's sessions, got %d", len(bobSessions))
	}
}

func TestSaveRequiresRows(t *testing.T) {
	svc := NewService(NewMemoryStore())
	if _, err := svc.Save(context.Background(), alice, "empty", nil); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestDeleteScopedToOwner(t *testing.T) {
	svc := NewService(NewMemoryStore())
	ctx := context.Background()

	session, err := svc.Save(ctx, alice, "batch", []Row{{Name: "J. Smith", Score: 640}})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := svc.Delete(ctx, bob, session.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign delete: expected ErrNotFound, got %v", err)
	}
	if err := svc.Delete(ctx, alice, session.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	sessions, _ := svc.Load(ctx, alice)
	if len(sessions) != 0 {
		t.Fatalf("expected no sessions after delete, got %d", len(sessions))
	}
}
