package contract

import (
	"context"
	"errors"
	"testing"

	"loandesk.org/internal/auth"
)

type recordedNotification struct {
	recipient string
	number    string
	editedBy  string
	changes   map[string]FieldChange
}

type fakeNotifier struct {
	sent []recordedNotification
	err  error
}

func (f *fakeNotifier) ContractEdited(_ context.Context, recipient, number, editedBy string, changes map[string]FieldChange) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, recordedNotification{recipient, number, editedBy, changes})
	return nil
}

type fakeDirectory map[string]bool

func (d fakeDirectory) UserExists(_ context.Context, username string) (bool, error) {
	return d[username], nil
}

var (
	admin = &auth.User{Username: "admin1", Role: auth.RoleAdmin, Active: true}
	alice = &auth.User{Username: "alice", Role: auth.RoleUser, Active: true}
	bob   = &auth.User{Username: "bob", Role: auth.RoleUser, Active: true}
)

func newTestService(opts ...ServiceOption) *Service {
	return NewService(NewMemoryStore(), opts...)
}

func create(t *testing.T, svc *Service, actor *auth.User, number string) *Contract {
	t.Helper()
	c, err := svc.Create(context.Background(), actor, &Contract{
		Number:         number,
		CustomerName:   "Customer " + number,
		Amount:         1000000,
		InterestRate:   12.5,
		DurationMonths: 24,
	})
	if err != nil {
		t.Fatalf("create %s: %v", number, err)
	}
	return c
}

func TestCreateSetsOwnerAndDefaults(t *testing.T) {
	svc := newTestService()
	c := create(t, svc, alice, "LC-1")
	if c.Owner != "alice" {
		t.Fatalf("owner = %q, want alice", c.Owner)
	}
	if c.Status != StatusPending {
		t.Fatalf("status = %q, want pending", c.Status)
	}
	if c.CreatedAt.IsZero() || c.UpdatedAt.IsZero() {
		t.Fatal("expected timestamps")
	}
}

func TestCreateValidation(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	cases := []Contract{
		{CustomerName: "x", Amount: 100, DurationMonths: 12},            // no number
		{Number: "LC-2", Amount: 100, DurationMonths: 12},               // no name
		{Number: "LC-3", CustomerName: "x", DurationMonths: 12},         // no amount
		{Number: "LC-4", CustomerName: "x", Amount: -5, DurationMonths: 12},
		{Number: "LC-5", CustomerName: "x", Amount: 100, DurationMonths: 12, Status: "bogus"},
	}
	for _, c := range cases {
		if _, err := svc.Create(ctx, alice, &c); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("contract %q: expected ErrInvalidInput, got %v", c.Number, err)
		}
	}
}

func TestCreateDuplicateNumber(t *testing.T) {
	svc := newTestService()
	create(t, svc, alice, "LC-1")
	_, err := svc.Create(context.Background(), bob, &Contract{
		Number:         "LC-1",
		CustomerName:   "Other",
		Amount:         500,
		DurationMonths: 6,
	})
	if !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestGetHidesForeignContracts(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	create(t, svc, alice, "LC-1")

	if _, err := svc.Get(ctx, bob, "LC-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign contract, got %v", err)
	}
	if _, err := svc.Get(ctx, bob, "LC-missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing contract, got %v", err)
	}
	if _, err := svc.Get(ctx, alice, "LC-1"); err != nil {
		t.Fatalf("owner read: %v", err)
	}
	if _, err := svc.Get(ctx, admin, "LC-1"); err != nil {
		t.Fatalf("admin read: %v", err)
	}
}

func TestListVisibility(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	create(t, svc, alice, "LC-1")
	create(t, svc, bob, "LC-2")

	// legacy record with no owner
	store := svc.store
	legacy := &Contract{Number: "LC-0", CustomerName: "Legacy", Amount: 100, DurationMonths: 6, Status: StatusActive}
	if err := store.Create(ctx, legacy); err != nil {
		t.Fatalf("seed legacy: %v", err)
	}

	aliceView, err := svc.List(ctx, alice)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(aliceView) != 2 {
		t.Fatalf("alice sees %d contracts, want 2 (own + legacy)", len(aliceView))
	}
	adminView, err := svc.List(ctx, admin)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(adminView) != 3 {
		t.Fatalf("admin sees %d contracts, want 3", len(adminView))
	}
}

func TestAdminEditNotifiesOwner(t *testing.T) {
	notifier := &fakeNotifier{}
	svc := newTestService(WithNotifier(notifier))
	ctx := context.Background()
	create(t, svc, alice, "LC-1")

	amount := int64(2000000)
	status := StatusApproved
	c, err := svc.Edit(ctx, admin, "LC-1", Update{Amount: &amount, Status: &status})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if c.Amount != amount || c.Status != StatusApproved {
		t.Fatalf("edit not applied: %+v", c)
	}

	if len(notifier.sent) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notifier.sent))
	}
	n := notifier.sent[0]
	if n.recipient != "alice" || n.editedBy != "admin1" || n.number != "LC-1" {
		t.Fatalf("unexpected notification %+v", n)
	}
	if len(n.changes) != 2 {
		t.Fatalf("expected 2 changed fields, got %v", n.changes)
	}
	if ch := n.changes["loanAmount"]; ch.Old != int64(1000000) || ch.New != amount {
		t.Fatalf("unexpected loanAmount change %+v", ch)
	}
	if ch := n.changes["status"]; ch.Old != StatusPending || ch.New != StatusApproved {
		t.Fatalf("unexpected status change %+v", ch)
	}
}

func TestOwnerEditDoesNotNotify(t *testing.T) {
	notifier := &fakeNotifier{}
	svc := newTestService(WithNotifier(notifier))
	create(t, svc, alice, "LC-1")

	status := StatusActive
	if _, err := svc.Edit(context.Background(), alice, "LC-1", Update{Status: &status}); err != nil {
		t.Fatalf("edit: %v", err)
	}
	if len(notifier.sent) != 0 {
		t.Fatalf("expected no notifications, got %d", len(notifier.sent))
	}
}

func TestNoopEditDoesNotNotify(t *testing.T) {
	notifier := &fakeNotifier{}
	svc := newTestService(WithNotifier(notifier))
	create(t, svc, alice, "LC-1")

	amount := int64(1000000) // unchanged
	if _, err := svc.Edit(context.Background(), admin, "LC-1", Update{Amount: &amount}); err != nil {
		t.Fatalf("edit: %v", err)
	}
	if len(notifier.sent) != 0 {
		t.Fatalf("expected no notifications for no-op edit, got %d", len(notifier.sent))
	}
}

func TestEditRejectsInvalidFields(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	create(t, svc, alice, "LC-1")

	blank := "  "
	if _, err := svc.Edit(ctx, alice, "LC-1", Update{CustomerName: &blank}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("blank customer name: expected ErrInvalidInput, got %v", err)
	}
	badStatus := "canceled"
	if _, err := svc.Edit(ctx, alice, "LC-1", Update{Status: &badStatus}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("unknown status: expected ErrInvalidInput, got %v", err)
	}
	negative := int64(-5)
	if _, err := svc.Edit(ctx, alice, "LC-1", Update{Amount: &negative}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("negative amount: expected ErrInvalidInput, got %v", err)
	}
	rate := -1.0
	if _, err := svc.Edit(ctx, alice, "LC-1", Update{InterestRate: &rate}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("negative rate: expected ErrInvalidInput, got %v", err)
	}

	c, err := svc.Get(ctx, alice, "LC-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if c.CustomerName != "Customer LC-1" || c.Amount != 1000000 || c.Status != StatusPending {
		t.Fatalf("rejected edits must not persist: %+v", c)
	}
}

func TestNotifierFailureDoesNotFailEdit(t *testing.T) {
	notifier := &fakeNotifier{err: errors.New("sink down")}
	svc := newTestService(WithNotifier(notifier))
	create(t, svc, alice, "LC-1")

	status := StatusActive
	c, err := svc.Edit(context.Background(), admin, "LC-1", Update{Status: &status})
	if err != nil {
		t.Fatalf("edit must survive notifier failure: %v", err)
	}
	if c.Status != StatusActive {
		t.Fatal("edit was not persisted")
	}
}

func TestEditForeignContractHidden(t *testing.T) {
	svc := newTestService()
	create(t, svc, alice, "LC-1")

	status := StatusPaid
	if _, err := svc.Edit(context.Background(), bob, "LC-1", Update{Status: &status}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteRules(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	create(t, svc, alice, "LC-1")

	legacy := &Contract{Number: "LC-0", CustomerName: "Legacy", Amount: 100, DurationMonths: 6, Status: StatusActive}
	if err := svc.store.Create(ctx, legacy); err != nil {
		t.Fatalf("seed legacy: %v", err)
	}

	if err := svc.Delete(ctx, bob, "LC-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign delete: expected ErrNotFound, got %v", err)
	}
	if err := svc.Delete(ctx, alice, "LC-0"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("legacy delete by user: expected ErrNotFound, got %v", err)
	}
	if err := svc.Delete(ctx, alice, "LC-1"); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	if err := svc.Delete(ctx, admin, "LC-0"); err != nil {
		t.Fatalf("admin delete of legacy: %v", err)
	}
}

func TestReassignOwner(t *testing.T) {
	notifier := &fakeNotifier{}
	svc := newTestService(
		WithNotifier(notifier),
		WithUserDirectory(fakeDirectory{"bob": true}),
	)
	ctx := context.Background()
	create(t, svc, alice, "LC-1")

	if _, err := svc.ReassignOwner(ctx, alice, "LC-1", "bob"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("non-admin reassign: expected ErrForbidden, got %v", err)
	}
	if _, err := svc.ReassignOwner(ctx, admin, "LC-1", "ghost"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("unknown target: expected ErrInvalidInput, got %v", err)
	}

	c, err := svc.ReassignOwner(ctx, admin, "LC-1", "bob")
	if err != nil {
		t.Fatalf("reassign: %v", err)
	}
	if c.Owner != "bob" {
		t.Fatalf("owner = %q, want bob", c.Owner)
	}
	if len(notifier.sent) != 1 || notifier.sent[0].recipient != "alice" {
		t.Fatalf("expected previous owner notified, got %+v", notifier.sent)
	}
	if ch := notifier.sent[0].changes["username"]; ch.Old != "alice" || ch.New != "bob" {
		t.Fatalf("unexpected ownership change %+v", ch)
	}

	// previous owner lost access
	if _, err := svc.Get(ctx, alice, "LC-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for previous owner, got %v", err)
	}
}
