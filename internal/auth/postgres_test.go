package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGLedgerRevokeConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	store := NewPGStore(db)
	ctx := context.Background()
	entry := RevocationEntry{
		TokenID:           "tok-1",
		Subject:           "alice",
		RevokedAt:         time.Now(),
		OriginalExpiresAt: time.Now().Add(time.Hour),
	}

	mock.ExpectExec("insert into token_revocations").
		WithArgs(entry.TokenID, entry.Subject, entry.RevokedAt, entry.OriginalExpiresAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	if err := store.Revocations(ctx).Revoke(ctx, entry); err != nil {
		t.Fatalf("first revoke: %v", err)
	}

	mock.ExpectExec("insert into token_revocations").
		WithArgs(entry.TokenID, entry.Subject, entry.RevokedAt, entry.OriginalExpiresAt).
		WillReturnResult(sqlmock.NewResult(0, 0))
	if err := store.Revocations(ctx).Revoke(ctx, entry); !errors.Is(err, ErrAlreadyRevoked) {
		t.Fatalf("expected ErrAlreadyRevoked, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGLedgerIsRevoked(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	store := NewPGStore(db)
	ctx := context.Background()

	mock.ExpectQuery("select exists").
		WithArgs("tok-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	revoked, err := store.Revocations(ctx).IsRevoked(ctx, "tok-1")
	if err != nil {
		t.Fatalf("is revoked: %v", err)
	}
	if !revoked {
		t.Fatal("expected revoked")
	}
}

func TestPGUsersCreateConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	store := NewPGStore(db)
	ctx := context.Background()
	user := &User{
		ID:        "u-1",
		Username:  "alice",
		Email:     "alice@example.com",
		Active:    true,
		Role:      RoleUser,
		CreatedAt: time.Now(),
	}

	mock.ExpectExec("insert into users").
		WillReturnResult(sqlmock.NewResult(0, 0))
	if err := store.Users(ctx).Create(ctx, user); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestPGCreateFirstAdminWinner(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	store := NewPGStore(db)
	ctx := context.Background()
	user := &User{
		ID:        "u-1",
		Username:  "admin1",
		Email:     "admin1@example.com",
		Active:    true,
		Role:      RoleAdmin,
		CreatedAt: time.Now(),
	}

	mock.ExpectBegin()
	mock.ExpectExec("select pg_advisory_xact_lock").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("select count").
		WithArgs(RoleAdmin).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec("insert into users").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := store.Users(ctx).CreateFirstAdmin(ctx, user); err != nil {
		t.Fatalf("first admin: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGCreateFirstAdminAlreadyClaimed(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	store := NewPGStore(db)
	ctx := context.Background()
	user := &User{
		ID:        "u-2",
		Username:  "mallory",
		Email:     "mallory@example.com",
		Active:    true,
		Role:      RoleAdmin,
		CreatedAt: time.Now(),
	}

	mock.ExpectBegin()
	mock.ExpectExec("select pg_advisory_xact_lock").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("select count").
		WithArgs(RoleAdmin).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	if err := store.Users(ctx).CreateFirstAdmin(ctx, user); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGUsersFindByUsernameNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	store := NewPGStore(db)
	ctx := context.Background()

	mock.ExpectQuery("select .+ from users where username").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "username", "email", "password_hash", "full_name",
			"is_active", "role", "created_at", "last_login",
		}))

	if _, err := store.Users(ctx).FindByUsername(ctx, "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGUsersDeleteCascades(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	store := NewPGStore(db)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery("select username from users").
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows([]string{"username"}).AddRow("alice"))
	mock.ExpectExec("delete from notifications").
		WithArgs("alice").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("delete from loan_contracts").
		WithArgs("alice").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("delete from users").
		WithArgs("u-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := store.Users(ctx).Delete(ctx, "u-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
