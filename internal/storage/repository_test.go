package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"trackify/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "trackify.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func newTestUser(t *testing.T, repo *SQLiteRepository, email string) string {
	t.Helper()
	userID, err := repo.Register(context.Background(), email, "password123")
	if err != nil {
		t.Fatalf("register user: %v", err)
	}
	return userID
}

func TestInsertAndListByUser(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	userID := newTestUser(t, repo, "a@example.com")
	otherID := newTestUser(t, repo, "b@example.com")

	first, err := repo.Insert(ctx, userID, core.TransactionInput{
		Description: "salary", Amount: core.Money{Cents: 250000}, Category: core.CategoryIncome,
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if first.ID == 0 || first.CreatedAt.IsZero() {
		t.Fatalf("store should assign id and created_at: %+v", first)
	}

	if _, err := repo.Insert(ctx, otherID, core.TransactionInput{
		Description: "their coffee", Amount: core.Money{Cents: 400}, Category: core.CategoryExpense,
	}); err != nil {
		t.Fatalf("insert other user: %v", err)
	}

	txs, err := repo.ListByUser(ctx, userID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("list leaked across users: got %d rows", len(txs))
	}
	if txs[0].ID != first.ID || txs[0].Description != "salary" {
		t.Fatalf("unexpected row %+v", txs[0])
	}
}

func TestListOrderingNewestFirst(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	userID := newTestUser(t, repo, "a@example.com")

	// Force identical timestamps so the id tie-break is observable.
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for _, desc := range []string{"one", "two", "three"} {
		if _, err := repo.db.ExecContext(ctx, `
			INSERT INTO transactions (user_id, description, amount_cents, category, created_at)
			VALUES (?, ?, 100, 'expense', ?)
		`, userID, desc, ts); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	if _, err := repo.db.ExecContext(ctx, `
		INSERT INTO transactions (user_id, description, amount_cents, category, created_at)
		VALUES (?, 'newest', 100, 'expense', ?)
	`, userID, ts.Add(time.Hour)); err != nil {
		t.Fatalf("seed: %v", err)
	}

	txs, err := repo.ListByUser(ctx, userID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(txs) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(txs))
	}
	if txs[0].Description != "newest" {
		t.Fatalf("newest row should come first, got %q", txs[0].Description)
	}
	// Equal timestamps: store-assigned id descending.
	if txs[1].Description != "three" || txs[2].Description != "two" || txs[3].Description != "one" {
		t.Fatalf("tie-break by id descending violated: %q %q %q",
			txs[1].Description, txs[2].Description, txs[3].Description)
	}
}

func TestInsertRejectsInvalidInput(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	userID := newTestUser(t, repo, "a@example.com")

	cases := []core.TransactionInput{
		{Description: "zero", Amount: core.Money{Cents: 0}, Category: core.CategoryExpense},
		{Description: "", Amount: core.Money{Cents: 100}, Category: core.CategoryExpense},
		{Description: "weird", Amount: core.Money{Cents: 100}, Category: "transfer"},
	}
	for _, in := range cases {
		if _, err := repo.Insert(ctx, userID, in); core.KindOf(err) != core.KindValidation {
			t.Fatalf("%+v: expected validation error, got %v", in, err)
		}
	}

	txs, err := repo.ListByUser(ctx, userID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(txs) != 0 {
		t.Fatalf("invalid inputs reached the store: %d rows", len(txs))
	}
}

func TestDeleteOwnership(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	userID := newTestUser(t, repo, "a@example.com")
	otherID := newTestUser(t, repo, "b@example.com")

	tx, err := repo.Insert(ctx, userID, core.TransactionInput{
		Description: "lunch", Amount: core.Money{Cents: 1500}, Category: core.CategoryExpense,
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	if err := repo.Delete(ctx, userID, 99999); core.KindOf(err) != core.KindNotFound {
		t.Fatalf("missing id: expected not-found, got %v", err)
	}
	if err := repo.Delete(ctx, otherID, tx.ID); core.KindOf(err) != core.KindForbidden {
		t.Fatalf("foreign row: expected forbidden, got %v", err)
	}

	// The failed attempts must not have removed the row.
	txs, _ := repo.ListByUser(ctx, userID)
	if len(txs) != 1 {
		t.Fatalf("row disappeared after failed deletes: %d rows", len(txs))
	}

	if err := repo.Delete(ctx, userID, tx.ID); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	if err := repo.Delete(ctx, userID, tx.ID); core.KindOf(err) != core.KindNotFound {
		t.Fatalf("second delete: expected not-found, got %v", err)
	}
}

func TestRegisterAndAuthenticate(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	userID, err := repo.Register(ctx, "ada@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	got, err := repo.Authenticate(ctx, "ada@example.com", "correct-horse")
	if err != nil || got != userID {
		t.Fatalf("authenticate: got %q err %v", got, err)
	}

	if _, err := repo.Authenticate(ctx, "ada@example.com", "wrong"); core.KindOf(err) != core.KindUnauthenticated {
		t.Fatalf("wrong password: expected unauthenticated, got %v", err)
	}
	if _, err := repo.Authenticate(ctx, "nobody@example.com", "x"); core.KindOf(err) != core.KindUnauthenticated {
		t.Fatalf("unknown email: expected unauthenticated, got %v", err)
	}
	if _, err := repo.Register(ctx, "ada@example.com", "another-pass"); core.KindOf(err) != core.KindValidation {
		t.Fatalf("duplicate email: expected validation, got %v", err)
	}
}
