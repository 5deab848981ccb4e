// Package storage is the canonical record of users and transactions. It is
// the sole writer; everything above it holds transient projections only.
package storage

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"

	"trackify/internal/core"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// ListByUser returns the user's transactions newest first, ties broken by
// id descending so the order is deterministic. Every call is a full
// re-fetch; nothing is cached here.
func (r *SQLiteRepository) ListByUser(ctx context.Context, userID string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, description, amount_cents, category, created_at
		FROM transactions
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, core.WrapError(core.KindStore, "list transactions", err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		var (
			tx        core.Transaction
			cents     int64
			category  string
			createdAt time.Time
		)
		if err := rows.Scan(&tx.ID, &tx.UserID, &tx.Description, &cents, &category, &createdAt); err != nil {
			return nil, core.WrapError(core.KindStore, "scan transaction", err)
		}
		tx.Amount = core.Money{Cents: cents}
		tx.Category = core.Category(category)
		tx.CreatedAt = createdAt
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, core.WrapError(core.KindStore, "iterate transactions", err)
	}
	return txs, nil
}

// Insert creates a transaction for userID. The store assigns id and
// created_at and the full stored row is returned.
func (r *SQLiteRepository) Insert(ctx context.Context, userID string, in core.TransactionInput) (core.Transaction, error) {
	if err := in.Validate(); err != nil {
		return core.Transaction{}, err
	}

	createdAt := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (user_id, description, amount_cents, category, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, userID, strings.TrimSpace(in.Description), in.Amount.Cents, string(in.Category), createdAt)
	if err != nil {
		return core.Transaction{}, core.WrapError(core.KindStore, "insert transaction", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.Transaction{}, core.WrapError(core.KindStore, "last insert id", err)
	}

	slog.InfoContext(ctx, "Transaction recorded",
		"id", id,
		"user_id", userID,
		"amount_cents", in.Amount.Cents,
		"category", in.Category)

	return core.Transaction{
		ID:          id,
		UserID:      userID,
		Description: strings.TrimSpace(in.Description),
		Amount:      in.Amount,
		Category:    in.Category,
		CreatedAt:   createdAt,
	}, nil
}

// Delete removes the transaction if it exists and belongs to userID.
// A missing id fails with not-found, someone else's row with forbidden;
// neither case silently succeeds.
func (r *SQLiteRepository) Delete(ctx context.Context, userID string, id int64) error {
	var owner string
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id FROM transactions WHERE id = ?`, id).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Errorf(core.KindNotFound, "transaction %d not found", id)
	}
	if err != nil {
		return core.WrapError(core.KindStore, "look up transaction", err)
	}
	if owner != userID {
		return core.Errorf(core.KindForbidden, "transaction %d belongs to another user", id)
	}

	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, userID); err != nil {
		return core.WrapError(core.KindStore, "delete transaction", err)
	}

	slog.InfoContext(ctx, "Transaction deleted", "id", id, "user_id", userID)
	return nil
}

// Register creates a user with a bcrypt password hash. Implements
// auth.UserDirectory.
func (r *SQLiteRepository) Register(ctx context.Context, email, password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", core.WrapError(core.KindUnknown, "hash password", err)
	}

	userID := newUserID()
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, created_at)
		VALUES (?, ?, ?, ?)
	`, userID, email, string(hash), time.Now().UTC())
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return "", core.NewError(core.KindValidation, "email already registered")
		}
		return "", core.WrapError(core.KindStore, "create user", err)
	}

	slog.InfoContext(ctx, "User registered", "user_id", userID)
	return userID, nil
}

// Authenticate checks email/password and returns the user id. Implements
// auth.UserDirectory. Unknown email and wrong password are reported the
// same way.
func (r *SQLiteRepository) Authenticate(ctx context.Context, email, password string) (string, error) {
	var (
		userID string
		hash   string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, password_hash FROM users WHERE email = ?`, email).Scan(&userID, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", core.NewError(core.KindUnauthenticated, "invalid email or password")
	}
	if err != nil {
		return "", core.WrapError(core.KindStore, "look up user", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return "", core.NewError(core.KindUnauthenticated, "invalid email or password")
	}
	return userID, nil
}

func newUserID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("usr_%d", time.Now().UnixNano())
	}
	return "usr_" + hex.EncodeToString(b)
}
