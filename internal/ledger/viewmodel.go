// Package ledger orchestrates session state, the transaction store and the
// aggregation into one consistent view-model for the presentation layer.
package ledger

import (
	"context"

	"trackify/internal/core"
)

// Controller states. Error is terminal for the cycle and only an explicit
// retry leaves it.
const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateError   State = "error"
)

type (
	State string

	// ViewModel is what the presentation layer consumes. Transactions and
	// Summary are only meaningful in the ready state.
	ViewModel struct {
		State        State
		Transactions []core.Transaction
		Summary      core.Summary
		ErrKind      core.Kind
		ErrMsg       string
		Retryable    bool
	}

	// Repository is the transaction store contract the controller drives.
	Repository interface {
		ListByUser(ctx context.Context, userID string) ([]core.Transaction, error)
		Insert(ctx context.Context, userID string, in core.TransactionInput) (core.Transaction, error)
		Delete(ctx context.Context, userID string, id int64) error
	}

	// Publisher receives audit events after successful mutations. The
	// controller treats it as best-effort: a publish failure never fails
	// the user's request.
	Publisher interface {
		PublishRecorded(ctx context.Context, tx core.Transaction) error
		PublishDeleted(ctx context.Context, userID string, id int64) error
	}
)

// Recent returns the newest n transactions of the projection, fewer when
// the set is smaller. The projection is already ordered newest first.
func (vm ViewModel) Recent(n int) []core.Transaction {
	if n > len(vm.Transactions) {
		n = len(vm.Transactions)
	}
	return vm.Transactions[:n]
}
