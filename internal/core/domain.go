package core

import (
	"strings"
	"time"
)

const (
	CategoryIncome  Category = "income"
	CategoryExpense Category = "expense"
)

type (
	// Category is an open string in the store; only income and expense are
	// known values. Anything else is tolerated on read and excluded from
	// aggregation, but rejected on write.
	Category string

	// Transaction is a single recorded income or expense event owned by one
	// user. Records are immutable: they are created and deleted, never
	// updated in place.
	Transaction struct {
		ID          int64
		UserID      string
		Description string
		Amount      Money
		Category    Category
		CreatedAt   time.Time
	}

	// TransactionInput is what a user submits to record a transaction.
	// ID, owner and timestamp are assigned by the store.
	TransactionInput struct {
		Description string
		Amount      Money
		Category    Category
	}
)

// Known reports whether the category is one of the two values aggregation
// understands.
func (c Category) Known() bool {
	return c == CategoryIncome || c == CategoryExpense
}

// Validate enforces the write-time policy: positive amount, non-empty
// description, known category. Violations never reach the store.
func (in TransactionInput) Validate() error {
	if strings.TrimSpace(in.Description) == "" {
		return NewError(KindValidation, "description is required")
	}
	if len(in.Description) > 200 {
		return NewError(KindValidation, "description too long (max 200 characters)")
	}
	if in.Amount.Cents <= 0 {
		return NewError(KindValidation, "amount must be positive")
	}
	if !in.Category.Known() {
		return Errorf(KindValidation, "category must be %q or %q", CategoryIncome, CategoryExpense)
	}
	return nil
}
