package core

import (
	"strings"
	"testing"
)

func TestTransactionInputValidate(t *testing.T) {
	valid := TransactionInput{
		Description: "groceries",
		Amount:      Money{Cents: 2350},
		Category:    CategoryExpense,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid input rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*TransactionInput)
	}{
		{"empty description", func(in *TransactionInput) { in.Description = "" }},
		{"blank description", func(in *TransactionInput) { in.Description = "   " }},
		{"description too long", func(in *TransactionInput) { in.Description = strings.Repeat("x", 201) }},
		{"zero amount", func(in *TransactionInput) { in.Amount = Money{} }},
		{"negative amount", func(in *TransactionInput) { in.Amount = Money{Cents: -100} }},
		{"unknown category", func(in *TransactionInput) { in.Category = "transfer" }},
		{"empty category", func(in *TransactionInput) { in.Category = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := valid
			tc.mutate(&in)
			err := in.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if KindOf(err) != KindValidation {
				t.Fatalf("expected validation kind, got %s", KindOf(err))
			}
		})
	}
}

func TestErrorRetryable(t *testing.T) {
	cases := []struct {
		kind Kind
		want bool
	}{
		{KindStore, true},
		{KindUnknown, true},
		{KindValidation, false},
		{KindUnauthenticated, false},
		{KindForbidden, false},
		{KindNotFound, false},
	}
	for _, tc := range cases {
		if got := NewError(tc.kind, "x").Retryable(); got != tc.want {
			t.Fatalf("%s: retryable = %v, expected %v", tc.kind, got, tc.want)
		}
	}
}

func TestKindOfWrapped(t *testing.T) {
	inner := NewError(KindForbidden, "not yours")
	wrapped := WrapError(KindStore, "outer", inner)
	// The outermost kind wins; unwrapping is for errors.Is/As chains.
	if KindOf(wrapped) != KindStore {
		t.Fatalf("expected store kind, got %s", KindOf(wrapped))
	}
	if KindOf(nil) != KindUnknown {
		t.Fatalf("nil should classify as unknown")
	}
}
