package core

import (
	"math/rand"
	"testing"
)

func tx(cents int64, cat Category) Transaction {
	return Transaction{Amount: Money{Cents: cents}, Category: cat}
}

func TestSummarizeScenario(t *testing.T) {
	s := Summarize([]Transaction{
		tx(10000, CategoryIncome),
		tx(4000, CategoryExpense),
	})
	if s.TotalIncome.Cents != 10000 {
		t.Fatalf("total income: expected 10000, got %d", s.TotalIncome.Cents)
	}
	if s.TotalExpense.Cents != 4000 {
		t.Fatalf("total expense: expected 4000, got %d", s.TotalExpense.Cents)
	}
	if s.Balance.Cents != 6000 {
		t.Fatalf("balance: expected 6000, got %d", s.Balance.Cents)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	if s.TotalIncome.Cents != 0 || s.TotalExpense.Cents != 0 || s.Balance.Cents != 0 {
		t.Fatalf("empty set should aggregate to zero, got %+v", s)
	}
	if len(s.ByCategory) != 2 {
		t.Fatalf("breakdown should always have two entries, got %d", len(s.ByCategory))
	}
	if s.ByCategory[0].Name != "Income" || s.ByCategory[0].Value.Cents != 0 {
		t.Fatalf("unexpected income slice: %+v", s.ByCategory[0])
	}
	if s.ByCategory[1].Name != "Expense" || s.ByCategory[1].Value.Cents != 0 {
		t.Fatalf("unexpected expense slice: %+v", s.ByCategory[1])
	}
}

func TestSummarizeBalanceIdentity(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	cats := []Category{CategoryIncome, CategoryExpense, Category("transfer")}
	for i := 0; i < 100; i++ {
		var txs []Transaction
		for j := 0; j < rng.Intn(50); j++ {
			txs = append(txs, tx(rng.Int63n(100000), cats[rng.Intn(len(cats))]))
		}
		s := Summarize(txs)
		if s.Balance.Cents != s.TotalIncome.Cents-s.TotalExpense.Cents {
			t.Fatalf("balance identity violated: %+v", s)
		}
	}
}

func TestSummarizeOrderIndependent(t *testing.T) {
	txs := []Transaction{
		tx(150, CategoryIncome),
		tx(99, CategoryExpense),
		tx(12345, CategoryIncome),
		tx(1, CategoryExpense),
		tx(700, Category("other")),
	}
	want := Summarize(txs)
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		shuffled := append([]Transaction(nil), txs...)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})
		got := Summarize(shuffled)
		if got.TotalIncome != want.TotalIncome || got.TotalExpense != want.TotalExpense || got.Balance != want.Balance {
			t.Fatalf("aggregation depends on order: %+v vs %+v", got, want)
		}
	}
}

func TestSummarizeKnownCategoriesSumToTotal(t *testing.T) {
	txs := []Transaction{
		tx(100, CategoryIncome),
		tx(250, CategoryExpense),
		tx(4999, CategoryIncome),
		tx(1, CategoryExpense),
	}
	var all int64
	for _, x := range txs {
		all += x.Amount.Cents
	}
	s := Summarize(txs)
	if s.TotalIncome.Cents+s.TotalExpense.Cents != all {
		t.Fatalf("income+expense = %d, expected %d", s.TotalIncome.Cents+s.TotalExpense.Cents, all)
	}
}

func TestSummarizeExcludesUnknownCategory(t *testing.T) {
	s := Summarize([]Transaction{
		tx(500, CategoryIncome),
		tx(300, Category("savings")),
		tx(200, CategoryExpense),
	})
	if s.TotalIncome.Cents != 500 || s.TotalExpense.Cents != 200 {
		t.Fatalf("unknown category leaked into totals: %+v", s)
	}
	if s.Balance.Cents != 300 {
		t.Fatalf("balance: expected 300, got %d", s.Balance.Cents)
	}
}
