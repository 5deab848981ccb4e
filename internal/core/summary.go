package core

// CategoryAmount is one slice of the category breakdown.
type CategoryAmount struct {
	Name  string
	Value Money
}

// Summary is the derived aggregate view over a transaction set. It is
// recomputed from scratch on every change and never persisted.
type Summary struct {
	TotalIncome  Money
	TotalExpense Money
	Balance      Money
	ByCategory   []CategoryAmount
}

// Summarize partitions transactions by category in a single pass and sums
// each side. Transactions with a category outside income/expense contribute
// to neither total. The reduction is order-independent and side-effect free.
func Summarize(txs []Transaction) Summary {
	var income, expense Money
	for _, tx := range txs {
		switch tx.Category {
		case CategoryIncome:
			income = income.Add(tx.Amount)
		case CategoryExpense:
			expense = expense.Add(tx.Amount)
		}
	}
	return Summary{
		TotalIncome:  income,
		TotalExpense: expense,
		Balance:      income.Sub(expense),
		ByCategory: []CategoryAmount{
			{Name: "Income", Value: income},
			{Name: "Expense", Value: expense},
		},
	}
}
