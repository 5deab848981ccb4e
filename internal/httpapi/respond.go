package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"trackify/internal/core"
	"trackify/internal/ledger"
)

// loginPath is where unauthenticated clients are redirected to.
const loginPath = "/auth/login"

type errorBody struct {
	Error     string `json:"error"`
	Kind      string `json:"kind"`
	Retryable bool   `json:"retryable"`
	Redirect  string `json:"redirect,omitempty"`
}

type transactionBody struct {
	ID          int64  `json:"id"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	AmountCents int64  `json:"amount_cents"`
	Category    string `json:"category"`
	CreatedAt   string `json:"created_at"`
}

type pieSlice struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

type summaryBody struct {
	TotalIncome  string     `json:"total_income"`
	TotalExpense string     `json:"total_expense"`
	Balance      string     `json:"balance"`
	Pie          []pieSlice `json:"pie"`
}

type viewModelBody struct {
	State        string            `json:"state"`
	Transactions []transactionBody `json:"transactions,omitempty"`
	Summary      *summaryBody      `json:"summary,omitempty"`
	Error        *errorBody        `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// writeError maps the error taxonomy onto HTTP statuses. Unauthenticated
// carries a redirect hint instead of being a plain error banner; every
// body says whether a retry can help.
func writeError(w http.ResponseWriter, err error) {
	kind := core.KindOf(err)
	body := errorBody{
		Error:     userMessage(err),
		Kind:      string(kind),
		Retryable: kind == core.KindStore || kind == core.KindUnknown,
	}

	status := http.StatusInternalServerError
	switch kind {
	case core.KindUnauthenticated:
		status = http.StatusUnauthorized
		body.Redirect = loginPath
	case core.KindForbidden:
		status = http.StatusForbidden
	case core.KindNotFound:
		status = http.StatusNotFound
	case core.KindValidation:
		status = http.StatusUnprocessableEntity
	case core.KindStore:
		status = http.StatusBadGateway
	}

	writeJSON(w, status, body)
}

func errUnauthenticated(msg string) error {
	return core.NewError(core.KindUnauthenticated, msg)
}

// userMessage keeps internal wrapping out of responses: the kinded message
// is user-facing, anything else is generic.
func userMessage(err error) string {
	var ce *core.Error
	if errors.As(err, &ce) {
		return ce.Msg
	}
	return "something went wrong"
}

func viewModelJSON(vm ledger.ViewModel) viewModelBody {
	body := viewModelBody{State: string(vm.State)}
	if vm.State == ledger.StateReady {
		body.Transactions = transactionsJSON(vm.Transactions)
		body.Summary = summaryJSON(vm.Summary)
	}
	if vm.State == ledger.StateError {
		body.Error = &errorBody{
			Error:     vm.ErrMsg,
			Kind:      string(vm.ErrKind),
			Retryable: vm.Retryable,
		}
	}
	return body
}

func transactionsJSON(txs []core.Transaction) []transactionBody {
	out := make([]transactionBody, len(txs))
	for i, tx := range txs {
		out[i] = transactionBody{
			ID:          tx.ID,
			Description: tx.Description,
			Amount:      tx.Amount.Format(),
			AmountCents: tx.Amount.Cents,
			Category:    string(tx.Category),
			CreatedAt:   tx.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		}
	}
	return out
}

func summaryJSON(s core.Summary) *summaryBody {
	pie := make([]pieSlice, len(s.ByCategory))
	for i, c := range s.ByCategory {
		pie[i] = pieSlice{Name: c.Name, Value: float64(c.Value.Cents) / 100.0}
	}
	return &summaryBody{
		TotalIncome:  s.TotalIncome.Format(),
		TotalExpense: s.TotalExpense.Format(),
		Balance:      s.Balance.Format(),
		Pie:          pie,
	}
}
