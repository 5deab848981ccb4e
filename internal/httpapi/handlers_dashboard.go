package httpapi

import (
	"net/http"

	"trackify/internal/ledger"
)

const recentTransactionCount = 5

type dashboardBody struct {
	State   string            `json:"state"`
	Summary *summaryBody      `json:"summary,omitempty"`
	Recent  []transactionBody `json:"recent,omitempty"`
	Error   *errorBody        `json:"error,omitempty"`
}

// handleDashboard serves the aggregate view: totals, the category pie and
// the most recent movements.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctrl := s.loadedController(r)
	vm := ctrl.Snapshot()

	body := dashboardBody{State: string(vm.State)}
	switch vm.State {
	case ledger.StateReady:
		body.Summary = summaryJSON(vm.Summary)
		body.Recent = transactionsJSON(vm.Recent(recentTransactionCount))
	case ledger.StateError:
		body.Error = &errorBody{
			Error:     vm.ErrMsg,
			Kind:      string(vm.ErrKind),
			Retryable: vm.Retryable,
		}
	}
	writeJSON(w, http.StatusOK, body)
}
