package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"trackify/internal/core"
	"trackify/internal/ledger"
)

type addTransactionRequest struct {
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Category    string `json:"category"`
}

// loadedController resolves the controller for the request's session and
// runs the first fetch when the ledger has not been loaded yet.
func (s *Server) loadedController(r *http.Request) *ledger.Controller {
	ctrl := s.registry.For(sessionFrom(r))
	if ctrl.Snapshot().State == ledger.StateIdle {
		_ = ctrl.Refresh(r.Context())
	}
	return ctrl
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	ctrl := s.loadedController(r)
	writeJSON(w, http.StatusOK, viewModelJSON(ctrl.Snapshot()))
}

func (s *Server) handleAddTransaction(w http.ResponseWriter, r *http.Request) {
	var req addTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, core.NewError(core.KindValidation, "request body must be JSON"))
		return
	}
	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	in := core.TransactionInput{
		Description: req.Description,
		Amount:      core.Money{Cents: cents},
		Category:    core.Category(req.Category),
	}

	ctrl := s.loadedController(r)
	if err := ctrl.Add(r.Context(), in); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewModelJSON(ctrl.Snapshot()))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, core.NewError(core.KindValidation, "transaction id must be a positive integer"))
		return
	}
	// Deletion is destructive, so the client has to state the confirmation
	// explicitly on every call.
	if r.URL.Query().Get("confirm") != "true" {
		writeJSON(w, http.StatusBadRequest, errorBody{
			Error: "deletion requires confirm=true",
			Kind:  string(core.KindValidation),
		})
		return
	}

	ctrl := s.loadedController(r)
	if err := ctrl.Delete(r.Context(), id, true); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRetry(w http.ResponseWriter, r *http.Request) {
	ctrl := s.registry.For(sessionFrom(r))
	if err := ctrl.Retry(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewModelJSON(ctrl.Snapshot()))
}
