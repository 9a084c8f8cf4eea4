package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"cuantrack/internal/core"
	"cuantrack/internal/ledger"
)

type transactionRequest struct {
	ID          string `json:"id"`
	Amount      amount `json:"amount"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Date        string `json:"date"`
	Type        string `json:"type"`
}

func (s *Server) transactionFromRequest(req transactionRequest) (core.Transaction, error) {
	amt, err := req.Amount.parse("amount")
	if err != nil {
		return core.Transaction{}, err
	}
	typ, err := parseTransactionType(req.Type)
	if err != nil {
		return core.Transaction{}, err
	}
	date, err := parseDate(req.Date, s.now())
	if err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{
		ID:          sanitizeText(req.ID),
		Amount:      amt,
		Description: sanitizeText(req.Description),
		Category:    sanitizeText(req.Category),
		Date:        date,
		Type:        typ,
	}, nil
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var f core.TransactionFilter
	var err error

	f.Category = sanitizeText(q.Get("category"))
	if v := q.Get("type"); v != "" {
		if f.Type, err = parseTransactionType(v); err != nil {
			respondError(w, r, err)
			return
		}
	}
	if f.From, err = parseDateBound(q.Get("from"), false); err != nil {
		respondError(w, r, err)
		return
	}
	if f.To, err = parseDateBound(q.Get("to"), true); err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, core.FilterTransactions(s.tracker.Ledger().Transactions(), f))
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	tx, ok := s.tracker.Ledger().Transaction(chi.URLParam(r, "txID"))
	if !ok {
		respondError(w, r, errNotFound)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	tx, err := s.transactionFromRequest(req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if err := s.tracker.AddTransaction(r.Context(), tx); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

// handleUpdateTransaction replaces every entry carrying the id.
func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	req.ID = chi.URLParam(r, "txID")
	tx, err := s.transactionFromRequest(req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := tx.Validate(); err != nil {
		respondError(w, r, err)
		return
	}

	err = s.tracker.UpdateLedger(r.Context(), func(l *ledger.Ledger) error {
		if !l.UpdateTransaction(tx) {
			return errNotFound
		}
		return nil
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "txID")
	err := s.tracker.UpdateLedger(r.Context(), func(l *ledger.Ledger) error {
		if l.DeleteTransaction(id) == 0 {
			return errNotFound
		}
		return nil
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type budgetRequest struct {
	Category string `json:"category"`
	Limit    amount `json:"limit"`
}

func (s *Server) handleGetBudgets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, nonNil(s.tracker.Ledger().Budgets()))
}

// handleSetBudgets replaces the whole budget set.
func (s *Server) handleSetBudgets(w http.ResponseWriter, r *http.Request) {
	var req []budgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	budgets := make([]core.Budget, 0, len(req))
	for _, b := range req {
		limit, err := b.Limit.parse("limit")
		if err != nil {
			respondError(w, r, err)
			return
		}
		budgets = append(budgets, core.Budget{Category: sanitizeText(b.Category), Limit: limit})
	}
	if err := s.tracker.SetBudgets(r.Context(), budgets); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(s.tracker.Ledger().Budgets()))
}

func (s *Server) handleBudgetUsage(w http.ResponseWriter, r *http.Request) {
	l := s.tracker.Ledger()
	writeJSON(w, http.StatusOK, core.ComputeBudgetUsage(l.Budgets(), l.Transactions(), s.now()))
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, core.Summarize(s.tracker.Ledger().Transactions()))
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	l := s.tracker.Ledger()
	writeJSON(w, http.StatusOK, core.BuildOverview(l.Transactions(), l.Budgets(), s.now()))
}

func (s *Server) handleDailyExpenses(w http.ResponseWriter, r *http.Request) {
	days, err := parseDays(r.URL.Query().Get("days"), 7)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, core.DailyExpenses(s.tracker.Ledger().Transactions(), s.now(), days))
}

// nonNil keeps empty collections encoding as [] rather than null.
func nonNil[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}
