package http

import (
	"net/http"

	"spesetracker/internal/log"
)

type expenseJSON struct {
	ID          int64  `json:"id"`
	Date        string `json:"date"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Category    string `json:"category,omitempty"`
}

type totalJSON struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
}

func (s *Server) handleAPIExpenses(w http.ResponseWriter, r *http.Request) {
	view, err := s.ledger.View(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not load expenses"})
		return
	}
	out := make([]expenseJSON, 0, len(view.Expenses))
	for _, e := range view.Expenses {
		out = append(out, expenseJSON{
			ID:          e.ID,
			Date:        e.Date,
			Description: e.Description,
			Amount:      e.Amount,
			Category:    e.Category,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAPITotals(w http.ResponseWriter, r *http.Request) {
	if !s.ledger.Variant().HasCategory() {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "totals require the categorized variant"})
		return
	}
	totals, err := s.ledger.Totals(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Totals error", log.FieldOperation, log.OpAggregate, log.FieldError, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not load totals"})
		return
	}
	out := make([]totalJSON, 0, len(totals))
	for _, t := range totals {
		out = append(out, totalJSON{Category: t.Category, Total: t.Total})
	}
	writeJSON(w, http.StatusOK, out)
}
