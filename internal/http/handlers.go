package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"spesetracker/internal/chart"
	"spesetracker/internal/core"
	"spesetracker/internal/ledger"
	"spesetracker/internal/log"
	"spesetracker/internal/services"
)

// Chart canvas used by the page and the default /chart.png size.
const (
	chartWidth  = 800
	chartHeight = 420
)

const warningMissingFields = "Please fill in all fields."

type gridCell struct {
	Column   string
	Value    string
	Editable bool
}

type gridRow struct {
	ID    int64
	Cells []gridCell
}

type gridData struct {
	Columns []string
	Rows    []gridRow
}

type chartData struct {
	Title, XLabel, YLabel string
	Layout                chart.Layout
	Empty                 bool
}

type pageData struct {
	Title      string
	Variant    string
	HasChart   bool
	Categories []string
	Form       core.Form
	Grid       gridData
	Chart      chartData
}

func newGridData(v services.View) gridData {
	g := gridData{Columns: v.Columns, Rows: make([]gridRow, 0, len(v.Rows))}
	for _, r := range v.Rows {
		row := gridRow{ID: r.ID, Cells: make([]gridCell, len(r.Cells))}
		for i, c := range r.Cells {
			row.Cells[i] = gridCell{
				Column:   v.Columns[i],
				Value:    c,
				Editable: v.Columns[i] != core.ColumnID,
			}
		}
		g.Rows = append(g.Rows, row)
	}
	return g
}

func newChartData(totals []core.CategoryTotal) chartData {
	return chartData{
		Title:  chart.Title,
		XLabel: chart.XLabel,
		YLabel: chart.YLabel,
		Layout: chart.Compute(totals, chartWidth, chartHeight),
		Empty:  len(totals) == 0,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).String(),
	})
}

// handleReady checks templates and, when the backend has one, the store probe.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]string)

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status, httpStatus = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	switch {
	case s.ready == nil:
		checks["store"] = "ok"
	case s.ready(ctx) != nil:
		checks["store"] = "failed"
		status, httpStatus = "not_ready", http.StatusServiceUnavailable
	default:
		checks["store"] = "ok"
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		s.logger.ErrorContext(r.Context(), "Templates not loaded", log.FieldOperation, log.OpRender)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	view, err := s.ledger.View(r.Context())
	if err != nil {
		InternalServerError("Could not load expenses").Write(w)
		return
	}

	data := pageData{
		Title:      "Advanced Expenses Tracker",
		Variant:    string(view.Variant),
		HasChart:   view.HasChart(),
		Categories: core.Categories,
		Form:       s.ledger.NewForm(),
		Grid:       newGridData(view),
	}
	if view.HasChart() {
		data.Chart = newChartData(view.Totals)
	}
	s.render(w, r, http.StatusOK, "index.html", data, nil)
}

func (s *Server) handleGrid(w http.ResponseWriter, r *http.Request) {
	view, err := s.ledger.View(r.Context())
	if err != nil {
		InternalServerError("Could not load expenses").Write(w)
		return
	}
	s.render(w, r, http.StatusOK, "grid", newGridData(view), nil)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	if !s.ledger.Variant().HasCategory() {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		return
	}
	totals, err := s.ledger.Totals(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Chart totals error", log.FieldOperation, log.OpAggregate, log.FieldError, err)
		InternalServerError("Could not load chart").Write(w)
		return
	}
	s.render(w, r, http.StatusOK, "chart", newChartData(totals), nil)
}

func (s *Server) handleChartPNG(w http.ResponseWriter, r *http.Request) {
	if !s.ledger.Variant().HasCategory() {
		http.NotFound(w, r)
		return
	}
	totals, err := s.ledger.Totals(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Chart totals error", log.FieldOperation, log.OpAggregate, log.FieldError, err)
		http.Error(w, "could not load chart", http.StatusInternalServerError)
		return
	}

	width, height := ParseChartSize(r.URL.Query(), chartWidth, chartHeight)
	var buf bytes.Buffer
	if err := chart.RenderPNG(&buf, totals, width, height); err != nil {
		s.logger.ErrorContext(r.Context(), "Chart render error", log.FieldOperation, log.OpRender, log.FieldError, err)
		http.Error(w, "could not render chart", http.StatusInternalServerError)
		return
	}
	NewHTMXResponse().
		Header("Content-Type", "image/png").
		Header("Cache-Control", "no-store").
		Body(buf.Bytes()).
		Write(w)
}

// handleCreateExpense submits the input form and answers with the reloaded grid.
func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}

	form := ParseExpenseForm(p, s.ledger.Variant())
	view, next, err := s.ledger.Submit(r.Context(), form)
	if err != nil {
		b := s.ledgerError(r, err)
		if errors.Is(err, services.ErrReload) {
			b.TriggerFormReset(next)
		}
		b.Write(w)
		return
	}

	s.render(w, r, http.StatusOK, "grid", newGridData(view), NewHTMXResponse().
		TriggerLedgerChanged().
		TriggerFormReset(next).
		TriggerSuccessNotification("Expense added"))
}

// handleEditCell applies a single-cell edit from the grid prompt.
func (s *Server) handleEditCell(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		BadRequestError("Invalid expense id").Write(w)
		return
	}
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}

	view, err := s.ledger.EditCell(r.Context(), id, r.PathValue("column"), p.Get("value"))
	if err != nil {
		s.ledgerError(r, err).Write(w)
		return
	}
	s.render(w, r, http.StatusOK, "grid", newGridData(view), NewHTMXResponse().TriggerLedgerChanged())
}

// ledgerError maps service errors onto status codes and a notification.
// A write that was stored but not reloaded still asks the panels to refresh.
func (s *Server) ledgerError(r *http.Request, err error) *HTMXResponseBuilder {
	var b *HTMXResponseBuilder
	switch {
	case errors.Is(err, core.ErrMissingFields):
		b = UnprocessableEntityError(warningMissingFields).TriggerWarningNotification(warningMissingFields)
	case errors.Is(err, core.ErrUnknownCategory):
		b = UnprocessableEntityError("Unknown category").TriggerWarningNotification("Unknown category")
	case errors.Is(err, core.ErrInvalidAmount):
		b = UnprocessableEntityError("Invalid amount").TriggerWarningNotification("Invalid amount")
	case errors.Is(err, core.ErrUnknownField):
		b = UnprocessableEntityError("Unknown column").TriggerWarningNotification("Unknown column")
	case errors.Is(err, ledger.ErrNotFound):
		b = NotFoundError("Expense not found").TriggerErrorNotification("Expense not found")
	case errors.Is(err, services.ErrReload):
		s.logger.ErrorContext(r.Context(), "Reload after write failed", log.FieldOperation, log.OpList, log.FieldError, err)
		b = InternalServerError("Saved, but the expenses could not be reloaded").
			TriggerLedgerChanged().
			TriggerErrorNotification("Saved, but the expenses could not be reloaded")
	default:
		s.logger.ErrorContext(r.Context(), "Ledger operation failed", log.FieldError, err)
		b = InternalServerError("Could not save the expense").TriggerErrorNotification("Could not save the expense")
	}
	return b
}

// render executes a template into a buffer so a failure never leaves a
// half-written response.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any, b *HTMXResponseBuilder) {
	if s.templates == nil {
		InternalServerError("templates not loaded").Write(w)
		return
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.ErrorContext(r.Context(), "Template execution failed", log.FieldOperation, log.OpRender, "template", name, log.FieldError, err)
		InternalServerError("Rendering error").Write(w)
		return
	}
	if b == nil {
		b = NewHTMXResponse()
	}
	b.Status(status).BodyHTML(buf.String()).Write(w)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
