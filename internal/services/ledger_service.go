package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"spesetracker/internal/amqp"
	"spesetracker/internal/core"
	"spesetracker/internal/ledger"
	"spesetracker/internal/log"
)

// EventPublisher announces ledger changes. *amqp.Client satisfies it.
type EventPublisher interface {
	PublishExpenseEvent(ctx context.Context, ev *amqp.ExpenseEvent) error
}

// ErrReload marks a failure to rebuild the view after a write that was
// stored. Retrying the action would write it twice.
var ErrReload = errors.New("reload ledger")

// Row is one grid line, cells ordered as View.Columns.
type Row struct {
	ID    int64
	Cells []string
}

// View is a full snapshot of the ledger as the front ends display it.
type View struct {
	Variant  core.Variant
	Columns  []string
	Rows     []Row
	Expenses []core.Expense
	// Totals is nil for the basic variant.
	Totals []core.CategoryTotal
}

// HasChart reports whether the view carries the category chart.
func (v View) HasChart() bool {
	return v.Variant.HasCategory()
}

// LedgerService writes user actions through to the store and rebuilds the
// whole view after every successful mutation.
type LedgerService struct {
	store        ledger.Store
	publisher    EventPublisher
	variant      core.Variant
	strictAmount bool
	logger       *log.Logger
	now          func() time.Time

	closeOnce sync.Once
	closeErr  error
}

type Option func(*LedgerService)

// WithPublisher enables change events.
func WithPublisher(p EventPublisher) Option {
	return func(s *LedgerService) { s.publisher = p }
}

// WithStrictAmount rejects amounts that are not positive decimals.
func WithStrictAmount(strict bool) Option {
	return func(s *LedgerService) { s.strictAmount = strict }
}

func WithLogger(l *log.Logger) Option {
	return func(s *LedgerService) { s.logger = l }
}

// WithClock overrides the source of "today" for the reset form.
func WithClock(now func() time.Time) Option {
	return func(s *LedgerService) { s.now = now }
}

func NewLedgerService(store ledger.Store, variant core.Variant, opts ...Option) *LedgerService {
	s := &LedgerService{
		store:   store,
		variant: variant,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	s.logger = s.logger.WithComponent(log.ComponentLedger)
	return s
}

func (s *LedgerService) Variant() core.Variant {
	return s.variant
}

// NewForm returns the empty form shown on startup and after each submit.
func (s *LedgerService) NewForm() core.Form {
	return core.NewForm(s.now())
}

// Submit validates the form, inserts one row and reloads the view. Once the
// row is stored the returned form is reset, even when the reload fails with
// ErrReload; on any other failure it is f unchanged and nothing was written.
func (s *LedgerService) Submit(ctx context.Context, f core.Form) (View, core.Form, error) {
	if err := f.Validate(); err != nil {
		s.logger.InfoContext(ctx, "Form rejected", log.FieldOperation, log.OpValidate, log.FieldError, err)
		return View{}, f, err
	}
	if err := s.checkAmount(f.Amount); err != nil {
		return View{}, f, err
	}

	e := f.Expense(s.variant)
	id, err := s.store.Insert(ctx, e)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to insert expense", log.NewFields().
			WithOperation(log.OpCreate).
			WithExpense(0, e.Date, e.Amount, e.Category).
			WithError(err).ToSlice()...)
		return View{}, f, fmt.Errorf("insert expense: %w", err)
	}
	s.logger.InfoContext(ctx, "Expense recorded", log.NewFields().
		WithOperation(log.OpCreate).
		WithExpense(id, e.Date, e.Amount, e.Category).ToSlice()...)

	s.publish(ctx, amqp.NewRecordedEvent(id))

	v, err := s.reload(ctx)
	return v, s.NewForm(), err
}

// EditCell replaces the value of one cell. Edits of the identity column and
// blank values are ignored without error; the returned view is the reloaded
// state either way.
func (s *LedgerService) EditCell(ctx context.Context, id int64, column, value string) (View, error) {
	field, err := core.FieldForColumn(column)
	switch {
	case errors.Is(err, core.ErrIdentityField):
		s.logger.DebugContext(ctx, "Ignoring edit of identity column", log.FieldExpenseID, id)
		return s.View(ctx)
	case err != nil:
		return View{}, fmt.Errorf("edit column %q: %w", column, err)
	}
	if field == core.FieldCategory && !s.variant.HasCategory() {
		return View{}, fmt.Errorf("edit column %q: %w", column, core.ErrUnknownField)
	}
	if strings.TrimSpace(value) == "" {
		return s.View(ctx)
	}

	switch field {
	case core.FieldCategory:
		if !core.IsCategory(value) {
			return View{}, fmt.Errorf("edit category: %w: %q", core.ErrUnknownCategory, value)
		}
	case core.FieldAmount:
		if err := s.checkAmount(value); err != nil {
			return View{}, err
		}
	}

	if err := s.store.UpdateField(ctx, id, field, value); err != nil {
		s.logger.ErrorContext(ctx, "Failed to update expense", log.NewFields().
			WithOperation(log.OpUpdate).
			WithCell(id, string(field)).
			WithError(err).ToSlice()...)
		return View{}, fmt.Errorf("update expense %d: %w", id, err)
	}
	s.logger.InfoContext(ctx, "Expense updated", log.NewFields().
		WithOperation(log.OpUpdate).
		WithCell(id, string(field)).ToSlice()...)

	s.publish(ctx, amqp.NewUpdatedEvent(id, string(field)))

	return s.reload(ctx)
}

// reload rebuilds the view after a successful write.
func (s *LedgerService) reload(ctx context.Context) (View, error) {
	v, err := s.View(ctx)
	if err != nil {
		return View{}, fmt.Errorf("%w: %w", ErrReload, err)
	}
	return v, nil
}

// View reloads every row and, for the categorized variant, the chart totals.
func (s *LedgerService) View(ctx context.Context) (View, error) {
	expenses, err := s.store.ListAll(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list expenses", log.FieldOperation, log.OpList, log.FieldError, err)
		return View{}, fmt.Errorf("list expenses: %w", err)
	}

	v := View{
		Variant:  s.variant,
		Columns:  s.variant.Columns(),
		Rows:     make([]Row, 0, len(expenses)),
		Expenses: expenses,
	}
	for _, e := range expenses {
		cells := make([]string, len(v.Columns))
		for i, col := range v.Columns {
			cells[i] = e.Value(col)
		}
		v.Rows = append(v.Rows, Row{ID: e.ID, Cells: cells})
	}

	if s.variant.HasCategory() {
		totals, err := s.store.AggregateByCategory(ctx)
		if err != nil {
			s.logger.ErrorContext(ctx, "Failed to aggregate expenses", log.FieldOperation, log.OpAggregate, log.FieldError, err)
			return View{}, fmt.Errorf("aggregate expenses: %w", err)
		}
		if totals == nil {
			totals = []core.CategoryTotal{}
		}
		v.Totals = totals
	}
	return v, nil
}

// Totals returns the per-category sums for the chart.
func (s *LedgerService) Totals(ctx context.Context) ([]core.CategoryTotal, error) {
	if !s.variant.HasCategory() {
		return nil, nil
	}
	totals, err := s.store.AggregateByCategory(ctx)
	if err != nil {
		return nil, fmt.Errorf("aggregate expenses: %w", err)
	}
	return totals, nil
}

func (s *LedgerService) checkAmount(amount string) error {
	if !s.strictAmount {
		return nil
	}
	if _, err := core.ParseDecimalToCents(amount); err != nil {
		return fmt.Errorf("amount %q: %w", amount, core.ErrInvalidAmount)
	}
	return nil
}

// publish never fails the user action; the row is already stored.
func (s *LedgerService) publish(ctx context.Context, ev *amqp.ExpenseEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishExpenseEvent(ctx, ev); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish expense event",
			log.FieldOperation, log.OpPublish,
			log.FieldExpenseID, ev.ID,
			"type", ev.Type,
			log.FieldError, err)
	}
}

// Close releases the store. Subsequent calls return the first result.
func (s *LedgerService) Close() error {
	s.closeOnce.Do(func() {
		if s.store != nil {
			if err := s.store.Close(); err != nil {
				s.closeErr = fmt.Errorf("close store: %w", err)
			}
		}
		s.logger.Info("Ledger closed", log.FieldOperation, log.OpShutdown)
	})
	return s.closeErr
}
