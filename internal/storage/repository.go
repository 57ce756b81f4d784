package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"spesetracker/internal/core"
	"spesetracker/internal/ledger"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db        *sql.DB
	queries   *Queries
	closeOnce sync.Once
	closeErr  error
}

var _ ledger.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	// Run migrations before the main connection sees the schema
	if err := RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One connection keeps writers serialized on the single file.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

// Close releases the database handle. Subsequent calls return the first result.
func (r *SQLiteRepository) Close() error {
	r.closeOnce.Do(func() {
		if r.db != nil {
			r.closeErr = r.db.Close()
		}
	})
	return r.closeErr
}

// Insert implements ledger.ExpenseWriter
func (r *SQLiteRepository) Insert(ctx context.Context, e core.Expense) (int64, error) {
	expense, err := r.queries.CreateExpense(ctx, CreateExpenseParams{
		Date:        e.Date,
		Description: e.Description,
		Amount:      e.Amount,
		Category:    e.Category,
	})
	if err != nil {
		return 0, fmt.Errorf("create expense: %w", err)
	}

	slog.DebugContext(ctx, "Expense saved to SQLite",
		"id", expense.ID,
		"date", expense.Date,
		"amount", expense.Amount,
		"category", expense.Category)

	return expense.ID, nil
}

// UpdateField implements ledger.FieldUpdater. Each field has its own
// statement so the column name never reaches the query text.
func (r *SQLiteRepository) UpdateField(ctx context.Context, id int64, field core.Field, value string) error {
	var (
		n   int64
		err error
	)
	switch field {
	case core.FieldDate:
		n, err = r.queries.UpdateExpenseDate(ctx, value, id)
	case core.FieldDescription:
		n, err = r.queries.UpdateExpenseDescription(ctx, value, id)
	case core.FieldAmount:
		n, err = r.queries.UpdateExpenseAmount(ctx, value, id)
	case core.FieldCategory:
		n, err = r.queries.UpdateExpenseCategory(ctx, value, id)
	default:
		return fmt.Errorf("update expense %d: %w: %q", id, core.ErrUnknownField, field)
	}
	if err != nil {
		return fmt.Errorf("update expense %d %s: %w", id, field, err)
	}
	if n == 0 {
		return fmt.Errorf("update expense %d: %w", id, ledger.ErrNotFound)
	}
	return nil
}

// ListAll implements ledger.ExpenseLister
func (r *SQLiteRepository) ListAll(ctx context.Context) ([]core.Expense, error) {
	rows, err := r.queries.ListExpenses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}

	expenses := make([]core.Expense, len(rows))
	for i, e := range rows {
		expenses[i] = core.Expense{
			ID:          e.ID,
			Date:        e.Date,
			Description: e.Description,
			Amount:      e.Amount,
			Category:    e.Category,
		}
	}
	return expenses, nil
}

// AggregateByCategory implements ledger.CategoryAggregator
func (r *SQLiteRepository) AggregateByCategory(ctx context.Context) ([]core.CategoryTotal, error) {
	sums, err := r.queries.GetCategorySums(ctx)
	if err != nil {
		return nil, fmt.Errorf("get category sums: %w", err)
	}

	totals := make([]core.CategoryTotal, len(sums))
	for i, s := range sums {
		totals[i] = core.CategoryTotal{Category: s.Category, Total: core.FiniteTotal(s.TotalAmount)}
	}
	return totals, nil
}

// GetExpense retrieves a single expense by ID
func (r *SQLiteRepository) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	e, err := r.queries.GetExpense(ctx, id)
	if err == sql.ErrNoRows {
		return core.Expense{}, fmt.Errorf("get expense %d: %w", id, ledger.ErrNotFound)
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense by id: %w", err)
	}
	return core.Expense{ID: e.ID, Date: e.Date, Description: e.Description, Amount: e.Amount, Category: e.Category}, nil
}

// Count returns the number of stored expenses.
func (r *SQLiteRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.queries.CountExpenses(ctx)
	if err != nil {
		return 0, fmt.Errorf("count expenses: %w", err)
	}
	return n, nil
}

// Ping checks the connection, used by readiness probes.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
