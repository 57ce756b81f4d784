package ledger

import (
	"context"
	"errors"

	"spesetracker/internal/core"
)

// ErrNotFound is returned when an update targets a missing row.
var ErrNotFound = errors.New("expense not found")

// Ports implemented by every store backend.
type (
	ExpenseWriter interface {
		Insert(ctx context.Context, e core.Expense) (id int64, err error)
	}

	// FieldUpdater changes a single column of a single row.
	FieldUpdater interface {
		UpdateField(ctx context.Context, id int64, field core.Field, value string) error
	}

	// ExpenseLister returns every row in the store's natural order.
	ExpenseLister interface {
		ListAll(ctx context.Context) ([]core.Expense, error)
	}

	// CategoryAggregator sums amounts grouped by category.
	CategoryAggregator interface {
		AggregateByCategory(ctx context.Context) ([]core.CategoryTotal, error)
	}

	Store interface {
		ExpenseWriter
		FieldUpdater
		ExpenseLister
		CategoryAggregator
		Close() error
	}
)
