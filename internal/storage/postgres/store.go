// Package postgres stores expenses in PostgreSQL through a pgx pool.
package postgres

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"spesetracker/internal/core"
	"spesetracker/internal/ledger"
)

type Store struct {
	pool      *pgxpool.Pool
	closeOnce sync.Once
}

var _ ledger.Store = (*Store)(nil)

// Open migrates the schema and connects a pool.
func Open(ctx context.Context, connURL string) (*Store, error) {
	if err := RunMigrations(connURL); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	pool, err := pgxpool.New(ctx, connURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() error {
	s.closeOnce.Do(s.pool.Close)
	return nil
}

func (s *Store) Insert(ctx context.Context, e core.Expense) (int64, error) {
	const query = `
		INSERT INTO expenses (date, description, amount, category)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	var id int64
	if err := s.pool.QueryRow(ctx, query, e.Date, e.Description, e.Amount, e.Category).Scan(&id); err != nil {
		return 0, fmt.Errorf("create expense: %w", err)
	}
	return id, nil
}

// Fixed statements per editable field.
var updateStatements = map[core.Field]string{
	core.FieldDate:        `UPDATE expenses SET date = $1 WHERE id = $2`,
	core.FieldDescription: `UPDATE expenses SET description = $1 WHERE id = $2`,
	core.FieldAmount:      `UPDATE expenses SET amount = $1 WHERE id = $2`,
	core.FieldCategory:    `UPDATE expenses SET category = $1 WHERE id = $2`,
}

func (s *Store) UpdateField(ctx context.Context, id int64, field core.Field, value string) error {
	query, ok := updateStatements[field]
	if !ok {
		return fmt.Errorf("update expense %d: %w: %q", id, core.ErrUnknownField, field)
	}
	tag, err := s.pool.Exec(ctx, query, value, id)
	if err != nil {
		return fmt.Errorf("update expense %d %s: %w", id, field, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update expense %d: %w", id, ledger.ErrNotFound)
	}
	return nil
}

func (s *Store) ListAll(ctx context.Context) ([]core.Expense, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, date, description, amount, category FROM expenses ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	expenses, err := pgx.CollectRows(rows, pgx.RowToStructByPos[core.Expense])
	if err != nil {
		return nil, fmt.Errorf("scan expenses: %w", err)
	}
	return expenses, nil
}

// AggregateByCategory sums the numeric value of each amount in Go, so
// exponents and overflow follow core.NumericValue exactly as the SQLite
// and memory stores do.
func (s *Store) AggregateByCategory(ctx context.Context) ([]core.CategoryTotal, error) {
	rows, err := s.pool.Query(ctx, `SELECT category, amount FROM expenses WHERE category <> ''`)
	if err != nil {
		return nil, fmt.Errorf("get category amounts: %w", err)
	}
	amounts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.Expense, error) {
		var e core.Expense
		err := row.Scan(&e.Category, &e.Amount)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan category amounts: %w", err)
	}
	return core.SumByCategory(amounts), nil
}

// Ping checks the pool, used by readiness probes.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
