package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"spesetracker/internal/core"
	"spesetracker/internal/ledger"
)

// Store keeps expenses in process memory. Rows are lost on exit.
type Store struct {
	mu     sync.Mutex
	nextID int64
	items  []core.Expense
	closed bool
}

var _ ledger.Store = (*Store)(nil)

func New(seed ...core.Expense) *Store {
	s := &Store{}
	for _, e := range seed {
		s.nextID++
		e.ID = s.nextID
		s.items = append(s.items, e)
	}
	return s
}

// Insert stores the expense and assigns the next identity.
func (s *Store) Insert(_ context.Context, e core.Expense) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, errClosed
	}
	s.nextID++
	e.ID = s.nextID
	s.items = append(s.items, e)
	return e.ID, nil
}

func (s *Store) UpdateField(_ context.Context, id int64, field core.Field, value string) error {
	if !field.Valid() {
		return fmt.Errorf("update expense %d: %w: %q", id, core.ErrUnknownField, field)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errClosed
	}
	for i := range s.items {
		if s.items[i].ID != id {
			continue
		}
		switch field {
		case core.FieldDate:
			s.items[i].Date = value
		case core.FieldDescription:
			s.items[i].Description = value
		case core.FieldAmount:
			s.items[i].Amount = value
		case core.FieldCategory:
			s.items[i].Category = value
		}
		return nil
	}
	return fmt.Errorf("update expense %d: %w", id, ledger.ErrNotFound)
}

// ListAll returns a copy of every row in insertion order.
func (s *Store) ListAll(_ context.Context) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errClosed
	}
	return append([]core.Expense(nil), s.items...), nil
}

// AggregateByCategory sums amounts with the same numeric-prefix rule the
// SQL stores use, ordered by category name.
func (s *Store) AggregateByCategory(_ context.Context) ([]core.CategoryTotal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errClosed
	}
	return core.SumByCategory(s.items), nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

var errClosed = errors.New("memory store closed")
