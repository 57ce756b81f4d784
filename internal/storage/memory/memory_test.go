package memory

import (
	"context"
	"errors"
	"testing"

	"spesetracker/internal/core"
	"spesetracker/internal/ledger"
)

func TestMemoryStoreInsertAndList(t *testing.T) {
	s := New(core.Expense{Date: "2025-01-01", Description: "seed", Amount: "1"})
	ctx := context.Background()

	id, err := s.Insert(ctx, core.Expense{Date: "2025-01-02", Description: "t", Amount: "1.23", Category: "Others"})
	if err != nil || id != 2 {
		t.Fatalf("unexpected insert: id=%d err=%v", id, err)
	}
	rows, _ := s.ListAll(ctx)
	if len(rows) != 2 || rows[0].ID != 1 || rows[1].Amount != "1.23" {
		t.Fatalf("unexpected rows: %+v", rows)
	}

	// Mutating the returned slice must not leak into the store.
	rows[0].Description = "mutated"
	again, _ := s.ListAll(ctx)
	if again[0].Description != "seed" {
		t.Fatalf("ListAll returned shared storage")
	}
}

func TestMemoryStoreUpdateAndAggregate(t *testing.T) {
	s := New()
	ctx := context.Background()
	a, _ := s.Insert(ctx, core.Expense{Date: "d", Description: "a", Amount: "2.5", Category: "Utilities"})
	s.Insert(ctx, core.Expense{Date: "d", Description: "b", Amount: "4", Category: "Utilities"})
	s.Insert(ctx, core.Expense{Date: "d", Description: "c", Amount: "1", Category: "Groceries"})

	if err := s.UpdateField(ctx, a, core.FieldAmount, "3.5"); err != nil {
		t.Fatalf("UpdateField: %v", err)
	}
	if err := s.UpdateField(ctx, 42, core.FieldAmount, "1"); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.UpdateField(ctx, a, core.Field("id"), "1"); !errors.Is(err, core.ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}

	totals, err := s.AggregateByCategory(ctx)
	if err != nil {
		t.Fatalf("AggregateByCategory: %v", err)
	}
	if len(totals) != 2 || totals[0].Category != "Groceries" || totals[1].Total != 7.5 {
		t.Fatalf("unexpected totals: %+v", totals)
	}
}

func TestMemoryStoreClosed(t *testing.T) {
	s := New()
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := s.Insert(context.Background(), core.Expense{}); err == nil {
		t.Fatalf("expected error after close")
	}
}

func TestMemoryStoreAggregateOverflow(t *testing.T) {
	s := New(
		core.Expense{Date: "d", Description: "a", Amount: "1e999", Category: "Others"},
		core.Expense{Date: "d", Description: "b", Amount: "-1e999", Category: "Others"},
		core.Expense{Date: "d", Description: "c", Amount: "4", Category: "Others"},
	)
	totals, err := s.AggregateByCategory(context.Background())
	if err != nil {
		t.Fatalf("AggregateByCategory: %v", err)
	}
	if len(totals) != 1 || totals[0].Total != 4 {
		t.Fatalf("unexpected totals: %+v", totals)
	}
}
