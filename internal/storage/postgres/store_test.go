package postgres

import (
	"context"
	"errors"
	"os"
	"testing"

	"spesetracker/internal/core"
	"spesetracker/internal/ledger"
)

func TestMigrateURL(t *testing.T) {
	cases := map[string]string{
		"postgres://u:p@localhost:5432/db":   "pgx5://u:p@localhost:5432/db",
		"postgresql://u:p@localhost:5432/db": "pgx5://u:p@localhost:5432/db",
		"pgx5://u@h/db":                      "pgx5://u@h/db",
	}
	for in, want := range cases {
		if got := migrateURL(in); got != want {
			t.Errorf("migrateURL(%q) = %q, want %q", in, got, want)
		}
	}
}

// Requires a disposable database:
// POSTGRES_TEST_URL=postgres://... go test ./internal/storage/postgres
func TestStoreAgainstPostgres(t *testing.T) {
	url := os.Getenv("POSTGRES_TEST_URL")
	if url == "" {
		t.Skip("POSTGRES_TEST_URL not set, skipping postgres test")
	}
	ctx := context.Background()

	s, err := Open(ctx, url)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()
	if _, err := s.pool.Exec(ctx, `TRUNCATE expenses RESTART IDENTITY`); err != nil {
		t.Fatalf("truncate: %v", err)
	}

	a, err := s.Insert(ctx, core.Expense{Date: "2025-01-01", Description: "a", Amount: "12.50", Category: "Groceries"})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if _, err := s.Insert(ctx, core.Expense{Date: "2025-01-02", Description: "b", Amount: "7.25", Category: "Groceries"}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if _, err := s.Insert(ctx, core.Expense{Date: "2025-01-03", Description: "c", Amount: "n/a", Category: "Others"}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	if err := s.UpdateField(ctx, a, core.FieldDescription, "edited"); err != nil {
		t.Fatalf("UpdateField: %v", err)
	}
	if err := s.UpdateField(ctx, 9999, core.FieldAmount, "1"); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	rows, err := s.ListAll(ctx)
	if err != nil || len(rows) != 3 || rows[0].Description != "edited" {
		t.Fatalf("ListAll = %+v, %v", rows, err)
	}

	totals, err := s.AggregateByCategory(ctx)
	if err != nil {
		t.Fatalf("AggregateByCategory: %v", err)
	}
	want := []core.CategoryTotal{{Category: "Groceries", Total: 19.75}, {Category: "Others", Total: 0}}
	if len(totals) != 2 || totals[0] != want[0] || totals[1] != want[1] {
		t.Fatalf("totals = %+v, want %+v", totals, want)
	}

	for _, amount := range []string{"1e3", "1e999", "-1e999"} {
		if _, err := s.Insert(ctx, core.Expense{Date: "2025-01-04", Description: "d", Amount: amount, Category: "Utilities"}); err != nil {
			t.Fatalf("Insert(%q): %v", amount, err)
		}
	}
	totals, err = s.AggregateByCategory(ctx)
	if err != nil {
		t.Fatalf("AggregateByCategory: %v", err)
	}
	if len(totals) != 3 || totals[2] != (core.CategoryTotal{Category: "Utilities", Total: 1000}) {
		t.Fatalf("totals = %+v, exponent and overflow rows not counted as in sqlite", totals)
	}
}
