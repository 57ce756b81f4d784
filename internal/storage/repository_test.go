package storage

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"spesetracker/internal/core"
	"spesetracker/internal/ledger"
)

func newTestRepo(t *testing.T) (*SQLiteRepository, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "expenses.db")
	repo, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo, path
}

func TestInsertAndList(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	in := core.Expense{Date: "2025-02-01", Description: "  pasta, sauce ", Amount: "12.50", Category: "Groceries"}
	id1, err := repo.Insert(ctx, in)
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	id2, err := repo.Insert(ctx, core.Expense{Date: "2025-02-02", Description: "bus", Amount: "abc", Category: "Transportation"})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if id2 <= id1 {
		t.Fatalf("ids must increase: %d then %d", id1, id2)
	}

	rows, err := repo.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	in.ID = id1
	if rows[0] != in {
		t.Fatalf("row mismatch: got %+v, want %+v", rows[0], in)
	}
	if rows[1].Amount != "abc" {
		t.Fatalf("non numeric amount must be kept verbatim, got %q", rows[1].Amount)
	}
}

func TestUpdateFieldTouchesSingleCell(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	a, _ := repo.Insert(ctx, core.Expense{Date: "2025-01-01", Description: "a", Amount: "1", Category: "Others"})
	b, _ := repo.Insert(ctx, core.Expense{Date: "2025-01-02", Description: "b", Amount: "2", Category: "Others"})

	if err := repo.UpdateField(ctx, a, core.FieldDescription, "changed"); err != nil {
		t.Fatalf("UpdateField: %v", err)
	}

	got, err := repo.GetExpense(ctx, a)
	if err != nil {
		t.Fatalf("GetExpense: %v", err)
	}
	want := core.Expense{ID: a, Date: "2025-01-01", Description: "changed", Amount: "1", Category: "Others"}
	if got != want {
		t.Fatalf("edited row = %+v, want %+v", got, want)
	}
	other, _ := repo.GetExpense(ctx, b)
	if other.Description != "b" {
		t.Fatalf("other row changed: %+v", other)
	}

	for _, f := range []core.Field{core.FieldDate, core.FieldAmount, core.FieldCategory} {
		if err := repo.UpdateField(ctx, b, f, "v-"+string(f)); err != nil {
			t.Fatalf("UpdateField(%s): %v", f, err)
		}
	}
	other, _ = repo.GetExpense(ctx, b)
	if other.Date != "v-date" || other.Amount != "v-amount" || other.Category != "v-category" {
		t.Fatalf("unexpected row after updates: %+v", other)
	}
}

func TestUpdateFieldErrors(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	if err := repo.UpdateField(ctx, 99, core.FieldAmount, "1"); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	id, _ := repo.Insert(ctx, core.Expense{Date: "2025-01-01", Description: "a", Amount: "1"})
	if err := repo.UpdateField(ctx, id, core.Field("id"), "5"); !errors.Is(err, core.ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
	if _, err := repo.GetExpense(ctx, 1234); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("expected ErrNotFound from GetExpense, got %v", err)
	}
}

func TestAggregateByCategory(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	for _, e := range []core.Expense{
		{Date: "2025-01-01", Description: "a", Amount: "12.50", Category: "Groceries"},
		{Date: "2025-01-02", Description: "b", Amount: "7.25", Category: "Groceries"},
		{Date: "2025-01-03", Description: "c", Amount: "40", Category: "Utilities"},
		{Date: "2025-01-04", Description: "d", Amount: "oops", Category: "Utilities"},
		{Date: "2025-01-05", Description: "e", Amount: "3"},
	} {
		if _, err := repo.Insert(ctx, e); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	totals, err := repo.AggregateByCategory(ctx)
	if err != nil {
		t.Fatalf("AggregateByCategory: %v", err)
	}
	want := []core.CategoryTotal{{Category: "Groceries", Total: 19.75}, {Category: "Utilities", Total: 40}}
	if len(totals) != len(want) {
		t.Fatalf("totals = %+v, want %+v", totals, want)
	}
	for i := range want {
		if totals[i] != want[i] {
			t.Fatalf("totals[%d] = %+v, want %+v", i, totals[i], want[i])
		}
	}
}

func TestAggregateByCategoryOverflowingAmounts(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	for _, e := range []core.Expense{
		{Date: "2025-01-01", Description: "a", Amount: "1e999", Category: "Others"},
		{Date: "2025-01-02", Description: "b", Amount: "-1e999", Category: "Others"},
		{Date: "2025-01-03", Description: "c", Amount: "2.5", Category: "Others"},
		{Date: "2025-01-04", Description: "d", Amount: "1e308", Category: "Utilities"},
		{Date: "2025-01-05", Description: "e", Amount: "1e308", Category: "Utilities"},
		{Date: "2025-01-06", Description: "f", Amount: "1e3", Category: "Groceries"},
	} {
		if _, err := repo.Insert(ctx, e); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	totals, err := repo.AggregateByCategory(ctx)
	if err != nil {
		t.Fatalf("AggregateByCategory: %v", err)
	}
	want := []core.CategoryTotal{
		{Category: "Groceries", Total: 1000},
		{Category: "Others", Total: 2.5},
		{Category: "Utilities", Total: 0},
	}
	if len(totals) != len(want) {
		t.Fatalf("totals = %+v, want %+v", totals, want)
	}
	for i := range want {
		if totals[i] != want[i] {
			t.Fatalf("totals[%d] = %+v, want %+v", i, totals[i], want[i])
		}
	}

	rows, err := repo.ListAll(ctx)
	if err != nil || len(rows) != 6 || rows[0].Amount != "1e999" {
		t.Fatalf("ListAll = %+v, %v", rows, err)
	}
}

func TestReopenKeepsRows(t *testing.T) {
	repo, path := newTestRepo(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := repo.Insert(ctx, core.Expense{Date: "2025-01-01", Description: "x", Amount: "1"}); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}
	if err := repo.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := repo.Close(); err != nil {
		t.Fatalf("second Close must be a no-op, got %v", err)
	}

	reopened, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	n, err := reopened.Count(ctx)
	if err != nil || n != 3 {
		t.Fatalf("Count = %d, %v; want 3", n, err)
	}
	rows, _ := reopened.ListAll(ctx)
	for i, r := range rows {
		if r.ID != int64(i+1) {
			t.Fatalf("row %d has id %d", i, r.ID)
		}
	}
}

func TestLegacyFilesAreUpgraded(t *testing.T) {
	cases := []struct {
		name   string
		schema string
		insert string
	}{
		{
			name:   "without category",
			schema: `CREATE TABLE expenses (id INTEGER PRIMARY KEY AUTOINCREMENT, date DATE NOT NULL, description TEXT NOT NULL, amount REAL NOT NULL)`,
			insert: `INSERT INTO expenses (date, description, amount) VALUES ('2024-05-01', 'old', '3.5')`,
		},
		{
			name:   "with category",
			schema: `CREATE TABLE expenses (id INTEGER PRIMARY KEY AUTOINCREMENT, date DATE NOT NULL, description TEXT NOT NULL, amount REAL NOT NULL, category TEXT NOT NULL)`,
			insert: `INSERT INTO expenses (date, description, amount, category) VALUES ('2024-05-01', 'old', '3.5', 'Others')`,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "expenses.db")
			raw, err := sql.Open("sqlite", path)
			if err != nil {
				t.Fatalf("open raw: %v", err)
			}
			for _, stmt := range []string{tc.schema, tc.insert} {
				if _, err := raw.Exec(stmt); err != nil {
					t.Fatalf("exec %q: %v", stmt, err)
				}
			}
			raw.Close()

			repo, err := NewSQLiteRepository(path)
			if err != nil {
				t.Fatalf("NewSQLiteRepository on legacy file: %v", err)
			}
			defer repo.Close()

			ctx := context.Background()
			id, err := repo.Insert(ctx, core.Expense{Date: "2025-01-01", Description: "new", Amount: "1", Category: "Groceries"})
			if err != nil {
				t.Fatalf("Insert on upgraded file: %v", err)
			}
			rows, err := repo.ListAll(ctx)
			if err != nil || len(rows) != 2 {
				t.Fatalf("ListAll = %v, %v", rows, err)
			}
			if rows[0].Description != "old" || rows[1].ID != id {
				t.Fatalf("unexpected rows: %+v", rows)
			}
		})
	}
}
