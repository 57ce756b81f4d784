package log

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLoggerTagsComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelInfo, Component: ComponentLedger, Output: &buf})

	l.Info("Expense recorded", FieldExpenseID, 3)
	out := buf.String()
	if !strings.Contains(out, "component=ledger") || !strings.Contains(out, "expense_id=3") {
		t.Errorf("unexpected output: %s", out)
	}

	buf.Reset()
	l.WithComponent(ComponentHTTP).Warn("slow")
	if !strings.Contains(buf.String(), "component=http") {
		t.Errorf("WithComponent not applied: %s", buf.String())
	}
}

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelWarn, Output: &buf})

	l.Info("hidden")
	l.Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("records below level were written: %s", buf.String())
	}
	l.Error("shown")
	if !strings.Contains(buf.String(), "shown") || l.Component() != ComponentApp {
		t.Errorf("unexpected output %q component %q", buf.String(), l.Component())
	}
}

func TestLogFields(t *testing.T) {
	f := NewFields().
		WithOperation(OpCreate).
		WithExpense(7, "2024-03-15", "2,50", "").
		WithError(errors.New("boom"))

	if f[FieldOperation] != OpCreate || f[FieldExpenseID] != int64(7) || f[FieldError] != "boom" {
		t.Errorf("unexpected fields: %v", f)
	}
	if _, ok := f[FieldCategory]; ok {
		t.Error("empty category should be omitted")
	}
	if got := len(f.ToSlice()); got != len(f)*2 {
		t.Errorf("ToSlice length = %d, want %d", got, len(f)*2)
	}

	cell := NewFields().WithCell(2, "amount").WithError(nil)
	if cell[FieldColumn] != "amount" {
		t.Errorf("unexpected cell fields: %v", cell)
	}
	if _, ok := cell[FieldError]; ok {
		t.Error("nil error should be omitted")
	}
}
