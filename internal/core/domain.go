package core

import (
	"errors"
	"strings"
	"time"
)

// ISODate is the layout used for the date column.
const ISODate = "2006-01-02"

const (
	Basic       Variant = "basic"
	Categorized Variant = "categorized"
)

const (
	FieldDate        Field = "date"
	FieldDescription Field = "description"
	FieldAmount      Field = "amount"
	FieldCategory    Field = "category"
)

// Grid header labels.
const (
	ColumnID          = "ID"
	ColumnDate        = "Date"
	ColumnDescription = "Description"
	ColumnAmount      = "Amount"
	ColumnCategory    = "Category"
)

type (
	// Variant selects which columns and views are active.
	Variant string

	// Field is an editable column of the expenses table.
	Field string

	Expense struct {
		ID          int64
		Date        string // ISO YYYY-MM-DD
		Description string
		Amount      string // verbatim text as submitted
		Category    string
	}

	// Form holds the raw values of the input form.
	Form struct {
		Date        string
		Description string
		Amount      string
		Category    string
	}
)

// Categories is the closed set offered by the category selector.
var Categories = []string{"Groceries", "Utilities", "Transportation", "Entertainment", "Others"}

// DefaultCategory is preselected in the form.
var DefaultCategory = Categories[0]

var (
	ErrMissingFields   = errors.New("please fill in all fields")
	ErrUnknownCategory = errors.New("unknown category")
	ErrUnknownField    = errors.New("unknown field")
	ErrIdentityField   = errors.New("identity column is not editable")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidVariant  = errors.New("invalid variant")
)

// ParseVariant maps a config value onto a Variant.
func ParseVariant(s string) (Variant, error) {
	switch v := Variant(strings.ToLower(strings.TrimSpace(s))); v {
	case Basic, Categorized:
		return v, nil
	default:
		return "", ErrInvalidVariant
	}
}

// HasCategory reports whether the variant carries the category column and chart.
func (v Variant) HasCategory() bool {
	return v == Categorized
}

// Columns returns the grid header labels for the variant.
func (v Variant) Columns() []string {
	cols := []string{ColumnID, ColumnDate, ColumnDescription, ColumnAmount}
	if v.HasCategory() {
		cols = append(cols, ColumnCategory)
	}
	return cols
}

// IsCategory reports whether name belongs to the closed category set.
func IsCategory(name string) bool {
	for _, c := range Categories {
		if c == name {
			return true
		}
	}
	return false
}

// FieldForColumn resolves a grid header label. The identity column yields
// ErrIdentityField.
func FieldForColumn(label string) (Field, error) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "id":
		return "", ErrIdentityField
	case string(FieldDate):
		return FieldDate, nil
	case string(FieldDescription):
		return FieldDescription, nil
	case string(FieldAmount):
		return FieldAmount, nil
	case string(FieldCategory):
		return FieldCategory, nil
	default:
		return "", ErrUnknownField
	}
}

// Valid reports whether f is one of the editable fields.
func (f Field) Valid() bool {
	switch f {
	case FieldDate, FieldDescription, FieldAmount, FieldCategory:
		return true
	}
	return false
}

// Value returns the cell text of e for the given column label.
func (e Expense) Value(label string) string {
	if strings.EqualFold(label, ColumnID) {
		return formatID(e.ID)
	}
	f, err := FieldForColumn(label)
	if err != nil {
		return ""
	}
	switch f {
	case FieldDate:
		return e.Date
	case FieldDescription:
		return e.Description
	case FieldAmount:
		return e.Amount
	default:
		return e.Category
	}
}

// NewForm returns an empty form dated today.
func NewForm(now time.Time) Form {
	return Form{Date: now.Format(ISODate), Category: DefaultCategory}
}

// Validate performs the presence checks of the input form. Category is
// defaulted rather than required.
func (f Form) Validate() error {
	if isBlank(f.Date) || isBlank(f.Description) || isBlank(f.Amount) {
		return ErrMissingFields
	}
	if f.Category != "" && !IsCategory(f.Category) {
		return ErrUnknownCategory
	}
	return nil
}

// Expense converts a validated form into a new row for the variant.
func (f Form) Expense(v Variant) Expense {
	e := Expense{
		Date:        f.Date,
		Description: f.Description,
		Amount:      f.Amount,
	}
	if v.HasCategory() {
		e.Category = f.Category
		if e.Category == "" {
			e.Category = DefaultCategory
		}
	}
	return e
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
