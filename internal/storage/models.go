package storage

// Expense mirrors a row of the expenses table.
type Expense struct {
	ID          int64
	Date        string
	Description string
	Amount      string
	Category    string
}

// CategorySum is one row of the grouped total query.
type CategorySum struct {
	Category    string
	TotalAmount float64
}
