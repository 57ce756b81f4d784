package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

const createExpense = `
INSERT INTO expenses (date, description, amount, category)
VALUES (?, ?, ?, ?)
RETURNING id, date, description, amount, category
`

type CreateExpenseParams struct {
	Date        string
	Description string
	Amount      string
	Category    string
}

func (q *Queries) CreateExpense(ctx context.Context, arg CreateExpenseParams) (Expense, error) {
	row := q.db.QueryRowContext(ctx, createExpense,
		arg.Date,
		arg.Description,
		arg.Amount,
		arg.Category,
	)
	var i Expense
	err := row.Scan(
		&i.ID,
		&i.Date,
		&i.Description,
		&i.Amount,
		&i.Category,
	)
	return i, err
}

const getExpense = `
SELECT id, date, description, amount, category FROM expenses WHERE id = ?
`

func (q *Queries) GetExpense(ctx context.Context, id int64) (Expense, error) {
	row := q.db.QueryRowContext(ctx, getExpense, id)
	var i Expense
	err := row.Scan(
		&i.ID,
		&i.Date,
		&i.Description,
		&i.Amount,
		&i.Category,
	)
	return i, err
}

const listExpenses = `
SELECT id, date, description, amount, category FROM expenses ORDER BY id
`

func (q *Queries) ListExpenses(ctx context.Context) ([]Expense, error) {
	rows, err := q.db.QueryContext(ctx, listExpenses)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Expense
	for rows.Next() {
		var i Expense
		if err := rows.Scan(
			&i.ID,
			&i.Date,
			&i.Description,
			&i.Amount,
			&i.Category,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Amounts whose numeric prefix overflows to an infinity count as 0, so a
// category holding both +Inf and -Inf never sums to NULL.
const getCategorySums = `
SELECT category,
       TOTAL(CASE WHEN abs(CAST(amount AS REAL)) <= 1.7976931348623157e308
                  THEN CAST(amount AS REAL) ELSE 0 END) AS total_amount
FROM expenses
WHERE category <> ''
GROUP BY category
ORDER BY category
`

func (q *Queries) GetCategorySums(ctx context.Context) ([]CategorySum, error) {
	rows, err := q.db.QueryContext(ctx, getCategorySums)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CategorySum
	for rows.Next() {
		var (
			i     CategorySum
			total sql.NullFloat64
		)
		if err := rows.Scan(&i.Category, &total); err != nil {
			return nil, err
		}
		i.TotalAmount = total.Float64
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updateExpenseDate = `UPDATE expenses SET date = ? WHERE id = ?`

func (q *Queries) UpdateExpenseDate(ctx context.Context, date string, id int64) (int64, error) {
	return q.execRows(ctx, updateExpenseDate, date, id)
}

const updateExpenseDescription = `UPDATE expenses SET description = ? WHERE id = ?`

func (q *Queries) UpdateExpenseDescription(ctx context.Context, description string, id int64) (int64, error) {
	return q.execRows(ctx, updateExpenseDescription, description, id)
}

const updateExpenseAmount = `UPDATE expenses SET amount = ? WHERE id = ?`

func (q *Queries) UpdateExpenseAmount(ctx context.Context, amount string, id int64) (int64, error) {
	return q.execRows(ctx, updateExpenseAmount, amount, id)
}

const updateExpenseCategory = `UPDATE expenses SET category = ? WHERE id = ?`

func (q *Queries) UpdateExpenseCategory(ctx context.Context, category string, id int64) (int64, error) {
	return q.execRows(ctx, updateExpenseCategory, category, id)
}

const countExpenses = `SELECT COUNT(*) FROM expenses`

func (q *Queries) CountExpenses(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countExpenses)
	var count int64
	err := row.Scan(&count)
	return count, err
}

func (q *Queries) execRows(ctx context.Context, query string, args ...interface{}) (int64, error) {
	result, err := q.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
