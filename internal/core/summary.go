package core

import (
	"math"
	"sort"
	"strconv"
)

// CategoryTotal is the summed amount of all expenses in one category.
type CategoryTotal struct {
	Category string
	Total    float64
}

// FormatTotal renders a total with two decimals.
func FormatTotal(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// FiniteTotal maps NaN and infinities to 0. A sum that overflows float64
// has no meaningful bar height.
func FiniteTotal(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// SumByCategory totals the numeric value of every amount per category,
// ordered by category name. Rows without a category are skipped.
func SumByCategory(expenses []Expense) []CategoryTotal {
	sums := map[string]float64{}
	for _, e := range expenses {
		if e.Category == "" {
			continue
		}
		sums[e.Category] += NumericValue(e.Amount)
	}
	out := make([]CategoryTotal, 0, len(sums))
	for c, v := range sums {
		out = append(out, CategoryTotal{Category: c, Total: FiniteTotal(v)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
