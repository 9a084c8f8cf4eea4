package core

import (
	"github.com/shopspring/decimal"
)

// ComputeListTotals sums estimated and actual spend for a list.
//
// Estimated counts every item regardless of purchase state. Actual counts only
// purchased items that carry an actual price. A nil list yields zero totals.
func ComputeListTotals(list *ShoppingList) ListTotals {
	if list == nil {
		return ListTotals{Estimated: decimal.Zero, Actual: decimal.Zero, Difference: decimal.Zero}
	}

	estimated := decimal.Zero
	actual := decimal.Zero
	for _, it := range list.Items {
		estimated = estimated.Add(it.EstPrice.Mul(it.Qty))
		if it.Purchased && it.ActualPrice != nil {
			actual = actual.Add(it.ActualPrice.Mul(it.Qty))
		}
	}

	return ListTotals{
		Estimated:  estimated,
		Actual:     actual,
		Difference: actual.Sub(estimated),
	}
}

// TopCategoryBySpend returns the expense category with the largest total.
// Ties go to the lexicographically smallest category name. ok is false when
// there are no expenses.
func TopCategoryBySpend(txs []Transaction) (top CategoryAmount, ok bool) {
	for _, c := range CategoryBreakdown(txs) {
		if !ok || c.Amount.GreaterThan(top.Amount) ||
			(c.Amount.Equal(top.Amount) && c.Name < top.Name) {
			top = c
			ok = true
		}
	}
	return top, ok
}

// CategoryBreakdown sums expenses per category in first-seen order.
func CategoryBreakdown(txs []Transaction) []CategoryAmount {
	var out []CategoryAmount
	index := make(map[string]int)
	for _, t := range txs {
		if t.Type != Expense {
			continue
		}
		if i, seen := index[t.Category]; seen {
			out[i].Amount = out[i].Amount.Add(t.Amount)
			continue
		}
		index[t.Category] = len(out)
		out = append(out, CategoryAmount{Name: t.Category, Amount: t.Amount})
	}
	return out
}
