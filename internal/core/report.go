package core

import (
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Summarize totals income and expense and their difference.
func Summarize(txs []Transaction) Summary {
	s := Summary{Income: decimal.Zero, Expense: decimal.Zero}
	for _, t := range txs {
		switch t.Type {
		case Income:
			s.Income = s.Income.Add(t.Amount)
		case Expense:
			s.Expense = s.Expense.Add(t.Amount)
		}
	}
	s.Balance = s.Income.Sub(s.Expense)
	return s
}

// StartOfMonth returns midnight on the first day of now's month, in now's location.
func StartOfMonth(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
}

// ComputeBudgetUsage reports this month's spending for each budget, in budget order.
// Only expenses dated on or after the first of now's month count.
func ComputeBudgetUsage(budgets []Budget, txs []Transaction, now time.Time) []BudgetUsage {
	monthStart := StartOfMonth(now)
	spent := make(map[string]decimal.Decimal)
	for _, t := range txs {
		if t.Type != Expense || t.Date.Before(monthStart) {
			continue
		}
		spent[t.Category] = spent[t.Category].Add(t.Amount)
	}

	out := make([]BudgetUsage, 0, len(budgets))
	for _, b := range budgets {
		s := spent[b.Category]
		pct := decimal.Zero
		if b.Limit.IsPositive() {
			pct = s.Div(b.Limit).Mul(hundred).Round(2)
		}
		out = append(out, BudgetUsage{
			Category:   b.Category,
			Limit:      b.Limit,
			Spent:      s,
			Remaining:  b.Limit.Sub(s),
			Percentage: pct,
		})
	}
	return out
}

// DailyExpenses returns expense totals for the given number of days ending
// today, oldest first. Days are calendar days in now's location.
func DailyExpenses(txs []Transaction, now time.Time, days int) []DailyAmount {
	if days <= 0 {
		return nil
	}
	const layout = "2006-01-02"
	loc := now.Location()

	totals := make(map[string]decimal.Decimal)
	for _, t := range txs {
		if t.Type != Expense {
			continue
		}
		day := t.Date.In(loc).Format(layout)
		totals[day] = totals[day].Add(t.Amount)
	}

	out := make([]DailyAmount, 0, days)
	for i := days - 1; i >= 0; i-- {
		day := now.AddDate(0, 0, -i).Format(layout)
		out = append(out, DailyAmount{Day: day, Total: totals[day]})
	}
	return out
}

// TransactionFilter narrows a transaction listing. Zero fields match everything.
type TransactionFilter struct {
	Category string
	From     time.Time
	To       time.Time // inclusive
	Type     TransactionType
}

// FilterTransactions keeps the transactions matching f, preserving order.
func FilterTransactions(txs []Transaction, f TransactionFilter) []Transaction {
	out := make([]Transaction, 0, len(txs))
	for _, t := range txs {
		if f.Category != "" && t.Category != f.Category {
			continue
		}
		if f.Type != "" && t.Type != f.Type {
			continue
		}
		if !f.From.IsZero() && t.Date.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && t.Date.After(f.To) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// BuildOverview assembles the dashboard figures for the ledger at time now.
func BuildOverview(txs []Transaction, budgets []Budget, now time.Time) Overview {
	ov := Overview{
		Summary:    Summarize(txs),
		Budgets:    ComputeBudgetUsage(budgets, txs, now),
		ByCategory: CategoryBreakdown(txs),
		LastDays:   DailyExpenses(txs, now, 7),
	}
	if top, ok := TopCategoryBySpend(txs); ok {
		ov.TopCategory = &top
	}
	return ov
}
