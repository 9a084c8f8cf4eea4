package core

import "github.com/shopspring/decimal"

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// ListTotals are derived on read; never stored.
type ListTotals struct {
	Estimated  decimal.Decimal `json:"estimated"`
	Actual     decimal.Decimal `json:"actual"`
	Difference decimal.Decimal `json:"difference"`
}

// Summary is the income/expense headline of a set of transactions.
type Summary struct {
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Balance decimal.Decimal `json:"balance"`
}

// BudgetUsage reports spending against one budget for the current month.
type BudgetUsage struct {
	Category   string          `json:"category"`
	Limit      decimal.Decimal `json:"limit"`
	Spent      decimal.Decimal `json:"spent"`
	Remaining  decimal.Decimal `json:"remaining"`
	Percentage decimal.Decimal `json:"percentage"`
}

// DailyAmount is the expense total for one calendar day (YYYY-MM-DD).
type DailyAmount struct {
	Day   string          `json:"day"`
	Total decimal.Decimal `json:"total"`
}

// Overview bundles everything a dashboard renders.
type Overview struct {
	Summary     Summary          `json:"summary"`
	TopCategory *CategoryAmount  `json:"topCategory"`
	Budgets     []BudgetUsage    `json:"budgets"`
	ByCategory  []CategoryAmount `json:"byCategory"`
	LastDays    []DailyAmount    `json:"lastDays"`
}
