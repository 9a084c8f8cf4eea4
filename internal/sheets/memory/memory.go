package memory

import (
	"context"
	"sync"

	"cuantrack/internal/core"
)

// Exporter keeps the last exported ledger in memory.
type Exporter struct {
	mu           sync.Mutex
	transactions []core.Transaction
	budgets      []core.Budget
	exports      int
}

func New() *Exporter {
	return &Exporter{}
}

func (e *Exporter) ExportLedger(_ context.Context, txs []core.Transaction, budgets []core.Budget) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.transactions = append([]core.Transaction(nil), txs...)
	e.budgets = append([]core.Budget(nil), budgets...)
	e.exports++
	return nil
}

// Transactions returns what the last export wrote.
func (e *Exporter) Transactions() []core.Transaction {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]core.Transaction(nil), e.transactions...)
}

func (e *Exporter) Budgets() []core.Budget {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]core.Budget(nil), e.budgets...)
}

// Exports counts calls to ExportLedger.
func (e *Exporter) Exports() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.exports
}
