package ledger

import (
	"encoding/json"
	"fmt"
	"sync"

	"cuantrack/internal/core"
)

// StateVersion marks the transaction-state snapshot layout.
const StateVersion = 1

// State is the persisted shape of the ledger.
type State struct {
	Version      int                `json:"version"`
	Transactions []core.Transaction `json:"transactions"`
	Budgets      []core.Budget      `json:"budgets"`
}

// Ledger holds transactions in insertion order plus the budget set.
// Transaction ids are not checked for uniqueness.
type Ledger struct {
	mu           sync.Mutex
	transactions []core.Transaction
	budgets      []core.Budget
}

func New() *Ledger {
	return &Ledger{}
}

// AddTransaction appends t. A duplicate id produces a second entry.
func (l *Ledger) AddTransaction(t core.Transaction) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.transactions = append(l.transactions, t)
}

// UpdateTransaction replaces every entry whose id matches t.ID and reports
// whether anything was replaced.
func (l *Ledger) UpdateTransaction(t core.Transaction) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	found := false
	for i := range l.transactions {
		if l.transactions[i].ID == t.ID {
			l.transactions[i] = t
			found = true
		}
	}
	return found
}

// DeleteTransaction removes every entry with the id and returns how many went.
func (l *Ledger) DeleteTransaction(id string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	kept := l.transactions[:0]
	removed := 0
	for _, t := range l.transactions {
		if t.ID == id {
			removed++
			continue
		}
		kept = append(kept, t)
	}
	l.transactions = kept
	return removed
}

// SetBudgets replaces the budget set wholesale. Callers filter out
// non-positive limits beforehand.
func (l *Ledger) SetBudgets(budgets []core.Budget) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.budgets = append([]core.Budget(nil), budgets...)
}

func (l *Ledger) Transactions() []core.Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]core.Transaction(nil), l.transactions...)
}

// Transaction returns the first entry with the id.
func (l *Ledger) Transaction(id string) (core.Transaction, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, t := range l.transactions {
		if t.ID == id {
			return t, true
		}
	}
	return core.Transaction{}, false
}

func (l *Ledger) Budgets() []core.Budget {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]core.Budget(nil), l.budgets...)
}

// Export copies the ledger into its snapshot shape.
func (l *Ledger) Export() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return State{
		Version:      StateVersion,
		Transactions: append([]core.Transaction{}, l.transactions...),
		Budgets:      append([]core.Budget{}, l.budgets...),
	}
}

// Restore replaces the whole ledger with s.
func (l *Ledger) Restore(s State) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.transactions = append([]core.Transaction(nil), s.Transactions...)
	l.budgets = append([]core.Budget(nil), s.Budgets...)
}

// DecodeState parses a transaction-state document.
func DecodeState(data []byte) (State, error) {
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return State{}, fmt.Errorf("decode transaction state: %w", err)
	}
	return s, nil
}
