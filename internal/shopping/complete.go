package shopping

import (
	"fmt"
	"strings"

	"cuantrack/internal/core"
)

// CompleteAndRecordTransaction closes a list and records its actual spend as
// one expense in the ledger.
//
// Rejections leave both stores untouched and are checked in this order:
// ErrNoBudgetLinked when the list is unknown or unlinked, ErrListCompleted
// when it was already completed, ErrNothingToRecord when actual spend is zero.
func (s *Store) CompleteAndRecordTransaction(listID string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l := s.list(listID)
	if l == nil || l.LinkedBudgetCategory == nil {
		return core.Transaction{}, ErrNoBudgetLinked
	}
	if !l.IsActive() {
		return core.Transaction{}, ErrListCompleted
	}
	totals := core.ComputeListTotals(l)
	if totals.Actual.IsZero() {
		return core.Transaction{}, ErrNothingToRecord
	}
	if s.recorder == nil {
		return core.Transaction{}, ErrNoRecorderConfig
	}

	now := s.now()
	tx := core.Transaction{
		ID:          s.newID(),
		Amount:      totals.Actual,
		Description: describePurchase(*l),
		Category:    *l.LinkedBudgetCategory,
		Date:        now,
		Type:        core.Expense,
	}
	s.recorder.AddTransaction(tx)

	l.Status = core.ListCompleted
	l.UpdatedAt = now
	return tx, nil
}

func describePurchase(l core.ShoppingList) string {
	return fmt.Sprintf("Belanja di %s: %s", l.Store, strings.Join(l.PurchasedItemNames(), ", "))
}
