package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"cuantrack/internal/core"
)

func tx(id, desc string, amount int64) core.Transaction {
	return core.Transaction{
		ID:          id,
		Amount:      decimal.NewFromInt(amount),
		Description: desc,
		Category:    "Makanan",
		Date:        time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC),
		Type:        core.Expense,
	}
}

func TestAddUpdateDelete(t *testing.T) {
	l := New()
	l.AddTransaction(tx("a", "first", 100))
	l.AddTransaction(tx("b", "second", 200))

	if !l.UpdateTransaction(tx("b", "second edited", 250)) {
		t.Fatalf("expected update to find b")
	}
	got, ok := l.Transaction("b")
	if !ok || got.Description != "second edited" || !got.Amount.Equal(decimal.NewFromInt(250)) {
		t.Fatalf("unexpected b after update: %+v", got)
	}

	if l.UpdateTransaction(tx("missing", "x", 1)) {
		t.Fatalf("update of unknown id should report false")
	}
	if len(l.Transactions()) != 2 {
		t.Fatalf("unknown-id update must not change the ledger")
	}

	if n := l.DeleteTransaction("a"); n != 1 {
		t.Fatalf("deleted %d, want 1", n)
	}
	if n := l.DeleteTransaction("a"); n != 0 {
		t.Fatalf("second delete removed %d, want 0", n)
	}
	txs := l.Transactions()
	if len(txs) != 1 || txs[0].ID != "b" {
		t.Fatalf("unexpected remaining transactions: %+v", txs)
	}
}

func TestDuplicateIDsArePreserved(t *testing.T) {
	l := New()
	l.AddTransaction(tx("dup", "one", 1))
	l.AddTransaction(tx("other", "keep", 5))
	l.AddTransaction(tx("dup", "two", 2))

	if len(l.Transactions()) != 3 {
		t.Fatalf("duplicate id should add a second entry")
	}

	// Update rewrites every entry carrying the id.
	l.UpdateTransaction(tx("dup", "both", 9))
	for _, got := range l.Transactions() {
		if got.ID == "dup" && got.Description != "both" {
			t.Fatalf("entry left unchanged: %+v", got)
		}
	}

	// Delete removes every entry carrying the id.
	if n := l.DeleteTransaction("dup"); n != 2 {
		t.Fatalf("deleted %d duplicates, want 2", n)
	}
	txs := l.Transactions()
	if len(txs) != 1 || txs[0].ID != "other" {
		t.Fatalf("unexpected remaining transactions: %+v", txs)
	}
}

func TestSetBudgetsReplacesWholesale(t *testing.T) {
	l := New()
	l.SetBudgets([]core.Budget{{Category: "Makanan", Limit: decimal.NewFromInt(100)}})
	l.SetBudgets([]core.Budget{{Category: "Transportasi", Limit: decimal.NewFromInt(50)}})

	bs := l.Budgets()
	if len(bs) != 1 || bs[0].Category != "Transportasi" {
		t.Fatalf("unexpected budgets: %+v", bs)
	}
}

func TestExportRestore(t *testing.T) {
	l := New()
	l.AddTransaction(tx("a", "first", 100))
	l.SetBudgets([]core.Budget{{Category: "Makanan", Limit: decimal.NewFromInt(100)}})

	s := l.Export()
	if s.Version != StateVersion {
		t.Fatalf("version = %d, want %d", s.Version, StateVersion)
	}

	other := New()
	other.AddTransaction(tx("z", "to be replaced", 1))
	other.Restore(s)
	txs := other.Transactions()
	if len(txs) != 1 || txs[0].ID != "a" {
		t.Fatalf("restore should replace state, got %+v", txs)
	}

	// The exported snapshot is detached from the live ledger.
	l.AddTransaction(tx("b", "later", 1))
	if len(s.Transactions) != 1 {
		t.Fatalf("snapshot mutated by later writes")
	}
}

func TestExportEmptyUsesEmptySlices(t *testing.T) {
	s := New().Export()
	if s.Transactions == nil || s.Budgets == nil {
		t.Fatalf("export should use empty slices so JSON carries []")
	}
}
