package core

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		ID:          "t1",
		Amount:      decimal.NewFromInt(50000),
		Description: "Makan siang",
		Category:    "Makanan",
		Date:        time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC),
		Type:        Expense,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	mutate := func(f func(*Transaction)) Transaction {
		tx := good
		f(&tx)
		return tx
	}
	bads := []Transaction{
		mutate(func(tx *Transaction) { tx.ID = "" }),
		mutate(func(tx *Transaction) { tx.Amount = decimal.Zero }),
		mutate(func(tx *Transaction) { tx.Amount = decimal.NewFromInt(-1) }),
		mutate(func(tx *Transaction) { tx.Description = " " }),
		mutate(func(tx *Transaction) { tx.Category = "" }),
		mutate(func(tx *Transaction) { tx.Date = time.Time{} }),
		mutate(func(tx *Transaction) { tx.Type = "transfer" }),
	}
	for i, tx := range bads {
		if err := tx.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestBudgetValidate(t *testing.T) {
	if err := (Budget{Category: "Makanan", Limit: decimal.Zero}).Validate(); err != nil {
		t.Fatalf("zero limit should be accepted by the entity, got %v", err)
	}
	if err := (Budget{Category: "", Limit: decimal.NewFromInt(1)}).Validate(); err == nil {
		t.Fatalf("expected error for empty category")
	}
	if err := (Budget{Category: "Makanan", Limit: decimal.NewFromInt(-5)}).Validate(); err == nil {
		t.Fatalf("expected error for negative limit")
	}
}

func TestShoppingItemValidate(t *testing.T) {
	good := ShoppingItem{Name: "Beras", Qty: decimal.NewFromInt(1), EstPrice: decimal.Zero}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bads := []ShoppingItem{
		{Name: "", Qty: decimal.NewFromInt(1)},
		{Name: "Beras", Qty: decimal.Zero},
		{Name: "Beras", Qty: decimal.NewFromInt(1), EstPrice: decimal.NewFromInt(-1)},
	}
	for i, it := range bads {
		if err := it.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestShoppingListHelpers(t *testing.T) {
	l := ShoppingList{Items: []ShoppingItem{
		{Name: "Telur", Purchased: true},
		{Name: "Beras"},
		{Name: "Sabun", Purchased: true},
	}}
	if !l.HasItemNamed("telur") || !l.HasItemNamed("BERAS") {
		t.Fatalf("expected case-insensitive match")
	}
	if l.HasItemNamed("Gula") {
		t.Fatalf("unexpected match")
	}
	names := l.PurchasedItemNames()
	if len(names) != 2 || names[0] != "Telur" || names[1] != "Sabun" {
		t.Fatalf("unexpected purchased names: %v", names)
	}
}

func TestInventoryItemBelowMinimum(t *testing.T) {
	it := InventoryItem{Name: "Gas", CurrentStock: decimal.NewFromInt(1), MinStock: decimal.NewFromInt(2)}
	if !it.BelowMinimum() {
		t.Fatalf("expected below minimum")
	}
	it.CurrentStock = decimal.NewFromInt(2)
	if it.BelowMinimum() {
		t.Fatalf("stock equal to minimum is not below it")
	}
}
