package shopping

import (
	"strings"

	"github.com/shopspring/decimal"

	"cuantrack/internal/core"
)

// AutoAddNote marks items the inventory put on the active list.
const AutoAddNote = "auto-added from low stock"

type NewInventoryItem struct {
	Name         string
	Unit         string
	CurrentStock decimal.Decimal
	MinStock     decimal.Decimal
	Category     string
}

// InventoryUpdate edits an inventory row. Nil fields are left alone.
type InventoryUpdate struct {
	Name         *string
	Unit         *string
	CurrentStock *decimal.Decimal
	MinStock     *decimal.Decimal
	Category     *string
}

func (s *Store) AddInventoryItem(in NewInventoryItem) (core.InventoryItem, error) {
	item := core.InventoryItem{
		Name:         strings.TrimSpace(in.Name),
		Unit:         in.Unit,
		CurrentStock: in.CurrentStock,
		MinStock:     in.MinStock,
		Category:     in.Category,
	}
	if err := item.Validate(); err != nil {
		return core.InventoryItem{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	item.ID = s.newID()
	item.LastUpdatedAt = s.now()
	s.state.Inventory = append(s.state.Inventory, item)
	return item, nil
}

func (s *Store) UpdateInventoryItem(itemID string, u InventoryUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.inventoryIndex(itemID)
	if idx < 0 {
		return nil
	}
	next := s.state.Inventory[idx]
	if u.Name != nil {
		next.Name = strings.TrimSpace(*u.Name)
	}
	if u.Unit != nil {
		next.Unit = *u.Unit
	}
	if u.CurrentStock != nil {
		next.CurrentStock = *u.CurrentStock
	}
	if u.MinStock != nil {
		next.MinStock = *u.MinStock
	}
	if u.Category != nil {
		next.Category = *u.Category
	}
	if err := next.Validate(); err != nil {
		return err
	}
	next.LastUpdatedAt = s.now()
	s.state.Inventory[idx] = next
	return nil
}

func (s *Store) InventoryItem(itemID string) (core.InventoryItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.inventoryIndex(itemID)
	if idx < 0 {
		return core.InventoryItem{}, false
	}
	return s.state.Inventory[idx], true
}

func (s *Store) Inventory() []core.InventoryItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.InventoryItem(nil), s.state.Inventory...)
}

// LowStock lists inventory rows below their minimum.
func (s *Store) LowStock() []core.InventoryItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []core.InventoryItem{}
	for _, it := range s.state.Inventory {
		if it.BelowMinimum() {
			out = append(out, it)
		}
	}
	return out
}

// AdjustInventoryStock applies a signed delta, never going below zero.
//
// When the result is under the minimum and the active list has no item of
// the same name, one item is appended there and returned. Nothing happens
// without an active list, or when the active list is completed.
func (s *Store) AdjustInventoryStock(itemID string, delta decimal.Decimal) *core.ShoppingItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.inventoryIndex(itemID)
	if idx < 0 {
		return nil
	}
	inv := &s.state.Inventory[idx]
	stock := inv.CurrentStock.Add(delta)
	if stock.IsNegative() {
		stock = decimal.Zero
	}
	inv.CurrentStock = stock
	inv.LastUpdatedAt = s.now()

	if !inv.BelowMinimum() {
		return nil
	}
	active := s.activeList()
	if active == nil || !active.IsActive() || active.HasItemNamed(inv.Name) {
		return nil
	}
	added := s.appendItem(active, core.ShoppingItem{
		Name:     inv.Name,
		Qty:      decimal.NewFromInt(1),
		Unit:     inv.Unit,
		Category: inv.Category,
		EstPrice: decimal.Zero,
		Notes:    AutoAddNote,
	})
	return &added
}

func (s *Store) inventoryIndex(itemID string) int {
	for i := range s.state.Inventory {
		if s.state.Inventory[i].ID == itemID {
			return i
		}
	}
	return -1
}
