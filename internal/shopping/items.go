package shopping

import (
	"github.com/shopspring/decimal"

	"cuantrack/internal/core"
)

// NewItem is the caller-supplied part of a shopping item.
type NewItem struct {
	Name     string
	Qty      decimal.Decimal
	Unit     string
	Category string
	EstPrice decimal.Decimal
	Notes    string
}

// ItemUpdate edits an item in place. Nil fields are left alone. ActualPrice
// only applies to a purchased item; use TogglePurchased to change state.
type ItemUpdate struct {
	Name        *string
	Qty         *decimal.Decimal
	Unit        *string
	Category    *string
	EstPrice    *decimal.Decimal
	ActualPrice *decimal.Decimal
	Notes       *string
}

// AddItem appends an unpurchased item to the list. It returns nil for an unknown list.
func (s *Store) AddItem(listID string, in NewItem) (*core.ShoppingItem, error) {
	item := core.ShoppingItem{
		Name:     in.Name,
		Qty:      in.Qty,
		Unit:     in.Unit,
		Category: in.Category,
		EstPrice: in.EstPrice,
		Notes:    in.Notes,
	}
	if err := item.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.mutableList(listID)
	if l == nil || err != nil {
		return nil, err
	}
	added := s.appendItem(l, item)
	return &added, nil
}

func (s *Store) UpdateItem(listID, itemID string, u ItemUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.mutableList(listID)
	if l == nil || err != nil {
		return err
	}
	idx := itemIndex(l, itemID)
	if idx < 0 {
		return nil
	}

	next := l.Items[idx]
	if u.Name != nil {
		next.Name = *u.Name
	}
	if u.Qty != nil {
		next.Qty = *u.Qty
	}
	if u.Unit != nil {
		next.Unit = *u.Unit
	}
	if u.Category != nil {
		next.Category = *u.Category
	}
	if u.EstPrice != nil {
		next.EstPrice = *u.EstPrice
	}
	if u.Notes != nil {
		next.Notes = *u.Notes
	}
	if u.ActualPrice != nil && next.Purchased {
		p := *u.ActualPrice
		next.ActualPrice = &p
	}
	if err := next.Validate(); err != nil {
		return err
	}

	l.Items[idx] = next
	l.UpdatedAt = s.now()
	return nil
}

func (s *Store) RemoveItem(listID, itemID string) error {
	return s.RemoveSelectedItems(listID, []string{itemID})
}

// TogglePurchased flips an item's purchased flag. Turning it on sets the
// actual price to price, or the estimate when price is nil, and appends a
// price-history entry. Turning it off clears the actual price and leaves
// the history alone.
func (s *Store) TogglePurchased(listID, itemID string, price *decimal.Decimal) error {
	if price != nil && price.IsNegative() {
		return core.ErrNegativeAmount
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.mutableList(listID)
	if l == nil || err != nil {
		return err
	}
	idx := itemIndex(l, itemID)
	if idx < 0 {
		return nil
	}

	now := s.now()
	it := &l.Items[idx]
	it.Purchased = !it.Purchased
	if it.Purchased {
		p := it.EstPrice
		if price != nil {
			p = *price
		}
		it.ActualPrice = &p
		s.state.PriceHistory = append(s.state.PriceHistory, core.PriceHistoryEntry{
			ID:       s.newID(),
			ItemName: it.Name,
			Unit:     it.Unit,
			Price:    p,
			Store:    l.Store,
			Date:     now,
		})
	} else {
		it.ActualPrice = nil
	}
	l.UpdatedAt = now
	return nil
}

// ClearShoppingList drops every item from the list.
func (s *Store) ClearShoppingList(listID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.mutableList(listID)
	if l == nil || err != nil {
		return err
	}
	l.Items = []core.ShoppingItem{}
	l.UpdatedAt = s.now()
	return nil
}

// RemoveSelectedItems drops the items whose ids are listed. Unknown ids are ignored.
func (s *Store) RemoveSelectedItems(listID string, itemIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.mutableList(listID)
	if l == nil || err != nil {
		return err
	}
	drop := make(map[string]struct{}, len(itemIDs))
	for _, id := range itemIDs {
		drop[id] = struct{}{}
	}
	kept := make([]core.ShoppingItem, 0, len(l.Items))
	for _, it := range l.Items {
		if _, ok := drop[it.ID]; !ok {
			kept = append(kept, it)
		}
	}
	l.Items = kept
	l.UpdatedAt = s.now()
	return nil
}

// appendItem assigns an id, resets purchase state and appends. Caller holds mu.
func (s *Store) appendItem(l *core.ShoppingList, item core.ShoppingItem) core.ShoppingItem {
	item.ID = s.newID()
	item.Purchased = false
	item.ActualPrice = nil
	l.Items = append(l.Items, item)
	l.UpdatedAt = s.now()
	return item
}

func itemIndex(l *core.ShoppingList, itemID string) int {
	for i := range l.Items {
		if l.Items[i].ID == itemID {
			return i
		}
	}
	return -1
}
