package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const (
	ListActive    ListStatus = "active"
	ListCompleted ListStatus = "completed"
)

type (
	TransactionType string

	ListStatus string

	Transaction struct {
		ID          string          `json:"id"`
		Amount      decimal.Decimal `json:"amount"`
		Description string          `json:"description"`
		Category    string          `json:"category"`
		Date        time.Time       `json:"date"`
		Type        TransactionType `json:"type"`
	}

	// Budget is a monthly spending ceiling. Category is the key.
	Budget struct {
		Category string          `json:"category"`
		Limit    decimal.Decimal `json:"limit"`
	}

	ShoppingList struct {
		ID                   string         `json:"id"`
		Title                string         `json:"title"`
		Period               string         `json:"period"` // free label, e.g. "Minggu ke-4 Oktober"
		Store                string         `json:"store"`
		Items                []ShoppingItem `json:"items"`
		CreatedAt            time.Time      `json:"createdAt"`
		UpdatedAt            time.Time      `json:"updatedAt"`
		Status               ListStatus     `json:"status"`
		LinkedBudgetCategory *string        `json:"linkedBudgetCategory"`
	}

	// ShoppingItem belongs to exactly one list.
	// ActualPrice is set if and only if Purchased is true.
	ShoppingItem struct {
		ID          string           `json:"id"`
		Name        string           `json:"name"`
		Qty         decimal.Decimal  `json:"qty"`
		Unit        string           `json:"unit"`
		Category    string           `json:"category"`
		EstPrice    decimal.Decimal  `json:"estPrice"`
		ActualPrice *decimal.Decimal `json:"actualPrice"`
		Purchased   bool             `json:"purchased"`
		Notes       string           `json:"notes"`
	}

	InventoryItem struct {
		ID            string          `json:"id"`
		Name          string          `json:"name"`
		Unit          string          `json:"unit"`
		CurrentStock  decimal.Decimal `json:"currentStock"`
		MinStock      decimal.Decimal `json:"minStock"`
		Category      string          `json:"category"`
		LastUpdatedAt time.Time       `json:"lastUpdatedAt"`
	}

	// PriceHistoryEntry is append-only.
	PriceHistoryEntry struct {
		ID       string          `json:"id"`
		ItemName string          `json:"itemName"`
		Unit     string          `json:"unit"`
		Price    decimal.Decimal `json:"price"`
		Store    string          `json:"store"`
		Date     time.Time       `json:"date"`
	}

	TemplateItem struct {
		Name     string          `json:"name"`
		Qty      decimal.Decimal `json:"qty"`
		Unit     string          `json:"unit"`
		Category string          `json:"category"`
		EstPrice decimal.Decimal `json:"estPrice"`
		Notes    string          `json:"notes"`
	}

	Template struct {
		ID    string         `json:"id"`
		Name  string         `json:"name"`
		Items []TemplateItem `json:"items"`
	}
)

var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrNegativeAmount    = errors.New("amount cannot be negative")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
	ErrEmptyDescription  = errors.New("empty description")
	ErrEmptyCategory     = errors.New("empty category")
	ErrEmptyName         = errors.New("empty name")
	ErrEmptyTitle        = errors.New("empty title")
	ErrInvalidType       = errors.New("invalid transaction type")
	ErrMissingDate       = errors.New("date cannot be zero")
	ErrMissingID         = errors.New("missing id")
	ErrDescriptionLength = errors.New("description too long (max 200 characters)")
)

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return ErrMissingID
	}
	if !t.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(t.Description) > 200 {
		return ErrDescriptionLength
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if t.Date.IsZero() {
		return ErrMissingDate
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	return nil
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.Category) == "" {
		return ErrEmptyCategory
	}
	if b.Limit.IsNegative() {
		return ErrNegativeAmount
	}
	return nil
}

// IsActive reports whether the list still accepts item changes.
func (l ShoppingList) IsActive() bool {
	return l.Status == ListActive
}

// HasItemNamed matches item names case-insensitively.
func (l ShoppingList) HasItemNamed(name string) bool {
	for _, it := range l.Items {
		if strings.EqualFold(it.Name, name) {
			return true
		}
	}
	return false
}

// PurchasedItemNames returns the names of purchased items in list order.
func (l ShoppingList) PurchasedItemNames() []string {
	var names []string
	for _, it := range l.Items {
		if it.Purchased {
			names = append(names, it.Name)
		}
	}
	return names
}

func (i ShoppingItem) Validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return ErrEmptyName
	}
	if !i.Qty.IsPositive() {
		return ErrInvalidQuantity
	}
	if i.EstPrice.IsNegative() {
		return ErrNegativeAmount
	}
	if i.ActualPrice != nil && i.ActualPrice.IsNegative() {
		return ErrNegativeAmount
	}
	return nil
}

func (i InventoryItem) Validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return ErrEmptyName
	}
	if i.CurrentStock.IsNegative() || i.MinStock.IsNegative() {
		return ErrNegativeAmount
	}
	return nil
}

// BelowMinimum reports whether stock has dropped under the reorder threshold.
func (i InventoryItem) BelowMinimum() bool {
	return i.CurrentStock.LessThan(i.MinStock)
}
