// Package shopping owns shopping lists, the household inventory and the
// price log, and reconciles completed lists into the transaction ledger.
package shopping

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"cuantrack/internal/core"
)

// StateVersion marks the shopping-state snapshot layout.
const StateVersion = 1

var (
	ErrNoBudgetLinked   = errors.New("no budget linked")
	ErrNothingToRecord  = errors.New("nothing to record")
	ErrListCompleted    = errors.New("list already completed")
	ErrInvalidImport    = errors.New("invalid import data")
	ErrNoRecorderConfig = errors.New("no transaction recorder configured")
)

// DefaultCategories seeds a fresh store.
var DefaultCategories = []string{"Bahan Makanan", "Kebutuhan Pokok", "Pembersih", "Snack", "Lainnya"}

// TransactionRecorder receives the transaction produced by completing a list.
type TransactionRecorder interface {
	AddTransaction(t core.Transaction)
}

// State is the persisted and exported shape of the store. Version keeps the
// number exactly as imported; any JSON number is accepted.
type State struct {
	Version      json.Number              `json:"version"`
	Lists        []core.ShoppingList      `json:"lists"`
	ActiveListID *string                  `json:"activeListId"`
	Inventory    []core.InventoryItem     `json:"inventory"`
	PriceHistory []core.PriceHistoryEntry `json:"priceHistory"`
	Templates    []core.Template          `json:"templates"`
	Categories   []string                 `json:"categories"`
}

type Option func(*Store)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator replaces the uuid generator.
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

// Store is safe for concurrent use. Every exported operation is atomic.
type Store struct {
	mu       sync.Mutex
	recorder TransactionRecorder
	now      func() time.Time
	newID    func() string
	state    State
}

func New(recorder TransactionRecorder, opts ...Option) *Store {
	s := &Store{
		recorder: recorder,
		now:      time.Now,
		newID:    uuid.NewString,
		state:    emptyState(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func emptyState() State {
	return State{
		Version:      json.Number(strconv.Itoa(StateVersion)),
		Lists:        []core.ShoppingList{},
		Inventory:    []core.InventoryItem{},
		PriceHistory: []core.PriceHistoryEntry{},
		Templates:    []core.Template{},
		Categories:   append([]string(nil), DefaultCategories...),
	}
}

// ListUpdate carries the editable list header fields. Nil fields are left alone.
type ListUpdate struct {
	Title  *string
	Period *string
	Store  *string
}

// CreateList appends a new active list. It does not become the active list.
func (s *Store) CreateList(title, period, store string) (core.ShoppingList, error) {
	if strings.TrimSpace(title) == "" {
		return core.ShoppingList{}, core.ErrEmptyTitle
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	l := core.ShoppingList{
		ID:        s.newID(),
		Title:     title,
		Period:    period,
		Store:     store,
		Items:     []core.ShoppingItem{},
		CreatedAt: now,
		UpdatedAt: now,
		Status:    core.ListActive,
	}
	s.state.Lists = append(s.state.Lists, l)
	return cloneList(l), nil
}

func (s *Store) UpdateList(listID string, u ListUpdate) error {
	if u.Title != nil && strings.TrimSpace(*u.Title) == "" {
		return core.ErrEmptyTitle
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.mutableList(listID)
	if l == nil || err != nil {
		return err
	}
	if u.Title != nil {
		l.Title = *u.Title
	}
	if u.Period != nil {
		l.Period = *u.Period
	}
	if u.Store != nil {
		l.Store = *u.Store
	}
	l.UpdatedAt = s.now()
	return nil
}

// DeleteList removes the list and clears the active pointer if it named it.
func (s *Store) DeleteList(listID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.state.Lists[:0]
	for _, l := range s.state.Lists {
		if l.ID != listID {
			kept = append(kept, l)
		}
	}
	s.state.Lists = kept
	if s.state.ActiveListID != nil && *s.state.ActiveListID == listID {
		s.state.ActiveListID = nil
	}
}

// SetActiveList points the session at a list. The id is not checked; an
// empty id clears the pointer.
func (s *Store) SetActiveList(listID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if listID == "" {
		s.state.ActiveListID = nil
		return
	}
	id := listID
	s.state.ActiveListID = &id
}

// ActiveList resolves the active pointer. A dangling pointer means no active list.
func (s *Store) ActiveList() (core.ShoppingList, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.activeList()
	if l == nil {
		return core.ShoppingList{}, false
	}
	return cloneList(*l), true
}

func (s *Store) List(listID string) (core.ShoppingList, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.list(listID)
	if l == nil {
		return core.ShoppingList{}, false
	}
	return cloneList(*l), true
}

func (s *Store) Lists() []core.ShoppingList {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.ShoppingList, 0, len(s.state.Lists))
	for _, l := range s.state.Lists {
		out = append(out, cloneList(l))
	}
	return out
}

// Totals computes the list totals, zero for an unknown list.
func (s *Store) Totals(listID string) core.ListTotals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.ComputeListTotals(s.list(listID))
}

// LinkListToBudget sets or clears the budget category a list reconciles into.
// The category is not checked against the budget set.
func (s *Store) LinkListToBudget(listID string, category *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.mutableList(listID)
	if l == nil || err != nil {
		return err
	}
	if category == nil {
		l.LinkedBudgetCategory = nil
	} else {
		c := *category
		l.LinkedBudgetCategory = &c
	}
	l.UpdatedAt = s.now()
	return nil
}

// AddCategory registers a shopping category. It reports false for blanks and duplicates.
func (s *Store) AddCategory(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.state.Categories {
		if c == name {
			return false
		}
	}
	s.state.Categories = append(s.state.Categories, name)
	return true
}

func (s *Store) Categories() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.state.Categories...)
}

// PriceHistory returns entries for an item name, matched case-insensitively,
// oldest first. An empty name returns the whole log.
func (s *Store) PriceHistory(itemName string) []core.PriceHistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []core.PriceHistoryEntry{}
	for _, e := range s.state.PriceHistory {
		if itemName == "" || strings.EqualFold(e.ItemName, itemName) {
			out = append(out, e)
		}
	}
	return out
}

// list returns a pointer into the state, nil when unknown. Caller holds mu.
func (s *Store) list(listID string) *core.ShoppingList {
	for i := range s.state.Lists {
		if s.state.Lists[i].ID == listID {
			return &s.state.Lists[i]
		}
	}
	return nil
}

// mutableList is list plus the completed-list guard. Caller holds mu.
func (s *Store) mutableList(listID string) (*core.ShoppingList, error) {
	l := s.list(listID)
	if l == nil {
		return nil, nil
	}
	if !l.IsActive() {
		return nil, ErrListCompleted
	}
	return l, nil
}

func (s *Store) activeList() *core.ShoppingList {
	if s.state.ActiveListID == nil {
		return nil
	}
	return s.list(*s.state.ActiveListID)
}

func cloneList(l core.ShoppingList) core.ShoppingList {
	items := make([]core.ShoppingItem, len(l.Items))
	copy(items, l.Items)
	for i := range items {
		if p := items[i].ActualPrice; p != nil {
			v := *p
			items[i].ActualPrice = &v
		}
	}
	l.Items = items
	if l.LinkedBudgetCategory != nil {
		c := *l.LinkedBudgetCategory
		l.LinkedBudgetCategory = &c
	}
	return l
}
