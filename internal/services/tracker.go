package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"cuantrack/internal/core"
	"cuantrack/internal/ledger"
	"cuantrack/internal/log"
	"cuantrack/internal/shopping"
	"cuantrack/internal/storage"
)

// Notifier announces that a snapshot was saved.
type Notifier interface {
	PublishStateChanged(ctx context.Context, key string) error
}

// Tracker owns the ledger and the shopping store of one process. Mutations
// are applied in memory, persisted as whole snapshots, then announced.
type Tracker struct {
	snapshots storage.SnapshotStore
	notifier  Notifier
	logger    *log.Logger

	ledger   *ledger.Ledger
	shopping *shopping.Store

	// mu orders mutate+save against each other and against rehydration.
	mu sync.Mutex
}

// NewTracker wires a fresh ledger and shopping store to snapshots. A nil
// notifier disables change announcements.
func NewTracker(snapshots storage.SnapshotStore, notifier Notifier, logger *log.Logger, opts ...shopping.Option) *Tracker {
	if logger == nil {
		logger = log.Wrap(nil, log.ComponentTracker)
	}
	l := ledger.New()
	return &Tracker{
		snapshots: snapshots,
		notifier:  notifier,
		logger:    logger.WithComponent(log.ComponentTracker),
		ledger:    l,
		shopping:  shopping.New(l, opts...),
	}
}

// Ledger gives read access to transactions and budgets.
func (t *Tracker) Ledger() *ledger.Ledger {
	return t.ledger
}

// Shopping gives read access to lists, inventory and price history.
func (t *Tracker) Shopping() *shopping.Store {
	return t.shopping
}

// Open loads both snapshots. Missing snapshots leave the fresh state in place.
func (t *Tracker) Open(ctx context.Context) error {
	return t.Rehydrate(ctx)
}

// Rehydrate replaces in-memory state with whatever is persisted. Nothing is
// merged; the last saved snapshot wins. Both snapshots are decoded before
// either store is replaced, so a bad snapshot leaves the state untouched.
func (t *Tracker) Rehydrate(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	ledgerState, foundLedger, err := loadSnapshot(ctx, t.snapshots, storage.KeyTransactions, ledger.DecodeState)
	if err != nil {
		return err
	}
	shoppingState, foundShopping, err := loadSnapshot(ctx, t.snapshots, storage.KeyShopping, shopping.DecodeState)
	if err != nil {
		return err
	}

	if foundLedger {
		t.ledger.Restore(ledgerState)
	} else {
		t.logger.DebugContext(ctx, "No ledger snapshot", log.FieldSnapshotKey, storage.KeyTransactions)
	}
	if foundShopping {
		t.shopping.Restore(shoppingState)
	} else {
		t.logger.DebugContext(ctx, "No shopping snapshot", log.FieldSnapshotKey, storage.KeyShopping)
	}

	t.logger.InfoContext(ctx, "State rehydrated",
		log.FieldOperation, log.OpRehydrate,
		"transactions", len(t.ledger.Transactions()),
		"lists", len(t.shopping.Lists()))
	return nil
}

func loadSnapshot[S any](ctx context.Context, snapshots storage.SnapshotStore, key string, decode func([]byte) (S, error)) (S, bool, error) {
	var zero S
	data, err := snapshots.Load(ctx, key)
	if errors.Is(err, storage.ErrSnapshotNotFound) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, fmt.Errorf("load %s: %w", key, err)
	}
	st, err := decode(data)
	if err != nil {
		return zero, false, err
	}
	return st, true, nil
}

// UpdateLedger runs fn against the ledger and persists the result. If fn
// fails its partial changes are undone and nothing is saved.
func (t *Tracker) UpdateLedger(ctx context.Context, fn func(*ledger.Ledger) error) error {
	return t.mutate(ctx, func() error { return fn(t.ledger) }, storage.KeyTransactions)
}

// UpdateShopping runs fn against the shopping store and persists the result.
// If fn fails its partial changes are undone and nothing is saved.
func (t *Tracker) UpdateShopping(ctx context.Context, fn func(*shopping.Store) error) error {
	return t.mutate(ctx, func() error { return fn(t.shopping) }, storage.KeyShopping)
}

// AddTransaction validates and records a manual ledger entry.
func (t *Tracker) AddTransaction(ctx context.Context, tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	return t.UpdateLedger(ctx, func(l *ledger.Ledger) error {
		l.AddTransaction(tx)
		return nil
	})
}

// SetBudgets replaces the budget set, dropping entries without a positive limit.
func (t *Tracker) SetBudgets(ctx context.Context, budgets []core.Budget) error {
	kept := make([]core.Budget, 0, len(budgets))
	for _, b := range budgets {
		if err := b.Validate(); err != nil {
			return err
		}
		if b.Limit.IsPositive() {
			kept = append(kept, b)
		}
	}
	return t.UpdateLedger(ctx, func(l *ledger.Ledger) error {
		l.SetBudgets(kept)
		return nil
	})
}

// AdjustStock applies delta to an inventory item and returns the item that
// was auto-added to the active list, if any.
func (t *Tracker) AdjustStock(ctx context.Context, itemID string, delta decimal.Decimal) (*core.ShoppingItem, error) {
	var added *core.ShoppingItem
	err := t.UpdateShopping(ctx, func(s *shopping.Store) error {
		added = s.AdjustInventoryStock(itemID, delta)
		return nil
	})
	if added != nil {
		t.logger.InfoContext(ctx, "Low stock item added to active list",
			log.FieldInventoryID, itemID, log.FieldItemID, added.ID)
	}
	return added, err
}

// Complete reconciles a shopping list into the ledger. Both snapshots are
// saved together; if either cannot be stored the list stays open and the
// ledger keeps no transaction.
func (t *Tracker) Complete(ctx context.Context, listID string) (core.Transaction, error) {
	var tx core.Transaction
	err := t.mutate(ctx, func() error {
		var err error
		tx, err = t.shopping.CompleteAndRecordTransaction(listID)
		return err
	}, storage.KeyTransactions, storage.KeyShopping)
	if err != nil {
		return core.Transaction{}, err
	}

	t.logger.InfoContext(ctx, "Shopping list completed",
		log.NewFields().
			WithOperation(log.OpComplete).
			WithList(listID, "").
			WithTransaction(tx.ID, tx.Category, tx.Amount.String()).
			ToSlice()...)
	return tx, nil
}

// Import replaces the shopping store with an export document.
func (t *Tracker) Import(ctx context.Context, data []byte) error {
	return t.UpdateShopping(ctx, func(s *shopping.Store) error {
		return s.ImportJSON(data)
	})
}

// Export encodes the shopping store as an export document.
func (t *Tracker) Export() ([]byte, error) {
	return t.shopping.ExportJSON()
}

// checkpoint is a detached copy of both stores.
type checkpoint struct {
	ledger   ledger.State
	shopping shopping.State
}

func (t *Tracker) checkpoint() checkpoint {
	return checkpoint{ledger: t.ledger.Export(), shopping: t.shopping.Export()}
}

func (t *Tracker) restore(cp checkpoint) {
	t.ledger.Restore(cp.ledger)
	t.shopping.Restore(cp.shopping)
}

// mutate applies fn and saves keys. A rejected or unsaved mutation is rolled
// back in memory.
func (t *Tracker) mutate(ctx context.Context, fn func() error, keys ...string) error {
	t.mu.Lock()
	prev := t.checkpoint()
	if err := fn(); err != nil {
		t.restore(prev)
		t.mu.Unlock()
		t.logger.WarnContext(ctx, "Operation rejected", log.FieldError, err)
		return err
	}
	if err := t.save(ctx, prev, keys...); err != nil {
		t.restore(prev)
		t.mu.Unlock()
		return err
	}
	t.mu.Unlock()

	t.publish(ctx, keys...)
	return nil
}

// save writes keys in order. Stores that support it write them in one
// batch; otherwise a failure rewrites the keys already saved with their
// contents from prev.
func (t *Tracker) save(ctx context.Context, prev checkpoint, keys ...string) error {
	cur := t.checkpoint()
	snaps := make([]storage.Snapshot, 0, len(keys))
	for _, key := range keys {
		data, err := encodeSnapshot(cur, key)
		if err != nil {
			return fmt.Errorf("encode %s: %w", key, err)
		}
		snaps = append(snaps, storage.Snapshot{Key: key, Data: data})
	}

	if batch, ok := t.snapshots.(storage.BatchSaver); ok {
		if err := batch.SaveAll(ctx, snaps); err != nil {
			t.logger.ErrorContext(ctx, "Failed to save snapshots",
				log.FieldOperation, log.OpSave, log.FieldSnapshotKey, strings.Join(keys, ","), log.FieldError, err)
			return fmt.Errorf("save %s: %w", strings.Join(keys, ", "), err)
		}
		return nil
	}

	for i, snap := range snaps {
		if err := t.snapshots.Save(ctx, snap.Key, snap.Data); err != nil {
			t.logger.ErrorContext(ctx, "Failed to save snapshot",
				log.FieldOperation, log.OpSave, log.FieldSnapshotKey, snap.Key, log.FieldError, err)
			t.revert(ctx, prev, snaps[:i])
			return fmt.Errorf("save %s: %w", snap.Key, err)
		}
	}
	return nil
}

func (t *Tracker) revert(ctx context.Context, prev checkpoint, saved []storage.Snapshot) {
	for _, snap := range saved {
		data, err := encodeSnapshot(prev, snap.Key)
		if err == nil {
			err = t.snapshots.Save(ctx, snap.Key, data)
		}
		if err != nil {
			t.logger.ErrorContext(ctx, "Failed to revert snapshot",
				log.FieldOperation, log.OpSave, log.FieldSnapshotKey, snap.Key, log.FieldError, err)
		}
	}
}

func encodeSnapshot(cp checkpoint, key string) ([]byte, error) {
	switch key {
	case storage.KeyTransactions:
		return json.Marshal(cp.ledger)
	case storage.KeyShopping:
		return json.Marshal(cp.shopping)
	default:
		return nil, fmt.Errorf("unknown snapshot key %q", key)
	}
}

// publish never fails the caller; the state is already saved.
func (t *Tracker) publish(ctx context.Context, keys ...string) {
	if t.notifier == nil {
		return
	}
	for _, key := range keys {
		if err := t.notifier.PublishStateChanged(ctx, key); err != nil {
			t.logger.ErrorContext(ctx, "Failed to publish state change",
				log.FieldOperation, log.OpPublish, log.FieldSnapshotKey, key, log.FieldError, err)
		}
	}
}
