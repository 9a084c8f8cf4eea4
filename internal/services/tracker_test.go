package services

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"cuantrack/internal/core"
	"cuantrack/internal/ledger"
	"cuantrack/internal/log"
	"cuantrack/internal/shopping"
	"cuantrack/internal/storage"
	"cuantrack/internal/storage/memory"
)

type fakeNotifier struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (n *fakeNotifier) PublishStateChanged(_ context.Context, key string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.keys = append(n.keys, key)
	return n.err
}

func (n *fakeNotifier) published() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.keys...)
}

type failingStore struct{ *memory.Store }

func (failingStore) Save(context.Context, string, []byte) error {
	return errors.New("disk full")
}

func (failingStore) SaveAll(context.Context, []storage.Snapshot) error {
	return errors.New("disk full")
}

// keyFailingStore writes one key at a time and fails saves of failKey. It
// has no SaveAll, so the tracker falls back to key-by-key saves.
type keyFailingStore struct {
	inner   *memory.Store
	mu      sync.Mutex
	failKey string
}

func (s *keyFailingStore) Load(ctx context.Context, key string) ([]byte, error) {
	return s.inner.Load(ctx, key)
}

func (s *keyFailingStore) Save(ctx context.Context, key string, data []byte) error {
	s.mu.Lock()
	fail := key == s.failKey
	s.mu.Unlock()
	if fail {
		return errors.New("disk full")
	}
	return s.inner.Save(ctx, key, data)
}

func (s *keyFailingStore) Close() error { return nil }

func (s *keyFailingStore) failOn(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failKey = key
}

// batchStore records SaveAll calls and can reject them.
type batchStore struct {
	*memory.Store
	batches [][]string
	err     error
}

func (s *batchStore) SaveAll(ctx context.Context, snaps []storage.Snapshot) error {
	keys := make([]string, 0, len(snaps))
	for _, snap := range snaps {
		keys = append(keys, snap.Key)
	}
	s.batches = append(s.batches, keys)
	if s.err != nil {
		return s.err
	}
	return s.Store.SaveAll(ctx, snaps)
}

func quietLogger() *log.Logger {
	return log.New(log.Config{Output: io.Discard})
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newTestTracker(t *testing.T, snapshots storage.SnapshotStore) (*Tracker, *fakeNotifier) {
	t.Helper()
	n := &fakeNotifier{}
	tr := NewTracker(snapshots, n, quietLogger())
	if err := tr.Open(context.Background()); err != nil {
		t.Fatalf("Open: %v", err)
	}
	return tr, n
}

// completableList builds a linked list with one purchased item worth 15000.
func completableList(t *testing.T, tr *Tracker) string {
	t.Helper()
	var listID string
	err := tr.UpdateShopping(context.Background(), func(s *shopping.Store) error {
		l, err := s.CreateList("Belanja Mingguan", "Minggu ke-4", "Pasar Minggu")
		if err != nil {
			return err
		}
		listID = l.ID
		item, err := s.AddItem(l.ID, shopping.NewItem{Name: "Beras", Qty: d("1"), Unit: "kg", Category: "Bahan Makanan", EstPrice: d("14000")})
		if err != nil {
			return err
		}
		price := d("15000")
		if err := s.TogglePurchased(l.ID, item.ID, &price); err != nil {
			return err
		}
		category := "Makanan"
		return s.LinkListToBudget(l.ID, &category)
	})
	if err != nil {
		t.Fatalf("prepare list: %v", err)
	}
	return listID
}

func TestTrackerAddTransactionPersistsAndPublishes(t *testing.T) {
	snapshots := memory.New()
	tr, n := newTestTracker(t, snapshots)
	ctx := context.Background()

	tx := core.Transaction{ID: "t1", Amount: d("50000"), Description: "Gaji", Category: "Gaji", Date: time.Now(), Type: core.Income}
	if err := tr.AddTransaction(ctx, tx); err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}

	data, err := snapshots.Load(ctx, storage.KeyTransactions)
	if err != nil {
		t.Fatalf("ledger snapshot missing: %v", err)
	}
	st, err := ledger.DecodeState(data)
	if err != nil || len(st.Transactions) != 1 || st.Version != ledger.StateVersion {
		t.Fatalf("unexpected snapshot %+v, %v", st, err)
	}
	if got := n.published(); len(got) != 1 || got[0] != storage.KeyTransactions {
		t.Errorf("published = %v", got)
	}
}

func TestTrackerRejectsInvalidTransaction(t *testing.T) {
	snapshots := memory.New()
	tr, n := newTestTracker(t, snapshots)

	err := tr.AddTransaction(context.Background(), core.Transaction{ID: "t1", Amount: d("-1")})
	if !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if _, err := snapshots.Load(context.Background(), storage.KeyTransactions); !errors.Is(err, storage.ErrSnapshotNotFound) {
		t.Errorf("rejected transaction must not be saved")
	}
	if len(n.published()) != 0 {
		t.Errorf("rejected transaction must not be announced")
	}
}

func TestTrackerSetBudgetsDropsNonPositive(t *testing.T) {
	tr, _ := newTestTracker(t, memory.New())
	err := tr.SetBudgets(context.Background(), []core.Budget{
		{Category: "Makanan", Limit: d("1000000")},
		{Category: "Hiburan", Limit: d("0")},
	})
	if err != nil {
		t.Fatalf("SetBudgets: %v", err)
	}
	if got := tr.Ledger().Budgets(); len(got) != 1 || got[0].Category != "Makanan" {
		t.Errorf("budgets = %+v", got)
	}

	if err := tr.SetBudgets(context.Background(), []core.Budget{{Category: "", Limit: d("1")}}); !errors.Is(err, core.ErrEmptyCategory) {
		t.Errorf("expected ErrEmptyCategory, got %v", err)
	}
}

func TestTrackerCompleteSavesBothSnapshots(t *testing.T) {
	snapshots := memory.New()
	tr, n := newTestTracker(t, snapshots)
	ctx := context.Background()
	listID := completableList(t, tr)

	tx, err := tr.Complete(ctx, listID)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if !tx.Amount.Equal(d("15000")) || tx.Category != "Makanan" || tx.Type != core.Expense {
		t.Errorf("unexpected transaction %+v", tx)
	}

	data, err := snapshots.Load(ctx, storage.KeyTransactions)
	if err != nil {
		t.Fatalf("ledger snapshot missing: %v", err)
	}
	st, _ := ledger.DecodeState(data)
	if len(st.Transactions) != 1 || st.Transactions[0].ID != tx.ID {
		t.Errorf("ledger snapshot = %+v", st)
	}

	got := n.published()
	if len(got) < 2 || got[len(got)-2] != storage.KeyTransactions || got[len(got)-1] != storage.KeyShopping {
		t.Errorf("published = %v", got)
	}

	if _, err := tr.Complete(ctx, listID); !errors.Is(err, shopping.ErrListCompleted) {
		t.Errorf("second completion: expected ErrListCompleted, got %v", err)
	}
	if len(tr.Ledger().Transactions()) != 1 {
		t.Errorf("second completion must not add a transaction")
	}
}

func TestTrackerCompleteRejectsUnlinkedList(t *testing.T) {
	tr, n := newTestTracker(t, memory.New())
	ctx := context.Background()

	var listID string
	_ = tr.UpdateShopping(ctx, func(s *shopping.Store) error {
		l, err := s.CreateList("Kosong", "", "Indomaret")
		listID = l.ID
		return err
	})
	before := len(n.published())

	if _, err := tr.Complete(ctx, listID); !errors.Is(err, shopping.ErrNoBudgetLinked) {
		t.Fatalf("expected ErrNoBudgetLinked, got %v", err)
	}
	if len(n.published()) != before {
		t.Errorf("rejection must not be announced")
	}
	if len(tr.Ledger().Transactions()) != 0 {
		t.Errorf("rejection must leave the ledger unchanged")
	}
}

func TestTrackerRehydrateReplacesState(t *testing.T) {
	snapshots := memory.New()
	ctx := context.Background()
	writer, _ := newTestTracker(t, snapshots)
	reader, _ := newTestTracker(t, snapshots)

	listID := completableList(t, writer)
	if _, err := writer.Complete(ctx, listID); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	if len(reader.Shopping().Lists()) != 0 {
		t.Fatalf("reader should not see the list before rehydration")
	}
	if err := reader.Rehydrate(ctx); err != nil {
		t.Fatalf("Rehydrate: %v", err)
	}
	l, ok := reader.Shopping().List(listID)
	if !ok || l.Status != core.ListCompleted {
		t.Errorf("rehydrated list = %+v, %v", l, ok)
	}
	if len(reader.Ledger().Transactions()) != 1 {
		t.Errorf("rehydrated ledger = %+v", reader.Ledger().Transactions())
	}
}

func TestTrackerRehydrateRejectsCorruptSnapshot(t *testing.T) {
	snapshots := memory.New()
	ctx := context.Background()
	tr, _ := newTestTracker(t, snapshots)
	_ = snapshots.Save(ctx, storage.KeyShopping, []byte(`{"version":"one"}`))

	if err := tr.Rehydrate(ctx); !errors.Is(err, shopping.ErrInvalidImport) {
		t.Fatalf("expected ErrInvalidImport, got %v", err)
	}
}

func TestTrackerImportRejectsBadVersion(t *testing.T) {
	snapshots := memory.New()
	tr, _ := newTestTracker(t, snapshots)
	ctx := context.Background()
	completableList(t, tr)

	if err := tr.Import(ctx, []byte(`{"lists":[]}`)); !errors.Is(err, shopping.ErrInvalidImport) {
		t.Fatalf("expected ErrInvalidImport, got %v", err)
	}
	if len(tr.Shopping().Lists()) != 1 {
		t.Errorf("failed import must leave state unchanged")
	}

	doc, err := tr.Export()
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	other, _ := newTestTracker(t, memory.New())
	if err := other.Import(ctx, doc); err != nil {
		t.Fatalf("Import: %v", err)
	}
	if len(other.Shopping().Lists()) != 1 {
		t.Errorf("imported lists = %d, want 1", len(other.Shopping().Lists()))
	}
}

func TestTrackerAdjustStockAutoAdds(t *testing.T) {
	tr, _ := newTestTracker(t, memory.New())
	ctx := context.Background()

	var invID string
	err := tr.UpdateShopping(ctx, func(s *shopping.Store) error {
		l, err := s.CreateList("Aktif", "", "Superindo")
		if err != nil {
			return err
		}
		s.SetActiveList(l.ID)
		inv, err := s.AddInventoryItem(shopping.NewInventoryItem{Name: "Sabun", Unit: "pcs", CurrentStock: d("3"), MinStock: d("2"), Category: "Pembersih"})
		invID = inv.ID
		return err
	})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	added, err := tr.AdjustStock(ctx, invID, d("-2"))
	if err != nil || added == nil || added.Notes != shopping.AutoAddNote {
		t.Fatalf("AdjustStock = %+v, %v", added, err)
	}
	again, err := tr.AdjustStock(ctx, invID, d("-5"))
	if err != nil || again != nil {
		t.Errorf("second adjustment should not add again: %+v, %v", again, err)
	}
	if inv, _ := tr.Shopping().InventoryItem(invID); !inv.CurrentStock.IsZero() {
		t.Errorf("stock = %s, want 0", inv.CurrentStock)
	}
}

func TestTrackerSaveFailureIsReturned(t *testing.T) {
	n := &fakeNotifier{}
	tr := NewTracker(failingStore{memory.New()}, n, quietLogger())
	tx := core.Transaction{ID: "t1", Amount: d("1000"), Description: "Parkir", Category: "Transportasi", Date: time.Now(), Type: core.Expense}

	if err := tr.AddTransaction(context.Background(), tx); err == nil {
		t.Fatal("expected save error")
	}
	if len(n.published()) != 0 {
		t.Errorf("unsaved change must not be announced")
	}
}

func TestTrackerPublishFailureDoesNotFail(t *testing.T) {
	n := &fakeNotifier{err: errors.New("broker down")}
	tr := NewTracker(memory.New(), n, quietLogger())
	tx := core.Transaction{ID: "t1", Amount: d("1000"), Description: "Parkir", Category: "Transportasi", Date: time.Now(), Type: core.Expense}

	if err := tr.AddTransaction(context.Background(), tx); err != nil {
		t.Fatalf("publish failure leaked to caller: %v", err)
	}
}

func TestTrackerWithoutNotifier(t *testing.T) {
	tr := NewTracker(memory.New(), nil, nil)
	if err := tr.UpdateLedger(context.Background(), func(l *ledger.Ledger) error {
		l.SetBudgets([]core.Budget{{Category: "Makanan", Limit: d("1")}})
		return nil
	}); err != nil {
		t.Fatalf("UpdateLedger: %v", err)
	}
}

func TestTrackerCompleteLedgerSaveFailureKeepsListOpen(t *testing.T) {
	snapshots := &keyFailingStore{inner: memory.New()}
	tr, n := newTestTracker(t, snapshots)
	ctx := context.Background()
	listID := completableList(t, tr)
	published := len(n.published())

	snapshots.failOn(storage.KeyTransactions)
	if _, err := tr.Complete(ctx, listID); err == nil {
		t.Fatal("expected save error")
	}
	if l, _ := tr.Shopping().List(listID); l.Status != core.ListActive {
		t.Errorf("in-memory list status = %s, want active", l.Status)
	}
	if len(tr.Ledger().Transactions()) != 0 {
		t.Errorf("in-memory ledger kept the unsaved transaction")
	}
	if len(n.published()) != published {
		t.Errorf("unsaved completion must not be announced")
	}

	reopened, _ := newTestTracker(t, snapshots)
	if l, _ := reopened.Shopping().List(listID); l.Status != core.ListActive {
		t.Fatalf("stored list status = %s, want active", l.Status)
	}
	if len(reopened.Ledger().Transactions()) != 0 {
		t.Fatalf("stored ledger = %+v, want empty", reopened.Ledger().Transactions())
	}

	snapshots.failOn("")
	if _, err := reopened.Complete(ctx, listID); err != nil {
		t.Fatalf("retry after failure: %v", err)
	}
	if len(reopened.Ledger().Transactions()) != 1 {
		t.Errorf("retry should record exactly one transaction")
	}
}

func TestTrackerCompleteShoppingSaveFailureRevertsLedger(t *testing.T) {
	snapshots := &keyFailingStore{inner: memory.New()}
	tr, _ := newTestTracker(t, snapshots)
	ctx := context.Background()
	listID := completableList(t, tr)

	snapshots.failOn(storage.KeyShopping)
	if _, err := tr.Complete(ctx, listID); err == nil {
		t.Fatal("expected save error")
	}

	reopened, _ := newTestTracker(t, snapshots)
	if len(reopened.Ledger().Transactions()) != 0 {
		t.Fatalf("ledger snapshot was not reverted: %+v", reopened.Ledger().Transactions())
	}
	if l, _ := reopened.Shopping().List(listID); l.Status != core.ListActive {
		t.Errorf("stored list status = %s, want active", l.Status)
	}
}

func TestTrackerCompleteSavesInOneBatch(t *testing.T) {
	snapshots := &batchStore{Store: memory.New()}
	tr, _ := newTestTracker(t, snapshots)
	ctx := context.Background()
	listID := completableList(t, tr)

	snapshots.err = errors.New("transaction aborted")
	if _, err := tr.Complete(ctx, listID); err == nil {
		t.Fatal("expected save error")
	}
	last := snapshots.batches[len(snapshots.batches)-1]
	if len(last) != 2 || last[0] != storage.KeyTransactions || last[1] != storage.KeyShopping {
		t.Fatalf("batch keys = %v", last)
	}
	if l, _ := tr.Shopping().List(listID); l.Status != core.ListActive || len(tr.Ledger().Transactions()) != 0 {
		t.Fatalf("failed batch left the completion in memory")
	}

	snapshots.err = nil
	if _, err := tr.Complete(ctx, listID); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if _, err := snapshots.Load(ctx, storage.KeyTransactions); err != nil {
		t.Errorf("ledger snapshot missing after batch save: %v", err)
	}
}

func TestTrackerRejectedMutationIsRolledBack(t *testing.T) {
	tr, _ := newTestTracker(t, memory.New())
	ctx := context.Background()

	err := tr.UpdateShopping(ctx, func(s *shopping.Store) error {
		if _, err := s.CreateList("Setengah", "", "Alfamart"); err != nil {
			return err
		}
		return errors.New("stop")
	})
	if err == nil {
		t.Fatal("expected the closure error")
	}
	if n := len(tr.Shopping().Lists()); n != 0 {
		t.Errorf("lists = %d, want the partial change rolled back", n)
	}
}

func TestTrackerRehydrateIsAllOrNothing(t *testing.T) {
	snapshots := memory.New()
	ctx := context.Background()
	writer, _ := newTestTracker(t, snapshots)
	reader, _ := newTestTracker(t, snapshots)

	tx := core.Transaction{ID: "t1", Amount: d("1000"), Description: "Parkir", Category: "Transportasi", Date: time.Now(), Type: core.Expense}
	if err := writer.AddTransaction(ctx, tx); err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}
	_ = snapshots.Save(ctx, storage.KeyShopping, []byte(`{"version":"one"}`))

	if err := reader.Rehydrate(ctx); err == nil {
		t.Fatal("expected corrupt shopping snapshot to fail")
	}
	if len(reader.Ledger().Transactions()) != 0 {
		t.Errorf("ledger was replaced although the reload failed")
	}
}
