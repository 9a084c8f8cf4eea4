package worker

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"cuantrack/internal/amqp"
	"cuantrack/internal/core"
	"cuantrack/internal/log"
	"cuantrack/internal/sheets"
	"cuantrack/internal/storage"
)

// Refresher reloads in-memory state from persisted snapshots.
type Refresher interface {
	Rehydrate(ctx context.Context) error
}

// LedgerSource is the read side of the ledger.
type LedgerSource interface {
	Transactions() []core.Transaction
	Budgets() []core.Budget
}

// SyncWorker keeps this instance in step with the others: it rehydrates on
// change notifications and mirrors the ledger to a spreadsheet.
type SyncWorker struct {
	refresher Refresher
	ledger    LedgerSource
	exporter  sheets.LedgerExporter
	logger    *log.Logger

	mu         sync.Mutex
	lastExport [sha256.Size]byte
	exported   bool
}

// NewSyncWorker creates a worker. A nil exporter disables spreadsheet export.
func NewSyncWorker(refresher Refresher, ledger LedgerSource, exporter sheets.LedgerExporter, logger *log.Logger) *SyncWorker {
	if logger == nil {
		logger = log.Wrap(nil, log.ComponentWorker)
	}
	return &SyncWorker{
		refresher: refresher,
		ledger:    ledger,
		exporter:  exporter,
		logger:    logger.WithComponent(log.ComponentWorker),
	}
}

// HandleStateChanged processes a notification from another instance.
func (w *SyncWorker) HandleStateChanged(ctx context.Context, msg *amqp.StateChangedMessage) error {
	w.logger.InfoContext(ctx, "Processing state changed message",
		log.FieldSnapshotKey, msg.Key,
		log.FieldOrigin, msg.Origin,
		"timestamp", msg.Timestamp)

	if err := w.refresher.Rehydrate(ctx); err != nil {
		return fmt.Errorf("rehydrate: %w", err)
	}

	if msg.Key == storage.KeyTransactions {
		if err := w.ExportLedger(ctx); err != nil {
			// Run retries on its next tick.
			w.logger.ErrorContext(ctx, "Failed to export ledger", log.FieldError, err)
		}
	}
	return nil
}

// ExportLedger pushes the ledger to the exporter unless it is unchanged
// since the last successful export.
func (w *SyncWorker) ExportLedger(ctx context.Context) error {
	if w.exporter == nil {
		return nil
	}

	txs, budgets := w.ledger.Transactions(), w.ledger.Budgets()
	sum, err := fingerprint(txs, budgets)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.exported && sum == w.lastExport {
		return nil
	}

	if err := w.exporter.ExportLedger(ctx, txs, budgets); err != nil {
		return fmt.Errorf("export ledger: %w", err)
	}
	w.lastExport, w.exported = sum, true

	w.logger.InfoContext(ctx, "Ledger exported",
		log.FieldOperation, log.OpExport,
		"transactions", len(txs),
		"budgets", len(budgets))
	return nil
}

// Run exports the ledger immediately and then every interval until ctx ends.
func (w *SyncWorker) Run(ctx context.Context, interval time.Duration) error {
	if w.exporter == nil {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	w.exportLogged(ctx)
	for {
		select {
		case <-ctx.Done():
			w.logger.InfoContext(ctx, "Sync worker stopped")
			return nil
		case <-ticker.C:
			w.exportLogged(ctx)
		}
	}
}

func (w *SyncWorker) exportLogged(ctx context.Context) {
	if err := w.ExportLedger(ctx); err != nil {
		w.logger.ErrorContext(ctx, "Periodic ledger export failed", log.FieldError, err)
	}
}

func fingerprint(txs []core.Transaction, budgets []core.Budget) ([sha256.Size]byte, error) {
	data, err := json.Marshal(struct {
		Transactions []core.Transaction `json:"transactions"`
		Budgets      []core.Budget      `json:"budgets"`
	}{txs, budgets})
	if err != nil {
		return [sha256.Size]byte{}, fmt.Errorf("fingerprint ledger: %w", err)
	}
	return sha256.Sum256(data), nil
}
