package sheets

import (
	"context"

	"cuantrack/internal/core"
)

// Ports for outbound adapters.
type (
	// LedgerExporter overwrites the exported copy of the ledger.
	LedgerExporter interface {
		ExportLedger(ctx context.Context, txs []core.Transaction, budgets []core.Budget) error
	}
)
