package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"cuantrack/internal/core"
	ports "cuantrack/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const dateLayout = "2006-01-02"

var (
	transactionHeader = []any{"Tanggal", "Deskripsi", "Kategori", "Tipe", "Jumlah", "ID"}
	budgetHeader      = []any{"Kategori", "Batas"}
)

type Client struct {
	svc               *gsheet.Service
	spreadsheetID     string
	transactionsSheet string
	budgetsSheet      string
}

// Ensure interface conformance
var _ ports.LedgerExporter = (*Client)(nil)

// Config selects the spreadsheet and the service account used to reach it.
// CredentialsJSON wins over CredentialsFile.
type Config struct {
	SpreadsheetID     string
	TransactionsSheet string
	BudgetsSheet      string
	CredentialsJSON   string
	CredentialsFile   string
}

func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet ID")
	}
	if cfg.TransactionsSheet == "" {
		cfg.TransactionsSheet = "Transaksi"
	}
	if cfg.BudgetsSheet == "" {
		cfg.BudgetsSheet = "Anggaran"
	}

	credentialsJSON, err := readCredentials(cfg)
	if err != nil {
		return nil, err
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets service created",
		"spreadsheet_id", cfg.SpreadsheetID,
		"transactions_sheet", cfg.TransactionsSheet,
		"budgets_sheet", cfg.BudgetsSheet)

	return &Client{
		svc:               svc,
		spreadsheetID:     cfg.SpreadsheetID,
		transactionsSheet: cfg.TransactionsSheet,
		budgetsSheet:      cfg.BudgetsSheet,
	}, nil
}

func readCredentials(cfg Config) ([]byte, error) {
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		return []byte(cfg.CredentialsJSON), nil
	case strings.TrimSpace(cfg.CredentialsFile) != "":
		data, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return data, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// ExportLedger overwrites both sheets with the given ledger contents.
func (c *Client) ExportLedger(ctx context.Context, txs []core.Transaction, budgets []core.Budget) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	if err := c.replaceSheet(ctx, c.transactionsSheet, "A:F", transactionRows(txs)); err != nil {
		return err
	}
	if err := c.replaceSheet(ctx, c.budgetsSheet, "A:B", budgetRows(budgets)); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Ledger exported to Google Sheets",
		"transactions", len(txs), "budgets", len(budgets))
	return nil
}

func (c *Client) replaceSheet(ctx context.Context, sheet, cols string, rows [][]any) error {
	clearRange := fmt.Sprintf("%s!%s", sheet, cols)
	_, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to clear %s: %w", clearRange, err)
	}

	dataRange := fmt.Sprintf("%s!A1", sheet)
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, dataRange, &gsheet.ValueRange{Values: rows}).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to update sheet %s: %w", sheet, err)
	}
	return nil
}

func transactionRows(txs []core.Transaction) [][]any {
	rows := make([][]any, 0, len(txs)+1)
	rows = append(rows, transactionHeader)
	for _, t := range txs {
		rows = append(rows, []any{
			t.Date.Format(dateLayout),
			cellText(t.Description),
			cellText(t.Category),
			string(t.Type),
			t.Amount.String(),
			t.ID,
		})
	}
	return rows
}

func budgetRows(budgets []core.Budget) [][]any {
	rows := make([][]any, 0, len(budgets)+1)
	rows = append(rows, budgetHeader)
	for _, b := range budgets {
		rows = append(rows, []any{cellText(b.Category), b.Limit.String()})
	}
	return rows
}

// cellText quotes free text that Sheets would otherwise evaluate as a
// formula under USER_ENTERED input.
func cellText(s string) string {
	if s == "" {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + s
	}
	return s
}
