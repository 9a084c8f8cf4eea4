// Package advisor produces read-only spending advice. It never mutates the
// ledger or the shopping store.
package advisor

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"

	"cuantrack/internal/core"
	"cuantrack/internal/log"
)

const (
	answerTTL     = 10 * time.Minute
	cleanupPeriod = 20 * time.Minute
)

var (
	ErrRemoteDisabled = errors.New("remote advisor not configured")
	ErrEmptyQuestion  = errors.New("empty question")
)

// Generator answers a prompt with free text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type Advisor struct {
	remote  Generator
	answers *cache.Cache
	logger  *log.Logger
}

// New creates an advisor. A nil remote leaves only the local summary.
func New(remote Generator, logger *log.Logger) *Advisor {
	if logger == nil {
		logger = log.Wrap(nil, log.ComponentAdvisor)
	}
	return &Advisor{
		remote:  remote,
		answers: cache.New(answerTTL, cleanupPeriod),
		logger:  logger.WithComponent(log.ComponentAdvisor),
	}
}

// RemoteEnabled reports whether Ask can reach a model.
func (a *Advisor) RemoteEnabled() bool {
	return a.remote != nil
}

// LocalSummary describes total spending and the biggest expense category.
func LocalSummary(txs []core.Transaction) string {
	top, ok := core.TopCategoryBySpend(txs)
	if !ok {
		return "Anda belum memiliki data pengeluaran. Mulai catat transaksi untuk mendapatkan analisis."
	}

	total := decimal.Zero
	for _, t := range txs {
		if t.Type == core.Expense {
			total = total.Add(t.Amount)
		}
	}

	var b strings.Builder
	b.WriteString("Ringkasan keuangan Anda:\n")
	fmt.Fprintf(&b, "- Total pengeluaran Anda adalah %s.\n", core.FormatRupiah(total))
	fmt.Fprintf(&b, "- Kategori pengeluaran terbesar Anda adalah %s, menghabiskan sekitar %s.\n",
		top.Name, core.FormatRupiah(top.Amount))
	fmt.Fprintf(&b, "Saran: pengeluaran terbesar Anda ada di kategori %q. "+
		"Mengurangi pengeluaran di kategori ini sebesar 15%% dapat menghemat sekitar %s.",
		top.Name, core.FormatRupiah(top.Amount.Mul(decimal.RequireFromString("0.15")).Round(0)))
	return b.String()
}

// Ask sends question to the remote model together with the local summary of
// txs. Identical questions over identical data are answered from cache.
func (a *Advisor) Ask(ctx context.Context, question string, txs []core.Transaction) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", ErrEmptyQuestion
	}
	if a.remote == nil {
		return "", ErrRemoteDisabled
	}

	prompt := buildPrompt(question, LocalSummary(txs))
	key := cacheKey(prompt)
	if answer, found := a.answers.Get(key); found {
		a.logger.DebugContext(ctx, "Advisor answer served from cache")
		return answer.(string), nil
	}

	answer, err := a.remote.Generate(ctx, prompt)
	if err != nil {
		a.logger.ErrorContext(ctx, "Advisor request failed", log.FieldError, err)
		return "", fmt.Errorf("ask advisor: %w", err)
	}
	answer = strings.TrimSpace(answer)
	a.answers.Set(key, answer, cache.DefaultExpiration)
	return answer, nil
}

func buildPrompt(question, summary string) string {
	return "Data transaksi pengguna:\n" + summary + "\n\nPertanyaan: " + question
}

func cacheKey(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:])
}
