package fees

import (
	"context"
	"fmt"
	"time"

	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/domain"
	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/market"
	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/platform/logger"
	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/platform/metrics"
	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/symbols"
	"go.uber.org/zap"
)

const (
	DefaultInterval = 60 * time.Second
	// ReferenceAsset is the coin whose networks are published separately.
	ReferenceAsset = "USDT"
)

var Logger = logger.Get()

// NetworkSource is the signed withdrawal-fee endpoint of one exchange.
type NetworkSource interface {
	Exchange() domain.ExchangeEnum
	GetNetworkFees(ctx context.Context) (map[string][]domain.NetworkFee, error)
}

// Worker periodically replaces the withdrawal networks of one exchange.
type Worker struct {
	source   NetworkSource
	writer   market.Writer
	quotes   *symbols.QuoteSet
	metrics  *metrics.Registry
	Interval time.Duration
}

func NewWorker(source NetworkSource, writer market.Writer, quotes *symbols.QuoteSet, m *metrics.Registry) *Worker {
	return &Worker{
		source:   source,
		writer:   writer,
		quotes:   quotes,
		metrics:  m,
		Interval: DefaultInterval,
	}
}

// Run refreshes immediately and then every Interval until ctx is cancelled.
// Failed cycles are logged and retried on the next tick.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()
	for {
		if err := w.Refresh(ctx); err != nil && ctx.Err() == nil {
			Logger.Error("Failed to refresh "+w.source.Exchange().String()+" withdrawal fees", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Refresh performs one fetch and applies it to every tracked symbol.
func (w *Worker) Refresh(ctx context.Context) error {
	ex := w.source.Exchange()
	mapping, err := w.source.GetNetworkFees(ctx)
	if err != nil {
		w.metrics.FeeRefreshes.WithLabelValues(ex.String(), "error").Inc()
		return err
	}

	updated := 0
	for _, sym := range w.writer.Symbols() {
		networks, ok := mapping[w.quotes.BaseAsset(sym)]
		if !ok {
			networks = []domain.NetworkFee{}
		}
		if err := w.writer.UpdateNetworks(ex, sym, networks); err != nil {
			// the symbol set was replaced mid-cycle
			continue
		}
		updated++
	}

	reference, ok := mapping[ReferenceAsset]
	if !ok {
		reference = []domain.NetworkFee{}
	}
	w.writer.SetReferenceNetworks(ex, reference)

	w.metrics.FeeRefreshes.WithLabelValues(ex.String(), "ok").Inc()
	Logger.Debug(fmt.Sprintf("Refreshed %s withdrawal fees for %d symbols", ex, updated))
	return nil
}
