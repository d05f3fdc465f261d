package sink

import (
	"context"
	"errors"

	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/arbitrage"
	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/domain"
)

// MultiLogSink hands every batch to each sink. A failing sink does not stop
// the others; their errors are joined.
type MultiLogSink []arbitrage.LogSink

func (m MultiLogSink) Append(ctx context.Context, sims []domain.TradeSimulation) error {
	var errs []error
	for _, s := range m {
		if err := s.Append(ctx, sims); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
