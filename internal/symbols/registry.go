package symbols

import (
	"context"
	"sort"
	"sync"

	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/domain"
	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/platform/logger"
	"go.uber.org/zap"
)

var Logger = logger.Get()

// Lister lists the spot symbols of one exchange in denormalized form.
type Lister interface {
	GetName() string
	ListSpotSymbols(ctx context.Context) ([]string, error)
}

type Registry struct {
	listers [domain.ExchangeCount]Lister
}

func NewRegistry(binance, okx Lister) *Registry {
	return &Registry{listers: [domain.ExchangeCount]Lister{domain.Binance: binance, domain.OKX: okx}}
}

// Discover returns the sorted symbols listed on both exchanges. An exchange
// that cannot be queried contributes an empty set.
func (r *Registry) Discover(ctx context.Context) []string {
	var sets [domain.ExchangeCount]map[string]struct{}

	var wg sync.WaitGroup
	for i, lister := range r.listers {
		wg.Add(1)
		go func(i int, lister Lister) {
			defer wg.Done()
			sets[i] = make(map[string]struct{})
			symbols, err := lister.ListSpotSymbols(ctx)
			if err != nil {
				Logger.Error("Error fetching "+lister.GetName()+" symbols", zap.Error(err))
				return
			}
			for _, s := range symbols {
				sets[i][s] = struct{}{}
			}
			Logger.Info("Fetched "+lister.GetName()+" symbols", zap.Int("count", len(sets[i])))
		}(i, lister)
	}
	wg.Wait()

	return Intersect(sets[domain.Binance], sets[domain.OKX])
}

// Intersect returns the sorted keys present in both sets.
func Intersect(a, b map[string]struct{}) []string {
	common := make([]string, 0)
	for s := range a {
		if _, ok := b[s]; ok {
			common = append(common, s)
		}
	}
	sort.Strings(common)
	return common
}
