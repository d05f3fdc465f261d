package exchange

import (
	"fmt"
	"strconv"

	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/domain"
)

// ParseLevels converts [price, qty, ...] string tuples into at most
// domain.MaxDepth price levels, keeping the exchange's order.
func ParseLevels(raw [][]string) ([]domain.PriceLevel, error) {
	levels := make([]domain.PriceLevel, 0, min(len(raw), domain.MaxDepth))
	for i, entry := range raw {
		if i == domain.MaxDepth {
			break
		}
		if len(entry) < 2 {
			return nil, fmt.Errorf("level %d has %d fields", i, len(entry))
		}
		price, err := strconv.ParseFloat(entry[0], 64)
		if err != nil {
			return nil, fmt.Errorf("level %d price: %w", i, err)
		}
		volume, err := strconv.ParseFloat(entry[1], 64)
		if err != nil {
			return nil, fmt.Errorf("level %d volume: %w", i, err)
		}
		levels = append(levels, domain.PriceLevel{Price: price, Volume: volume})
	}
	return levels, nil
}

// ParseFloatOrZero mirrors the lenient numeric handling of the fee endpoints,
// where an unparsable fee is treated as zero.
func ParseFloatOrZero(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
