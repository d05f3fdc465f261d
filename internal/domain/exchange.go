package domain

import "time"

// Snapshot is a deep copy of the market state handed to external sinks.
type Snapshot struct {
	TakenAt   time.Time                                  `json:"takenAt"`
	Symbols   map[string]map[ExchangeEnum]*ExchangeQuote `json:"symbols"`
	Reference map[ExchangeEnum][]NetworkFee              `json:"reference"`
}
