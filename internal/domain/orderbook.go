package domain

import "time"

// MaxDepth is the number of book levels kept per side.
const MaxDepth = 5

type PriceLevel struct {
	Price  float64 `json:"price"`
	Volume float64 `json:"volume"`
}

type NetworkFee struct {
	Name        string  `json:"name"`
	Fee         float64 `json:"fee"`
	MinWithdraw float64 `json:"minWd"`
}

// ExchangeQuote is the per exchange view of one symbol. Values are never
// mutated after publication; writers publish modified copies.
type ExchangeQuote struct {
	Price     float64      `json:"price"`
	Bids      []PriceLevel `json:"bid"`
	Asks      []PriceLevel `json:"ask"`
	Networks  []NetworkFee `json:"network"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// NewExchangeQuote returns the quote used for a freshly discovered symbol.
func NewExchangeQuote() *ExchangeQuote {
	return &ExchangeQuote{
		Price:    -1,
		Bids:     []PriceLevel{},
		Asks:     []PriceLevel{},
		Networks: []NetworkFee{},
	}
}

// Clone returns a shallow copy. Slices are shared because published slices
// are never written to.
func (q *ExchangeQuote) Clone() *ExchangeQuote {
	c := *q
	return &c
}

// QuotePair holds both exchange quotes of a symbol, indexed by ExchangeEnum.
type QuotePair [ExchangeCount]*ExchangeQuote

func (p QuotePair) Get(e ExchangeEnum) *ExchangeQuote {
	return p[e]
}
