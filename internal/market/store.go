package market

import (
	"errors"
	"sort"
	"sync/atomic"
	"time"

	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/domain"
)

var ErrUnknownSymbol = errors.New("unknown symbol")

// Writer is the mutation surface used by feed sessions and fee workers.
type Writer interface {
	UpdatePrice(ex domain.ExchangeEnum, symbol string, price float64) error
	UpdateBook(ex domain.ExchangeEnum, symbol string, bids, asks []domain.PriceLevel) error
	UpdateNetworks(ex domain.ExchangeEnum, symbol string, networks []domain.NetworkFee) error
	SetReferenceNetworks(ex domain.ExchangeEnum, networks []domain.NetworkFee)
	Symbols() []string
}

// Reader is the read surface used by the arbitrage engine and sinks.
type Reader interface {
	Symbols() []string
	Get(symbol string) (domain.QuotePair, bool)
	ReferenceNetworks(ex domain.ExchangeEnum) []domain.NetworkFee
	Snapshot() domain.Snapshot
}

// record publishes the latest quote of one (symbol, exchange).
type record struct {
	quote atomic.Pointer[domain.ExchangeQuote]
}

func newRecord() *record {
	r := &record{}
	r.quote.Store(domain.NewExchangeQuote())
	return r
}

// update applies fn to a private copy and publishes it. Writers of disjoint
// fields race on the same record, so publication retries on conflict.
func (r *record) update(fn func(q *domain.ExchangeQuote)) {
	for {
		old := r.quote.Load()
		next := old.Clone()
		fn(next)
		if r.quote.CompareAndSwap(old, next) {
			return
		}
	}
}

type state struct {
	symbols []string
	records map[string]*[domain.ExchangeCount]*record
}

// Store is the shared symbol -> exchange -> quote mapping. The whole mapping
// is swapped atomically by Replace; a write that resolved its record before a
// swap lands in the discarded state and is lost.
type Store struct {
	current   atomic.Pointer[state]
	reference [domain.ExchangeCount]atomic.Pointer[[]domain.NetworkFee]
}

func NewStore(symbols []string) *Store {
	s := &Store{}
	s.Replace(symbols)
	for i := range s.reference {
		empty := []domain.NetworkFee{}
		s.reference[i].Store(&empty)
	}
	return s
}

// Replace installs a fresh state with default quotes for every symbol.
func (s *Store) Replace(symbols []string) {
	st := &state{
		symbols: make([]string, 0, len(symbols)),
		records: make(map[string]*[domain.ExchangeCount]*record, len(symbols)),
	}
	for _, sym := range symbols {
		if _, ok := st.records[sym]; ok {
			continue
		}
		var pair [domain.ExchangeCount]*record
		for i := range pair {
			pair[i] = newRecord()
		}
		st.records[sym] = &pair
		st.symbols = append(st.symbols, sym)
	}
	sort.Strings(st.symbols)
	s.current.Store(st)
}

func (s *Store) lookup(ex domain.ExchangeEnum, symbol string) (*record, error) {
	pair, ok := s.current.Load().records[symbol]
	if !ok {
		return nil, ErrUnknownSymbol
	}
	return pair[ex], nil
}

func (s *Store) UpdatePrice(ex domain.ExchangeEnum, symbol string, price float64) error {
	r, err := s.lookup(ex, symbol)
	if err != nil {
		return err
	}
	now := time.Now()
	r.update(func(q *domain.ExchangeQuote) {
		q.Price = price
		q.UpdatedAt = now
	})
	return nil
}

func (s *Store) UpdateBook(ex domain.ExchangeEnum, symbol string, bids, asks []domain.PriceLevel) error {
	r, err := s.lookup(ex, symbol)
	if err != nil {
		return err
	}
	now := time.Now()
	r.update(func(q *domain.ExchangeQuote) {
		q.Bids = bids
		q.Asks = asks
		q.UpdatedAt = now
	})
	return nil
}

func (s *Store) UpdateNetworks(ex domain.ExchangeEnum, symbol string, networks []domain.NetworkFee) error {
	r, err := s.lookup(ex, symbol)
	if err != nil {
		return err
	}
	r.update(func(q *domain.ExchangeQuote) {
		q.Networks = networks
	})
	return nil
}

func (s *Store) SetReferenceNetworks(ex domain.ExchangeEnum, networks []domain.NetworkFee) {
	s.reference[ex].Store(&networks)
}

func (s *Store) ReferenceNetworks(ex domain.ExchangeEnum) []domain.NetworkFee {
	return *s.reference[ex].Load()
}

// Symbols returns the tracked symbols in sorted order.
func (s *Store) Symbols() []string {
	return s.current.Load().symbols
}

func (s *Store) Has(symbol string) bool {
	_, ok := s.current.Load().records[symbol]
	return ok
}

// Get returns the latest published quotes of a symbol. Each quote is
// internally consistent; the two exchanges may have been read at slightly
// different instants.
func (s *Store) Get(symbol string) (domain.QuotePair, bool) {
	pair, ok := s.current.Load().records[symbol]
	if !ok {
		return domain.QuotePair{}, false
	}
	var out domain.QuotePair
	for i, r := range pair {
		out[i] = r.quote.Load()
	}
	return out, true
}

// Snapshot copies the current state for external inspection.
func (s *Store) Snapshot() domain.Snapshot {
	st := s.current.Load()
	snap := domain.Snapshot{
		TakenAt:   time.Now(),
		Symbols:   make(map[string]map[domain.ExchangeEnum]*domain.ExchangeQuote, len(st.symbols)),
		Reference: make(map[domain.ExchangeEnum][]domain.NetworkFee, domain.ExchangeCount),
	}
	for _, sym := range st.symbols {
		pair := st.records[sym]
		quotes := make(map[domain.ExchangeEnum]*domain.ExchangeQuote, domain.ExchangeCount)
		for i, r := range pair {
			quotes[domain.ExchangeEnum(i)] = r.quote.Load().Clone()
		}
		snap.Symbols[sym] = quotes
	}
	for _, ex := range domain.Exchanges() {
		snap.Reference[ex] = s.ReferenceNetworks(ex)
	}
	return snap
}
