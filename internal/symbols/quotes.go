package symbols

import (
	"sort"
	"strings"
	"sync"
)

// QuoteSet is the append-only set of quote currencies seen while
// denormalizing exchange identifiers. It is safe for concurrent use.
type QuoteSet struct {
	mu     sync.RWMutex
	quotes map[string]struct{}
	sorted []string // longest first
}

func NewQuoteSet(quotes ...string) *QuoteSet {
	s := &QuoteSet{quotes: make(map[string]struct{})}
	for _, q := range quotes {
		s.Add(q)
	}
	return s
}

// KnownQuotes is the process-wide set shared by every component.
var KnownQuotes = NewQuoteSet()

func (s *QuoteSet) Add(quote string) {
	if quote == "" || s.Contains(quote) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quotes[quote]; ok {
		return
	}
	s.quotes[quote] = struct{}{}
	sorted := make([]string, 0, len(s.quotes))
	for q := range s.quotes {
		sorted = append(sorted, q)
	}
	sort.Slice(sorted, func(i, j int) bool {
		if len(sorted[i]) != len(sorted[j]) {
			return len(sorted[i]) > len(sorted[j])
		}
		return sorted[i] < sorted[j]
	})
	s.sorted = sorted
}

func (s *QuoteSet) Contains(quote string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.quotes[quote]
	return ok
}

// List returns the known quotes, longest first.
func (s *QuoteSet) List() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.sorted...)
}

// Split returns the base and quote of a denormalized symbol using the longest
// known quote that is a proper suffix. ok is false when no known quote matches.
func (s *QuoteSet) Split(symbol string) (base, quote string, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, q := range s.sorted {
		if len(symbol) > len(q) && strings.HasSuffix(symbol, q) {
			return symbol[:len(symbol)-len(q)], q, true
		}
	}
	return symbol, "", false
}

// Denormalize converts "BTC-USDT" or "BTC-USDT-SWAP" into "BTCUSDT" and
// records the quote currency.
func (s *QuoteSet) Denormalize(id string) string {
	id = strings.TrimSuffix(id, "-SWAP")
	base, quote, found := strings.Cut(id, "-")
	if !found {
		return id
	}
	s.Add(quote)
	return base + quote
}

// Normalize converts "BTCUSDT" into "BTC-USDT". When the quote currency has
// not been observed yet the input is returned unchanged.
func (s *QuoteSet) Normalize(symbol string) string {
	base, quote, ok := s.Split(symbol)
	if !ok {
		return symbol
	}
	return base + "-" + quote
}

// BaseAsset strips the longest known quote suffix.
func (s *QuoteSet) BaseAsset(symbol string) string {
	base, _, _ := s.Split(symbol)
	return base
}
