package feed

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/exchange"
	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/market"
	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/platform/metrics"
	"go.uber.org/zap"
)

const (
	DefaultBatchSize    = 100
	DefaultRestartDelay = 5 * time.Second
	DefaultKeepAlive    = 15 * time.Second
)

// Manager owns every stream session of one exchange.
type Manager struct {
	protocol exchange.StreamProtocol
	writer   market.Writer
	metrics  *metrics.Registry

	BatchSize    int
	RestartDelay time.Duration
	KeepAlive    time.Duration

	mu       sync.Mutex
	sessions []*Session
}

func NewManager(protocol exchange.StreamProtocol, writer market.Writer, m *metrics.Registry) *Manager {
	return &Manager{
		protocol:     protocol,
		writer:       writer,
		metrics:      m,
		BatchSize:    DefaultBatchSize,
		RestartDelay: DefaultRestartDelay,
		KeepAlive:    DefaultKeepAlive,
	}
}

// Batches splits topics into consecutive groups of at most size topics.
func Batches(topics []exchange.Topic, size int) [][]exchange.Topic {
	var out [][]exchange.Topic
	for start := 0; start < len(topics); start += size {
		end := min(start+size, len(topics))
		out = append(out, topics[start:end])
	}
	return out
}

// Sessions returns the sessions of the current run.
func (m *Manager) Sessions() []*Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*Session(nil), m.sessions...)
}

// Run streams the ticker and depth topics of symbols until ctx is cancelled.
// Every session is restarted after RestartDelay whenever it ends.
func (m *Manager) Run(ctx context.Context, symbols []string) {
	batches := Batches(exchange.Topics(symbols), m.BatchSize)
	sessions := make([]*Session, len(batches))
	for i, batch := range batches {
		sessions[i] = NewSession(i, m.protocol, batch, m.writer, m.metrics, m.KeepAlive)
	}
	m.mu.Lock()
	m.sessions = sessions
	m.mu.Unlock()

	Logger.Info(fmt.Sprintf("Starting %d %s sessions for %d symbols", len(sessions), m.protocol.Exchange(), len(symbols)))

	var wg sync.WaitGroup
	for _, s := range sessions {
		wg.Add(1)
		go func(s *Session) {
			defer wg.Done()
			m.supervise(ctx, s)
		}(s)
	}
	wg.Wait()
}

func (m *Manager) supervise(ctx context.Context, s *Session) {
	defer s.release()
	name := m.protocol.Exchange().String()
	for {
		err := s.Run(ctx)
		if ctx.Err() != nil {
			return
		}
		Logger.Warn(fmt.Sprintf("%s session %d ended, restarting in %s", name, s.id, m.RestartDelay), zap.Error(err))
		m.metrics.FeedReconnects.WithLabelValues(name).Inc()

		select {
		case <-ctx.Done():
			return
		case <-time.After(m.RestartDelay):
		}
	}
}
