package feed

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/domain"
	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/exchange"
	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/market"
	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/platform/logger"
	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/platform/metrics"
	"go.uber.org/zap"
)

var Logger = logger.Get()

// Session is one websocket connection carrying a batch of topics. A Session
// is run once per connection attempt; the Manager supervises restarts.
type Session struct {
	id        int
	protocol  exchange.StreamProtocol
	batch     []exchange.Topic
	writer    market.Writer
	metrics   *metrics.Registry
	keepAlive time.Duration
	state     atomic.Int32
}

func NewSession(id int, protocol exchange.StreamProtocol, batch []exchange.Topic, writer market.Writer, m *metrics.Registry, keepAlive time.Duration) *Session {
	s := &Session{
		id:        id,
		protocol:  protocol,
		batch:     batch,
		writer:    writer,
		metrics:   m,
		keepAlive: keepAlive,
	}
	s.state.Store(int32(domain.Connecting))
	m.FeedSessions.WithLabelValues(s.exchangeName(), domain.Connecting.String()).Inc()
	return s
}

func (s *Session) State() domain.SessionStateEnum {
	return domain.SessionStateEnum(s.state.Load())
}

func (s *Session) exchangeName() string {
	return s.protocol.Exchange().String()
}

func (s *Session) setState(next domain.SessionStateEnum) {
	prev := domain.SessionStateEnum(s.state.Swap(int32(next)))
	if prev == next {
		return
	}
	s.metrics.FeedSessions.WithLabelValues(s.exchangeName(), prev.String()).Dec()
	s.metrics.FeedSessions.WithLabelValues(s.exchangeName(), next.String()).Inc()
	Logger.Debug(fmt.Sprintf("%s session %d: %s -> %s", s.exchangeName(), s.id, prev, next))
}

// release removes the session from the state gauge once it is not restarted.
func (s *Session) release() {
	s.metrics.FeedSessions.WithLabelValues(s.exchangeName(), s.State().String()).Dec()
}

// Run dials, subscribes and applies received events until the connection
// fails or ctx is cancelled. It returns ctx.Err() on cancellation and the
// failure otherwise.
func (s *Session) Run(ctx context.Context) error {
	s.setState(domain.Connecting)

	conn, _, err := websocket.Dial(ctx, s.protocol.URL(s.batch), nil)
	if err != nil {
		return s.fail(ctx, fmt.Errorf("dial: %w", err))
	}
	defer conn.CloseNow()
	conn.SetReadLimit(-1)

	subscribe, err := s.protocol.SubscribeMessage(s.batch)
	if err != nil {
		return s.fail(ctx, fmt.Errorf("build subscription: %w", err))
	}
	if subscribe != nil {
		if err := conn.Write(ctx, websocket.MessageText, subscribe); err != nil {
			return s.fail(ctx, fmt.Errorf("subscribe: %w", err))
		}
	}
	s.setState(domain.Subscribed)
	Logger.Info(fmt.Sprintf("%s session %d subscribed to %d topics", s.exchangeName(), s.id, len(s.batch)))

	loopCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	go s.keepAliveLoop(loopCtx, conn, cancel)

	for {
		_, msg, err := conn.Read(loopCtx)
		if err != nil {
			if ctx.Err() != nil {
				s.setState(domain.Draining)
				conn.Close(websocket.StatusNormalClosure, "")
				return ctx.Err()
			}
			if cause := context.Cause(loopCtx); cause != nil {
				err = cause
			}
			return s.fail(ctx, fmt.Errorf("receive: %w", err))
		}
		s.handle(msg)
	}
}

func (s *Session) fail(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		s.setState(domain.Draining)
		return ctx.Err()
	}
	s.setState(domain.Failed)
	return err
}

func (s *Session) keepAliveLoop(ctx context.Context, conn *websocket.Conn, cancel context.CancelCauseFunc) {
	ticker := time.NewTicker(s.keepAlive)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pingCtx, pingCancel := context.WithTimeout(ctx, s.keepAlive)
			err := s.protocol.Ping(pingCtx, conn)
			pingCancel()
			if err != nil && ctx.Err() == nil {
				cancel(fmt.Errorf("keep-alive: %w", err))
				return
			}
		}
	}
}

func (s *Session) handle(msg []byte) {
	events, err := s.protocol.Decode(msg)
	if err != nil {
		Logger.Warn("Dropping malformed "+s.exchangeName()+" frame", zap.Error(err))
		return
	}

	ex := s.protocol.Exchange()
	for _, event := range events {
		switch event.Kind {
		case exchange.TickerEvent:
			err = s.writer.UpdatePrice(ex, event.Symbol, event.Price)
		case exchange.DepthEvent:
			err = s.writer.UpdateBook(ex, event.Symbol, event.Bids, event.Asks)
		default:
			continue
		}
		if errors.Is(err, market.ErrUnknownSymbol) {
			s.metrics.FeedUnknownSymbol.WithLabelValues(ex.String()).Inc()
			Logger.Warn("Symbol " + event.Symbol + " not found in market state for " + ex.String())
			continue
		}
		s.metrics.FeedMessages.WithLabelValues(ex.String(), event.Kind.String()).Inc()
	}
}
