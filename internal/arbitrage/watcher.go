package arbitrage

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/domain"
	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/market"
	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/platform/metrics"
	"go.uber.org/zap"
)

const (
	DefaultIdleInterval = 10 * time.Second
	DefaultMinSettle    = 120 * time.Second
	DefaultMaxSettle    = 300 * time.Second
)

// Watcher runs the detection loop: evaluate, report, then wait. After a hit
// it waits a random settlement delay instead of the idle interval.
type Watcher struct {
	engine  *Engine
	reader  market.Reader
	alert   AlertSink
	log     LogSink
	metrics *metrics.Registry

	IdleInterval time.Duration
	MinSettle    time.Duration
	MaxSettle    time.Duration

	rand  *rand.Rand
	sleep func(ctx context.Context, d time.Duration) bool
}

func NewWatcher(engine *Engine, reader market.Reader, alert AlertSink, log LogSink, m *metrics.Registry) *Watcher {
	return &Watcher{
		engine:       engine,
		reader:       reader,
		alert:        alert,
		log:          log,
		metrics:      m,
		IdleInterval: DefaultIdleInterval,
		MinSettle:    DefaultMinSettle,
		MaxSettle:    DefaultMaxSettle,
		rand:         rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep:        sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (w *Watcher) Run(ctx context.Context) {
	Logger.Info("Start watching for arbitrage opportunities")
	for {
		wait := w.RunOnce(ctx)
		if !w.sleep(ctx, wait) {
			Logger.Info("Stop watching")
			return
		}
	}
}

// RunOnce evaluates every symbol once, reports any hits and returns how long
// to wait before the next cycle.
func (w *Watcher) RunOnce(ctx context.Context) time.Duration {
	start := time.Now()
	opportunities := w.engine.Check(w.reader)
	w.metrics.EvaluationDuration.Observe(time.Since(start).Seconds())
	w.metrics.Evaluations.Inc()

	if len(opportunities) == 0 {
		return w.IdleInterval
	}
	w.metrics.Opportunities.Add(float64(len(opportunities)))
	w.report(ctx, opportunities)

	wait := w.settleDelay()
	Logger.Info("Sleeping " + wait.String() + " to simulate transfer")
	return wait
}

func (w *Watcher) report(ctx context.Context, opportunities []domain.TradeSimulation) {
	for _, o := range opportunities {
		jsonBytes, err := json.Marshal(o)
		if err != nil {
			Logger.Error("Failed to marshal arbitrage output: " + err.Error())
			continue
		}
		ArbitrageLogger.Info(string(jsonBytes))
	}

	if err := w.log.Append(ctx, opportunities); err != nil {
		Logger.Error("Failed to log opportunities", zap.Error(err))
	} else {
		Logger.Info(fmt.Sprintf("Appended %d opportunities", len(opportunities)))
	}

	best, _ := Best(opportunities)
	if err := w.alert.Alert(ctx, best); err != nil {
		Logger.Error("Failed to alert best opportunity "+best.Symbol, zap.Error(err))
	}
}

// settleDelay is uniform over [MinSettle, MaxSettle] in whole seconds.
func (w *Watcher) settleDelay() time.Duration {
	lo, hi := int64(w.MinSettle/time.Second), int64(w.MaxSettle/time.Second)
	if hi <= lo {
		return w.MinSettle
	}
	return time.Duration(lo+w.rand.Int63n(hi-lo+1)) * time.Second
}
