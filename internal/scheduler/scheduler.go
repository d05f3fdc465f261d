package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/arbitrage"
	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/domain"
	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/feed"
	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/fees"
	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/market"
	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/platform/logger"
	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/platform/metrics"
	"go.uber.org/zap"
)

const DefaultSnapshotInterval = 10 * time.Second

var Logger = logger.Get()
var StateLogger = logger.GetStateLogger()

// SnapshotSink receives periodic copies of the market state.
type SnapshotSink interface {
	Save(ctx context.Context, snap domain.Snapshot) error
}

// Discoverer returns the symbols currently listed on both exchanges.
type Discoverer interface {
	Discover(ctx context.Context) []string
}

// Orchestrator runs every long lived task of the bot against one store.
type Orchestrator struct {
	discoverer Discoverer
	store      *market.Store
	feeds      []*feed.Manager
	feeWorkers []*fees.Worker
	watcher    *arbitrage.Watcher
	snapshots  []SnapshotSink
	metrics    *metrics.Registry
	location   *time.Location

	SnapshotInterval time.Duration

	now func() time.Time

	feedMu     sync.Mutex
	feedCancel context.CancelFunc
	feedDone   *sync.WaitGroup
}

type Options struct {
	Discoverer Discoverer
	Store      *market.Store
	Feeds      []*feed.Manager
	FeeWorkers []*fees.Worker
	Watcher    *arbitrage.Watcher
	Snapshots  []SnapshotSink
	Metrics    *metrics.Registry
	Location   *time.Location
}

func New(opts Options) *Orchestrator {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Orchestrator{
		discoverer:       opts.Discoverer,
		store:            opts.Store,
		feeds:            opts.Feeds,
		feeWorkers:       opts.FeeWorkers,
		watcher:          opts.Watcher,
		snapshots:        opts.Snapshots,
		metrics:          opts.Metrics,
		location:         loc,
		SnapshotInterval: DefaultSnapshotInterval,
		now:              time.Now,
	}
}

// NextMidnight returns the next local midnight strictly after now in loc.
func NextMidnight(now time.Time, loc *time.Location) time.Time {
	local := now.In(loc)
	y, m, d := local.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, loc)
}

// Run starts every task and blocks until ctx is cancelled and all of them
// have returned.
func (o *Orchestrator) Run(ctx context.Context) {
	o.metrics.TrackedSymbols.Set(float64(len(o.store.Symbols())))
	o.startFeeds(ctx, o.store.Symbols())

	var wg sync.WaitGroup
	spawn := func(name string, fn func(ctx context.Context)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn(ctx)
			Logger.Info(name + " stopped")
		}()
	}

	for _, w := range o.feeWorkers {
		w := w
		spawn("fee worker", w.Run)
	}
	spawn("snapshot publisher", o.publishSnapshots)
	spawn("daily recalculation", o.recalculateDaily)
	if o.watcher != nil {
		spawn("detection loop", o.watcher.Run)
	}

	<-ctx.Done()
	wg.Wait()
	o.stopFeeds()
}

func (o *Orchestrator) startFeeds(ctx context.Context, symbols []string) {
	feedCtx, cancel := context.WithCancel(ctx)
	done := &sync.WaitGroup{}
	for _, m := range o.feeds {
		done.Add(1)
		go func(m *feed.Manager) {
			defer done.Done()
			m.Run(feedCtx, symbols)
		}(m)
	}

	o.feedMu.Lock()
	o.feedCancel, o.feedDone = cancel, done
	o.feedMu.Unlock()
}

func (o *Orchestrator) stopFeeds() {
	o.feedMu.Lock()
	cancel, done := o.feedCancel, o.feedDone
	o.feedCancel, o.feedDone = nil, nil
	o.feedMu.Unlock()

	if cancel != nil {
		cancel()
		done.Wait()
	}
}

func (o *Orchestrator) publishSnapshots(ctx context.Context) {
	ticker := time.NewTicker(o.SnapshotInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.PublishSnapshot(ctx)
		}
	}
}

// PublishSnapshot hands one copy of the store to every snapshot sink.
func (o *Orchestrator) PublishSnapshot(ctx context.Context) {
	snap := o.store.Snapshot()
	for _, s := range o.snapshots {
		if err := s.Save(ctx, snap); err != nil {
			Logger.Warn(fmt.Sprintf("Snapshot sink %T failed", s), zap.Error(err))
		}
	}
	StateLogger.Debug("Published snapshot", zap.Int("symbols", len(snap.Symbols)))
}

func (o *Orchestrator) recalculateDaily(ctx context.Context) {
	for {
		wait := NextMidnight(o.now(), o.location).Sub(o.now())
		Logger.Info("Next symbol recalculation in " + wait.Round(time.Second).String())

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		o.Recalculate(ctx)
	}
}

// Recalculate rediscovers the common symbols, swaps the store and restarts
// the feeds against the new set. An empty discovery keeps the current set.
func (o *Orchestrator) Recalculate(ctx context.Context) {
	symbols := o.discoverer.Discover(ctx)
	if ctx.Err() != nil {
		return
	}
	if len(symbols) == 0 {
		Logger.Warn("Symbol discovery returned nothing, keeping the current symbol set")
		return
	}

	o.store.Replace(symbols)
	o.metrics.TrackedSymbols.Set(float64(len(symbols)))
	Logger.Info(fmt.Sprintf("Recalculated symbol grouping: %d symbols", len(symbols)))

	o.stopFeeds()
	o.startFeeds(ctx, symbols)

	for _, w := range o.feeWorkers {
		if err := w.Refresh(ctx); err != nil {
			Logger.Error("Fee refresh after recalculation failed", zap.Error(err))
		}
	}
}
