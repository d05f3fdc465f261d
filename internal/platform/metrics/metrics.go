package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds every collector exported by the bot.
type Registry struct {
	*prometheus.Registry

	FeedMessages      *prometheus.CounterVec
	FeedReconnects    *prometheus.CounterVec
	FeedUnknownSymbol *prometheus.CounterVec
	FeedSessions      *prometheus.GaugeVec

	FeeRefreshes *prometheus.CounterVec

	Evaluations        prometheus.Counter
	Opportunities      prometheus.Counter
	EvaluationDuration prometheus.Histogram

	TrackedSymbols prometheus.Gauge
}

func New() *Registry {
	r := &Registry{
		Registry: prometheus.NewRegistry(),

		FeedMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arbitrage_feed_messages_total",
			Help: "Stream events applied to the market state, by exchange and kind.",
		}, []string{"exchange", "kind"}),
		FeedReconnects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arbitrage_feed_reconnects_total",
			Help: "Stream sessions restarted after a failure.",
		}, []string{"exchange"}),
		FeedUnknownSymbol: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arbitrage_feed_unknown_symbol_total",
			Help: "Stream events dropped because the symbol is not tracked.",
		}, []string{"exchange"}),
		FeedSessions: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "arbitrage_feed_sessions",
			Help: "Stream sessions by exchange and state.",
		}, []string{"exchange", "state"}),

		FeeRefreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arbitrage_fee_refresh_total",
			Help: "Withdrawal fee refresh cycles, by exchange and result.",
		}, []string{"exchange", "result"}),

		Evaluations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "arbitrage_evaluations_total",
			Help: "Completed detection cycles.",
		}),
		Opportunities: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "arbitrage_opportunities_total",
			Help: "Simulations above the profit threshold.",
		}),
		EvaluationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "arbitrage_evaluation_duration_seconds",
			Help:    "Time spent evaluating every symbol once.",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),

		TrackedSymbols: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "arbitrage_tracked_symbols",
			Help: "Symbols listed on both exchanges at the last recalculation.",
		}),
	}

	r.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.FeedMessages,
		r.FeedReconnects,
		r.FeedUnknownSymbol,
		r.FeedSessions,
		r.FeeRefreshes,
		r.Evaluations,
		r.Opportunities,
		r.EvaluationDuration,
		r.TrackedSymbols,
	)
	return r
}
