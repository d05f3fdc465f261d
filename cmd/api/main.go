package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"
	_ "time/tzdata"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/arbitrage"
	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/database"
	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/domain"
	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/exchange/binance"
	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/exchange/okx"
	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/feed"
	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/fees"
	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/market"
	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/platform/config"
	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/platform/logger"
	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/platform/metrics"
	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/scheduler"
	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/server"
	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/sink"
	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/symbols"
)

const (
	opportunitiesFile = "arbitrage_opportunities.csv"
	redisTTL          = time.Minute
)

var Logger = logger.Get()

var rootCmd = &cobra.Command{
	Use:   "arbitrage-bot",
	Short: "Binance and OKX spot arbitrage detector",
	Long: `Streams tickers and order books for every spot symbol listed on both
Binance and OKX, simulates buying on one exchange, withdrawing and selling on
the other, and reports trades whose net profit clears the configured threshold.`,
	RunE: runBot,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the bot until interrupted (default)",
	RunE:  runBot,
}

var symbolsCmd = &cobra.Command{
	Use:   "symbols",
	Short: "Print the spot symbols currently listed on both exchanges",
	RunE:  printSymbols,
}

func init() {
	rootCmd.AddCommand(runCmd, symbolsCmd)
}

func gracefulShutdown(fiberServer *server.FiberServer, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	Logger.Info("Shutting down http server")

	// The server has 5 seconds to finish the request it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := fiberServer.ShutdownWithContext(ctx); err != nil {
		Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	done <- true
}

func newClients(cfg *config.Config) (*binance.BinanceExchange, *okx.OkxExchange) {
	b := cfg.Exchange[domain.Binance]
	o := cfg.Exchange[domain.OKX]
	return binance.CreateClient(b.ApiKey, b.ApiSecret, nil),
		okx.CreateClient(o.ApiKey, o.ApiSecret, o.Passphrase, symbols.KnownQuotes, nil)
}

func printSymbols(cmd *cobra.Command, args []string) error {
	cfg, err := config.GetConfig()
	if err != nil {
		return err
	}
	binanceClient, okxClient := newClients(cfg)

	common := symbols.NewRegistry(binanceClient, okxClient).Discover(cmd.Context())
	for _, s := range common {
		fmt.Fprintln(cmd.OutOrStdout(), s)
	}
	Logger.Info(fmt.Sprintf("%d common symbols", len(common)))
	return nil
}

func runBot(cmd *cobra.Command, args []string) error {
	cfg, err := config.GetConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", cfg.Timezone, err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	binanceClient, okxClient := newClients(cfg)
	registry := symbols.NewRegistry(binanceClient, okxClient)
	reg := metrics.New()

	common := registry.Discover(ctx)
	Logger.Info(fmt.Sprintf("Tracking %d common symbols", len(common)))
	store := market.NewStore(common)

	logSinks := sink.MultiLogSink{sink.NewCSVLogSink(filepath.Join(cfg.DataDir, opportunitiesFile))}
	snapshotSinks := []scheduler.SnapshotSink{sink.NewFileSnapshotSink(cfg.DataDir)}

	var db database.Service
	if cfg.SqlitePath != "" {
		if db, err = database.New(cfg.SqlitePath); err != nil {
			return err
		}
		defer db.Close()
		logSinks = append(logSinks, db)
	}

	if cfg.Redis.Addr != "" {
		redisSink := sink.NewRedisSink(sink.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB), redisTTL)
		defer redisSink.Close()
		logSinks = append(logSinks, redisSink)
		snapshotSinks = append(snapshotSinks, redisSink)
	}

	hub := sink.NewHub()
	logSinks = append(logSinks, hub)

	var alert arbitrage.AlertSink = arbitrage.LogAlerter{}
	if cfg.Discord.WebhookUrl != "" {
		discordAlerter, err := arbitrage.NewDiscordAlerter(cfg.Discord.WebhookUrl)
		if err != nil {
			return err
		}
		defer discordAlerter.Close(context.Background())
		alert = discordAlerter
	}

	var httpDone chan bool
	if cfg.HttpAddr != "" {
		srv := server.New(store, db, reg, hub)
		srv.RegisterFiberRoutes()
		snapshotSinks = append(snapshotSinks, srv)

		httpDone = make(chan bool, 1)
		go func() {
			if err := srv.Listen(cfg.HttpAddr); err != nil {
				Logger.Error("http server error", zap.Error(err))
			}
		}()
		go gracefulShutdown(srv, httpDone)
	}

	engine := arbitrage.NewEngineFromConfig(cfg)
	orchestrator := scheduler.New(scheduler.Options{
		Discoverer: registry,
		Store:      store,
		Feeds: []*feed.Manager{
			feed.NewManager(binanceClient.Stream(), store, reg),
			feed.NewManager(okxClient.Stream(), store, reg),
		},
		FeeWorkers: []*fees.Worker{
			fees.NewWorker(binanceClient, store, symbols.KnownQuotes, reg),
			fees.NewWorker(okxClient, store, symbols.KnownQuotes, reg),
		},
		Watcher:   arbitrage.NewWatcher(engine, store, alert, logSinks, reg),
		Snapshots: snapshotSinks,
		Metrics:   reg,
		Location:  location,
	})

	Logger.Info("Arbitrage bot started")
	orchestrator.Run(ctx)

	if httpDone != nil {
		<-httpDone
	}
	Logger.Info("Graceful shutdown complete")
	return nil
}

func main() {
	defer Logger.Sync()
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		Logger.Error("Exiting", zap.Error(err))
		os.Exit(1)
	}
}
