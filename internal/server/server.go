package server

import (
	"context"
	"sync/atomic"

	"github.com/gofiber/fiber/v2"

	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/database"
	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/domain"
	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/market"
	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/platform/logger"
	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/platform/metrics"
	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/sink"
)

const appName = "bsc-dissertation-crypto-arbitrage-bot"

var Logger = logger.Get()

// FiberServer exposes the market state, stored opportunities and metrics
// for inspection. It also acts as a snapshot sink holding the last
// published snapshot.
type FiberServer struct {
	*fiber.App

	db       database.Service
	reader   market.Reader
	metrics  *metrics.Registry
	hub      *sink.Hub
	snapshot atomic.Pointer[domain.Snapshot]
}

// New builds the server. db may be nil when no opportunity store is configured.
func New(reader market.Reader, db database.Service, m *metrics.Registry, hub *sink.Hub) *FiberServer {
	server := &FiberServer{
		App: fiber.New(fiber.Config{
			ServerHeader:          appName,
			AppName:               appName,
			DisableStartupMessage: true,
		}),

		db:      db,
		reader:  reader,
		metrics: m,
		hub:     hub,
	}

	return server
}

func (s *FiberServer) Save(ctx context.Context, snap domain.Snapshot) error {
	s.snapshot.Store(&snap)
	return nil
}
