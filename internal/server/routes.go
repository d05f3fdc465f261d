package server

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/domain"
)

func (s *FiberServer) RegisterFiberRoutes() {
	s.App.Get("/health", s.healthHandler)
	s.App.Get("/snapshot", s.snapshotHandler)
	s.App.Get("/symbols", s.symbolsHandler)
	s.App.Get("/symbols/:symbol", s.symbolHandler)
	s.App.Get("/networks", s.networksHandler)
	s.App.Get("/opportunities", s.opportunitiesHandler)
	s.App.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{})))

	s.App.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	s.App.Get("/ws/opportunities", websocket.New(s.hub.Handler))
}

func (s *FiberServer) healthHandler(c *fiber.Ctx) error {
	resp := fiber.Map{
		"status":  "up",
		"symbols": len(s.reader.Symbols()),
		"clients": s.hub.Clients(),
	}
	if s.db != nil {
		resp["database"] = s.db.Health()
	}
	return c.JSON(resp)
}

// snapshotHandler returns the last snapshot published by the scheduler.
func (s *FiberServer) snapshotHandler(c *fiber.Ctx) error {
	snap := s.snapshot.Load()
	if snap == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "no snapshot published yet"})
	}
	return c.JSON(snap)
}

func (s *FiberServer) symbolsHandler(c *fiber.Ctx) error {
	return c.JSON(s.reader.Symbols())
}

func (s *FiberServer) symbolHandler(c *fiber.Ctx) error {
	symbol := c.Params("symbol")
	pair, ok := s.reader.Get(symbol)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "unknown symbol " + symbol})
	}
	quotes := make(map[domain.ExchangeEnum]*domain.ExchangeQuote, domain.ExchangeCount)
	for _, ex := range domain.Exchanges() {
		quotes[ex] = pair.Get(ex)
	}
	return c.JSON(quotes)
}

func (s *FiberServer) networksHandler(c *fiber.Ctx) error {
	reference := make(map[domain.ExchangeEnum][]domain.NetworkFee, domain.ExchangeCount)
	for _, ex := range domain.Exchanges() {
		reference[ex] = s.reader.ReferenceNetworks(ex)
	}
	return c.JSON(reference)
}

func (s *FiberServer) opportunitiesHandler(c *fiber.Ctx) error {
	if s.db == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "opportunity store disabled"})
	}
	limit := c.QueryInt("limit", 50)
	if limit <= 0 || limit > 1000 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "limit must be between 1 and 1000"})
	}
	recent, err := s.db.Recent(c.UserContext(), limit)
	if err != nil {
		Logger.Error("Failed to read opportunities: " + err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(recent)
}
