package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/domain"
	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/platform/logger"
	_ "github.com/mattn/go-sqlite3"
)

var Logger = logger.Get()

// Service represents the opportunity store.
type Service interface {
	// Health returns a map of health status information.
	Health() map[string]string

	// Append inserts every simulation as one row of the opportunities table.
	Append(ctx context.Context, sims []domain.TradeSimulation) error

	// Recent returns up to limit opportunities, most recently stored first.
	Recent(ctx context.Context, limit int) ([]Opportunity, error)

	// Close terminates the database connection.
	Close() error
}

// Opportunity is the summary of a stored simulation.
type Opportunity struct {
	ID                  string    `json:"id"`
	Timestamp           time.Time `json:"timestamp"`
	Symbol              string    `json:"symbol"`
	BuyExchange         string    `json:"buyExchange"`
	SellExchange        string    `json:"sellExchange"`
	Network             string    `json:"network"`
	AdjustedBudget      float64   `json:"adjustedBudget"`
	NetProfit           float64   `json:"netProfit"`
	NetProfitPercentage float64   `json:"netProfitPercentage"`
}

var textColumns = map[string]bool{
	"id":            true,
	"timestamp":     true,
	"symbol":        true,
	"buy_exchange":  true,
	"sell_exchange": true,
	"network":       true,
}

type service struct {
	db     *sql.DB
	path   string
	insert string
}

func New(path string) (Service, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// sqlite serializes writers anyway
	db.SetMaxOpenConns(1)

	s := &service{db: db, path: path}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	Logger.Info("Connected to database: " + path)
	return s, nil
}

func (s *service) migrate() error {
	names := domain.FieldNames()
	columns := make([]string, len(names))
	for i, name := range names {
		kind := "REAL"
		if textColumns[name] {
			kind = "TEXT"
		}
		columns[i] = name + " " + kind
	}
	columns[0] += " PRIMARY KEY"

	ddl := "CREATE TABLE IF NOT EXISTS opportunities (" + strings.Join(columns, ", ") + ")"
	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("create opportunities table: %w", err)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(names)), ", ")
	s.insert = "INSERT OR REPLACE INTO opportunities (" + strings.Join(names, ", ") + ") VALUES (" + placeholders + ")"
	return nil
}

func (s *service) Append(ctx context.Context, sims []domain.TradeSimulation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, s.insert)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, sim := range sims {
		fields := sim.Fields()
		args := make([]any, len(fields))
		for i, f := range fields {
			args[i] = f.Value
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("insert opportunity %s: %w", sim.ID, err)
		}
	}
	return tx.Commit()
}

func (s *service) Recent(ctx context.Context, limit int) ([]Opportunity, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, timestamp, symbol, buy_exchange, sell_exchange, network,
		adjusted_budget, net_profit, net_profit_percentage
		FROM opportunities ORDER BY rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Opportunity{}
	for rows.Next() {
		var o Opportunity
		var ts string
		if err := rows.Scan(&o.ID, &ts, &o.Symbol, &o.BuyExchange, &o.SellExchange, &o.Network,
			&o.AdjustedBudget, &o.NetProfit, &o.NetProfitPercentage); err != nil {
			return nil, err
		}
		if o.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, fmt.Errorf("opportunity %s timestamp: %w", o.ID, err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// Health checks the health of the database connection by pinging the database.
func (s *service) Health() map[string]string {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	stats := make(map[string]string)

	err := s.db.PingContext(ctx)
	if err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db down: %v", err)
		Logger.Error("Database health check failed: " + err.Error())
		return stats
	}

	stats["status"] = "up"
	stats["message"] = "It's healthy"

	dbStats := s.db.Stats()
	stats["open_connections"] = strconv.Itoa(dbStats.OpenConnections)
	stats["in_use"] = strconv.Itoa(dbStats.InUse)
	stats["idle"] = strconv.Itoa(dbStats.Idle)
	stats["wait_count"] = strconv.FormatInt(dbStats.WaitCount, 10)

	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM opportunities").Scan(&count); err == nil {
		stats["opportunities"] = strconv.Itoa(count)
	}
	return stats
}

func (s *service) Close() error {
	Logger.Info("Disconnected from database: " + s.path)
	return s.db.Close()
}
