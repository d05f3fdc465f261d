package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/domain"
)

const (
	redisKeyPrefix        = "arbitrage:"
	redisOpportunityKey   = redisKeyPrefix + "opportunities"
	redisReferenceKey     = redisKeyPrefix + "reference"
	redisMaxOpportunities = 1000
)

// RedisSink publishes snapshots as one key per symbol and keeps a capped
// list of recent opportunities.
type RedisSink struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// NewRedisSink returns a sink whose snapshot keys expire after ttl, so
// symbols dropped by a recalculation disappear on their own.
func NewRedisSink(client *redis.Client, ttl time.Duration) *RedisSink {
	return &RedisSink{client: client, ttl: ttl}
}

func SymbolKey(symbol string) string {
	return redisKeyPrefix + "symbol:" + symbol
}

// Save writes every symbol and the reference networks in one pipeline.
func (s *RedisSink) Save(ctx context.Context, snap domain.Snapshot) error {
	symbols := make([]string, 0, len(snap.Symbols))
	for sym := range snap.Symbols {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	values := make([]string, len(symbols))
	for i, sym := range symbols {
		data, err := json.Marshal(snap.Symbols[sym])
		if err != nil {
			return fmt.Errorf("encode %s: %w", sym, err)
		}
		values[i] = string(data)
	}
	reference, err := json.Marshal(snap.Reference)
	if err != nil {
		return err
	}

	_, err = s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, sym := range symbols {
			pipe.Set(ctx, SymbolKey(sym), values[i], s.ttl)
		}
		pipe.Set(ctx, redisReferenceKey, string(reference), s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis save snapshot: %w", err)
	}
	return nil
}

func (s *RedisSink) Append(ctx context.Context, sims []domain.TradeSimulation) error {
	if len(sims) == 0 {
		return nil
	}
	values := make([]interface{}, len(sims))
	for i, sim := range sims {
		data, err := json.Marshal(sim)
		if err != nil {
			return err
		}
		values[i] = string(data)
	}
	_, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, redisOpportunityKey, values...)
		pipe.LTrim(ctx, redisOpportunityKey, -redisMaxOpportunities, -1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis push opportunities: %w", err)
	}
	return nil
}

func (s *RedisSink) Close() error {
	return s.client.Close()
}
