package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/coder/websocket"
	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/domain"
	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/exchange"
)

// Stream returns the combined stream protocol of the client.
func (ex *BinanceExchange) Stream() exchange.StreamProtocol {
	return &binanceStream{baseUrl: ex.websocketBaseUrl}
}

type binanceStream struct {
	baseUrl string
}

func (s *binanceStream) Exchange() domain.ExchangeEnum {
	return domain.Binance
}

func (s *binanceStream) URL(batch []exchange.Topic) string {
	return s.baseUrl + "/stream?" + streamsQuery(batch)
}

// SubscribeMessage returns nil; the combined endpoint subscribes through the URL.
func (s *binanceStream) SubscribeMessage(batch []exchange.Topic) ([]byte, error) {
	return nil, nil
}

func (s *binanceStream) Ping(ctx context.Context, conn *websocket.Conn) error {
	return conn.Ping(ctx)
}

func (s *binanceStream) Decode(msg []byte) ([]exchange.Event, error) {
	var envelope BinanceStreamMessage
	if err := json.Unmarshal(msg, &envelope); err != nil {
		return nil, fmt.Errorf("decode binance frame: %w", err)
	}
	if envelope.Stream == "" {
		return []exchange.Event{{Kind: exchange.ControlEvent}}, nil
	}

	prefix, channel, _ := strings.Cut(envelope.Stream, "@")
	switch {
	case channel == "ticker":
		var ticker BinanceTicker
		if err := json.Unmarshal(envelope.Data, &ticker); err != nil {
			return nil, fmt.Errorf("decode binance ticker: %w", err)
		}
		price, err := strconv.ParseFloat(ticker.LastPrice, 64)
		if err != nil {
			return nil, fmt.Errorf("binance ticker %s price: %w", ticker.Symbol, err)
		}
		return []exchange.Event{{Kind: exchange.TickerEvent, Symbol: ticker.Symbol, Price: price}}, nil

	case strings.HasPrefix(channel, "depth"):
		var depth BinanceDepth
		if err := json.Unmarshal(envelope.Data, &depth); err != nil {
			return nil, fmt.Errorf("decode binance depth: %w", err)
		}
		bids, err := exchange.ParseLevels(depth.Bids)
		if err != nil {
			return nil, fmt.Errorf("binance depth %s bids: %w", envelope.Stream, err)
		}
		asks, err := exchange.ParseLevels(depth.Asks)
		if err != nil {
			return nil, fmt.Errorf("binance depth %s asks: %w", envelope.Stream, err)
		}
		return []exchange.Event{{
			Kind:   exchange.DepthEvent,
			Symbol: strings.ToUpper(prefix),
			Bids:   bids,
			Asks:   asks,
		}}, nil
	}

	return nil, fmt.Errorf("unexpected binance stream %q", envelope.Stream)
}
