package okx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/coder/websocket"
	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/domain"
	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/exchange"
	"go.uber.org/zap"
)

const (
	tickersChannel = "tickers"
	booksChannel   = "books5"
)

var pingFrame = []byte("ping")
var pongFrame = []byte("pong")

// Stream returns the public websocket protocol of the client.
func (ex *OkxExchange) Stream() exchange.StreamProtocol {
	return &okxStream{ex: ex}
}

type okxStream struct {
	ex *OkxExchange
}

func (s *okxStream) Exchange() domain.ExchangeEnum {
	return domain.OKX
}

func (s *okxStream) URL(batch []exchange.Topic) string {
	return s.ex.websocketBaseUrl
}

func (s *okxStream) SubscribeMessage(batch []exchange.Topic) ([]byte, error) {
	req := OkxWebsocketRequest{Op: "subscribe", Args: make([]OkxWebsocketArg, 0, len(batch))}
	for _, topic := range batch {
		channel := tickersChannel
		if topic.Channel == domain.DepthChannel {
			channel = booksChannel
		}
		req.Args = append(req.Args, OkxWebsocketArg{Channel: channel, InstId: s.ex.quotes.Normalize(topic.Symbol)})
	}
	return json.Marshal(req)
}

// Ping sends the literal text frame OKX expects as keep-alive.
func (s *okxStream) Ping(ctx context.Context, conn *websocket.Conn) error {
	return conn.Write(ctx, websocket.MessageText, pingFrame)
}

func (s *okxStream) Decode(msg []byte) ([]exchange.Event, error) {
	if bytes.Equal(bytes.TrimSpace(msg), pongFrame) {
		return []exchange.Event{{Kind: exchange.ControlEvent}}, nil
	}

	var frame OkxWebsocketMessage
	if err := json.Unmarshal(msg, &frame); err != nil {
		return nil, fmt.Errorf("decode okx frame: %w", err)
	}
	if frame.Event == "error" {
		Logger.Warn("OKX websocket error event", zap.String("code", frame.Code), zap.String("msg", frame.Msg))
	}
	if frame.Event != "" || frame.Op == "pong" || frame.Arg == nil || len(frame.Data) == 0 {
		return []exchange.Event{{Kind: exchange.ControlEvent}}, nil
	}

	switch frame.Arg.Channel {
	case tickersChannel:
		var tickers []OkxTicker
		if err := json.Unmarshal(frame.Data, &tickers); err != nil {
			return nil, fmt.Errorf("decode okx tickers: %w", err)
		}
		events := make([]exchange.Event, 0, len(tickers))
		for _, ticker := range tickers {
			price, err := strconv.ParseFloat(ticker.Last, 64)
			if err != nil {
				Logger.Warn("Dropping OKX ticker with bad price", zap.String("instId", ticker.InstId), zap.String("last", ticker.Last))
				continue
			}
			instId := ticker.InstId
			if instId == "" {
				instId = frame.Arg.InstId
			}
			events = append(events, exchange.Event{
				Kind:   exchange.TickerEvent,
				Symbol: s.ex.quotes.Denormalize(instId),
				Price:  price,
			})
		}
		return events, nil

	case booksChannel:
		var books []OkxBook
		if err := json.Unmarshal(frame.Data, &books); err != nil {
			return nil, fmt.Errorf("decode okx books: %w", err)
		}
		if len(books) == 0 {
			return nil, nil
		}
		bids, err := exchange.ParseLevels(books[0].Bids)
		if err != nil {
			return nil, fmt.Errorf("okx books %s bids: %w", frame.Arg.InstId, err)
		}
		asks, err := exchange.ParseLevels(books[0].Asks)
		if err != nil {
			return nil, fmt.Errorf("okx books %s asks: %w", frame.Arg.InstId, err)
		}
		return []exchange.Event{{
			Kind:   exchange.DepthEvent,
			Symbol: s.ex.quotes.Denormalize(frame.Arg.InstId),
			Bids:   bids,
			Asks:   asks,
		}}, nil
	}

	return nil, fmt.Errorf("unexpected okx channel %q", frame.Arg.Channel)
}
