package exchange

import (
	"context"

	"github.com/coder/websocket"
	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/domain"
)

// Exchanger is the REST surface of one exchange.
type Exchanger interface {
	GetName() string
	Exchange() domain.ExchangeEnum
	ListSpotSymbols(ctx context.Context) ([]string, error)
	// GetNetworkFees returns the withdrawal networks of every coin, keyed by
	// coin. Network names are already normalized.
	GetNetworkFees(ctx context.Context) (map[string][]domain.NetworkFee, error)
}

// Topic is one stream subscription: a channel for a denormalized symbol.
type Topic struct {
	Symbol  string
	Channel domain.ChannelEnum
}

// Topics returns the ticker and depth topics of every symbol.
func Topics(symbols []string) []Topic {
	topics := make([]Topic, 0, 2*len(symbols))
	for _, sym := range symbols {
		topics = append(topics,
			Topic{Symbol: sym, Channel: domain.TickerChannel},
			Topic{Symbol: sym, Channel: domain.DepthChannel},
		)
	}
	return topics
}

type EventKind int

const (
	TickerEvent EventKind = iota
	DepthEvent
	ControlEvent
)

func (e EventKind) String() string {
	return []string{"ticker", "depth", "control"}[e]
}

// Event is one decoded stream message.
type Event struct {
	Kind   EventKind
	Symbol string
	Price  float64
	Bids   []domain.PriceLevel
	Asks   []domain.PriceLevel
}

// StreamProtocol encodes the streaming contract of one exchange.
type StreamProtocol interface {
	Exchange() domain.ExchangeEnum
	// URL returns the endpoint a session for the batch dials.
	URL(batch []Topic) string
	// SubscribeMessage returns the first message to send after dialing, or
	// nil when the subscription is carried by the URL.
	SubscribeMessage(batch []Topic) ([]byte, error)
	// Ping sends one keep-alive.
	Ping(ctx context.Context, conn *websocket.Conn) error
	// Decode turns a received frame into events. Individual malformed
	// entries are dropped; an error means the whole frame was unusable.
	Decode(msg []byte) ([]Event, error)
}
