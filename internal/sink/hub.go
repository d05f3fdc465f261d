package sink

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/domain"
)

const clientBuffer = 16

// Hub pushes every reported opportunity batch to connected websocket clients.
// Slow clients miss batches rather than blocking the detection loop.
type Hub struct {
	mu      sync.Mutex
	clients map[chan []byte]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[chan []byte]struct{})}
}

func (h *Hub) subscribe() chan []byte {
	ch := make(chan []byte, clientBuffer)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *Hub) unsubscribe(ch chan []byte) {
	h.mu.Lock()
	delete(h.clients, ch)
	h.mu.Unlock()
}

func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) Append(ctx context.Context, sims []domain.TradeSimulation) error {
	payload, err := json.Marshal(sims)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		select {
		case ch <- payload:
		default:
			Logger.Warn("Dropping opportunity batch for slow websocket client")
		}
	}
	return nil
}

// Handler serves one websocket client until it disconnects.
func (h *Hub) Handler(con *websocket.Conn) {
	ch := h.subscribe()
	defer h.unsubscribe(ch)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		for {
			if _, _, err := con.ReadMessage(); err != nil {
				cancel()
				Logger.Debug("Websocket receiver closing: " + err.Error())
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case payload := <-ch:
			if err := con.WriteMessage(websocket.TextMessage, payload); err != nil {
				Logger.Warn("Could not write to socket: " + err.Error())
				return
			}
		}
	}
}
