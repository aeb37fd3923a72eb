package ws

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/radieske/live-odds-platform/pkg/contracts/events"
	"github.com/radieske/live-odds-platform/pkg/contracts/feed"
)

// Hub gerencia conexões WebSocket e assinaturas por mercado.
// Um cliente assina um conjunto de marketIds de um tipo de evento via frame
// de controle; cada broadcast entrega a cada conexão apenas os mercados que
// ela assinou.
type Hub struct {
	upgrader websocket.Upgrader
	log      *zap.Logger
	mu       sync.RWMutex
	// marketId -> conjunto de conexões inscritas
	subs map[string]map[*client]struct{}
}

// client embrulha a conexão com um mutex de escrita: broadcasts e pongs
// concorrem pela mesma conexão
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

// NewHub cria uma instância de Hub com política customizada de origem (CORS)
func NewHub(log *zap.Logger, allowOrigin func(r *http.Request) bool) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{CheckOrigin: allowOrigin},
		log:      log,
		subs:     make(map[string]map[*client]struct{}),
	}
}

// HandleWS gerencia o ciclo de vida de uma conexão WebSocket.
// Frames de controle: subscribe/unsubscribe com eventTypeId + marketIds,
// além de ping. Ações desconhecidas são ignoradas.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := &client{conn: conn}
	defer conn.Close()

	for {
		var msg feed.ControlFrame
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		switch msg.Action {
		case feed.ActionSubscribe:
			h.mu.Lock()
			for _, id := range msg.MarketIDs {
				if id == "" {
					continue
				}
				if _, ok := h.subs[id]; !ok {
					h.subs[id] = make(map[*client]struct{})
				}
				h.subs[id][c] = struct{}{}
			}
			h.mu.Unlock()
		case feed.ActionUnsubscribe:
			h.mu.Lock()
			for _, id := range msg.MarketIDs {
				if set, ok := h.subs[id]; ok {
					delete(set, c)
					if len(set) == 0 {
						delete(h.subs, id)
					}
				}
			}
			h.mu.Unlock()
		case "ping":
			_ = c.writeJSON(map[string]string{"type": "pong"})
		}
	}
	// Remove a conexão de todas as assinaturas ao desconectar
	h.mu.Lock()
	for id, set := range h.subs {
		delete(set, c)
		if len(set) == 0 {
			delete(h.subs, id)
		}
	}
	h.mu.Unlock()
}

// Broadcast envia um snapshot de mercado para todos os clientes inscritos
// naquele marketId, no envelope odds:update
func (h *Hub) Broadcast(snap events.MarketSnapshot) {
	h.mu.RLock()
	conns := make([]*client, 0, len(h.subs[snap.MarketID]))
	for c := range h.subs[snap.MarketID] {
		conns = append(conns, c)
	}
	h.mu.RUnlock()
	if len(conns) == 0 {
		return
	}

	frame := feed.Frame{
		Type:        feed.FrameOddsUpdate,
		EventTypeID: snap.EventTypeID,
		MarketIDs:   []string{snap.MarketID},
		Markets:     []events.MarketSnapshot{snap},
	}
	for _, c := range conns {
		if err := c.writeJSON(frame); err != nil {
			h.log.Debug("ws write failed", zap.Error(err))
		}
	}
}

// SubscriberCount retorna quantas conexões assinam um mercado
func (h *Hub) SubscriberCount(marketID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[marketID])
}
