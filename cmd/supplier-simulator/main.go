package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/live-odds-platform/internal/shared/config"
	"github.com/radieske/live-odds-platform/internal/shared/logger"
	"github.com/radieske/live-odds-platform/internal/shared/metrics"
	"github.com/radieske/live-odds-platform/pkg/contracts/events"
	"github.com/radieske/live-odds-platform/pkg/contracts/feed"

	sdto "github.com/radieske/live-odds-platform/internal/supplier-simulator/dto"
)

var (
	upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     func(r *http.Request) bool { return true },
	}

	// Catálogo fixo de mercados simulados para geração de odds
	marketCatalog = []events.MarketSnapshot{
		{MarketID: "MKT_1001", EventID: "MATCH_001", EventTypeID: "4", Name: "Match Odds", Status: events.MarketOpen, InPlay: true,
			Runners: []events.Runner{
				{SelectionID: "SEL_1", Name: "India", Status: "ACTIVE"},
				{SelectionID: "SEL_2", Name: "Australia", Status: "ACTIVE"},
			}},
		{MarketID: "MKT_1002", EventID: "MATCH_001", EventTypeID: "4", Name: "Completed Match", Status: events.MarketOpen, InPlay: true,
			Runners: []events.Runner{
				{SelectionID: "SEL_3", Name: "Yes", Status: "ACTIVE"},
				{SelectionID: "SEL_4", Name: "No", Status: "ACTIVE"},
			}},
		{MarketID: "MKT_2001", EventID: "MATCH_002", EventTypeID: "1", Name: "Match Odds", Status: events.MarketOpen, InPlay: false,
			Runners: []events.Runner{
				{SelectionID: "SEL_5", Name: "Flamengo", Status: "ACTIVE"},
				{SelectionID: "SEL_6", Name: "The Draw", Status: "ACTIVE"},
				{SelectionID: "SEL_7", Name: "Palmeiras", Status: "ACTIVE"},
			}},
		{MarketID: "MKT_2002", EventID: "MATCH_003", EventTypeID: "1", Name: "Match Odds", Status: events.MarketOpen, InPlay: true,
			Runners: []events.Runner{
				{SelectionID: "SEL_8", Name: "Grêmio", Status: "ACTIVE"},
				{SelectionID: "SEL_9", Name: "The Draw", Status: "ACTIVE"},
				{SelectionID: "SEL_10", Name: "Internacional", Status: "ACTIVE"},
			}},
	}

	// Métricas Prometheus para monitoramento de conexões e mensagens
	wsConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "supplier_ws_connections",
		Help: "Clientes WebSocket conectados",
	})
	wsMessagesSent = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "supplier_ws_messages_sent_total",
		Help: "Total de mensagens WS enviadas",
	})
)

// Representa uma conexão de cliente WebSocket
type clientConn struct {
	id   string
	conn *websocket.Conn
}

// hub gerencia os clientes conectados e faz broadcast dos envelopes de odds
type hub struct {
	mu      sync.RWMutex
	clients map[string]*clientConn
	log     *zap.Logger
}

func newHub(log *zap.Logger) *hub {
	return &hub{
		clients: make(map[string]*clientConn),
		log:     log,
	}
}

// Adiciona um novo cliente ao hub e incrementa a métrica de conexões
func (h *hub) add(c *clientConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.id] = c
	wsConnections.Inc()
	h.log.Info("ws client connected", zap.String("client_id", c.id))
}

// Remove um cliente do hub e decrementa a métrica de conexões
func (h *hub) remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[id]; ok {
		delete(h.clients, id)
		wsConnections.Dec()
		h.log.Info("ws client disconnected", zap.String("client_id", id))
	}
}

// Envia uma mensagem para todos os clientes conectados
func (h *hub) broadcast(v any) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	msg, _ := json.Marshal(v)
	for id, c := range h.clients {
		c.conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.log.Warn("ws write failed", zap.String("client_id", id), zap.Error(err))
			_ = c.conn.Close()
		} else {
			wsMessagesSent.Inc()
		}
	}
}

type server struct {
	log *zap.Logger
}

func newServer(log *zap.Logger) *server { return &server{log: log} }

// Handler para confirmar aposta (mock)
func (s *server) confirmHandler(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req sdto.ConfirmReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	ok := rand.Intn(100) < 80 // 80% sucesso

	resp := sdto.ConfirmResp{
		Status:      sdto.StatusConfirmed,
		ProviderRef: "SUP-" + safePrefix(req.BetID, 8),
	}
	if !ok {
		resp.Status = sdto.StatusRejected
		resp.Reason = "supplier_reject_mock"
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// evita panic se o BetID for menor que 8 caracteres
func safePrefix(s string, n int) string {
	if len(s) < n {
		return s
	}
	return s[:n]
}

// gera número aleatório entre min e max
func rnd(min, max float64) float64 {
	return (rand.Float64() * (max - min)) + min
}

// ladder gera um ladder de 3 níveis a partir da melhor odd
func ladder(best float64, step float64) []events.PriceSize {
	out := make([]events.PriceSize, 0, 3)
	for i := 0; i < 3; i++ {
		out = append(out, events.PriceSize{
			Price: best + float64(i)*step,
			Size:  rnd(50, 5000),
		})
	}
	return out
}

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	prometheus.MustRegister(wsConnections, wsMessagesSent)

	h := newHub(log)
	s := newServer(log)

	// Gera e envia snapshots simulados para todos os clientes a cada 3 segundos
	go func() {
		ticker := time.NewTicker(3 * time.Second)
		defer ticker.Stop()
		var version int64 = 1
		for range ticker.C {
			// agrupa por eventTypeId para montar o envelope por tipo de evento
			byType := make(map[string][]events.MarketSnapshot)
			for i := range marketCatalog {
				m := marketCatalog[i]
				for j := range m.Runners {
					best := rnd(1.40, 4.50)
					m.Runners[j].Back = ladder(best, -0.02)
					m.Runners[j].Lay = ladder(best+0.02, 0.02)
				}
				m.Version = version
				m.UpdatedAt = time.Now().UTC()
				m.Source = cfg.ServiceName
				byType[m.EventTypeID] = append(byType[m.EventTypeID], m)
			}
			version++

			for et, markets := range byType {
				ids := make([]string, 0, len(markets))
				for i := range markets {
					ids = append(ids, markets[i].MarketID)
				}
				h.broadcast(feed.Frame{
					Type:        feed.FrameOddsUpdate,
					EventTypeID: et,
					MarketIDs:   ids,
					Markets:     markets,
				})
			}
		}
	}()

	// ==== MUX PÚBLICO (HTTP principal): /ws e /supplier/confirm
	appMux := http.NewServeMux()

	appMux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn("ws upgrade failed", zap.Error(err))
			return
		}
		id := fmt.Sprintf("%d", time.Now().UnixNano())
		c := &clientConn{id: id, conn: conn}
		h.add(c)

		// Goroutine para manter a conexão viva e remover cliente ao desconectar
		go func() {
			defer func() {
				h.remove(id)
				_ = conn.Close()
			}()
			_ = conn.SetReadDeadline(time.Time{})
			for {
				// Lê e descarta mensagens do cliente para manter o socket limpo
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
	})

	appMux.HandleFunc("/supplier/confirm", s.confirmHandler)

	// Métricas e health em porta separada
	metrics.Start(log, cfg.MetricsPort, nil)

	// Servidor público (WS + supplier confirm)
	publicAddr := fmt.Sprintf(":%s", cfg.HTTPPort)
	log.Info("supplier simulator (public) running",
		zap.String("addr", publicAddr),
		zap.String("paths", "/ws,/supplier/confirm"),
	)
	if err := http.ListenAndServe(publicAddr, appMux); err != nil {
		log.Fatal("public server error", zap.Error(err))
	}
}
