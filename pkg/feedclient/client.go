package feedclient

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/radieske/live-odds-platform/pkg/contracts/feed"
)

// Handler recebe cada frame odds:update decodificado
type Handler func(feed.Frame)

// Client mantém uma conexão WebSocket com o market-service para um conjunto
// de mercados de um tipo de evento. Ao conectar envia o frame de subscribe;
// frames com type diferente de odds:update são descartados. No encerramento,
// se a conexão chegou a abrir, envia exatamente um unsubscribe antes de fechar.
type Client struct {
	url         string
	eventTypeID string
	marketIDs   []string // normalizados (dedup + sort)
	handler     Handler
	log         *zap.Logger

	reconnect bool
	backoff   time.Duration
	dialer    *websocket.Dialer

	mu     sync.Mutex
	conn   *websocket.Conn
	opened bool

	closeOnce sync.Once
	closed    chan struct{}
}

// Option ajusta o comportamento do cliente
type Option func(*Client)

// WithoutReconnect desativa a reconexão automática (útil em testes)
func WithoutReconnect() Option {
	return func(c *Client) { c.reconnect = false }
}

// WithBackoff define o intervalo entre tentativas de reconexão
func WithBackoff(d time.Duration) Option {
	return func(c *Client) { c.backoff = d }
}

// WithDialer substitui o dialer padrão
func WithDialer(d *websocket.Dialer) Option {
	return func(c *Client) { c.dialer = d }
}

// New cria um cliente para a assinatura (eventTypeID, marketIDs).
// A lista de ids é normalizada; o chamador deve criar um cliente por
// SubscriptionKey distinta.
func New(url, eventTypeID string, marketIDs []string, h Handler, log *zap.Logger, opts ...Option) *Client {
	c := &Client{
		url:         url,
		eventTypeID: eventTypeID,
		marketIDs:   NormalizeMarketIDs(marketIDs),
		handler:     h,
		log:         log,
		reconnect:   true,
		backoff:     3 * time.Second,
		dialer:      websocket.DefaultDialer,
		closed:      make(chan struct{}),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Key retorna a identidade canônica da assinatura deste cliente
func (c *Client) Key() string {
	return SubscriptionKey(c.eventTypeID, c.marketIDs)
}

// Start inicia o loop de conexão e escuta. Bloqueia até o contexto ser
// cancelado, Close ser chamado, ou (sem reconexão) a conexão cair.
func (c *Client) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.closed:
			return
		default:
			err := c.connectAndListen(ctx)
			if err != nil {
				c.log.Warn("feed connection closed", zap.String("key", c.Key()), zap.Error(err))
			}
			if !c.reconnect {
				return
			}
			select {
			case <-ctx.Done():
				return
			case <-c.closed:
				return
			case <-time.After(c.backoff):
			}
		}
	}
}

// connectAndListen estabelece a conexão, envia o subscribe e processa frames
func (c *Client) connectAndListen(ctx context.Context) error {
	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.opened = true
	sub := feed.ControlFrame{
		Action:      feed.ActionSubscribe,
		EventTypeID: c.eventTypeID,
		MarketIDs:   c.marketIDs,
	}
	err = conn.WriteJSON(sub)
	c.mu.Unlock()
	if err != nil {
		conn.Close()
		return err
	}

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		var frame feed.Frame
		if err := json.Unmarshal(message, &frame); err != nil {
			c.log.Warn("invalid frame", zap.Error(err))
			continue
		}
		if frame.Type != feed.FrameOddsUpdate {
			// score:update e afins ficam de fora deste cliente
			continue
		}
		c.handler(frame)
	}
}

// Close encerra a assinatura: se a conexão chegou a abrir, envia um único
// frame de unsubscribe com o mesmo conjunto de ids e então fecha o socket.
// Se nunca abriu, apenas sinaliza o encerramento.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)

		c.mu.Lock()
		defer c.mu.Unlock()
		if c.conn == nil || !c.opened {
			return
		}
		unsub := feed.ControlFrame{
			Action:      feed.ActionUnsubscribe,
			EventTypeID: c.eventTypeID,
			MarketIDs:   c.marketIDs,
		}
		if werr := c.conn.WriteJSON(unsub); werr != nil {
			err = werr
		}
		if cerr := c.conn.Close(); cerr != nil && err == nil {
			err = cerr
		}
	})
	return err
}
