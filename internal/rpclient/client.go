package rpclient

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const (
	DefaultPath              = "/websocket"
	DefaultConnectTimeout    = 10 * time.Second
	DefaultRequestTimeout    = 1000 * time.Millisecond
	DefaultPollInterval      = 5 * time.Millisecond
	DefaultWriteTimeout      = 5 * time.Second
	DefaultReconnectAttempts = 100
	DefaultReadLimit         = 64 << 20
)

// Config описывает параметры клиента. Нулевые значения заменяются значениями по умолчанию.
type Config struct {
	URL string

	ConnectTimeout time.Duration // бюджет ожидания подключения
	RequestTimeout time.Duration // ожидание ответа, считая от отправки
	PollInterval   time.Duration // шаг опроса статуса в WaitConnected
	WriteTimeout   time.Duration
	ReadLimit      int64

	// ReconnectAttempts < 0 отключает автопереподключение.
	ReconnectAttempts int
	// ReconnectDelayMin == 0: попытки идут без пауз; иначе пауза удваивается до ReconnectDelayMax.
	ReconnectDelayMin time.Duration
	ReconnectDelayMax time.Duration

	// SendRate ограничивает отправку (кадров в секунду), 0 снимает ограничение.
	SendRate  float64
	SendBurst int

	// HeartbeatInterval > 0 включает проверку соединения запросом HeartbeatCommand,
	// если входящего трафика не было дольше HeartbeatIdle.
	HeartbeatInterval time.Duration
	HeartbeatIdle     time.Duration
	HeartbeatCommand  string
}

func (cfg *Config) setDefaults() {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = DefaultConnectTimeout
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.ReadLimit <= 0 {
		cfg.ReadLimit = DefaultReadLimit
	}
	if cfg.ReconnectAttempts == 0 {
		cfg.ReconnectAttempts = DefaultReconnectAttempts
	}
	if cfg.ReconnectDelayMax < cfg.ReconnectDelayMin {
		cfg.ReconnectDelayMax = cfg.ReconnectDelayMin
	}
	if cfg.SendRate > 0 && cfg.SendBurst <= 0 {
		cfg.SendBurst = 1
	}
	if cfg.HeartbeatInterval > 0 {
		if cfg.HeartbeatIdle <= 0 {
			cfg.HeartbeatIdle = cfg.HeartbeatInterval
		}
		if cfg.HeartbeatCommand == "" {
			cfg.HeartbeatCommand = "PING"
		}
	}
}

// Option настраивает Client.
type Option func(*Client)

func WithLogger(log *slog.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

func WithCodec(codec Codec) Option {
	return func(c *Client) {
		if codec != nil {
			c.codec = codec
		}
	}
}

func WithDialer(d *websocket.Dialer) Option {
	return func(c *Client) {
		if d != nil {
			c.dialer = d
		}
	}
}

type result struct {
	frame Frame
	err   error
}

// Client представляет один экземпляр RPC-рантайма. Счётчик requestId, таблица ожидающих
// ответов и подписчики живут столько же, сколько Client; сокет пересоздаётся
// при каждом переподключении.
type Client struct {
	cfg     Config
	codec   Codec
	dialer  *websocket.Dialer
	log     *slog.Logger
	limiter *rate.Limiter

	ctx    context.Context
	cancel context.CancelFunc
	closed atomic.Bool
	wg     sync.WaitGroup

	connMu  sync.Mutex
	conn    *websocket.Conn
	dialMu  sync.Mutex // одна попытка подключения за раз
	writeMu sync.Mutex // сериализует запись в websocket

	status   atomic.Int32
	statusMu sync.Mutex // смена статуса + уведомление

	seq       atomic.Uint64
	pendingMu sync.Mutex
	pending   map[RequestID]chan result

	listeners *registry

	startOnce    sync.Once
	kick         chan struct{} // сигнал супервизору
	lastActivity atomic.Int64  // unix nanos последнего входящего кадра
}

func New(cfg Config, opts ...Option) *Client {
	cfg.setDefaults()
	c := &Client{
		cfg:     cfg,
		codec:   JSONCodec{},
		dialer:  websocket.DefaultDialer,
		log:     slog.Default(),
		pending: make(map[RequestID]chan result),
		kick:    make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With("component", "rpclient")
	c.listeners = newRegistry(c.log)

	limit := rate.Inf
	if cfg.SendRate > 0 {
		limit = rate.Limit(cfg.SendRate)
	}
	c.limiter = rate.NewLimiter(limit, cfg.SendBurst)
	c.ctx, c.cancel = context.WithCancel(context.Background())
	return c
}

func (c *Client) URL() string { return c.cfg.URL }

func (c *Client) Status() Status { return Status(c.status.Load()) }

func (c *Client) IsConnected() bool { return c.Status() == Connected }

// Pending возвращает число запросов, ожидающих ответа.
func (c *Client) Pending() int {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()
	return len(c.pending)
}

// setStatus уведомляет подписчиков только при реальной смене значения.
func (c *Client) setStatus(s Status) {
	c.statusMu.Lock()
	defer c.statusMu.Unlock()
	if Status(c.status.Swap(int32(s))) == s {
		return
	}
	c.log.Debug("status changed", "status", s.String())
	c.listeners.notifyStatus(s)
}

// Close закрывает сокет, останавливает супервизор и heartbeat,
// а ожидающие запросы завершает с ErrClosed. Повторный вызов ничего не делает.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.cancel()

	c.connMu.Lock()
	conn := c.conn
	c.conn = nil
	c.connMu.Unlock()
	if conn != nil {
		c.writeMu.Lock()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "closing"),
			time.Now().Add(500*time.Millisecond))
		c.writeMu.Unlock()
		_ = conn.Close()
	}

	c.failPending(ErrClosed)
	c.wg.Wait()
	c.setStatus(NotConnected)
	c.log.Info("closed")
	return nil
}

func (c *Client) touchActivity() {
	c.lastActivity.Store(time.Now().UnixNano())
}

func (c *Client) sinceLastActivity() time.Duration {
	n := c.lastActivity.Load()
	if n == 0 {
		return time.Hour
	}
	return time.Since(time.Unix(0, n))
}
