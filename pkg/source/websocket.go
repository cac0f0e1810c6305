package source

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

const (
	DefaultReadTimeout  = 5 * time.Minute
	defaultReconnectMin = time.Second
	defaultReconnectMax = 30 * time.Second
)

// WebSocketOptions configures a WebSocket source.
type WebSocketOptions struct {
	URL string
	// Subscribe, when set, is sent as a text frame after every connect.
	Subscribe   string
	ReadTimeout time.Duration
}

// WebSocket tails a websocket endpoint, reconnecting with exponential
// backoff until closed. Every text or binary frame is one record.
type WebSocket struct {
	opts WebSocketOptions

	conn *websocket.Conn
	mu   sync.Mutex

	done      chan struct{}
	closeOnce sync.Once

	read  chan []byte
	errCh chan error

	started bool

	reconnectMin time.Duration
	reconnectMax time.Duration
}

// NewWebSocket returns an unconnected source.
func NewWebSocket(opts WebSocketOptions) *WebSocket {
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = DefaultReadTimeout
	}
	return &WebSocket{
		opts:         opts,
		done:         make(chan struct{}),
		read:         make(chan []byte, 100),
		errCh:        make(chan error, 10),
		reconnectMin: defaultReconnectMin,
		reconnectMax: defaultReconnectMax,
	}
}

// Connect dials the endpoint and starts reading. The first dial must
// succeed; later disconnects are retried.
func (c *WebSocket) Connect() error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return nil
	}
	c.started = true
	c.mu.Unlock()

	conn, err := c.dial()
	if err != nil {
		c.mu.Lock()
		c.started = false
		c.mu.Unlock()
		return err
	}
	c.setConn(conn)

	go c.run()
	return nil
}

func (c *WebSocket) dial() (*websocket.Conn, error) {
	conn, _, err := websocket.DefaultDialer.Dial(c.opts.URL, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "dialing '%s'", c.opts.URL)
	}

	_ = conn.SetReadDeadline(time.Now().Add(c.opts.ReadTimeout))
	conn.SetPingHandler(func(appData string) error {
		_ = conn.SetReadDeadline(time.Now().Add(c.opts.ReadTimeout))
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(10*time.Second))
	})

	if c.opts.Subscribe != "" {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(c.opts.Subscribe)); err != nil {
			_ = conn.Close()
			return nil, errors.Wrap(err, "sending subscribe frame")
		}
	}

	return conn, nil
}

func (c *WebSocket) setConn(conn *websocket.Conn) {
	c.mu.Lock()
	old := c.conn
	c.conn = conn
	c.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}
}

func (c *WebSocket) getConn() *websocket.Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn
}

// IsConnected reports whether the source currently holds a connection.
func (c *WebSocket) IsConnected() bool {
	return c.getConn() != nil
}

func (c *WebSocket) clearConnIfSame(conn *websocket.Conn) {
	c.mu.Lock()
	if c.conn == conn {
		c.conn = nil
	}
	c.mu.Unlock()
}

func (c *WebSocket) run() {
	defer func() {
		c.mu.Lock()
		conn := c.conn
		c.conn = nil
		c.mu.Unlock()
		if conn != nil {
			_ = conn.Close()
		}
		close(c.read)
	}()

	backoff := c.reconnectMin

	for {
		select {
		case <-c.done:
			return
		default:
		}

		conn := c.getConn()
		if conn == nil {
			newConn, err := c.dial()
			if err != nil {
				sleep := backoff
				if sleep > c.reconnectMax {
					sleep = c.reconnectMax
				}
				grip.Warning(message.WrapError(err, message.Fields{
					"message": "websocket reconnect failed",
					"retry":   sleep.String(),
				}))
				select {
				case <-time.After(sleep):
				case <-c.done:
					return
				}
				if backoff < c.reconnectMax {
					backoff *= 2
					if backoff > c.reconnectMax {
						backoff = c.reconnectMax
					}
				}
				continue
			}

			c.setConn(newConn)
			backoff = c.reconnectMin
			conn = newConn
			grip.Info(message.Fields{"message": "websocket reconnected", "url": c.opts.URL})
		}

		_, msg, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
				return
			default:
			}

			grip.Warning(message.WrapError(err, message.Fields{
				"message": "websocket read failed, reconnecting",
				"url":     c.opts.URL,
			}))
			c.clearConnIfSame(conn)
			_ = conn.Close()
			continue
		}

		_ = conn.SetReadDeadline(time.Now().Add(c.opts.ReadTimeout))
		select {
		case c.read <- msg:
		case <-c.done:
			return
		}
	}
}

func (c *WebSocket) Messages() <-chan []byte { return c.read }

func (c *WebSocket) Errors() <-chan error { return c.errCh }

// Close stops the reconnect loop and closes the connection.
func (c *WebSocket) Close() error {
	var conn *websocket.Conn
	c.closeOnce.Do(func() {
		close(c.done)
		c.mu.Lock()
		conn = c.conn
		c.conn = nil
		c.mu.Unlock()
	})
	if conn != nil {
		return conn.Close()
	}
	return nil
}
