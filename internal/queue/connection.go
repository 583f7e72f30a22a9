package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// maxReconnectDelay — верхняя граница задержки переподключения.
const maxReconnectDelay = 30 * time.Second

// Connection — AMQP соединение с автоматическим переподключением.
//
// Один канал на соединение; после reconnect канал пересоздаётся,
// а подписчики ReconnectNotify перезапускают потребление.
type Connection struct {
	url    string
	logger *slog.Logger

	mu      sync.RWMutex
	conn    *amqp.Connection
	channel *amqp.Channel

	closed   bool
	closedCh chan struct{}

	reconnectMu sync.Mutex
	listeners   []chan struct{}
}

// Dial открывает соединение с RabbitMQ.
func Dial(url string, logger *slog.Logger) (*Connection, error) {
	if logger == nil {
		logger = slog.Default()
	}

	c := &Connection{
		url:      url,
		logger:   logger,
		closedCh: make(chan struct{}),
	}

	if err := c.connect(); err != nil {
		return nil, err
	}

	go c.watch()

	return c, nil
}

func (c *Connection) connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	conn, err := amqp.Dial(c.url)
	if err != nil {
		return fmt.Errorf("dial amqp: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}

	c.conn = conn
	c.channel = ch

	c.logger.Info("connected to RabbitMQ")
	return nil
}

// watch ждёт разрыва соединения и переподключается.
func (c *Connection) watch() {
	for {
		c.mu.RLock()
		if c.closed {
			c.mu.RUnlock()
			return
		}
		conn := c.conn
		c.mu.RUnlock()

		notifyClose := conn.NotifyClose(make(chan *amqp.Error, 1))

		select {
		case <-c.closedCh:
			return
		case err := <-notifyClose:
			if err != nil {
				c.logger.Warn("amqp connection lost", "error", err)
			}
			if !c.reconnect() {
				return
			}
		}
	}
}

// reconnect переподключается с экспоненциальной задержкой.
// Возвращает false, если соединение закрыто через Close.
func (c *Connection) reconnect() bool {
	delay := time.Second

	for {
		select {
		case <-c.closedCh:
			return false
		case <-time.After(delay):
		}

		if err := c.connect(); err != nil {
			c.logger.Warn("reconnect failed", "error", err, "next_delay", delay)
			delay = min(delay*2, maxReconnectDelay)
			continue
		}

		c.logger.Info("reconnected to RabbitMQ")
		c.broadcastReconnect()
		return true
	}
}

func (c *Connection) broadcastReconnect() {
	c.reconnectMu.Lock()
	defer c.reconnectMu.Unlock()

	for _, l := range c.listeners {
		select {
		case l <- struct{}{}:
		default:
		}
	}
}

// ReconnectNotify возвращает канал уведомлений о переподключении.
// У каждого вызывающего свой канал.
func (c *Connection) ReconnectNotify() <-chan struct{} {
	ch := make(chan struct{}, 1)

	c.reconnectMu.Lock()
	c.listeners = append(c.listeners, ch)
	c.reconnectMu.Unlock()

	return ch
}

// Channel возвращает текущий канал.
func (c *Connection) Channel() *amqp.Channel {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.channel
}

// WithChannel выполняет fn с текущим каналом.
func (c *Connection) WithChannel(fn func(ch *amqp.Channel) error) error {
	ch := c.Channel()
	if ch == nil {
		return ErrNoChannel
	}
	return fn(ch)
}

// IsConnected проверяет, установлено ли соединение.
func (c *Connection) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn != nil && !c.conn.IsClosed()
}

// Ping — проверка готовности для /healthz.
func (c *Connection) Ping(_ context.Context) error {
	if !c.IsConnected() {
		return fmt.Errorf("amqp: not connected")
	}
	return nil
}

// Close закрывает канал и соединение.
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	close(c.closedCh)

	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			c.logger.Warn("close channel", "error", err)
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			return fmt.Errorf("close connection: %w", err)
		}
	}

	c.logger.Info("amqp connection closed")
	return nil
}
