package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
)

var (
	ErrPublish = errors.New("rabbitmq publish failed")
	ErrClosed  = errors.New("rabbitmq publisher closed")
)

type Config struct {
	Host           string
	Port           int
	User           string
	Password       string
	VHost          string
	Exchange       string
	DialTimeout    time.Duration
	Heartbeat      time.Duration
	PublishTimeout time.Duration
}

func (c Config) URL() string {
	vhost := c.VHost
	if vhost == "" {
		vhost = "/"
	}
	return amqp.URI{
		Scheme:   "amqp",
		Host:     c.Host,
		Port:     c.Port,
		Username: c.User,
		Password: c.Password,
		Vhost:    vhost,
	}.String()
}

type (
	Channel interface {
		ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
		PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
		Close() error
	}

	Connection interface {
		Channel() (Channel, error)
		Close() error
	}

	DialFunc func(url string, cfg amqp.Config) (Connection, error)
)

type amqpConnection struct {
	*amqp.Connection
}

func (c amqpConnection) Channel() (Channel, error) {
	ch, err := c.Connection.Channel()
	if err != nil {
		return nil, err
	}
	return ch, nil
}

func dialAMQP(url string, cfg amqp.Config) (Connection, error) {
	conn, err := amqp.DialConfig(url, cfg)
	if err != nil {
		return nil, err
	}
	return amqpConnection{conn}, nil
}

type Option func(*Publisher)

// WithDialer replaces the AMQP dialer.
func WithDialer(dial DialFunc) Option {
	return func(p *Publisher) {
		p.dial = dial
	}
}

// Publisher sends messages to a durable topic exchange over one shared
// channel. A failed publish triggers exactly one reconnect and one retry.
type Publisher struct {
	cfg    Config
	dial   DialFunc
	logger *slog.Logger

	mu     sync.Mutex
	conn   Connection
	ch     Channel
	closed bool
}

// NewPublisher connects and declares the exchange. A broker that is down at
// startup is not an error: the publisher stays disconnected and the first
// Publish goes through the reconnect path.
func NewPublisher(cfg Config, logger *slog.Logger, opts ...Option) (*Publisher, error) {
	if cfg.Exchange == "" {
		return nil, errors.New("rabbitmq exchange is empty")
	}

	p := &Publisher{
		cfg:    cfg,
		dial:   dialAMQP,
		logger: logger.With("exchange", cfg.Exchange),
	}
	for _, opt := range opts {
		opt(p)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.connectLocked(); err != nil {
		p.logger.Warn("RabbitMQ unavailable at startup, will reconnect on publish",
			"addr", fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			"error", err)
	}
	return p, nil
}

// Publish sends body to routingKey. On failure it reconnects once and
// retries once; if that also fails the error wraps ErrPublish.
func (p *Publisher) Publish(ctx context.Context, routingKey string, body []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}

	msg := amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	err := p.publishLocked(ctx, routingKey, msg)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return fmt.Errorf("%w: %w", ErrPublish, ctx.Err())
	}

	p.logger.Warn("Publish failed, reconnecting",
		"routing_key", routingKey,
		"message_id", msg.MessageId,
		"error", err)

	if rerr := p.reconnectLocked(); rerr != nil {
		return fmt.Errorf("%w: reconnect: %v (publish: %v)", ErrPublish, rerr, err)
	}
	if err := p.publishLocked(ctx, routingKey, msg); err != nil {
		return fmt.Errorf("%w: retry: %v", ErrPublish, err)
	}

	p.logger.Info("Publish succeeded after reconnect", "routing_key", routingKey, "message_id", msg.MessageId)
	return nil
}

// Close releases the channel and the connection. Publish fails afterwards.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	p.releaseLocked()
	p.logger.Info("RabbitMQ publisher closed")
	return nil
}

func (p *Publisher) publishLocked(ctx context.Context, routingKey string, msg amqp.Publishing) error {
	if p.ch == nil {
		return errors.New("publish channel is not open")
	}

	pubCtx := ctx
	if p.cfg.PublishTimeout > 0 {
		var cancel context.CancelFunc
		pubCtx, cancel = context.WithTimeout(ctx, p.cfg.PublishTimeout)
		defer cancel()
	}

	return p.ch.PublishWithContext(pubCtx, p.cfg.Exchange, routingKey, false, false, msg)
}

func (p *Publisher) reconnectLocked() error {
	p.releaseLocked()
	return p.connectLocked()
}

func (p *Publisher) connectLocked() error {
	start := time.Now()

	conn, err := p.dial(p.cfg.URL(), amqp.Config{
		Heartbeat: p.cfg.Heartbeat,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(p.cfg.DialTimeout),
	})
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(p.cfg.Exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("declare exchange %s: %w", p.cfg.Exchange, err)
	}

	p.conn = conn
	p.ch = ch
	p.logger.Info("Connected to RabbitMQ", "duration", time.Since(start))
	return nil
}

func (p *Publisher) releaseLocked() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}
