// Package amqp delivers push messages over a RabbitMQ topic exchange.
// Each console owns an exclusive auto-delete queue named after its device
// token, bound to the shared app key and to the token itself.
package amqp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/nhle/fleetbell/internal/model"
	"github.com/nhle/fleetbell/internal/push"
)

// DeviceTokenPrefix starts every device token and queue name.
const DeviceTokenPrefix = "device."

// Provider implements push.Provider on top of amqp091-go.
type Provider struct {
	url      string
	exchange string
	appKey   string
	logger   *zap.Logger

	mu    sync.Mutex
	conn  *amqp091.Connection
	ch    *amqp091.Channel
	queue string

	// token names the device queue for the provider's lifetime, so a
	// retried setup keeps the address senders already know.
	token string
}

// NewProvider creates a Provider. No connection is made until Register
// or Subscribe.
func NewProvider(url, exchange, appKey string, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{
		url:      url,
		exchange: exchange,
		appKey:   appKey,
		logger:   logger,
	}
}

// NewDeviceToken returns a fresh device token.
func NewDeviceToken() string {
	return DeviceTokenPrefix + uuid.NewString()
}

// Register connects, declares the exchange and this device's queue, and
// returns the queue name as the device token. The token is the same on
// every call.
func (p *Provider) Register(ctx context.Context, appKey string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if appKey != "" {
		p.appKey = appKey
	}
	token := p.tokenLocked()
	if err := p.setup(token); err != nil {
		return "", err
	}
	return token, nil
}

// BoundToken returns the device token the queue is (or will be) bound to,
// or "" before the first Register or Subscribe.
func (p *Provider) BoundToken() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.token
}

func (p *Provider) tokenLocked() string {
	if p.token == "" {
		p.token = NewDeviceToken()
	}
	return p.token
}

// setup replaces any existing connection with one bound to token's queue.
// Callers hold p.mu.
func (p *Provider) setup(token string) error {
	p.closeLocked()

	conn, err := amqp091.Dial(p.url)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		p.exchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	q, err := ch.QueueDeclare(
		token,
		false, // durable
		true,  // auto-delete
		true,  // exclusive
		false,
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	for _, key := range []string{p.appKey, token} {
		if err := ch.QueueBind(q.Name, key, p.exchange, false, nil); err != nil {
			ch.Close()
			conn.Close()
			return fmt.Errorf("failed to bind queue to %q: %w", key, err)
		}
	}

	p.conn = conn
	p.ch = ch
	p.queue = q.Name

	p.logger.Info("Push queue ready",
		zap.String("exchange", p.exchange),
		zap.String("queue", q.Name),
		zap.String("app_key", p.appKey),
	)
	return nil
}

// Subscribe starts a consumer on the device queue. If Register never
// succeeded, queue setup is retried once; when that fails too the error is
// logged and the returned unsubscribe does nothing.
func (p *Provider) Subscribe(handler push.Handler) func() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch == nil {
		if err := p.setup(p.tokenLocked()); err != nil {
			p.logger.Error("Push subscription unavailable",
				zap.Error(fmt.Errorf("%w: %w", push.ErrNotRegistered, err)),
			)
			return func() {}
		}
	}

	tag := "fleetbell-" + uuid.NewString()
	deliveries, err := p.ch.Consume(
		p.queue,
		tag,
		false, // manual ack
		true,
		false,
		false,
		nil,
	)
	if err != nil {
		p.logger.Error("Failed to register push consumer",
			zap.String("queue", p.queue),
			zap.Error(err),
		)
		return func() {}
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		p.consume(deliveries, handler)
	}()

	ch := p.ch
	queue := p.queue
	return func() {
		if err := ch.Cancel(tag, false); err != nil {
			p.logger.Warn("Failed to cancel push consumer",
				zap.String("queue", queue),
				zap.Error(err),
			)
		}
		<-done
	}
}

// consume runs until deliveries is closed. Every message is acked or
// nacked exactly once; undecodable bodies are dropped.
func (p *Provider) consume(deliveries <-chan amqp091.Delivery, handler push.Handler) {
	for msg := range deliveries {
		payload, err := Decode(msg.Body)
		if err != nil {
			p.logger.Warn("Dropping malformed push message",
				zap.String("routing_key", msg.RoutingKey),
				zap.Int("message_size", len(msg.Body)),
				zap.Error(err),
			)
			if err := msg.Nack(false, false); err != nil {
				p.logger.Error("Failed to nack message", zap.Error(err))
			}
			continue
		}

		handler(payload)

		if err := msg.Ack(false); err != nil {
			p.logger.Error("Failed to ack message",
				zap.String("routing_key", msg.RoutingKey),
				zap.Error(err),
			)
		}
	}
}

// Close releases the connection. The device queue is deleted by the broker.
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closeLocked()
	return nil
}

func (p *Provider) closeLocked() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
	p.queue = ""
}

// Decode parses a push message body.
func Decode(body []byte) (model.PushPayload, error) {
	var payload model.PushPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return model.PushPayload{}, fmt.Errorf("decoding push payload: %w", err)
	}
	return payload, nil
}

// Publish sends payload to routingKey on the exchange. Operators use it
// to push test alerts to a running console.
func Publish(ctx context.Context, url, exchange, routingKey string, payload model.PushPayload) error {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	err = ch.PublishWithContext(ctx,
		exchange,
		routingKey,
		false,
		false,
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Transient,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}
