package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Delivery — разобранное входящее сообщение.
type Delivery struct {
	Message Message

	// RoutingKey — ключ, с которым сообщение пришло.
	RoutingKey string
}

// Handler обрабатывает сообщение. Ошибка отбрасывает сообщение без возврата в очередь.
type Handler func(ctx context.Context, d *Delivery) error

// DeclareFunc объявляет очередь на канале и возвращает её имя.
type DeclareFunc func(ch *amqp.Channel) (string, error)

// Consumer читает сообщения из очереди, объявляя её заново при каждом
// подключении: эксклюзивные очереди пропадают вместе с соединением.
type Consumer struct {
	conn    *Connection
	logger  *slog.Logger
	declare DeclareFunc
	handler Handler

	mu     sync.Mutex
	cancel context.CancelFunc
}

// ConsumerConfig — конфигурация Consumer.
type ConsumerConfig struct {
	Declare DeclareFunc
	Handler Handler
}

// NewConsumer создаёт новый Consumer.
func NewConsumer(conn *Connection, logger *slog.Logger, cfg ConsumerConfig) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{
		conn:    conn,
		logger:  logger,
		declare: cfg.Declare,
		handler: cfg.Handler,
	}
}

// Start читает сообщения до отмены ctx или Stop.
// Разрыв соединения не ошибка: Consumer ждёт переподключения.
func (c *Consumer) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()

	for {
		reconnected := c.conn.Reconnected()

		queue, deliveries, err := c.subscribe()
		if err != nil {
			c.logger.Warn("consumer waiting for connection", "error", err)
		} else {
			c.logger.Debug("consumer subscribed", "queue", queue)
			c.drain(ctx, queue, deliveries)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-reconnected:
		}
	}
}

// Stop останавливает Consumer.
func (c *Consumer) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
}

func (c *Consumer) subscribe() (string, <-chan amqp.Delivery, error) {
	ch := c.conn.Channel()
	if ch == nil {
		return "", nil, ErrNoChannel
	}

	queue, err := c.declare(ch)
	if err != nil {
		return "", nil, err
	}

	if err := ch.Qos(1, 0, false); err != nil {
		return "", nil, fmt.Errorf("set qos: %w", err)
	}

	deliveries, err := ch.Consume(
		queue, // queue
		"",    // consumer tag
		false, // auto-ack
		true,  // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return "", nil, fmt.Errorf("consume %s: %w", queue, err)
	}
	return queue, deliveries, nil
}

// drain обрабатывает сообщения, пока канал доставки открыт.
func (c *Consumer) drain(ctx context.Context, queue string, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case raw, ok := <-deliveries:
			if !ok {
				c.logger.Warn("deliveries channel closed", "queue", queue)
				return
			}
			c.dispatch(ctx, raw)
		}
	}
}

func (c *Consumer) dispatch(ctx context.Context, raw amqp.Delivery) {
	d, err := decode(raw)
	if err == nil {
		err = c.handler(ctx, d)
	}
	if err != nil {
		c.logger.Warn("message rejected",
			"routing_key", raw.RoutingKey,
			"message_id", raw.MessageId,
			"error", err,
		)
		_ = raw.Nack(false, false)
		return
	}
	_ = raw.Ack(false)
}

// decode разбирает тело AMQP-сообщения.
func decode(raw amqp.Delivery) (*Delivery, error) {
	var msg Message
	if err := json.Unmarshal(raw.Body, &msg); err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}
	return &Delivery{Message: msg, RoutingKey: raw.RoutingKey}, nil
}

// ParsePayload приводит payload сообщения к типу T.
// После json.Unmarshal в Message payload — map, поэтому он перекодируется.
func ParsePayload[T any](msg *Message) (T, error) {
	var out T

	raw, err := json.Marshal(msg.Payload)
	if err != nil {
		return out, fmt.Errorf("marshal payload: %w", err)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("unmarshal payload: %w", err)
	}
	return out, nil
}
