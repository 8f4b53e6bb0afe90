package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// MessageType — тип сообщения в очереди.
type MessageType string

// Типы сообщений.
const (
	MessageTypeRowCompleted MessageType = "row.completed"
	MessageTypeJobFinished  MessageType = "job.finished"
	MessageTypeJobPause     MessageType = "job.pause"
)

// Publisher публикует сообщения в RabbitMQ.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		conn:   conn,
		logger: logger,
	}
}

// Message — сообщение для публикации.
type Message struct {
	// ID — уникальный идентификатор сообщения.
	ID string `json:"id"`

	// Type — тип сообщения.
	Type MessageType `json:"type"`

	// Payload — полезная нагрузка.
	Payload any `json:"payload"`

	// Timestamp — время создания.
	Timestamp time.Time `json:"timestamp"`
}

// RowCompletedPayload — строка напечатана и прогресс сохранён.
type RowCompletedPayload struct {
	JobID         uuid.UUID `json:"job_id"`
	Row           int       `json:"row"`
	LastRow       int       `json:"last_row"`
	RowsPlotted   int       `json:"rows_plotted"`
	PenDownInches float64   `json:"pen_down_inches"`
	PenUpInches   float64   `json:"pen_up_inches"`
}

// JobFinishedPayload — итог задания.
type JobFinishedPayload struct {
	JobID       uuid.UUID `json:"job_id"`
	Mode        string    `json:"mode"`
	State       string    `json:"state"` // DONE, HALTED или FAILED
	CurrentRow  int       `json:"current_row"`
	RowsPlotted int       `json:"rows_plotted"`
	Notice      string    `json:"notice,omitempty"`
	Error       string    `json:"error,omitempty"`
}

// JobPausePayload — команда паузы. Пустой JobID — для всех заданий.
type JobPausePayload struct {
	JobID  string `json:"job_id,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// newMessage создаёт сообщение с новым ID.
func newMessage(msgType MessageType, payload any) *Message {
	return &Message{
		ID:        uuid.New().String(),
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now(),
	}
}

// Publish публикует сообщение в указанный exchange с routing key.
func (p *Publisher) Publish(ctx context.Context, exchange Exchange, routingKey RoutingKey, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	return p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(
			ctx,
			string(exchange),   // exchange
			string(routingKey), // routing key
			false,
			false,
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				MessageId:    msg.ID,
				Timestamp:    msg.Timestamp,
				Type:         string(msg.Type),
				Body:         body,
			},
		)
		if err != nil {
			return fmt.Errorf("publish to %s/%s: %w", exchange, routingKey, err)
		}

		p.logger.Debug("published message",
			"exchange", exchange,
			"routing_key", routingKey,
			"message_id", msg.ID,
			"type", msg.Type,
		)

		return nil
	})
}

// PublishRowCompleted публикует событие о напечатанной строке.
func (p *Publisher) PublishRowCompleted(ctx context.Context, payload RowCompletedPayload) error {
	return p.Publish(ctx, ExchangeJobs, RoutingKeyRowCompleted, newMessage(MessageTypeRowCompleted, payload))
}

// PublishJobFinished публикует событие о завершении задания.
func (p *Publisher) PublishJobFinished(ctx context.Context, payload JobFinishedPayload) error {
	return p.Publish(ctx, ExchangeJobs, RoutingKeyJobFinished, newMessage(MessageTypeJobFinished, payload))
}

// PublishPause отправляет команду паузы заданию jobID (пустой — всем).
// Потребитель: PauseListener.
func (p *Publisher) PublishPause(ctx context.Context, jobID, reason string) error {
	key := RoutingKeyPauseAll
	if jobID != "" {
		key = PauseRoutingKey(jobID)
	}

	msg := newMessage(MessageTypeJobPause, JobPausePayload{JobID: jobID, Reason: reason})
	return p.Publish(ctx, ExchangeControl, key, msg)
}
