package mq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/plotmerge/internal/pause"
)

// PauseListener — пауза по команде job.pause из plotmerge.control.
//
// Реализует pause.Source. Команда защёлкивается: после неё Poll
// всегда возвращает Pause.
type PauseListener struct {
	jobID    string
	consumer *Consumer
	logger   *slog.Logger
	paused   atomic.Bool
}

// NewPauseListener создаёт слушателя команд для задания jobID.
// Слушатель получает команды pause.all и pause.<jobID>.
func NewPauseListener(conn *Connection, jobID string, logger *slog.Logger) *PauseListener {
	if logger == nil {
		logger = slog.Default()
	}

	l := &PauseListener{jobID: jobID, logger: logger}
	l.consumer = NewConsumer(conn, logger, ConsumerConfig{
		Declare: func(ch *amqp.Channel) (string, error) {
			return declareControlQueue(ch, jobID)
		},
		Handler: l.handle,
	})
	return l
}

// Start слушает команды в фоне до отмены ctx или Stop.
func (l *PauseListener) Start(ctx context.Context) {
	go func() {
		if err := l.consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			l.logger.Warn("pause listener stopped", "error", err)
		}
	}()
}

// Stop прекращает приём команд.
func (l *PauseListener) Stop() {
	l.consumer.Stop()
}

// Poll возвращает Pause, если команда получена.
func (l *PauseListener) Poll(context.Context) pause.State {
	if l.paused.Load() {
		return pause.Pause
	}
	return pause.Running
}

// handle обрабатывает одно сообщение из очереди команд.
func (l *PauseListener) handle(_ context.Context, d *Delivery) error {
	if d.Message.Type != MessageTypeJobPause {
		return fmt.Errorf("unexpected message type %q", d.Message.Type)
	}

	payload, err := ParsePayload[JobPausePayload](&d.Message)
	if err != nil {
		return err
	}
	if payload.JobID != "" && payload.JobID != l.jobID {
		// Чужая команда: привязка pause.all могла доставить адресную команду
		return nil
	}

	l.paused.Store(true)
	l.logger.Info("pause requested", "job_id", l.jobID, "reason", payload.Reason)
	return nil
}
