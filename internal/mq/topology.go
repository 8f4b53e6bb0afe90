package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — тип для имени обменника.
type Exchange string

// Queue — тип для имени очереди.
type Queue string

// RoutingKey — тип для ключа маршрутизации.
type RoutingKey string

// Exchanges — имена обменников.
const (
	ExchangeJobs    Exchange = "plotmerge.jobs"
	ExchangeControl Exchange = "plotmerge.control"
)

// Queues — имена очередей.
const (
	// QueueJobEvents — журнал событий заданий для внешних потребителей.
	QueueJobEvents Queue = "jobs.events"
)

// Routing keys.
const (
	RoutingKeyRowCompleted RoutingKey = "job.row.completed"
	RoutingKeyJobFinished  RoutingKey = "job.finished"
	RoutingKeyAllJobs      RoutingKey = "job.#"

	// RoutingKeyPauseAll — пауза всех запущенных заданий.
	RoutingKeyPauseAll RoutingKey = "pause.all"
)

// PauseRoutingKey возвращает ключ команды паузы для одного задания.
func PauseRoutingKey(jobID string) RoutingKey {
	return RoutingKey("pause." + jobID)
}

// SetupTopology объявляет обменники и очередь событий.
// Очереди команд объявляются каждым PauseListener'ом отдельно.
func SetupTopology(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		// 1. Создаём exchanges
		if err := declareExchanges(ch); err != nil {
			return err
		}

		// 2. Очередь событий и её привязка
		_, err := ch.QueueDeclare(
			string(QueueJobEvents), // name
			true,                   // durable
			false,                  // delete when unused
			false,                  // exclusive
			false,                  // no-wait
			nil,                    // arguments
		)
		if err != nil {
			return fmt.Errorf("declare queue %s: %w", QueueJobEvents, err)
		}

		if err := ch.QueueBind(
			string(QueueJobEvents),
			string(RoutingKeyAllJobs),
			string(ExchangeJobs),
			false,
			nil,
		); err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", QueueJobEvents, ExchangeJobs, err)
		}

		return nil
	})
}

// declareExchanges создаёт обменники.
func declareExchanges(ch *amqp.Channel) error {
	exchanges := []struct {
		name Exchange
		kind string
	}{
		{ExchangeJobs, "topic"},
		{ExchangeControl, "topic"},
	}

	for _, ex := range exchanges {
		err := ch.ExchangeDeclare(
			string(ex.name), // name
			ex.kind,         // type
			true,            // durable
			false,           // auto-deleted
			false,           // internal
			false,           // no-wait
			nil,             // arguments
		)
		if err != nil {
			return fmt.Errorf("declare exchange %s: %w", ex.name, err)
		}
	}

	return nil
}

// declareControlQueue создаёт эксклюзивную очередь команд одного задания.
// Очередь удаляется брокером вместе с соединением.
func declareControlQueue(ch *amqp.Channel, jobID string) (string, error) {
	q, err := ch.QueueDeclare(
		"",    // имя выдаёт брокер
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return "", fmt.Errorf("declare control queue: %w", err)
	}

	for _, key := range []RoutingKey{RoutingKeyPauseAll, PauseRoutingKey(jobID)} {
		if err := ch.QueueBind(q.Name, string(key), string(ExchangeControl), false, nil); err != nil {
			return "", fmt.Errorf("bind control queue %s: %w", key, err)
		}
	}

	return q.Name, nil
}

// TopologyInfo возвращает описание топологии для логирования.
func TopologyInfo() string {
	return `
  plotmerge RabbitMQ topology:

    plotmerge.jobs (topic)
    └── jobs.events [routing: job.#]
            job.row.completed, job.finished

    plotmerge.control (topic)
    └── <exclusive per job> [routing: pause.all, pause.<job_id>]
            Consumer: PauseListener
  `
}
