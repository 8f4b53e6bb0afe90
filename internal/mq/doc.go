// Package mq предоставляет инфраструктуру RabbitMQ для plotmerge.
//
// Структура:
//   - connection.go — соединение с RabbitMQ (reconnect, graceful shutdown)
//   - topology.go   — объявление exchanges, queues, bindings
//   - publisher.go  — публикация сообщений
//   - consumer.go   — потребление команд (очередь объявляется при каждом подключении)
//   - events.go     — события заданий (реализует orchestrator.Events)
//   - pause.go      — удалённая пауза (реализует pause.Source)
//
// Типы сообщений:
//   - row.completed — строка напечатана, прогресс сохранён
//   - job.finished  — задание завершено (DONE, HALTED или FAILED)
//   - job.pause     — команда остановить задание перед следующей строкой
//
// Exchanges:
//   - plotmerge.jobs    — события заданий (topic)
//   - plotmerge.control — команды запущенным заданиям (topic)
//
// Брокер не обязателен: без RABBITMQ_URL события не публикуются,
// а пауза доступна только с устройства или клавиатуры.
package mq
