// Package cli реализует команды plotmerge.
//
// # Обзор
//
// CLI — единственная точка входа: команды разбирают флаги, собирают
// конфигурацию (config.Load + флаги), подключают инфраструктуру задания
// и передают его Orchestrator'у. Отчёт печатается в stdout.
//
// # Команды
//
//   - plot: печать диапазона строк с паузами между ними
//   - single: печать одной строки (--row или --advance)
//   - resume: продолжение по resume-метаданным документа
//   - query: последняя напечатанная строка
//   - data set, data show: данные слияния в шаблоне
//   - history: последние задания из PostgreSQL
//   - pause: удалённая пауза через RabbitMQ
//
// Каждая команда создаётся фабричной функцией (NewPlotCmd и т.д.),
// принимающей *Globals — значения persistent-флагов, доступные после
// их разбора.
//
// ## Output
//
// Данные и отчёт выводятся в stdout (таблица или JSON с --json),
// сообщения (Success) — в stderr:
//
//	plotmerge query letter.svg --json | jq .job.last_merged
package cli
