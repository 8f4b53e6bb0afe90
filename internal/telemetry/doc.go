// Package telemetry обеспечивает наблюдаемость plotmerge.
//
// Включает:
//   - logging.go — structured logging через slog
//   - metrics.go — Prometheus метрики заданий и HTTP-сервер /metrics
//
// Логи пишутся в stderr, метрики экспортируются на /metrics,
// если задан адрес PLOTMERGE_METRICS_ADDR (или --metrics-addr).
package telemetry
