// Package config — типизированная конфигурация задания слияния.
//
// Приоритет источников (от низшего к высшему):
//
//	Defaults() → переменные окружения → YAML-файл (--config) → флаги CLI
//
// Окружение задаёт инфраструктуру (DB_URL, RABBITMQ_URL,
// PLOTMERGE_METRICS_ADDR, PLOTTER_URL). YAML-файл описывает задание:
//
//	merge:
//	  first_row: 2
//	  last_row: 10
//	  page_delay: 5
//	plot:
//	  speed_pendown: 30
//	  pen_pos_down: 25
//	plotter:
//	  kind: http
//	  url: http://localhost:9000
//	pause:
//	  keyboard: true
//
// Флаги применяет пакет cli: только те, что заданы явно.
package config
