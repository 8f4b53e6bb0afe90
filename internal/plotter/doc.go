// Package plotter — контракт внешнего plotter'а и его реализации.
//
// Orchestrator не планирует траектории и не говорит с устройством:
// он передаёт один документ в Plotter.Plot и получает обратно документ,
// статистику пробега и флаг остановки.
//
// Реализации:
//   - preview.go — симуляция: разбор SVG (oksvg), оценка пробега и времени,
//     опциональный PNG-рендер (rasterx)
//   - http.go    — устройство за HTTP-шлюзом (POST /plot)
//
// Registry выбирает реализацию по имени из конфигурации.
package plotter
