// Package pause — источники сигнала остановки между строками.
//
// Orchestrator опрашивает Source в состоянии DELAYING. Source сообщает
// одно из трёх состояний: Running, Pause (нажата кнопка) или
// LostConnection (устройство недоступно).
//
// Реализации:
//   - Simulated  — ручное управление, для preview и тестов
//   - HTTPButton — кнопка устройства за HTTP-шлюзом
//   - Keyboard   — клавиша в терминале (пробел, p или Esc)
//   - mq.PauseListener — команда job.pause из RabbitMQ
//
// Any объединяет несколько источников.
package pause
