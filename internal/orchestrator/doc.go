// Package orchestrator управляет заданием слияния.
//
// Orchestrator — конечный автомат одного задания:
//
//	IDLE → PREPARING → MERGING_ROW → DELEGATING → RECORDING → DELAYING → MERGING_ROW ...
//
// Для каждой строки данных он:
//   - подставляет значения строки в шаблон (engine)
//   - передаёт документ внешнему plotter'у
//   - пишет resume-метаданные в возвращённый документ и сохраняет его
//   - между строками ждёт заданную паузу, опрашивая сигнал остановки
//
// Задание выполняется в одной горутине, строка за строкой.
// Отмена контекста проверяется только на границе строк и во время паузы:
// начатый plot не прерывается.
package orchestrator
