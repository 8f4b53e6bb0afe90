// Package report формирует итоговый отчёт задания слияния.
//
// Build — чистая функция от состояния задания: время печати
// (ч:мм:сс, часы опускаются, если их нет) и пробег пера в метрах.
// Формулировки различаются для preview и для реальной печати.
package report
