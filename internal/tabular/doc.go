// Package tabular читает табличные данные для слияния.
//
// Структура:
//   - reader.go  — загрузка источника, нормализация переводов строк, определение формата
//   - dataset.go — DataSet (упорядоченные строки) и Row (токен → значение)
//   - errors.go  — ошибки источника, формата и диапазона
//
// Первая строка источника — заголовок. Каждая колонка name становится
// токеном подстановки {{name}}. Строки нумеруются с 1.
package tabular
