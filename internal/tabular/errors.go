package tabular

import (
	"errors"
	"fmt"
)

// Ошибки чтения данных.
var (
	// ErrDataSource — источник отсутствует, не читается или не содержит строк данных.
	ErrDataSource = errors.New("data source error")

	// ErrFormat — не удалось определить разделитель или разобрать записи.
	ErrFormat = errors.New("unrecognised tabular format")

	// ErrRange — номер строки вне диапазона данных.
	ErrRange = errors.New("row out of range")
)

// RangeError — запрошенная строка отсутствует в данных.
type RangeError struct {
	Row   int // запрошенная строка
	Count int // количество строк данных
}

// Error реализует интерфейс error.
func (e *RangeError) Error() string {
	if e.Count == 0 {
		return fmt.Sprintf("no merge data found in row number %d", e.Row)
	}
	return fmt.Sprintf("no merge data found in row number %d (rows 1-%d available)", e.Row, e.Count)
}

// Unwrap возвращает базовую ошибку.
func (e *RangeError) Unwrap() error {
	return ErrRange
}
