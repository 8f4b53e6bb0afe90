package engine

import (
	"errors"
	"fmt"
)

// ErrSubstitution — результат подстановки не разбирается как документ.
var ErrSubstitution = errors.New("substitution produced an invalid document")

// SubstitutionError — ошибка подстановки с номером строки данных.
type SubstitutionError struct {
	Row int   // строка данных, значения которой испортили документ
	Err error // ошибка разбора
}

// Error реализует интерфейс error.
func (e *SubstitutionError) Error() string {
	return fmt.Sprintf("row %d: %v: %v", e.Row, ErrSubstitution, e.Err)
}

// Unwrap возвращает базовые ошибки.
func (e *SubstitutionError) Unwrap() []error {
	return []error{ErrSubstitution, e.Err}
}
