//go:build windows

package pause

import (
	"context"
	"fmt"
)

// Keyboard не поддерживается на windows.
type Keyboard struct{}

// NewKeyboard всегда возвращает ошибку.
func NewKeyboard() (*Keyboard, error) {
	return nil, fmt.Errorf("pause key not supported on windows")
}

// Poll всегда возвращает Running.
func (k *Keyboard) Poll(context.Context) State {
	return Running
}

// Close ничего не делает.
func (k *Keyboard) Close() error {
	return nil
}
