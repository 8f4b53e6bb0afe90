//go:build !windows

package pause

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"golang.org/x/term"
)

const (
	keyCtrlC = 0x03
	keyEsc   = 0x1b
	keySpace = ' '
)

// Keyboard — пауза по клавише в терминале: пробел, p, Esc или Ctrl-C.
//
// Терминал переводится в raw-режим до вызова Close. В raw-режиме Ctrl-C
// не порождает SIGINT, поэтому он тоже ставит задание на паузу.
type Keyboard struct {
	pressed atomic.Bool
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

// NewKeyboard начинает слушать /dev/tty (или stdin).
// Возвращает ошибку, если терминала нет.
func NewKeyboard() (*Keyboard, error) {
	tty, err := os.OpenFile("/dev/tty", os.O_RDONLY, 0)
	if err != nil {
		tty = os.Stdin
	}

	fd := int(tty.Fd())
	if !term.IsTerminal(fd) {
		if tty != os.Stdin {
			_ = tty.Close()
		}
		return nil, fmt.Errorf("no TTY available for pause key")
	}

	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("raw mode failed: %w", err)
	}
	if err := syscall.SetNonblock(fd, true); err != nil {
		_ = term.Restore(fd, state)
		return nil, fmt.Errorf("set nonblock failed: %w", err)
	}

	k := &Keyboard{
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}

	go func() {
		defer close(k.stopped)
		defer func() {
			_ = term.Restore(fd, state)
			_ = syscall.SetNonblock(fd, false)
			if tty != os.Stdin {
				_ = tty.Close()
			}
		}()

		buf := make([]byte, 1)
		for {
			select {
			case <-k.done:
				return
			default:
			}

			n, err := tty.Read(buf)
			if n > 0 && isPauseKey(buf[0]) {
				k.pressed.Store(true)
			}
			if err != nil {
				if errors.Is(err, syscall.EAGAIN) || errors.Is(err, syscall.EWOULDBLOCK) {
					time.Sleep(50 * time.Millisecond)
					continue
				}
				return
			}
		}
	}()

	return k, nil
}

// Poll возвращает Pause, если клавиша была нажата.
func (k *Keyboard) Poll(context.Context) State {
	if k.pressed.Load() {
		return Pause
	}
	return Running
}

// Close восстанавливает режим терминала.
func (k *Keyboard) Close() error {
	k.once.Do(func() {
		close(k.done)
	})
	<-k.stopped
	return nil
}

func isPauseKey(b byte) bool {
	return b == keyEsc || b == keySpace || b == keyCtrlC || b == 'p' || b == 'P'
}
