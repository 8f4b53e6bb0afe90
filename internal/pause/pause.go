package pause

import (
	"context"
	"sync/atomic"
)

// State — результат опроса сигнала остановки.
type State int

const (
	// Running — сигнала нет, задание продолжается.
	Running State = iota

	// Pause — нажата кнопка паузы.
	Pause

	// LostConnection — связь с устройством потеряна.
	LostConnection
)

// String возвращает строковое представление State.
func (s State) String() string {
	switch s {
	case Pause:
		return "pause"
	case LostConnection:
		return "lost_connection"
	default:
		return "running"
	}
}

// Source — источник сигнала остановки.
//
// Poll не должен блокироваться дольше интервала опроса.
// Сигнал Pause «защёлкивается»: его снимает только Reset.
type Source interface {
	Poll(ctx context.Context) State
}

// Simulated — источник, которым управляют вызовом Press.
type Simulated struct {
	state atomic.Int32
}

// NewSimulated создаёт Simulated в состоянии Running.
func NewSimulated() *Simulated {
	return &Simulated{}
}

// Press устанавливает состояние, которое вернёт следующий Poll.
func (s *Simulated) Press(state State) {
	s.state.Store(int32(state))
}

// Reset снимает сигнал.
func (s *Simulated) Reset() {
	s.state.Store(int32(Running))
}

// Poll возвращает текущее состояние.
func (s *Simulated) Poll(context.Context) State {
	return State(s.state.Load())
}

// Never — источник, который никогда не останавливает задание.
type Never struct{}

// Poll всегда возвращает Running.
func (Never) Poll(context.Context) State {
	return Running
}

// Any опрашивает источники по порядку и возвращает первый сигнал.
func Any(sources ...Source) Source {
	return anySource(sources)
}

type anySource []Source

func (a anySource) Poll(ctx context.Context) State {
	for _, s := range a {
		if s == nil {
			continue
		}
		if st := s.Poll(ctx); st != Running {
			return st
		}
	}
	return Running
}
