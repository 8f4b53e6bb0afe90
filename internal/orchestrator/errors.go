package orchestrator

import "errors"

// Ошибки оркестратора.
var (
	// ErrNoResumeData — resume запрошен, но документ не содержит наших метаданных.
	ErrNoResumeData = errors.New("no plotmerge resume data found in document")

	// ErrInvalidMode — неизвестный режим задания.
	ErrInvalidMode = errors.New("invalid job mode")

	// ErrNoPlotter — Orchestrator создан без plotter'а.
	ErrNoPlotter = errors.New("plotter is not configured")
)
