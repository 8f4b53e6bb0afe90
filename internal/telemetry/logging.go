package telemetry

import (
	"context"
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"
)

// LogLevel читает уровень из LOG_LEVEL: DEBUG, INFO, WARN, ERROR
// (регистр не важен). Пустое или неизвестное значение — INFO.
func LogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(os.Getenv("LOG_LEVEL"))); err != nil {
		return slog.LevelInfo
	}
	return level
}

// NewLogger создаёт логгер в w. format "text" — человекочитаемый,
// остальное — JSON.
func NewLogger(w io.Writer, level slog.Level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level <= slog.LevelDebug,
	}

	if format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// SetupLogger инициализирует глобальный логгер.
//
// Логи пишутся в stderr: stdout занят отчётом о задании.
// Формат задаёт LOG_FORMAT ("json" или "text"); без него в терминале
// используется text, иначе JSON.
func SetupLogger() *slog.Logger {
	format := os.Getenv("LOG_FORMAT")
	if format == "" && term.IsTerminal(int(os.Stderr.Fd())) {
		format = "text"
	}

	logger := NewLogger(os.Stderr, LogLevel(), format)
	slog.SetDefault(logger)
	return logger
}

type loggerKey struct{}

// WithLogger добавляет логгер в контекст.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext извлекает логгер из контекста.
// Если логгер не найден, возвращает глобальный.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// WithJobID возвращает логгер с добавленным job_id.
func WithJobID(logger *slog.Logger, jobID string) *slog.Logger {
	return logger.With("job_id", jobID)
}

// WithRow возвращает логгер с добавленным номером строки данных.
func WithRow(logger *slog.Logger, row int) *slog.Logger {
	return logger.With("row", row)
}
