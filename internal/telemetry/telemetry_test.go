package telemetry

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// counterSum суммирует значения счётчика name по всем меткам.
func counterSum(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	var sum float64
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			sum += m.GetCounter().GetValue()
		}
	}
	return sum
}

func TestLogLevel(t *testing.T) {
	tests := []struct {
		env  string
		want slog.Level
	}{
		{env: "DEBUG", want: slog.LevelDebug},
		{env: "WARN", want: slog.LevelWarn},
		{env: "ERROR", want: slog.LevelError},
		{env: "debug", want: slog.LevelDebug},
		{env: "", want: slog.LevelInfo},
		{env: "verbose", want: slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			t.Setenv("LOG_LEVEL", tt.env)
			if got := LogLevel(); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestNewLogger_Format(t *testing.T) {
	var buf bytes.Buffer

	NewLogger(&buf, slog.LevelInfo, "text").Info("row plotted", "row", 2)
	if !strings.Contains(buf.String(), "msg=\"row plotted\" row=2") {
		t.Errorf("unexpected text output: %s", buf.String())
	}

	buf.Reset()
	NewLogger(&buf, slog.LevelInfo, "").Debug("hidden")
	NewLogger(&buf, slog.LevelInfo, "").Info("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), `"msg":"shown"`) {
		t.Errorf("unexpected json output: %s", buf.String())
	}
}

func TestFromContext(t *testing.T) {
	if FromContext(context.Background()) != slog.Default() {
		t.Error("expected default logger without value in context")
	}

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	ctx := WithLogger(context.Background(), logger)

	WithRow(WithJobID(FromContext(ctx), "job-1"), 4).Info("plotted")

	out := buf.String()
	if !strings.Contains(out, "job_id=job-1") || !strings.Contains(out, "row=4") {
		t.Errorf("unexpected log line: %s", out)
	}
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RowPlotted(2*time.Second, 10)
	m.RowPlotted(time.Second, 5)
	m.JobFinished("continuous", "DONE")
	m.PausePolled("running")
	m.PausePolled("running")

	tests := []struct {
		name string
		want float64
	}{
		{name: "plotmerge_rows_plotted_total", want: 2},
		{name: "plotmerge_pen_down_inches_total", want: 15},
		{name: "plotmerge_jobs_finished_total", want: 1},
		{name: "plotmerge_pause_polls_total", want: 2},
	}

	for _, tt := range tests {
		if got := counterSum(t, reg, tt.name); got != tt.want {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, got)
		}
	}
}

func TestMetrics_Nil(t *testing.T) {
	var m *Metrics

	// Не должно паниковать
	m.RowPlotted(time.Second, 1)
	m.JobFinished("single", "DONE")
	m.PausePolled("pause")
}
