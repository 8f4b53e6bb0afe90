package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics — счётчики заданий слияния.
//
// Все методы безопасны для nil-получателя: без метрик orchestrator
// работает так же.
type Metrics struct {
	rowsPlotted  prometheus.Counter
	jobsFinished *prometheus.CounterVec
	plotDuration prometheus.Histogram
	pausePolls   *prometheus.CounterVec
	penDownInch  prometheus.Counter
}

// NewMetrics регистрирует метрики в реестре reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		rowsPlotted: f.NewCounter(prometheus.CounterOpts{
			Name: "plotmerge_rows_plotted_total",
			Help: "Total data rows delegated to the plotter",
		}),
		jobsFinished: f.NewCounterVec(prometheus.CounterOpts{
			Name: "plotmerge_jobs_finished_total",
			Help: "Merge jobs by final state",
		}, []string{"mode", "state"}),
		plotDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "plotmerge_plot_duration_seconds",
			Help:    "Wall time of one delegated plot",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
		}),
		pausePolls: f.NewCounterVec(prometheus.CounterOpts{
			Name: "plotmerge_pause_polls_total",
			Help: "Pause signal polls by observed state",
		}, []string{"state"}),
		penDownInch: f.NewCounter(prometheus.CounterOpts{
			Name: "plotmerge_pen_down_inches_total",
			Help: "Pen-down distance reported by the plotter",
		}),
	}
}

// RowPlotted учитывает один делегированный plot.
func (m *Metrics) RowPlotted(d time.Duration, penDownInches float64) {
	if m == nil {
		return
	}
	m.rowsPlotted.Inc()
	m.plotDuration.Observe(d.Seconds())
	m.penDownInch.Add(penDownInches)
}

// JobFinished учитывает завершённое задание.
func (m *Metrics) JobFinished(mode, state string) {
	if m == nil {
		return
	}
	m.jobsFinished.WithLabelValues(mode, state).Inc()
}

// PausePolled учитывает опрос сигнала паузы.
func (m *Metrics) PausePolled(state string) {
	if m == nil {
		return
	}
	m.pausePolls.WithLabelValues(state).Inc()
}

// Serve запускает HTTP-сервер с /healthz и /metrics до отмены ctx.
func Serve(ctx context.Context, addr string, gatherer prometheus.Gatherer, logger *slog.Logger) error {
	startTime := time.Now()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "ok %s", time.Since(startTime))
	})
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("metrics listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	// Graceful shutdown с таймаутом 5 секунд
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return server.Shutdown(shutdownCtx)
}
