package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/shaiso/plotmerge/internal/config"
	"github.com/shaiso/plotmerge/internal/document"
	"github.com/shaiso/plotmerge/internal/domain"
	"github.com/shaiso/plotmerge/internal/mq"
	"github.com/shaiso/plotmerge/internal/orchestrator"
	"github.com/shaiso/plotmerge/internal/pause"
	"github.com/shaiso/plotmerge/internal/plotter"
	"github.com/shaiso/plotmerge/internal/repo"
	"github.com/shaiso/plotmerge/internal/report"
	"github.com/shaiso/plotmerge/internal/tabular"
	"github.com/shaiso/plotmerge/internal/telemetry"
)

// session — инфраструктура одного задания: plotter, источники паузы,
// история, события и метрики. Всё, кроме plotter'а, необязательно:
// недоступная БД или брокер только логируются.
type session struct {
	cfg    config.Config
	logger *slog.Logger

	plotter plotter.Plotter
	sources []pause.Source
	store   orchestrator.ArtifactStore
	history orchestrator.JobRecorder
	events  orchestrator.Events
	metrics *telemetry.Metrics

	closers []func()
}

func newSession(cfg config.Config, logger *slog.Logger) *session {
	return &session{cfg: cfg, logger: logger}
}

// setup подключает инфраструктуру для задания jobID.
func (s *session) setup(ctx context.Context, jobID uuid.UUID) error {
	p, err := plotter.NewRegistry().New(s.cfg.Plotter.Kind, s.cfg.PlotterOptions())
	if err != nil {
		return err
	}
	s.plotter = p

	s.setupMetrics(ctx)
	s.setupPause(p)
	s.setupHistory(ctx)
	s.setupBroker(ctx, jobID)
	return nil
}

func (s *session) setupMetrics(ctx context.Context) {
	reg := prometheus.NewRegistry()
	s.metrics = telemetry.NewMetrics(reg)

	if s.cfg.MetricsAddr == "" {
		return
	}

	srvCtx, cancel := context.WithCancel(ctx)
	s.onClose(cancel)
	go func() {
		if err := telemetry.Serve(srvCtx, s.cfg.MetricsAddr, reg, s.logger); err != nil {
			s.logger.Warn("metrics server stopped", "error", err)
		}
	}()
}

func (s *session) setupPause(p plotter.Plotter) {
	if hp, ok := p.(*plotter.HTTP); ok && s.cfg.Pause.Button {
		s.sources = append(s.sources, pause.NewHTTPButton(hp.ButtonURL()))
	}

	// В preview между строками не ждём, клавиатура не нужна
	if !s.cfg.Pause.Keyboard || s.cfg.Preview() {
		return
	}
	kb, err := pause.NewKeyboard()
	if err != nil {
		s.logger.Warn("pause key unavailable", "error", err)
		return
	}
	s.sources = append(s.sources, kb)
	s.onClose(func() { _ = kb.Close() })
}

func (s *session) setupHistory(ctx context.Context) {
	if s.cfg.DBURL == "" {
		return
	}

	pool, err := repo.NewPool(ctx, s.cfg.DBURL)
	if err != nil {
		s.logger.Warn("job history disabled", "error", err)
		return
	}

	jobs := repo.NewJobRepo(pool)
	if err := jobs.EnsureSchema(ctx); err != nil {
		s.logger.Warn("job history disabled", "error", err)
		pool.Close()
		return
	}
	s.history = jobs
	s.onClose(pool.Close)
}

func (s *session) setupBroker(ctx context.Context, jobID uuid.UUID) {
	if s.cfg.RabbitMQURL == "" {
		return
	}

	conn, err := mq.NewConnection(s.cfg.RabbitMQURL, s.logger)
	if err != nil {
		s.logger.Warn("job events disabled", "error", err)
		return
	}
	s.onClose(func() { _ = conn.Close() })

	if err := mq.SetupTopology(ctx, conn); err != nil {
		s.logger.Warn("job events disabled", "error", err)
		return
	}
	s.logger.Debug("rabbitmq topology ready", "topology", mq.TopologyInfo())
	s.events = mq.NewJobEvents(mq.NewPublisher(conn, s.logger))

	if s.cfg.Pause.Remote {
		l := mq.NewPauseListener(conn, jobID.String(), s.logger)
		l.Start(ctx)
		s.onClose(l.Stop)
		s.sources = append(s.sources, l)
	}
}

// onClose регистрирует освобождение ресурса; close вызывает их в обратном порядке.
func (s *session) onClose(fn func()) {
	s.closers = append(s.closers, fn)
}

// close идемпотентен: повторный вызов ничего не делает.
func (s *session) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// newOrchestrator создаёт Orchestrator поверх подключённой инфраструктуры.
func (s *session) newOrchestrator() *orchestrator.Orchestrator {
	return orchestrator.New(orchestrator.Config{
		Plotter:      s.plotter,
		Pause:        pause.Any(s.sources...),
		Store:        s.store,
		History:      s.history,
		Events:       s.events,
		Metrics:      s.metrics,
		PollInterval: s.cfg.PollInterval(),
		Logger:       s.logger,
	})
}

// dataLoader загружает данные из файла path или из узла MergeData документа.
func dataLoader(path string) orchestrator.DataLoader {
	return func(doc *document.Document) (*tabular.DataSet, error) {
		if path != "" {
			return tabular.LoadFile(path)
		}
		value, ok := doc.DataSource()
		if !ok {
			return nil, fmt.Errorf("%w: no data source selected", tabular.ErrDataSource)
		}
		return tabular.LoadValue(value)
	}
}

// runJob выполняет задание над шаблоном и печатает отчёт.
// Ошибка задания возвращается после отчёта.
func (g *Globals) runJob(cmd *cobra.Command, cfg config.Config, templatePath string, jc orchestrator.JobConfig) error {
	ctx := cmd.Context()
	logger := telemetry.FromContext(ctx)
	out := g.Output(cmd)

	doc, err := document.ParseFile(templatePath)
	if err != nil {
		return err
	}

	jc.ID = uuid.New()
	jc.TemplatePath = templatePath
	jc.Preview = cfg.Preview()
	jc.Params = cfg.Plot

	s := newSession(cfg, logger)
	defer s.close()

	if jc.Mode != domain.ModeQuery {
		if err := s.setup(ctx, jc.ID); err != nil {
			return err
		}
		if !jc.Preview {
			s.store = document.NewFileStore(g.outputPath(templatePath))
		}
	}

	res, runErr := s.newOrchestrator().Run(ctx, doc, dataLoader(cfg.Merge.Data), jc)
	// Терминал возвращается из raw-режима до печати отчёта.
	s.close()
	if res == nil {
		return runErr
	}

	out.Report(res.Job, report.Build(res.Job, report.Options{
		Time: cfg.Merge.ReportTime,
		Now:  time.Now(),
	}))
	return runErr
}
