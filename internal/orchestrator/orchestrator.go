package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/plotmerge/internal/document"
	"github.com/shaiso/plotmerge/internal/domain"
	"github.com/shaiso/plotmerge/internal/engine"
	"github.com/shaiso/plotmerge/internal/pause"
	"github.com/shaiso/plotmerge/internal/plotter"
	"github.com/shaiso/plotmerge/internal/resume"
	"github.com/shaiso/plotmerge/internal/tabular"
	"github.com/shaiso/plotmerge/internal/telemetry"
)

// Default configuration values.
const (
	defaultPollInterval = 100 * time.Millisecond
)

// ArtifactStore сохраняет документ после каждой напечатанной строки.
type ArtifactStore interface {
	Save(ctx context.Context, doc *document.Document) error
}

// JobRecorder — история заданий (repo.JobRepo).
type JobRecorder interface {
	Create(ctx context.Context, job *domain.Job) error
	Update(ctx context.Context, job *domain.Job) error
}

// Events — уведомления о ходе задания (mq.JobEvents).
type Events interface {
	RowCompleted(ctx context.Context, job *domain.Job, row int) error
	JobFinished(ctx context.Context, job *domain.Job) error
}

// DataLoader загружает табличные данные для документа.
// Вызывается один раз на задание.
type DataLoader func(doc *document.Document) (*tabular.DataSet, error)

// JobConfig — параметры одного задания, разрешённые до старта.
type JobConfig struct {
	// ID — идентификатор задания; нулевой — сгенерировать новый.
	ID uuid.UUID

	Mode domain.JobMode

	// FirstRow, LastRow — диапазон для continuous; LastRow 0 — до конца данных.
	// В resume LastRow > 0 переопределяет сохранённую последнюю строку.
	FirstRow int
	LastRow  int

	// SingleRow — строка для single; Advance — следующая за сохранённой.
	SingleRow int
	Advance   bool

	// PageDelay — пауза между строками.
	PageDelay time.Duration

	// Preview — симуляция: пауза не ждётся, а добавляется к оценке времени.
	Preview bool

	// Params — параметры печати для plotter'а.
	Params plotter.Params

	// TemplatePath — путь к шаблону (для истории).
	TemplatePath string
}

// Outcome — результат задания.
type Outcome struct {
	// Job — итоговое состояние задания.
	Job *domain.Job

	// Document — последний документ с resume-метаданными
	// (исходный шаблон, если ни одна строка не напечатана).
	Document *document.Document

	// Resume — resume-метаданные на момент старта (nil, если их нет).
	Resume *resume.Record
}

// Orchestrator выполняет задания слияния.
type Orchestrator struct {
	plotter plotter.Plotter
	pause   pause.Source
	store   ArtifactStore
	history JobRecorder
	events  Events
	metrics *telemetry.Metrics
	codec   *resume.Codec

	pollInterval time.Duration
	now          func() time.Time
	logger       *slog.Logger
}

// Config — конфигурация Orchestrator.
type Config struct {
	// Plotter — внешний исполнитель печати (обязателен).
	Plotter plotter.Plotter

	// Pause — источник сигнала остановки (default: никогда не останавливает).
	Pause pause.Source

	// Store — куда сохранять документ после каждой строки (optional).
	Store ArtifactStore

	// History — история заданий (optional).
	History JobRecorder

	// Events — публикация событий (optional).
	Events Events

	// Metrics — Prometheus метрики (optional).
	Metrics *telemetry.Metrics

	// PollInterval — интервал опроса паузы (default: 100ms).
	PollInterval time.Duration

	// Now — источник времени (default: time.Now).
	Now func() time.Time

	// Logger
	Logger *slog.Logger
}

// New создаёт новый Orchestrator.
func New(cfg Config) *Orchestrator {
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}

	src := cfg.Pause
	if src == nil {
		src = pause.Never{}
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Orchestrator{
		plotter:      cfg.Plotter,
		pause:        src,
		store:        cfg.Store,
		history:      cfg.History,
		events:       cfg.Events,
		metrics:      cfg.Metrics,
		codec:        resume.NewCodec(),
		pollInterval: pollInterval,
		now:          now,
		logger:       logger,
	}
}

// Run выполняет одно задание над документом-шаблоном doc.
//
// Возвращает Outcome всегда, когда задание было создано; ошибка —
// для FAILED и для HALTED по сбою plotter'а. «Нечего печатать» и
// пауза — не ошибки: задание завершается DONE или HALTED с Notice.
func (o *Orchestrator) Run(ctx context.Context, doc *document.Document, load DataLoader, jc JobConfig) (*Outcome, error) {
	job := domain.NewJob(jc.Mode, o.now())
	if jc.ID != uuid.Nil {
		job.ID = jc.ID
	}
	job.Preview = jc.Preview
	job.TemplatePath = jc.TemplatePath

	logger := telemetry.WithJobID(o.logger, job.ID.String())
	out := &Outcome{Job: job, Document: doc}

	o.recordCreate(ctx, job)
	defer o.finish(ctx, out)

	if _, ok := domain.ParseJobMode(string(jc.Mode)); !ok {
		return out, o.fail(job, fmt.Errorf("%w: %q", ErrInvalidMode, jc.Mode))
	}

	// Resume-метаданные нужны всем режимам: query и advance читают
	// последнюю строку, resume — точку продолжения
	rec, found, err := o.codec.Read(doc)
	if err != nil {
		return out, o.fail(job, err)
	}
	if found {
		out.Resume = &rec
		job.LastMerged = rec.Row
	}

	if jc.Mode == domain.ModeQuery {
		job.CurrentRow = job.LastMerged
		job.Finish("", o.now())
		return out, nil
	}

	if jc.Mode == domain.ModeResume && !found {
		return out, o.fail(job, ErrNoResumeData)
	}

	job.Transition(domain.JobStatePreparing, o.now())

	data, err := load(doc)
	if err != nil {
		return out, o.fail(job, err)
	}
	job.DataSource = data.Source()

	p, err := preparePlan(&jc, rec, found, data)
	if err != nil {
		return out, o.fail(job, err)
	}

	job.FirstRow, job.LastRow = p.first, p.last
	if p.empty() {
		logger.Info("nothing to plot", "first_row", p.first, "last_row", p.last, "rows", data.Count())
		job.Finish(p.notice, o.now())
		return out, nil
	}

	if o.plotter == nil {
		return out, o.fail(job, ErrNoPlotter)
	}

	// Устройство открывается один раз на задание
	if err := o.plotter.Open(ctx); err != nil {
		return out, o.fail(job, err)
	}
	defer func() {
		if err := o.plotter.Close(); err != nil {
			logger.Warn("failed to close plotter", "error", err)
		}
	}()

	logger.Info("merge job started",
		"mode", jc.Mode,
		"first_row", p.first,
		"last_row", p.last,
		"rows", data.Count(),
		"preview", jc.Preview,
	)

	return out, o.loop(ctx, out, data, p, &jc, logger)
}

// loop печатает строки плана, пока не дойдёт до последней или не остановится.
func (o *Orchestrator) loop(ctx context.Context, out *Outcome, data *tabular.DataSet, p *plan, jc *JobConfig, logger *slog.Logger) error {
	job := out.Job
	sub := engine.NewSubstituter(data.Tokens())

	params := jc.Params
	params.Preview = jc.Preview

	template := out.Document
	row := p.first
	job.CurrentRow = row

	for {
		// Отмена проверяется на границе строк
		if ctx.Err() != nil {
			notice := fmt.Sprintf(noticeHaltedAfter, row-1)
			if row == p.first {
				notice = fmt.Sprintf(noticeHaltedBefore, row)
			}
			job.CurrentRow = row - 1
			job.Halt(notice, o.now())
			logger.Info("merge job cancelled", "row", job.CurrentRow)
			return nil
		}

		rowLogger := telemetry.WithRow(logger, row)

		// MERGING_ROW
		job.Transition(domain.JobStateMergingRow, o.now())

		dataRow, err := data.RowAt(row)
		if err != nil {
			return o.fail(job, err)
		}

		merged, err := sub.Substitute(template, dataRow)
		if err != nil {
			return o.fail(job, err)
		}

		seed, checkpoint := o.seed(), ""
		if row == p.first && p.reuseSeed {
			seed, checkpoint = p.seed, p.checkpoint
		}

		// DELEGATING: начатый plot не прерывается отменой контекста
		job.Transition(domain.JobStateDelegating, o.now())
		rowLogger.Debug("delegating plot", "seed", seed, "checkpoint", checkpoint)

		started := time.Now()
		res, err := o.plotter.Plot(context.WithoutCancel(ctx), &plotter.Request{
			Document:   merged,
			Original:   template,
			Row:        row,
			Seed:       seed,
			Checkpoint: checkpoint,
			Params:     params,
		})
		if err != nil {
			job.Error = err.Error()
			job.Halt(fmt.Sprintf("Plot failed on row %d.", row), o.now())
			rowLogger.Error("plot failed", "error", err)
			return fmt.Errorf("row %d: %w", row, err)
		}

		// RECORDING
		job.Transition(domain.JobStateRecording, o.now())
		job.RowsPlotted++
		job.Stats = job.Stats.Add(res.Stats)
		o.metrics.RowPlotted(time.Since(started), res.Stats.PenDownInches)

		plotted := res.Document
		if plotted == nil {
			plotted = template
		}

		err = o.codec.Write(plotted, resume.Record{
			Row:        row,
			Seed:       seed,
			LastRow:    job.LastRow,
			Halted:     res.Halted,
			Checkpoint: res.Checkpoint,
		})
		if err != nil {
			return o.fail(job, err)
		}

		template = plotted
		out.Document = plotted

		if o.store != nil {
			if err := o.store.Save(context.WithoutCancel(ctx), plotted); err != nil {
				return o.fail(job, fmt.Errorf("save document: %w", err))
			}
		}

		rowLogger.Info("row plotted",
			"pen_down_in", res.Stats.PenDownInches,
			"pen_up_in", res.Stats.PenUpInches,
			"halted", res.Halted,
		)
		o.publishRow(ctx, job, row)

		if res.Halted {
			job.Halt(fmt.Sprintf("Paused while plotting row %d.", row), o.now())
			return nil
		}

		if row >= p.last {
			job.Finish("", o.now())
			logger.Info("merge job complete", "rows_plotted", job.RowsPlotted)
			return nil
		}

		row++
		job.CurrentRow = row

		// DELAYING: только между строками и только при заданной паузе
		if jc.PageDelay <= 0 {
			continue
		}

		job.Transition(domain.JobStateDelaying, o.now())
		if st := o.delay(ctx, job, jc.PageDelay); st != pause.Running {
			// Следующая строка не начата
			job.CurrentRow = row - 1
			notice := fmt.Sprintf(noticeHaltedAfter, job.CurrentRow)
			if st == pause.LostConnection {
				notice += " " + noticeLost
			}
			job.Halt(notice, o.now())
			logger.Info("merge job halted", "row", job.CurrentRow, "signal", st.String())
			return nil
		}
	}
}

// delay ждёт паузу между строками, опрашивая сигнал остановки
// каждые pollInterval. Отмена контекста считается паузой.
//
// В preview ожидания нет: каждый тик добавляется к оценке времени.
func (o *Orchestrator) delay(ctx context.Context, job *domain.Job, d time.Duration) pause.State {
	ticks := int(d / o.pollInterval)
	if ticks < 1 {
		ticks = 1
	}

	if job.Preview {
		total := time.Duration(ticks) * o.pollInterval
		job.PageDelays += total
		job.Stats.Estimate += total
		return pause.Running
	}

	ticker := time.NewTicker(o.pollInterval)
	defer ticker.Stop()

	for i := 0; i < ticks; i++ {
		select {
		case <-ctx.Done():
			return pause.Pause
		case <-ticker.C:
		}

		st := o.pause.Poll(ctx)
		o.metrics.PausePolled(st.String())
		if st != pause.Running {
			return st
		}
	}
	return pause.Running
}

// seed возвращает новое случайное зерно строки: время с точностью до сотых секунды.
func (o *Orchestrator) seed() float64 {
	t := o.now()
	return math.Round(float64(t.UnixNano())/1e7) / 100
}

// fail переводит задание в FAILED и возвращает ошибку.
func (o *Orchestrator) fail(job *domain.Job, err error) error {
	job.Fail(err, o.now())
	o.logger.Error("merge job failed",
		"job_id", job.ID,
		"row", job.CurrentRow,
		"error", err,
	)
	return err
}

// finish фиксирует итог задания в истории, метриках и событиях.
// Ошибки истории и событий не влияют на результат задания.
func (o *Orchestrator) finish(ctx context.Context, out *Outcome) {
	job := out.Job
	ctx = context.WithoutCancel(ctx)

	o.metrics.JobFinished(string(job.Mode), job.State.String())

	if o.history != nil {
		if err := o.history.Update(ctx, job); err != nil {
			o.logger.Warn("failed to update job history", "job_id", job.ID, "error", err)
		}
	}
	if o.events != nil {
		if err := o.events.JobFinished(ctx, job); err != nil {
			o.logger.Warn("failed to publish job.finished", "job_id", job.ID, "error", err)
		}
	}
}

func (o *Orchestrator) recordCreate(ctx context.Context, job *domain.Job) {
	if o.history == nil {
		return
	}
	if err := o.history.Create(ctx, job); err != nil {
		o.logger.Warn("failed to record job", "job_id", job.ID, "error", err)
	}
}

func (o *Orchestrator) publishRow(ctx context.Context, job *domain.Job, row int) {
	if o.events == nil {
		return
	}
	if err := o.events.RowCompleted(context.WithoutCancel(ctx), job, row); err != nil {
		o.logger.Warn("failed to publish row.completed", "job_id", job.ID, "row", row, "error", err)
	}
}
