package domain

import (
	"time"

	"github.com/google/uuid"
)

// Метров в дюйме. Plotter отчитывается о пробеге в дюймах.
const metersPerInch = 0.0254

// TravelStats — пробег и оценка времени одного или нескольких plot'ов.
type TravelStats struct {
	// PenDownInches — путь с опущенным пером (собственно рисование).
	PenDownInches float64 `json:"pen_down_inches"`

	// PenUpInches — холостые перемещения с поднятым пером.
	PenUpInches float64 `json:"pen_up_inches"`

	// Estimate — оценка времени печати (в preview) или отчёт устройства.
	Estimate time.Duration `json:"estimate"`
}

// Add возвращает сумму двух статистик.
func (s TravelStats) Add(o TravelStats) TravelStats {
	return TravelStats{
		PenDownInches: s.PenDownInches + o.PenDownInches,
		PenUpInches:   s.PenUpInches + o.PenUpInches,
		Estimate:      s.Estimate + o.Estimate,
	}
}

// PenDownMeters возвращает путь с опущенным пером в метрах.
func (s TravelStats) PenDownMeters() float64 {
	return s.PenDownInches * metersPerInch
}

// TotalMeters возвращает полный пробег в метрах.
func (s TravelStats) TotalMeters() float64 {
	return (s.PenDownInches + s.PenUpInches) * metersPerInch
}

// Job — изменяемое состояние одного задания слияния (MergeJob).
//
// Job создаётся при старте задания (с нуля или по resume-метаданным)
// и принадлежит Orchestrator'у до конца задания. Счётчики не глобальные:
// они передаются в делегированный plot и возвращаются из него через Job.
type Job struct {
	// ID — уникальный идентификатор задания.
	ID uuid.UUID `json:"id"`

	// Mode — режим запуска.
	Mode JobMode `json:"mode"`

	// State — текущее состояние автомата.
	State JobState `json:"state"`

	// TemplatePath — путь к документу-шаблону (для истории).
	TemplatePath string `json:"template_path,omitempty"`

	// DataSource — путь к табличным данным (или "embedded").
	DataSource string `json:"data_source,omitempty"`

	// FirstRow, LastRow — разрешённый диапазон строк (1-based, включительно).
	FirstRow int `json:"first_row"`
	LastRow  int `json:"last_row"`

	// CurrentRow — указатель текущей строки.
	// После остановки — последняя строка, печать которой была начата.
	CurrentRow int `json:"current_row"`

	// LastMerged — последняя строка из resume-метаданных на момент старта.
	LastMerged int `json:"last_merged"`

	// RowsPlotted — количество делегированных plot'ов.
	RowsPlotted int `json:"rows_plotted"`

	// Stats — накопленный пробег и оценка времени.
	Stats TravelStats `json:"stats"`

	// PageDelays — суммарные задержки между страницами, учтённые в preview.
	PageDelays time.Duration `json:"page_delays"`

	// Preview — задание выполняется в режиме симуляции.
	Preview bool `json:"preview"`

	// Notice — сообщение для пользователя ("нечего печатать", причина паузы).
	Notice string `json:"notice,omitempty"`

	// Error — текст фатальной ошибки.
	Error string `json:"error,omitempty"`

	// StartedAt — время создания задания.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt — время перехода в терминальное состояние.
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// NewJob создаёт задание в состоянии IDLE.
func NewJob(mode JobMode, now time.Time) *Job {
	return &Job{
		ID:        uuid.New(),
		Mode:      mode,
		State:     JobStateIdle,
		StartedAt: now,
	}
}

// Transition переводит задание в новое состояние.
// При переходе в терминальное состояние фиксирует FinishedAt.
func (j *Job) Transition(to JobState, now time.Time) {
	j.State = to
	if to.IsTerminal() && j.FinishedAt == nil {
		j.FinishedAt = &now
	}
}

// Finish переводит задание в DONE с сообщением для пользователя.
func (j *Job) Finish(notice string, now time.Time) {
	if notice != "" {
		j.Notice = notice
	}
	j.Transition(JobStateDone, now)
}

// Halt переводит задание в HALTED.
func (j *Job) Halt(notice string, now time.Time) {
	if notice != "" {
		j.Notice = notice
	}
	j.Transition(JobStateHalted, now)
}

// Fail переводит задание в FAILED с ошибкой.
func (j *Job) Fail(err error, now time.Time) {
	j.Error = err.Error()
	j.Transition(JobStateFailed, now)
}

// Elapsed возвращает время выполнения задания.
// Для незавершённого задания считает до now.
func (j *Job) Elapsed(now time.Time) time.Duration {
	if j.FinishedAt != nil {
		return j.FinishedAt.Sub(j.StartedAt)
	}
	return now.Sub(j.StartedAt)
}

// IsHalted возвращает true, если задание остановлено и его можно продолжить.
func (j *Job) IsHalted() bool {
	return j.State == JobStateHalted
}
