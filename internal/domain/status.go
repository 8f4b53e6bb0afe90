package domain

// JobState — состояние конечного автомата задания слияния.
//
// Жизненный цикл:
//
//	IDLE → PREPARING → MERGING_ROW → DELEGATING → RECORDING → DELAYING → MERGING_ROW
//	           ↘ DONE (нечего печатать)                     ↘ DONE
//	                                                        ↘ HALTED
//	(любое) → FAILED (фатальная ошибка до или между plot'ами)
type JobState string

const (
	// JobStateIdle — задание создано, ещё не начало подготовку.
	JobStateIdle JobState = "IDLE"

	// JobStatePreparing — разрешение диапазона строк относительно размера данных.
	JobStatePreparing JobState = "PREPARING"

	// JobStateMergingRow — подстановка значений текущей строки в шаблон.
	JobStateMergingRow JobState = "MERGING_ROW"

	// JobStateDelegating — документ передан внешнему plotter'у.
	JobStateDelegating JobState = "DELEGATING"

	// JobStateRecording — запись resume-метаданных и накопление статистики.
	JobStateRecording JobState = "RECORDING"

	// JobStateDelaying — пауза между строками с опросом сигнала остановки.
	JobStateDelaying JobState = "DELAYING"

	// JobStateDone — задание завершено (в том числе "нечего печатать").
	JobStateDone JobState = "DONE"

	// JobStateHalted — задание остановлено: пауза или сбой plotter'а.
	// Можно продолжить через resume.
	JobStateHalted JobState = "HALTED"

	// JobStateFailed — фатальная ошибка данных, шаблона или resume-метаданных.
	JobStateFailed JobState = "FAILED"
)

// IsTerminal возвращает true, если состояние финальное.
func (s JobState) IsTerminal() bool {
	switch s {
	case JobStateDone, JobStateHalted, JobStateFailed:
		return true
	default:
		return false
	}
}

// String возвращает строковое представление JobState.
func (s JobState) String() string {
	return string(s)
}

// JobMode — режим запуска задания.
type JobMode string

const (
	// ModeContinuous — печать диапазона строк [first, last] с паузами между ними.
	ModeContinuous JobMode = "continuous"

	// ModeSingle — печать ровно одной строки (явной или следующей за сохранённой).
	ModeSingle JobMode = "single"

	// ModeResume — продолжение остановленного задания по resume-метаданным документа.
	ModeResume JobMode = "resume"

	// ModeQuery — только отчёт о последней напечатанной строке, без печати.
	ModeQuery JobMode = "query"
)

// ParseJobMode парсит строку в JobMode.
func ParseJobMode(s string) (JobMode, bool) {
	switch JobMode(s) {
	case ModeContinuous, ModeSingle, ModeResume, ModeQuery:
		return JobMode(s), true
	default:
		return "", false
	}
}
