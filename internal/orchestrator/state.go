package orchestrator

import (
	"fmt"

	"github.com/shaiso/plotmerge/internal/domain"
	"github.com/shaiso/plotmerge/internal/resume"
	"github.com/shaiso/plotmerge/internal/tabular"
)

// Сообщения для пользователя.
const (
	noticeNoData       = "No merge data found in specified range of rows."
	noticeNothing      = "Nothing to plot; no data rows selected."
	noticeNoInProgress = "No in-progress plot data found saved in file."
	noticeLost         = "USB connectivity lost."

	noticeHaltedAfter  = "Sequence halted after row %d."
	noticeHaltedBefore = "Sequence halted before row %d; no rows plotted."
)

// plan — разрешённый диапазон строк задания.
//
// plan создаётся в PREPARING и не меняется до конца задания.
type plan struct {
	// first, last — строки для печати (1-based, включительно).
	first int
	last  int

	// notice — непустое, если печатать нечего (задание сразу DONE).
	notice string

	// reuseSeed — первая строка продолжает остановленную печать:
	// зерно и позиция берутся из resume-метаданных.
	reuseSeed  bool
	seed       float64
	checkpoint string
}

// empty возвращает true, если задание завершается без печати.
func (p *plan) empty() bool {
	return p.notice != ""
}

// preparePlan разрешает диапазон строк относительно размера данных.
//
// rec и found — resume-метаданные документа. Ошибка возвращается только
// для явно запрошенной строки вне данных (режим single).
func preparePlan(jc *JobConfig, rec resume.Record, found bool, data *tabular.DataSet) (*plan, error) {
	count := data.Count()

	switch jc.Mode {
	case domain.ModeContinuous:
		p := &plan{first: max(jc.FirstRow, 1), last: data.ClampLast(jc.LastRow)}
		switch {
		case p.first > count:
			p.notice = noticeNoData
		case p.last < p.first:
			p.notice = noticeNothing
		}
		return p, nil

	case domain.ModeSingle:
		row := jc.SingleRow
		if jc.Advance {
			row = 1
			if found {
				row = rec.Row + 1
			}
		}
		if _, err := data.RowAt(row); err != nil {
			return nil, err
		}
		return &plan{first: row, last: row}, nil

	case domain.ModeResume:
		p := &plan{first: rec.NextRow()}

		switch {
		case jc.LastRow > 0:
			p.last = data.ClampLast(jc.LastRow)
		case rec.LastRow > 0:
			p.last = data.ClampLast(rec.LastRow)
		default:
			p.last = count
		}

		if rec.Halted {
			p.reuseSeed = true
			p.seed = rec.Seed
			p.checkpoint = rec.Checkpoint
		}

		switch {
		case p.first > count:
			p.notice = noticeNoData
		case p.first > p.last:
			p.notice = noticeNoInProgress
		}
		return p, nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidMode, jc.Mode)
	}
}
