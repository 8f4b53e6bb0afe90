package report

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/shaiso/plotmerge/internal/domain"
)

// Status — итог задания для пользователя.
type Status string

const (
	StatusComplete Status = "complete"
	StatusPaused   Status = "paused"
	StatusFailed   Status = "failed"
	StatusQuery    Status = "query"
)

// Report — отчёт о задании.
type Report struct {
	Status Status   `json:"status"`
	Lines  []string `json:"lines"`
}

// Options — что включать в отчёт.
type Options struct {
	// Time — отчёт о времени и пробеге (report_time).
	Time bool

	// Now — момент формирования отчёта, для времени незавершённого задания.
	Now time.Time
}

// Build формирует отчёт по заданию. Не изменяет job.
func Build(job *domain.Job, opts Options) Report {
	r := Report{Status: status(job)}

	if r.Status == StatusQuery {
		r.Lines = append(r.Lines,
			fmt.Sprintf("Last row merged: Row number %d", job.LastMerged),
			fmt.Sprintf("Next row to merge: Row number %d", job.LastMerged+1),
		)
		return r
	}

	if job.Notice != "" {
		r.Lines = append(r.Lines, job.Notice)
	}
	if job.Error != "" {
		r.Lines = append(r.Lines, "Error: "+job.Error)
	}

	if opts.Time && job.RowsPlotted > 0 {
		r.Lines = append(r.Lines, timeLines(job, opts.Now)...)
	}

	switch r.Status {
	case StatusPaused:
		r.Lines = append(r.Lines, "Job paused; resume later to continue.")
	case StatusComplete:
		if job.RowsPlotted > 0 {
			r.Lines = append(r.Lines, "Job complete.")
		}
	}

	return r
}

// timeLines — отчёт о времени и пробеге.
func timeLines(job *domain.Job, now time.Time) []string {
	var lines []string
	stats := job.Stats
	elapsed := job.Elapsed(now)

	down := fmt.Sprintf("%1.2f m", stats.PenDownMeters())
	total := fmt.Sprintf("%1.2f m", stats.TotalMeters())

	if job.Preview {
		lines = append(lines, "Estimated print time: "+FormatDuration(stats.Estimate))
		if job.PageDelays > 0 {
			lines = append(lines, fmt.Sprintf(" including %d s of delays between pages.",
				int(math.Round(job.PageDelays.Seconds()))))
		}
		lines = append(lines,
			fmt.Sprintf("Total rows to merge and plot: %d.", job.RowsPlotted),
			"Length of path to draw: "+down+".",
			"Total movement distance: "+total+".",
			"This estimate took: "+formatHMS(elapsed),
		)
		return lines
	}

	lines = append(lines, "Elapsed time: "+FormatDuration(elapsed))
	if job.RowsPlotted > 1 {
		lines = append(lines, fmt.Sprintf("Total rows plotted: %d.", job.RowsPlotted))
	}
	lines = append(lines,
		"Length of path drawn: "+down+".",
		"Total distance moved: "+total+".",
	)
	return lines
}

// FormatDuration форматирует время как "ч:мм:сс (Hours, minutes, seconds)"
// или, если часов нет, "мм:сс (minutes, seconds)".
func FormatDuration(d time.Duration) string {
	h, m, s := split(d)
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d (Hours, minutes, seconds)", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d (minutes, seconds)", m, s)
}

// formatHMS всегда включает часы.
func formatHMS(d time.Duration) string {
	h, m, s := split(d)
	return fmt.Sprintf("%d:%02d:%02d (Hours, minutes, seconds)", h, m, s)
}

// split раскладывает длительность на целые часы, минуты и секунды.
func split(d time.Duration) (h, m, s int) {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	return total / 3600, total / 60 % 60, total % 60
}

// Write печатает строки отчёта.
func (r Report) Write(w io.Writer) error {
	for _, line := range r.Lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func status(job *domain.Job) Status {
	if job.Mode == domain.ModeQuery && job.State == domain.JobStateDone {
		return StatusQuery
	}
	if job.IsHalted() {
		return StatusPaused
	}
	if job.State == domain.JobStateFailed {
		return StatusFailed
	}
	return StatusComplete
}
