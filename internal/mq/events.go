package mq

import (
	"context"

	"github.com/shaiso/plotmerge/internal/domain"
)

// JobEvents публикует ход задания в plotmerge.jobs.
type JobEvents struct {
	publisher *Publisher
}

// NewJobEvents создаёт JobEvents.
func NewJobEvents(p *Publisher) *JobEvents {
	return &JobEvents{publisher: p}
}

// RowCompleted публикует row.completed.
func (e *JobEvents) RowCompleted(ctx context.Context, job *domain.Job, row int) error {
	return e.publisher.PublishRowCompleted(ctx, rowCompletedPayload(job, row))
}

// JobFinished публикует job.finished.
func (e *JobEvents) JobFinished(ctx context.Context, job *domain.Job) error {
	return e.publisher.PublishJobFinished(ctx, jobFinishedPayload(job))
}

func rowCompletedPayload(job *domain.Job, row int) RowCompletedPayload {
	return RowCompletedPayload{
		JobID:         job.ID,
		Row:           row,
		LastRow:       job.LastRow,
		RowsPlotted:   job.RowsPlotted,
		PenDownInches: job.Stats.PenDownInches,
		PenUpInches:   job.Stats.PenUpInches,
	}
}

func jobFinishedPayload(job *domain.Job) JobFinishedPayload {
	return JobFinishedPayload{
		JobID:       job.ID,
		Mode:        string(job.Mode),
		State:       job.State.String(),
		CurrentRow:  job.CurrentRow,
		RowsPlotted: job.RowsPlotted,
		Notice:      job.Notice,
		Error:       job.Error,
	}
}
