package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/plotmerge/internal/domain"
)

// schema — таблица истории заданий.
const schema = `
	CREATE TABLE IF NOT EXISTS merge_jobs (
		id              UUID PRIMARY KEY,
		mode            TEXT NOT NULL,
		state           TEXT NOT NULL,
		template_path   TEXT,
		data_source     TEXT,
		first_row       INTEGER NOT NULL DEFAULT 0,
		last_row        INTEGER NOT NULL DEFAULT 0,
		current_row     INTEGER NOT NULL DEFAULT 0,
		rows_plotted    INTEGER NOT NULL DEFAULT 0,
		pen_down_inches DOUBLE PRECISION NOT NULL DEFAULT 0,
		pen_up_inches   DOUBLE PRECISION NOT NULL DEFAULT 0,
		estimate_ms     BIGINT NOT NULL DEFAULT 0,
		preview         BOOLEAN NOT NULL DEFAULT FALSE,
		notice          TEXT,
		error           TEXT,
		started_at      TIMESTAMPTZ NOT NULL,
		finished_at     TIMESTAMPTZ
	);
	CREATE INDEX IF NOT EXISTS merge_jobs_started_at_idx ON merge_jobs (started_at DESC);
`

// jobColumns — колонки в порядке scanJob.
const jobColumns = `
	id, mode, state, template_path, data_source, first_row, last_row,
	current_row, rows_plotted, pen_down_inches, pen_up_inches, estimate_ms,
	preview, notice, error, started_at, finished_at
`

// JobRepo — репозиторий истории заданий.
type JobRepo struct {
	pool *pgxpool.Pool
}

// NewJobRepo создаёт новый JobRepo.
func NewJobRepo(pool *pgxpool.Pool) *JobRepo {
	return &JobRepo{pool: pool}
}

// EnsureSchema создаёт таблицу истории, если её нет.
func (r *JobRepo) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Create записывает новое задание.
func (r *JobRepo) Create(ctx context.Context, job *domain.Job) error {
	query := `
		INSERT INTO merge_jobs (id, mode, state, template_path, preview, started_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.pool.Exec(ctx, query,
		job.ID,
		string(job.Mode),
		job.State.String(),
		nullString(job.TemplatePath),
		job.Preview,
		job.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

// Update сохраняет итоговое состояние задания.
func (r *JobRepo) Update(ctx context.Context, job *domain.Job) error {
	query := `
		UPDATE merge_jobs
		SET state = $2, data_source = $3, first_row = $4, last_row = $5,
		    current_row = $6, rows_plotted = $7, pen_down_inches = $8,
		    pen_up_inches = $9, estimate_ms = $10, notice = $11, error = $12,
		    finished_at = $13
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query,
		job.ID,
		job.State.String(),
		nullString(job.DataSource),
		job.FirstRow,
		job.LastRow,
		job.CurrentRow,
		job.RowsPlotted,
		job.Stats.PenDownInches,
		job.Stats.PenUpInches,
		job.Stats.Estimate.Milliseconds(),
		nullString(job.Notice),
		nullString(job.Error),
		job.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID возвращает задание по ID.
func (r *JobRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM merge_jobs WHERE id = $1`
	return scanJob(r.pool.QueryRow(ctx, query, id))
}

// ListRecent возвращает последние задания, новые первыми.
func (r *JobRepo) ListRecent(ctx context.Context, limit int) ([]domain.Job, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT ` + jobColumns + ` FROM merge_jobs ORDER BY started_at DESC LIMIT $1`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []domain.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

// --- Helpers ---

// scanJob сканирует одну строку в Job. pgx.Rows тоже реализует pgx.Row.
func scanJob(row pgx.Row) (*domain.Job, error) {
	var job domain.Job
	var mode, state string
	var templatePath, dataSource, notice, jobError *string
	var estimateMs int64

	err := row.Scan(
		&job.ID,
		&mode,
		&state,
		&templatePath,
		&dataSource,
		&job.FirstRow,
		&job.LastRow,
		&job.CurrentRow,
		&job.RowsPlotted,
		&job.Stats.PenDownInches,
		&job.Stats.PenUpInches,
		&estimateMs,
		&job.Preview,
		&notice,
		&jobError,
		&job.StartedAt,
		&job.FinishedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan job: %w", err)
	}

	job.Mode = domain.JobMode(mode)
	job.State = domain.JobState(state)
	job.Stats.Estimate = time.Duration(estimateMs) * time.Millisecond
	job.TemplatePath = derefString(templatePath)
	job.DataSource = derefString(dataSource)
	job.Notice = derefString(notice)
	job.Error = derefString(jobError)

	return &job, nil
}

// nullString возвращает nil для пустой строки (для NULL в БД).
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// derefString возвращает "" для NULL.
func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
