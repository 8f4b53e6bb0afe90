package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/shaiso/plotmerge/internal/domain"
	"github.com/shaiso/plotmerge/internal/repo"
)

// NewHistoryCmd создаёт команду просмотра истории заданий.
func NewHistoryCmd(g *Globals) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [JOB_ID]",
		Short: "List recent merge jobs or show one (requires DB_URL)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := g.Output(cmd)

			cfg, err := g.Config(cmd)
			if err != nil {
				return err
			}
			if cfg.DBURL == "" {
				return fmt.Errorf("job history requires DB_URL")
			}

			pool, err := repo.NewPool(cmd.Context(), cfg.DBURL)
			if err != nil {
				return err
			}
			defer pool.Close()

			jobs := repo.NewJobRepo(pool)
			if err := jobs.EnsureSchema(cmd.Context()); err != nil {
				return err
			}

			if len(args) == 1 {
				id, err := uuid.Parse(args[0])
				if err != nil {
					return fmt.Errorf("invalid job id %q: %w", args[0], err)
				}
				job, err := jobs.GetByID(cmd.Context(), id)
				if err != nil {
					return err
				}
				out.Print(historyHeaders, historyRows([]domain.Job{*job}), job)
				return nil
			}

			list, err := jobs.ListRecent(cmd.Context(), limit)
			if err != nil {
				return err
			}

			out.Print(historyHeaders, historyRows(list), list)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of jobs")

	return cmd
}

var historyHeaders = []string{"ID", "MODE", "STATE", "ROWS", "RANGE", "STARTED", "ELAPSED"}

func historyRows(jobs []domain.Job) [][]string {
	rows := make([][]string, len(jobs))
	for i, j := range jobs {
		elapsed := "-"
		if j.FinishedAt != nil {
			elapsed = j.Elapsed(*j.FinishedAt).Round(time.Second).String()
		}
		rows[i] = []string{
			j.ID.String(),
			string(j.Mode),
			j.State.String(),
			strconv.Itoa(j.RowsPlotted),
			fmt.Sprintf("%d-%d", j.FirstRow, j.LastRow),
			j.StartedAt.Local().Format(time.DateTime),
			elapsed,
		}
	}
	return rows
}
