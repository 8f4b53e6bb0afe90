package cli

import (
	"github.com/spf13/cobra"

	"github.com/shaiso/plotmerge/internal/domain"
	"github.com/shaiso/plotmerge/internal/orchestrator"
)

// NewPlotCmd создаёт команду печати диапазона строк.
func NewPlotCmd(g *Globals) *cobra.Command {
	var first, last int
	var delay float64

	cmd := &cobra.Command{
		Use:   "plot TEMPLATE",
		Short: "Merge and plot a range of data rows",
		Long: `Merge each data row into the template and plot it, from --first to --last.
Between rows the job waits --delay seconds and can be paused.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.Config(cmd)
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("first") {
				cfg.Merge.FirstRow = first
			}
			if cmd.Flags().Changed("last") {
				cfg.Merge.LastRow = last
			}
			if cmd.Flags().Changed("delay") {
				cfg.Merge.PageDelay = delay
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			return g.runJob(cmd, cfg, args[0], orchestrator.JobConfig{
				Mode:      domain.ModeContinuous,
				FirstRow:  cfg.Merge.FirstRow,
				LastRow:   cfg.Merge.LastRow,
				PageDelay: cfg.PageDelayDuration(),
			})
		},
	}

	cmd.Flags().IntVar(&first, "first", 1, "First row to plot (1-based)")
	cmd.Flags().IntVar(&last, "last", 0, "Last row to plot (0: through the end of the data)")
	cmd.Flags().Float64Var(&delay, "delay", 15, "Delay between rows, seconds")

	return cmd
}

// NewSingleCmd создаёт команду печати одной строки.
func NewSingleCmd(g *Globals) *cobra.Command {
	var row int
	var advance bool

	cmd := &cobra.Command{
		Use:   "single TEMPLATE",
		Short: "Merge and plot exactly one data row",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.Config(cmd)
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("row") {
				cfg.Merge.SingleRow = row
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			return g.runJob(cmd, cfg, args[0], orchestrator.JobConfig{
				Mode:      domain.ModeSingle,
				SingleRow: cfg.Merge.SingleRow,
				Advance:   advance,
			})
		},
	}

	cmd.Flags().IntVar(&row, "row", 1, "Row to plot (1-based)")
	cmd.Flags().BoolVar(&advance, "advance", false, "Plot the row after the last one merged")
	cmd.MarkFlagsMutuallyExclusive("row", "advance")

	return cmd
}

// NewResumeCmd создаёт команду продолжения остановленного задания.
func NewResumeCmd(g *Globals) *cobra.Command {
	var last int
	var delay float64

	cmd := &cobra.Command{
		Use:   "resume TEMPLATE",
		Short: "Resume a paused job from the progress saved in the document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.Config(cmd)
			if err != nil {
				return err
			}

			jc := orchestrator.JobConfig{Mode: domain.ModeResume}
			if cmd.Flags().Changed("last") {
				jc.LastRow = last
			}
			if cmd.Flags().Changed("delay") {
				cfg.Merge.PageDelay = delay
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			jc.PageDelay = cfg.PageDelayDuration()

			return g.runJob(cmd, cfg, args[0], jc)
		},
	}

	cmd.Flags().IntVar(&last, "last", 0, "Override the last row saved with the paused job")
	cmd.Flags().Float64Var(&delay, "delay", 15, "Delay between rows, seconds")

	return cmd
}

// NewQueryCmd создаёт команду отчёта о последней напечатанной строке.
func NewQueryCmd(g *Globals) *cobra.Command {
	return &cobra.Command{
		Use:   "query TEMPLATE",
		Short: "Report the last row merged into the document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.Config(cmd)
			if err != nil {
				return err
			}
			return g.runJob(cmd, cfg, args[0], orchestrator.JobConfig{Mode: domain.ModeQuery})
		},
	}
}
