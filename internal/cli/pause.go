package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shaiso/plotmerge/internal/mq"
	"github.com/shaiso/plotmerge/internal/telemetry"
)

// NewPauseCmd создаёт команду удалённой паузы.
func NewPauseCmd(g *Globals) *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "pause [JOB_ID]",
		Short: "Ask a running job (or all jobs) to pause before the next row",
		Long: `Publish a pause command to RabbitMQ. Jobs started with pause.remote
stop at the next row boundary. Without JOB_ID every listening job pauses.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := g.Output(cmd)

			cfg, err := g.Config(cmd)
			if err != nil {
				return err
			}
			url := cfg.RabbitMQURL
			if url == "" {
				url = mq.DefaultURL()
			}

			var jobID string
			if len(args) == 1 {
				jobID = args[0]
			}

			logger := telemetry.FromContext(cmd.Context())
			conn, err := mq.NewConnection(url, logger)
			if err != nil {
				return err
			}
			defer conn.Close()

			if err := mq.SetupTopology(cmd.Context(), conn); err != nil {
				return err
			}

			publisher := mq.NewPublisher(conn, logger)
			if err := publisher.PublishPause(cmd.Context(), jobID, reason); err != nil {
				return err
			}

			if jobID == "" {
				out.Success("Pause requested for all jobs")
			} else {
				out.Success(fmt.Sprintf("Pause requested for job %s", jobID))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "Reason shown in the job log")

	return cmd
}
