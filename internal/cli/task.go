package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// NewTaskCmd создаёт группу команд для управления queued tasks.
func NewTaskCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage queued tasks",
	}

	cmd.AddCommand(
		newTaskEnqueueCmd(clientFn, outputFn),
		newTaskShowCmd(clientFn, outputFn),
	)

	return cmd
}

func newTaskEnqueueCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var toolArgs []string
	var maxRetries int
	var correlationID string

	cmd := &cobra.Command{
		Use:   "enqueue TASK",
		Short: "Enqueue a task for asynchronous execution",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			parsed, err := parseToolArgs(toolArgs)
			if err != nil {
				return err
			}

			req := EnqueueRequest{
				TaskName:      args[0],
				Args:          parsed,
				CorrelationID: correlationID,
			}

			if cmd.Flags().Changed("max-retries") {
				req.MaxRetries = &maxRetries
			}

			resp, err := client.EnqueueTask(req)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Task enqueued: %s", resp.UnitID))
			out.Print(
				[]string{"UNIT_ID", "TASK", "QUEUE", "STATUS", "CORRELATION_ID"},
				[][]string{{resp.UnitID, resp.TaskName, resp.Queue, resp.Status, resp.CorrelationID}},
				resp,
			)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&toolArgs, "arg", nil, "Task argument as KEY=VALUE (repeatable)")
	cmd.Flags().IntVar(&maxRetries, "max-retries", 0, "Retry budget (server default if not specified)")
	cmd.Flags().StringVar(&correlationID, "correlation-id", "", "Correlation ID for tracing")

	return cmd
}

func newTaskShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show work unit details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			unit, err := client.GetUnit(args[0])
			if err != nil {
				return err
			}

			retries := strconv.Itoa(unit.RetryCount) + "/" + strconv.Itoa(unit.MaxRetries)
			out.Print(
				[]string{"ID", "TASK", "STATUS", "RETRIES", "ERROR", "ENQUEUED"},
				[][]string{{unit.ID, unit.TaskName, unit.Status, retries, unit.LastError, unit.EnqueuedAt}},
				unit,
			)
			return nil
		},
	}
}
