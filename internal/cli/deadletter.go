package cli

import (
	"strconv"

	"github.com/spf13/cobra"
)

// NewDeadLetterCmd создаёт группу команд для работы с dead letters.
func NewDeadLetterCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dead-letter",
		Short: "Inspect dead letters",
	}

	cmd.AddCommand(
		newDeadLetterListCmd(clientFn, outputFn),
	)

	return cmd
}

func newDeadLetterListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List dead letters, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			letters, err := client.ListDeadLetters(limit)
			if err != nil {
				return err
			}

			headers := []string{"UNIT_ID", "TASK", "ATTEMPTS", "REASON", "DEAD_LETTERED"}
			rows := make([][]string, len(letters))
			for i, dl := range letters {
				rows[i] = []string{dl.UnitID, dl.TaskName, strconv.Itoa(dl.Attempts), dl.Reason, dl.DeadLetteredAt}
			}

			out.Print(headers, rows, letters)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of results")

	return cmd
}
