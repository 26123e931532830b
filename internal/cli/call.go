package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// NewCallCmd создаёт команду синхронного вызова tool через JSON-RPC.
func NewCallCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var toolArgs []string

	cmd := &cobra.Command{
		Use:   "call TOOL",
		Short: "Call a tool synchronously",
		Long: `Call a tool synchronously through the JSON-RPC endpoint.

Arguments are passed as KEY=VALUE pairs. Values are parsed as JSON
when possible (numbers, booleans, objects), otherwise as strings:

  paycore call wallets.balance --arg wallet_id=w1
  paycore call payments.create --arg wallet_id=w1 --arg amount=49.90`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			parsed, err := parseToolArgs(toolArgs)
			if err != nil {
				return err
			}

			result, err := client.CallTool(args[0], parsed)
			if err != nil {
				return err
			}

			// Результат tool — произвольный JSON, таблицей не показать
			var v any
			if err := json.Unmarshal(result, &v); err != nil {
				return fmt.Errorf("failed to decode result: %w", err)
			}
			out.JSON(v)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&toolArgs, "arg", nil, "Tool argument as KEY=VALUE (repeatable)")

	return cmd
}

// parseToolArgs разбирает пары KEY=VALUE. Значение сначала пробуется
// как JSON-литерал, чтобы числа и booleans не превращались в строки.
func parseToolArgs(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	args := make(map[string]any, len(pairs))
	for _, kv := range pairs {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 || parts[0] == "" {
			return nil, fmt.Errorf("invalid argument format %q, expected KEY=VALUE", kv)
		}

		var v any
		if err := json.Unmarshal([]byte(parts[1]), &v); err != nil {
			v = parts[1]
		}
		args[parts[0]] = v
	}
	return args, nil
}
