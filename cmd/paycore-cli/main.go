// Paycore CLI — инструмент командной строки для вызова tools,
// постановки задач и просмотра dead letters через HTTP API.
//
// Использование:
//
//	paycore [--api-url URL] [--json] <command> <subcommand> [flags]
//
// Команды:
//
//	call         Синхронный вызов tool
//	task         Управление queued tasks
//	dead-letter  Просмотр dead letters
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shakhov/paycore/internal/cli"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var apiURL string
	var jsonOutput bool

	rootCmd := &cobra.Command{
		Use:           "paycore",
		Short:         "Paycore CLI — payment platform job tooling",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "http://localhost:8080", "API server URL")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	clientFn := func() *cli.Client { return cli.NewClient(apiURL) }
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	rootCmd.AddCommand(
		cli.NewCallCmd(clientFn, outputFn),
		cli.NewTaskCmd(clientFn, outputFn),
		cli.NewDeadLetterCmd(clientFn, outputFn),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
