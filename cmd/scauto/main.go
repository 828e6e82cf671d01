// scauto — инструмент командной строки для обработки flowcell.
//
// Использование:
//
//	scauto [--api-url URL] [--json] [--config FILE] <command> [flags]
//
// Команды:
//
//	flowcell     Запуски через API (list, show, samples, enqueue)
//	process      Обработать run sheet на этой машине
//	resources    Бюджет ресурсов для N образцов
//	chemistries  Поддерживаемые chemistry
//	skip         Skip-лист flowcell
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shaiso/scauto/internal/cli"
	"github.com/shaiso/scauto/internal/config"
	"github.com/shaiso/scauto/internal/telemetry"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var apiURL string
	var jsonOutput bool
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "scauto",
		Short:         "scauto: single-cell flowcell processing",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "http://localhost:8080", "API server URL")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv(config.EnvConfig), "Config file (YAML)")

	clientFn := func() *cli.Client { return cli.NewClient(apiURL) }
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }
	configFn := func() (*config.Config, error) { return config.Load(configPath) }
	// Логи в stderr: stdout занят выводом команд
	loggerFn := func() *slog.Logger {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: telemetry.LogLevel()}))
	}

	rootCmd.AddCommand(
		cli.NewFlowcellCmd(clientFn, outputFn),
		cli.NewProcessCmd(configFn, loggerFn, outputFn),
		cli.NewResourcesCmd(outputFn),
		cli.NewChemistriesCmd(outputFn),
		cli.NewSkipCmd(configFn, loggerFn, outputFn),
		cli.NewSheetCmd(configFn, outputFn),
	)

	// Ctrl-C отменяет запущенные инструменты
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
