// Plotmerge — слияние табличных данных с SVG-шаблоном и печать
// по строке на страницу с паузой и продолжением.
//
// Использование:
//
//	plotmerge [--config FILE] [--json] [--preview] <command> TEMPLATE [flags]
//
// Команды:
//
//	plot      Печать диапазона строк
//	single    Печать одной строки
//	resume    Продолжение остановленного задания
//	query     Последняя напечатанная строка
//	data      Данные слияния в шаблоне
//	history   История заданий (DB_URL)
//	pause     Удалённая пауза (RABBITMQ_URL)
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shaiso/plotmerge/internal/cli"
	"github.com/shaiso/plotmerge/internal/telemetry"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	// Логи идут в stderr, stdout остаётся для отчёта
	logger := telemetry.SetupLogger()

	// Отмена останавливает задание на границе строк
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	ctx = telemetry.WithLogger(ctx, logger)

	var g cli.Globals

	rootCmd := &cobra.Command{
		Use:           "plotmerge",
		Short:         "Plotmerge — mail-merge plotting with pause and resume",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	g.Bind(rootCmd)

	rootCmd.AddCommand(
		cli.NewPlotCmd(&g),
		cli.NewSingleCmd(&g),
		cli.NewResumeCmd(&g),
		cli.NewQueryCmd(&g),
		cli.NewDataCmd(&g),
		cli.NewHistoryCmd(&g),
		cli.NewPauseCmd(&g),
	)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		cancel()
		os.Exit(1)
	}
}
