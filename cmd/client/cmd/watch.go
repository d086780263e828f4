package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"drawsync/cmd/client/cmd/cli"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Синхронизировать в фоне до прерывания",
	Long: `Запускает периодическую синхронизацию и подписку на ленту изменений.
Команда работает до получения SIGINT или SIGTERM.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := cli.App(cmd)
		if err != nil {
			return err
		}
		out := cli.Out(cmd)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := app.Start(ctx); err != nil {
			return err
		}
		out.Success("Фоновая синхронизация запущена, Ctrl+C для остановки")

		<-ctx.Done()
		out.Line("Остановка...")

		return nil
	},
}
