package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"drawsync/cmd/client/cmd/cli"
	"drawsync/cmd/client/cmd/sync"
)

const timeFormat = "2006-01-02 15:04:05"

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Показать статус синхронизации",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := cli.App(cmd)
		if err != nil {
			return err
		}
		out := cli.Out(cmd)

		st, err := app.Status(cmd.Context())
		if err != nil {
			return err
		}
		if out.JSON() {
			return out.Encode(st)
		}

		out.Title("=== Статус синхронизации ===")
		if st.HasWatermark {
			out.Line("Последняя загрузка: %s", st.Watermark.Local().Format(timeFormat))
		} else {
			out.Line("Последняя загрузка: не выполнялась")
		}

		out.Line("Отложенных операций: %d", len(st.Pending))
		for _, op := range st.Pending {
			line := string(op.Kind) + " " + op.TargetID.String()
			if op.Attempts > 0 {
				out.Warn("%s (попыток: %d, ошибка: %s)", line, op.Attempts, op.LastError)
				continue
			}
			out.Line("  %s", line)
		}

		if st.LastResult != nil {
			out.Line("")
			sync.PrintResult(out, st.LastResult)
		}

		out.Line("")
		if err := app.CheckConnection(cmd.Context()); err != nil {
			out.Fail("Облачное хранилище: %v", err)
		} else {
			out.Success("Облачное хранилище: доступно")
		}

		stats := st.Stats
		if !stats.LastSuccessful.IsZero() {
			out.Line("Последняя успешная синхронизация: %s", stats.LastSuccessful.Format(timeFormat))
		}
		if stats.TotalSyncs > 0 {
			out.Line("Среднее время: %v", time.Duration(stats.AvgSyncDuration*float64(time.Second)).Round(time.Millisecond))
		}

		return nil
	},
}
