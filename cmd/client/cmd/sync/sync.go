package sync

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"drawsync/cmd/client/cmd/cli"
	domain "drawsync/internal/domain/sync"
)

const maxShownFailures = 3

var (
	pushOnly bool
	pullOnly bool
)

var SyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Синхронизировать с облачным хранилищем",
	Long: `Синхронизация локальной реплики с облачным хранилищем.

По умолчанию сначала отправляются отложенные изменения, затем загружаются
записи, измененные в облаке после последней успешной загрузки.
Флаги --push и --pull запускают только одну фазу.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if pushOnly && pullOnly {
			return errors.New("flags --push and --pull are mutually exclusive")
		}

		app, err := cli.App(cmd)
		if err != nil {
			return err
		}
		out := cli.Out(cmd)

		phase := domain.PhaseBidirectional
		switch {
		case pushOnly:
			phase = domain.PhasePush
		case pullOnly:
			phase = domain.PhasePull
		}

		res, syncErr := app.Sync(cmd.Context(), phase)
		if res == nil {
			return fmt.Errorf("ошибка синхронизации: %w", syncErr)
		}

		if out.JSON() {
			if err := out.Encode(res); err != nil {
				return err
			}
		} else {
			PrintResult(out, res)
		}

		// одна частичная ошибка отправки не фатальна, операции остаются в очереди
		if _, partial := syncErr.(*domain.PartialSyncFailure); syncErr != nil && !partial {
			return fmt.Errorf("ошибка синхронизации: %w", syncErr)
		}
		if syncErr == nil && res.Failed > 0 && !out.JSON() {
			out.Warn("Неотправленные операции остались в очереди")
		}

		return nil
	},
}

// PrintResult печатает итог цикла синхронизации
func PrintResult(out *cli.Printer, res *domain.Result) {
	if res.Skipped {
		out.Warn("Синхронизация уже выполняется, вызов пропущен")
		return
	}

	if res.Failed == 0 {
		out.Success("Синхронизация завершена (%s)", res.Phase)
	} else {
		out.Warn("Синхронизация завершена с ошибками (%s)", res.Phase)
	}

	out.Line("Время выполнения: %v", res.Duration.Round(time.Millisecond))
	out.Line("Отправлено: %d, удалено: %d", res.Inserted, res.Deleted)
	out.Line("Загружено из облака: %d", res.Downloaded)
	if res.Deferred > 0 {
		out.Line("Отложено до отправки локальных изменений: %d", res.Deferred)
	}
	if res.Rejected > 0 {
		out.Warn("Отклонено проверкой, ждут исправления: %d", res.Rejected)
	}
	if !res.Watermark.IsZero() {
		out.Line("Отметка синхронизации: %s", res.Watermark.Format(time.RFC3339))
	}

	if res.Failed == 0 {
		return
	}

	out.Line("Ошибок: %d", res.Failed)
	for i, f := range res.Failures {
		if i == maxShownFailures {
			out.Line("  ... и еще %d", len(res.Failures)-maxShownFailures)
			break
		}
		out.Fail("%s %s: %s", f.Kind, f.DrawID, f.Error)
	}
}

func init() {
	SyncCmd.Flags().BoolVar(&pushOnly, "push", false, "только отправить отложенные изменения")
	SyncCmd.Flags().BoolVar(&pullOnly, "pull", false, "только загрузить изменения из облака")
}
