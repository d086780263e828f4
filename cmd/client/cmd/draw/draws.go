package draw

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"drawsync/cmd/client/cmd/cli"
	"drawsync/internal/domain/draw"
	"drawsync/internal/domain/sync"
)

var DrawCmd = &cobra.Command{
	Use:     "draw",
	Aliases: []string{"draws"},
	Short:   "Управление результатами тиражей",
	Long: `Команды для работы с результатами тиражей в локальной реплике.

Изменения применяются к локальной базе сразу и отправляются в облако
при следующей синхронизации.`,
}

// parseID собирает ключ тиража из аргументов NAME DATE
func parseID(args []string) (draw.ID, error) {
	return draw.ParseID(strings.TrimSpace(args[0]) + "/" + strings.TrimSpace(args[1]))
}

func printDraw(out *cli.Printer, d *draw.DrawResult) {
	out.Title("%s  %s", d.DrawName, d.DrawDate)
	out.Line("Выигрышные номера: %s", joinNumbers(d.WinningNumbers))
	if d.HasMachineNumbers() {
		out.Line("Номера машины:     %s", joinNumbers(d.MachineNumbers))
	}
	if !d.UpdatedAt.IsZero() {
		out.Line("Обновлено:         %s", d.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
	}
}

func printQueued(out *cli.Printer, op *sync.Operation) error {
	if out.JSON() {
		return out.Encode(op)
	}
	out.Success("%s %s сохранено локально", op.Kind, op.TargetID)
	out.Line("Операция %s ожидает синхронизации", op.ID)
	return nil
}

func joinNumbers(numbers []int) string {
	parts := make([]string, len(numbers))
	for i, n := range numbers {
		parts[i] = fmt.Sprintf("%2d", n)
	}
	return strings.Join(parts, " ")
}
