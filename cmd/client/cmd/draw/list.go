package draw

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"drawsync/cmd/client/cmd/cli"
	"drawsync/internal/domain/draw"
)

var (
	listName string
	listFrom string
	listTo   string
	limit    int
)

var ListCmd = &cobra.Command{
	Use:   "list",
	Short: "Список результатов тиражей",
	Long: `Просмотр результатов из локальной реплики с фильтрацией по названию
и диапазону дат.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := cli.App(cmd)
		if err != nil {
			return err
		}
		out := cli.Out(cmd)

		draws, err := app.List(cmd.Context(), &draw.Filter{
			DrawName: listName,
			DateFrom: listFrom,
			DateTo:   listTo,
			Limit:    limit,
		})
		if err != nil {
			return fmt.Errorf("ошибка получения списка тиражей: %w", err)
		}

		if out.JSON() {
			return out.Encode(draws)
		}
		if len(draws) == 0 {
			out.Line("Тиражи не найдены")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "НАЗВАНИЕ\tДАТА\tВЫИГРЫШ\tМАШИНА")
		for _, d := range draws {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				d.DrawName, d.DrawDate, joinNumbers(d.WinningNumbers), joinNumbers(d.MachineNumbers))
		}
		if err := w.Flush(); err != nil {
			return err
		}
		out.Line("\nВсего: %d", len(draws))

		return nil
	},
}

func init() {
	ListCmd.Flags().StringVarP(&listName, "name", "n", "", "название тиража")
	ListCmd.Flags().StringVar(&listFrom, "from", "", "начальная дата (YYYY-MM-DD)")
	ListCmd.Flags().StringVar(&listTo, "to", "", "конечная дата (YYYY-MM-DD)")
	ListCmd.Flags().IntVarP(&limit, "limit", "l", 0, "максимальное число записей")
}
