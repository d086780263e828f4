package draw

import (
	"fmt"

	"github.com/spf13/cobra"

	"drawsync/cmd/client/cmd/cli"
)

var DeleteCmd = &cobra.Command{
	Use:   "delete NAME DATE",
	Short: "Удалить результат тиража",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.App(cmd)
		if err != nil {
			return err
		}

		id, err := parseID(args)
		if err != nil {
			return err
		}

		op, err := app.Delete(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("ошибка удаления тиража: %w", err)
		}

		return printQueued(cli.Out(cmd), op)
	},
}
