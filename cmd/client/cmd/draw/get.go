package draw

import (
	"fmt"

	"github.com/spf13/cobra"

	"drawsync/cmd/client/cmd/cli"
)

var GetCmd = &cobra.Command{
	Use:   "get NAME DATE",
	Short: "Показать результат тиража",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.App(cmd)
		if err != nil {
			return err
		}
		out := cli.Out(cmd)

		id, err := parseID(args)
		if err != nil {
			return err
		}

		d, err := app.Get(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("ошибка получения тиража: %w", err)
		}

		if out.JSON() {
			return out.Encode(d)
		}
		printDraw(out, d)

		return nil
	},
}
