package draw

import (
	"fmt"

	"github.com/spf13/cobra"

	"drawsync/cmd/client/cmd/cli"
	"drawsync/internal/domain/draw"
)

var (
	winning []int
	machine []int
)

var CreateCmd = &cobra.Command{
	Use:   "create NAME DATE",
	Short: "Добавить результат тиража",
	Example: `  drawsync draw create Reveil 2024-01-01 --winning 5,12,33,47,90
  drawsync draw create Reveil 2024-01-02 --winning 1,2,3,4,5 --machine 6,7,8,9,10`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return save(cmd, args, false)
	},
}

var UpdateCmd = &cobra.Command{
	Use:   "update NAME DATE",
	Short: "Заменить номера существующего тиража",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return save(cmd, args, true)
	},
}

func save(cmd *cobra.Command, args []string, update bool) error {
	app, err := cli.App(cmd)
	if err != nil {
		return err
	}

	id, err := parseID(args)
	if err != nil {
		return err
	}

	d := &draw.DrawResult{
		DrawName:       id.Name,
		DrawDate:       id.Date,
		WinningNumbers: winning,
		MachineNumbers: machine,
	}

	store := app.Create
	if update {
		store = app.Update
	}

	op, err := store(cmd.Context(), d)
	if err != nil {
		return fmt.Errorf("ошибка сохранения тиража: %w", err)
	}

	return printQueued(cli.Out(cmd), op)
}

func init() {
	for _, c := range []*cobra.Command{CreateCmd, UpdateCmd} {
		c.Flags().IntSliceVarP(&winning, "winning", "w", nil, "выигрышные номера (5 чисел 1-90)")
		c.Flags().IntSliceVarP(&machine, "machine", "m", nil, "номера машины (5 чисел 1-90)")
		_ = c.MarkFlagRequired("winning")
	}
}
