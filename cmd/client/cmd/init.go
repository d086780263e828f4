package cmd

import (
	"github.com/spf13/cobra"

	"drawsync/cmd/client/cmd/cli"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Инициализировать клиент drawsync",
	Long: `Команда init выполняет первоначальную настройку клиента:
	1. Создает директорию данных и локальную базу
	2. Проверяет соединение с облачным хранилищем
	3. Применяет миграции схемы облачного хранилища

Без облачного хранилища клиент работает в офлайн-режиме.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := cli.App(cmd)
		if err != nil {
			return err
		}
		out := cli.Out(cmd)

		out.Title("=== Инициализация drawsync ===")
		out.Success("Локальное хранилище готово")

		if err := app.CheckConnection(cmd.Context()); err != nil {
			out.Warn("Облачное хранилище недоступно: %v", err)
			out.Line("Изменения будут накапливаться в очереди до восстановления соединения.")
			return nil
		}
		out.Success("Соединение с облачным хранилищем установлено")

		if err := app.Migrate(); err != nil {
			out.Warn("Миграции не применены: %v", err)
			return nil
		}
		out.Success("Схема облачного хранилища актуальна")

		return nil
	},
}

