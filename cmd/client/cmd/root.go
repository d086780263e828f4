package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/exp/slog"

	"drawsync/cmd/client/cmd/cli"
	"drawsync/cmd/client/cmd/draw"
	"drawsync/cmd/client/cmd/sync"
	"drawsync/internal/app/client"
	"drawsync/internal/config"
	"drawsync/internal/utils/logger"
)

var (
	cfgFile    string
	debug      bool
	jsonOutput bool

	app *client.App
)

var rootCmd = &cobra.Command{
	Use:   "drawsync",
	Short: "drawsync - офлайн-реплика результатов тиражей",
	Long: `drawsync хранит результаты тиражей в локальной базе и синхронизирует их
с облачным хранилищем.

Изменения, сделанные без сети, ставятся в очередь и отправляются
при следующей синхронизации.`,
	PersistentPreRunE: setupApp,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

func Execute() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка: %v\n", err)
		os.Exit(1)
	}
}

// run выполняет команду и всегда закрывает приложение
func run(ctx context.Context, args []string, out io.Writer) error {
	defer teardown()

	rootCmd.SetArgs(args)
	rootCmd.SetOut(out)

	return rootCmd.ExecuteContext(ctx)
}

func setupApp(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("ошибка загрузки конфигурации: %w", err)
	}

	log := newLogger(cfg)

	app, err = client.New(cmd.Context(), cfg, log)
	if err != nil {
		return fmt.Errorf("ошибка инициализации приложения: %w", err)
	}

	ctx := cli.WithApp(cmd.Context(), app)
	ctx = cli.WithPrinter(ctx, cli.NewPrinter(cmd.OutOrStdout(), jsonOutput))
	cmd.SetContext(ctx)

	return nil
}

// newLogger в обычном режиме пишет только в файл, чтобы не смешивать логи с выводом команд
func newLogger(cfg *config.Config) *slog.Logger {
	switch {
	case debug:
		return logger.New(config.EnvLocal)
	case cfg.Logger.File != "":
		return logger.NewWithFile(cfg.Env, cfg.Logger.File, cfg.Logger.MaxSizeMB)
	default:
		return logger.Discard()
	}
}

func teardown() {
	if app != nil {
		app.Shutdown()
		app = nil
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "конфигурационный файл")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "включить отладочный режим")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "вывод в формате JSON")

	rootCmd.AddCommand(initCmd, statusCmd, watchCmd)
	rootCmd.AddCommand(sync.SyncCmd)

	rootCmd.AddCommand(draw.DrawCmd)
	draw.DrawCmd.AddCommand(draw.CreateCmd, draw.UpdateCmd, draw.DeleteCmd, draw.GetCmd, draw.ListCmd)
}
