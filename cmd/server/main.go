package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"drawsync/internal/app/client"
	"drawsync/internal/app/server"
	"drawsync/internal/config"
	"drawsync/internal/utils/logger"
)

func main() {
	configFile := flag.String("config", "", "конфигурационный файл")
	flag.Parse()

	conf := config.MustLoad(*configFile)
	log := logger.NewWithFile(conf.Env, conf.Logger.File, conf.Logger.MaxSizeMB)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	app, err := client.New(ctx, conf, log)
	if err != nil {
		log.Error("Ошибка инициализации приложения", "error", err)
		os.Exit(1)
	}

	if conf.HasRemote() {
		if err := app.Migrate(); err != nil {
			log.Warn("Миграции облачного хранилища не применены", "error", err)
		}
	}

	if err := server.New(conf, app, log).Run(ctx); err != nil {
		log.Error("Сервер остановлен с ошибкой", "error", err)
		os.Exit(1)
	}
}
