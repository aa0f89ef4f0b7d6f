package main

import (
	"context"
	"flag"
	"log"

	"taskhub/internal/app"
	"taskhub/internal/config"
)

func main() {
	configPath := flag.String("config", "config.yml", "путь к файлу конфигурации")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("загрузка конфигурации: %v", err)
	}

	application := app.New(cfg)
	if err := application.Init(context.Background()); err != nil {
		log.Fatalf("инициализация приложения: %v", err)
	}

	if err := application.Run(); err != nil {
		log.Fatalf("запуск приложения: %v", err)
	}
}
