package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/swaply/swaply-api/internal/config"
	"github.com/swaply/swaply-api/internal/db"
	"github.com/swaply/swaply-api/internal/escrow"
	"github.com/swaply/swaply-api/internal/events"
	"github.com/swaply/swaply-api/internal/store"
)

// Отдельный процесс автоматического выпуска средств: тот же планировщик,
// что встроен в API, но пригодный для запуска вне HTTP-сервера.
func main() {
	cfg := config.LoadConfig()

	if err := db.InitDB(cfg); err != nil {
		log.Fatalf("❌ Ошибка при инициализации базы данных: %v", err)
	}
	defer db.CloseDB()

	st := store.NewPostgresStore(db.Pool)

	var notifier events.Notifier = events.Log{}
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("❌ Неверный REDIS_URL: %v", err)
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()
		notifier = events.NewRedisNotifier(rdb, cfg.EventChannel)
	}

	machine := escrow.NewMachine(st, escrow.ReferenceValidator{}, notifier)

	scheduler := escrow.NewReleaseScheduler(machine, st, cfg.AutoReleaseBatch)
	scheduler.Start(cfg.AutoReleaseInterval)
	defer scheduler.Stop()

	// Ждём сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("🛑 Завершение работы воркера")
}
