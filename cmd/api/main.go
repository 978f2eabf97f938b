package main

import (
	"log"
	"net/http"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/swaply/swaply-api/internal/config"
	"github.com/swaply/swaply-api/internal/db"
	"github.com/swaply/swaply-api/internal/escrow"
	"github.com/swaply/swaply-api/internal/events"
	"github.com/swaply/swaply-api/internal/matchengine"
	"github.com/swaply/swaply-api/internal/services/chat"
	escrowservice "github.com/swaply/swaply-api/internal/services/escrow"
	"github.com/swaply/swaply-api/internal/services/match"
	"github.com/swaply/swaply-api/internal/services/swipe"
	"github.com/swaply/swaply-api/internal/services/trade"
	"github.com/swaply/swaply-api/internal/store"
	"github.com/swaply/swaply-api/internal/utils"
	ws "github.com/swaply/swaply-api/internal/websocket"
)

func main() {
	// Загружаем конфигурацию
	cfg := config.LoadConfig()

	// Инициализируем базу данных
	if err := db.InitDB(cfg); err != nil {
		log.Fatalf("❌ Ошибка при инициализации базы данных: %v", err)
	}
	defer db.CloseDB()

	st := store.NewPostgresStore(db.Pool)

	// Менеджер WebSocket соединений и сервер для них
	wsManager := ws.NewManager()
	defer wsManager.Shutdown()

	jwtService := utils.NewJWTService(cfg.JWTSecret)

	wsMux := http.NewServeMux()
	wsMux.Handle("/ws", ws.Handler(wsManager, jwtService))
	wsMux.Handle("/metrics", promhttp.Handler())
	go func() {
		log.Printf("✅ WebSocket сервер запущен на %s", cfg.WSAddr)
		if err := http.ListenAndServe(cfg.WSAddr, wsMux); err != nil {
			log.Fatalf("❌ Ошибка WebSocket сервера: %v", err)
		}
	}()

	// Собираем цепочку нотификаторов: WebSocket всегда, Redis — если задан
	notifiers := events.Multi{events.NewWSNotifier(wsManager)}
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("❌ Неверный REDIS_URL: %v", err)
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()
		notifiers = append(notifiers, events.NewRedisNotifier(rdb, cfg.EventChannel))
	} else {
		log.Println("⚠️ REDIS_URL не задан, события публикуются только в WebSocket")
		notifiers = append(notifiers, events.Log{})
	}

	// Ядро: движок матчинга и машина состояний эскроу
	engine := matchengine.NewEngine(st, notifiers)
	machine := escrow.NewMachine(st, escrow.ReferenceValidator{}, notifiers)

	// Планировщик автоматического выпуска средств
	scheduler := escrow.NewReleaseScheduler(machine, st, cfg.AutoReleaseBatch)
	scheduler.Start(cfg.AutoReleaseInterval)
	defer scheduler.Stop()

	// Создаём экземпляр Fiber
	app := fiber.New(fiber.Config{
		AppName:      "Swaply API",
		ErrorHandler: errorHandler,
	})

	// Добавляем middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowCredentials: false,
	}))

	// Регистрируем маршруты
	swipe.NewSwipeService(cfg, engine, st).SetupRoutes(app)
	trade.NewTradeService(cfg, engine, st).SetupRoutes(app)
	match.NewMatchService(cfg, st).SetupRoutes(app)
	escrowservice.NewEscrowService(cfg, machine, st).SetupRoutes(app)
	chat.NewChatService(cfg, st, notifiers).SetupRoutes(app)

	// Запускаем сервер
	log.Printf("✅ Swaply API запущен на %s", cfg.HTTPAddr)
	log.Fatal(app.Listen(cfg.HTTPAddr))
}

// errorHandler обрабатывает ошибки Fiber
func errorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	// Проверяем, является ли ошибка из Fiber
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	// Отправляем ошибку в JSON
	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
