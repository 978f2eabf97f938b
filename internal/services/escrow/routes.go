package escrow

import (
	"github.com/gofiber/fiber/v3"
	"github.com/swaply/swaply-api/internal/middleware"
)

// SetupRoutes настраивает маршруты для API сделок эскроу
func (s *EscrowService) SetupRoutes(app *fiber.App) {
	// Группа для API сделок
	api := app.Group("/api/escrow")

	// Защищенные маршруты (требуют авторизации)
	api.Use(middleware.AuthMiddleware(s.jwtService))

	// Маршрут для создания сделки
	api.Post("/", s.CreateTransaction)

	// Маршрут для получения своих сделок
	api.Get("/", s.GetMyTransactions)

	// Маршрут для получения одной сделки
	api.Get("/:id", s.GetTransaction)

	// Маршруты переходов жизненного цикла сделки
	api.Post("/:id/confirm-payment", s.ConfirmPayment)
	api.Post("/:id/delivered", s.MarkDelivered)
	api.Post("/:id/acknowledge", s.AcknowledgeService)
	api.Post("/:id/confirm", s.ConfirmDelivery)
	api.Post("/:id/dispute", s.OpenDispute)
}
