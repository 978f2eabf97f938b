package trade

import (
	"github.com/gofiber/fiber/v3"
	"github.com/swaply/swaply-api/internal/middleware"
)

// SetupRoutes настраивает маршруты для API предложений обмена
func (s *TradeService) SetupRoutes(app *fiber.App) {
	// Группа для API обменов
	api := app.Group("/api/trades")

	// Защищенные маршруты (требуют авторизации)
	api.Use(middleware.AuthMiddleware(s.jwtService))

	// Маршрут для получения списка предложений обмена
	api.Get("/", s.GetMyTrades)

	// Маршрут для получения одного предложения обмена
	api.Get("/:id", s.GetTrade)

	// Маршрут для обновления статуса предложения обмена
	api.Put("/:id/status", s.UpdateTradeStatus)
}
