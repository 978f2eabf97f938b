package swipe

import (
	"github.com/gofiber/fiber/v3"
	"github.com/swaply/swaply-api/internal/middleware"
)

// SetupRoutes настраивает маршруты для API свайпов
func (s *SwipeService) SetupRoutes(app *fiber.App) {
	// Группа для API свайпов
	api := app.Group("/api/swipes")

	// Защищенные маршруты (требуют авторизации)
	api.Use(middleware.AuthMiddleware(s.jwtService))

	// Маршрут для записи свайпа
	api.Post("/", s.RecordSwipe)

	// Маршрут для получения своих свайпов
	api.Get("/", s.GetMySwipes)

	// Маршрут для избранного (свайпы "вверх")
	api.Get("/wishlist", s.GetWishlist)
}
