package match

import (
	"github.com/gofiber/fiber/v3"
	"github.com/swaply/swaply-api/internal/middleware"
)

// SetupRoutes настраивает маршруты для API матчей
func (s *MatchService) SetupRoutes(app *fiber.App) {
	// Группа для API матчей
	api := app.Group("/api/matches")

	// Защищенные маршруты (требуют авторизации)
	api.Use(middleware.AuthMiddleware(s.jwtService))

	// Маршрут для получения списка матчей
	api.Get("/", s.GetMyMatches)
}
