package chat

import (
	"github.com/gofiber/fiber/v3"
	"github.com/swaply/swaply-api/internal/middleware"
)

// SetupRoutes настраивает маршруты для API переписок
func (s *ChatService) SetupRoutes(app *fiber.App) {
	// Группа для API переписок
	api := app.Group("/api/chats")

	// Защищенные маршруты (требуют авторизации)
	api.Use(middleware.AuthMiddleware(s.jwtService))

	// Маршрут для получения всех переписок пользователя
	api.Get("/", s.GetChats)

	// Маршрут для получения сообщений переписки
	api.Get("/:id/messages", s.GetChatMessages)

	// Маршрут для отправки сообщения
	api.Post("/:id/messages", s.SendMessage)
}
