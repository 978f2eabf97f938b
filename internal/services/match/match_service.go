package match

import (
	"log"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/swaply/swaply-api/internal/config"
	"github.com/swaply/swaply-api/internal/db"
	"github.com/swaply/swaply-api/internal/store"
	"github.com/swaply/swaply-api/internal/utils"
)

// MatchService представляет сервис для работы с матчами
type MatchService struct {
	cfg        *config.Config
	jwtService *utils.JWTService
	store      store.Store
}

// NewMatchService создает новый экземпляр MatchService
func NewMatchService(cfg *config.Config, st store.Store) *MatchService {
	return &MatchService{
		cfg:        cfg,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
		store:      st,
	}
}

// GetMyMatches возвращает список матчей пользователя
func (s *MatchService) GetMyMatches(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	matches, err := s.store.ListMatches(ctx, userUUID)
	if err != nil {
		log.Printf("Ошибка запроса матчей: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения матчей"})
	}

	// Подгружаем стороны и объявления
	for i := range matches {
		if user1, err := s.store.GetUser(ctx, matches[i].User1ID); err == nil {
			matches[i].User1 = user1
		}
		if user2, err := s.store.GetUser(ctx, matches[i].User2ID); err == nil {
			matches[i].User2 = user2
		}
		if listing1, err := s.store.GetListing(ctx, matches[i].Listing1ID); err == nil {
			matches[i].Listing1 = listing1
		}
		if listing2, err := s.store.GetListing(ctx, matches[i].Listing2ID); err == nil {
			matches[i].Listing2 = listing2
		}
	}

	return c.JSON(fiber.Map{
		"matches": matches,
		"count":   len(matches),
	})
}
