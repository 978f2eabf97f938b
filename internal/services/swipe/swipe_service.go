package swipe

import (
	"log"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/swaply/swaply-api/internal/config"
	"github.com/swaply/swaply-api/internal/db"
	"github.com/swaply/swaply-api/internal/matchengine"
	"github.com/swaply/swaply-api/internal/models"
	"github.com/swaply/swaply-api/internal/store"
	"github.com/swaply/swaply-api/internal/swaperr"
	"github.com/swaply/swaply-api/internal/utils"
)

// SwipeService представляет сервис для записи свайпов
type SwipeService struct {
	cfg        *config.Config
	jwtService *utils.JWTService
	engine     *matchengine.Engine
	store      store.Store
}

// NewSwipeService создает новый экземпляр SwipeService
func NewSwipeService(cfg *config.Config, engine *matchengine.Engine, st store.Store) *SwipeService {
	return &SwipeService{
		cfg:        cfg,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
		engine:     engine,
		store:      st,
	}
}

// RecordSwipe записывает свайп пользователя по объявлению
func (s *SwipeService) RecordSwipe(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	actorID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	// Извлекаем данные из запроса
	var requestData struct {
		TargetListingID  string `json:"target_listing_id"`
		Direction        string `json:"direction"`
		OfferedListingID string `json:"offered_listing_id"`
		Message          string `json:"message"`
	}

	if err := c.Bind().Body(&requestData); err != nil {
		log.Printf("Ошибка декодирования тела запроса: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	if requestData.TargetListingID == "" || requestData.Direction == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Необходимо указать объявление и направление свайпа"})
	}

	targetID, err := uuid.Parse(requestData.TargetListingID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID объявления"})
	}

	req := matchengine.SwipeRequest{
		TargetListingID: targetID,
		Direction:       models.SwipeDirection(requestData.Direction),
		Message:         requestData.Message,
	}

	if requestData.OfferedListingID != "" {
		offeredID, err := uuid.Parse(requestData.OfferedListingID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID предлагаемого объявления"})
		}
		req.OfferedListingID = &offeredID
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	result, err := s.engine.RecordSwipe(ctx, actorID, req)
	if err != nil {
		return handleError(c, err, "Ошибка записи свайпа")
	}

	response := fiber.Map{
		"success":       true,
		"swipe":         result.Swipe,
		"match_created": result.MatchCreated,
	}
	if result.Offer != nil {
		response["offer"] = result.Offer
	}
	if result.Match != nil {
		response["match_id"] = result.Match.ID
		response["conversation_id"] = result.Conversation.ID
	}

	return c.JSON(response)
}

// GetMySwipes возвращает свайпы пользователя, опционально по направлению
func (s *SwipeService) GetMySwipes(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	actorID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	direction := models.SwipeDirection(c.Query("direction"))
	if direction != "" && !direction.Valid() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Недопустимое направление свайпа"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	swipes, err := s.store.ListSwipes(ctx, actorID, direction)
	if err != nil {
		log.Printf("Ошибка запроса свайпов: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения свайпов"})
	}

	return c.JSON(fiber.Map{
		"swipes": swipes,
		"count":  len(swipes),
	})
}

// GetWishlist возвращает объявления, отмеченные свайпом "вверх"
func (s *SwipeService) GetWishlist(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	actorID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	swipes, err := s.store.ListSwipes(ctx, actorID, models.SwipeUp)
	if err != nil {
		log.Printf("Ошибка запроса избранного: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения избранного"})
	}

	// Подгружаем сами объявления
	for i := range swipes {
		listing, err := s.store.GetListing(ctx, swipes[i].TargetListingID)
		if err != nil {
			log.Printf("Ошибка получения объявления %s: %v", swipes[i].TargetListingID, err)
			continue
		}
		swipes[i].TargetListing = listing
	}

	return c.JSON(fiber.Map{
		"wishlist": swipes,
		"count":    len(swipes),
	})
}

// handleError преобразует ошибку ядра в HTTP-ответ
func handleError(c fiber.Ctx, err error, fallback string) error {
	switch swaperr.KindOf(err) {
	case swaperr.KindValidation:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case swaperr.KindAuthorization:
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	case swaperr.KindConflict:
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case swaperr.KindNotFound:
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}
	log.Printf("%s: %v", fallback, err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": fallback})
}
