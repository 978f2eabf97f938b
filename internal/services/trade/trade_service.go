package trade

import (
	"context"
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

// TradeService представляет сервис для работы с предложениями обмена
type TradeService struct {
	cfg        *config.Config
	jwtService *utils.JWTService
	engine     *matchengine.Engine
	store      store.Store
}

// NewTradeService создает новый экземпляр TradeService
func NewTradeService(cfg *config.Config, engine *matchengine.Engine, st store.Store) *TradeService {
	return &TradeService{
		cfg:        cfg,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
		engine:     engine,
		store:      st,
	}
}

// GetMyTrades возвращает список предложений обмена пользователя
func (s *TradeService) GetMyTrades(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	// Тип выборки (входящие/исходящие/все) и статус
	filter := store.TradeOfferFilter{}
	switch c.Query("type", "all") {
	case "incoming":
		filter.Box = "incoming"
	case "outgoing":
		filter.Box = "outgoing"
	}
	if status := c.Query("status", "all"); status != "all" {
		filter.Status = status
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	offers, err := s.store.ListTradeOffers(ctx, userUUID, filter)
	if err != nil {
		log.Printf("Ошибка запроса предложений обмена: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения предложений обмена"})
	}

	// Подгружаем информацию об объявлениях и пользователях
	for i := range offers {
		offers[i].OfferedListing = s.getListing(ctx, offers[i].OfferedListingID)
		offers[i].TargetListing = s.getListing(ctx, offers[i].TargetListingID)
		offers[i].FromUser = s.getUser(ctx, offers[i].FromUserID)
		offers[i].ToUser = s.getUser(ctx, offers[i].ToUserID)
	}

	return c.JSON(fiber.Map{
		"trades": offers,
		"count":  len(offers),
	})
}

// GetTrade возвращает одно предложение обмена
func (s *TradeService) GetTrade(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	offerUUID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID предложения обмена"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	offer, err := s.store.GetTradeOffer(ctx, offerUUID)
	if err != nil {
		if err == store.ErrNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Предложение обмена не найдено"})
		}
		log.Printf("Ошибка получения предложения обмена: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения предложения обмена"})
	}

	// Предложение видно только его сторонам
	if offer.FromUserID != userUUID && offer.ToUserID != userUUID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Нет доступа к этому предложению обмена"})
	}

	offer.OfferedListing = s.getListing(ctx, offer.OfferedListingID)
	offer.TargetListing = s.getListing(ctx, offer.TargetListingID)
	offer.FromUser = s.getUser(ctx, offer.FromUserID)
	offer.ToUser = s.getUser(ctx, offer.ToUserID)

	return c.JSON(fiber.Map{"trade": offer})
}

// UpdateTradeStatus принимает или отклоняет предложение обмена
func (s *TradeService) UpdateTradeStatus(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	// Получаем новый статус из запроса
	var requestData struct {
		Status string `json:"status"` // accepted, declined
	}

	if err := c.Bind().Body(&requestData); err != nil {
		log.Printf("Ошибка декодирования тела запроса: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	if requestData.Status != models.TradeOfferAccepted && requestData.Status != models.TradeOfferDeclined {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Недопустимый статус предложения обмена"})
	}

	offerUUID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID предложения обмена"})
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	result, err := s.engine.RespondToTradeOffer(ctx, userUUID, offerUUID, requestData.Status == models.TradeOfferAccepted)
	if err != nil {
		return handleError(c, err, "Ошибка обновления статуса предложения обмена")
	}

	response := fiber.Map{
		"success":  true,
		"trade_id": result.Offer.ID,
		"status":   result.Offer.Status,
	}
	if result.Conversation != nil {
		response["conversation_id"] = result.Conversation.ID
	}

	return c.JSON(response)
}

// getListing получает объявление, при ошибке возвращает nil
func (s *TradeService) getListing(ctx context.Context, listingID uuid.UUID) *models.Listing {
	listing, err := s.store.GetListing(ctx, listingID)
	if err != nil {
		log.Printf("Ошибка получения объявления %s: %v", listingID, err)
		return nil
	}
	return listing
}

// getUser получает пользователя, при ошибке возвращает nil
func (s *TradeService) getUser(ctx context.Context, userID uuid.UUID) *models.User {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		log.Printf("Ошибка получения пользователя %s: %v", userID, err)
		return nil
	}
	return user
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
