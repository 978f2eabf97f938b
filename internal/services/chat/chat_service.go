package chat

import (
	"log"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/swaply/swaply-api/internal/config"
	"github.com/swaply/swaply-api/internal/db"
	"github.com/swaply/swaply-api/internal/events"
	"github.com/swaply/swaply-api/internal/models"
	"github.com/swaply/swaply-api/internal/store"
	"github.com/swaply/swaply-api/internal/utils"
)

// ChatService представляет сервис для работы с переписками
type ChatService struct {
	cfg        *config.Config
	jwtService *utils.JWTService
	store      store.Store
	notifier   events.Notifier
}

// NewChatService создает новый экземпляр ChatService
func NewChatService(cfg *config.Config, st store.Store, notifier events.Notifier) *ChatService {
	if notifier == nil {
		notifier = events.Nop{}
	}
	return &ChatService{
		cfg:        cfg,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
		store:      st,
		notifier:   notifier,
	}
}

// GetChats возвращает список переписок пользователя
func (s *ChatService) GetChats(c fiber.Ctx) error {
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

	convs, err := s.store.ListConversations(ctx, userUUID)
	if err != nil {
		log.Printf("Ошибка запроса переписок: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения переписок"})
	}

	// Подгружаем данные о собеседнике
	for i := range convs {
		otherUserID := convs[i].User1ID
		if otherUserID == userUUID {
			otherUserID = convs[i].User2ID
		}
		if other, err := s.store.GetUser(ctx, otherUserID); err == nil {
			if convs[i].User1ID == otherUserID {
				convs[i].User1 = other
			} else {
				convs[i].User2 = other
			}
		}
	}

	return c.JSON(fiber.Map{
		"chats": convs,
		"count": len(convs),
	})
}

// GetChatMessages возвращает сообщения переписки и отмечает входящие
// прочитанными
func (s *ChatService) GetChatMessages(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	convUUID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID переписки"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	conv, err := s.requireParticipant(c, convUUID, userUUID)
	if conv == nil {
		return err
	}

	// Курсорная пагинация: before — ID сообщения, от которого идём назад
	var before *uuid.UUID
	if raw := c.Query("before"); raw != "" {
		beforeUUID, err := uuid.Parse(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат курсора"})
		}
		before = &beforeUUID
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 100 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверное значение limit"})
		}
		limit = parsed
	}

	messages, err := s.store.ListMessages(ctx, convUUID, before, limit)
	if err != nil {
		log.Printf("Ошибка запроса сообщений: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения сообщений"})
	}

	// Отмечаем входящие сообщения прочитанными
	if err := s.store.MarkMessagesRead(ctx, convUUID, userUUID); err != nil {
		log.Printf("Ошибка отметки сообщений прочитанными: %v", err)
	}

	return c.JSON(fiber.Map{
		"messages": messages,
		"count":    len(messages),
	})
}

// SendMessage отправляет сообщение в переписку
func (s *ChatService) SendMessage(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	convUUID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID переписки"})
	}

	var requestData struct {
		Text string `json:"text"`
	}
	if err := c.Bind().Body(&requestData); err != nil {
		log.Printf("Ошибка декодирования тела запроса: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}
	if requestData.Text == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Текст сообщения не может быть пустым"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	conv, errResp := s.requireParticipant(c, convUUID, userUUID)
	if conv == nil {
		return errResp
	}

	message := &models.Message{
		ID:             uuid.New(),
		ConversationID: convUUID,
		SenderID:       userUUID,
		Text:           requestData.Text,
		CreatedAt:      time.Now().UTC(),
	}

	if err := s.store.InsertMessage(ctx, message); err != nil {
		log.Printf("Ошибка сохранения сообщения: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка отправки сообщения"})
	}

	// Уведомляем собеседника после записи
	recipientID := conv.User1ID
	if recipientID == userUUID {
		recipientID = conv.User2ID
	}
	s.notifier.NewMessage(message, recipientID)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": message,
	})
}

// requireParticipant проверяет, что пользователь — сторона переписки.
// При отказе возвращает nil и готовый HTTP-ответ.
func (s *ChatService) requireParticipant(c fiber.Ctx, convID, userID uuid.UUID) (*models.Conversation, error) {
	ctx, cancel := db.GetContext()
	defer cancel()

	conv, err := s.store.GetConversation(ctx, convID)
	if err != nil {
		if err == store.ErrNotFound {
			return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Переписка не найдена"})
		}
		log.Printf("Ошибка получения переписки: %v", err)
		return nil, c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения переписки"})
	}

	if conv.User1ID != userID && conv.User2ID != userID {
		return nil, c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Нет доступа к этой переписке"})
	}
	return conv, nil
}
