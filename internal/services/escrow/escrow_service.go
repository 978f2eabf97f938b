package escrow

import (
	"log"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/swaply/swaply-api/internal/config"
	"github.com/swaply/swaply-api/internal/db"
	escrowcore "github.com/swaply/swaply-api/internal/escrow"
	"github.com/swaply/swaply-api/internal/models"
	"github.com/swaply/swaply-api/internal/store"
	"github.com/swaply/swaply-api/internal/swaperr"
	"github.com/swaply/swaply-api/internal/utils"
)

// EscrowService представляет сервис для работы со сделками эскроу
type EscrowService struct {
	cfg        *config.Config
	jwtService *utils.JWTService
	machine    *escrowcore.Machine
	store      store.Store
}

// NewEscrowService создает новый экземпляр EscrowService
func NewEscrowService(cfg *config.Config, machine *escrowcore.Machine, st store.Store) *EscrowService {
	return &EscrowService{
		cfg:        cfg,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
		machine:    machine,
		store:      st,
	}
}

// CreateTransaction создает новую сделку в статусе initiated
func (s *EscrowService) CreateTransaction(c fiber.Ctx) error {
	buyerID, ok := callerID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	// Извлекаем данные из запроса
	var requestData struct {
		SellerID  string `json:"seller_id"`
		ListingID string `json:"listing_id"`
		Type      string `json:"type"` // escrow, manual
		Amount    string `json:"amount"`
		Currency  string `json:"currency"`
	}

	if err := c.Bind().Body(&requestData); err != nil {
		log.Printf("Ошибка декодирования тела запроса: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	if requestData.SellerID == "" || requestData.ListingID == "" || requestData.Amount == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Необходимо указать продавца, объявление и сумму"})
	}

	sellerUUID, err := uuid.Parse(requestData.SellerID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID продавца"})
	}

	listingUUID, err := uuid.Parse(requestData.ListingID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID объявления"})
	}

	amount, err := decimal.NewFromString(requestData.Amount)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат суммы"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	tx, err := s.machine.Initiate(ctx, buyerID, escrowcore.InitiateRequest{
		SellerID:  sellerUUID,
		ListingID: listingUUID,
		Type:      models.EscrowType(requestData.Type),
		Amount:    amount,
		Currency:  requestData.Currency,
	})
	if err != nil {
		return handleError(c, err, "Ошибка создания сделки")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":     true,
		"transaction": tx,
	})
}

// ConfirmPayment подтверждает оплату: initiated → funds_held
func (s *EscrowService) ConfirmPayment(c fiber.Ctx) error {
	caller, ok := callerID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	txUUID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID сделки"})
	}

	var requestData struct {
		PaymentReference string `json:"payment_reference"`
	}
	if err := c.Bind().Body(&requestData); err != nil {
		log.Printf("Ошибка декодирования тела запроса: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	tx, _, err := s.machine.ConfirmPayment(ctx, caller, txUUID, requestData.PaymentReference)
	if err != nil {
		return handleError(c, err, "Ошибка подтверждения оплаты")
	}

	return c.JSON(fiber.Map{"success": true, "transaction": tx})
}

// MarkDelivered отмечает передачу товара: funds_held → awaiting_delivery_confirmation
func (s *EscrowService) MarkDelivered(c fiber.Ctx) error {
	caller, ok := callerID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	txUUID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID сделки"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	tx, _, err := s.machine.MarkDelivered(ctx, caller, txUUID)
	if err != nil {
		return handleError(c, err, "Ошибка отметки передачи")
	}

	return c.JSON(fiber.Map{"success": true, "transaction": tx})
}

// AcknowledgeService отмечает оказание услуги: funds_held → awaiting_delivery_confirmation
func (s *EscrowService) AcknowledgeService(c fiber.Ctx) error {
	caller, ok := callerID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	txUUID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID сделки"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	tx, _, err := s.machine.AcknowledgeService(ctx, caller, txUUID)
	if err != nil {
		return handleError(c, err, "Ошибка отметки оказания услуги")
	}

	return c.JSON(fiber.Map{"success": true, "transaction": tx})
}

// ConfirmDelivery подтверждает получение и выпускает средства
func (s *EscrowService) ConfirmDelivery(c fiber.Ctx) error {
	caller, ok := callerID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	txUUID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID сделки"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	tx, _, err := s.machine.ConfirmDelivery(ctx, caller, txUUID)
	if err != nil {
		return handleError(c, err, "Ошибка подтверждения получения")
	}

	return c.JSON(fiber.Map{"success": true, "transaction": tx})
}

// OpenDispute открывает спор по сделке
func (s *EscrowService) OpenDispute(c fiber.Ctx) error {
	caller, ok := callerID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	txUUID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID сделки"})
	}

	var requestData struct {
		Reason string `json:"reason"`
	}
	if err := c.Bind().Body(&requestData); err != nil {
		log.Printf("Ошибка декодирования тела запроса: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	tx, _, err := s.machine.OpenDispute(ctx, caller, txUUID, requestData.Reason)
	if err != nil {
		return handleError(c, err, "Ошибка открытия спора")
	}

	return c.JSON(fiber.Map{"success": true, "transaction": tx})
}

// GetMyTransactions возвращает сделки пользователя (как покупателя и продавца)
func (s *EscrowService) GetMyTransactions(c fiber.Ctx) error {
	caller, ok := callerID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	txs, err := s.store.ListEscrows(ctx, caller)
	if err != nil {
		log.Printf("Ошибка запроса сделок: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения сделок"})
	}

	for i := range txs {
		if listing, err := s.store.GetListing(ctx, txs[i].ListingID); err == nil {
			txs[i].Listing = listing
		}
		if buyer, err := s.store.GetUser(ctx, txs[i].BuyerID); err == nil {
			txs[i].Buyer = buyer
		}
		if seller, err := s.store.GetUser(ctx, txs[i].SellerID); err == nil {
			txs[i].Seller = seller
		}
	}

	return c.JSON(fiber.Map{
		"transactions": txs,
		"count":        len(txs),
	})
}

// GetTransaction возвращает одну сделку
func (s *EscrowService) GetTransaction(c fiber.Ctx) error {
	caller, ok := callerID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	txUUID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID сделки"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	tx, err := s.store.GetEscrow(ctx, txUUID)
	if err != nil {
		if err == store.ErrNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Сделка не найдена"})
		}
		log.Printf("Ошибка получения сделки: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения сделки"})
	}

	// Сделка видна только её сторонам
	if tx.BuyerID != caller && tx.SellerID != caller {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Нет доступа к этой сделке"})
	}

	return c.JSON(fiber.Map{"transaction": tx})
}

// callerID извлекает UUID пользователя из контекста запроса
func callerID(c fiber.Ctx) (uuid.UUID, bool) {
	userID, _ := c.Locals("userID").(string)
	if userID == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(userID)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
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
