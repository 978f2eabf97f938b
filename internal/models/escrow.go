package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EscrowStatus — статус эскроу-транзакции. Переходы между статусами
// строго монотонны и проверяются таблицей переходов в пакете escrow.
type EscrowStatus string

const (
	EscrowInitiated            EscrowStatus = "initiated"
	EscrowFundsHeld            EscrowStatus = "funds_held"
	EscrowAwaitingConfirmation EscrowStatus = "awaiting_delivery_confirmation"
	EscrowCompleted            EscrowStatus = "completed"
	EscrowDisputed             EscrowStatus = "disputed"
)

// Terminal сообщает, является ли статус конечным
func (s EscrowStatus) Terminal() bool {
	return s == EscrowCompleted || s == EscrowDisputed
}

// EscrowType определяет тип сделки
type EscrowType string

const (
	// EscrowTypeEscrow — сделка с удержанием средств до подтверждения доставки
	EscrowTypeEscrow EscrowType = "escrow"
	// EscrowTypeManual — сделка "из рук в руки", средства не удерживаются
	EscrowTypeManual EscrowType = "manual"
)

// EscrowTransaction представляет сделку между покупателем и продавцом.
// Денежные суммы — только decimal, в базе NUMERIC.
type EscrowTransaction struct {
	ID                  uuid.UUID       `json:"id"`
	BuyerID             uuid.UUID       `json:"buyer_id"`
	SellerID            uuid.UUID       `json:"seller_id"`
	ListingID           uuid.UUID       `json:"listing_id"`
	Type                EscrowType      `json:"type"`
	Amount              decimal.Decimal `json:"amount"`
	Currency            string          `json:"currency"`
	Status              EscrowStatus    `json:"status"`
	PaymentReference    *string         `json:"payment_reference,omitempty"`
	FundsHeldAt         *time.Time      `json:"funds_held_at,omitempty"`
	DeliveryConfirmedAt *time.Time      `json:"delivery_confirmed_at,omitempty"`
	ReleasedAt          *time.Time      `json:"released_at,omitempty"`
	CompletedAt         *time.Time      `json:"completed_at,omitempty"`
	AutoReleaseAt       *time.Time      `json:"auto_release_at,omitempty"`
	DisputeReason       *string         `json:"dispute_reason,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`

	// Дополнительные поля для API
	Buyer   *User    `json:"buyer,omitempty"`
	Seller  *User    `json:"seller,omitempty"`
	Listing *Listing `json:"listing,omitempty"`
}
