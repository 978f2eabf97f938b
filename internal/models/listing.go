package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ListingType определяет тип объявления
type ListingType string

const (
	ListingBarter      ListingType = "barter"      // обмен вещь на вещь
	ListingMarketplace ListingType = "marketplace" // продажа за деньги
)

// Listing представляет объявление. Ядро матчинга и эскроу объявления
// не редактирует — только читает владельца, тип и цену.
type Listing struct {
	ID          uuid.UUID        `json:"id"`
	UserID      uuid.UUID        `json:"user_id"`
	Title       string           `json:"title"`
	Description string           `json:"description,omitempty"`
	Type        ListingType      `json:"type"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Currency    string           `json:"currency,omitempty"`
	Status      string           `json:"status"`
	AllowTrade  bool             `json:"allow_trade"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}
