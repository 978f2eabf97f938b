package models

import (
	"time"

	"github.com/google/uuid"
)

// Статусы предложения обмена
const (
	TradeOfferPending  = "pending"
	TradeOfferAccepted = "accepted"
	TradeOfferDeclined = "declined"
)

// TradeOffer представляет предложение об обмене: offered_listing_id
// предлагается в обмен на target_listing_id. Уникально по ключу
// (from_user_id, offered_listing_id, target_listing_id) — повторная
// отправка того же предложения идемпотентна.
type TradeOffer struct {
	ID               uuid.UUID `json:"id"`
	FromUserID       uuid.UUID `json:"from_user_id"`
	ToUserID         uuid.UUID `json:"to_user_id"`
	OfferedListingID uuid.UUID `json:"offered_listing_id"`
	TargetListingID  uuid.UUID `json:"target_listing_id"`
	Status           string    `json:"status"` // pending, accepted, declined
	Message          string    `json:"message"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`

	// Дополнительные поля для API
	OfferedListing *Listing `json:"offered_listing,omitempty"`
	TargetListing  *Listing `json:"target_listing,omitempty"`
	FromUser       *User    `json:"from_user,omitempty"`
	ToUser         *User    `json:"to_user,omitempty"`
}

// User представляет минимальную информацию о пользователе для API
type User struct {
	ID               uuid.UUID `json:"id"`
	Username         string    `json:"username,omitempty"`
	FirstName        string    `json:"first_name,omitempty"`
	LastName         string    `json:"last_name,omitempty"`
	AvatarURL        string    `json:"avatar_url,omitempty"`
	HasPayoutDetails bool      `json:"has_payout_details,omitempty"`
}
