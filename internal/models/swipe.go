package models

import (
	"time"

	"github.com/google/uuid"
)

// SwipeDirection определяет направление свайпа
type SwipeDirection string

const (
	SwipeLeft  SwipeDirection = "left"  // пропустить
	SwipeRight SwipeDirection = "right" // интерес / предложение обмена
	SwipeUp    SwipeDirection = "up"    // звезда, запрос на переписку
)

// Valid проверяет, что направление свайпа допустимо
func (d SwipeDirection) Valid() bool {
	return d == SwipeLeft || d == SwipeRight || d == SwipeUp
}

// Swipe представляет решение пользователя по конкретному объявлению.
// На пару (actor_id, target_listing_id) существует не более одной записи:
// повторный свайп перезаписывает направление и предлагаемое объявление.
type Swipe struct {
	ID               uuid.UUID      `json:"id"`
	ActorID          uuid.UUID      `json:"actor_id"`
	TargetListingID  uuid.UUID      `json:"target_listing_id"`
	Direction        SwipeDirection `json:"direction"`
	OfferedListingID *uuid.UUID     `json:"offered_listing_id,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`

	// Дополнительные поля для API
	TargetListing *Listing `json:"target_listing,omitempty"`
}

// MessageRequest представляет запрос на переписку от свайпа "вверх"
type MessageRequest struct {
	ID         uuid.UUID `json:"id"`
	FromUserID uuid.UUID `json:"from_user_id"`
	ToUserID   uuid.UUID `json:"to_user_id"`
	ListingID  uuid.UUID `json:"listing_id"`
	CreatedAt  time.Time `json:"created_at"`
}
