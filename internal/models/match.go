package models

import (
	"time"

	"github.com/google/uuid"
)

// Match представляет состоявшийся взаимный интерес двух пользователей.
// Пользователи и их объявления хранятся в каноническом порядке: user1_id
// всегда меньше user2_id, listing1_id принадлежит user1. Уникален по
// (user1_id, user2_id, listing1_id, listing2_id) и никогда не изменяется.
type Match struct {
	ID             uuid.UUID `json:"id"`
	User1ID        uuid.UUID `json:"user1_id"`
	User2ID        uuid.UUID `json:"user2_id"`
	Listing1ID     uuid.UUID `json:"listing1_id"`
	Listing2ID     uuid.UUID `json:"listing2_id"`
	ConversationID uuid.UUID `json:"conversation_id"`
	CreatedAt      time.Time `json:"created_at"`

	// Дополнительные поля для API
	User1    *User    `json:"user1,omitempty"`
	User2    *User    `json:"user2,omitempty"`
	Listing1 *Listing `json:"listing1,omitempty"`
	Listing2 *Listing `json:"listing2,omitempty"`
}

// Conversation представляет переписку между двумя пользователями.
// На пару пользователей существует не более одной переписки, сколько бы
// матчей они ни набрали. Пара хранится в каноническом порядке.
type Conversation struct {
	ID              uuid.UUID  `json:"id"`
	User1ID         uuid.UUID  `json:"user1_id"`
	User2ID         uuid.UUID  `json:"user2_id"`
	LastMessageText string     `json:"last_message_text,omitempty"`
	LastMessageTime *time.Time `json:"last_message_time,omitempty"`
	IsActive        bool       `json:"is_active"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	// Дополнительные поля для API
	User1       *User `json:"user1,omitempty"`
	User2       *User `json:"user2,omitempty"`
	UnreadCount int   `json:"unread_count,omitempty"`
}

// Message представляет сообщение в переписке
type Message struct {
	ID             uuid.UUID `json:"id"`
	ConversationID uuid.UUID `json:"conversation_id"`
	SenderID       uuid.UUID `json:"sender_id"`
	Text           string    `json:"text"`
	IsRead         bool      `json:"is_read"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	// Дополнительные поля для API
	Sender *User `json:"sender,omitempty"`
}
