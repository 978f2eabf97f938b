// Package events отвечает за доставку доменных событий внешним
// потребителям. События публикуются только после фиксации изменений в
// базе: сбой доставки логируется и никогда не откатывает транзакцию.
package events

import (
	"log"

	"github.com/google/uuid"

	"github.com/swaply/swaply-api/internal/models"
)

// Типы доменных событий
const (
	TypeMatchCreated        = "match.created"
	TypeConversationCreated = "conversation.created"
	TypeEscrowTransition    = "escrow.transition"
	TypeNewMessage          = "message.new"
)

// Notifier получает события ядра. Каждый метод вызывается не более одного
// раза на фактический переход состояния, после коммита.
type Notifier interface {
	MatchCreated(match *models.Match, conv *models.Conversation)
	ConversationCreated(conv *models.Conversation)
	EscrowTransition(tx *models.EscrowTransaction, oldStatus, newStatus models.EscrowStatus)
	NewMessage(msg *models.Message, recipientID uuid.UUID)
}

// Nop — заглушка для тестов и случаев, когда доставка событий отключена
type Nop struct{}

func (Nop) MatchCreated(*models.Match, *models.Conversation)                             {}
func (Nop) ConversationCreated(*models.Conversation)                                     {}
func (Nop) EscrowTransition(*models.EscrowTransaction, models.EscrowStatus, models.EscrowStatus) {}
func (Nop) NewMessage(*models.Message, uuid.UUID)                                        {}

// Multi рассылает каждое событие всем вложенным нотификаторам
type Multi []Notifier

func (m Multi) MatchCreated(match *models.Match, conv *models.Conversation) {
	for _, n := range m {
		n.MatchCreated(match, conv)
	}
}

func (m Multi) ConversationCreated(conv *models.Conversation) {
	for _, n := range m {
		n.ConversationCreated(conv)
	}
}

func (m Multi) EscrowTransition(tx *models.EscrowTransaction, oldStatus, newStatus models.EscrowStatus) {
	for _, n := range m {
		n.EscrowTransition(tx, oldStatus, newStatus)
	}
}

func (m Multi) NewMessage(msg *models.Message, recipientID uuid.UUID) {
	for _, n := range m {
		n.NewMessage(msg, recipientID)
	}
}

// Log пишет события в журнал. Используется как страховка, чтобы переходы
// оставались видимыми даже без Redis и WebSocket.
type Log struct{}

func (Log) MatchCreated(match *models.Match, _ *models.Conversation) {
	log.Printf("событие %s: матч %s (%s ↔ %s)", TypeMatchCreated, match.ID, match.User1ID, match.User2ID)
}

func (Log) ConversationCreated(conv *models.Conversation) {
	log.Printf("событие %s: переписка %s", TypeConversationCreated, conv.ID)
}

func (Log) EscrowTransition(tx *models.EscrowTransaction, oldStatus, newStatus models.EscrowStatus) {
	log.Printf("событие %s: транзакция %s %s → %s", TypeEscrowTransition, tx.ID, oldStatus, newStatus)
}

func (Log) NewMessage(msg *models.Message, _ uuid.UUID) {
	log.Printf("событие %s: сообщение %s в переписке %s", TypeNewMessage, msg.ID, msg.ConversationID)
}
