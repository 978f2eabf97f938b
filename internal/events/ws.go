package events

import (
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/swaply/swaply-api/internal/models"
	ws "github.com/swaply/swaply-api/internal/websocket"
)

// WSNotifier доставляет события онлайн-пользователям через менеджер
// WebSocket-соединений. Оффлайн-пользователи ничего не теряют: события
// описывают состояние, которое уже лежит в базе.
type WSNotifier struct {
	manager *ws.Manager
}

// NewWSNotifier создаёт нотификатор поверх менеджера соединений
func NewWSNotifier(manager *ws.Manager) *WSNotifier {
	return &WSNotifier{manager: manager}
}

func (n *WSNotifier) send(eventType ws.EventType, payload interface{}, recipients ...uuid.UUID) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Ошибка сериализации события %s: %v", eventType, err)
		return
	}
	event := ws.Event{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Payload:   data,
	}
	for _, r := range recipients {
		n.manager.SendToUser(r.String(), event)
	}
}

func (n *WSNotifier) MatchCreated(match *models.Match, conv *models.Conversation) {
	n.send(ws.EventMatchCreated, map[string]interface{}{
		"match":        match,
		"conversation": conv,
	}, match.User1ID, match.User2ID)
}

func (n *WSNotifier) ConversationCreated(conv *models.Conversation) {
	n.send(ws.EventConversationCreated, map[string]interface{}{
		"conversation": conv,
	}, conv.User1ID, conv.User2ID)
}

func (n *WSNotifier) EscrowTransition(tx *models.EscrowTransaction, oldStatus, newStatus models.EscrowStatus) {
	n.send(ws.EventEscrowTransition, map[string]interface{}{
		"transaction": tx,
		"old_status":  oldStatus,
		"new_status":  newStatus,
	}, tx.BuyerID, tx.SellerID)
}

func (n *WSNotifier) NewMessage(msg *models.Message, recipientID uuid.UUID) {
	n.send(ws.EventNewMessage, map[string]interface{}{
		"message": msg,
	}, recipientID)
}
