package events

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/swaply/swaply-api/internal/models"
)

// Таймаут публикации: событие — побочный эффект уже зафиксированной
// истины, ждать брокера дольше нет смысла.
const publishTimeout = 2 * time.Second

// RedisNotifier публикует события в канал Redis Pub/Sub, откуда их
// забирает внешний сервис уведомлений (push, e-mail).
type RedisNotifier struct {
	rdb     *redis.Client
	channel string
}

// NewRedisNotifier создаёт нотификатор поверх клиента Redis
func NewRedisNotifier(rdb *redis.Client, channel string) *RedisNotifier {
	return &RedisNotifier{rdb: rdb, channel: channel}
}

// envelope — формат события на проводе
type envelope struct {
	Type       string      `json:"type"`
	Recipients []uuid.UUID `json:"recipients"`
	Timestamp  time.Time   `json:"timestamp"`
	Payload    interface{} `json:"payload"`
}

func (n *RedisNotifier) publish(eventType string, recipients []uuid.UUID, payload interface{}) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	data, err := json.Marshal(envelope{
		Type:       eventType,
		Recipients: recipients,
		Timestamp:  time.Now().UTC(),
		Payload:    payload,
	})
	if err != nil {
		log.Printf("Ошибка сериализации события %s: %v", eventType, err)
		return
	}

	if err := n.rdb.Publish(ctx, n.channel, data).Err(); err != nil {
		// Доставка не входит в границу согласованности: логируем и живём дальше
		log.Printf("Ошибка публикации события %s: %v", eventType, err)
	}
}

func (n *RedisNotifier) MatchCreated(match *models.Match, conv *models.Conversation) {
	n.publish(TypeMatchCreated, []uuid.UUID{match.User1ID, match.User2ID}, map[string]interface{}{
		"match":        match,
		"conversation": conv,
	})
}

func (n *RedisNotifier) ConversationCreated(conv *models.Conversation) {
	n.publish(TypeConversationCreated, []uuid.UUID{conv.User1ID, conv.User2ID}, map[string]interface{}{
		"conversation": conv,
	})
}

func (n *RedisNotifier) EscrowTransition(tx *models.EscrowTransaction, oldStatus, newStatus models.EscrowStatus) {
	n.publish(TypeEscrowTransition, []uuid.UUID{tx.BuyerID, tx.SellerID}, map[string]interface{}{
		"transaction": tx,
		"old_status":  oldStatus,
		"new_status":  newStatus,
	})
}

func (n *RedisNotifier) NewMessage(msg *models.Message, recipientID uuid.UUID) {
	n.publish(TypeNewMessage, []uuid.UUID{recipientID}, map[string]interface{}{
		"message": msg,
	})
}
