// Package matchengine реализует ленту свайпов, книгу предложений обмена и
// обнаружение взаимного интереса.
//
// Гонку двух встречных свайпов разрешает не блокировка в приложении, а
// уникальные индексы хранилища: оба вызова проходят через upsert-or-fetch,
// ровно один из них наблюдает created=true. Проигравший получает обычный
// успешный ответ с идентификаторами победителя, а не ошибку.
package matchengine

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/swaply/swaply-api/internal/events"
	"github.com/swaply/swaply-api/internal/metrics"
	"github.com/swaply/swaply-api/internal/models"
	"github.com/swaply/swaply-api/internal/store"
	"github.com/swaply/swaply-api/internal/swaperr"
)

// Engine — движок матчинга
type Engine struct {
	store    store.Store
	notifier events.Notifier
}

// NewEngine создаёт движок матчинга. notifier может быть events.Nop{}.
func NewEngine(st store.Store, notifier events.Notifier) *Engine {
	if notifier == nil {
		notifier = events.Nop{}
	}
	return &Engine{store: st, notifier: notifier}
}

// SwipeRequest — входные данные операции записи свайпа
type SwipeRequest struct {
	TargetListingID  uuid.UUID
	Direction        models.SwipeDirection
	OfferedListingID *uuid.UUID
	Message          string
}

// SwipeResult — результат записи свайпа. MatchCreated равен true только у
// того вызова, который фактически создал матч: повторы и проигравшие гонку
// получают false с теми же идентификаторами.
type SwipeResult struct {
	Swipe        *models.Swipe        `json:"swipe"`
	Offer        *models.TradeOffer   `json:"offer,omitempty"`
	MatchCreated bool                 `json:"match_created"`
	Match        *models.Match        `json:"match,omitempty"`
	Conversation *models.Conversation `json:"conversation,omitempty"`
}

// RecordSwipe фиксирует решение пользователя по объявлению: не более
// одной записи на пару (актор, объявление), повторный свайп перезаписывает
// направление. Правый свайп по бартерному объявлению порождает предложение
// обмена и сразу запускает проверку взаимности.
func (e *Engine) RecordSwipe(ctx context.Context, actorID uuid.UUID, req SwipeRequest) (*SwipeResult, error) {
	if !req.Direction.Valid() {
		return nil, swaperr.Validation("недопустимое направление свайпа")
	}

	target, err := e.store.GetListing(ctx, req.TargetListingID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, swaperr.NotFound("объявление не найдено")
		}
		return nil, err
	}

	if target.UserID == actorID {
		return nil, swaperr.Validation("нельзя свайпать собственное объявление")
	}

	blocked, err := e.store.IsBlocked(ctx, actorID, target.UserID)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, swaperr.Authorization("действие недоступно для этого пользователя")
	}

	// В запись попадает только проверенное предлагаемое объявление: для
	// левых, верхних и маркетплейс-свайпов поле клиента игнорируется.
	var offered *models.Listing
	var offeredID *uuid.UUID
	if req.Direction == models.SwipeRight && target.Type == models.ListingBarter {
		offered, err = e.validateOfferedListing(ctx, actorID, req)
		if err != nil {
			return nil, err
		}
		offeredID = &offered.ID
	}

	// Смена right → left снимает ещё не принятое предложение актора по
	// этой паре. Принятое предложение задним числом не отзывается.
	if req.Direction == models.SwipeLeft {
		if err := e.declinePendingOffer(ctx, actorID, req.TargetListingID); err != nil {
			return nil, err
		}
	}

	swipe, err := e.store.UpsertSwipe(ctx, &models.Swipe{
		ID:               uuid.New(),
		ActorID:          actorID,
		TargetListingID:  req.TargetListingID,
		Direction:        req.Direction,
		OfferedListingID: offeredID,
	})
	if err != nil {
		return nil, err
	}
	metrics.SwipesTotal.WithLabelValues(string(req.Direction)).Inc()

	result := &SwipeResult{Swipe: swipe}

	switch {
	case req.Direction == models.SwipeRight && target.Type == models.ListingBarter:
		// Предложение обмена + проверка взаимности
		offer, err := e.store.UpsertTradeOffer(ctx, &models.TradeOffer{
			ID:               uuid.New(),
			FromUserID:       actorID,
			ToUserID:         target.UserID,
			OfferedListingID: offered.ID,
			TargetListingID:  target.ID,
			Message:          req.Message,
		})
		if err != nil {
			return nil, err
		}
		metrics.TradeOffersTotal.Inc()
		result.Offer = offer

		if err := e.checkReciprocity(ctx, actorID, target, offered.ID, offer, result); err != nil {
			return nil, err
		}

	case req.Direction == models.SwipeUp:
		// Звезда: низкопороговый запрос на переписку владельцу объявления
		err := e.store.UpsertMessageRequest(ctx, &models.MessageRequest{
			ID:         uuid.New(),
			FromUserID: actorID,
			ToUserID:   target.UserID,
			ListingID:  target.ID,
		})
		if err != nil {
			return nil, err
		}
	}

	return result, nil
}

// validateOfferedListing проверяет предлагаемое объявление для правого
// свайпа по бартеру
func (e *Engine) validateOfferedListing(ctx context.Context, actorID uuid.UUID, req SwipeRequest) (*models.Listing, error) {
	if req.OfferedListingID == nil {
		return nil, swaperr.Validation("для обмена нужно указать своё объявление")
	}
	if *req.OfferedListingID == req.TargetListingID {
		return nil, swaperr.Validation("нельзя предложить объявление в обмен на него же")
	}

	offered, err := e.store.GetListing(ctx, *req.OfferedListingID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, swaperr.NotFound("предлагаемое объявление не найдено")
		}
		return nil, err
	}
	if offered.UserID != actorID {
		return nil, swaperr.Validation("нельзя предложить чужое объявление для обмена")
	}
	return offered, nil
}

// declinePendingOffer переводит в declined ожидающее предложение актора по
// целевому объявлению, если такое было
func (e *Engine) declinePendingOffer(ctx context.Context, actorID, targetListingID uuid.UUID) error {
	prev, err := e.store.GetSwipe(ctx, actorID, targetListingID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}
	if prev.Direction != models.SwipeRight || prev.OfferedListingID == nil {
		return nil
	}

	offer, err := e.store.FindTradeOffer(ctx, actorID, *prev.OfferedListingID, targetListingID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}
	// CAS: если предложение уже принято, перехода не будет
	_, err = e.store.SetTradeOfferStatus(ctx, offer.ID, models.TradeOfferPending, models.TradeOfferDeclined)
	return err
}

// checkReciprocity ищет зеркальный свайп и при его наличии создаёт матч и
// переписку ровно один раз, какая бы сторона ни записалась последней.
func (e *Engine) checkReciprocity(ctx context.Context, actorID uuid.UUID, target *models.Listing, offeredListingID uuid.UUID, offer *models.TradeOffer, result *SwipeResult) error {
	// Актор предлагает offeredListingID за target. Зеркало: владелец
	// target уже свайпнул вправо по offeredListingID, предложив target.
	_, err := e.store.FindReciprocalSwipe(ctx, target.UserID, offeredListingID, target.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil // взаимности нет, остаётся одностороннее предложение
		}
		return err
	}

	user1, user2, listing1, listing2 := CanonicalPair(actorID, target.UserID, offeredListingID, target.ID)

	conv, convCreated, err := e.store.EnsureConversation(ctx, user1, user2)
	if err != nil {
		return err
	}

	match, matchCreated, err := e.store.EnsureMatch(ctx, &models.Match{
		ID:             uuid.New(),
		User1ID:        user1,
		User2ID:        user2,
		Listing1ID:     listing1,
		Listing2ID:     listing2,
		ConversationID: conv.ID,
	})
	if err != nil {
		return err
	}

	// Обе стороны сделки считаются принятыми
	if _, err := e.store.SetTradeOfferStatus(ctx, offer.ID, models.TradeOfferPending, models.TradeOfferAccepted); err != nil {
		return err
	}
	if mirror, err := e.store.FindTradeOffer(ctx, target.UserID, target.ID, offeredListingID); err == nil {
		if _, err := e.store.SetTradeOfferStatus(ctx, mirror.ID, models.TradeOfferPending, models.TradeOfferAccepted); err != nil {
			return err
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	result.Match = match
	result.Conversation = conv
	result.MatchCreated = matchCreated

	// События уходят после записи и только от создавшего вызова
	if matchCreated {
		metrics.MatchesCreated.Inc()
		e.notifier.MatchCreated(match, conv)
	}
	if convCreated {
		e.notifier.ConversationCreated(conv)
	}
	return nil
}

// RespondResult — результат ответа на предложение обмена
type RespondResult struct {
	Offer        *models.TradeOffer   `json:"offer"`
	Conversation *models.Conversation `json:"conversation,omitempty"`
}

// RespondToTradeOffer принимает или отклоняет предложение обмена. Это
// разрешено только получателю и только пока предложение в ожидании.
// Принятие открывает переписку, но матч создаёт лишь взаимный свайп.
func (e *Engine) RespondToTradeOffer(ctx context.Context, actorID, offerID uuid.UUID, accept bool) (*RespondResult, error) {
	offer, err := e.store.GetTradeOffer(ctx, offerID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, swaperr.NotFound("предложение обмена не найдено")
		}
		return nil, err
	}

	if offer.ToUserID != actorID {
		return nil, swaperr.Authorization("ответить на предложение может только его получатель")
	}

	toStatus := models.TradeOfferDeclined
	if accept {
		toStatus = models.TradeOfferAccepted
	}

	changed, err := e.store.SetTradeOfferStatus(ctx, offer.ID, models.TradeOfferPending, toStatus)
	if err != nil {
		return nil, err
	}
	if !changed {
		metrics.GuardRejections.WithLabelValues("respond_trade_offer").Inc()
		return nil, swaperr.Conflict("предложение уже не находится в ожидании")
	}
	offer.Status = toStatus

	result := &RespondResult{Offer: offer}
	if accept {
		user1, user2 := CanonicalUsers(offer.FromUserID, offer.ToUserID)
		conv, created, err := e.store.EnsureConversation(ctx, user1, user2)
		if err != nil {
			return nil, err
		}
		result.Conversation = conv
		if created {
			e.notifier.ConversationCreated(conv)
		}
	}
	return result, nil
}
