package matchengine

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swaply/swaply-api/internal/models"
	"github.com/swaply/swaply-api/internal/store"
	"github.com/swaply/swaply-api/internal/swaperr"
)

// fixture — два пользователя с бартерными объявлениями
type fixture struct {
	store    *store.MemoryStore
	engine   *Engine
	alice    uuid.UUID
	bob      uuid.UUID
	aliceLot uuid.UUID // бартерное объявление Алисы
	bobLot   uuid.UUID // бартерное объявление Боба
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	st := store.NewMemoryStore()
	f := &fixture{
		store:    st,
		engine:   NewEngine(st, nil),
		alice:    uuid.New(),
		bob:      uuid.New(),
		aliceLot: uuid.New(),
		bobLot:   uuid.New(),
	}

	st.AddUser(&models.User{ID: f.alice, Username: "alice"})
	st.AddUser(&models.User{ID: f.bob, Username: "bob"})
	st.AddListing(&models.Listing{ID: f.aliceLot, UserID: f.alice, Type: models.ListingBarter})
	st.AddListing(&models.Listing{ID: f.bobLot, UserID: f.bob, Type: models.ListingBarter})
	return f
}

func (f *fixture) swipeRight(t *testing.T, actor, target, offered uuid.UUID) *SwipeResult {
	t.Helper()
	res, err := f.engine.RecordSwipe(context.Background(), actor, SwipeRequest{
		TargetListingID:  target,
		Direction:        models.SwipeRight,
		OfferedListingID: &offered,
	})
	require.NoError(t, err)
	return res
}

func TestRecordSwipeValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  SwipeRequest
		kind swaperr.Kind
	}{
		{
			name: "недопустимое направление",
			req:  SwipeRequest{TargetListingID: f.bobLot, Direction: "down"},
			kind: swaperr.KindValidation,
		},
		{
			name: "несуществующее объявление",
			req:  SwipeRequest{TargetListingID: uuid.New(), Direction: models.SwipeRight},
			kind: swaperr.KindNotFound,
		},
		{
			name: "правый свайп по бартеру без своего объявления",
			req:  SwipeRequest{TargetListingID: f.bobLot, Direction: models.SwipeRight},
			kind: swaperr.KindValidation,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.engine.RecordSwipe(ctx, f.alice, tc.req)
			assert.Equal(t, tc.kind, swaperr.KindOf(err))
		})
	}
}

func TestRecordSwipeOwnListing(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.RecordSwipe(context.Background(), f.alice, SwipeRequest{
		TargetListingID: f.aliceLot,
		Direction:       models.SwipeLeft,
	})
	assert.True(t, swaperr.IsValidation(err))
}

func TestRecordSwipeOfferedListingChecks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Нельзя предложить объявление в обмен на него же
	_, err := f.engine.RecordSwipe(ctx, f.alice, SwipeRequest{
		TargetListingID:  f.bobLot,
		Direction:        models.SwipeRight,
		OfferedListingID: &f.bobLot,
	})
	assert.True(t, swaperr.IsValidation(err))

	// Нельзя предложить чужое объявление
	otherLot := uuid.New()
	f.store.AddListing(&models.Listing{ID: otherLot, UserID: f.bob, Type: models.ListingBarter})
	_, err = f.engine.RecordSwipe(ctx, f.alice, SwipeRequest{
		TargetListingID:  f.bobLot,
		Direction:        models.SwipeRight,
		OfferedListingID: &otherLot,
	})
	assert.True(t, swaperr.IsValidation(err))

	// Несуществующее предлагаемое объявление
	missing := uuid.New()
	_, err = f.engine.RecordSwipe(ctx, f.alice, SwipeRequest{
		TargetListingID:  f.bobLot,
		Direction:        models.SwipeRight,
		OfferedListingID: &missing,
	})
	assert.True(t, swaperr.IsNotFound(err))
}

func TestRecordSwipeBlockedUsers(t *testing.T) {
	f := newFixture(t)
	f.store.Block(f.bob, f.alice)

	_, err := f.engine.RecordSwipe(context.Background(), f.alice, SwipeRequest{
		TargetListingID: f.bobLot,
		Direction:       models.SwipeLeft,
	})
	assert.True(t, swaperr.IsAuthorization(err))
}

func TestRightSwipeCreatesPendingOffer(t *testing.T) {
	f := newFixture(t)

	res := f.swipeRight(t, f.alice, f.bobLot, f.aliceLot)

	require.NotNil(t, res.Offer)
	assert.Equal(t, models.TradeOfferPending, res.Offer.Status)
	assert.Equal(t, f.alice, res.Offer.FromUserID)
	assert.Equal(t, f.bob, res.Offer.ToUserID)
	assert.False(t, res.MatchCreated)
	assert.Nil(t, res.Match)
}

func TestMarketplaceRightSwipeIsInterestOnly(t *testing.T) {
	f := newFixture(t)
	saleLot := uuid.New()
	f.store.AddListing(&models.Listing{ID: saleLot, UserID: f.bob, Type: models.ListingMarketplace})

	res, err := f.engine.RecordSwipe(context.Background(), f.alice, SwipeRequest{
		TargetListingID: saleLot,
		Direction:       models.SwipeRight,
	})
	require.NoError(t, err)
	assert.Nil(t, res.Offer)
	assert.False(t, res.MatchCreated)
}

func TestUnvalidatedOfferedListingNotStored(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Вне правого свайпа по бартеру поле offered не проверяется, поэтому
	// в запись оно попадать не должно — даже если клиент прислал мусор
	bogus := uuid.New()
	saleLot := uuid.New()
	f.store.AddListing(&models.Listing{ID: saleLot, UserID: f.bob, Type: models.ListingMarketplace})

	tests := []struct {
		name string
		req  SwipeRequest
	}{
		{
			name: "левый свайп",
			req: SwipeRequest{
				TargetListingID:  f.bobLot,
				Direction:        models.SwipeLeft,
				OfferedListingID: &bogus,
			},
		},
		{
			name: "верхний свайп",
			req: SwipeRequest{
				TargetListingID:  f.bobLot,
				Direction:        models.SwipeUp,
				OfferedListingID: &bogus,
			},
		},
		{
			name: "правый свайп по маркетплейсу",
			req: SwipeRequest{
				TargetListingID:  saleLot,
				Direction:        models.SwipeRight,
				OfferedListingID: &bogus,
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res, err := f.engine.RecordSwipe(ctx, f.alice, tc.req)
			require.NoError(t, err)
			assert.Nil(t, res.Swipe.OfferedListingID)

			stored, err := f.store.GetSwipe(ctx, f.alice, tc.req.TargetListingID)
			require.NoError(t, err)
			assert.Nil(t, stored.OfferedListingID)
		})
	}
}

func TestReciprocalSwipesCreateMatchOnce(t *testing.T) {
	f := newFixture(t)

	first := f.swipeRight(t, f.alice, f.bobLot, f.aliceLot)
	assert.False(t, first.MatchCreated)

	second := f.swipeRight(t, f.bob, f.aliceLot, f.bobLot)
	assert.True(t, second.MatchCreated)
	require.NotNil(t, second.Match)
	require.NotNil(t, second.Conversation)

	// Матч хранится в каноническом порядке
	u1, u2 := CanonicalUsers(f.alice, f.bob)
	assert.Equal(t, u1, second.Match.User1ID)
	assert.Equal(t, u2, second.Match.User2ID)

	// Оба предложения приняты
	offer, err := f.store.GetTradeOffer(context.Background(), first.Offer.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TradeOfferAccepted, offer.Status)
	assert.Equal(t, models.TradeOfferAccepted, second.Offer.Status)
}

func TestRepeatSwipeReturnsSameMatch(t *testing.T) {
	f := newFixture(t)

	f.swipeRight(t, f.alice, f.bobLot, f.aliceLot)
	created := f.swipeRight(t, f.bob, f.aliceLot, f.bobLot)
	require.True(t, created.MatchCreated)

	repeat := f.swipeRight(t, f.bob, f.aliceLot, f.bobLot)
	assert.False(t, repeat.MatchCreated)
	require.NotNil(t, repeat.Match)
	assert.Equal(t, created.Match.ID, repeat.Match.ID)
	assert.Equal(t, created.Conversation.ID, repeat.Conversation.ID)
}

func TestConcurrentReciprocalSwipes(t *testing.T) {
	f := newFixture(t)

	var wg sync.WaitGroup
	results := make([]*SwipeResult, 2)
	errs := make([]error, 2)

	wg.Add(2)
	go func() {
		defer wg.Done()
		results[0], errs[0] = f.engine.RecordSwipe(context.Background(), f.alice, SwipeRequest{
			TargetListingID:  f.bobLot,
			Direction:        models.SwipeRight,
			OfferedListingID: &f.aliceLot,
		})
	}()
	go func() {
		defer wg.Done()
		results[1], errs[1] = f.engine.RecordSwipe(context.Background(), f.bob, SwipeRequest{
			TargetListingID:  f.aliceLot,
			Direction:        models.SwipeRight,
			OfferedListingID: &f.bobLot,
		})
	}()
	wg.Wait()

	// Ровно один вызов создаёт матч, какая бы сторона ни успела первой
	createdCount := 0
	for i, res := range results {
		require.NoError(t, errs[i])
		if res.MatchCreated {
			createdCount++
		}
	}
	assert.Equal(t, 1, createdCount)

	// Обе стороны видят один и тот же матч
	matches, err := f.store.ListMatches(context.Background(), f.alice)
	require.NoError(t, err)
	require.Len(t, matches, 1)
}

func TestLeftSwipeDeclinesPendingOffer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res := f.swipeRight(t, f.alice, f.bobLot, f.aliceLot)

	_, err := f.engine.RecordSwipe(ctx, f.alice, SwipeRequest{
		TargetListingID: f.bobLot,
		Direction:       models.SwipeLeft,
	})
	require.NoError(t, err)

	offer, err := f.store.GetTradeOffer(ctx, res.Offer.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TradeOfferDeclined, offer.Status)
}

func TestLeftSwipeKeepsAcceptedOffer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res := f.swipeRight(t, f.alice, f.bobLot, f.aliceLot)
	_, err := f.engine.RespondToTradeOffer(ctx, f.bob, res.Offer.ID, true)
	require.NoError(t, err)

	// Принятое предложение задним числом не отзывается
	_, err = f.engine.RecordSwipe(ctx, f.alice, SwipeRequest{
		TargetListingID: f.bobLot,
		Direction:       models.SwipeLeft,
	})
	require.NoError(t, err)

	offer, err := f.store.GetTradeOffer(ctx, res.Offer.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TradeOfferAccepted, offer.Status)
}

func TestDeclinedOfferRevivedByNewSwipe(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res := f.swipeRight(t, f.alice, f.bobLot, f.aliceLot)
	_, err := f.engine.RespondToTradeOffer(ctx, f.bob, res.Offer.ID, false)
	require.NoError(t, err)

	revived := f.swipeRight(t, f.alice, f.bobLot, f.aliceLot)
	assert.Equal(t, res.Offer.ID, revived.Offer.ID)
	assert.Equal(t, models.TradeOfferPending, revived.Offer.Status)
}

func TestRespondToTradeOffer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res := f.swipeRight(t, f.alice, f.bobLot, f.aliceLot)

	// Отправитель отвечать не может
	_, err := f.engine.RespondToTradeOffer(ctx, f.alice, res.Offer.ID, true)
	assert.True(t, swaperr.IsAuthorization(err))

	// Получатель принимает, открывается переписка
	accepted, err := f.engine.RespondToTradeOffer(ctx, f.bob, res.Offer.ID, true)
	require.NoError(t, err)
	assert.Equal(t, models.TradeOfferAccepted, accepted.Offer.Status)
	require.NotNil(t, accepted.Conversation)

	// Повторный ответ — конфликт
	_, err = f.engine.RespondToTradeOffer(ctx, f.bob, res.Offer.ID, false)
	assert.True(t, swaperr.IsConflict(err))
}

func TestRespondToUnknownOffer(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.RespondToTradeOffer(context.Background(), f.bob, uuid.New(), true)
	assert.True(t, swaperr.IsNotFound(err))
}

func TestUpSwipeRecordsMessageRequest(t *testing.T) {
	f := newFixture(t)

	res, err := f.engine.RecordSwipe(context.Background(), f.alice, SwipeRequest{
		TargetListingID: f.bobLot,
		Direction:       models.SwipeUp,
	})
	require.NoError(t, err)
	assert.Equal(t, models.SwipeUp, res.Swipe.Direction)
	assert.Nil(t, res.Offer)
	assert.False(t, res.MatchCreated)
}
