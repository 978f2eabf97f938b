package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swaply/swaply-api/internal/models"
)

func TestEnsureConversationConcurrent(t *testing.T) {
	st := NewMemoryStore()
	user1, user2 := uuid.New(), uuid.New()

	const callers = 16
	var wg sync.WaitGroup
	createdFlags := make([]bool, callers)
	ids := make([]uuid.UUID, callers)
	errs := make([]error, callers)

	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func(i int) {
			defer wg.Done()
			conv, created, err := st.EnsureConversation(context.Background(), user1, user2)
			if err != nil {
				errs[i] = err
				return
			}
			createdFlags[i] = created
			ids[i] = conv.ID
		}(i)
	}
	wg.Wait()

	// Exactly one caller observes created=true, everyone gets the same row.
	createdCount := 0
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		if createdFlags[i] {
			createdCount++
		}
		assert.Equal(t, ids[0], ids[i])
	}
	assert.Equal(t, 1, createdCount)
}

func TestEnsureMatchIdempotent(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	m := &models.Match{
		ID:             uuid.New(),
		User1ID:        uuid.New(),
		User2ID:        uuid.New(),
		Listing1ID:     uuid.New(),
		Listing2ID:     uuid.New(),
		ConversationID: uuid.New(),
	}

	first, created, err := st.EnsureMatch(ctx, m)
	require.NoError(t, err)
	assert.True(t, created)

	// Same key with a fresh ID returns the existing row.
	dup := *m
	dup.ID = uuid.New()
	second, created, err := st.EnsureMatch(ctx, &dup)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
}

func TestSetTradeOfferStatusCAS(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	offer, err := st.UpsertTradeOffer(ctx, &models.TradeOffer{
		ID:               uuid.New(),
		FromUserID:       uuid.New(),
		ToUserID:         uuid.New(),
		OfferedListingID: uuid.New(),
		TargetListingID:  uuid.New(),
	})
	require.NoError(t, err)
	require.Equal(t, models.TradeOfferPending, offer.Status)

	// Wrong expected status leaves the row untouched.
	changed, err := st.SetTradeOfferStatus(ctx, offer.ID, models.TradeOfferAccepted, models.TradeOfferDeclined)
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = st.SetTradeOfferStatus(ctx, offer.ID, models.TradeOfferPending, models.TradeOfferAccepted)
	require.NoError(t, err)
	assert.True(t, changed)

	got, err := st.GetTradeOffer(ctx, offer.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TradeOfferAccepted, got.Status)
}

func TestUpsertSwipeOverwritesDirection(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	actor, target := uuid.New(), uuid.New()
	offered := uuid.New()

	first, err := st.UpsertSwipe(ctx, &models.Swipe{
		ID:               uuid.New(),
		ActorID:          actor,
		TargetListingID:  target,
		Direction:        models.SwipeRight,
		OfferedListingID: &offered,
	})
	require.NoError(t, err)

	second, err := st.UpsertSwipe(ctx, &models.Swipe{
		ID:              uuid.New(),
		ActorID:         actor,
		TargetListingID: target,
		Direction:       models.SwipeLeft,
	})
	require.NoError(t, err)

	// One row per (actor, target listing); the ID is stable.
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, models.SwipeLeft, second.Direction)

	swipes, err := st.ListSwipes(ctx, actor, "")
	require.NoError(t, err)
	assert.Len(t, swipes, 1)
}

func TestTransitionEscrowCAS(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	tx := &models.EscrowTransaction{
		ID:       uuid.New(),
		BuyerID:  uuid.New(),
		SellerID: uuid.New(),
		Status:   models.EscrowInitiated,
	}
	require.NoError(t, st.CreateEscrow(ctx, tx))

	now := time.Now().UTC()
	changed, err := st.TransitionEscrow(ctx, tx.ID, models.EscrowInitiated, models.EscrowFundsHeld, EscrowUpdate{
		FundsHeldAt: &now,
	})
	require.NoError(t, err)
	assert.True(t, changed)

	// Stale expected status loses the swap.
	changed, err = st.TransitionEscrow(ctx, tx.ID, models.EscrowInitiated, models.EscrowFundsHeld, EscrowUpdate{})
	require.NoError(t, err)
	assert.False(t, changed)

	got, err := st.GetEscrow(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EscrowFundsHeld, got.Status)
	require.NotNil(t, got.FundsHeldAt)
}

func TestListMessagesPagination(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	user1, user2 := uuid.New(), uuid.New()
	conv, _, err := st.EnsureConversation(ctx, user1, user2)
	require.NoError(t, err)

	var msgIDs []uuid.UUID
	for i := 0; i < 5; i++ {
		m := &models.Message{
			ID:             uuid.New(),
			ConversationID: conv.ID,
			SenderID:       user1,
			Text:           "msg",
			CreatedAt:      time.Now().UTC().Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, st.InsertMessage(ctx, m))
		msgIDs = append(msgIDs, m.ID)
	}

	page, err := st.ListMessages(ctx, conv.ID, nil, 3)
	require.NoError(t, err)
	require.Len(t, page, 3)

	// Cursor walks backwards from the oldest message of the first page.
	next, err := st.ListMessages(ctx, conv.ID, &page[len(page)-1].ID, 3)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(next), 2)
}

func TestMarkMessagesRead(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	user1, user2 := uuid.New(), uuid.New()
	conv, _, err := st.EnsureConversation(ctx, user1, user2)
	require.NoError(t, err)

	require.NoError(t, st.InsertMessage(ctx, &models.Message{
		ID:             uuid.New(),
		ConversationID: conv.ID,
		SenderID:       user1,
		Text:           "hello",
		CreatedAt:      time.Now().UTC(),
	}))

	// The reader marks the counterpart's messages, not their own.
	require.NoError(t, st.MarkMessagesRead(ctx, conv.ID, user2))

	msgs, err := st.ListMessages(ctx, conv.ID, nil, 10)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.True(t, msgs[0].IsRead)
}
