package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/swaply/swaply-api/internal/models"
)

// MemoryStore implements Store with in-memory maps guarded by a single
// mutex. The mutex gives the same linearizability the unique indexes give
// in PostgreSQL, so concurrency tests against MemoryStore exercise the real
// contract. Used for testing and development only.
type MemoryStore struct {
	mu sync.Mutex

	listings map[uuid.UUID]*models.Listing
	users    map[uuid.UUID]*models.User
	blocks   map[[2]uuid.UUID]bool

	swipes   map[[2]uuid.UUID]*models.Swipe // (actor, target listing)
	offers   map[uuid.UUID]*models.TradeOffer
	offerKey map[[3]uuid.UUID]uuid.UUID // (from, offered, target) -> offer id

	conversations map[uuid.UUID]*models.Conversation
	convKey       map[[2]uuid.UUID]uuid.UUID // canonical user pair -> conversation id
	matches       map[uuid.UUID]*models.Match
	matchKey      map[[4]uuid.UUID]uuid.UUID
	requests      map[[2]uuid.UUID]*models.MessageRequest // (from, listing)
	messages      []models.Message

	escrows map[uuid.UUID]*models.EscrowTransaction
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		listings:      make(map[uuid.UUID]*models.Listing),
		users:         make(map[uuid.UUID]*models.User),
		blocks:        make(map[[2]uuid.UUID]bool),
		swipes:        make(map[[2]uuid.UUID]*models.Swipe),
		offers:        make(map[uuid.UUID]*models.TradeOffer),
		offerKey:      make(map[[3]uuid.UUID]uuid.UUID),
		conversations: make(map[uuid.UUID]*models.Conversation),
		convKey:       make(map[[2]uuid.UUID]uuid.UUID),
		matches:       make(map[uuid.UUID]*models.Match),
		matchKey:      make(map[[4]uuid.UUID]uuid.UUID),
		requests:      make(map[[2]uuid.UUID]*models.MessageRequest),
		escrows:       make(map[uuid.UUID]*models.EscrowTransaction),
	}
}

// --- Seeding helpers for tests ---

// AddListing seeds a listing.
func (s *MemoryStore) AddListing(l *models.Listing) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *l
	s.listings[l.ID] = &cp
}

// AddUser seeds a user.
func (s *MemoryStore) AddUser(u *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *u
	s.users[u.ID] = &cp
}

// Block records a one-directional block from blocker to blocked.
func (s *MemoryStore) Block(blocker, blocked uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blocks[[2]uuid.UUID{blocker, blocked}] = true
}

// --- Consumed collaborators ---

func (s *MemoryStore) GetListing(_ context.Context, id uuid.UUID) (*models.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.listings[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (s *MemoryStore) GetUser(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *MemoryStore) HasPayoutDetails(_ context.Context, userID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return false, ErrNotFound
	}
	return u.HasPayoutDetails, nil
}

func (s *MemoryStore) IsBlocked(_ context.Context, a, b uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.blocks[[2]uuid.UUID{a, b}] || s.blocks[[2]uuid.UUID{b, a}], nil
}

// --- Swipe ledger ---

func (s *MemoryStore) UpsertSwipe(_ context.Context, sw *models.Swipe) (*models.Swipe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := [2]uuid.UUID{sw.ActorID, sw.TargetListingID}
	now := time.Now().UTC()
	if existing, ok := s.swipes[key]; ok {
		existing.Direction = sw.Direction
		existing.OfferedListingID = sw.OfferedListingID
		existing.UpdatedAt = now
		cp := *existing
		return &cp, nil
	}
	cp := *sw
	cp.CreatedAt = now
	cp.UpdatedAt = now
	s.swipes[key] = &cp
	out := cp
	return &out, nil
}

func (s *MemoryStore) GetSwipe(_ context.Context, actorID, targetListingID uuid.UUID) (*models.Swipe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sw, ok := s.swipes[[2]uuid.UUID{actorID, targetListingID}]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *sw
	return &cp, nil
}

func (s *MemoryStore) FindReciprocalSwipe(_ context.Context, actorID, targetListingID, offeredListingID uuid.UUID) (*models.Swipe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sw, ok := s.swipes[[2]uuid.UUID{actorID, targetListingID}]
	if !ok || sw.Direction != models.SwipeRight ||
		sw.OfferedListingID == nil || *sw.OfferedListingID != offeredListingID {
		return nil, ErrNotFound
	}
	cp := *sw
	return &cp, nil
}

func (s *MemoryStore) ListSwipes(_ context.Context, actorID uuid.UUID, direction models.SwipeDirection) ([]models.Swipe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Swipe
	for _, sw := range s.swipes {
		if sw.ActorID != actorID {
			continue
		}
		if direction != "" && sw.Direction != direction {
			continue
		}
		out = append(out, *sw)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

// --- Trade offer ledger ---

func (s *MemoryStore) UpsertTradeOffer(_ context.Context, o *models.TradeOffer) (*models.TradeOffer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := [3]uuid.UUID{o.FromUserID, o.OfferedListingID, o.TargetListingID}
	now := time.Now().UTC()
	if id, ok := s.offerKey[key]; ok {
		existing := s.offers[id]
		if existing.Status == models.TradeOfferDeclined {
			existing.Status = models.TradeOfferPending
		}
		existing.Message = o.Message
		existing.UpdatedAt = now
		cp := *existing
		return &cp, nil
	}
	cp := *o
	cp.Status = models.TradeOfferPending
	cp.CreatedAt = now
	cp.UpdatedAt = now
	s.offers[cp.ID] = &cp
	s.offerKey[key] = cp.ID
	out := cp
	return &out, nil
}

func (s *MemoryStore) GetTradeOffer(_ context.Context, id uuid.UUID) (*models.TradeOffer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.offers[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (s *MemoryStore) FindTradeOffer(_ context.Context, fromUserID, offeredListingID, targetListingID uuid.UUID) (*models.TradeOffer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.offerKey[[3]uuid.UUID{fromUserID, offeredListingID, targetListingID}]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s.offers[id]
	return &cp, nil
}

func (s *MemoryStore) SetTradeOfferStatus(_ context.Context, id uuid.UUID, fromStatus, toStatus string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.offers[id]
	if !ok || o.Status != fromStatus {
		return false, nil
	}
	o.Status = toStatus
	o.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (s *MemoryStore) ListTradeOffers(_ context.Context, userID uuid.UUID, f TradeOfferFilter) ([]models.TradeOffer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.TradeOffer
	for _, o := range s.offers {
		switch f.Box {
		case "incoming":
			if o.ToUserID != userID {
				continue
			}
		case "outgoing":
			if o.FromUserID != userID {
				continue
			}
		default:
			if o.FromUserID != userID && o.ToUserID != userID {
				continue
			}
		}
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// --- Matches and conversations ---

func (s *MemoryStore) EnsureConversation(_ context.Context, user1ID, user2ID uuid.UUID) (*models.Conversation, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := [2]uuid.UUID{user1ID, user2ID}
	if id, ok := s.convKey[key]; ok {
		cp := *s.conversations[id]
		return &cp, false, nil
	}
	now := time.Now().UTC()
	c := &models.Conversation{
		ID:        uuid.New(),
		User1ID:   user1ID,
		User2ID:   user2ID,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.conversations[c.ID] = c
	s.convKey[key] = c.ID
	cp := *c
	return &cp, true, nil
}

func (s *MemoryStore) EnsureMatch(_ context.Context, m *models.Match) (*models.Match, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := [4]uuid.UUID{m.User1ID, m.User2ID, m.Listing1ID, m.Listing2ID}
	if id, ok := s.matchKey[key]; ok {
		cp := *s.matches[id]
		return &cp, false, nil
	}
	cp := *m
	cp.CreatedAt = time.Now().UTC()
	s.matches[cp.ID] = &cp
	s.matchKey[key] = cp.ID
	out := cp
	return &out, true, nil
}

func (s *MemoryStore) ListMatches(_ context.Context, userID uuid.UUID) ([]models.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Match
	for _, m := range s.matches {
		if m.User1ID == userID || m.User2ID == userID {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// --- Message requests ---

func (s *MemoryStore) UpsertMessageRequest(_ context.Context, r *models.MessageRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := [2]uuid.UUID{r.FromUserID, r.ListingID}
	if _, ok := s.requests[key]; ok {
		return nil
	}
	cp := *r
	cp.CreatedAt = time.Now().UTC()
	s.requests[key] = &cp
	return nil
}

// --- Conversation surface ---

func (s *MemoryStore) GetConversation(_ context.Context, id uuid.UUID) (*models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.conversations[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *MemoryStore) ListConversations(_ context.Context, userID uuid.UUID) ([]models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Conversation
	for _, c := range s.conversations {
		if c.User1ID != userID && c.User2ID != userID {
			continue
		}
		cp := *c
		for _, m := range s.messages {
			if m.ConversationID == c.ID && m.SenderID != userID && !m.IsRead {
				cp.UnreadCount++
			}
		}
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) InsertMessage(_ context.Context, m *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.conversations[m.ConversationID]
	if !ok {
		return ErrNotFound
	}
	s.messages = append(s.messages, *m)
	c.LastMessageText = m.Text
	t := m.CreatedAt
	c.LastMessageTime = &t
	c.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *MemoryStore) ListMessages(_ context.Context, conversationID uuid.UUID, before *uuid.UUID, limit int) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var cutoff *time.Time
	if before != nil {
		for _, m := range s.messages {
			if m.ID == *before {
				t := m.CreatedAt
				cutoff = &t
				break
			}
		}
	}

	var out []models.Message
	for _, m := range s.messages {
		if m.ConversationID != conversationID {
			continue
		}
		if cutoff != nil && !m.CreatedAt.Before(*cutoff) {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) MarkMessagesRead(_ context.Context, conversationID, readerID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.messages {
		m := &s.messages[i]
		if m.ConversationID == conversationID && m.SenderID != readerID {
			m.IsRead = true
		}
	}
	return nil
}

// --- Escrow ---

func (s *MemoryStore) CreateEscrow(_ context.Context, t *models.EscrowTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	cp := *t
	cp.CreatedAt = now
	cp.UpdatedAt = now
	s.escrows[cp.ID] = &cp
	return nil
}

func (s *MemoryStore) GetEscrow(_ context.Context, id uuid.UUID) (*models.EscrowTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.escrows[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *MemoryStore) TransitionEscrow(_ context.Context, id uuid.UUID, fromStatus, toStatus models.EscrowStatus, upd EscrowUpdate) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.escrows[id]
	if !ok || t.Status != fromStatus {
		return false, nil
	}
	t.Status = toStatus
	if upd.PaymentReference != nil {
		t.PaymentReference = upd.PaymentReference
	}
	if upd.FundsHeldAt != nil {
		t.FundsHeldAt = upd.FundsHeldAt
	}
	if upd.AutoReleaseAt != nil {
		t.AutoReleaseAt = upd.AutoReleaseAt
	}
	if upd.DeliveryConfirmedAt != nil {
		t.DeliveryConfirmedAt = upd.DeliveryConfirmedAt
	}
	if upd.ReleasedAt != nil {
		t.ReleasedAt = upd.ReleasedAt
	}
	if upd.CompletedAt != nil {
		t.CompletedAt = upd.CompletedAt
	}
	if upd.DisputeReason != nil {
		t.DisputeReason = upd.DisputeReason
	}
	t.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (s *MemoryStore) ListEscrows(_ context.Context, userID uuid.UUID) ([]models.EscrowTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.EscrowTransaction
	for _, t := range s.escrows {
		if t.BuyerID == userID || t.SellerID == userID {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) ListDueAutoRelease(_ context.Context, now time.Time, limit int) ([]models.EscrowTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.EscrowTransaction
	for _, t := range s.escrows {
		if t.Status != models.EscrowFundsHeld || t.AutoReleaseAt == nil {
			continue
		}
		if t.AutoReleaseAt.After(now) {
			continue
		}
		out = append(out, *t)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}
