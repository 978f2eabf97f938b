// Package store defines the persistence interface for the matching engine
// and the escrow state machine. PostgreSQL is the source of truth; the
// in-memory implementation exists for tests and local development.
//
// The contract every implementation must honor: Ensure* methods are
// upsert-or-fetch on a uniqueness key and are safe under concurrent callers
// (exactly one caller observes created=true), and TransitionEscrow is a
// compare-and-swap on the current status (at most one concurrent caller
// succeeds).
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/swaply/swaply-api/internal/models"
)

// ErrNotFound is returned when the requested row does not exist.
var ErrNotFound = errors.New("store: not found")

// EscrowUpdate lists the optional fields a transition may set. Nil fields
// are left untouched.
type EscrowUpdate struct {
	PaymentReference    *string
	FundsHeldAt         *time.Time
	AutoReleaseAt       *time.Time
	DeliveryConfirmedAt *time.Time
	ReleasedAt          *time.Time
	CompletedAt         *time.Time
	DisputeReason       *string
}

// TradeOfferFilter narrows ListTradeOffers. Zero values mean "any".
type TradeOfferFilter struct {
	Box    string // "incoming", "outgoing" or "" for both
	Status string // "pending", "accepted", "declined" or ""
}

// Store is the persistence interface shared by the match engine and the
// escrow machine.
type Store interface {
	// --- Consumed collaborators (listing store, users, block relations) ---

	GetListing(ctx context.Context, id uuid.UUID) (*models.Listing, error)
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	// HasPayoutDetails reports whether the user configured a payout
	// destination (escrow seller precondition).
	HasPayoutDetails(ctx context.Context, userID uuid.UUID) (bool, error)
	// IsBlocked reports whether either user blocks the other.
	IsBlocked(ctx context.Context, a, b uuid.UUID) (bool, error)

	// --- Swipe ledger ---

	// UpsertSwipe inserts or refreshes the single row keyed on
	// (actor_id, target_listing_id).
	UpsertSwipe(ctx context.Context, s *models.Swipe) (*models.Swipe, error)
	GetSwipe(ctx context.Context, actorID, targetListingID uuid.UUID) (*models.Swipe, error)
	// FindReciprocalSwipe looks up a right-swipe by actorID on
	// targetListingID offering offeredListingID.
	FindReciprocalSwipe(ctx context.Context, actorID, targetListingID, offeredListingID uuid.UUID) (*models.Swipe, error)
	ListSwipes(ctx context.Context, actorID uuid.UUID, direction models.SwipeDirection) ([]models.Swipe, error)

	// --- Trade offer ledger ---

	// UpsertTradeOffer inserts the offer or returns the existing row keyed
	// on (from_user_id, offered_listing_id, target_listing_id). A declined
	// offer is revived back to pending; an accepted one is returned as is.
	UpsertTradeOffer(ctx context.Context, o *models.TradeOffer) (*models.TradeOffer, error)
	GetTradeOffer(ctx context.Context, id uuid.UUID) (*models.TradeOffer, error)
	FindTradeOffer(ctx context.Context, fromUserID, offeredListingID, targetListingID uuid.UUID) (*models.TradeOffer, error)
	// SetTradeOfferStatus is a compare-and-swap: the update applies only if
	// the offer is currently in fromStatus. Returns whether a row changed.
	SetTradeOfferStatus(ctx context.Context, id uuid.UUID, fromStatus, toStatus string) (bool, error)
	ListTradeOffers(ctx context.Context, userID uuid.UUID, f TradeOfferFilter) ([]models.TradeOffer, error)

	// --- Matches and conversations ---

	// EnsureConversation creates the conversation for the canonical user
	// pair or fetches the existing one. created is true for exactly one
	// concurrent caller.
	EnsureConversation(ctx context.Context, user1ID, user2ID uuid.UUID) (conv *models.Conversation, created bool, err error)
	// EnsureMatch creates the match keyed on the canonical
	// (user1, user2, listing1, listing2) tuple or fetches the existing one.
	EnsureMatch(ctx context.Context, m *models.Match) (match *models.Match, created bool, err error)
	ListMatches(ctx context.Context, userID uuid.UUID) ([]models.Match, error)

	// --- Message requests ("up" swipes) ---

	UpsertMessageRequest(ctx context.Context, r *models.MessageRequest) error

	// --- Conversation surface ---

	GetConversation(ctx context.Context, id uuid.UUID) (*models.Conversation, error)
	ListConversations(ctx context.Context, userID uuid.UUID) ([]models.Conversation, error)
	InsertMessage(ctx context.Context, m *models.Message) error
	ListMessages(ctx context.Context, conversationID uuid.UUID, before *uuid.UUID, limit int) ([]models.Message, error)
	MarkMessagesRead(ctx context.Context, conversationID, readerID uuid.UUID) error

	// --- Escrow ---

	CreateEscrow(ctx context.Context, t *models.EscrowTransaction) error
	GetEscrow(ctx context.Context, id uuid.UUID) (*models.EscrowTransaction, error)
	// TransitionEscrow is a compare-and-swap: status moves from fromStatus
	// to toStatus and upd is applied only if the row is currently in
	// fromStatus. Returns whether a row changed.
	TransitionEscrow(ctx context.Context, id uuid.UUID, fromStatus, toStatus models.EscrowStatus, upd EscrowUpdate) (bool, error)
	ListEscrows(ctx context.Context, userID uuid.UUID) ([]models.EscrowTransaction, error)
	// ListDueAutoRelease returns funds_held transactions whose
	// auto_release_at is at or before now.
	ListDueAutoRelease(ctx context.Context, now time.Time, limit int) ([]models.EscrowTransaction, error)
}
