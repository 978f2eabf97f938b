package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/swaply/swaply-api/internal/models"
)

// PostgresStore implements Store on PostgreSQL. Idempotency is pushed down
// to the database: the Ensure* methods rely on unique indexes plus
// INSERT .. ON CONFLICT DO NOTHING, and the escrow transition is a single
// conditional UPDATE. Monetary values are stored as NUMERIC and travel as
// text on the wire.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// --- Consumed collaborators ---

func (s *PostgresStore) GetListing(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	var l models.Listing
	var price *string
	err := s.pool.QueryRow(ctx, `
        SELECT id, user_id, title, description, type, price::TEXT, currency, status, allow_trade, created_at, updated_at
        FROM listings WHERE id = $1
    `, id).Scan(&l.ID, &l.UserID, &l.Title, &l.Description, &l.Type, &price,
		&l.Currency, &l.Status, &l.AllowTrade, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get listing %s: %w", id, err)
	}
	if price != nil {
		p, err := decimal.NewFromString(*price)
		if err != nil {
			return nil, fmt.Errorf("listing %s price: %w", id, err)
		}
		l.Price = &p
	}
	return &l, nil
}

func (s *PostgresStore) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx, `
        SELECT id, username, first_name, last_name, avatar_url, payout_details IS NOT NULL
        FROM users WHERE id = $1
    `, id).Scan(&u.ID, &u.Username, &u.FirstName, &u.LastName, &u.AvatarURL, &u.HasPayoutDetails)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}
	return &u, nil
}

func (s *PostgresStore) HasPayoutDetails(ctx context.Context, userID uuid.UUID) (bool, error) {
	var has bool
	err := s.pool.QueryRow(ctx, `
        SELECT payout_details IS NOT NULL FROM users WHERE id = $1
    `, userID).Scan(&has)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, ErrNotFound
		}
		return false, fmt.Errorf("payout details %s: %w", userID, err)
	}
	return has, nil
}

func (s *PostgresStore) IsBlocked(ctx context.Context, a, b uuid.UUID) (bool, error) {
	var blocked bool
	err := s.pool.QueryRow(ctx, `
        SELECT EXISTS(
            SELECT 1 FROM user_blocks
            WHERE (blocker_id = $1 AND blocked_id = $2)
               OR (blocker_id = $2 AND blocked_id = $1)
        )
    `, a, b).Scan(&blocked)
	if err != nil {
		return false, fmt.Errorf("is blocked: %w", err)
	}
	return blocked, nil
}

// --- Swipe ledger ---

const swipeColumns = `id, actor_id, target_listing_id, direction, offered_listing_id, created_at, updated_at`

func scanSwipe(row pgx.Row) (*models.Swipe, error) {
	var sw models.Swipe
	err := row.Scan(&sw.ID, &sw.ActorID, &sw.TargetListingID, &sw.Direction,
		&sw.OfferedListingID, &sw.CreatedAt, &sw.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &sw, nil
}

func (s *PostgresStore) UpsertSwipe(ctx context.Context, sw *models.Swipe) (*models.Swipe, error) {
	row := s.pool.QueryRow(ctx, `
        INSERT INTO swipes (id, actor_id, target_listing_id, direction, offered_listing_id, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
        ON CONFLICT (actor_id, target_listing_id) DO UPDATE
            SET direction = EXCLUDED.direction,
                offered_listing_id = EXCLUDED.offered_listing_id,
                updated_at = NOW()
        RETURNING `+swipeColumns,
		sw.ID, sw.ActorID, sw.TargetListingID, sw.Direction, sw.OfferedListingID)
	out, err := scanSwipe(row)
	if err != nil {
		return nil, fmt.Errorf("upsert swipe: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) GetSwipe(ctx context.Context, actorID, targetListingID uuid.UUID) (*models.Swipe, error) {
	row := s.pool.QueryRow(ctx, `
        SELECT `+swipeColumns+` FROM swipes
        WHERE actor_id = $1 AND target_listing_id = $2
    `, actorID, targetListingID)
	sw, err := scanSwipe(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get swipe: %w", err)
	}
	return sw, nil
}

func (s *PostgresStore) FindReciprocalSwipe(ctx context.Context, actorID, targetListingID, offeredListingID uuid.UUID) (*models.Swipe, error) {
	row := s.pool.QueryRow(ctx, `
        SELECT `+swipeColumns+` FROM swipes
        WHERE actor_id = $1 AND target_listing_id = $2
          AND offered_listing_id = $3 AND direction = 'right'
    `, actorID, targetListingID, offeredListingID)
	sw, err := scanSwipe(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find reciprocal swipe: %w", err)
	}
	return sw, nil
}

func (s *PostgresStore) ListSwipes(ctx context.Context, actorID uuid.UUID, direction models.SwipeDirection) ([]models.Swipe, error) {
	query := `SELECT ` + swipeColumns + ` FROM swipes WHERE actor_id = $1`
	args := []interface{}{actorID}
	if direction != "" {
		query += ` AND direction = $2`
		args = append(args, direction)
	}
	query += ` ORDER BY updated_at DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list swipes: %w", err)
	}
	defer rows.Close()

	var swipes []models.Swipe
	for rows.Next() {
		sw, err := scanSwipe(rows)
		if err != nil {
			return nil, err
		}
		swipes = append(swipes, *sw)
	}
	return swipes, rows.Err()
}

// --- Trade offer ledger ---

const offerColumns = `id, from_user_id, to_user_id, offered_listing_id, target_listing_id, status, message, created_at, updated_at`

func scanOffer(row pgx.Row) (*models.TradeOffer, error) {
	var o models.TradeOffer
	err := row.Scan(&o.ID, &o.FromUserID, &o.ToUserID, &o.OfferedListingID,
		&o.TargetListingID, &o.Status, &o.Message, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *PostgresStore) UpsertTradeOffer(ctx context.Context, o *models.TradeOffer) (*models.TradeOffer, error) {
	// A declined offer comes back to pending on re-issue; an accepted one
	// stays accepted.
	row := s.pool.QueryRow(ctx, `
        INSERT INTO trade_offers (id, from_user_id, to_user_id, offered_listing_id, target_listing_id, status, message, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, 'pending', $6, NOW(), NOW())
        ON CONFLICT (from_user_id, offered_listing_id, target_listing_id) DO UPDATE
            SET status = CASE WHEN trade_offers.status = 'declined' THEN 'pending' ELSE trade_offers.status END,
                message = EXCLUDED.message,
                updated_at = NOW()
        RETURNING `+offerColumns,
		o.ID, o.FromUserID, o.ToUserID, o.OfferedListingID, o.TargetListingID, o.Message)
	out, err := scanOffer(row)
	if err != nil {
		return nil, fmt.Errorf("upsert trade offer: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) GetTradeOffer(ctx context.Context, id uuid.UUID) (*models.TradeOffer, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+offerColumns+` FROM trade_offers WHERE id = $1`, id)
	o, err := scanOffer(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get trade offer: %w", err)
	}
	return o, nil
}

func (s *PostgresStore) FindTradeOffer(ctx context.Context, fromUserID, offeredListingID, targetListingID uuid.UUID) (*models.TradeOffer, error) {
	row := s.pool.QueryRow(ctx, `
        SELECT `+offerColumns+` FROM trade_offers
        WHERE from_user_id = $1 AND offered_listing_id = $2 AND target_listing_id = $3
    `, fromUserID, offeredListingID, targetListingID)
	o, err := scanOffer(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find trade offer: %w", err)
	}
	return o, nil
}

func (s *PostgresStore) SetTradeOfferStatus(ctx context.Context, id uuid.UUID, fromStatus, toStatus string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
        UPDATE trade_offers SET status = $3, updated_at = NOW()
        WHERE id = $1 AND status = $2
    `, id, fromStatus, toStatus)
	if err != nil {
		return false, fmt.Errorf("set trade offer status: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PostgresStore) ListTradeOffers(ctx context.Context, userID uuid.UUID, f TradeOfferFilter) ([]models.TradeOffer, error) {
	query := `SELECT ` + offerColumns + ` FROM trade_offers WHERE `
	args := []interface{}{userID}
	switch f.Box {
	case "incoming":
		query += `to_user_id = $1`
	case "outgoing":
		query += `from_user_id = $1`
	default:
		query += `(from_user_id = $1 OR to_user_id = $1)`
	}
	if f.Status != "" {
		args = append(args, f.Status)
		query += fmt.Sprintf(` AND status = $%d`, len(args))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list trade offers: %w", err)
	}
	defer rows.Close()

	var offers []models.TradeOffer
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, err
		}
		offers = append(offers, *o)
	}
	return offers, rows.Err()
}

// --- Matches and conversations ---

const convColumns = `id, user1_id, user2_id, last_message_text, last_message_time, is_active, created_at, updated_at`

func scanConversation(row pgx.Row) (*models.Conversation, error) {
	var c models.Conversation
	err := row.Scan(&c.ID, &c.User1ID, &c.User2ID, &c.LastMessageText,
		&c.LastMessageTime, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *PostgresStore) EnsureConversation(ctx context.Context, user1ID, user2ID uuid.UUID) (*models.Conversation, bool, error) {
	// Insert-or-fetch in one round trip. The DO UPDATE arm is a no-op write
	// that exists only for RETURNING: under READ COMMITTED the race loser
	// waits on the winner's tuple lock and then reads the committed row, so
	// the statement never comes back empty (a DO NOTHING + fetch CTE can:
	// the fetch arm runs on a snapshot taken before the winner committed).
	// xmax = 0 holds only for a freshly inserted row.
	row := s.pool.QueryRow(ctx, `
        INSERT INTO conversations (id, user1_id, user2_id, created_at, updated_at)
        VALUES ($1, $2, $3, NOW(), NOW())
        ON CONFLICT (user1_id, user2_id) DO UPDATE
            SET updated_at = conversations.updated_at
        RETURNING `+convColumns+`, (xmax = 0) AS created
    `, uuid.New(), user1ID, user2ID)

	var c models.Conversation
	var created bool
	err := row.Scan(&c.ID, &c.User1ID, &c.User2ID, &c.LastMessageText,
		&c.LastMessageTime, &c.IsActive, &c.CreatedAt, &c.UpdatedAt, &created)
	if err != nil {
		return nil, false, fmt.Errorf("ensure conversation: %w", err)
	}
	return &c, created, nil
}

const matchColumns = `id, user1_id, user2_id, listing1_id, listing2_id, conversation_id, created_at`

func (s *PostgresStore) EnsureMatch(ctx context.Context, m *models.Match) (*models.Match, bool, error) {
	// Same no-op DO UPDATE trick as EnsureConversation: the race loser
	// always gets the winner's row back instead of an empty result.
	row := s.pool.QueryRow(ctx, `
        INSERT INTO matches (id, user1_id, user2_id, listing1_id, listing2_id, conversation_id, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, NOW())
        ON CONFLICT (user1_id, user2_id, listing1_id, listing2_id) DO UPDATE
            SET conversation_id = matches.conversation_id
        RETURNING `+matchColumns+`, (xmax = 0) AS created
    `, m.ID, m.User1ID, m.User2ID, m.Listing1ID, m.Listing2ID, m.ConversationID)

	var out models.Match
	var created bool
	err := row.Scan(&out.ID, &out.User1ID, &out.User2ID, &out.Listing1ID,
		&out.Listing2ID, &out.ConversationID, &out.CreatedAt, &created)
	if err != nil {
		return nil, false, fmt.Errorf("ensure match: %w", err)
	}
	return &out, created, nil
}

func (s *PostgresStore) ListMatches(ctx context.Context, userID uuid.UUID) ([]models.Match, error) {
	rows, err := s.pool.Query(ctx, `
        SELECT `+matchColumns+` FROM matches
        WHERE user1_id = $1 OR user2_id = $1
        ORDER BY created_at DESC
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	defer rows.Close()

	var matches []models.Match
	for rows.Next() {
		var m models.Match
		if err := rows.Scan(&m.ID, &m.User1ID, &m.User2ID, &m.Listing1ID,
			&m.Listing2ID, &m.ConversationID, &m.CreatedAt); err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// --- Message requests ---

func (s *PostgresStore) UpsertMessageRequest(ctx context.Context, r *models.MessageRequest) error {
	_, err := s.pool.Exec(ctx, `
        INSERT INTO message_requests (id, from_user_id, to_user_id, listing_id, created_at)
        VALUES ($1, $2, $3, $4, NOW())
        ON CONFLICT (from_user_id, listing_id) DO NOTHING
    `, r.ID, r.FromUserID, r.ToUserID, r.ListingID)
	if err != nil {
		return fmt.Errorf("upsert message request: %w", err)
	}
	return nil
}

// --- Conversation surface ---

func (s *PostgresStore) GetConversation(ctx context.Context, id uuid.UUID) (*models.Conversation, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+convColumns+` FROM conversations WHERE id = $1`, id)
	c, err := scanConversation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) ListConversations(ctx context.Context, userID uuid.UUID) ([]models.Conversation, error) {
	rows, err := s.pool.Query(ctx, `
        SELECT c.id, c.user1_id, c.user2_id, c.last_message_text, c.last_message_time,
               c.is_active, c.created_at, c.updated_at,
               COUNT(m.id) FILTER (WHERE m.sender_id != $1 AND m.is_read = FALSE) AS unread_count
        FROM conversations c
        LEFT JOIN messages m ON c.id = m.conversation_id
        WHERE c.user1_id = $1 OR c.user2_id = $1
        GROUP BY c.id
        ORDER BY c.last_message_time DESC NULLS LAST, c.created_at DESC
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	var convs []models.Conversation
	for rows.Next() {
		var c models.Conversation
		if err := rows.Scan(&c.ID, &c.User1ID, &c.User2ID, &c.LastMessageText,
			&c.LastMessageTime, &c.IsActive, &c.CreatedAt, &c.UpdatedAt, &c.UnreadCount); err != nil {
			return nil, err
		}
		convs = append(convs, c)
	}
	return convs, rows.Err()
}

func (s *PostgresStore) InsertMessage(ctx context.Context, m *models.Message) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
        INSERT INTO messages (id, conversation_id, sender_id, text, is_read, created_at, updated_at)
        VALUES ($1, $2, $3, $4, FALSE, $5, $5)
    `, m.ID, m.ConversationID, m.SenderID, m.Text, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}

	_, err = tx.Exec(ctx, `
        UPDATE conversations
        SET last_message_text = $2, last_message_time = $3, updated_at = NOW()
        WHERE id = $1
    `, m.ConversationID, m.Text, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("update conversation preview: %w", err)
	}

	return tx.Commit(ctx)
}

func (s *PostgresStore) ListMessages(ctx context.Context, conversationID uuid.UUID, before *uuid.UUID, limit int) ([]models.Message, error) {
	query := `
        SELECT id, conversation_id, sender_id, text, is_read, created_at, updated_at
        FROM messages WHERE conversation_id = $1
    `
	args := []interface{}{conversationID}
	if before != nil {
		query += ` AND created_at < (SELECT created_at FROM messages WHERE id = $2)`
		args = append(args, *before)
	}
	args = append(args, limit)
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d`, len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Text,
			&m.IsRead, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func (s *PostgresStore) MarkMessagesRead(ctx context.Context, conversationID, readerID uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `
        UPDATE messages SET is_read = TRUE
        WHERE conversation_id = $1 AND sender_id != $2 AND is_read = FALSE
    `, conversationID, readerID)
	if err != nil {
		return fmt.Errorf("mark messages read: %w", err)
	}
	return nil
}

// --- Escrow ---

const escrowColumns = `id, buyer_id, seller_id, listing_id, type, amount::TEXT, currency, status,
    payment_reference, funds_held_at, delivery_confirmed_at, released_at, completed_at,
    auto_release_at, dispute_reason, created_at, updated_at`

func scanEscrow(row pgx.Row) (*models.EscrowTransaction, error) {
	var t models.EscrowTransaction
	var amount string
	err := row.Scan(&t.ID, &t.BuyerID, &t.SellerID, &t.ListingID, &t.Type, &amount,
		&t.Currency, &t.Status, &t.PaymentReference, &t.FundsHeldAt, &t.DeliveryConfirmedAt,
		&t.ReleasedAt, &t.CompletedAt, &t.AutoReleaseAt, &t.DisputeReason,
		&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	t.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("escrow amount: %w", err)
	}
	return &t, nil
}

func (s *PostgresStore) CreateEscrow(ctx context.Context, t *models.EscrowTransaction) error {
	_, err := s.pool.Exec(ctx, `
        INSERT INTO escrow_transactions (id, buyer_id, seller_id, listing_id, type, amount, currency, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6::NUMERIC, $7, $8, NOW(), NOW())
    `, t.ID, t.BuyerID, t.SellerID, t.ListingID, t.Type, t.Amount.String(), t.Currency, t.Status)
	if err != nil {
		return fmt.Errorf("create escrow: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetEscrow(ctx context.Context, id uuid.UUID) (*models.EscrowTransaction, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+escrowColumns+` FROM escrow_transactions WHERE id = $1`, id)
	t, err := scanEscrow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get escrow: %w", err)
	}
	return t, nil
}

func (s *PostgresStore) TransitionEscrow(ctx context.Context, id uuid.UUID, fromStatus, toStatus models.EscrowStatus, upd EscrowUpdate) (bool, error) {
	// The WHERE clause carries the guard: if another caller already moved
	// the row out of fromStatus, zero rows match and nothing is written.
	tag, err := s.pool.Exec(ctx, `
        UPDATE escrow_transactions SET
            status = $3,
            payment_reference = COALESCE($4, payment_reference),
            funds_held_at = COALESCE($5, funds_held_at),
            auto_release_at = COALESCE($6, auto_release_at),
            delivery_confirmed_at = COALESCE($7, delivery_confirmed_at),
            released_at = COALESCE($8, released_at),
            completed_at = COALESCE($9, completed_at),
            dispute_reason = COALESCE($10, dispute_reason),
            updated_at = NOW()
        WHERE id = $1 AND status = $2
    `, id, fromStatus, toStatus,
		upd.PaymentReference, upd.FundsHeldAt, upd.AutoReleaseAt,
		upd.DeliveryConfirmedAt, upd.ReleasedAt, upd.CompletedAt, upd.DisputeReason)
	if err != nil {
		return false, fmt.Errorf("transition escrow: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PostgresStore) ListEscrows(ctx context.Context, userID uuid.UUID) ([]models.EscrowTransaction, error) {
	rows, err := s.pool.Query(ctx, `
        SELECT `+escrowColumns+` FROM escrow_transactions
        WHERE buyer_id = $1 OR seller_id = $1
        ORDER BY created_at DESC
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("list escrows: %w", err)
	}
	defer rows.Close()
	return collectEscrows(rows)
}

func (s *PostgresStore) ListDueAutoRelease(ctx context.Context, now time.Time, limit int) ([]models.EscrowTransaction, error) {
	rows, err := s.pool.Query(ctx, `
        SELECT `+escrowColumns+` FROM escrow_transactions
        WHERE status = 'funds_held' AND auto_release_at IS NOT NULL AND auto_release_at <= $1
        ORDER BY auto_release_at ASC
        LIMIT $2
    `, now, limit)
	if err != nil {
		return nil, fmt.Errorf("list due auto release: %w", err)
	}
	defer rows.Close()
	return collectEscrows(rows)
}

func collectEscrows(rows pgx.Rows) ([]models.EscrowTransaction, error) {
	var txs []models.EscrowTransaction
	for rows.Next() {
		t, err := scanEscrow(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, *t)
	}
	return txs, rows.Err()
}
