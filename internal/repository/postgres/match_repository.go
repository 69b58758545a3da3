package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/detour-app/detour-backend/internal/domain"
	"github.com/detour-app/detour-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type swipeRepository struct {
	db *sqlx.DB
}

func NewSwipeRepository(db *sqlx.DB) repository.SwipeRepository {
	return &swipeRepository{db: db}
}

func (r *swipeRepository) Create(ctx context.Context, swipe *domain.Swipe) error {
	swipe.ID = uuid.NewString()
	query := `
		INSERT INTO swipes (id, swiper_id, swiped_id, action)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`
	err := conn(ctx, r.db).QueryRowxContext(ctx, query, swipe.ID, swipe.SwiperID, swipe.SwipedID, swipe.Action).
		Scan(&swipe.CreatedAt)
	if isUniqueViolation(err, "swipes_by_pair") {
		return domain.ErrDuplicateSwipe
	}
	return err
}

func (r *swipeRepository) FindByUsers(ctx context.Context, swiperID, swipedID string) (*domain.Swipe, error) {
	var swipe domain.Swipe
	query := `SELECT id, swiper_id, swiped_id, action, created_at FROM swipes WHERE swiper_id = $1 AND swiped_id = $2`
	err := conn(ctx, r.db).GetContext(ctx, &swipe, query, swiperID, swipedID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &swipe, nil
}

func (r *swipeRepository) GetLikesReceived(ctx context.Context, userID string) ([]*domain.Swipe, error) {
	var swipes []*domain.Swipe
	query := `
		SELECT id, swiper_id, swiped_id, action, created_at
		FROM swipes
		WHERE swiped_id = $1 AND action IN ('like', 'superlike')
		ORDER BY created_at DESC
	`
	err := conn(ctx, r.db).SelectContext(ctx, &swipes, query, userID)
	return swipes, err
}

func (r *swipeRepository) ListSwipedIDs(ctx context.Context, swiperID string) ([]string, error) {
	var ids []string
	err := conn(ctx, r.db).SelectContext(ctx, &ids, `SELECT swiped_id FROM swipes WHERE swiper_id = $1`, swiperID)
	return ids, err
}

func (r *swipeRepository) DeleteByUser(ctx context.Context, userID string) error {
	query := `DELETE FROM swipes WHERE swiper_id = $1 OR swiped_id = $1`
	_, err := conn(ctx, r.db).ExecContext(ctx, query, userID)
	return err
}

const matchColumns = `id, user1_id, user2_id, status, user1_action, user2_action, matched_at, created_at`

type matchRepository struct {
	db *sqlx.DB
}

func NewMatchRepository(db *sqlx.DB) repository.MatchRepository {
	return &matchRepository{db: db}
}

func (r *matchRepository) Create(ctx context.Context, match *domain.Match) error {
	match.ID = uuid.NewString()
	query := `
		INSERT INTO matches (id, user1_id, user2_id, status, user1_action, user2_action, matched_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`
	err := conn(ctx, r.db).QueryRowxContext(
		ctx, query,
		match.ID, match.User1ID, match.User2ID, match.Status, match.User1Action, match.User2Action, match.MatchedAt,
	).Scan(&match.CreatedAt)
	if isUniqueViolation(err, "matches_by_unordered_pair") {
		return domain.NewError(domain.KindConflict, "match already exists")
	}
	return err
}

func (r *matchRepository) GetByID(ctx context.Context, id string) (*domain.Match, error) {
	var match domain.Match
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`
	err := conn(ctx, r.db).GetContext(ctx, &match, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrMatchNotFound
		}
		return nil, err
	}
	return &match, nil
}

func (r *matchRepository) FindByUsers(ctx context.Context, userA, userB string) (*domain.Match, error) {
	low, high := domain.PairKey(userA, userB)

	var match domain.Match
	query := `
		SELECT ` + matchColumns + ` FROM matches
		WHERE LEAST(user1_id, user2_id) = $1 AND GREATEST(user1_id, user2_id) = $2
	`
	err := conn(ctx, r.db).GetContext(ctx, &match, query, low, high)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &match, nil
}

func (r *matchRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Match, error) {
	var matches []*domain.Match
	// The two branches use matches_by_user1 and matches_by_user2 respectively.
	query := `
		SELECT ` + matchColumns + ` FROM matches WHERE user1_id = $1
		UNION
		SELECT ` + matchColumns + ` FROM matches WHERE user2_id = $1
		ORDER BY created_at DESC
	`
	err := conn(ctx, r.db).SelectContext(ctx, &matches, query, userID)
	return matches, err
}

func (r *matchRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM matches WHERE id = $1`
	return expectRows(conn(ctx, r.db).ExecContext(ctx, query, id))(domain.ErrMatchNotFound)
}

const messageColumns = `id, match_id, sender_id, content, message_type, read_at, created_at`

type messageRepository struct {
	db *sqlx.DB
}

func NewMessageRepository(db *sqlx.DB) repository.MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, msg *domain.Message) error {
	msg.ID = uuid.NewString()
	query := `
		INSERT INTO messages (id, match_id, sender_id, content, message_type)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`
	return conn(ctx, r.db).QueryRowxContext(ctx, query, msg.ID, msg.MatchID, msg.SenderID, msg.Content, msg.MessageType).
		Scan(&msg.CreatedAt)
}

func (r *messageRepository) ListByMatch(ctx context.Context, matchID string) ([]*domain.Message, error) {
	messages := []*domain.Message{}
	query := `SELECT ` + messageColumns + ` FROM messages WHERE match_id = $1 ORDER BY created_at ASC, id ASC`
	err := conn(ctx, r.db).SelectContext(ctx, &messages, query, matchID)
	return messages, err
}

func (r *messageRepository) GetLastByMatch(ctx context.Context, matchID string) (*domain.Message, error) {
	var msg domain.Message
	query := `SELECT ` + messageColumns + ` FROM messages WHERE match_id = $1 ORDER BY created_at DESC, id DESC LIMIT 1`
	err := conn(ctx, r.db).GetContext(ctx, &msg, query, matchID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &msg, nil
}

func (r *messageRepository) CountUnread(ctx context.Context, matchID, readerID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM messages WHERE match_id = $1 AND sender_id <> $2 AND read_at IS NULL`
	err := conn(ctx, r.db).GetContext(ctx, &count, query, matchID, readerID)
	return count, err
}

func (r *messageRepository) MarkRead(ctx context.Context, matchID, readerID string, at time.Time) (int, error) {
	query := `UPDATE messages SET read_at = $1 WHERE match_id = $2 AND sender_id <> $3 AND read_at IS NULL`
	result, err := conn(ctx, r.db).ExecContext(ctx, query, at, matchID, readerID)
	if err != nil {
		return 0, err
	}
	rows, err := result.RowsAffected()
	return int(rows), err
}

func (r *messageRepository) DeleteByMatch(ctx context.Context, matchID string) error {
	_, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM messages WHERE match_id = $1`, matchID)
	return err
}

type typingRepository struct {
	db *sqlx.DB
}

func NewTypingRepository(db *sqlx.DB) repository.TypingRepository {
	return &typingRepository{db: db}
}

func (r *typingRepository) Upsert(ctx context.Context, status *domain.TypingStatus) error {
	query := `
		INSERT INTO typing_status (match_id, user_id, is_typing, updated_at)
		VALUES ($1, $2, $3, CURRENT_TIMESTAMP)
		ON CONFLICT (match_id, user_id)
		DO UPDATE SET is_typing = EXCLUDED.is_typing, updated_at = EXCLUDED.updated_at
		RETURNING updated_at
	`
	return conn(ctx, r.db).QueryRowxContext(ctx, query, status.MatchID, status.UserID, status.IsTyping).
		Scan(&status.UpdatedAt)
}

func (r *typingRepository) Get(ctx context.Context, matchID, userID string) (*domain.TypingStatus, error) {
	var status domain.TypingStatus
	query := `SELECT match_id, user_id, is_typing, updated_at FROM typing_status WHERE match_id = $1 AND user_id = $2`
	err := conn(ctx, r.db).GetContext(ctx, &status, query, matchID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &status, nil
}

func (r *typingRepository) DeleteByMatch(ctx context.Context, matchID string) error {
	_, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM typing_status WHERE match_id = $1`, matchID)
	return err
}

const blockColumns = `id, blocker_id, blocked_id, created_at`

type blockRepository struct {
	db *sqlx.DB
}

func NewBlockRepository(db *sqlx.DB) repository.BlockRepository {
	return &blockRepository{db: db}
}

func (r *blockRepository) Create(ctx context.Context, block *domain.BlockedUser) error {
	query := `
		INSERT INTO blocked_users (id, blocker_id, blocked_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (blocker_id, blocked_id) DO UPDATE SET blocker_id = EXCLUDED.blocker_id
		RETURNING ` + blockColumns
	return conn(ctx, r.db).QueryRowxContext(ctx, query, uuid.NewString(), block.BlockerID, block.BlockedID).
		StructScan(block)
}

func (r *blockRepository) Delete(ctx context.Context, blockerID, blockedID string) error {
	query := `DELETE FROM blocked_users WHERE blocker_id = $1 AND blocked_id = $2`
	_, err := conn(ctx, r.db).ExecContext(ctx, query, blockerID, blockedID)
	return err
}

func (r *blockRepository) FindBetween(ctx context.Context, userA, userB string) (*domain.BlockedUser, error) {
	var block domain.BlockedUser
	query := `
		SELECT ` + blockColumns + ` FROM blocked_users
		WHERE (blocker_id = $1 AND blocked_id = $2) OR (blocker_id = $2 AND blocked_id = $1)
		ORDER BY created_at ASC
		LIMIT 1
	`
	err := conn(ctx, r.db).GetContext(ctx, &block, query, userA, userB)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &block, nil
}

func (r *blockRepository) ListByBlocker(ctx context.Context, blockerID string) ([]*domain.BlockedUser, error) {
	blocks := []*domain.BlockedUser{}
	query := `SELECT ` + blockColumns + ` FROM blocked_users WHERE blocker_id = $1 ORDER BY created_at DESC`
	err := conn(ctx, r.db).SelectContext(ctx, &blocks, query, blockerID)
	return blocks, err
}

func (r *blockRepository) ListInvolving(ctx context.Context, userID string) ([]*domain.BlockedUser, error) {
	var blocks []*domain.BlockedUser
	query := `SELECT ` + blockColumns + ` FROM blocked_users WHERE blocker_id = $1 OR blocked_id = $1`
	err := conn(ctx, r.db).SelectContext(ctx, &blocks, query, userID)
	return blocks, err
}

func (r *blockRepository) DeleteByUser(ctx context.Context, userID string) error {
	_, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM blocked_users WHERE blocker_id = $1 OR blocked_id = $1`, userID)
	return err
}
