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
	"github.com/lib/pq"
)

const helpRequestColumns = `id, author_id, title, description, category, location, photos,
	is_urgent, status, accepted_offer_id, accepted_at, created_at, updated_at`

type helpRequestRow struct {
	ID              string         `db:"id"`
	AuthorID        string         `db:"author_id"`
	Title           string         `db:"title"`
	Description     string         `db:"description"`
	Category        string         `db:"category"`
	Location        *string        `db:"location"`
	Photos          pq.StringArray `db:"photos"`
	IsUrgent        bool           `db:"is_urgent"`
	Status          string         `db:"status"`
	AcceptedOfferID *string        `db:"accepted_offer_id"`
	AcceptedAt      *time.Time     `db:"accepted_at"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
}

func (r *helpRequestRow) toDomain() *domain.HelpRequest {
	return &domain.HelpRequest{
		ID:              r.ID,
		AuthorID:        r.AuthorID,
		Title:           r.Title,
		Description:     r.Description,
		Category:        domain.HelpCategory(r.Category),
		Location:        r.Location,
		Photos:          []string(r.Photos),
		IsUrgent:        r.IsUrgent,
		Status:          domain.HelpRequestStatus(r.Status),
		AcceptedOfferID: r.AcceptedOfferID,
		AcceptedAt:      r.AcceptedAt,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

func helpRequestsFromRows(rows []helpRequestRow) []*domain.HelpRequest {
	out := make([]*domain.HelpRequest, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out
}

type helpRequestRepository struct {
	db *sqlx.DB
}

func NewHelpRequestRepository(db *sqlx.DB) repository.HelpRequestRepository {
	return &helpRequestRepository{db: db}
}

func (r *helpRequestRepository) Create(ctx context.Context, req *domain.HelpRequest) error {
	req.ID = uuid.NewString()
	query := `
		INSERT INTO help_requests (id, author_id, title, description, category, location, photos, is_urgent, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`
	return conn(ctx, r.db).QueryRowxContext(
		ctx, query,
		req.ID, req.AuthorID, req.Title, req.Description, req.Category, req.Location,
		pq.Array(nonNil(req.Photos)), req.IsUrgent, req.Status,
	).Scan(&req.CreatedAt, &req.UpdatedAt)
}

func (r *helpRequestRepository) GetByID(ctx context.Context, id string) (*domain.HelpRequest, error) {
	var row helpRequestRow
	query := `SELECT ` + helpRequestColumns + ` FROM help_requests WHERE id = $1`
	if err := conn(ctx, r.db).GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRequestNotFound
		}
		return nil, err
	}
	return row.toDomain(), nil
}

func (r *helpRequestRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*domain.HelpRequest, error) {
	out := make(map[string]*domain.HelpRequest, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []helpRequestRow
	query := `SELECT ` + helpRequestColumns + ` FROM help_requests WHERE id = ANY($1)`
	if err := conn(ctx, r.db).SelectContext(ctx, &rows, query, pq.Array(ids)); err != nil {
		return nil, err
	}
	for _, req := range helpRequestsFromRows(rows) {
		out[req.ID] = req
	}
	return out, nil
}

func (r *helpRequestRepository) Update(ctx context.Context, req *domain.HelpRequest) error {
	query := `
		UPDATE help_requests
		SET title = $1, description = $2, category = $3, location = $4, photos = $5,
		    is_urgent = $6, status = $7, accepted_offer_id = $8, accepted_at = $9,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = $10
		RETURNING updated_at
	`
	err := conn(ctx, r.db).QueryRowxContext(
		ctx, query,
		req.Title, req.Description, req.Category, req.Location, pq.Array(nonNil(req.Photos)),
		req.IsUrgent, req.Status, req.AcceptedOfferID, req.AcceptedAt,
		req.ID,
	).Scan(&req.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrRequestNotFound
	}
	return err
}

func (r *helpRequestRepository) ListByStatus(ctx context.Context, status domain.HelpRequestStatus, category *domain.HelpCategory) ([]*domain.HelpRequest, error) {
	var rows []helpRequestRow
	query := `SELECT ` + helpRequestColumns + ` FROM help_requests WHERE status = $1`
	args := []interface{}{status}
	if category != nil {
		query += ` AND category = $2`
		args = append(args, *category)
	}
	query += ` ORDER BY created_at DESC`

	if err := conn(ctx, r.db).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	return helpRequestsFromRows(rows), nil
}

func (r *helpRequestRepository) ListByAuthor(ctx context.Context, authorID string) ([]*domain.HelpRequest, error) {
	var rows []helpRequestRow
	query := `SELECT ` + helpRequestColumns + ` FROM help_requests WHERE author_id = $1 ORDER BY created_at DESC`
	if err := conn(ctx, r.db).SelectContext(ctx, &rows, query, authorID); err != nil {
		return nil, err
	}
	return helpRequestsFromRows(rows), nil
}

func (r *helpRequestRepository) Delete(ctx context.Context, id string) error {
	return expectRows(conn(ctx, r.db).ExecContext(ctx, `DELETE FROM help_requests WHERE id = $1`, id))(domain.ErrRequestNotFound)
}

const helpOfferColumns = `id, request_id, offerer_id, price, message, status, created_at, updated_at`

type helpOfferRepository struct {
	db *sqlx.DB
}

func NewHelpOfferRepository(db *sqlx.DB) repository.HelpOfferRepository {
	return &helpOfferRepository{db: db}
}

func (r *helpOfferRepository) Create(ctx context.Context, offer *domain.HelpOffer) error {
	offer.ID = uuid.NewString()
	query := `
		INSERT INTO help_offers (id, request_id, offerer_id, price, message, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`
	err := conn(ctx, r.db).QueryRowxContext(
		ctx, query,
		offer.ID, offer.RequestID, offer.OffererID, offer.Price, offer.Message, offer.Status,
	).Scan(&offer.CreatedAt, &offer.UpdatedAt)
	if isUniqueViolation(err, "help_offers_active_by_offerer") {
		return domain.ErrDuplicateOffer
	}
	return err
}

func (r *helpOfferRepository) GetByID(ctx context.Context, id string) (*domain.HelpOffer, error) {
	var offer domain.HelpOffer
	query := `SELECT ` + helpOfferColumns + ` FROM help_offers WHERE id = $1`
	if err := conn(ctx, r.db).GetContext(ctx, &offer, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrOfferNotFound
		}
		return nil, err
	}
	return &offer, nil
}

func (r *helpOfferRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*domain.HelpOffer, error) {
	out := make(map[string]*domain.HelpOffer, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var offers []*domain.HelpOffer
	query := `SELECT ` + helpOfferColumns + ` FROM help_offers WHERE id = ANY($1)`
	if err := conn(ctx, r.db).SelectContext(ctx, &offers, query, pq.Array(ids)); err != nil {
		return nil, err
	}
	for _, o := range offers {
		out[o.ID] = o
	}
	return out, nil
}

func (r *helpOfferRepository) ListByRequest(ctx context.Context, requestID string) ([]*domain.HelpOffer, error) {
	offers := []*domain.HelpOffer{}
	query := `SELECT ` + helpOfferColumns + ` FROM help_offers WHERE request_id = $1 ORDER BY created_at ASC`
	err := conn(ctx, r.db).SelectContext(ctx, &offers, query, requestID)
	return offers, err
}

func (r *helpOfferRepository) ListByOfferer(ctx context.Context, offererID string) ([]*domain.HelpOffer, error) {
	offers := []*domain.HelpOffer{}
	query := `SELECT ` + helpOfferColumns + ` FROM help_offers WHERE offerer_id = $1 ORDER BY created_at ASC`
	err := conn(ctx, r.db).SelectContext(ctx, &offers, query, offererID)
	return offers, err
}

func (r *helpOfferRepository) FindActive(ctx context.Context, requestID, offererID string) (*domain.HelpOffer, error) {
	var offer domain.HelpOffer
	query := `
		SELECT ` + helpOfferColumns + ` FROM help_offers
		WHERE request_id = $1 AND offerer_id = $2 AND status <> 'withdrawn'
		LIMIT 1
	`
	if err := conn(ctx, r.db).GetContext(ctx, &offer, query, requestID, offererID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &offer, nil
}

func (r *helpOfferRepository) CountByRequest(ctx context.Context, requestID string) (int, error) {
	var count int
	err := conn(ctx, r.db).GetContext(ctx, &count, `SELECT COUNT(*) FROM help_offers WHERE request_id = $1`, requestID)
	return count, err
}

func (r *helpOfferRepository) UpdateStatus(ctx context.Context, id string, status domain.HelpOfferStatus, at time.Time) error {
	query := `UPDATE help_offers SET status = $1, updated_at = $2 WHERE id = $3`
	return expectRows(conn(ctx, r.db).ExecContext(ctx, query, status, at, id))(domain.ErrOfferNotFound)
}

func (r *helpOfferRepository) DeleteByRequest(ctx context.Context, requestID string) error {
	_, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM help_offers WHERE request_id = $1`, requestID)
	return err
}

func (r *helpOfferRepository) DeleteByOfferer(ctx context.Context, offererID string) error {
	_, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM help_offers WHERE offerer_id = $1`, offererID)
	return err
}

const helpConversationColumns = `id, request_id, offer_id, requester_id, offerer_id, last_message_at, created_at`

type helpConversationRepository struct {
	db *sqlx.DB
}

func NewHelpConversationRepository(db *sqlx.DB) repository.HelpConversationRepository {
	return &helpConversationRepository{db: db}
}

func (r *helpConversationRepository) Create(ctx context.Context, c *domain.HelpConversation) error {
	c.ID = uuid.NewString()
	query := `
		INSERT INTO help_conversations (id, request_id, offer_id, requester_id, offerer_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`
	err := conn(ctx, r.db).QueryRowxContext(ctx, query, c.ID, c.RequestID, c.OfferID, c.RequesterID, c.OffererID).
		Scan(&c.CreatedAt)
	if isUniqueViolation(err, "help_conversations_by_request") {
		return domain.ErrConversationExists
	}
	return err
}

func (r *helpConversationRepository) GetByID(ctx context.Context, id string) (*domain.HelpConversation, error) {
	var c domain.HelpConversation
	query := `SELECT ` + helpConversationColumns + ` FROM help_conversations WHERE id = $1`
	if err := conn(ctx, r.db).GetContext(ctx, &c, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrConversationNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *helpConversationRepository) FindByRequest(ctx context.Context, requestID string) (*domain.HelpConversation, error) {
	var c domain.HelpConversation
	query := `SELECT ` + helpConversationColumns + ` FROM help_conversations WHERE request_id = $1`
	if err := conn(ctx, r.db).GetContext(ctx, &c, query, requestID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *helpConversationRepository) ListByUser(ctx context.Context, userID string) ([]*domain.HelpConversation, error) {
	conversations := []*domain.HelpConversation{}
	query := `
		SELECT ` + helpConversationColumns + ` FROM help_conversations WHERE requester_id = $1
		UNION
		SELECT ` + helpConversationColumns + ` FROM help_conversations WHERE offerer_id = $1
		ORDER BY created_at DESC
	`
	err := conn(ctx, r.db).SelectContext(ctx, &conversations, query, userID)
	return conversations, err
}

func (r *helpConversationRepository) TouchLastMessage(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE help_conversations SET last_message_at = $1 WHERE id = $2`
	return expectRows(conn(ctx, r.db).ExecContext(ctx, query, at, id))(domain.ErrConversationNotFound)
}

func (r *helpConversationRepository) Delete(ctx context.Context, id string) error {
	_, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM help_conversations WHERE id = $1`, id)
	return err
}

const helpMessageColumns = `id, conversation_id, sender_id, content, message_type, read_at, created_at`

type helpMessageRepository struct {
	db *sqlx.DB
}

func NewHelpMessageRepository(db *sqlx.DB) repository.HelpMessageRepository {
	return &helpMessageRepository{db: db}
}

func (r *helpMessageRepository) Create(ctx context.Context, msg *domain.HelpMessage) error {
	msg.ID = uuid.NewString()
	query := `
		INSERT INTO help_messages (id, conversation_id, sender_id, content, message_type)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`
	return conn(ctx, r.db).QueryRowxContext(ctx, query, msg.ID, msg.ConversationID, msg.SenderID, msg.Content, msg.MessageType).
		Scan(&msg.CreatedAt)
}

func (r *helpMessageRepository) ListByConversation(ctx context.Context, conversationID string) ([]*domain.HelpMessage, error) {
	messages := []*domain.HelpMessage{}
	query := `SELECT ` + helpMessageColumns + ` FROM help_messages WHERE conversation_id = $1 ORDER BY created_at ASC, id ASC`
	err := conn(ctx, r.db).SelectContext(ctx, &messages, query, conversationID)
	return messages, err
}

func (r *helpMessageRepository) GetLastByConversation(ctx context.Context, conversationID string) (*domain.HelpMessage, error) {
	var msg domain.HelpMessage
	query := `SELECT ` + helpMessageColumns + ` FROM help_messages WHERE conversation_id = $1 ORDER BY created_at DESC, id DESC LIMIT 1`
	if err := conn(ctx, r.db).GetContext(ctx, &msg, query, conversationID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &msg, nil
}

func (r *helpMessageRepository) CountUnread(ctx context.Context, conversationID, readerID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM help_messages WHERE conversation_id = $1 AND sender_id <> $2 AND read_at IS NULL`
	err := conn(ctx, r.db).GetContext(ctx, &count, query, conversationID, readerID)
	return count, err
}

func (r *helpMessageRepository) MarkRead(ctx context.Context, conversationID, readerID string, at time.Time) (int, error) {
	query := `UPDATE help_messages SET read_at = $1 WHERE conversation_id = $2 AND sender_id <> $3 AND read_at IS NULL`
	result, err := conn(ctx, r.db).ExecContext(ctx, query, at, conversationID, readerID)
	if err != nil {
		return 0, err
	}
	rows, err := result.RowsAffected()
	return int(rows), err
}

func (r *helpMessageRepository) DeleteByConversation(ctx context.Context, conversationID string) error {
	_, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM help_messages WHERE conversation_id = $1`, conversationID)
	return err
}
