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

const userColumns = `id, clerk_id, name, birthday, gender, bio, location,
	lifestyle_tags, interests, photos, status, push_token, created_at, updated_at`

type userRow struct {
	ID            string         `db:"id"`
	ClerkID       string         `db:"clerk_id"`
	Name          string         `db:"name"`
	Birthday      *time.Time     `db:"birthday"`
	Gender        *string        `db:"gender"`
	Bio           *string        `db:"bio"`
	Location      *string        `db:"location"`
	LifestyleTags pq.StringArray `db:"lifestyle_tags"`
	Interests     pq.StringArray `db:"interests"`
	Photos        pq.StringArray `db:"photos"`
	Status        string         `db:"status"`
	PushToken     *string        `db:"push_token"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

func (r *userRow) toDomain() *domain.User {
	return &domain.User{
		ID:            r.ID,
		ClerkID:       r.ClerkID,
		Name:          r.Name,
		Birthday:      r.Birthday,
		Gender:        r.Gender,
		Bio:           r.Bio,
		Location:      r.Location,
		LifestyleTags: []string(r.LifestyleTags),
		Interests:     []string(r.Interests),
		Photos:        []string(r.Photos),
		Status:        domain.UserStatus(r.Status),
		PushToken:     r.PushToken,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) repository.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	if user.Status == "" {
		user.Status = domain.UserStatusPending
	}
	user.ID = uuid.NewString()

	query := `
		INSERT INTO users (id, clerk_id, name, birthday, gender, bio, location,
			lifestyle_tags, interests, photos, status, push_token)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at
	`
	err := conn(ctx, r.db).QueryRowxContext(
		ctx, query,
		user.ID, user.ClerkID, user.Name, user.Birthday, user.Gender, user.Bio, user.Location,
		pq.Array(nonNil(user.LifestyleTags)), pq.Array(nonNil(user.Interests)), pq.Array(nonNil(user.Photos)),
		user.Status, user.PushToken,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if isUniqueViolation(err, "users_by_clerk_id") {
		return domain.NewError(domain.KindConflict, "user already exists")
	}
	return err
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var row userRow
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	if err := conn(ctx, r.db).GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return row.toDomain(), nil
}

func (r *userRepository) GetByClerkID(ctx context.Context, clerkID string) (*domain.User, error) {
	var row userRow
	query := `SELECT ` + userColumns + ` FROM users WHERE clerk_id = $1`
	if err := conn(ctx, r.db).GetContext(ctx, &row, query, clerkID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return row.toDomain(), nil
}

func (r *userRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*domain.User, error) {
	out := make(map[string]*domain.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []userRow
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ANY($1)`
	if err := conn(ctx, r.db).SelectContext(ctx, &rows, query, pq.Array(ids)); err != nil {
		return nil, err
	}
	for i := range rows {
		out[rows[i].ID] = rows[i].toDomain()
	}
	return out, nil
}

func (r *userRepository) ListDiscoverable(ctx context.Context, excludeID string) ([]*domain.User, error) {
	var rows []userRow
	query := `SELECT ` + userColumns + ` FROM users WHERE id <> $1 AND status <> $2 ORDER BY created_at DESC, id DESC`
	if err := conn(ctx, r.db).SelectContext(ctx, &rows, query, excludeID, domain.UserStatusRejected); err != nil {
		return nil, err
	}
	users := make([]*domain.User, 0, len(rows))
	for i := range rows {
		users = append(users, rows[i].toDomain())
	}
	return users, nil
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	query := `
		UPDATE users
		SET name = $1, birthday = $2, gender = $3, bio = $4, location = $5,
		    lifestyle_tags = $6, interests = $7, photos = $8, status = $9,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = $10
		RETURNING updated_at
	`
	err := conn(ctx, r.db).QueryRowxContext(
		ctx, query,
		user.Name, user.Birthday, user.Gender, user.Bio, user.Location,
		pq.Array(nonNil(user.LifestyleTags)), pq.Array(nonNil(user.Interests)), pq.Array(nonNil(user.Photos)),
		user.Status, user.ID,
	).Scan(&user.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrUserNotFound
	}
	return err
}

func (r *userRepository) SetPushToken(ctx context.Context, id string, token *string) error {
	query := `UPDATE users SET push_token = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`
	return expectRows(conn(ctx, r.db).ExecContext(ctx, query, token, id))(domain.ErrUserNotFound)
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM users WHERE id = $1`
	return expectRows(conn(ctx, r.db).ExecContext(ctx, query, id))(domain.ErrUserNotFound)
}

// expectRows turns a zero-row exec result into notFound.
func expectRows(result sql.Result, err error) func(notFound error) error {
	return func(notFound error) error {
		if err != nil {
			return err
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return notFound
		}
		return nil
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
