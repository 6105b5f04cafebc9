package chats

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/chatassist/internal/common"
	"github.com/dmitrijs2005/chatassist/internal/dbx"
	"github.com/dmitrijs2005/chatassist/internal/server/models"
	"github.com/google/uuid"
)

type SQLRepository struct {
	db     dbx.DBTX
	driver string
	now    func() time.Time
}

func NewSQLRepository(db dbx.DBTX, driver string) *SQLRepository {
	return &SQLRepository{db: db, driver: driver, now: time.Now}
}

func (r *SQLRepository) q(query string) string {
	return dbx.Rebind(r.driver, query)
}

func (r *SQLRepository) timestamp() time.Time {
	return r.now().UTC().Truncate(time.Microsecond)
}

const chatColumns = `id, user_id, title, created_at, updated_at, is_deleted`

func scanChat(row interface{ Scan(...any) error }) (*models.Chat, error) {
	c := &models.Chat{}
	if err := row.Scan(&c.ID, &c.UserID, &c.Title, &c.CreatedAt, &c.UpdatedAt, &c.IsDeleted); err != nil {
		return nil, err
	}
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	return c, nil
}

func (r *SQLRepository) Create(ctx context.Context, chat *models.Chat) (*models.Chat, error) {
	if chat.ID == "" {
		chat.ID = uuid.NewString()
	}
	now := r.timestamp()
	chat.CreatedAt = now
	chat.UpdatedAt = now
	chat.IsDeleted = false

	query :=
		`INSERT INTO chats (id, user_id, title, created_at, updated_at, is_deleted)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 `

	if _, err := r.db.ExecContext(ctx, r.q(query),
		chat.ID, chat.UserID, chat.Title, chat.CreatedAt, chat.UpdatedAt, chat.IsDeleted); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return chat, nil
}

func (r *SQLRepository) FindByID(ctx context.Context, id string) (*models.Chat, error) {
	query := `SELECT ` + chatColumns + ` FROM chats WHERE id = $1 AND is_deleted = FALSE`

	c, err := scanChat(r.db.QueryRowContext(ctx, r.q(query), id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

func (r *SQLRepository) FindByUserID(ctx context.Context, userID string) ([]*models.Chat, error) {
	query := `SELECT ` + chatColumns + ` FROM chats WHERE user_id = $1 AND is_deleted = FALSE ORDER BY updated_at DESC`

	rows, err := r.db.QueryContext(ctx, r.q(query), userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Chat, 0)
	for rows.Next() {
		c, err := scanChat(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *SQLRepository) Update(ctx context.Context, id string, patch models.ChatPatch) (*models.Chat, error) {
	var title sql.NullString
	if patch.Title != nil {
		title = sql.NullString{String: *patch.Title, Valid: true}
	}

	query :=
		`UPDATE chats SET title = COALESCE($1, title), updated_at = $2
		 WHERE id = $3 AND is_deleted = FALSE
		 RETURNING ` + chatColumns

	c, err := scanChat(r.db.QueryRowContext(ctx, r.q(query), title, r.timestamp(), id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

func (r *SQLRepository) Delete(ctx context.Context, id string) error {
	query := `UPDATE chats SET is_deleted = TRUE, updated_at = $1 WHERE id = $2 AND is_deleted = FALSE`

	res, err := r.db.ExecContext(ctx, r.q(query), r.timestamp(), id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
