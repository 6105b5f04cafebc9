package messages

import (
	"context"
	"database/sql"
	"encoding/json"
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

const messageColumns = `id, chat_id, role, content, file_url, file_name, file_type, created_at, is_deleted, edit_history`

func scanMessage(row interface{ Scan(...any) error }) (*models.Message, error) {
	m := &models.Message{}
	var history string
	if err := row.Scan(&m.ID, &m.ChatID, &m.Role, &m.Content, &m.FileURL, &m.FileName, &m.FileType,
		&m.CreatedAt, &m.IsDeleted, &history); err != nil {
		return nil, err
	}
	m.CreatedAt = m.CreatedAt.UTC()
	if history != "" {
		if err := json.Unmarshal([]byte(history), &m.EditHistory); err != nil {
			return nil, fmt.Errorf("edit history: %w", err)
		}
	}
	if len(m.EditHistory) == 0 {
		m.EditHistory = nil
	}
	return m, nil
}

func encodeHistory(h []string) (string, error) {
	if h == nil {
		h = []string{}
	}
	b, err := json.Marshal(h)
	return string(b), err
}

func (r *SQLRepository) Create(ctx context.Context, msg *models.Message) (*models.Message, error) {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	msg.CreatedAt = r.now().UTC().Truncate(time.Microsecond)
	msg.IsDeleted = false

	history, err := encodeHistory(msg.EditHistory)
	if err != nil {
		return nil, err
	}

	query :=
		`INSERT INTO messages (id, chat_id, role, content, file_url, file_name, file_type, created_at, is_deleted, edit_history)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 `

	if _, err := r.db.ExecContext(ctx, r.q(query),
		msg.ID, msg.ChatID, msg.Role, msg.Content, msg.FileURL, msg.FileName, msg.FileType,
		msg.CreatedAt, msg.IsDeleted, history); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return msg, nil
}

func (r *SQLRepository) FindByID(ctx context.Context, id string) (*models.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE id = $1 AND is_deleted = FALSE`

	m, err := scanMessage(r.db.QueryRowContext(ctx, r.q(query), id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return m, nil
}

func (r *SQLRepository) FindByChatID(ctx context.Context, chatID string) ([]*models.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE chat_id = $1 AND is_deleted = FALSE ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, r.q(query), chatID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Message, 0)
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

// Update reads the current row and writes the patched one back. Concurrent
// edits are last-write-wins.
func (r *SQLRepository) Update(ctx context.Context, id string, patch models.MessagePatch) (*models.Message, error) {
	m, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Content == nil || !m.ApplyContent(*patch.Content) {
		return m, nil
	}

	history, err := encodeHistory(m.EditHistory)
	if err != nil {
		return nil, err
	}

	query := `UPDATE messages SET content = $1, edit_history = $2 WHERE id = $3 AND is_deleted = FALSE`
	if _, err := r.db.ExecContext(ctx, r.q(query), m.Content, history, id); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return m, nil
}

func (r *SQLRepository) Delete(ctx context.Context, id string) error {
	query := `UPDATE messages SET is_deleted = TRUE WHERE id = $1 AND is_deleted = FALSE`

	res, err := r.db.ExecContext(ctx, r.q(query), id)
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
