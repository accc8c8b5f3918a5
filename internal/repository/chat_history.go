package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"slices"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/joseph-ayodele/pantry-tracker/constants"
	"github.com/joseph-ayodele/pantry-tracker/internal/entity"
)

const chatHistoryTable = "chat_history"

var chatHistoryColumns = []string{"id", "user_id", "session_id", "role", "content", "timestamp"}

// ChatHistoryRepository defines the interface for chat message data operations
type ChatHistoryRepository interface {
	Save(ctx context.Context, m *entity.ChatMessage) error
	Recent(ctx context.Context, userID int64, sessionID *int64, limit int) ([]entity.ChatMessage, error)
	BySession(ctx context.Context, sessionID int64) ([]entity.ChatMessage, error)
	AssignSession(ctx context.Context, messageIDs []int64, sessionID int64) error
	SoftDeleteBySession(ctx context.Context, sessionID int64, at time.Time) error
}

type chatHistoryRepository struct {
	db     *DB
	logger *slog.Logger
}

// NewChatHistoryRepository creates a new chat history repository
func NewChatHistoryRepository(db *DB, logger *slog.Logger) ChatHistoryRepository {
	return &chatHistoryRepository{db: db, logger: logger}
}

// Save inserts m and sets its ID. A zero Timestamp is set to now.
func (r *chatHistoryRepository) Save(ctx context.Context, m *entity.ChatMessage) error {
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now()
	}
	m.Timestamp = m.Timestamp.UTC()

	var session sql.NullInt64
	if m.SessionID != nil {
		session = sql.NullInt64{Int64: *m.SessionID, Valid: true}
	}
	q := r.db.builder().
		Insert(chatHistoryTable).
		Columns(chatHistoryColumns[1:]...).
		Values(m.UserID, session, string(m.Role), m.Content, m.Timestamp).
		Returning("id")
	err := queryQ(ctx, r.db.drv, q, func(rows *entsql.Rows) error {
		return rows.Scan(&m.ID)
	})
	if err != nil {
		r.logger.Error("failed to save chat message", "user_id", m.UserID, "role", m.Role, "error", err)
		return fmt.Errorf("save chat message: %w", err)
	}
	return nil
}

// Recent returns the newest limit live messages in chronological order. A nil
// sessionID spans every session of the user.
func (r *chatHistoryRepository) Recent(ctx context.Context, userID int64, sessionID *int64, limit int) ([]entity.ChatMessage, error) {
	preds := []*entsql.Predicate{
		entsql.EQ("user_id", userID),
		entsql.IsNull("deleted_at"),
	}
	if sessionID != nil {
		preds = append(preds, entsql.EQ("session_id", *sessionID))
	}
	q := r.selectMessages(entsql.And(preds...))
	q.OrderExpr(entsql.Expr(`"timestamp" DESC, id DESC`))
	if limit > 0 {
		q.Limit(limit)
	}

	msgs, err := r.scan(ctx, q)
	if err != nil {
		r.logger.Error("failed to load chat history", "user_id", userID, "error", err)
		return nil, fmt.Errorf("recent chat messages: %w", err)
	}
	slices.Reverse(msgs)
	return msgs, nil
}

func (r *chatHistoryRepository) BySession(ctx context.Context, sessionID int64) ([]entity.ChatMessage, error) {
	q := r.selectMessages(entsql.And(
		entsql.EQ("session_id", sessionID),
		entsql.IsNull("deleted_at"),
	))
	q.OrderExpr(entsql.Expr(`"timestamp" ASC, id ASC`))
	msgs, err := r.scan(ctx, q)
	if err != nil {
		r.logger.Error("failed to load session history", "session_id", sessionID, "error", err)
		return nil, fmt.Errorf("session chat messages: %w", err)
	}
	return msgs, nil
}

func (r *chatHistoryRepository) AssignSession(ctx context.Context, messageIDs []int64, sessionID int64) error {
	if len(messageIDs) == 0 {
		return nil
	}
	q := r.db.builder().
		Update(chatHistoryTable).
		Set("session_id", sessionID).
		Where(entsql.In("id", int64Args(messageIDs)...))
	if _, err := execQ(ctx, r.db.drv, q); err != nil {
		r.logger.Error("failed to link chat messages", "session_id", sessionID, "ids", messageIDs, "error", err)
		return fmt.Errorf("assign chat messages to session %d: %w", sessionID, err)
	}
	return nil
}

func (r *chatHistoryRepository) SoftDeleteBySession(ctx context.Context, sessionID int64, at time.Time) error {
	q := r.db.builder().
		Update(chatHistoryTable).
		Set("deleted_at", at.UTC()).
		Where(entsql.And(
			entsql.EQ("session_id", sessionID),
			entsql.IsNull("deleted_at"),
		))
	n, err := execQ(ctx, r.db.drv, q)
	if err != nil {
		r.logger.Error("failed to delete session history", "session_id", sessionID, "error", err)
		return fmt.Errorf("soft delete history of session %d: %w", sessionID, err)
	}
	r.logger.Debug("session history deleted", "session_id", sessionID, "count", n)
	return nil
}

func (r *chatHistoryRepository) selectMessages(where *entsql.Predicate) *entsql.Selector {
	return r.db.builder().
		Select(chatHistoryColumns...).
		From(r.db.builder().Table(chatHistoryTable)).
		Where(where)
}

func (r *chatHistoryRepository) scan(ctx context.Context, q *entsql.Selector) ([]entity.ChatMessage, error) {
	var msgs []entity.ChatMessage
	err := queryQ(ctx, r.db.drv, q, func(rows *entsql.Rows) error {
		var (
			m       entity.ChatMessage
			session sql.NullInt64
			role    string
		)
		if err := rows.Scan(&m.ID, &m.UserID, &session, &role, &m.Content, &m.Timestamp); err != nil {
			return err
		}
		if session.Valid {
			sid := session.Int64
			m.SessionID = &sid
		}
		m.Role = constants.MessageRole(role)
		m.Timestamp = m.Timestamp.UTC()
		msgs = append(msgs, m)
		return nil
	})
	return msgs, err
}
