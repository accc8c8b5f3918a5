package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/joseph-ayodele/pantry-tracker/internal/entity"
)

const (
	chatSessionsTable = "chat_sessions"
	// legacyListSeparator joined list columns before they were stored as JSON arrays.
	legacyListSeparator = "|"
)

var chatSessionColumns = []string{
	"id", "user_id", "title", "summary", "prep_time", "instructions", "ingredients",
	"available_ingredients", "total_ingredients", "created_at", "updated_at", "deleted_at",
}

// ChatSessionRepository defines the interface for chat session data operations
type ChatSessionRepository interface {
	Get(ctx context.Context, id int64) (*entity.ChatSession, error)
	List(ctx context.Context, userID int64) ([]entity.ChatSession, error)
	Create(ctx context.Context, s *entity.ChatSession) (*entity.ChatSession, error)
	UpdateRecipe(ctx context.Context, id int64, d entity.RecipeDraft) (*entity.ChatSession, error)
	SoftDelete(ctx context.Context, id int64, at time.Time) error
}

type chatSessionRepository struct {
	db     *DB
	logger *slog.Logger
	now    func() time.Time
}

// NewChatSessionRepository creates a new chat session repository
func NewChatSessionRepository(db *DB, logger *slog.Logger) ChatSessionRepository {
	return &chatSessionRepository{db: db, logger: logger, now: time.Now}
}

// Get returns the session even when soft-deleted, or nil, nil when absent.
func (r *chatSessionRepository) Get(ctx context.Context, id int64) (*entity.ChatSession, error) {
	sessions, err := r.scan(ctx, r.selectSessions(entsql.EQ("id", id)))
	if err != nil {
		r.logger.Error("failed to get chat session", "id", id, "error", err)
		return nil, fmt.Errorf("get chat session %d: %w", id, err)
	}
	if len(sessions) == 0 {
		return nil, nil
	}
	return &sessions[0], nil
}

// List returns the user's live sessions, most recently updated first.
func (r *chatSessionRepository) List(ctx context.Context, userID int64) ([]entity.ChatSession, error) {
	q := r.selectSessions(entsql.And(
		entsql.EQ("user_id", userID),
		entsql.IsNull("deleted_at"),
	))
	q.OrderExpr(entsql.Expr("updated_at DESC, id DESC"))
	sessions, err := r.scan(ctx, q)
	if err != nil {
		r.logger.Error("failed to list chat sessions", "user_id", userID, "error", err)
		return nil, fmt.Errorf("list chat sessions: %w", err)
	}
	return sessions, nil
}

func (r *chatSessionRepository) Create(ctx context.Context, s *entity.ChatSession) (*entity.ChatSession, error) {
	created := *s
	now := r.now().UTC()
	created.CreatedAt, created.UpdatedAt, created.DeletedAt = now, now, nil

	q := r.db.builder().
		Insert(chatSessionsTable).
		Columns(chatSessionColumns[1:11]...).
		Values(created.UserID, created.Title, nullString(created.Summary), nullInt(created.PrepTime),
			joinList(created.Instructions), joinList(created.Ingredients),
			created.AvailableIngredients, created.TotalIngredients, created.CreatedAt, created.UpdatedAt).
		Returning("id")
	err := queryQ(ctx, r.db.drv, q, func(rows *entsql.Rows) error {
		return rows.Scan(&created.ID)
	})
	if err != nil {
		r.logger.Error("failed to create chat session", "user_id", s.UserID, "error", err)
		return nil, fmt.Errorf("create chat session: %w", err)
	}
	r.logger.Info("chat session created", "id", created.ID, "user_id", created.UserID, "title", created.Title)
	return &created, nil
}

// UpdateRecipe overwrites the recipe fields of a live session.
func (r *chatSessionRepository) UpdateRecipe(ctx context.Context, id int64, d entity.RecipeDraft) (*entity.ChatSession, error) {
	var s entity.ChatSession
	s.ApplyRecipe(d)

	q := r.db.builder().
		Update(chatSessionsTable).
		Set("title", s.Title).
		Set("summary", nullString(s.Summary)).
		Set("prep_time", nullInt(s.PrepTime)).
		Set("instructions", joinList(s.Instructions)).
		Set("ingredients", joinList(s.Ingredients)).
		Set("available_ingredients", s.AvailableIngredients).
		Set("total_ingredients", s.TotalIngredients).
		Set("updated_at", r.now().UTC()).
		Where(entsql.And(
			entsql.EQ("id", id),
			entsql.IsNull("deleted_at"),
		))
	n, err := execQ(ctx, r.db.drv, q)
	if err != nil {
		r.logger.Error("failed to update chat session", "id", id, "error", err)
		return nil, fmt.Errorf("update chat session %d: %w", id, err)
	}
	if n == 0 {
		return nil, fmt.Errorf("update chat session %d: no live session", id)
	}
	return r.Get(ctx, id)
}

func (r *chatSessionRepository) SoftDelete(ctx context.Context, id int64, at time.Time) error {
	q := r.db.builder().
		Update(chatSessionsTable).
		Set("deleted_at", at.UTC()).
		Where(entsql.And(
			entsql.EQ("id", id),
			entsql.IsNull("deleted_at"),
		))
	if _, err := execQ(ctx, r.db.drv, q); err != nil {
		r.logger.Error("failed to delete chat session", "id", id, "error", err)
		return fmt.Errorf("soft delete chat session %d: %w", id, err)
	}
	return nil
}

func (r *chatSessionRepository) selectSessions(where *entsql.Predicate) *entsql.Selector {
	return r.db.builder().
		Select(chatSessionColumns...).
		From(r.db.builder().Table(chatSessionsTable)).
		Where(where)
}

func (r *chatSessionRepository) scan(ctx context.Context, q *entsql.Selector) ([]entity.ChatSession, error) {
	var sessions []entity.ChatSession
	err := queryQ(ctx, r.db.drv, q, func(rows *entsql.Rows) error {
		var (
			s            entity.ChatSession
			summary      sql.NullString
			prep         sql.NullInt64
			instructions string
			ingredients  string
			deleted      sql.NullTime
		)
		if err := rows.Scan(&s.ID, &s.UserID, &s.Title, &summary, &prep, &instructions, &ingredients,
			&s.AvailableIngredients, &s.TotalIngredients, &s.CreatedAt, &s.UpdatedAt, &deleted); err != nil {
			return err
		}
		if summary.Valid {
			s.Summary = &summary.String
		}
		if prep.Valid {
			p := int(prep.Int64)
			s.PrepTime = &p
		}
		s.Instructions = splitList(instructions)
		s.Ingredients = splitList(ingredients)
		s.DeletedAt = timePtr(deleted)
		sessions = append(sessions, s)
		return nil
	})
	return sessions, err
}

// joinList encodes an ordered list as a JSON array of strings.
func joinList(items []string) string {
	if items == nil {
		items = []string{}
	}
	raw, _ := json.Marshal(items)
	return string(raw)
}

// splitList decodes joinList output. Rows written with the old "|" format are
// still read by splitting.
func splitList(s string) []string {
	if s == "" {
		return []string{}
	}
	var items []string
	if strings.HasPrefix(s, "[") && json.Unmarshal([]byte(s), &items) == nil {
		if items == nil {
			return []string{}
		}
		return items
	}
	return strings.Split(s, legacyListSeparator)
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullInt(n *int) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*n), Valid: true}
}
