package chat

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/pantry-tracker/internal/common"
	"github.com/joseph-ayodele/pantry-tracker/internal/entity"
)

var (
	ErrSessionNotFound = common.NewAppError("SESSION_NOT_FOUND", "chat session not found", common.ErrNotFound)
	ErrSessionDeleted  = common.NewAppError("SESSION_DELETED", "chat session was deleted", common.ErrNotFound)
	ErrSessionNotOwned = common.NewAppError("SESSION_FORBIDDEN", "chat session belongs to another user", common.ErrForbidden)
)

// SessionStore persists chat sessions. Get returns deleted sessions too, so
// callers can tell a deleted session from a missing one.
type SessionStore interface {
	Get(ctx context.Context, id int64) (*entity.ChatSession, error)
	List(ctx context.Context, userID int64) ([]entity.ChatSession, error)
	Create(ctx context.Context, s *entity.ChatSession) (*entity.ChatSession, error)
	UpdateRecipe(ctx context.Context, id int64, d entity.RecipeDraft) (*entity.ChatSession, error)
	SoftDelete(ctx context.Context, id int64, at time.Time) error
}

// HistoryStore persists chat messages. Soft-deleted messages are never returned.
type HistoryStore interface {
	Save(ctx context.Context, m *entity.ChatMessage) error
	// Recent returns the newest limit messages in chronological order.
	Recent(ctx context.Context, userID int64, sessionID *int64, limit int) ([]entity.ChatMessage, error)
	BySession(ctx context.Context, sessionID int64) ([]entity.ChatMessage, error)
	AssignSession(ctx context.Context, messageIDs []int64, sessionID int64) error
	SoftDeleteBySession(ctx context.Context, sessionID int64, at time.Time) error
}

// SessionService manages a user's recipe sessions and their history.
type SessionService struct {
	sessions SessionStore
	history  HistoryStore
	logger   *slog.Logger
}

func NewSessionService(sessions SessionStore, history HistoryStore, logger *slog.Logger) *SessionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionService{sessions: sessions, history: history, logger: logger}
}

func (s *SessionService) ListSessions(ctx context.Context, userID int64) ([]entity.ChatSession, error) {
	out, err := s.sessions.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return out, nil
}

// CreateSession stores a new session holding draft.
func (s *SessionService) CreateSession(ctx context.Context, userID int64, draft entity.RecipeDraft) (*entity.ChatSession, error) {
	sess := &entity.ChatSession{UserID: userID}
	sess.ApplyRecipe(draft)
	created, err := s.sessions.Create(ctx, sess)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	s.logger.Info("chat.session.created", "user_id", userID, "session_id", created.ID, "title", created.Title)
	return created, nil
}

// UpdateSessionRecipe replaces the recipe of a live session owned by userID.
// The session id and its history are untouched.
func (s *SessionService) UpdateSessionRecipe(ctx context.Context, userID, sessionID int64, draft entity.RecipeDraft) (*entity.ChatSession, error) {
	if _, err := s.owned(ctx, userID, sessionID); err != nil {
		return nil, err
	}
	updated, err := s.sessions.UpdateRecipe(ctx, sessionID, draft)
	if err != nil {
		return nil, fmt.Errorf("update session %d: %w", sessionID, err)
	}
	s.logger.Info("chat.session.updated", "user_id", userID, "session_id", sessionID, "title", updated.Title)
	return updated, nil
}

// DeleteSession soft deletes a session and its history. Deleting an already
// deleted session is a no-op.
func (s *SessionService) DeleteSession(ctx context.Context, userID, sessionID int64) error {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("load session %d: %w", sessionID, err)
	}
	if sess == nil {
		return ErrSessionNotFound
	}
	if sess.UserID != userID {
		return ErrSessionNotOwned
	}
	if sess.DeletedAt != nil {
		return nil
	}

	now := time.Now().UTC()
	if err := s.sessions.SoftDelete(ctx, sessionID, now); err != nil {
		return fmt.Errorf("delete session %d: %w", sessionID, err)
	}
	if err := s.history.SoftDeleteBySession(ctx, sessionID, now); err != nil {
		return fmt.Errorf("delete history of session %d: %w", sessionID, err)
	}
	s.logger.Info("chat.session.deleted", "user_id", userID, "session_id", sessionID)
	return nil
}

// History returns the messages of a live session, oldest first.
func (s *SessionService) History(ctx context.Context, userID, sessionID int64) ([]entity.ChatMessage, error) {
	if _, err := s.owned(ctx, userID, sessionID); err != nil {
		return nil, err
	}
	msgs, err := s.history.BySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load history of session %d: %w", sessionID, err)
	}
	return msgs, nil
}

func (s *SessionService) owned(ctx context.Context, userID, sessionID int64) (*entity.ChatSession, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session %d: %w", sessionID, err)
	}
	switch {
	case sess == nil:
		return nil, ErrSessionNotFound
	case sess.DeletedAt != nil:
		return nil, ErrSessionDeleted
	case sess.UserID != userID:
		return nil, ErrSessionNotOwned
	}
	return sess, nil
}
