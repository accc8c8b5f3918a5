package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/joseph-ayodele/pantry-tracker/constants"
	"github.com/joseph-ayodele/pantry-tracker/internal/common"
	"github.com/joseph-ayodele/pantry-tracker/internal/entity"
	"github.com/joseph-ayodele/pantry-tracker/internal/llm"
)

const systemPrompt = `You are PantryPal, a friendly cooking assistant.
When you suggest a recipe, reply with a single JSON object and nothing else, using these keys:
"title" (string), "summary" (string), "prep_time" (minutes or text such as "1 hr 30 mins"),
"ingredients" (list of strings), "instructions" (list of strings, one step each),
"available_ingredients" (how many of the ingredients the user already has) and
"total_ingredients" (number of ingredients).
When the user is only chatting, reply in plain text.`

// PantryLister lets the assistant see what the user already has.
type PantryLister interface {
	List(ctx context.Context, userID int64) ([]entity.PantryItem, error)
}

// Result is the outcome of one chat turn.
type Result struct {
	Reply   string              `json:"reply"`
	Recipe  *entity.RecipeDraft `json:"recipe,omitempty"`
	Session *entity.ChatSession `json:"session,omitempty"`
}

// Service answers chat messages and keeps the recipe session in step with the conversation.
type Service struct {
	completer   llm.Completer
	history     HistoryStore
	sessions    *SessionService
	pantry      PantryLister
	validate    *validatorv10.Validate
	historySize int
	now         func() time.Time
	logger      *slog.Logger
}

type Option func(*Service)

// WithPantry adds the user's pantry items to the system prompt.
func WithPantry(p PantryLister) Option {
	return func(s *Service) { s.pantry = p }
}

func WithHistorySize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.historySize = n
		}
	}
}

func NewService(completer llm.Completer, history HistoryStore, sessions *SessionService, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		completer:   completer,
		history:     history,
		sessions:    sessions,
		validate:    common.NewValidator(),
		historySize: 20,
		now:         time.Now,
		logger:      logger,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Reply answers a single message without history and without persisting anything.
func (s *Service) Reply(ctx context.Context, msg entity.ChatMessage) (*Result, error) {
	msg.Role = constants.RoleUser
	if err := s.check(&msg); err != nil {
		return nil, err
	}

	messages := []llm.Message{s.systemMessage(ctx, msg.UserID), {Role: constants.RoleUser, Content: msg.Content}}
	reply, err := s.completer.Complete(ctx, messages)
	if err != nil {
		s.logger.Error("chat.reply.llm_error", "user_id", msg.UserID, "error", err)
		return nil, fmt.Errorf("complete: %w", err)
	}
	return &Result{Reply: reply, Recipe: s.extract(msg.UserID, reply)}, nil
}

// ChatWithContext stores msg, answers it with the recent conversation as
// context and stores the reply. A recipe in the reply creates a session when
// msg has none, or replaces the recipe of msg's session.
func (s *Service) ChatWithContext(ctx context.Context, msg entity.ChatMessage) (*Result, error) {
	msg.Role = constants.RoleUser
	if err := s.check(&msg); err != nil {
		return nil, err
	}
	logger := s.logger.With("user_id", msg.UserID)
	if msg.SessionID != nil {
		if _, err := s.sessions.owned(ctx, msg.UserID, *msg.SessionID); err != nil {
			return nil, err
		}
		logger = logger.With("session_id", *msg.SessionID)
	}

	if err := s.history.Save(ctx, &msg); err != nil {
		return nil, fmt.Errorf("save user message: %w", err)
	}
	recent, err := s.history.Recent(ctx, msg.UserID, msg.SessionID, s.historySize)
	if err != nil {
		return nil, fmt.Errorf("load recent messages: %w", err)
	}

	messages := make([]llm.Message, 0, len(recent)+1)
	messages = append(messages, s.systemMessage(ctx, msg.UserID))
	for _, m := range recent {
		messages = append(messages, llm.Message{Role: m.Role, Content: m.Content})
	}

	start := time.Now()
	reply, err := s.completer.Complete(ctx, messages)
	if err != nil {
		logger.Error("chat.context.llm_error", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, fmt.Errorf("complete: %w", err)
	}

	answer := entity.ChatMessage{
		UserID:    msg.UserID,
		SessionID: msg.SessionID,
		Role:      constants.RoleAssistant,
		Content:   reply,
		Timestamp: s.now().UTC(),
	}
	if err := s.history.Save(ctx, &answer); err != nil {
		return nil, fmt.Errorf("save assistant message: %w", err)
	}
	logger.Info("chat.context.replied", "history", len(recent), "elapsed_ms", time.Since(start).Milliseconds())

	res := &Result{Reply: reply, Recipe: s.extract(msg.UserID, reply)}
	if res.Recipe == nil {
		return res, nil
	}

	if msg.SessionID != nil {
		res.Session, err = s.sessions.UpdateSessionRecipe(ctx, msg.UserID, *msg.SessionID, *res.Recipe)
		if err != nil {
			return nil, err
		}
		return res, nil
	}

	res.Session, err = s.sessions.CreateSession(ctx, msg.UserID, *res.Recipe)
	if err != nil {
		return nil, err
	}
	if err := s.history.AssignSession(ctx, []int64{msg.ID, answer.ID}, res.Session.ID); err != nil {
		return nil, fmt.Errorf("link messages to session %d: %w", res.Session.ID, err)
	}
	return res, nil
}

func (s *Service) check(msg *entity.ChatMessage) error {
	msg.Content = strings.TrimSpace(msg.Content)
	if msg.Timestamp.IsZero() {
		msg.Timestamp = s.now().UTC()
	}
	return common.ValidateStruct(s.validate, msg)
}

func (s *Service) extract(userID int64, reply string) *entity.RecipeDraft {
	draft, ok := ExtractRecipe(reply)
	if !ok {
		s.logger.Debug("chat.recipe.none", "user_id", userID)
		return nil
	}
	if err := ValidateRecipe(reply); err != nil {
		s.logger.Warn("chat.recipe.schema", "user_id", userID, "error", err)
	}
	return draft
}

func (s *Service) systemMessage(ctx context.Context, userID int64) llm.Message {
	content := systemPrompt
	if s.pantry != nil {
		items, err := s.pantry.List(ctx, userID)
		if err != nil {
			s.logger.Warn("chat.pantry_context_error", "user_id", userID, "error", err)
		} else if len(items) > 0 {
			names := make([]string, 0, len(items))
			for _, it := range items {
				names = append(names, it.ItemName)
			}
			content += "\nThe user's pantry currently holds: " + strings.Join(names, ", ") + "."
		}
	}
	return llm.Message{Role: constants.RoleSystem, Content: content}
}
