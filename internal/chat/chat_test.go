package chat

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/joseph-ayodele/pantry-tracker/constants"
	"github.com/joseph-ayodele/pantry-tracker/internal/common"
	"github.com/joseph-ayodele/pantry-tracker/internal/entity"
	"github.com/joseph-ayodele/pantry-tracker/internal/llm"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type memSessions struct {
	mu      sync.Mutex
	nextID  int64
	rows    map[int64]*entity.ChatSession
	creates int
	updates int
}

func newMemSessions() *memSessions {
	return &memSessions{rows: make(map[int64]*entity.ChatSession)}
}

func (m *memSessions) Get(_ context.Context, id int64) (*entity.ChatSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.rows[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, nil
}

func (m *memSessions) List(_ context.Context, userID int64) ([]entity.ChatSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []entity.ChatSession
	for _, s := range m.rows {
		if s.UserID == userID && s.DeletedAt == nil {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memSessions) Create(_ context.Context, s *entity.ChatSession) (*entity.ChatSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.creates++
	cp := *s
	cp.ID = m.nextID
	m.rows[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (m *memSessions) UpdateRecipe(_ context.Context, id int64, d entity.RecipeDraft) (*entity.ChatSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.rows[id]
	if !ok {
		return nil, errors.New("missing")
	}
	m.updates++
	s.ApplyRecipe(d)
	out := *s
	return &out, nil
}

func (m *memSessions) SoftDelete(_ context.Context, id int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.rows[id]; ok {
		s.DeletedAt = &at
	}
	return nil
}

type memHistory struct {
	mu      sync.Mutex
	nextID  int64
	msgs    []*entity.ChatMessage
	deleted map[int64]bool
}

func newMemHistory() *memHistory { return &memHistory{deleted: make(map[int64]bool)} }

func (m *memHistory) Save(_ context.Context, msg *entity.ChatMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	msg.ID = m.nextID
	cp := *msg
	m.msgs = append(m.msgs, &cp)
	return nil
}

func (m *memHistory) Recent(_ context.Context, userID int64, sessionID *int64, limit int) ([]entity.ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []entity.ChatMessage
	for _, msg := range m.msgs {
		if msg.UserID != userID || m.deleted[msg.ID] {
			continue
		}
		if sessionID != nil && (msg.SessionID == nil || *msg.SessionID != *sessionID) {
			continue
		}
		out = append(out, *msg)
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (m *memHistory) BySession(_ context.Context, sessionID int64) ([]entity.ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []entity.ChatMessage
	for _, msg := range m.msgs {
		if msg.SessionID != nil && *msg.SessionID == sessionID && !m.deleted[msg.ID] {
			out = append(out, *msg)
		}
	}
	return out, nil
}

func (m *memHistory) AssignSession(_ context.Context, ids []int64, sessionID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range m.msgs {
		for _, id := range ids {
			if msg.ID == id {
				sid := sessionID
				msg.SessionID = &sid
			}
		}
	}
	return nil
}

func (m *memHistory) SoftDeleteBySession(_ context.Context, sessionID int64, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range m.msgs {
		if msg.SessionID != nil && *msg.SessionID == sessionID {
			m.deleted[msg.ID] = true
		}
	}
	return nil
}

type scriptedLLM struct {
	replies []string
	seen    [][]llm.Message
}

func (s *scriptedLLM) Complete(_ context.Context, msgs []llm.Message) (string, error) {
	s.seen = append(s.seen, msgs)
	r := s.replies[0]
	if len(s.replies) > 1 {
		s.replies = s.replies[1:]
	}
	return r, nil
}

type stubPantry []entity.PantryItem

func (p stubPantry) List(context.Context, int64) ([]entity.PantryItem, error) { return p, nil }

const recipeReply = `{"title": "Egg Fried Rice", "summary": "Quick dinner", "prep_time": "1 hr 30 mins",
"ingredients": ["rice", "egg", "spring onion"], "instructions": ["Fry egg", "Add rice"],
"available_ingredients": ["rice", "egg"], "total_ingredients": 3}`

func TestExtractRecipe(t *testing.T) {
	d, ok := ExtractRecipe(recipeReply)
	if !ok {
		t.Fatal("expected a recipe")
	}
	if d.Title != "Egg Fried Rice" || *d.Summary != "Quick dinner" || *d.PrepMinutes != 90 {
		t.Errorf("draft = %+v", d)
	}
	if d.AvailableCount != 2 || d.TotalCount != 3 || len(d.Ingredients) != 3 || d.Instructions[1] != "Add rice" {
		t.Errorf("draft = %+v", d)
	}
	if err := ValidateRecipe(recipeReply); err != nil {
		t.Errorf("ValidateRecipe: %v", err)
	}
}

func TestExtractRecipe_NotARecipe(t *testing.T) {
	for _, reply := range []string{
		"Sure, I can help you cook!",
		`{"summary": "no title"}`,
		`{"title": ""}`,
		`Here you go: {"title": "Soup"}`,
		`[{"title": "Soup"}]`,
		"",
	} {
		if d, ok := ExtractRecipe(reply); ok || d != nil {
			t.Errorf("ExtractRecipe(%q) = %+v, want none", reply, d)
		}
	}
}

func TestExtractRecipe_FencedAndDefaults(t *testing.T) {
	d, ok := ExtractRecipe("```json\n{\"title\": \"Toast\", \"prep_time\": 5, \"ingredients\": [\"bread\"], \"available_ingredients\": 1}\n```")
	if !ok {
		t.Fatal("expected a recipe")
	}
	if *d.PrepMinutes != 5 || d.AvailableCount != 1 || d.TotalCount != 1 || d.Summary != nil {
		t.Errorf("draft = %+v", d)
	}
	if d.Instructions == nil {
		t.Error("instructions should be an empty list, not nil")
	}
}

func TestParsePrepTime(t *testing.T) {
	tests := []struct {
		in     any
		want   int
		wantOK bool
	}{
		{"1 hr 30 mins", 90, true},
		{"45 minutes", 45, true},
		{"2 hours", 120, true},
		{"1h15m", 75, true},
		{"about 20", 20, true},
		{"quick", 0, false},
		{30.0, 30, true},
		{nil, 0, false},
	}
	for _, tt := range tests {
		got, ok := ParsePrepTime(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParsePrepTime(%#v) = %d, %v; want %d, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func newTestService(replies ...string) (*Service, *scriptedLLM, *memSessions, *memHistory) {
	model := &scriptedLLM{replies: replies}
	sessions, history := newMemSessions(), newMemHistory()
	svc := NewService(model, history, NewSessionService(sessions, history, quietLogger()), quietLogger(), WithHistorySize(10))
	return svc, model, sessions, history
}

func TestChatWithContext_MalformedReplyCreatesNothing(t *testing.T) {
	svc, _, sessions, history := newTestService("Sure, I can help you cook!")

	res, err := svc.ChatWithContext(context.Background(), entity.ChatMessage{UserID: 1, Content: "hi"})
	if err != nil {
		t.Fatalf("ChatWithContext: %v", err)
	}
	if res.Recipe != nil || res.Session != nil {
		t.Errorf("result = %+v, want no recipe", res)
	}
	if sessions.creates != 0 || sessions.updates != 0 {
		t.Errorf("creates = %d updates = %d", sessions.creates, sessions.updates)
	}
	if len(history.msgs) != 2 || history.msgs[1].Role != constants.RoleAssistant {
		t.Errorf("history = %d messages", len(history.msgs))
	}
}

func TestChatWithContext_CreatesThenUpdatesSession(t *testing.T) {
	updated := strings.Replace(recipeReply, "Egg Fried Rice", "Veggie Fried Rice", 1)
	svc, model, sessions, history := newTestService(recipeReply, updated)
	ctx := context.Background()

	first, err := svc.ChatWithContext(ctx, entity.ChatMessage{UserID: 4, Content: "what can I cook with rice?"})
	if err != nil {
		t.Fatalf("first turn: %v", err)
	}
	if first.Session == nil || first.Session.Title != "Egg Fried Rice" || *first.Session.PrepTime != 90 {
		t.Fatalf("session = %+v", first.Session)
	}
	linked, _ := history.BySession(ctx, first.Session.ID)
	if len(linked) != 2 {
		t.Errorf("messages linked to new session = %d, want 2", len(linked))
	}

	sid := first.Session.ID
	second, err := svc.ChatWithContext(ctx, entity.ChatMessage{UserID: 4, SessionID: &sid, Content: "make it vegetarian"})
	if err != nil {
		t.Fatalf("second turn: %v", err)
	}
	if second.Session.ID != sid || second.Session.Title != "Veggie Fried Rice" {
		t.Errorf("session = %+v", second.Session)
	}
	if sessions.creates != 1 || sessions.updates != 1 {
		t.Errorf("creates = %d updates = %d", sessions.creates, sessions.updates)
	}

	msgs := model.seen[1]
	if msgs[0].Role != constants.RoleSystem || msgs[len(msgs)-1].Content != "make it vegetarian" || len(msgs) != 4 {
		t.Errorf("context sent = %+v", msgs)
	}
}

func TestChatWithContext_RejectsForeignOrDeletedSession(t *testing.T) {
	svc, _, sessions, _ := newTestService(recipeReply)
	ctx := context.Background()
	sess, _ := sessions.Create(ctx, &entity.ChatSession{UserID: 1, Title: "mine"})

	if _, err := svc.ChatWithContext(ctx, entity.ChatMessage{UserID: 2, SessionID: &sess.ID, Content: "hi"}); !errors.Is(err, common.ErrForbidden) {
		t.Errorf("foreign session err = %v", err)
	}
	_ = sessions.SoftDelete(ctx, sess.ID, time.Now())
	if _, err := svc.ChatWithContext(ctx, entity.ChatMessage{UserID: 1, SessionID: &sess.ID, Content: "hi"}); !errors.Is(err, ErrSessionDeleted) {
		t.Errorf("deleted session err = %v", err)
	}
	missing := int64(99)
	if _, err := svc.ChatWithContext(ctx, entity.ChatMessage{UserID: 1, SessionID: &missing, Content: "hi"}); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("missing session err = %v", err)
	}
}

func TestChatWithContext_Validation(t *testing.T) {
	svc, _, _, _ := newTestService("ok")
	_, err := svc.ChatWithContext(context.Background(), entity.ChatMessage{UserID: 1, Content: "   "})
	if !errors.Is(err, common.ErrValidation) {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestReply_SingleTurnWithPantryContext(t *testing.T) {
	model := &scriptedLLM{replies: []string{recipeReply}}
	history := newMemHistory()
	svc := NewService(model, history, NewSessionService(newMemSessions(), history, quietLogger()), quietLogger(),
		WithPantry(stubPantry{{ItemName: "Eggs"}, {ItemName: "Rice"}}))

	res, err := svc.Reply(context.Background(), entity.ChatMessage{UserID: 3, Content: "dinner idea?"})
	if err != nil {
		t.Fatalf("Reply: %v", err)
	}
	if res.Recipe == nil || res.Session != nil {
		t.Errorf("result = %+v", res)
	}
	if len(history.msgs) != 0 {
		t.Errorf("single turn persisted %d messages", len(history.msgs))
	}
	if sys := model.seen[0][0].Content; !strings.Contains(sys, "Eggs, Rice") {
		t.Errorf("system prompt missing pantry items: %q", sys)
	}
}

func TestSessionService_DeleteAndHistory(t *testing.T) {
	sessions, history := newMemSessions(), newMemHistory()
	svc := NewSessionService(sessions, history, quietLogger())
	ctx := context.Background()

	sess, err := svc.CreateSession(ctx, 8, entity.RecipeDraft{Title: "Laksa", Ingredients: []string{"noodles"}})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	sid := sess.ID
	_ = history.Save(ctx, &entity.ChatMessage{UserID: 8, SessionID: &sid, Role: constants.RoleUser, Content: "laksa?"})

	msgs, err := svc.History(ctx, 8, sid)
	if err != nil || len(msgs) != 1 {
		t.Fatalf("History = %d, %v", len(msgs), err)
	}
	if _, err := svc.History(ctx, 9, sid); !errors.Is(err, common.ErrForbidden) {
		t.Errorf("foreign history err = %v", err)
	}

	if err := svc.DeleteSession(ctx, 8, sid); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	if err := svc.DeleteSession(ctx, 8, sid); err != nil {
		t.Errorf("second delete: %v", err)
	}
	if list, _ := svc.ListSessions(ctx, 8); len(list) != 0 {
		t.Errorf("deleted session still listed")
	}
	if left, _ := history.BySession(ctx, sid); len(left) != 0 {
		t.Errorf("history not deleted: %d", len(left))
	}
	if _, err := svc.UpdateSessionRecipe(ctx, 8, sid, entity.RecipeDraft{Title: "x"}); !errors.Is(err, ErrSessionDeleted) {
		t.Errorf("update deleted err = %v", err)
	}
	if _, err := svc.UpdateSessionRecipe(ctx, 8, 12345, entity.RecipeDraft{Title: "x"}); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("update missing err = %v", err)
	}
}
