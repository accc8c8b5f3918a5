package repository

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/joseph-ayodele/pantry-tracker/constants"
	"github.com/joseph-ayodele/pantry-tracker/internal/common"
	"github.com/joseph-ayodele/pantry-tracker/internal/entity"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dsn := "file:" + filepath.Join(t.TempDir(), "pantry.db") + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := Open(context.Background(), common.DatabaseConfig{Driver: "sqlite", DSN: dsn}, logger)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(db.Close)
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
	return db
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestReceiptResults_CreateOnce(t *testing.T) {
	db := openTestDB(t)
	repo := NewReceiptResultRepository(db, db.logger)
	ctx := context.Background()

	got, err := repo.Get(ctx, 1, "r1.jpg")
	if err != nil || got != nil {
		t.Fatalf("Get on empty = %v, %v", got, err)
	}

	res := &entity.ReceiptResult{
		UserID:    1,
		ReceiptID: "r1.jpg",
		Result:    json.RawMessage(`{"Vendor":"FairPrice"}`),
		Vendor:    "FairPrice",
		Total:     "12.30",
	}
	created, err := repo.Put(ctx, res)
	if err != nil || !created {
		t.Fatalf("first Put = %v, %v", created, err)
	}
	if res.ID == 0 {
		t.Error("Put did not set ID")
	}

	created, err = repo.Put(ctx, &entity.ReceiptResult{UserID: 1, ReceiptID: "r1.jpg", Result: json.RawMessage(`{}`)})
	if err != nil || created {
		t.Fatalf("second Put = %v, %v, want false", created, err)
	}

	got, err = repo.Get(ctx, 1, "r1.jpg")
	if err != nil || got == nil {
		t.Fatalf("Get = %v, %v", got, err)
	}
	if got.Vendor != "FairPrice" || got.Total != "12.30" || string(got.Result) != `{"Vendor":"FairPrice"}` {
		t.Errorf("stored = %+v", got)
	}

	// Same receipt id for another user is a separate row.
	if created, err := repo.Put(ctx, &entity.ReceiptResult{UserID: 2, ReceiptID: "r1.jpg", Result: json.RawMessage(`{}`)}); err != nil || !created {
		t.Errorf("other user Put = %v, %v", created, err)
	}

	if err := repo.Delete(ctx, 1, "r1.jpg"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got, _ := repo.Get(ctx, 1, "r1.jpg"); got != nil {
		t.Errorf("Get after delete = %+v", got)
	}
}

func TestReceiptResults_ConcurrentPutSingleWinner(t *testing.T) {
	db := openTestDB(t)
	repo := NewReceiptResultRepository(db, db.logger)

	var (
		wg   sync.WaitGroup
		wins atomic.Int32
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			created, err := repo.Put(context.Background(), &entity.ReceiptResult{UserID: 7, ReceiptID: "same.jpg", Result: json.RawMessage(`{}`)})
			if err != nil {
				t.Errorf("Put: %v", err)
				return
			}
			if created {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	if wins.Load() != 1 {
		t.Errorf("winners = %d, want 1", wins.Load())
	}
}

func TestPantryItems_CRUD(t *testing.T) {
	db := openTestDB(t)
	repo := NewPantryItemRepository(db, db.logger)
	ctx := context.Background()

	drafts := []entity.PantryItemDraft{
		{ItemName: "Bread", Quantity: 1, Unit: constants.Loaf, Category: constants.Grains, PurchaseDate: day(2025, time.June, 1), ExpiryDate: day(2025, time.June, 4)},
		{ItemName: "Milk", Quantity: 2, Unit: constants.Liters, Category: constants.Dairy, PurchaseDate: day(2025, time.June, 1), ExpiryDate: day(2025, time.June, 3)},
	}
	items, err := repo.Insert(ctx, 1, drafts)
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if len(items) != 2 || items[0].ID == 0 || items[1].ID == 0 {
		t.Fatalf("inserted = %+v", items)
	}

	list, err := repo.ListByUser(ctx, 1)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(list) != 2 || list[0].ItemName != "Milk" {
		t.Fatalf("list not ordered by expiry: %+v", list)
	}
	if !list[0].ExpiryDate.Equal(day(2025, time.June, 3)) || list[0].Unit != constants.Liters {
		t.Errorf("round trip = %+v", list[0])
	}

	if other, _ := repo.GetByIDs(ctx, 2, []int64{items[0].ID}); len(other) != 0 {
		t.Errorf("foreign GetByIDs = %+v", other)
	}

	upd := list[0]
	upd.Quantity = 0.5
	if _, err := repo.Update(ctx, &upd); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, _ := repo.GetByIDs(ctx, 1, []int64{upd.ID})
	if len(got) != 1 || got[0].Quantity != 0.5 {
		t.Errorf("after update = %+v", got)
	}

	if err := repo.Delete(ctx, 1, []int64{items[0].ID}); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	list, _ = repo.ListByUser(ctx, 1)
	if len(list) != 1 || list[0].ID != items[1].ID {
		t.Errorf("after delete = %+v", list)
	}
}

func TestChatSessionsAndHistory(t *testing.T) {
	db := openTestDB(t)
	sessions := NewChatSessionRepository(db, db.logger)
	history := NewChatHistoryRepository(db, db.logger)
	ctx := context.Background()

	base := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	var ids []int64
	for i, role := range []constants.MessageRole{constants.RoleUser, constants.RoleAssistant, constants.RoleUser} {
		m := &entity.ChatMessage{UserID: 1, Role: role, Content: string(role), Timestamp: base.Add(time.Duration(i) * time.Minute)}
		if err := history.Save(ctx, m); err != nil {
			t.Fatalf("Save: %v", err)
		}
		ids = append(ids, m.ID)
	}

	recent, err := history.Recent(ctx, 1, nil, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 2 || recent[0].ID != ids[1] || recent[1].ID != ids[2] {
		t.Fatalf("recent = %+v, want last two in order", recent)
	}

	summary := "Quick omelette"
	prep := 15
	sess, err := sessions.Create(ctx, &entity.ChatSession{
		UserID:           1,
		Title:            "Omelette",
		Summary:          &summary,
		PrepTime:         &prep,
		Ingredients:      []string{"eggs", "milk"},
		Instructions:     []string{"Whisk", "Fry"},
		TotalIngredients: 2,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := history.AssignSession(ctx, ids[:2], sess.ID); err != nil {
		t.Fatalf("AssignSession: %v", err)
	}
	linked, _ := history.BySession(ctx, sess.ID)
	if len(linked) != 2 {
		t.Fatalf("BySession = %d messages, want 2", len(linked))
	}

	updated, err := sessions.UpdateRecipe(ctx, sess.ID, entity.RecipeDraft{
		Title:          "Cheese omelette",
		Ingredients:    []string{"eggs", "cheese", "milk"},
		Instructions:   []string{"Whisk", "Add cheese", "Fry"},
		AvailableCount: 2,
		TotalCount:     3,
	})
	if err != nil {
		t.Fatalf("UpdateRecipe: %v", err)
	}
	if updated.Title != "Cheese omelette" || len(updated.Ingredients) != 3 || updated.Summary != nil || updated.PrepTime != nil {
		t.Errorf("updated = %+v", updated)
	}

	list, _ := sessions.List(ctx, 1)
	if len(list) != 1 {
		t.Fatalf("List = %+v", list)
	}

	at := base.Add(time.Hour)
	if err := sessions.SoftDelete(ctx, sess.ID, at); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}
	if err := history.SoftDeleteBySession(ctx, sess.ID, at); err != nil {
		t.Fatalf("SoftDeleteBySession: %v", err)
	}
	got, err := sessions.Get(ctx, sess.ID)
	if err != nil || got == nil || got.DeletedAt == nil {
		t.Fatalf("Get deleted = %+v, %v", got, err)
	}
	if list, _ := sessions.List(ctx, 1); len(list) != 0 {
		t.Errorf("List after delete = %+v", list)
	}
	if linked, _ := history.BySession(ctx, sess.ID); len(linked) != 0 {
		t.Errorf("history after delete = %+v", linked)
	}
	if recent, _ := history.Recent(ctx, 1, nil, 10); len(recent) != 1 || recent[0].ID != ids[2] {
		t.Errorf("unlinked message should survive, got %+v", recent)
	}
}

func TestChatSessions_ListFieldsKeepSeparators(t *testing.T) {
	db := openTestDB(t)
	sessions := NewChatSessionRepository(db, db.logger)
	ctx := context.Background()

	ingredients := []string{"salt | pepper", "olive oil"}
	instructions := []string{"Mix a|b", "", "Serve"}
	sess, err := sessions.Create(ctx, &entity.ChatSession{
		UserID:       3,
		Title:        "Dressing",
		Ingredients:  ingredients,
		Instructions: instructions,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	got, err := sessions.Get(ctx, sess.ID)
	if err != nil || got == nil {
		t.Fatalf("Get = %v, %v", got, err)
	}
	if !slices.Equal(got.Ingredients, ingredients) || !slices.Equal(got.Instructions, instructions) {
		t.Errorf("round trip = %q / %q, want %q / %q", got.Ingredients, got.Instructions, ingredients, instructions)
	}
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{}},
		{"[]", []string{}},
		{`["a|b","c"]`, []string{"a|b", "c"}},
		{"eggs|milk", []string{"eggs", "milk"}},
	}
	for _, tt := range tests {
		got := splitList(tt.in)
		if got == nil || !slices.Equal(got, tt.want) {
			t.Errorf("splitList(%q) = %#v, want %#v", tt.in, got, tt.want)
		}
	}
	if joinList(nil) != "[]" {
		t.Errorf("joinList(nil) = %q", joinList(nil))
	}
}

func TestHealthCheck(t *testing.T) {
	db := openTestDB(t)
	if err := db.HealthCheck(context.Background(), time.Second); err != nil {
		t.Fatalf("HealthCheck: %v", err)
	}
}
