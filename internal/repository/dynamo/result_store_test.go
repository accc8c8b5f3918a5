package dynamo

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/joseph-ayodele/pantry-tracker/internal/entity"
)

// memTable is a minimal in-memory stand-in for PutItem/GetItem/DeleteItem.
type memTable struct {
	mu    sync.Mutex
	items map[string]map[string]types.AttributeValue
	err   error
}

func newMemTable() *memTable {
	return &memTable{items: map[string]map[string]types.AttributeValue{}}
}

func keyOf(m map[string]types.AttributeValue) string {
	return m[keyAttr].(*types.AttributeValueMemberS).Value
}

func (m *memTable) PutItem(_ context.Context, in *dyn.PutItemInput, _ ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	k := keyOf(in.Item)
	if in.ConditionExpression != nil && *in.ConditionExpression == "attribute_not_exists(pk)" {
		if _, ok := m.items[k]; ok {
			return nil, &types.ConditionalCheckFailedException{}
		}
	}
	m.items[k] = in.Item
	return &dyn.PutItemOutput{}, nil
}

func (m *memTable) GetItem(_ context.Context, in *dyn.GetItemInput, _ ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return &dyn.GetItemOutput{Item: m.items[keyOf(in.Key)]}, nil
}

func (m *memTable) DeleteItem(_ context.Context, in *dyn.DeleteItemInput, _ ...func(*dyn.Options)) (*dyn.DeleteItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, keyOf(in.Key))
	return &dyn.DeleteItemOutput{}, nil
}

func TestResultStore_CreateOnce(t *testing.T) {
	table := newMemTable()
	s := NewResultStore(table, "receipt_results", slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	if got, err := s.Get(ctx, 1, "a.jpg"); err != nil || got != nil {
		t.Fatalf("Get on empty = %v, %v", got, err)
	}

	created, err := s.Put(ctx, &entity.ReceiptResult{UserID: 1, ReceiptID: "a.jpg", Result: json.RawMessage(`{"x":1}`), Vendor: "Giant", Total: "4.50"})
	if err != nil || !created {
		t.Fatalf("Put = %v, %v", created, err)
	}
	created, err = s.Put(ctx, &entity.ReceiptResult{UserID: 1, ReceiptID: "a.jpg", Result: json.RawMessage(`{}`)})
	if err != nil || created {
		t.Fatalf("duplicate Put = %v, %v, want false nil", created, err)
	}

	got, err := s.Get(ctx, 1, "a.jpg")
	if err != nil || got == nil {
		t.Fatalf("Get = %v, %v", got, err)
	}
	if got.Vendor != "Giant" || got.Total != "4.50" || string(got.Result) != `{"x":1}` || got.CreatedAt.IsZero() {
		t.Errorf("got %+v", got)
	}

	if err := s.Delete(ctx, 1, "a.jpg"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got, _ := s.Get(ctx, 1, "a.jpg"); got != nil {
		t.Errorf("Get after Delete = %+v", got)
	}
}

func TestResultStore_PropagatesOtherErrors(t *testing.T) {
	table := newMemTable()
	table.err = errors.New("throttled")
	s := NewResultStore(table, "t", slog.New(slog.NewTextHandler(io.Discard, nil)))

	if _, err := s.Put(context.Background(), &entity.ReceiptResult{UserID: 1, ReceiptID: "b"}); err == nil {
		t.Fatal("expected error")
	}
	if _, err := s.Get(context.Background(), 1, "b"); err == nil {
		t.Fatal("expected error")
	}
}

func TestResultStore_NilLoggerOnDuplicate(t *testing.T) {
	s := NewResultStore(newMemTable(), "t", nil)
	ctx := context.Background()
	r := &entity.ReceiptResult{UserID: 2, ReceiptID: "c.jpg", Result: json.RawMessage(`{}`)}

	if created, err := s.Put(ctx, r); err != nil || !created {
		t.Fatalf("Put = %v, %v", created, err)
	}
	if created, err := s.Put(ctx, r); err != nil || created {
		t.Fatalf("duplicate Put = %v, %v, want false nil", created, err)
	}
}
