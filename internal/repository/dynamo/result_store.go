// Package dynamo stores receipt results in a DynamoDB table keyed by "<user_id>#<receipt_id>".
package dynamo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"

	"github.com/joseph-ayodele/pantry-tracker/internal/entity"
)

const keyAttr = "pk"

// API is the subset of the DynamoDB client the store uses.
type API interface {
	PutItem(ctx context.Context, params *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error)
	GetItem(ctx context.Context, params *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error)
	DeleteItem(ctx context.Context, params *dyn.DeleteItemInput, optFns ...func(*dyn.Options)) (*dyn.DeleteItemOutput, error)
}

type record struct {
	PK        string    `dynamodbav:"pk"`
	UserID    int64     `dynamodbav:"user_id"`
	ReceiptID string    `dynamodbav:"receipt_id"`
	Result    string    `dynamodbav:"result"`
	Vendor    string    `dynamodbav:"vendor,omitempty"`
	Total     string    `dynamodbav:"total,omitempty"`
	CreatedAt time.Time `dynamodbav:"created_at"`
}

// ResultStore persists gateway results with a create-once conditional put.
type ResultStore struct {
	client    API
	tableName string
	nowFunc   func() time.Time
	logger    *slog.Logger
}

func NewResultStore(client API, tableName string, logger *slog.Logger) *ResultStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &ResultStore{client: client, tableName: tableName, nowFunc: time.Now, logger: logger}
}

func itemKey(userID int64, receiptID string) string {
	return strconv.FormatInt(userID, 10) + "#" + receiptID
}

func (s *ResultStore) key(userID int64, receiptID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		keyAttr: &types.AttributeValueMemberS{Value: itemKey(userID, receiptID)},
	}
}

// Get returns nil, nil when the item does not exist.
func (s *ResultStore) Get(ctx context.Context, userID int64, receiptID string) (*entity.ReceiptResult, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName:      &s.tableName,
		Key:            s.key(userID, receiptID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var rec record
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal item: %w", err)
	}
	return &entity.ReceiptResult{
		UserID:    rec.UserID,
		ReceiptID: rec.ReceiptID,
		Result:    json.RawMessage(rec.Result),
		Vendor:    rec.Vendor,
		Total:     rec.Total,
		CreatedAt: rec.CreatedAt,
	}, nil
}

// Put returns (false, nil) when a result for the same user and receipt already exists.
func (s *ResultStore) Put(ctx context.Context, r *entity.ReceiptResult) (bool, error) {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.nowFunc().UTC()
	}
	item, err := attributevalue.MarshalMap(record{
		PK:        itemKey(r.UserID, r.ReceiptID),
		UserID:    r.UserID,
		ReceiptID: r.ReceiptID,
		Result:    string(r.Result),
		Vendor:    r.Vendor,
		Total:     r.Total,
		CreatedAt: r.CreatedAt,
	})
	if err != nil {
		return false, fmt.Errorf("marshal record: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName:           &s.tableName,
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(" + keyAttr + ")"),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "ConditionalCheckFailedException" {
			s.logger.Debug("receipt result already stored", "user_id", r.UserID, "receipt_id", r.ReceiptID)
			return false, nil
		}
		return false, fmt.Errorf("put item: %w", err)
	}
	return true, nil
}

func (s *ResultStore) Delete(ctx context.Context, userID int64, receiptID string) error {
	_, err := s.client.DeleteItem(ctx, &dyn.DeleteItemInput{
		TableName: &s.tableName,
		Key:       s.key(userID, receiptID),
	})
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return nil
}
