package dynamo

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/valmatch-sync/internal/domain"
)

// NotificationSetRepo stores each user's whole NotificationSet as a single
// item. The document is kept as a JSON string attribute so reads and
// writes are always whole-document — the same discipline the key-value
// contract promises callers.
type NotificationSetRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewNotificationSetRepo(client *dynamodb.Client, tableName string) *NotificationSetRepo {
	return &NotificationSetRepo{client: client, tableName: tableName}
}

// setItem is the persisted shape of one user's document.
type setItem struct {
	StoreKey        string `dynamodbav:"store_key"`
	NotifiedMatches string `dynamodbav:"notified_matches"`
}

// storeKey namespaces items per user, mirroring the wire-level key shape.
func storeKey(userID string) string {
	return "notifications:" + userID
}

// Get returns the user's notification set. A missing item or a corrupt
// document both yield an empty set — the store fails open so a bad write
// can never lock a user out of their reminders.
func (r *NotificationSetRepo) Get(ctx context.Context, userID string) (domain.NotificationSet, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("store_key", storeKey(userID)),
	})
	if err != nil {
		return nil, fmt.Errorf("get notification set: %w", err)
	}
	if out.Item == nil {
		return domain.NotificationSet{}, nil
	}
	var item setItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("unmarshal notification set item: %w", err)
	}
	var set domain.NotificationSet
	if err := json.Unmarshal([]byte(item.NotifiedMatches), &set); err != nil {
		slog.Warn("corrupt notification document, treating as empty", "user_id", userID, "err", err)
		return domain.NotificationSet{}, nil
	}
	if set == nil {
		set = domain.NotificationSet{}
	}
	return set, nil
}

// Put replaces the user's whole notification set.
func (r *NotificationSetRepo) Put(ctx context.Context, userID string, set domain.NotificationSet) error {
	doc, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("marshal notification set: %w", err)
	}
	item, err := attributevalue.MarshalMap(setItem{
		StoreKey:        storeKey(userID),
		NotifiedMatches: string(doc),
	})
	if err != nil {
		return fmt.Errorf("marshal notification set item: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

// Delete removes the user's document entirely. Unused by the HTTP surface
// today; kept for operational cleanup of abandoned installations.
func (r *NotificationSetRepo) Delete(ctx context.Context, userID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("store_key", storeKey(userID)),
	})
	return err
}
