package dynamo

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-feedback-service/internal/domain"
)

// itemAPI is the subset of *dynamodb.Client the feedback repo calls.
type itemAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// FeedbackRepo provides typed DynamoDB operations for the feedback table.
type FeedbackRepo struct {
	client    itemAPI
	tableName string
}

func NewFeedbackRepo(client itemAPI, tableName string) *FeedbackRepo {
	return &FeedbackRepo{client: client, tableName: tableName}
}

// Put stores a new record. Records are immutable, so an existing id is refused.
func (r *FeedbackRepo) Put(ctx context.Context, rec *domain.FeedbackRecord) error {
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("marshal feedback: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(r.tableName),
		Item:                     item,
		ConditionExpression:      aws.String("attribute_not_exists(#id)"),
		ExpressionAttributeNames: map[string]string{"#id": fieldFeedbackID},
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return fmt.Errorf("feedback %s already stored", rec.FeedbackID)
		}
		return domain.Transient("put feedback", err)
	}
	return nil
}

func (r *FeedbackRepo) Get(ctx context.Context, feedbackID string) (*domain.FeedbackRecord, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey(fieldFeedbackID, feedbackID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, domain.Transient("get feedback", err)
	}
	if out.Item == nil {
		return nil, fmt.Errorf("feedback %s: %w", feedbackID, domain.ErrNotFound)
	}
	var rec domain.FeedbackRecord
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal feedback: %w", err)
	}
	return &rec, nil
}

// ScanPage returns up to limit records starting after cursor.
// The returned cursor is empty once the table is exhausted.
func (r *FeedbackRepo) ScanPage(ctx context.Context, limit int32, cursor string) ([]domain.FeedbackRecord, string, error) {
	input := &dynamodb.ScanInput{
		TableName: aws.String(r.tableName),
		Limit:     aws.Int32(limit),
	}
	if cursor != "" {
		startKey, err := decodeCursor(cursor)
		if err != nil {
			return nil, "", domain.Invalid("cursor", "base64")
		}
		input.ExclusiveStartKey = startKey
	}
	out, err := r.client.Scan(ctx, input)
	if err != nil {
		return nil, "", domain.Transient("scan feedback", err)
	}
	var recs []domain.FeedbackRecord
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &recs); err != nil {
		return nil, "", fmt.Errorf("unmarshal feedback page: %w", err)
	}
	return recs, encodeCursor(out.LastEvaluatedKey), nil
}

// Delete removes a record. Deleting an absent id is not an error.
func (r *FeedbackRepo) Delete(ctx context.Context, feedbackID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(fieldFeedbackID, feedbackID),
	})
	if err != nil {
		return domain.Transient("delete feedback", err)
	}
	return nil
}
