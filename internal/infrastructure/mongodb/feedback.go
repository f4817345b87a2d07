package mongodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-feedback-service/internal/domain"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// FeedbackRepo stores feedback records in a MongoDB collection keyed by feedback id.
type FeedbackRepo struct {
	collection *mongo.Collection
}

func NewFeedbackRepo(collection *mongo.Collection) *FeedbackRepo {
	return &FeedbackRepo{collection: collection}
}

// EnsureIndexes creates the created_at index the caretaker sweeps rely on.
func (r *FeedbackRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "created_at", Value: 1}},
	})
	return err
}

func (r *FeedbackRepo) Put(ctx context.Context, rec *domain.FeedbackRecord) error {
	_, err := r.collection.InsertOne(ctx, rec)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("feedback %s already stored", rec.FeedbackID)
		}
		return domain.Transient("insert feedback", err)
	}
	return nil
}

func (r *FeedbackRepo) Get(ctx context.Context, feedbackID string) (*domain.FeedbackRecord, error) {
	var rec domain.FeedbackRecord
	err := r.collection.FindOne(ctx, bson.M{"_id": feedbackID}).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("feedback %s: %w", feedbackID, domain.ErrNotFound)
		}
		return nil, domain.Transient("find feedback", err)
	}
	return &rec, nil
}

// ScanPage walks the collection in id order. cursor is the last id of the previous page.
func (r *FeedbackRepo) ScanPage(ctx context.Context, limit int32, cursor string) ([]domain.FeedbackRecord, string, error) {
	filter := bson.M{}
	if cursor != "" {
		filter["_id"] = bson.M{"$gt": cursor}
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetLimit(int64(limit))

	cur, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, "", domain.Transient("scan feedback", err)
	}
	var recs []domain.FeedbackRecord
	if err := cur.All(ctx, &recs); err != nil {
		return nil, "", domain.Transient("decode feedback page", err)
	}

	next := ""
	if limit > 0 && len(recs) == int(limit) {
		next = recs[len(recs)-1].FeedbackID
	}
	return recs, next, nil
}

func (r *FeedbackRepo) Delete(ctx context.Context, feedbackID string) error {
	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": feedbackID}); err != nil {
		return domain.Transient("delete feedback", err)
	}
	return nil
}
