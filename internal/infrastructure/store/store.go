package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-feedback-service/internal/config"
	"github.com/go-feedback-service/internal/domain"
	"github.com/go-feedback-service/internal/infrastructure/dynamo"
	"github.com/go-feedback-service/internal/infrastructure/mongodb"
)

// FeedbackRepository is implemented by every record store backend.
type FeedbackRepository interface {
	Put(ctx context.Context, rec *domain.FeedbackRecord) error
	Get(ctx context.Context, feedbackID string) (*domain.FeedbackRecord, error)
	ScanPage(ctx context.Context, limit int32, cursor string) ([]domain.FeedbackRecord, string, error)
	Delete(ctx context.Context, feedbackID string) error
}

// Open connects the backend named by cfg.StoreBackend, preparing its table or
// indexes. The returned func releases the connection.
func Open(ctx context.Context, cfg *config.Config) (FeedbackRepository, func(context.Context) error, error) {
	switch cfg.StoreBackend {
	case config.StoreDynamo:
		client, err := dynamo.NewClient(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		dynamo.Bootstrap(ctx, client, cfg.DynamoTables)
		slog.Info("record store ready", "backend", cfg.StoreBackend, "table", cfg.DynamoTables.Feedback)
		return dynamo.NewFeedbackRepo(client, cfg.DynamoTables.Feedback), func(context.Context) error { return nil }, nil

	case config.StoreMongo:
		client, coll, err := mongodb.Connect(ctx, cfg.Mongo)
		if err != nil {
			return nil, nil, err
		}
		repo := mongodb.NewFeedbackRepo(coll)
		if err := repo.EnsureIndexes(ctx); err != nil {
			slog.Warn("could not create feedback indexes", "err", err)
		}
		slog.Info("record store ready", "backend", cfg.StoreBackend, "collection", cfg.Mongo.Collection)
		return repo, client.Disconnect, nil

	default:
		return nil, nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}
}
