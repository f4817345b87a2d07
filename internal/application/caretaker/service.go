package caretaker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-feedback-service/internal/domain"
)

// Result counts what one housekeeping run did.
type Result struct {
	Scanned int `json:"scanned"`
	Deleted int `json:"deleted"`
	Failed  int `json:"failed"`
}

type Service interface {
	// Run deletes every record whose age is strictly greater than threshold.
	// Per-record delete failures are counted in Result.Failed and do not stop the scan.
	Run(ctx context.Context, threshold time.Duration) (Result, error)
}

type recordStore interface {
	ScanPage(ctx context.Context, limit int32, cursor string) ([]domain.FeedbackRecord, string, error)
	Delete(ctx context.Context, feedbackID string) error
}

type ServiceDeps struct {
	Records      recordStore
	PageSize     int32
	StoreTimeout time.Duration
	Now          func() time.Time
}

type service struct {
	records      recordStore
	pageSize     int32
	storeTimeout time.Duration
	now          func() time.Time
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		records:      deps.Records,
		pageSize:     deps.PageSize,
		storeTimeout: deps.StoreTimeout,
		now:          deps.Now,
	}
	if s.pageSize <= 0 {
		s.pageSize = 100
	}
	if s.storeTimeout <= 0 {
		s.storeTimeout = 5 * time.Second
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *service) Run(ctx context.Context, threshold time.Duration) (Result, error) {
	var res Result
	if threshold <= 0 {
		return res, domain.Invalid("keep_history", "gt")
	}
	now := s.now()

	cursor := ""
	for {
		if err := ctx.Err(); err != nil {
			return res, fmt.Errorf("stopped after %d records: %w", res.Scanned, err)
		}
		page, next, err := s.scan(ctx, cursor)
		if err != nil {
			return res, fmt.Errorf("scan page after %d records: %w", res.Scanned, err)
		}
		for _, rec := range page {
			res.Scanned++
			if now.Sub(rec.CreatedAt) <= threshold {
				continue
			}
			if err := s.delete(ctx, rec.FeedbackID); err != nil {
				res.Failed++
				slog.Error("failed to delete expired feedback", "feedback_id", rec.FeedbackID, "created_at", rec.CreatedAt, "err", err)
				continue
			}
			res.Deleted++
		}
		if next == "" {
			break
		}
		cursor = next
	}

	slog.Info("housekeeping finished", "scanned", res.Scanned, "deleted", res.Deleted, "failed", res.Failed, "threshold", threshold.String())
	return res, nil
}

func (s *service) scan(ctx context.Context, cursor string) ([]domain.FeedbackRecord, string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	return s.records.ScanPage(ctx, s.pageSize, cursor)
}

func (s *service) delete(ctx context.Context, feedbackID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	return s.records.Delete(ctx, feedbackID)
}
