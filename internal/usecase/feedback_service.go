package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/vendora/backend/internal/domain"
	"github.com/vendora/backend/internal/platform/logger"
	"github.com/vendora/backend/internal/platform/metrics"
)

// Confidence bucket edges used by Summary. The last bucket is closed at 1.
var feedbackBucketEdges = []float64{0, 0.5, 0.8, 0.95, 1}

// FeedbackService is the single writer of the match feedback log
type FeedbackService struct {
	repo    domain.FeedbackRepository
	log     *logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewFeedbackService creates a feedback recorder. m may be nil.
func NewFeedbackService(repo domain.FeedbackRepository, log *logger.Logger, m *metrics.Metrics) *FeedbackService {
	return &FeedbackService{
		repo:    repo,
		log:     log.With("component", "feedback"),
		metrics: m,
		now:     time.Now,
	}
}

// Record appends one decision. Partial input is accepted as is. A failed
// write is returned as a PersistenceError.
func (s *FeedbackService) Record(ctx context.Context, userID uuid.UUID, in domain.FeedbackInput, source string) error {
	fb := &domain.MatchFeedback{
		ID:                 uuid.New(),
		InputText:          in.InputText,
		SuggestedCatalogID: in.SuggestedCatalogID,
		UserChoice:         in.UserChoice,
		ActualCatalogID:    in.ActualCatalogID,
		ConfidenceScore:    in.ConfidenceScore,
		UserID:             userID,
		CategoryID:         in.CategoryID,
		Source:             source,
		CreatedAt:          s.now().UTC(),
	}

	if err := s.repo.Append(ctx, fb); err != nil {
		s.metrics.ObserveFeedback(source, false)
		return &domain.PersistenceError{Step: "feedback", Err: err}
	}
	s.metrics.ObserveFeedback(source, true)
	return nil
}

// RecordBestEffort appends one decision and only logs a failure. Used where
// the caller's primary action must not depend on telemetry.
func (s *FeedbackService) RecordBestEffort(ctx context.Context, userID uuid.UUID, in domain.FeedbackInput, source string) {
	if err := s.Record(ctx, userID, in, source); err != nil {
		s.log.Warn("feedback not recorded",
			"source", source,
			"userId", userID,
			"suggestedCatalogId", in.SuggestedCatalogID,
			"error", err,
		)
	}
}

// Summary aggregates feedback recorded since the given time into confidence
// buckets for threshold tuning.
func (s *FeedbackService) Summary(ctx context.Context, since time.Time) (*domain.FeedbackSummary, error) {
	rows, err := s.repo.ListSince(ctx, since)
	if err != nil {
		return nil, err
	}

	summary := &domain.FeedbackSummary{Since: since.UTC()}
	for i := 0; i < len(feedbackBucketEdges)-1; i++ {
		summary.Buckets = append(summary.Buckets, domain.FeedbackBucket{
			Min: feedbackBucketEdges[i],
			Max: feedbackBucketEdges[i+1],
		})
	}

	for _, fb := range rows {
		summary.Total++
		if fb.UserChoice {
			summary.Accepted++
		} else {
			summary.Rejected++
		}
		if fb.Source == domain.FeedbackSourceAutoLink {
			summary.ImplicitLinks++
		}

		if fb.ConfidenceScore == nil {
			summary.WithoutScore++
			continue
		}
		b := &summary.Buckets[bucketIndex(*fb.ConfidenceScore)]
		if fb.UserChoice {
			b.Accepted++
		} else {
			b.Rejected++
		}
	}

	for i := range summary.Buckets {
		b := &summary.Buckets[i]
		if n := b.Accepted + b.Rejected; n > 0 {
			b.AcceptanceRate = float64(b.Accepted) / float64(n)
		}
	}
	return summary, nil
}

func bucketIndex(score float64) int {
	last := len(feedbackBucketEdges) - 2
	for i := 0; i < last; i++ {
		if score < feedbackBucketEdges[i+1] {
			return i
		}
	}
	return last
}
