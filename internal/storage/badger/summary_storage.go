package badger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/diligence/internal/interfaces"
	"github.com/ternarybob/diligence/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// SummaryStorage implements the SummaryStorage interface for Badger
type SummaryStorage struct {
	db     *BadgerDB
	logger arbor.ILogger

	// mu serializes summary and deal report merges so concurrent duplicate
	// callbacks converge instead of clobbering each other
	mu sync.Mutex
}

// NewSummaryStorage creates a new SummaryStorage instance
func NewSummaryStorage(db *BadgerDB, logger arbor.ILogger) interfaces.SummaryStorage {
	return &SummaryStorage{
		db:     db,
		logger: logger,
	}
}

func (s *SummaryStorage) UpsertSummary(ctx context.Context, summary *models.StructuredSummary) error {
	if summary.DealID == "" {
		return fmt.Errorf("summary deal ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var existing models.StructuredSummary
	err := s.db.Store().Get(summary.DealID, &existing)
	switch err {
	case nil:
		existing.Merge(summary)
	case badgerhold.ErrNotFound:
		existing = *summary
	default:
		return fmt.Errorf("failed to read summary: %w", err)
	}

	existing.UpdatedAt = time.Now()
	if err := s.db.Store().Upsert(existing.DealID, &existing); err != nil {
		return fmt.Errorf("failed to save summary: %w", err)
	}
	return nil
}

func (s *SummaryStorage) GetSummary(ctx context.Context, dealID string) (*models.StructuredSummary, error) {
	var summary models.StructuredSummary
	if err := s.db.Store().Get(dealID, &summary); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get summary: %w", err)
	}
	return &summary, nil
}

func (s *SummaryStorage) UpsertDealReport(ctx context.Context, report *models.DealReport) error {
	if report.DealID == "" {
		return fmt.Errorf("deal report deal ID is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var existing models.DealReport
	err := s.db.Store().Get(report.DealID, &existing)
	switch err {
	case nil:
		existing.Merge(report)
	case badgerhold.ErrNotFound:
		existing = *report
		if existing.PublishedAt.IsZero() {
			existing.PublishedAt = time.Now()
		}
	default:
		return fmt.Errorf("failed to read deal report: %w", err)
	}

	if err := s.db.Store().Upsert(existing.DealID, &existing); err != nil {
		return fmt.Errorf("failed to save deal report: %w", err)
	}
	return nil
}

func (s *SummaryStorage) GetDealReport(ctx context.Context, dealID string) (*models.DealReport, error) {
	var report models.DealReport
	if err := s.db.Store().Get(dealID, &report); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get deal report: %w", err)
	}
	return &report, nil
}

var _ interfaces.SummaryStorage = (*SummaryStorage)(nil)
