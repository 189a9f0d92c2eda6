package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/diligence/internal/interfaces"
	"github.com/ternarybob/diligence/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// SectionStorage implements the SectionStorage interface for Badger
type SectionStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewSectionStorage creates a new SectionStorage instance
func NewSectionStorage(db *BadgerDB, logger arbor.ILogger) interfaces.SectionStorage {
	return &SectionStorage{
		db:     db,
		logger: logger,
	}
}

func (s *SectionStorage) UpsertSection(ctx context.Context, section *models.ReportSection) error {
	if section.RequestID == "" || section.Name == "" {
		return fmt.Errorf("section request ID and name are required")
	}

	section.Key = models.SectionKey(section.RequestID, section.Name)
	if section.CreatedAt.IsZero() {
		section.CreatedAt = time.Now()
	}

	if err := s.db.Store().Upsert(section.Key, section); err != nil {
		return fmt.Errorf("failed to save section: %w", err)
	}
	return nil
}

func (s *SectionStorage) UpsertSections(ctx context.Context, sections []*models.ReportSection) error {
	for _, section := range sections {
		if err := s.UpsertSection(ctx, section); err != nil {
			return err
		}
	}
	return nil
}

func (s *SectionStorage) ListByRequest(ctx context.Context, requestID string) ([]*models.ReportSection, error) {
	var sections []models.ReportSection
	if err := s.db.Store().Find(&sections, badgerhold.Where("RequestID").Eq(requestID)); err != nil {
		return nil, fmt.Errorf("failed to list sections: %w", err)
	}

	result := make([]*models.ReportSection, len(sections))
	for i := range sections {
		result[i] = &sections[i]
	}
	models.SortSectionsByIndex(result)
	return result, nil
}

func (s *SectionStorage) CountByRequest(ctx context.Context, requestID string) (int, error) {
	count, err := s.db.Store().Count(&models.ReportSection{}, badgerhold.Where("RequestID").Eq(requestID))
	if err != nil {
		return 0, fmt.Errorf("failed to count sections: %w", err)
	}
	return int(count), nil
}

func (s *SectionStorage) DeleteByRequest(ctx context.Context, requestID string) error {
	if err := s.db.Store().DeleteMatching(&models.ReportSection{}, badgerhold.Where("RequestID").Eq(requestID)); err != nil {
		return fmt.Errorf("failed to delete sections: %w", err)
	}
	return nil
}

var _ interfaces.SectionStorage = (*SectionStorage)(nil)
