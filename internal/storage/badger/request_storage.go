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

// RequestStorage implements the RequestStorage interface for Badger
type RequestStorage struct {
	db     *BadgerDB
	logger arbor.ILogger

	// mu serializes status mutations. BadgerHold has no atomic
	// read-modify-write, so the compare-and-set guard and the lifecycle
	// check need a process-level lock.
	mu sync.Mutex
}

// NewRequestStorage creates a new RequestStorage instance
func NewRequestStorage(db *BadgerDB, logger arbor.ILogger) interfaces.RequestStorage {
	return &RequestStorage{
		db:     db,
		logger: logger,
	}
}

func (s *RequestStorage) SaveRequest(ctx context.Context, req *models.AnalysisRequest) error {
	if req.ID == "" {
		return fmt.Errorf("request ID is required")
	}

	req.UpdatedAt = time.Now()
	if req.CreatedAt.IsZero() {
		req.CreatedAt = req.UpdatedAt
	}

	if err := s.db.Store().Upsert(req.ID, req); err != nil {
		return fmt.Errorf("failed to save request: %w", err)
	}
	return nil
}

func (s *RequestStorage) GetRequest(ctx context.Context, id string) (*models.AnalysisRequest, error) {
	var req models.AnalysisRequest
	if err := s.db.Store().Get(id, &req); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get request: %w", err)
	}
	return &req, nil
}

func (s *RequestStorage) ListRequests(ctx context.Context, status models.RequestStatus, limit int) ([]*models.AnalysisRequest, error) {
	query := badgerhold.Where("ID").Ne("")
	if status != "" {
		query = query.And("Status").Eq(status)
	}
	query = query.SortBy("CreatedAt").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}

	var requests []models.AnalysisRequest
	if err := s.db.Store().Find(&requests, query); err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}

	result := make([]*models.AnalysisRequest, len(requests))
	for i := range requests {
		result[i] = &requests[i]
	}
	return result, nil
}

func (s *RequestStorage) UpdateStatus(ctx context.Context, id string, status models.RequestStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, err := s.GetRequest(ctx, id)
	if err != nil {
		return err
	}

	if !req.Status.CanTransition(status) {
		return fmt.Errorf("%w: %s -> %s", interfaces.ErrInvalidTransition, req.Status, status)
	}

	req.Status = status
	if status.IsTerminal() {
		req.CompletedAt = time.Now()
	}
	if status == models.RequestStatusPending {
		// Retry reset clears the previous failure
		req.Error = ""
		req.CompletedAt = time.Time{}
	}

	return s.SaveRequest(ctx, req)
}

func (s *RequestStorage) CompareAndSetStatus(ctx context.Context, id string, target models.RequestStatus, expected ...models.RequestStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, err := s.GetRequest(ctx, id)
	if err != nil {
		return err
	}

	matched := false
	for _, from := range expected {
		if req.Status == from {
			matched = true
			break
		}
	}
	if !matched {
		return fmt.Errorf("%w: status is %s", interfaces.ErrAlreadyRunning, req.Status)
	}

	// A claim from failed passes through the pending retry reset, so the
	// previous failure clears atomically with the claim.
	if req.Status == models.RequestStatusFailed && target != models.RequestStatusFailed {
		req.Status = models.RequestStatusPending
		req.Error = ""
		req.CompletedAt = time.Time{}
	}

	if !req.Status.CanTransition(target) {
		return fmt.Errorf("%w: %s -> %s", interfaces.ErrInvalidTransition, req.Status, target)
	}

	req.Status = target
	if target.IsTerminal() {
		req.CompletedAt = time.Now()
	}

	return s.SaveRequest(ctx, req)
}

func (s *RequestStorage) SetError(ctx context.Context, id string, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, err := s.GetRequest(ctx, id)
	if err != nil {
		return err
	}

	req.Error = message
	return s.SaveRequest(ctx, req)
}

func (s *RequestStorage) AppendParameters(ctx context.Context, id string, params map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, err := s.GetRequest(ctx, id)
	if err != nil {
		return err
	}

	if req.Parameters == nil {
		req.Parameters = make(map[string]interface{}, len(params))
	}
	for k, v := range params {
		req.Parameters[k] = v
	}

	return s.SaveRequest(ctx, req)
}

func (s *RequestStorage) ListStaleProcessing(ctx context.Context, cutoffUnix int64) ([]*models.AnalysisRequest, error) {
	var requests []models.AnalysisRequest
	query := badgerhold.Where("Status").Eq(models.RequestStatusProcessing)
	if err := s.db.Store().Find(&requests, query); err != nil {
		return nil, fmt.Errorf("failed to list processing requests: %w", err)
	}

	cutoff := time.Unix(cutoffUnix, 0)
	var stale []*models.AnalysisRequest
	for i := range requests {
		if requests[i].UpdatedAt.Before(cutoff) {
			stale = append(stale, &requests[i])
		}
	}
	return stale, nil
}

var _ interfaces.RequestStorage = (*RequestStorage)(nil)
