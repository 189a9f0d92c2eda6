package interfaces

import (
	"context"
	"errors"

	"github.com/ternarybob/diligence/internal/models"
)

// Sentinel errors shared by storage implementations
var (
	// ErrNotFound indicates the requested record does not exist
	ErrNotFound = errors.New("record not found")

	// ErrInvalidTransition indicates a status update violated the
	// request lifecycle (pending -> processing -> completed/failed)
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrAlreadyRunning indicates a compare-and-set status guard lost the
	// race: another caller already moved the request out of the expected
	// state
	ErrAlreadyRunning = errors.New("request already claimed by another run")
)

// RequestStorage - interface for analysis request persistence
type RequestStorage interface {
	// SaveRequest inserts or replaces a request record
	SaveRequest(ctx context.Context, req *models.AnalysisRequest) error

	// GetRequest returns the request or ErrNotFound
	GetRequest(ctx context.Context, id string) (*models.AnalysisRequest, error)

	// ListRequests returns requests, newest first, optionally filtered by status
	ListRequests(ctx context.Context, status models.RequestStatus, limit int) ([]*models.AnalysisRequest, error)

	// UpdateStatus transitions the request to a new status, enforcing the
	// lifecycle guard. Returns ErrInvalidTransition when the move is not
	// allowed from the current state.
	UpdateStatus(ctx context.Context, id string, status models.RequestStatus) error

	// CompareAndSetStatus atomically transitions to target when the stored
	// status matches one of expected; otherwise ErrAlreadyRunning
	// (first-call-wins idempotency guard). A claim from failed clears the
	// previous failure as part of the same transition.
	CompareAndSetStatus(ctx context.Context, id string, target models.RequestStatus, expected ...models.RequestStatus) error

	// SetError records a failure description on the request
	SetError(ctx context.Context, id string, message string) error

	// AppendParameters merges the given keys into the request's parameters
	// bag. Unrelated keys written concurrently are never clobbered;
	// last-writer-wins per key.
	AppendParameters(ctx context.Context, id string, params map[string]interface{}) error

	// ListStaleProcessing returns requests stuck in processing whose last
	// update is older than the cutoff (unix seconds). Used by the reaper.
	ListStaleProcessing(ctx context.Context, cutoffUnix int64) ([]*models.AnalysisRequest, error)
}

// SectionStorage - interface for generated report section persistence
type SectionStorage interface {
	// UpsertSection writes a section, overwriting any previous content for
	// the same (request, name) pair
	UpsertSection(ctx context.Context, section *models.ReportSection) error

	// UpsertSections writes multiple sections with overwrite-by-name semantics
	UpsertSections(ctx context.Context, sections []*models.ReportSection) error

	// ListByRequest returns the request's sections sorted by fixed report index
	ListByRequest(ctx context.Context, requestID string) ([]*models.ReportSection, error)

	// CountByRequest returns how many sections exist for the request
	CountByRequest(ctx context.Context, requestID string) (int, error)

	// DeleteByRequest removes all sections for the request
	DeleteByRequest(ctx context.Context, requestID string) error
}

// SummaryStorage - interface for structured summary and deal report persistence
type SummaryStorage interface {
	// UpsertSummary merges the given summary into any stored one for the
	// same deal id. Idempotent under duplicate writes.
	UpsertSummary(ctx context.Context, summary *models.StructuredSummary) error

	// GetSummary returns the summary or ErrNotFound
	GetSummary(ctx context.Context, dealID string) (*models.StructuredSummary, error)

	// UpsertDealReport writes the deal report record, duplicate-safe
	UpsertDealReport(ctx context.Context, report *models.DealReport) error

	// GetDealReport returns the deal report or ErrNotFound
	GetDealReport(ctx context.Context, dealID string) (*models.DealReport, error)
}

// KnowledgeDoc is a reference document indexed for retrieval augmentation
type KnowledgeDoc struct {
	ID      string `badgerhold:"key"`
	Title   string
	Content string
}

// KnowledgeStorage - interface for the local reference document index used
// to augment retrieval context with top-k snippets
type KnowledgeStorage interface {
	// StoreDoc indexes a reference document
	StoreDoc(ctx context.Context, doc *KnowledgeDoc) error

	// Search returns up to topK documents scored against the query terms,
	// best first. An empty result is not an error.
	Search(ctx context.Context, query string, topK int) ([]*KnowledgeDoc, error)

	// CountDocs returns the number of indexed documents
	CountDocs(ctx context.Context) (int, error)
}

// StorageManager provides access to all storage interfaces
type StorageManager interface {
	RequestStorage() RequestStorage
	SectionStorage() SectionStorage
	SummaryStorage() SummaryStorage
	KnowledgeStorage() KnowledgeStorage

	// LoadKnowledgeFromDir indexes reference documents from a directory
	// for retrieval augmentation. A missing directory is not an error.
	LoadKnowledgeFromDir(ctx context.Context, dir string, extensions []string) error

	// Close closes the underlying database
	Close() error
}
