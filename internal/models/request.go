package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// RequestStatus represents the lifecycle state of an analysis request
type RequestStatus string

const (
	RequestStatusPending    RequestStatus = "pending"
	RequestStatusProcessing RequestStatus = "processing"
	RequestStatusCompleted  RequestStatus = "completed"
	RequestStatusFailed     RequestStatus = "failed"
)

// IsTerminal reports whether the status is a terminal state
func (s RequestStatus) IsTerminal() bool {
	return s == RequestStatusCompleted || s == RequestStatusFailed
}

// CanTransition reports whether a transition from s to target is allowed.
//
// Allowed transitions:
//   - pending -> processing
//   - processing -> completed
//   - processing -> failed
//   - failed -> pending (retry reset)
//
// completed is immutable. All other transitions are rejected.
func (s RequestStatus) CanTransition(target RequestStatus) bool {
	switch s {
	case RequestStatusPending:
		return target == RequestStatusProcessing
	case RequestStatusProcessing:
		return target == RequestStatusCompleted || target == RequestStatusFailed
	case RequestStatusFailed:
		return target == RequestStatusPending
	default:
		return false
	}
}

// AnalysisRequest represents a request to generate an investment readiness
// report for a founder's company.
//
// Status transitions only move pending -> processing -> {completed, failed};
// a failed request may be reset to pending for retry. The Parameters bag
// carries generation metadata (progress counters, pdf_url, generated section
// names) alongside the fields supplied at creation time.
type AnalysisRequest struct {
	ID             string        `json:"id" badgerhold:"key"`
	UserID         string        `json:"user_id"`
	RequestorName  string        `json:"requestor_name"`
	Email          string        `json:"email"`
	CompanyName    string        `json:"company_name"`
	FounderName    string        `json:"founder_name,omitempty"`
	FounderCompany string        `json:"founder_company"`
	Industry       string        `json:"industry,omitempty"`
	FundingStage   string        `json:"funding_stage,omitempty"`
	CompanyType    string        `json:"company_type,omitempty"`
	PitchDeckURL   string        `json:"pitch_deck_url,omitempty"`
	AdditionalInfo string        `json:"additional_info,omitempty"`
	Status         RequestStatus `json:"status" badgerholdIndex:"Status"`
	// Error holds a concise description of why the request failed.
	// Only populated when status is 'failed'.
	Error string `json:"error,omitempty"`
	// Parameters stores generation metadata for the request.
	// Common keys:
	//   - progress_percent: coarse generation progress (0-100)
	//   - pdf_url: published report artifact URL
	//   - generated_sections: names of sections persisted so far
	// Merged per key; concurrent writers never clobber unrelated keys.
	Parameters  map[string]interface{} `json:"parameters,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
	CompletedAt time.Time              `json:"completed_at,omitempty"`
}

// DealID returns the externally visible identifier grouping this request's
// published artifacts and structured summary.
func (r *AnalysisRequest) DealID() string {
	return "deal_" + r.ID
}

// ProgressPercent reads the coarse progress counter from the parameters bag.
// Returns 0 when no progress has been recorded.
func (r *AnalysisRequest) ProgressPercent() int {
	if r.Parameters == nil {
		return 0
	}
	switch v := r.Parameters["progress_percent"].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

// PDFURL reads the published artifact URL from the parameters bag.
func (r *AnalysisRequest) PDFURL() string {
	if r.Parameters == nil {
		return ""
	}
	if url, ok := r.Parameters["pdf_url"].(string); ok {
		return url
	}
	return ""
}

// ParametersJSON serializes the parameters bag for API responses
func (r *AnalysisRequest) ParametersJSON() (string, error) {
	if r.Parameters == nil {
		return "{}", nil
	}
	data, err := json.Marshal(r.Parameters)
	if err != nil {
		return "", fmt.Errorf("failed to marshal parameters: %w", err)
	}
	return string(data), nil
}
