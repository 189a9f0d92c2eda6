// -----------------------------------------------------------------------
// Report Handler - API endpoints for analysis requests and reports
// -----------------------------------------------------------------------

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/diligence/internal/common"
	"github.com/ternarybob/diligence/internal/interfaces"
	"github.com/ternarybob/diligence/internal/models"
)

// ReportHandler handles report-related API requests
type ReportHandler struct {
	storage  interfaces.StorageManager
	runner   ReportRunner
	validate *validator.Validate
	logger   arbor.ILogger
}

// NewReportHandler creates a new report handler
func NewReportHandler(storage interfaces.StorageManager, runner ReportRunner, logger arbor.ILogger) *ReportHandler {
	return &ReportHandler{
		storage:  storage,
		runner:   runner,
		validate: validator.New(),
		logger:   logger,
	}
}

// CreateRequestPayload is the body for creating an analysis request.
// All fields are validated using go-playground/validator tags.
type CreateRequestPayload struct {
	UserID         string `json:"user_id" validate:"omitempty,max=128"`
	RequestorName  string `json:"requestor_name" validate:"omitempty,max=256"`
	Email          string `json:"email" validate:"required,email"`
	CompanyName    string `json:"company_name" validate:"omitempty,max=256"`
	FounderName    string `json:"founder_name" validate:"omitempty,max=256"`
	FounderCompany string `json:"founder_company" validate:"omitempty,max=256"`
	Industry       string `json:"industry" validate:"omitempty,max=256"`
	FundingStage   string `json:"funding_stage" validate:"omitempty,max=128"`
	CompanyType    string `json:"company_type" validate:"omitempty,max=128"`
	PitchDeckURL   string `json:"pitch_deck_url" validate:"omitempty,url"`
	AdditionalInfo string `json:"additional_info" validate:"omitempty,max=20000"`
}

// CreateHandler creates a new analysis request
// POST /api/reports
func (h *ReportHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var payload CreateRequestPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if err := h.validate.Struct(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}
	if strings.TrimSpace(payload.FounderCompany) == "" && strings.TrimSpace(payload.CompanyName) == "" {
		WriteError(w, http.StatusBadRequest, "Either founder_company or company_name is required")
		return
	}

	req := &models.AnalysisRequest{
		ID:             common.NewRequestID(),
		UserID:         payload.UserID,
		RequestorName:  payload.RequestorName,
		Email:          payload.Email,
		CompanyName:    payload.CompanyName,
		FounderName:    payload.FounderName,
		FounderCompany: payload.FounderCompany,
		Industry:       payload.Industry,
		FundingStage:   payload.FundingStage,
		CompanyType:    payload.CompanyType,
		PitchDeckURL:   payload.PitchDeckURL,
		AdditionalInfo: payload.AdditionalInfo,
		Status:         models.RequestStatusPending,
		CreatedAt:      time.Now(),
	}

	if err := h.storage.RequestStorage().SaveRequest(r.Context(), req); err != nil {
		h.logger.Error().Err(err).Msg("Failed to save analysis request")
		WriteError(w, http.StatusInternalServerError, "Failed to create request")
		return
	}

	h.logger.Info().
		Str("request_id", req.ID).
		Str("company", req.FounderCompany).
		Msg("Analysis request created")

	WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"request_id": req.ID,
		"deal_id":    req.DealID(),
		"status":     req.Status,
	})
}

// GenerateHandler starts report generation for a request.
// Generation runs in the background; duplicate calls while a run is in
// flight are rejected, and a completed request is never rerun.
// POST /api/reports/{id}/generate
func (h *ReportHandler) GenerateHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	requestID := pathSegment(r.URL.Path, "/api/reports/", "/generate")
	if requestID == "" {
		WriteError(w, http.StatusBadRequest, "Request ID is required")
		return
	}

	req, err := h.storage.RequestStorage().GetRequest(r.Context(), requestID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "Request not found")
			return
		}
		h.logger.Error().Err(err).Str("request_id", requestID).Msg("Failed to load request")
		WriteError(w, http.StatusInternalServerError, "Failed to load request")
		return
	}

	switch req.Status {
	case models.RequestStatusProcessing:
		WriteError(w, http.StatusConflict, "Report generation already in progress")
		return
	case models.RequestStatusCompleted:
		WriteError(w, http.StatusConflict, "Report already completed")
		return
	}

	// detached from the request context, the run outlives the HTTP call
	common.SafeGo(h.logger, "report-generate-"+requestID, func() {
		if err := h.runner.Run(context.Background(), requestID); err != nil && !errors.Is(err, interfaces.ErrAlreadyRunning) {
			h.logger.Error().Err(err).Str("request_id", requestID).Msg("Background report generation failed")
		}
	})

	WriteStarted(w, "Report generation started")
}

// StatusHandler returns the lifecycle status and progress of a request
// GET /api/reports/{id}/status
func (h *ReportHandler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	requestID := pathSegment(r.URL.Path, "/api/reports/", "/status")
	if requestID == "" {
		WriteError(w, http.StatusBadRequest, "Request ID is required")
		return
	}

	req, ok := h.loadRequest(w, r, requestID)
	if !ok {
		return
	}

	response := map[string]interface{}{
		"request_id":       req.ID,
		"status":           req.Status,
		"progress_percent": req.ProgressPercent(),
	}
	if req.Error != "" {
		response["error"] = req.Error
	}
	if !req.CompletedAt.IsZero() {
		response["completed_at"] = req.CompletedAt
	}
	WriteJSON(w, http.StatusOK, response)
}

// ContentHandler returns the generated sections in report order
// GET /api/reports/{id}/content
func (h *ReportHandler) ContentHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	requestID := pathSegment(r.URL.Path, "/api/reports/", "/content")
	if requestID == "" {
		WriteError(w, http.StatusBadRequest, "Request ID is required")
		return
	}

	req, ok := h.loadRequest(w, r, requestID)
	if !ok {
		return
	}

	sections, err := h.storage.SectionStorage().ListByRequest(r.Context(), requestID)
	if err != nil {
		h.logger.Error().Err(err).Str("request_id", requestID).Msg("Failed to list sections")
		WriteError(w, http.StatusInternalServerError, "Failed to load sections")
		return
	}

	response := map[string]interface{}{
		"request_id": req.ID,
		"deal_id":    req.DealID(),
		"status":     req.Status,
		"sections":   sections,
	}
	if pdfURL := req.PDFURL(); pdfURL != "" {
		response["pdf_url"] = pdfURL
	}
	WriteJSON(w, http.StatusOK, response)
}

// SummaryHandler returns the structured summary for a request's deal
// GET /api/reports/{id}/summary
func (h *ReportHandler) SummaryHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	requestID := pathSegment(r.URL.Path, "/api/reports/", "/summary")
	if requestID == "" {
		WriteError(w, http.StatusBadRequest, "Request ID is required")
		return
	}

	req, ok := h.loadRequest(w, r, requestID)
	if !ok {
		return
	}

	summary, err := h.storage.SummaryStorage().GetSummary(r.Context(), req.DealID())
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "Summary not available")
			return
		}
		h.logger.Error().Err(err).Str("request_id", requestID).Msg("Failed to load summary")
		WriteError(w, http.StatusInternalServerError, "Failed to load summary")
		return
	}

	WriteJSON(w, http.StatusOK, summary)
}

// GetHandler returns the full request record
// GET /api/reports/{id}
func (h *ReportHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	requestID := strings.TrimPrefix(r.URL.Path, "/api/reports/")
	if requestID == "" || strings.Contains(requestID, "/") {
		WriteError(w, http.StatusBadRequest, "Request ID is required")
		return
	}

	req, ok := h.loadRequest(w, r, requestID)
	if !ok {
		return
	}
	WriteJSON(w, http.StatusOK, req)
}

// ListHandler returns requests, newest first
// GET /api/reports?status=completed&limit=50
func (h *ReportHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 && parsed <= 500 {
			limit = parsed
		}
	}
	status := models.RequestStatus(r.URL.Query().Get("status"))

	requests, err := h.storage.RequestStorage().ListRequests(r.Context(), status, limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list requests")
		WriteError(w, http.StatusInternalServerError, "Failed to list requests")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"requests":    requests,
		"total_count": len(requests),
		"limit":       limit,
	})
}

// CallbackPayload is the body accepted by the report callback endpoint.
// An external pipeline posts the published artifact URL and structured
// summary for a deal; duplicate deliveries converge to the same state.
type CallbackPayload struct {
	DealID    string                     `json:"deal_id" validate:"required"`
	RequestID string                     `json:"request_id" validate:"omitempty"`
	Status    string                     `json:"status" validate:"omitempty"`
	PDFURL    string                     `json:"pdf_url" validate:"omitempty"`
	Summary   map[string]json.RawMessage `json:"summary" validate:"omitempty"`
}

// CallbackHandler ingests a report callback idempotently
// POST /api/callbacks/report
func (h *ReportHandler) CallbackHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var payload CallbackPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if err := h.validate.Struct(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	ctx := r.Context()

	if len(payload.Summary) > 0 {
		summary := &models.StructuredSummary{
			DealID:    payload.DealID,
			RequestID: payload.RequestID,
			UpdatedAt: time.Now(),
		}
		for name, raw := range payload.Summary {
			if name == "metrics" {
				summary.Metrics = raw
				continue
			}
			// section entries must be JSON objects; anything else is dropped
			var fields map[string]json.RawMessage
			if err := json.Unmarshal(raw, &fields); err != nil {
				h.logger.Warn().
					Str("deal_id", payload.DealID).
					Str("section", name).
					Err(err).
					Msg("Callback summary entry is not a JSON object, dropping")
				continue
			}
			summary.SetSection(name, raw)
		}
		if err := h.storage.SummaryStorage().UpsertSummary(ctx, summary); err != nil {
			h.logger.Error().Err(err).Str("deal_id", payload.DealID).Msg("Failed to upsert callback summary")
			WriteError(w, http.StatusInternalServerError, "Failed to store summary")
			return
		}
	}

	status := payload.Status
	if status == "" {
		status = string(models.RequestStatusCompleted)
	}
	report := &models.DealReport{
		DealID:    payload.DealID,
		RequestID: payload.RequestID,
		Status:    status,
		PDFURL:    payload.PDFURL,
	}
	if err := h.storage.SummaryStorage().UpsertDealReport(ctx, report); err != nil {
		h.logger.Error().Err(err).Str("deal_id", payload.DealID).Msg("Failed to upsert deal report")
		WriteError(w, http.StatusInternalServerError, "Failed to store deal report")
		return
	}

	h.logger.Info().
		Str("deal_id", payload.DealID).
		Str("status", status).
		Msg("Report callback processed")

	WriteSuccess(w, "Callback processed")
}

// loadRequest fetches a request and writes the error response on failure
func (h *ReportHandler) loadRequest(w http.ResponseWriter, r *http.Request, requestID string) (*models.AnalysisRequest, bool) {
	req, err := h.storage.RequestStorage().GetRequest(r.Context(), requestID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "Request not found")
			return nil, false
		}
		h.logger.Error().Err(err).Str("request_id", requestID).Msg("Failed to load request")
		WriteError(w, http.StatusInternalServerError, "Failed to load request")
		return nil, false
	}
	return req, true
}

// pathSegment extracts the path element between prefix and suffix,
// e.g. the id in /api/reports/{id}/generate
func pathSegment(path, prefix, suffix string) string {
	if !strings.HasPrefix(path, prefix) || !strings.HasSuffix(path, suffix) {
		return ""
	}
	segment := strings.TrimSuffix(strings.TrimPrefix(path, prefix), suffix)
	if strings.Contains(segment, "/") {
		return ""
	}
	return segment
}
