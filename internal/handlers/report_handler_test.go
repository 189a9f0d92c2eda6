package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/diligence/internal/common"
	"github.com/ternarybob/diligence/internal/interfaces"
	"github.com/ternarybob/diligence/internal/models"
	badgerstorage "github.com/ternarybob/diligence/internal/storage/badger"
)

// stubRunner records run invocations without generating anything
type stubRunner struct {
	mu   sync.Mutex
	runs []string
	err  error
}

func (s *stubRunner) Run(ctx context.Context, requestID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, requestID)
	return s.err
}

func (s *stubRunner) runCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.runs)
}

func newTestHandler(t *testing.T) (*ReportHandler, interfaces.StorageManager, *stubRunner) {
	t.Helper()

	storage, err := badgerstorage.NewManager(arbor.NewLogger(), &common.BadgerConfig{Path: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { storage.Close() })

	runner := &stubRunner{}
	handler := NewReportHandler(storage, runner, arbor.NewLogger())
	return handler, storage, runner
}

func postJSON(t *testing.T, handlerFunc http.HandlerFunc, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handlerFunc(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func validCreatePayload() CreateRequestPayload {
	return CreateRequestPayload{
		Email:          "jordan@example.com",
		RequestorName:  "Jordan Blake",
		FounderCompany: "Acme Robotics",
		FounderName:    "Dana Smith",
		Industry:       "Industrial Automation",
		FundingStage:   "Seed",
	}
}

func TestCreateHandler(t *testing.T) {
	handler, storage, _ := newTestHandler(t)

	rec := postJSON(t, handler.CreateHandler, "/api/reports", validCreatePayload())
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decodeBody(t, rec)
	requestID, _ := body["request_id"].(string)
	require.NotEmpty(t, requestID)
	assert.Equal(t, "deal_"+requestID, body["deal_id"])
	assert.Equal(t, "pending", body["status"])

	stored, err := storage.RequestStorage().GetRequest(context.Background(), requestID)
	require.NoError(t, err)
	assert.Equal(t, "Acme Robotics", stored.FounderCompany)
}

func TestCreateHandlerValidation(t *testing.T) {
	handler, _, _ := newTestHandler(t)

	tests := []struct {
		name    string
		payload CreateRequestPayload
	}{
		{"missing email", CreateRequestPayload{FounderCompany: "Acme"}},
		{"bad email", CreateRequestPayload{Email: "not-an-email", FounderCompany: "Acme"}},
		{"missing company", CreateRequestPayload{Email: "a@example.com"}},
		{"bad pitch deck url", func() CreateRequestPayload {
			p := validCreatePayload()
			p.PitchDeckURL = "not a url"
			return p
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, handler.CreateHandler, "/api/reports", tt.payload)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func seedHandlerRequest(t *testing.T, storage interfaces.StorageManager, id string, status models.RequestStatus) {
	t.Helper()
	ctx := context.Background()

	req := &models.AnalysisRequest{
		ID:             id,
		Email:          "a@example.com",
		FounderCompany: "Acme Robotics",
		Status:         models.RequestStatusPending,
	}
	require.NoError(t, storage.RequestStorage().SaveRequest(ctx, req))

	switch status {
	case models.RequestStatusProcessing:
		require.NoError(t, storage.RequestStorage().UpdateStatus(ctx, id, models.RequestStatusProcessing))
	case models.RequestStatusCompleted:
		require.NoError(t, storage.RequestStorage().UpdateStatus(ctx, id, models.RequestStatusProcessing))
		require.NoError(t, storage.RequestStorage().UpdateStatus(ctx, id, models.RequestStatusCompleted))
	case models.RequestStatusFailed:
		require.NoError(t, storage.RequestStorage().UpdateStatus(ctx, id, models.RequestStatusProcessing))
		require.NoError(t, storage.RequestStorage().UpdateStatus(ctx, id, models.RequestStatusFailed))
	}
}

func TestGenerateHandlerStartsRun(t *testing.T) {
	handler, storage, runner := newTestHandler(t)
	seedHandlerRequest(t, storage, "req-1", models.RequestStatusPending)

	req := httptest.NewRequest(http.MethodPost, "/api/reports/req-1/generate", nil)
	rec := httptest.NewRecorder()
	handler.GenerateHandler(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)

	deadline := time.Now().Add(time.Second)
	for runner.runCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	assert.Equal(t, 1, runner.runCount())
}

func TestGenerateHandlerConflicts(t *testing.T) {
	handler, storage, runner := newTestHandler(t)
	seedHandlerRequest(t, storage, "req-busy", models.RequestStatusProcessing)
	seedHandlerRequest(t, storage, "req-done", models.RequestStatusCompleted)

	for _, id := range []string{"req-busy", "req-done"} {
		req := httptest.NewRequest(http.MethodPost, "/api/reports/"+id+"/generate", nil)
		rec := httptest.NewRecorder()
		handler.GenerateHandler(rec, req)
		assert.Equal(t, http.StatusConflict, rec.Code, id)
	}
	assert.Equal(t, 0, runner.runCount())
}

func TestGenerateHandlerNotFound(t *testing.T) {
	handler, _, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/reports/missing/generate", nil)
	rec := httptest.NewRecorder()
	handler.GenerateHandler(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatusHandler(t *testing.T) {
	handler, storage, _ := newTestHandler(t)
	seedHandlerRequest(t, storage, "req-st", models.RequestStatusProcessing)
	require.NoError(t, storage.RequestStorage().AppendParameters(context.Background(), "req-st",
		map[string]interface{}{"progress_percent": 40}))

	req := httptest.NewRequest(http.MethodGet, "/api/reports/req-st/status", nil)
	rec := httptest.NewRecorder()
	handler.StatusHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "processing", body["status"])
	assert.Equal(t, float64(40), body["progress_percent"])
}

func TestContentHandlerReturnsOrderedSections(t *testing.T) {
	handler, storage, _ := newTestHandler(t)
	seedHandlerRequest(t, storage, "req-ct", models.RequestStatusCompleted)

	ctx := context.Background()
	// store out of order, expect report order back
	for _, idx := range []int{5, 2, 7} {
		spec := models.ReportSectionSpecs[idx-1]
		require.NoError(t, storage.SectionStorage().UpsertSection(ctx, &models.ReportSection{
			RequestID: "req-ct",
			Name:      spec.Name,
			Title:     spec.Title,
			Index:     spec.Index,
			Content:   "content",
		}))
	}

	req := httptest.NewRequest(http.MethodGet, "/api/reports/req-ct/content", nil)
	rec := httptest.NewRecorder()
	handler.ContentHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Sections []models.ReportSection `json:"sections"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Sections, 3)
	assert.Equal(t, []int{2, 5, 7}, []int{body.Sections[0].Index, body.Sections[1].Index, body.Sections[2].Index})
}

func TestSummaryHandlerNotAvailable(t *testing.T) {
	handler, storage, _ := newTestHandler(t)
	seedHandlerRequest(t, storage, "req-sum", models.RequestStatusCompleted)

	req := httptest.NewRequest(http.MethodGet, "/api/reports/req-sum/summary", nil)
	rec := httptest.NewRecorder()
	handler.SummaryHandler(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCallbackHandlerIdempotent(t *testing.T) {
	handler, storage, _ := newTestHandler(t)
	ctx := context.Background()

	// a previously published report for the same deal must survive callbacks
	require.NoError(t, storage.SummaryStorage().UpsertDealReport(ctx, &models.DealReport{
		DealID: "deal_cb",
		Title:  "Acme Investment Readiness Report",
		Status: "completed",
	}))
	published, err := storage.SummaryStorage().GetDealReport(ctx, "deal_cb")
	require.NoError(t, err)
	publishedAt := published.PublishedAt
	require.False(t, publishedAt.IsZero())

	payload := CallbackPayload{
		DealID:    "deal_cb",
		RequestID: "req-cb",
		PDFURL:    "/artifacts/deal_cb/report.pdf",
		Summary: map[string]json.RawMessage{
			models.SectionExecutiveSummary: json.RawMessage(`{"overview":"solid"}`),
			"metrics":                      json.RawMessage(`{"arr":"unknown"}`),
		},
	}

	// duplicate deliveries converge to the same stored state
	for i := 0; i < 2; i++ {
		rec := postJSON(t, handler.CallbackHandler, "/api/callbacks/report", payload)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	summary, err := storage.SummaryStorage().GetSummary(ctx, "deal_cb")
	require.NoError(t, err)
	assert.JSONEq(t, `{"overview":"solid"}`, string(summary.ExecutiveSummary))
	assert.JSONEq(t, `{"arr":"unknown"}`, string(summary.Metrics))

	report, err := storage.SummaryStorage().GetDealReport(ctx, "deal_cb")
	require.NoError(t, err)
	assert.Equal(t, "/artifacts/deal_cb/report.pdf", report.PDFURL)
	assert.Equal(t, "completed", report.Status)
	assert.Equal(t, "req-cb", report.RequestID)
	assert.Equal(t, "Acme Investment Readiness Report", report.Title)
	assert.True(t, report.PublishedAt.Equal(publishedAt))
}

func TestCallbackHandlerDropsNonObjectSummaryEntries(t *testing.T) {
	handler, storage, _ := newTestHandler(t)

	payload := CallbackPayload{
		DealID: "deal_cb_shape",
		Summary: map[string]json.RawMessage{
			models.SectionExecutiveSummary:  json.RawMessage(`{"overview":"solid"}`),
			models.SectionMarketOpportunity: json.RawMessage(`"just a string"`),
		},
	}

	rec := postJSON(t, handler.CallbackHandler, "/api/callbacks/report", payload)
	require.Equal(t, http.StatusOK, rec.Code)

	summary, err := storage.SummaryStorage().GetSummary(context.Background(), "deal_cb_shape")
	require.NoError(t, err)
	assert.JSONEq(t, `{"overview":"solid"}`, string(summary.ExecutiveSummary))
	assert.Empty(t, summary.MarketOpportunity)
}

func TestCallbackHandlerRequiresDealID(t *testing.T) {
	handler, _, _ := newTestHandler(t)

	rec := postJSON(t, handler.CallbackHandler, "/api/callbacks/report", CallbackPayload{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListHandlerFiltersByStatus(t *testing.T) {
	handler, storage, _ := newTestHandler(t)
	seedHandlerRequest(t, storage, "req-a", models.RequestStatusPending)
	seedHandlerRequest(t, storage, "req-b", models.RequestStatusCompleted)

	req := httptest.NewRequest(http.MethodGet, "/api/reports?status=completed", nil)
	rec := httptest.NewRecorder()
	handler.ListHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Requests []models.AnalysisRequest `json:"requests"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Requests, 1)
	assert.Equal(t, "req-b", body.Requests[0].ID)
}

func TestPathSegment(t *testing.T) {
	assert.Equal(t, "abc", pathSegment("/api/reports/abc/status", "/api/reports/", "/status"))
	assert.Equal(t, "", pathSegment("/api/reports/abc/extra/status", "/api/reports/", "/status"))
	assert.Equal(t, "", pathSegment("/api/other/abc/status", "/api/reports/", "/status"))
}
