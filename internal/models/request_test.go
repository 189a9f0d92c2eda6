package models

import (
	"testing"
)

func TestRequestStatus_CanTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    RequestStatus
		to      RequestStatus
		allowed bool
	}{
		{"pending to processing", RequestStatusPending, RequestStatusProcessing, true},
		{"pending to completed", RequestStatusPending, RequestStatusCompleted, false},
		{"pending to failed", RequestStatusPending, RequestStatusFailed, false},
		{"processing to completed", RequestStatusProcessing, RequestStatusCompleted, true},
		{"processing to failed", RequestStatusProcessing, RequestStatusFailed, true},
		{"processing to pending", RequestStatusProcessing, RequestStatusPending, false},
		{"failed to pending retry reset", RequestStatusFailed, RequestStatusPending, true},
		{"failed to processing", RequestStatusFailed, RequestStatusProcessing, false},
		{"completed is immutable", RequestStatusCompleted, RequestStatusPending, false},
		{"completed to failed", RequestStatusCompleted, RequestStatusFailed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.CanTransition(tt.to); got != tt.allowed {
				t.Errorf("CanTransition(%s -> %s) = %v, want %v", tt.from, tt.to, got, tt.allowed)
			}
		})
	}
}

func TestRequestStatus_IsTerminal(t *testing.T) {
	if RequestStatusPending.IsTerminal() || RequestStatusProcessing.IsTerminal() {
		t.Error("pending and processing must not be terminal")
	}
	if !RequestStatusCompleted.IsTerminal() || !RequestStatusFailed.IsTerminal() {
		t.Error("completed and failed must be terminal")
	}
}

func TestAnalysisRequest_ProgressPercent(t *testing.T) {
	req := &AnalysisRequest{}
	if got := req.ProgressPercent(); got != 0 {
		t.Errorf("expected 0 progress for empty parameters, got %d", got)
	}

	// JSON round-trips store numbers as float64
	req.Parameters = map[string]interface{}{"progress_percent": float64(40)}
	if got := req.ProgressPercent(); got != 40 {
		t.Errorf("expected 40, got %d", got)
	}

	req.Parameters["progress_percent"] = 70
	if got := req.ProgressPercent(); got != 70 {
		t.Errorf("expected 70, got %d", got)
	}
}

func TestAnalysisRequest_DealID(t *testing.T) {
	req := &AnalysisRequest{ID: "abc-123"}
	if got := req.DealID(); got != "deal_abc-123" {
		t.Errorf("unexpected deal id: %s", got)
	}
}

func TestAnalysisRequest_PDFURL(t *testing.T) {
	req := &AnalysisRequest{}
	if got := req.PDFURL(); got != "" {
		t.Errorf("expected empty pdf url, got %s", got)
	}

	req.Parameters = map[string]interface{}{"pdf_url": "/artifacts/deal_abc.pdf"}
	if got := req.PDFURL(); got != "/artifacts/deal_abc.pdf" {
		t.Errorf("unexpected pdf url: %s", got)
	}
}
