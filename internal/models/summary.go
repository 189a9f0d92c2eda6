package models

import (
	"encoding/json"
	"time"
)

// StructuredSummary is the JSON-shaped distillation of a completed report,
// organized per section for direct consumption by a rendering client.
//
// Keyed by deal id. Each field holds the raw JSON object produced by the
// summarization pass for that section; a nil field means that section's
// summary has not been generated (or failed to parse, which is tolerated).
type StructuredSummary struct {
	DealID    string `json:"deal_id" badgerhold:"key"`
	RequestID string `json:"request_id" badgerholdIndex:"RequestID"`

	ExecutiveSummary     json.RawMessage `json:"executive_summary_investment_rationale,omitempty"`
	MarketOpportunity    json.RawMessage `json:"market_opportunity_competitive_landscape,omitempty"`
	FinancialPerformance json.RawMessage `json:"financial_performance_investment_readiness,omitempty"`
	GoToMarket           json.RawMessage `json:"go_to_market_strategy_customer_traction,omitempty"`
	LeadershipTeam       json.RawMessage `json:"leadership_team,omitempty"`
	InvestorFit          json.RawMessage `json:"investor_fit_exit_strategy_funding,omitempty"`
	Recommendations      json.RawMessage `json:"final_recommendations_next_steps,omitempty"`

	// Metrics holds free-form headline metrics extracted alongside the
	// per-section summaries.
	Metrics   json.RawMessage `json:"metrics,omitempty"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// SetSection stores a section's summary JSON by section name.
// Unknown names are ignored.
func (s *StructuredSummary) SetSection(name string, raw json.RawMessage) {
	switch name {
	case SectionExecutiveSummary:
		s.ExecutiveSummary = raw
	case SectionMarketOpportunity:
		s.MarketOpportunity = raw
	case SectionFinancialPerformance:
		s.FinancialPerformance = raw
	case SectionGoToMarket:
		s.GoToMarket = raw
	case SectionLeadershipTeam:
		s.LeadershipTeam = raw
	case SectionInvestorFit:
		s.InvestorFit = raw
	case SectionRecommendations:
		s.Recommendations = raw
	}
}

// Section returns a section's summary JSON by section name, nil when absent
func (s *StructuredSummary) Section(name string) json.RawMessage {
	switch name {
	case SectionExecutiveSummary:
		return s.ExecutiveSummary
	case SectionMarketOpportunity:
		return s.MarketOpportunity
	case SectionFinancialPerformance:
		return s.FinancialPerformance
	case SectionGoToMarket:
		return s.GoToMarket
	case SectionLeadershipTeam:
		return s.LeadershipTeam
	case SectionInvestorFit:
		return s.InvestorFit
	case SectionRecommendations:
		return s.Recommendations
	default:
		return nil
	}
}

// PresentSections returns the names of sections with a stored summary,
// in report order.
func (s *StructuredSummary) PresentSections() []string {
	var present []string
	for _, spec := range ReportSectionSpecs {
		if len(s.Section(spec.Name)) > 0 {
			present = append(present, spec.Name)
		}
	}
	return present
}

// Merge copies non-empty fields from other into s, leaving existing fields
// untouched when other has no value for them. Used for idempotent callback
// upserts where duplicate deliveries must converge to the same state.
func (s *StructuredSummary) Merge(other *StructuredSummary) {
	if other == nil {
		return
	}
	for _, spec := range ReportSectionSpecs {
		if raw := other.Section(spec.Name); len(raw) > 0 {
			s.SetSection(spec.Name, raw)
		}
	}
	if len(other.Metrics) > 0 {
		s.Metrics = other.Metrics
	}
	if other.RequestID != "" {
		s.RequestID = other.RequestID
	}
}

// DealReport is the record written when a report's artifacts are published,
// keyed by deal id. Duplicate-safe: re-publishing the same deal merges
// into the stored record.
type DealReport struct {
	DealID      string    `json:"deal_id" badgerhold:"key"`
	RequestID   string    `json:"request_id"`
	Title       string    `json:"title"`
	Status      string    `json:"status"`
	PDFURL      string    `json:"pdf_url,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}

// Merge applies the non-empty fields of other onto the record. Fields the
// delivery did not carry keep their stored values, and PublishedAt always
// keeps the original publish time.
func (r *DealReport) Merge(other *DealReport) {
	if other.RequestID != "" {
		r.RequestID = other.RequestID
	}
	if other.Title != "" {
		r.Title = other.Title
	}
	if other.Status != "" {
		r.Status = other.Status
	}
	if other.PDFURL != "" {
		r.PDFURL = other.PDFURL
	}
}
