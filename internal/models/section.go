package models

import (
	"sort"
	"time"
)

// Fixed section names for the investment readiness report.
// Every generated report is composed of exactly these seven sections.
const (
	SectionExecutiveSummary     = "executive_summary_investment_rationale"
	SectionMarketOpportunity    = "market_opportunity_competitive_landscape"
	SectionFinancialPerformance = "financial_performance_investment_readiness"
	SectionGoToMarket           = "go_to_market_strategy_customer_traction"
	SectionLeadershipTeam       = "leadership_team"
	SectionInvestorFit          = "investor_fit_exit_strategy_funding"
	SectionRecommendations      = "final_recommendations_next_steps"
)

// SectionSpec describes one of the seven fixed report sections: its stable
// name, display title, position in the rendered report, and the key set its
// structured summary entry must conform to.
type SectionSpec struct {
	Name        string
	Title       string
	Index       int
	SummaryKeys []string
}

// ReportSectionSpecs is the ordered table of the seven report sections.
// Index is the deterministic position in the rendered report, regardless of
// the order sections complete in.
var ReportSectionSpecs = []SectionSpec{
	{
		Name:        SectionExecutiveSummary,
		Title:       "Executive Summary & Investment Rationale",
		Index:       1,
		SummaryKeys: []string{"overview", "key_metrics", "strengths", "challenges"},
	},
	{
		Name:        SectionMarketOpportunity,
		Title:       "Market Opportunity & Competitive Landscape",
		Index:       2,
		SummaryKeys: []string{"market_overview", "market_size", "competitive_positioning", "key_takeaways"},
	},
	{
		Name:        SectionFinancialPerformance,
		Title:       "Financial Performance & Investment Readiness",
		Index:       3,
		SummaryKeys: []string{"revenue_overview", "funding_status", "financial_risks", "risk_assessment"},
	},
	{
		Name:        SectionGoToMarket,
		Title:       "Go-To-Market (GTM) Strategy & Customer Traction",
		Index:       4,
		SummaryKeys: []string{"acquisition_strategy", "retention_metrics", "expansion_plan", "performance_assessment"},
	},
	{
		Name:        SectionLeadershipTeam,
		Title:       "Leadership & Team",
		Index:       5,
		SummaryKeys: []string{"leadership_expertise", "organizational_structure", "hiring_roadmap", "stability_assessment"},
	},
	{
		Name:        SectionInvestorFit,
		Title:       "Investor Fit, Exit Strategy & Funding Narrative",
		Index:       6,
		SummaryKeys: []string{"investor_profile", "exit_strategy", "funding_narrative", "fit_assessment"},
	},
	{
		Name:        SectionRecommendations,
		Title:       "Final Recommendations & Next Steps",
		Index:       7,
		SummaryKeys: []string{"key_strengths", "key_risks", "action_plan", "final_recommendation"},
	},
}

// SectionSpecByName returns the spec for a section name, or nil when the name
// is not one of the seven fixed sections.
func SectionSpecByName(name string) *SectionSpec {
	for i := range ReportSectionSpecs {
		if ReportSectionSpecs[i].Name == name {
			return &ReportSectionSpecs[i]
		}
	}
	return nil
}

// SectionNames returns the seven section names in report order
func SectionNames() []string {
	names := make([]string, len(ReportSectionSpecs))
	for i, spec := range ReportSectionSpecs {
		names[i] = spec.Name
	}
	return names
}

// ReportSection holds the generated markdown for one section of a report.
// Unique per (request, name); regeneration overwrites by name.
type ReportSection struct {
	// Key is "<request_id>/<section_name>", giving upsert-by-name semantics
	Key       string    `json:"-" badgerhold:"key"`
	RequestID string    `json:"request_id" badgerholdIndex:"RequestID"`
	Name      string    `json:"name"`
	Title     string    `json:"title"`
	Index     int       `json:"index"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// SectionKey builds the storage key for a (request, section name) pair
func SectionKey(requestID, name string) string {
	return requestID + "/" + name
}

// SortSectionsByIndex orders sections by their fixed report index
func SortSectionsByIndex(sections []*ReportSection) {
	sort.Slice(sections, func(i, j int) bool {
		return sections[i].Index < sections[j].Index
	})
}
