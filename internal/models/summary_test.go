package models

import (
	"encoding/json"
	"testing"
)

func TestStructuredSummary_SetAndGetSection(t *testing.T) {
	s := &StructuredSummary{DealID: "deal_1"}

	raw := json.RawMessage(`{"overview":"a SaaS company"}`)
	s.SetSection(SectionExecutiveSummary, raw)

	got := s.Section(SectionExecutiveSummary)
	if string(got) != string(raw) {
		t.Errorf("round-trip mismatch: %s", got)
	}

	if s.Section(SectionMarketOpportunity) != nil {
		t.Error("absent section must return nil")
	}

	// Unknown names are ignored, not stored
	s.SetSection("bogus", raw)
	if s.Section("bogus") != nil {
		t.Error("unknown section name must not be stored")
	}
}

func TestStructuredSummary_PresentSections(t *testing.T) {
	s := &StructuredSummary{DealID: "deal_1"}
	s.SetSection(SectionLeadershipTeam, json.RawMessage(`{}`))
	s.SetSection(SectionExecutiveSummary, json.RawMessage(`{}`))

	present := s.PresentSections()
	if len(present) != 2 {
		t.Fatalf("expected 2 present sections, got %d", len(present))
	}
	// Report order, not insertion order
	if present[0] != SectionExecutiveSummary || present[1] != SectionLeadershipTeam {
		t.Errorf("unexpected order: %v", present)
	}
}

func TestStructuredSummary_Merge(t *testing.T) {
	existing := &StructuredSummary{DealID: "deal_1", RequestID: "req-1"}
	existing.SetSection(SectionExecutiveSummary, json.RawMessage(`{"overview":"v1"}`))
	existing.SetSection(SectionLeadershipTeam, json.RawMessage(`{"leadership_expertise":"strong"}`))

	incoming := &StructuredSummary{DealID: "deal_1"}
	incoming.SetSection(SectionExecutiveSummary, json.RawMessage(`{"overview":"v2"}`))

	existing.Merge(incoming)

	// Incoming section overwrites
	if string(existing.ExecutiveSummary) != `{"overview":"v2"}` {
		t.Errorf("executive summary not overwritten: %s", existing.ExecutiveSummary)
	}
	// Sections absent from the incoming payload survive
	if string(existing.LeadershipTeam) != `{"leadership_expertise":"strong"}` {
		t.Errorf("leadership team clobbered: %s", existing.LeadershipTeam)
	}
	if existing.RequestID != "req-1" {
		t.Errorf("request id clobbered: %s", existing.RequestID)
	}

	// Applying the same payload twice converges to the same state
	before := string(existing.ExecutiveSummary)
	existing.Merge(incoming)
	if string(existing.ExecutiveSummary) != before {
		t.Error("merge is not idempotent")
	}

	existing.Merge(nil)
}
