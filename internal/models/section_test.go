package models

import (
	"testing"
)

func TestReportSectionSpecs_FixedTable(t *testing.T) {
	if len(ReportSectionSpecs) != 7 {
		t.Fatalf("expected 7 sections, got %d", len(ReportSectionSpecs))
	}

	seen := make(map[string]bool)
	for i, spec := range ReportSectionSpecs {
		if spec.Index != i+1 {
			t.Errorf("section %s: index %d at position %d", spec.Name, spec.Index, i)
		}
		if seen[spec.Name] {
			t.Errorf("duplicate section name: %s", spec.Name)
		}
		seen[spec.Name] = true
		if spec.Title == "" {
			t.Errorf("section %s has no title", spec.Name)
		}
		if len(spec.SummaryKeys) == 0 {
			t.Errorf("section %s has no summary key set", spec.Name)
		}
	}
}

func TestSectionSpecByName(t *testing.T) {
	spec := SectionSpecByName(SectionLeadershipTeam)
	if spec == nil {
		t.Fatal("expected spec for leadership_team")
	}
	if spec.Index != 5 {
		t.Errorf("leadership_team index = %d, want 5", spec.Index)
	}

	if SectionSpecByName("unknown_section") != nil {
		t.Error("expected nil for unknown section name")
	}
}

func TestSortSectionsByIndex(t *testing.T) {
	sections := []*ReportSection{
		{Name: SectionRecommendations, Index: 7},
		{Name: SectionExecutiveSummary, Index: 1},
		{Name: SectionGoToMarket, Index: 4},
	}

	SortSectionsByIndex(sections)

	want := []string{SectionExecutiveSummary, SectionGoToMarket, SectionRecommendations}
	for i, name := range want {
		if sections[i].Name != name {
			t.Errorf("position %d: got %s, want %s", i, sections[i].Name, name)
		}
	}
}

func TestSectionKey(t *testing.T) {
	key := SectionKey("req-1", SectionLeadershipTeam)
	if key != "req-1/leadership_team" {
		t.Errorf("unexpected section key: %s", key)
	}
}
