package badger

import (
	"context"
	"testing"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/diligence/internal/models"
)

func TestSectionUpsertOverwritesByName(t *testing.T) {
	db := newTestDB(t)
	storage := NewSectionStorage(db, arbor.NewLogger())
	ctx := context.Background()

	section := &models.ReportSection{
		RequestID: "req-1",
		Name:      models.SectionLeadershipTeam,
		Title:     "Leadership & Team",
		Index:     5,
		Content:   "first draft",
	}
	if err := storage.UpsertSection(ctx, section); err != nil {
		t.Fatalf("Failed to upsert section: %v", err)
	}

	section.Content = "regenerated"
	if err := storage.UpsertSection(ctx, section); err != nil {
		t.Fatalf("Failed to re-upsert section: %v", err)
	}

	sections, err := storage.ListByRequest(ctx, "req-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(sections) != 1 {
		t.Fatalf("Expected 1 section after overwrite, got %d", len(sections))
	}
	if sections[0].Content != "regenerated" {
		t.Errorf("Expected regenerated content, got %q", sections[0].Content)
	}
}

func TestSectionListSortedByIndex(t *testing.T) {
	db := newTestDB(t)
	storage := NewSectionStorage(db, arbor.NewLogger())
	ctx := context.Background()

	// Insert out of report order
	for _, spec := range []models.SectionSpec{
		models.ReportSectionSpecs[4],
		models.ReportSectionSpecs[0],
		models.ReportSectionSpecs[6],
		models.ReportSectionSpecs[2],
	} {
		err := storage.UpsertSection(ctx, &models.ReportSection{
			RequestID: "req-2",
			Name:      spec.Name,
			Title:     spec.Title,
			Index:     spec.Index,
			Content:   "content",
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	sections, err := storage.ListByRequest(ctx, "req-2")
	if err != nil {
		t.Fatal(err)
	}
	if len(sections) != 4 {
		t.Fatalf("Expected 4 sections, got %d", len(sections))
	}
	for i := 1; i < len(sections); i++ {
		if sections[i-1].Index >= sections[i].Index {
			t.Errorf("Sections not sorted by index: %d before %d", sections[i-1].Index, sections[i].Index)
		}
	}
}

func TestSectionIsolationBetweenRequests(t *testing.T) {
	db := newTestDB(t)
	storage := NewSectionStorage(db, arbor.NewLogger())
	ctx := context.Background()

	for _, requestID := range []string{"req-a", "req-b"} {
		err := storage.UpsertSection(ctx, &models.ReportSection{
			RequestID: requestID,
			Name:      models.SectionExecutiveSummary,
			Title:     "Executive Summary & Investment Rationale",
			Index:     1,
			Content:   "content for " + requestID,
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	count, err := storage.CountByRequest(ctx, "req-a")
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("Expected 1 section for req-a, got %d", count)
	}

	if err := storage.DeleteByRequest(ctx, "req-a"); err != nil {
		t.Fatal(err)
	}

	remaining, err := storage.ListByRequest(ctx, "req-b")
	if err != nil {
		t.Fatal(err)
	}
	if len(remaining) != 1 {
		t.Errorf("Delete leaked across requests: req-b has %d sections", len(remaining))
	}
}
