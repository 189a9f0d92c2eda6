package report

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/diligence/internal/models"
)

func sampleSections() []*models.ReportSection {
	sections := make([]*models.ReportSection, 0, len(models.ReportSectionSpecs))
	for _, spec := range models.ReportSectionSpecs {
		sections = append(sections, &models.ReportSection{
			RequestID: "req-1",
			Name:      spec.Name,
			Title:     spec.Title,
			Index:     spec.Index,
			Content:   "Content for " + spec.Name,
			CreatedAt: time.Now(),
		})
	}
	return sections
}

func TestSummarizeAllSections(t *testing.T) {
	mock := newMockLLM()
	summarizer, err := NewSummarizer(mock, fastRetryConfig(), arbor.NewLogger())
	require.NoError(t, err)

	summary, err := summarizer.Summarize(context.Background(), "req-1", "deal_req-1", sampleSections())
	require.NoError(t, err)

	assert.Equal(t, "deal_req-1", summary.DealID)
	assert.Equal(t, "req-1", summary.RequestID)
	assert.Len(t, summary.PresentSections(), len(models.ReportSectionSpecs))
	assert.NotEmpty(t, summary.Metrics)

	var fields map[string]string
	require.NoError(t, json.Unmarshal(summary.ExecutiveSummary, &fields))
	assert.Equal(t, "summary of overview", fields["overview"])
}

func TestSummarizeToleratesMalformedEntries(t *testing.T) {
	// market opportunity entry is a string instead of an object, and the
	// leadership entry is missing entirely
	obj := map[string]interface{}{
		models.SectionExecutiveSummary:  map[string]string{"overview": "good"},
		models.SectionMarketOpportunity: "not an object",
	}
	data, _ := json.Marshal(obj)

	mock := newMockLLM()
	mock.summaryResponse = string(data)

	summarizer, err := NewSummarizer(mock, fastRetryConfig(), arbor.NewLogger())
	require.NoError(t, err)

	summary, err := summarizer.Summarize(context.Background(), "req-1", "deal_req-1", sampleSections())
	require.NoError(t, err)

	assert.NotEmpty(t, summary.ExecutiveSummary)
	assert.Empty(t, summary.MarketOpportunity)
	assert.Empty(t, summary.LeadershipTeam)
}

func TestSummarizeRejectsNonJSONResponse(t *testing.T) {
	mock := newMockLLM()
	mock.summaryResponse = "I could not produce a summary."

	summarizer, err := NewSummarizer(mock, fastRetryConfig(), arbor.NewLogger())
	require.NoError(t, err)

	_, err = summarizer.Summarize(context.Background(), "req-1", "deal_req-1", sampleSections())
	require.Error(t, err)
}

func TestSummarizeRequiresSections(t *testing.T) {
	summarizer, err := NewSummarizer(newMockLLM(), nil, arbor.NewLogger())
	require.NoError(t, err)

	_, err = summarizer.Summarize(context.Background(), "req-1", "deal_req-1", nil)
	require.Error(t, err)
}

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"fenced", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"fenced with language tag", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"surrounding whitespace", "  {\"a\":1}  ", `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripCodeFences(tt.input))
		})
	}
}
