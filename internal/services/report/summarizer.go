// -----------------------------------------------------------------------
// Summarizer - Distills generated sections into a structured JSON summary
// -----------------------------------------------------------------------

package report

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/diligence/internal/common"
	"github.com/ternarybob/diligence/internal/interfaces"
	"github.com/ternarybob/diligence/internal/models"
	"github.com/ternarybob/diligence/internal/services/llm"
)

// Summarizer produces the structured per-section summary from a completed
// report's markdown sections in a single LLM pass.
//
// Parsing is tolerant per field: a section whose summary entry is missing or
// malformed is logged and left absent, and never fails the whole summary.
type Summarizer struct {
	llmService interfaces.LLMService
	retry      *llm.RetryConfig
	logger     arbor.ILogger
}

// NewSummarizer creates the structured summary pass
func NewSummarizer(llmService interfaces.LLMService, retry *llm.RetryConfig, logger arbor.ILogger) (*Summarizer, error) {
	if llmService == nil {
		return nil, fmt.Errorf("llm service is required")
	}
	if retry == nil {
		retry = llm.NewDefaultRetryConfig()
	}
	if logger == nil {
		logger = common.GetLogger()
	}

	return &Summarizer{
		llmService: llmService,
		retry:      retry,
		logger:     logger,
	}, nil
}

// Summarize runs the extraction pass over the given sections and returns the
// structured summary keyed by deal id. Sections the LLM fails to summarize
// cleanly are omitted from the result.
func (s *Summarizer) Summarize(ctx context.Context, requestID, dealID string, sections []*models.ReportSection) (*models.StructuredSummary, error) {
	if len(sections) == 0 {
		return nil, fmt.Errorf("no sections to summarize")
	}

	messages := []interfaces.Message{
		{Role: "system", Content: summarizerSystem},
		{Role: "user", Content: buildSummarizerPrompt(sections)},
	}

	raw, err := chatWithRetry(ctx, s.llmService, s.retry, messages, s.logger, "summarizer")
	if err != nil {
		return nil, fmt.Errorf("summary pass failed: %w", err)
	}

	parsed := map[string]json.RawMessage{}
	if err := json.Unmarshal([]byte(stripCodeFences(raw)), &parsed); err != nil {
		return nil, fmt.Errorf("summary response is not a JSON object: %w", err)
	}

	summary := &models.StructuredSummary{
		DealID:    dealID,
		RequestID: requestID,
		UpdatedAt: time.Now(),
	}

	for _, section := range sections {
		spec := models.SectionSpecByName(section.Name)
		if spec == nil {
			continue
		}
		entry, ok := parsed[spec.Name]
		if !ok {
			s.logger.Warn().
				Str("request_id", requestID).
				Str("section", spec.Name).
				Msg("Summary response missing section entry")
			continue
		}
		// entry must be a JSON object; anything else is dropped
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(entry, &fields); err != nil {
			s.logger.Warn().
				Str("request_id", requestID).
				Str("section", spec.Name).
				Err(err).
				Msg("Summary entry is not a JSON object, dropping")
			continue
		}
		summary.SetSection(spec.Name, entry)
	}

	if metrics, ok := parsed["metrics"]; ok && json.Valid(metrics) {
		summary.Metrics = metrics
	}

	return summary, nil
}

// buildSummarizerPrompt describes the required JSON shape and appends the
// section texts to extract from
func buildSummarizerPrompt(sections []*models.ReportSection) string {
	var sb strings.Builder
	sb.WriteString("Extract a structured summary from the investment readiness report sections below.\n")
	sb.WriteString("Return a single JSON object with one entry per section, keyed exactly as follows:\n\n")

	for _, section := range sections {
		spec := models.SectionSpecByName(section.Name)
		if spec == nil {
			continue
		}
		sb.WriteString(fmt.Sprintf("- %q: object with string fields %s\n",
			spec.Name, strings.Join(quoteAll(spec.SummaryKeys), ", ")))
	}

	sb.WriteString("- \"metrics\": object with any headline numbers found (revenue, growth rate, funding raised)\n\n")
	sb.WriteString("Rules:\n")
	sb.WriteString("- Each field is a concise plain-text summary, no markdown.\n")
	sb.WriteString("- Where the report says '" + missingDataInstruction + "', use \"unknown\".\n")
	sb.WriteString("- Return ONLY the JSON object, no code fences or commentary.\n\n")
	sb.WriteString("Report Sections:\n\n")

	for _, section := range sections {
		sb.WriteString(fmt.Sprintf("SECTION %d: %s\n%s\n\n", section.Index, section.Title, section.Content))
	}

	return sb.String()
}

func quoteAll(keys []string) []string {
	quoted := make([]string, len(keys))
	for i, k := range keys {
		quoted[i] = fmt.Sprintf("%q", k)
	}
	return quoted
}

// stripCodeFences removes a surrounding markdown code fence from an LLM
// response, tolerating a language tag after the opening fence
func stripCodeFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.Index(trimmed, "\n"); idx >= 0 {
		trimmed = trimmed[idx+1:]
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
