// -----------------------------------------------------------------------
// Section Agent - Generates one report section via the LLM service
// -----------------------------------------------------------------------

package report

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/diligence/internal/common"
	"github.com/ternarybob/diligence/internal/interfaces"
	"github.com/ternarybob/diligence/internal/models"
	"github.com/ternarybob/diligence/internal/services/llm"
)

// SectionAgent generates the markdown content for a single report section.
// Each section has its own agent instance; agents are independent and safe
// to run concurrently.
type SectionAgent struct {
	spec       models.SectionSpec
	llmService interfaces.LLMService
	retry      *llm.RetryConfig
	logger     arbor.ILogger
}

// NewSectionAgent creates an agent for the given section spec
func NewSectionAgent(spec models.SectionSpec, llmService interfaces.LLMService, retry *llm.RetryConfig, logger arbor.ILogger) (*SectionAgent, error) {
	if llmService == nil {
		return nil, fmt.Errorf("llm service is required")
	}
	if _, ok := sectionTemplates[spec.Name]; !ok {
		return nil, fmt.Errorf("no prompt template for section %s", spec.Name)
	}
	if retry == nil {
		retry = llm.NewDefaultRetryConfig()
	}
	if logger == nil {
		logger = common.GetLogger()
	}

	return &SectionAgent{
		spec:       spec,
		llmService: llmService,
		retry:      retry,
		logger:     logger,
	}, nil
}

// Spec returns the section spec this agent generates
func (a *SectionAgent) Spec() models.SectionSpec {
	return a.spec
}

// Generate produces the section markdown from the prompt context.
// Transient LLM failures are retried with exponential backoff; exhausting
// retries or hitting a non-transient error fails only this section.
func (a *SectionAgent) Generate(ctx context.Context, pctx PromptContext) (string, error) {
	messages := []interfaces.Message{
		{Role: "system", Content: sectionWriterSystem},
		{Role: "user", Content: renderTemplate(sectionTemplates[a.spec.Name], pctx)},
	}

	content, err := chatWithRetry(ctx, a.llmService, a.retry, messages, a.logger, a.spec.Name)
	if err != nil {
		return "", fmt.Errorf("section %s generation failed: %w", a.spec.Name, err)
	}
	return content, nil
}

// ResearchAgent runs the optional pre-pass that gathers factual details
// about the company before the section agents execute. Its output is
// appended to the retrieval context fed to every section.
type ResearchAgent struct {
	llmService interfaces.LLMService
	retry      *llm.RetryConfig
	logger     arbor.ILogger
}

// NewResearchAgent creates the research pre-pass agent
func NewResearchAgent(llmService interfaces.LLMService, retry *llm.RetryConfig, logger arbor.ILogger) (*ResearchAgent, error) {
	if llmService == nil {
		return nil, fmt.Errorf("llm service is required")
	}
	if retry == nil {
		retry = llm.NewDefaultRetryConfig()
	}
	if logger == nil {
		logger = common.GetLogger()
	}

	return &ResearchAgent{
		llmService: llmService,
		retry:      retry,
		logger:     logger,
	}, nil
}

// Research gathers factual company details for the given prompt context
func (a *ResearchAgent) Research(ctx context.Context, pctx PromptContext) (string, error) {
	messages := []interfaces.Message{
		{Role: "system", Content: researcherSystem},
		{Role: "user", Content: renderTemplate(researcherTemplate, pctx)},
	}

	content, err := chatWithRetry(ctx, a.llmService, a.retry, messages, a.logger, "research")
	if err != nil {
		return "", fmt.Errorf("research pass failed: %w", err)
	}
	return content, nil
}

// chatWithRetry calls the LLM with bounded retries for transient failures.
// Non-transient errors return immediately.
func chatWithRetry(ctx context.Context, llmService interfaces.LLMService, retry *llm.RetryConfig, messages []interfaces.Message, logger arbor.ILogger, label string) (string, error) {
	var lastErr error

	for attempt := 0; attempt <= retry.MaxRetries; attempt++ {
		if attempt > 0 {
			apiDelay := llm.ExtractRetryDelay(lastErr)
			backoff := retry.CalculateBackoff(attempt, apiDelay)
			logger.Warn().
				Str("agent", label).
				Int("attempt", attempt).
				Dur("backoff", backoff).
				Err(lastErr).
				Msg("Retrying LLM call after transient failure")

			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		content, err := llmService.Chat(ctx, messages)
		if err == nil {
			return content, nil
		}
		if !llm.IsTransientError(err) {
			return "", err
		}
		lastErr = err
	}

	return "", fmt.Errorf("retries exhausted after %d attempts: %w", retry.MaxRetries+1, lastErr)
}
