// -----------------------------------------------------------------------
// Report Orchestrator - Drives a full report generation run
// -----------------------------------------------------------------------

package report

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/diligence/internal/common"
	"github.com/ternarybob/diligence/internal/interfaces"
	"github.com/ternarybob/diligence/internal/models"
	"github.com/ternarybob/diligence/internal/services/llm"
)

// Progress is reported in ten coarse steps: context assembly, one per
// section, the summary pass, and artifact publishing.
const (
	progressContext  = 10
	progressPerStep  = 10
	progressSummary  = 90
	progressComplete = 100
)

// Orchestrator runs the end-to-end report generation pipeline for a
// request: claim the request, assemble retrieval context, fan out the
// section agents, persist sections as they land, run the summary pass,
// publish the PDF artifact, and record the terminal status.
//
// A request is claimed with a first-call-wins compare-and-set from pending
// to processing, so concurrent generate calls for the same request resolve
// to exactly one run.
type Orchestrator struct {
	config      *common.Config
	storage     interfaces.StorageManager
	contextSvc  interfaces.ContextService
	pdfService  interfaces.PDFService
	artifacts   interfaces.ArtifactService
	notifier    interfaces.NotifyService
	agents      []*SectionAgent
	researcher  *ResearchAgent
	summarizer  *Summarizer
	minSections int
	logger      arbor.ILogger
}

// NewOrchestrator wires the pipeline from its service dependencies.
// The artifacts and notifier services are optional; when nil the
// corresponding pipeline stage is skipped.
func NewOrchestrator(config *common.Config, storage interfaces.StorageManager, llmService interfaces.LLMService,
	contextSvc interfaces.ContextService, pdfService interfaces.PDFService, artifacts interfaces.ArtifactService,
	notifier interfaces.NotifyService, logger arbor.ILogger) (*Orchestrator, error) {

	if config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if storage == nil {
		return nil, fmt.Errorf("storage manager is required")
	}
	if llmService == nil {
		return nil, fmt.Errorf("llm service is required")
	}
	if contextSvc == nil {
		return nil, fmt.Errorf("context service is required")
	}
	if pdfService == nil {
		return nil, fmt.Errorf("pdf service is required")
	}
	if logger == nil {
		logger = common.GetLogger()
	}

	retry := retryConfigFromReports(&config.Reports)

	agents := make([]*SectionAgent, 0, len(models.ReportSectionSpecs))
	for _, spec := range models.ReportSectionSpecs {
		agent, err := NewSectionAgent(spec, llmService, retry, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create agent for %s: %w", spec.Name, err)
		}
		agents = append(agents, agent)
	}

	var researcher *ResearchAgent
	if config.Reports.ResearchPass {
		var err error
		researcher, err = NewResearchAgent(llmService, retry, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create research agent: %w", err)
		}
	}

	summarizer, err := NewSummarizer(llmService, retry, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create summarizer: %w", err)
	}

	minSections := config.Reports.MinSections
	if minSections <= 0 {
		minSections = len(models.ReportSectionSpecs) - 1
	}

	return &Orchestrator{
		config:      config,
		storage:     storage,
		contextSvc:  contextSvc,
		pdfService:  pdfService,
		artifacts:   artifacts,
		notifier:    notifier,
		agents:      agents,
		researcher:  researcher,
		summarizer:  summarizer,
		minSections: minSections,
		logger:      logger,
	}, nil
}

func retryConfigFromReports(reports *common.ReportsConfig) *llm.RetryConfig {
	retry := llm.NewDefaultRetryConfig()
	if reports.MaxRetries > 0 {
		retry.MaxRetries = reports.MaxRetries
	}
	if backoff, err := time.ParseDuration(reports.RetryBackoff); err == nil && backoff > 0 {
		retry.InitialBackoff = backoff
	}
	return retry
}

// Run executes the full pipeline for the request. Pending and failed
// requests are claimable, retrying a failure in place; a request already
// claimed by another run returns interfaces.ErrAlreadyRunning.
func (o *Orchestrator) Run(ctx context.Context, requestID string) error {
	requests := o.storage.RequestStorage()

	req, err := requests.GetRequest(ctx, requestID)
	if err != nil {
		return fmt.Errorf("failed to load request %s: %w", requestID, err)
	}

	// single atomic claim so concurrent retries of a failed request lose
	// with ErrAlreadyRunning rather than a transition error
	if err := requests.CompareAndSetStatus(ctx, requestID, models.RequestStatusProcessing,
		models.RequestStatusPending, models.RequestStatusFailed); err != nil {
		return err
	}

	o.logger.Info().
		Str("request_id", requestID).
		Str("company", companyName(req)).
		Msg("Starting report generation")

	if err := o.generate(ctx, req); err != nil {
		o.failRun(ctx, req, err)
		return err
	}
	return nil
}

// generate runs the pipeline stages for a claimed request
func (o *Orchestrator) generate(ctx context.Context, req *models.AnalysisRequest) error {
	progress := newProgressTracker(o.storage.RequestStorage(), req.ID, o.logger)

	pctx := o.buildPromptContext(ctx, req)
	progress.set(ctx, progressContext)

	sections := o.runSections(ctx, req, pctx, progress)
	if len(sections) < o.minSections {
		return fmt.Errorf("only %d of %d sections generated (minimum %d)",
			len(sections), len(o.agents), o.minSections)
	}

	models.SortSectionsByIndex(sections)

	o.runSummaryPass(ctx, req, sections)
	progress.set(ctx, progressSummary)

	pdfURL := o.publishArtifact(ctx, req, sections)

	params := map[string]interface{}{
		"generated_sections": sectionNames(sections),
	}
	if pdfURL != "" {
		params["pdf_url"] = pdfURL
	}
	if err := o.storage.RequestStorage().AppendParameters(ctx, req.ID, params); err != nil {
		o.logger.Warn().Str("request_id", req.ID).Err(err).Msg("Failed to record generation parameters")
	}

	// terminal status is the last write: readers observing completed can
	// rely on every section and artifact write having landed
	if err := o.storage.RequestStorage().UpdateStatus(ctx, req.ID, models.RequestStatusCompleted); err != nil {
		return fmt.Errorf("failed to mark request completed: %w", err)
	}
	progress.set(ctx, progressComplete)

	o.logger.Info().
		Str("request_id", req.ID).
		Int("sections", len(sections)).
		Str("pdf_url", pdfURL).
		Msg("Report generation completed")

	o.notify(req, models.RequestStatusCompleted, pdfURL)
	return nil
}

// buildPromptContext assembles the retrieval context and optional research
// pre-pass output for the request. Both stages are best-effort.
func (o *Orchestrator) buildPromptContext(ctx context.Context, req *models.AnalysisRequest) PromptContext {
	pctx := PromptContext{
		FounderName:        req.FounderName,
		Company:            companyName(req),
		CompanyType:        req.CompanyType,
		CompanyDescription: req.AdditionalInfo,
		FundingStage:       req.FundingStage,
		Industry:           req.Industry,
	}

	hints := []string{companyName(req), req.Industry, req.FundingStage}
	pctx.RetrievedContext = o.contextSvc.FetchContext(ctx, req.PitchDeckURL, hints)

	if o.researcher != nil {
		notes, err := o.researcher.Research(ctx, pctx)
		if err != nil {
			o.logger.Warn().Str("request_id", req.ID).Err(err).Msg("Research pre-pass failed, continuing without it")
		} else if strings.TrimSpace(notes) != "" {
			pctx.RetrievedContext = joinContext(pctx.RetrievedContext, "## Research Notes\n\n"+notes)
		}
	}

	if strings.TrimSpace(pctx.RetrievedContext) == "" {
		pctx.RetrievedContext = missingDataInstruction
	}
	return pctx
}

// runSections executes the section agents in three stages: the five body
// sections fan out concurrently, then recommendations are generated over
// the body output, then the executive summary is generated over everything.
// Each section failure is isolated; successful sections persist immediately.
func (o *Orchestrator) runSections(ctx context.Context, req *models.AnalysisRequest, pctx PromptContext, progress *progressTracker) []*models.ReportSection {
	var mu sync.Mutex
	var wg sync.WaitGroup
	results := make(map[string]*models.ReportSection)

	record := func(section *models.ReportSection) {
		mu.Lock()
		results[section.Name] = section
		mu.Unlock()
	}

	for _, agent := range o.agents {
		spec := agent.Spec()
		if spec.Name == models.SectionExecutiveSummary || spec.Name == models.SectionRecommendations {
			continue
		}
		wg.Add(1)
		go func(a *SectionAgent) {
			defer wg.Done()
			if section := o.runSection(ctx, req, a, pctx, progress); section != nil {
				record(section)
			}
		}(agent)
	}
	wg.Wait()

	// recommendations read the body sections, the executive summary reads
	// everything including the recommendations
	if agent := o.agentFor(models.SectionRecommendations); agent != nil {
		fed := pctx
		fed.RetrievedContext = joinContext(pctx.RetrievedContext, assembleSectionFeed(results))
		if section := o.runSection(ctx, req, agent, fed, progress); section != nil {
			record(section)
		}
	}
	if agent := o.agentFor(models.SectionExecutiveSummary); agent != nil {
		fed := pctx
		fed.RetrievedContext = joinContext(pctx.RetrievedContext, assembleSectionFeed(results))
		if section := o.runSection(ctx, req, agent, fed, progress); section != nil {
			record(section)
		}
	}

	sections := make([]*models.ReportSection, 0, len(results))
	for _, section := range results {
		sections = append(sections, section)
	}
	return sections
}

// runSection generates and persists one section. Returns nil on failure;
// a panic in the agent fails only that section.
func (o *Orchestrator) runSection(ctx context.Context, req *models.AnalysisRequest, agent *SectionAgent, pctx PromptContext, progress *progressTracker) (section *models.ReportSection) {
	spec := agent.Spec()

	defer func() {
		if r := recover(); r != nil {
			o.logger.Error().
				Str("request_id", req.ID).
				Str("section", spec.Name).
				Str("panic", fmt.Sprintf("%v", r)).
				Msg("Section agent panicked")
			section = nil
		}
	}()

	content, err := agent.Generate(ctx, pctx)
	if err != nil {
		o.logger.Error().
			Str("request_id", req.ID).
			Str("section", spec.Name).
			Err(err).
			Msg("Section generation failed")
		return nil
	}

	section = &models.ReportSection{
		RequestID: req.ID,
		Name:      spec.Name,
		Title:     spec.Title,
		Index:     spec.Index,
		Content:   content,
		CreatedAt: time.Now(),
	}
	if err := o.storage.SectionStorage().UpsertSection(ctx, section); err != nil {
		o.logger.Error().
			Str("request_id", req.ID).
			Str("section", spec.Name).
			Err(err).
			Msg("Failed to persist section")
		return nil
	}

	progress.step(ctx)
	o.logger.Info().
		Str("request_id", req.ID).
		Str("section", spec.Name).
		Int("chars", len(content)).
		Msg("Section persisted")
	return section
}

// runSummaryPass produces and stores the structured summary. Failure is
// logged but never fails the run; the summary can be regenerated later.
func (o *Orchestrator) runSummaryPass(ctx context.Context, req *models.AnalysisRequest, sections []*models.ReportSection) {
	summary, err := o.summarizer.Summarize(ctx, req.ID, req.DealID(), sections)
	if err != nil {
		o.logger.Warn().Str("request_id", req.ID).Err(err).Msg("Summary pass failed")
		return
	}
	if err := o.storage.SummaryStorage().UpsertSummary(ctx, summary); err != nil {
		o.logger.Warn().Str("request_id", req.ID).Err(err).Msg("Failed to persist structured summary")
	}
}

// publishArtifact renders the report PDF and publishes it. Returns the
// artifact URL, or empty when publishing is disabled or fails.
func (o *Orchestrator) publishArtifact(ctx context.Context, req *models.AnalysisRequest, sections []*models.ReportSection) string {
	if o.artifacts == nil || !o.config.Artifacts.Enabled {
		return ""
	}

	title := fmt.Sprintf("%s Investment Readiness Report", companyName(req))
	markdown := assembleReportMarkdown(title, sections)

	pdfBytes, err := o.pdfService.ConvertMarkdownToPDF(markdown, title)
	if err != nil {
		o.logger.Warn().Str("request_id", req.ID).Err(err).Msg("PDF render failed, report completes without artifact")
		return ""
	}

	url, err := o.artifacts.Publish(ctx, req.DealID(), "investment_readiness_report.pdf", pdfBytes)
	if err != nil {
		o.logger.Warn().Str("request_id", req.ID).Err(err).Msg("Artifact publish failed, report completes without artifact")
		return ""
	}

	report := &models.DealReport{
		DealID:      req.DealID(),
		RequestID:   req.ID,
		Title:       title,
		Status:      string(models.RequestStatusCompleted),
		PDFURL:      url,
		PublishedAt: time.Now(),
	}
	if err := o.storage.SummaryStorage().UpsertDealReport(ctx, report); err != nil {
		o.logger.Warn().Str("request_id", req.ID).Err(err).Msg("Failed to persist deal report record")
	}
	return url
}

// failRun records the failure and moves the request to failed
func (o *Orchestrator) failRun(ctx context.Context, req *models.AnalysisRequest, runErr error) {
	requests := o.storage.RequestStorage()
	if err := requests.SetError(ctx, req.ID, runErr.Error()); err != nil {
		o.logger.Warn().Str("request_id", req.ID).Err(err).Msg("Failed to record run error")
	}
	if err := requests.UpdateStatus(ctx, req.ID, models.RequestStatusFailed); err != nil {
		o.logger.Error().Str("request_id", req.ID).Err(err).Msg("Failed to mark request failed")
	}
	o.logger.Error().Str("request_id", req.ID).Err(runErr).Msg("Report generation failed")
	o.notify(req, models.RequestStatusFailed, "")
}

func (o *Orchestrator) notify(req *models.AnalysisRequest, status models.RequestStatus, pdfURL string) {
	if o.notifier == nil {
		return
	}
	o.notifier.NotifyAsync(interfaces.ReportNotification{
		RequestID: req.ID,
		DealID:    req.DealID(),
		Status:    string(status),
		PDFURL:    pdfURL,
		UserID:    req.UserID,
	})
}

func (o *Orchestrator) agentFor(name string) *SectionAgent {
	for _, agent := range o.agents {
		if agent.Spec().Name == name {
			return agent
		}
	}
	return nil
}

// assembleSectionFeed concatenates generated sections in report order for
// feeding into the closing sections
func assembleSectionFeed(results map[string]*models.ReportSection) string {
	var sb strings.Builder
	for _, spec := range models.ReportSectionSpecs {
		section, ok := results[spec.Name]
		if !ok {
			continue
		}
		sb.WriteString(fmt.Sprintf("SECTION %d: %s\n%s\n\n", spec.Index, spec.Title, section.Content))
	}
	if sb.Len() == 0 {
		return ""
	}
	return "## Previously Generated Sections\n\n" + sb.String()
}

// assembleReportMarkdown builds the full report document for PDF rendering
func assembleReportMarkdown(title string, sections []*models.ReportSection) string {
	var sb strings.Builder
	sb.WriteString("# " + title + "\n\n")
	for _, section := range sections {
		sb.WriteString(section.Content)
		sb.WriteString("\n\n")
	}
	return sb.String()
}

func companyName(req *models.AnalysisRequest) string {
	if strings.TrimSpace(req.FounderCompany) != "" {
		return req.FounderCompany
	}
	if strings.TrimSpace(req.CompanyName) != "" {
		return req.CompanyName
	}
	return "Unknown Operation"
}

func sectionNames(sections []*models.ReportSection) []string {
	names := make([]string, len(sections))
	for i, section := range sections {
		names[i] = section.Name
	}
	return names
}

func joinContext(parts ...string) string {
	var nonEmpty []string
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			nonEmpty = append(nonEmpty, strings.TrimSpace(p))
		}
	}
	return strings.Join(nonEmpty, "\n\n")
}

// progressTracker writes the coarse progress counter into the request's
// parameters bag. Monotone: concurrent section completions can report in
// any order without ever moving the counter backwards.
type progressTracker struct {
	mu       sync.Mutex
	current  int
	requests interfaces.RequestStorage
	id       string
	logger   arbor.ILogger
}

func newProgressTracker(requests interfaces.RequestStorage, requestID string, logger arbor.ILogger) *progressTracker {
	return &progressTracker{requests: requests, id: requestID, logger: logger}
}

// The write happens under the tracker lock so the stored counter is
// updated in strictly increasing order even when sections finish
// concurrently.
func (p *progressTracker) set(ctx context.Context, percent int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if percent <= p.current {
		return
	}
	p.current = percent
	p.record(ctx, percent)
}

// step advances progress by one section increment
func (p *progressTracker) step(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current += progressPerStep
	p.record(ctx, p.current)
}

func (p *progressTracker) record(ctx context.Context, percent int) {
	if err := p.requests.AppendParameters(ctx, p.id, map[string]interface{}{"progress_percent": percent}); err != nil {
		p.logger.Warn().Str("request_id", p.id).Err(err).Msg("Failed to record progress")
	}
}
