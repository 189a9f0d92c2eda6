// -----------------------------------------------------------------------
// Retrieval Service - Pitch deck download and context assembly
// -----------------------------------------------------------------------

package retrieval

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/diligence/internal/common"
	"github.com/ternarybob/diligence/internal/interfaces"
)

// Service implements interfaces.ContextService. It downloads the pitch deck
// referenced by an analysis request, extracts its text (PDF or HTML), and
// augments it with snippets from the local knowledge index.
//
// Every step is best-effort: failures are logged and the assembled context
// degrades to whatever could be gathered, down to the empty string.
type Service struct {
	config    *common.RetrievalConfig
	logger    arbor.ILogger
	client    *http.Client
	extractor interfaces.PDFExtractor
	knowledge interfaces.KnowledgeStorage
}

// Compile-time assertion
var _ interfaces.ContextService = (*Service)(nil)

// NewService creates a new retrieval service
func NewService(config *common.RetrievalConfig, extractor interfaces.PDFExtractor, knowledge interfaces.KnowledgeStorage, logger arbor.ILogger) (*Service, error) {
	timeout, err := time.ParseDuration(config.RequestTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid request timeout '%s': %w", config.RequestTimeout, err)
	}

	return &Service{
		config:    config,
		logger:    logger,
		client:    &http.Client{Timeout: timeout},
		extractor: extractor,
		knowledge: knowledge,
	}, nil
}

// FetchContext assembles the reference text for a report run.
// See interfaces.ContextService for the degradation contract.
func (s *Service) FetchContext(ctx context.Context, pitchDeckURL string, queryHints []string) string {
	var parts []string

	if deckText := s.fetchPitchDeck(ctx, pitchDeckURL); deckText != "" {
		parts = append(parts, "## Pitch Deck Content\n\n"+deckText)
	}

	if snippets := s.fetchKnowledgeSnippets(ctx, queryHints); snippets != "" {
		parts = append(parts, "## Reference Material\n\n"+snippets)
	}

	context := strings.Join(parts, "\n\n")
	context = s.truncate(context)

	s.logger.Debug().
		Str("pitch_deck_url", pitchDeckURL).
		Int("context_length", len(context)).
		Msg("Assembled retrieval context")

	return context
}

// fetchPitchDeck downloads and extracts the pitch deck text. Returns the
// empty string on any failure.
func (s *Service) fetchPitchDeck(ctx context.Context, pitchDeckURL string) string {
	if pitchDeckURL == "" {
		return ""
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pitchDeckURL, nil)
	if err != nil {
		s.logger.Warn().Err(err).Str("url", pitchDeckURL).Msg("Invalid pitch deck URL, continuing without deck context")
		return ""
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Warn().Err(err).Str("url", pitchDeckURL).Msg("Pitch deck download failed, continuing without deck context")
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.logger.Warn().Int("status", resp.StatusCode).Str("url", pitchDeckURL).Msg("Pitch deck download returned non-OK status, continuing without deck context")
		return ""
	}

	maxBody := int64(s.config.MaxBodySize)
	if maxBody <= 0 {
		maxBody = 20 * 1024 * 1024
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		s.logger.Warn().Err(err).Str("url", pitchDeckURL).Msg("Failed to read pitch deck body, continuing without deck context")
		return ""
	}

	contentType := resp.Header.Get("Content-Type")
	text := s.extractText(ctx, body, contentType, pitchDeckURL)
	if text == "" {
		s.logger.Warn().Str("url", pitchDeckURL).Str("content_type", contentType).Msg("No text extracted from pitch deck")
	}
	return text
}

// extractText picks the extraction path based on content type, falling back
// to sniffing the payload when the header is generic.
func (s *Service) extractText(ctx context.Context, body []byte, contentType, sourceURL string) string {
	isPDF := strings.Contains(contentType, "application/pdf") ||
		strings.HasSuffix(strings.ToLower(sourceURL), ".pdf") ||
		(len(body) > 4 && string(body[:5]) == "%PDF-")

	if isPDF {
		text, err := s.extractor.ExtractTextFromBytes(ctx, body)
		if err != nil {
			s.logger.Warn().Err(err).Str("url", sourceURL).Msg("PDF extraction failed, continuing without deck context")
			return ""
		}
		return text
	}

	if strings.Contains(contentType, "text/html") || strings.Contains(strings.ToLower(string(body[:min(len(body), 256)])), "<html") {
		return s.htmlToMarkdown(string(body), sourceURL)
	}

	// Plain text or unknown: use as-is
	return string(body)
}

// htmlToMarkdown converts an HTML pitch deck page to markdown, keeping the
// page title as a heading.
func (s *Service) htmlToMarkdown(html, sourceURL string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		s.logger.Warn().Err(err).Str("url", sourceURL).Msg("Failed to parse HTML, continuing without deck context")
		return ""
	}

	// Strip script and style noise before conversion
	doc.Find("script, style, nav, footer").Remove()

	title := strings.TrimSpace(doc.Find("title").First().Text())

	converter := md.NewConverter(sourceURL, true, nil)
	markdown, err := converter.ConvertString(html)
	if err != nil {
		s.logger.Warn().Err(err).Str("url", sourceURL).Msg("HTML to markdown conversion failed, using text fallback")
		markdown = strings.TrimSpace(doc.Text())
	}

	if title != "" {
		return "# " + title + "\n\n" + markdown
	}
	return markdown
}

// fetchKnowledgeSnippets queries the local knowledge index with the query
// hints and formats the top-k matches.
func (s *Service) fetchKnowledgeSnippets(ctx context.Context, queryHints []string) string {
	if s.knowledge == nil || len(queryHints) == 0 {
		return ""
	}

	topK := s.config.SnippetTopK
	if topK <= 0 {
		topK = 5
	}

	query := strings.Join(queryHints, " ")
	docs, err := s.knowledge.Search(ctx, query, topK)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Knowledge search failed, continuing without snippets")
		return ""
	}
	if len(docs) == 0 {
		return ""
	}

	// Keep each snippet small so one large document can't crowd out the deck
	snippetBudget := s.config.CharBudget / (2 * topK)
	if snippetBudget < 200 {
		snippetBudget = 200
	}

	var builder strings.Builder
	for _, doc := range docs {
		content := doc.Content
		if len(content) > snippetBudget {
			content = content[:snippetBudget] + "..."
		}
		builder.WriteString("### " + doc.Title + "\n\n")
		builder.WriteString(content)
		builder.WriteString("\n\n")
	}
	return strings.TrimSpace(builder.String())
}

// truncate enforces the configured character budget on the assembled context
func (s *Service) truncate(text string) string {
	budget := s.config.CharBudget
	if budget <= 0 || len(text) <= budget {
		return text
	}

	// Cut at a line boundary where possible
	cut := text[:budget]
	if idx := strings.LastIndexByte(cut, '\n'); idx > budget/2 {
		cut = cut[:idx]
	}
	return cut + "\n\n[content truncated]"
}
