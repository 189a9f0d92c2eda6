// -----------------------------------------------------------------------
// PDF Extractor Service - Extract text content from PDF documents
// Uses pdfcpu for Go-native PDF processing
// -----------------------------------------------------------------------

package pdf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/diligence/internal/interfaces"
)

// Extractor implements the PDFExtractor interface using pdfcpu.
// Used by retrieval to turn downloaded pitch decks into context text.
type Extractor struct {
	logger  arbor.ILogger
	tempDir string
}

// Compile-time interface assertion
var _ interfaces.PDFExtractor = (*Extractor)(nil)

// NewExtractor creates a new PDF extractor service
func NewExtractor(logger arbor.ILogger) *Extractor {
	// Create a temp directory for PDF processing
	tempDir := filepath.Join(os.TempDir(), "diligence-pdf")
	os.MkdirAll(tempDir, 0755)

	return &Extractor{
		logger:  logger,
		tempDir: tempDir,
	}
}

// ExtractTextFromBytes extracts text directly from PDF bytes.
// pdfcpu works on files, so the bytes go through a temp file.
func (e *Extractor) ExtractTextFromBytes(ctx context.Context, pdfContent []byte) (string, error) {
	if len(pdfContent) == 0 {
		return "", fmt.Errorf("empty PDF content")
	}

	// Write to a per-call temp file so concurrent extractions never share paths
	tempFile, err := os.CreateTemp(e.tempDir, "deck_*.pdf")
	if err != nil {
		return "", fmt.Errorf("failed to create temp PDF file: %w", err)
	}
	tempPath := tempFile.Name()
	defer os.Remove(tempPath)
	if _, err := tempFile.Write(pdfContent); err != nil {
		tempFile.Close()
		return "", fmt.Errorf("failed to write temp PDF file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return "", fmt.Errorf("failed to write temp PDF file: %w", err)
	}

	// Get page count using pdfcpu
	conf := model.NewDefaultConfiguration()
	pdfCtx, err := api.ReadContextFile(tempPath)
	if err != nil {
		return "", fmt.Errorf("failed to read PDF context: %w", err)
	}

	pageCount := pdfCtx.PageCount

	// Extract content from all pages
	outDir, err := os.MkdirTemp(e.tempDir, "deck_pages_")
	if err != nil {
		return "", fmt.Errorf("failed to create temp extraction dir: %w", err)
	}
	defer os.RemoveAll(outDir)

	if err := api.ExtractContentFile(tempPath, outDir, nil, conf); err != nil {
		return "", fmt.Errorf("failed to extract PDF content: %w", err)
	}

	// Read and concatenate all extracted content
	var fullText strings.Builder
	files, _ := os.ReadDir(outDir)
	pageTexts := make(map[int]string)

	for _, file := range files {
		if !file.IsDir() {
			content, err := os.ReadFile(filepath.Join(outDir, file.Name()))
			if err == nil {
				var pageNum int
				if _, err := fmt.Sscanf(file.Name(), "Content_page_%d", &pageNum); err == nil {
					pageTexts[pageNum] = string(content)
				}
			}
		}
	}

	// Build text in page order
	for pageNum := 1; pageNum <= pageCount; pageNum++ {
		if text, ok := pageTexts[pageNum]; ok {
			if fullText.Len() > 0 {
				fullText.WriteString("\n\n--- Page ")
				fullText.WriteString(fmt.Sprintf("%d", pageNum))
				fullText.WriteString(" ---\n\n")
			}
			fullText.WriteString(text)
		}
	}

	e.logger.Debug().
		Int("page_count", pageCount).
		Int("text_length", fullText.Len()).
		Msg("Extracted text from PDF bytes")

	return fullText.String(), nil
}

// ReadPDFFromFile reads and extracts text from a PDF file path directly.
func (e *Extractor) ReadPDFFromFile(ctx context.Context, filePath string) (string, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read PDF file: %w", err)
	}
	return e.ExtractTextFromBytes(ctx, content)
}
