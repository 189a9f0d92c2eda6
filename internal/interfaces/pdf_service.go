package interfaces

import "context"

// PDFService converts markdown documents to PDF
type PDFService interface {
	// ConvertMarkdownToPDF renders markdown content to a PDF byte slice.
	// The title is used for document metadata; the content is expected to
	// carry its own H1 heading.
	ConvertMarkdownToPDF(markdown, title string) ([]byte, error)
}

// PDFExtractor extracts text content from PDF documents
type PDFExtractor interface {
	// ExtractTextFromBytes extracts all text from the PDF bytes.
	// Page texts are concatenated with page separators.
	ExtractTextFromBytes(ctx context.Context, pdfContent []byte) (string, error)
}
