package retrieval

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/diligence/internal/common"
	"github.com/ternarybob/diligence/internal/interfaces"
)

type stubExtractor struct {
	text string
	err  error
}

func (s *stubExtractor) ExtractTextFromBytes(ctx context.Context, pdfContent []byte) (string, error) {
	return s.text, s.err
}

type stubKnowledge struct {
	docs []*interfaces.KnowledgeDoc
}

func (s *stubKnowledge) StoreDoc(ctx context.Context, doc *interfaces.KnowledgeDoc) error {
	s.docs = append(s.docs, doc)
	return nil
}

func (s *stubKnowledge) Search(ctx context.Context, query string, topK int) ([]*interfaces.KnowledgeDoc, error) {
	if len(s.docs) > topK {
		return s.docs[:topK], nil
	}
	return s.docs, nil
}

func (s *stubKnowledge) CountDocs(ctx context.Context) (int, error) {
	return len(s.docs), nil
}

func testConfig() *common.RetrievalConfig {
	return &common.RetrievalConfig{
		RequestTimeout: "5s",
		MaxBodySize:    1024 * 1024,
		CharBudget:     12000,
		SnippetTopK:    3,
	}
}

func newTestService(t *testing.T, extractor interfaces.PDFExtractor, knowledge interfaces.KnowledgeStorage) *Service {
	t.Helper()
	svc, err := NewService(testConfig(), extractor, knowledge, arbor.NewLogger())
	require.NoError(t, err)
	return svc
}

func TestFetchContextHTMLDeck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html><head><title>Acme Deck</title></head><body><h1>Traction</h1><p>ARR grew 3x year over year.</p></body></html>"))
	}))
	defer server.Close()

	svc := newTestService(t, &stubExtractor{}, &stubKnowledge{})

	got := svc.FetchContext(context.Background(), server.URL, nil)
	assert.Contains(t, got, "Pitch Deck Content")
	assert.Contains(t, got, "Acme Deck")
	assert.Contains(t, got, "ARR grew 3x")
}

func TestFetchContextPDFDeck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-1.4 fake"))
	}))
	defer server.Close()

	svc := newTestService(t, &stubExtractor{text: "Slide 1: Team of 12 engineers"}, &stubKnowledge{})

	got := svc.FetchContext(context.Background(), server.URL, nil)
	assert.Contains(t, got, "Team of 12 engineers")
}

func TestFetchContextDownloadFailureDegrades(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	svc := newTestService(t, &stubExtractor{}, &stubKnowledge{})

	// Failure is tolerated: empty context, no panic
	got := svc.FetchContext(context.Background(), server.URL, nil)
	assert.Empty(t, got)
}

func TestFetchContextEmptyURL(t *testing.T) {
	svc := newTestService(t, &stubExtractor{}, &stubKnowledge{})

	got := svc.FetchContext(context.Background(), "", nil)
	assert.Empty(t, got)
}

func TestFetchContextKnowledgeSnippets(t *testing.T) {
	knowledge := &stubKnowledge{docs: []*interfaces.KnowledgeDoc{
		{ID: "doc_1", Title: "Seed benchmarks", Content: "Typical seed round dilution is 15-25%."},
	}}
	svc := newTestService(t, &stubExtractor{}, knowledge)

	got := svc.FetchContext(context.Background(), "", []string{"seed", "fintech"})
	assert.Contains(t, got, "Reference Material")
	assert.Contains(t, got, "Seed benchmarks")
	assert.Contains(t, got, "dilution")
}

func TestFetchContextTruncatesToBudget(t *testing.T) {
	long := make([]byte, 50000)
	for i := range long {
		long[i] = 'a'
		if i%80 == 79 {
			long[i] = '\n'
		}
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write(long)
	}))
	defer server.Close()

	svc := newTestService(t, &stubExtractor{}, &stubKnowledge{})

	got := svc.FetchContext(context.Background(), server.URL, nil)
	assert.LessOrEqual(t, len(got), testConfig().CharBudget+64)
	assert.Contains(t, got, "[content truncated]")
}
