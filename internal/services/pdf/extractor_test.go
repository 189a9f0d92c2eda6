package pdf

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

func TestExtractTextFromBytes(t *testing.T) {
	logger := arbor.NewLogger()
	service := NewService(logger)
	extractor := NewExtractor(logger)

	pdfBytes, err := service.ConvertMarkdownToPDF("# Executive Summary\n\nAcme Robotics is raising a seed round.", "Deck")
	require.NoError(t, err)

	text, err := extractor.ExtractTextFromBytes(context.Background(), pdfBytes)
	assert.NoError(t, err)
	assert.NotEmpty(t, text)
}

func TestExtractTextFromBytesEmpty(t *testing.T) {
	extractor := NewExtractor(arbor.NewLogger())

	_, err := extractor.ExtractTextFromBytes(context.Background(), nil)
	assert.Error(t, err)
}

func TestExtractTextFromBytesConcurrent(t *testing.T) {
	logger := arbor.NewLogger()
	service := NewService(logger)
	extractor := NewExtractor(logger)

	pdfBytes, err := service.ConvertMarkdownToPDF("# Market Opportunity\n\nLarge and growing market.", "Deck")
	require.NoError(t, err)

	baseline, err := extractor.ExtractTextFromBytes(context.Background(), pdfBytes)
	require.NoError(t, err)
	require.NotEmpty(t, baseline)

	// concurrent extractions must not share temp paths
	const workers = 4
	var wg sync.WaitGroup
	results := make(chan string, workers)
	errs := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			text, err := extractor.ExtractTextFromBytes(context.Background(), pdfBytes)
			if err != nil {
				errs <- err
				return
			}
			results <- text
		}()
	}
	wg.Wait()
	close(results)
	close(errs)

	for err := range errs {
		t.Errorf("concurrent extraction failed: %v", err)
	}
	for text := range results {
		assert.Equal(t, baseline, text)
	}
}
