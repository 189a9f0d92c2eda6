package badger

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/diligence/internal/interfaces"
	"github.com/timshannon/badgerhold/v4"
)

// KnowledgeStorage implements the KnowledgeStorage interface for Badger.
// BadgerHold has no full-text index, so Search scans and scores by keyword
// overlap. The knowledge corpus is a handful of reference documents loaded
// at startup, so the scan is cheap.
type KnowledgeStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewKnowledgeStorage creates a new KnowledgeStorage instance
func NewKnowledgeStorage(db *BadgerDB, logger arbor.ILogger) interfaces.KnowledgeStorage {
	return &KnowledgeStorage{
		db:     db,
		logger: logger,
	}
}

func (s *KnowledgeStorage) StoreDoc(ctx context.Context, doc *interfaces.KnowledgeDoc) error {
	if doc.ID == "" {
		return fmt.Errorf("knowledge doc ID is required")
	}
	if err := s.db.Store().Upsert(doc.ID, doc); err != nil {
		return fmt.Errorf("failed to save knowledge doc: %w", err)
	}
	return nil
}

func (s *KnowledgeStorage) Search(ctx context.Context, query string, topK int) ([]*interfaces.KnowledgeDoc, error) {
	terms := tokenize(query)
	if len(terms) == 0 || topK <= 0 {
		return nil, nil
	}

	var docs []interfaces.KnowledgeDoc
	if err := s.db.Store().Find(&docs, badgerhold.Where("ID").Ne("")); err != nil {
		return nil, fmt.Errorf("failed to scan knowledge docs: %w", err)
	}

	type scored struct {
		doc   *interfaces.KnowledgeDoc
		score int
	}
	var matches []scored
	for i := range docs {
		content := strings.ToLower(docs[i].Title + " " + docs[i].Content)
		score := 0
		for _, term := range terms {
			score += strings.Count(content, term)
		}
		if score > 0 {
			matches = append(matches, scored{doc: &docs[i], score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})

	if len(matches) > topK {
		matches = matches[:topK]
	}

	result := make([]*interfaces.KnowledgeDoc, len(matches))
	for i, m := range matches {
		result[i] = m.doc
	}
	return result, nil
}

func (s *KnowledgeStorage) CountDocs(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&interfaces.KnowledgeDoc{}, badgerhold.Where("ID").Ne(""))
	if err != nil {
		return 0, fmt.Errorf("failed to count knowledge docs: %w", err)
	}
	return int(count), nil
}

// tokenize splits a query into lowercase terms, dropping short noise words
func tokenize(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	var terms []string
	for _, f := range fields {
		f = strings.Trim(f, ".,;:!?\"'()[]")
		if len(f) >= 3 {
			terms = append(terms, f)
		}
	}
	return terms
}

var _ interfaces.KnowledgeStorage = (*KnowledgeStorage)(nil)
