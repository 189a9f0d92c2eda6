package badger

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/ternarybob/diligence/internal/interfaces"
)

// LoadKnowledgeFromDir indexes reference documents from a directory into
// the knowledge store. Missing directories are not an error: retrieval
// augmentation simply runs without local snippets.
func (m *Manager) LoadKnowledgeFromDir(ctx context.Context, dir string, extensions []string) error {
	m.logger.Debug().Str("dir", dir).Msg("Loading knowledge documents from files")

	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		m.logger.Debug().Str("dir", dir).Msg("Knowledge directory not found, skipping")
		return nil
	}

	if len(extensions) == 0 {
		extensions = []string{".md"}
	}

	loadedCount := 0
	errorCount := 0

	err = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}

		ext := strings.ToLower(filepath.Ext(path))
		matched := false
		for _, want := range extensions {
			if ext == strings.ToLower(want) {
				matched = true
				break
			}
		}
		if !matched {
			return nil
		}

		data, readErr := os.ReadFile(path)
		if readErr != nil {
			m.logger.Warn().Err(readErr).Str("file", path).Msg("Failed to read knowledge file")
			errorCount++
			return nil
		}

		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			rel = filepath.Base(path)
		}

		doc := &interfaces.KnowledgeDoc{
			ID:      "doc_" + strings.ReplaceAll(rel, string(os.PathSeparator), "_"),
			Title:   strings.TrimSuffix(filepath.Base(path), ext),
			Content: string(data),
		}
		if storeErr := m.knowledge.StoreDoc(ctx, doc); storeErr != nil {
			m.logger.Warn().Err(storeErr).Str("file", path).Msg("Failed to index knowledge file")
			errorCount++
			return nil
		}

		loadedCount++
		return nil
	})
	if err != nil {
		return err
	}

	m.logger.Debug().
		Int("loaded", loadedCount).
		Int("errors", errorCount).
		Msg("Finished loading knowledge documents")

	return nil
}
