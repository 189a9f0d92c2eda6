package badger

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/diligence/internal/common"
	"github.com/ternarybob/diligence/internal/interfaces"
)

// Manager implements the StorageManager interface for Badger
type Manager struct {
	db        *BadgerDB
	request   interfaces.RequestStorage
	section   interfaces.SectionStorage
	summary   interfaces.SummaryStorage
	knowledge interfaces.KnowledgeStorage
	logger    arbor.ILogger
}

// NewManager creates a new Badger storage manager
func NewManager(logger arbor.ILogger, config *common.BadgerConfig) (interfaces.StorageManager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		db:        db,
		request:   NewRequestStorage(db, logger),
		section:   NewSectionStorage(db, logger),
		summary:   NewSummaryStorage(db, logger),
		knowledge: NewKnowledgeStorage(db, logger),
		logger:    logger,
	}

	logger.Info().Msg("Badger storage manager initialized")

	return manager, nil
}

// RequestStorage returns the analysis request storage interface
func (m *Manager) RequestStorage() interfaces.RequestStorage {
	return m.request
}

// SectionStorage returns the report section storage interface
func (m *Manager) SectionStorage() interfaces.SectionStorage {
	return m.section
}

// SummaryStorage returns the structured summary storage interface
func (m *Manager) SummaryStorage() interfaces.SummaryStorage {
	return m.summary
}

// KnowledgeStorage returns the reference document storage interface
func (m *Manager) KnowledgeStorage() interfaces.KnowledgeStorage {
	return m.knowledge
}

// DB returns the underlying database connection
func (m *Manager) DB() interface{} {
	if m.db != nil {
		return m.db.Store()
	}
	return nil
}

// Close closes the database connection
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
