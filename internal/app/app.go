// -----------------------------------------------------------------------
// App - Application wiring and lifecycle
// -----------------------------------------------------------------------

package app

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/diligence/internal/common"
	"github.com/ternarybob/diligence/internal/handlers"
	"github.com/ternarybob/diligence/internal/interfaces"
	"github.com/ternarybob/diligence/internal/services/artifacts"
	"github.com/ternarybob/diligence/internal/services/llm"
	"github.com/ternarybob/diligence/internal/services/notify"
	"github.com/ternarybob/diligence/internal/services/pdf"
	"github.com/ternarybob/diligence/internal/services/reaper"
	"github.com/ternarybob/diligence/internal/services/report"
	"github.com/ternarybob/diligence/internal/services/retrieval"
	badgerstorage "github.com/ternarybob/diligence/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	StorageManager interfaces.StorageManager

	// Core services
	LLMService      interfaces.LLMService
	ContextService  interfaces.ContextService
	PDFService      interfaces.PDFService
	ArtifactService interfaces.ArtifactService
	NotifyService   interfaces.NotifyService
	Orchestrator    *report.Orchestrator
	Reaper          *reaper.Reaper

	// HTTP handlers
	APIHandler    *handlers.APIHandler
	ReportHandler *handlers.ReportHandler
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if err := app.initStorage(); err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	if err := app.initServices(); err != nil {
		app.StorageManager.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}
	app.initHandlers()

	return app, nil
}

func (a *App) initStorage() error {
	manager, err := badgerstorage.NewManager(a.Logger, &a.Config.Storage.Badger)
	if err != nil {
		return err
	}
	a.StorageManager = manager

	// reference documents for retrieval augmentation; missing dir is fine
	if err := manager.LoadKnowledgeFromDir(context.Background(), a.Config.Knowledge.Dir, a.Config.Knowledge.Extensions); err != nil {
		a.Logger.Warn().Err(err).Str("dir", a.Config.Knowledge.Dir).Msg("Failed to load knowledge documents")
	}
	return nil
}

func (a *App) initServices() error {
	llmService, err := llm.NewClaudeService(&a.Config.Claude, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to create Claude service: %w", err)
	}
	a.LLMService = llmService

	pdfService := pdf.NewService(a.Logger)
	a.PDFService = pdfService

	extractor := pdf.NewExtractor(a.Logger)

	contextService, err := retrieval.NewService(&a.Config.Retrieval, extractor, a.StorageManager.KnowledgeStorage(), a.Logger)
	if err != nil {
		return fmt.Errorf("failed to create retrieval service: %w", err)
	}
	a.ContextService = contextService

	if a.Config.Artifacts.Enabled {
		publisher, err := artifacts.NewPublisher(&a.Config.Artifacts, a.Logger)
		if err != nil {
			return fmt.Errorf("failed to create artifact publisher: %w", err)
		}
		a.ArtifactService = publisher
	}

	notifier, err := notify.NewWebhookNotifier(&a.Config.Notify, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to create webhook notifier: %w", err)
	}
	a.NotifyService = notifier

	orchestrator, err := report.NewOrchestrator(a.Config, a.StorageManager, a.LLMService,
		a.ContextService, a.PDFService, a.ArtifactService, a.NotifyService, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to create report orchestrator: %w", err)
	}
	a.Orchestrator = orchestrator

	if a.Config.Reaper.Enabled {
		staleReaper, err := reaper.NewReaper(&a.Config.Reaper, a.StorageManager.RequestStorage(), a.Logger)
		if err != nil {
			return fmt.Errorf("failed to create reaper: %w", err)
		}
		a.Reaper = staleReaper
	}

	return nil
}

func (a *App) initHandlers() {
	a.APIHandler = handlers.NewAPIHandler()
	a.ReportHandler = handlers.NewReportHandler(a.StorageManager, a.Orchestrator, a.Logger)
}

// Start launches background components
func (a *App) Start() error {
	if a.Reaper != nil {
		if err := a.Reaper.Start(); err != nil {
			return fmt.Errorf("failed to start reaper: %w", err)
		}
	}
	return nil
}

// Close releases all application resources
func (a *App) Close() error {
	if a.Reaper != nil {
		a.Reaper.Stop()
	}
	if a.LLMService != nil {
		if err := a.LLMService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close LLM service")
		}
	}
	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close storage")
			return err
		}
	}
	a.Logger.Info().Msg("Application closed")
	return nil
}
