package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/VIIT-EP/exam-service/internal/events"
	"github.com/VIIT-EP/exam-service/internal/repositories"
	"github.com/VIIT-EP/exam-service/internal/validator"
)

// ManagerConfig carries the wiring inputs the service layer needs.
type ManagerConfig struct {
	KafkaBrokers []string
	EventTopic   string

	// ReconcileInterval controls the stale-attempt sweep; zero disables it.
	ReconcileInterval time.Duration
}

type serviceManager struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	config    ManagerConfig

	eventPublisher events.EventPublisher

	question     QuestionService
	paper        PaperService
	attempt      AttemptService
	report       ReportService
	student      StudentService
	importExport ImportExportService

	stopReconcile chan struct{}
}

func NewServiceManager(repo repositories.Repository, logger *slog.Logger, v *validator.Validator, cfg ManagerConfig) ServiceManager {
	return &serviceManager{
		repo:          repo,
		logger:        logger,
		validator:     v,
		config:        cfg,
		stopReconcile: make(chan struct{}),
	}
}

func (m *serviceManager) Initialize(ctx context.Context) error {
	if len(m.config.KafkaBrokers) > 0 {
		publisher, err := events.NewKafkaEventPublisher(m.config.KafkaBrokers, m.logger)
		if err != nil {
			return fmt.Errorf("failed to initialize event publisher: %w", err)
		}
		m.eventPublisher = publisher
	} else {
		m.logger.Warn("no kafka brokers configured, events will be dropped")
		m.eventPublisher = events.NewMockEventPublisher(m.logger)
	}

	m.question = NewQuestionService(m.repo, m.logger, m.validator)
	m.report = NewReportService(m.repo, m.logger)
	m.paper = NewPaperService(m.repo, m.logger, m.validator, m.eventPublisher, m.config.EventTopic)
	m.attempt = NewAttemptService(m.repo, m.logger, m.validator, m.eventPublisher, m.config.EventTopic)
	m.student = NewStudentService(m.repo, m.logger, m.validator, m.eventPublisher, m.config.EventTopic)
	m.importExport = NewImportExportService(m.logger, m.question, m.report)

	if m.config.ReconcileInterval > 0 {
		go m.reconcileLoop(m.config.ReconcileInterval)
	}

	m.logger.Info("services initialized")
	return nil
}

// reconcileLoop periodically closes attempts whose time has run out, so
// dashboards never show students stuck "in exam" after a dropped connection.
func (m *serviceManager) reconcileLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			if _, err := m.attempt.ReconcileAttemptingFlags(ctx); err != nil {
				m.logger.Error("attempt reconciliation failed", "error", err)
			}
			cancel()
		case <-m.stopReconcile:
			return
		}
	}
}

func (m *serviceManager) Shutdown(ctx context.Context) error {
	close(m.stopReconcile)
	if m.eventPublisher != nil {
		if err := m.eventPublisher.Close(); err != nil {
			return fmt.Errorf("failed to close event publisher: %w", err)
		}
	}
	m.logger.Info("services shut down")
	return nil
}

func (m *serviceManager) Health(ctx context.Context) error {
	return m.repo.Ping(ctx)
}

func (m *serviceManager) Question() QuestionService         { return m.question }
func (m *serviceManager) Paper() PaperService               { return m.paper }
func (m *serviceManager) Attempt() AttemptService           { return m.attempt }
func (m *serviceManager) Report() ReportService             { return m.report }
func (m *serviceManager) Student() StudentService           { return m.student }
func (m *serviceManager) ImportExport() ImportExportService { return m.importExport }
