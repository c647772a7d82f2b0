package pkg

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/VIIT-EP/exam-service/internal/config"
	"github.com/VIIT-EP/exam-service/internal/models"
)

// InitDatabase opens the Postgres connection and migrates the schema.
func InitDatabase(cfg *config.Config) (*gorm.DB, error) {
	logLevel := gormlogger.Warn
	if cfg.Environment == "development" {
		logLevel = gormlogger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
		// Surface unique violations as gorm.ErrDuplicatedKey.
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)

	if err := db.AutoMigrate(
		&models.User{},
		&models.Student{},
		&models.Question{},
		&models.QuestionPaper{},
		&models.PaperQuestion{},
		&models.ExamAttempt{},
		&models.Result{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	// Partial unique index: at most one incomplete attempt per (student, paper).
	// Closes the check-then-create race on concurrent exam starts.
	if err := db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_one_open_attempt
		 ON exam_attempts (student_id, paper_id)
		 WHERE NOT is_completed`,
	).Error; err != nil {
		return nil, fmt.Errorf("failed to create open-attempt index: %w", err)
	}

	return db, nil
}
