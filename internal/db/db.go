package db

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/models"
)

// Connect opens the pool. Driver errors are translated so unique violations
// surface as gorm.ErrDuplicatedKey.
func Connect(dsn string, log *zap.Logger) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	log.Info("database connected")
	return gdb, nil
}

// Migrate creates the schema and the indexes AutoMigrate cannot express.
func Migrate(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(
		&models.User{},
		&models.FreelancerProfile{},
		&models.Service{},
		&models.Project{},
		&models.Payment{},
		&models.Chat{},
		&models.Message{},
		&models.ProjectUpdate{},
		&models.PasswordResetCode{},
	); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}

	// one standalone chat per client/freelancer pair
	if err := gdb.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS uniq_chats_direct_pair
		ON chats (client_id, freelancer_id) WHERE project_id IS NULL`).Error; err != nil {
		return fmt.Errorf("create chat pair index: %w", err)
	}
	return nil
}
