package sqlite

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/hephylab/tableService/internal/adapters/repositories/sqlite/table_position"
	"github.com/hephylab/tableService/internal/config"
	"github.com/hephylab/tableService/internal/domain/entities"
	"github.com/hephylab/tableService/internal/interfaces"
	"github.com/hephylab/tableService/internal/middleware/logging"
)

type Repository struct {
	interfaces.TablePositionRepository
}

// NewRepository opens the sqlite database file and runs migrations. The
// file is created on first use.
func NewRepository(cfg *config.AppConfig, appLogger *logging.Logger) (interfaces.TablePositionRepository, error) {
	db, err := gorm.Open(sqlite.Open(cfg.Database.Path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database %q: %w", cfg.Database.Path, err)
	}

	if err := autoMigrate(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	appLogger.Info("Database ready", "path", cfg.Database.Path)
	return &Repository{
		TablePositionRepository: table_position.NewTablePositionRepository(db),
	}, nil
}

func autoMigrate(db *gorm.DB) error {
	// AutoMigrate creates the table if missing and adds new columns when
	// the model grows.
	return db.AutoMigrate(&entities.TablePosition{})
}
