package table_position

import (
	"gorm.io/gorm"

	"github.com/hephylab/tableService/internal/interfaces"
)

type TablePositionRepositoryImpl struct {
	db *gorm.DB
}

func NewTablePositionRepository(db *gorm.DB) interfaces.TablePositionRepository {
	return &TablePositionRepositoryImpl{db: db}
}
