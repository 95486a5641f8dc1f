package interfaces

import (
	"github.com/hephylab/tableService/internal/domain/entities"
)

// TablePositionRepository is the contract for the position bookmark store.
type TablePositionRepository interface {
	Create(position *entities.TablePosition) error
	GetByID(id string) (*entities.TablePosition, error)
	GetAll() ([]entities.TablePosition, error)
	Update(position *entities.TablePosition) error
	Delete(id string) error
}
