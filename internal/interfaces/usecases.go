package interfaces

import (
	"github.com/hephylab/tableService/internal/domain/entities"
	"github.com/hephylab/tableService/internal/domain/models"
)

// Usecases aggregates the operations exposed to the HTTP surface.
type Usecases interface {
	Status() models.TableState
	Connect(req models.ConnectRequest) error
	Disconnect()
	MoveRelative(req models.MoveRelativeRequest)
	MoveAbsolute(req models.MoveAbsoluteRequest)
	AbortMove()
	Calibrate(req models.AxisMaskRequest)
	RangeMeasure(req models.AxisMaskRequest)
	EnableJoystick(enabled bool)
	SetZLimit(req models.ZLimitRequest)
	ConnectionInfo() *models.ConnectionInfo

	CreatePosition(req models.TablePositionRequest) (*entities.TablePosition, error)
	GetPositions() ([]entities.TablePosition, error)
	GetPosition(id string) (*entities.TablePosition, error)
	UpdatePosition(id string, req models.TablePositionRequest) (*entities.TablePosition, error)
	DeletePosition(id string) error
	MoveToPosition(id string) error
}
