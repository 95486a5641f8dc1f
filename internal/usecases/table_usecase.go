package usecases

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hephylab/tableService/internal/domain/entities"
	"github.com/hephylab/tableService/internal/domain/models"
	"github.com/hephylab/tableService/internal/drivers"
	"github.com/hephylab/tableService/internal/interfaces"
	"github.com/hephylab/tableService/internal/resource"
)

type Usecase struct {
	table     interfaces.TableController
	positions interfaces.TablePositionRepository
}

func NewUsecase(table interfaces.TableController, positions interfaces.TablePositionRepository) interfaces.Usecases {
	return &Usecase{
		table:     table,
		positions: positions,
	}
}

func (u *Usecase) Status() models.TableState {
	return models.TableState{
		IsMoving:      u.table.IsMoving(),
		Position:      u.table.Position(),
		Calibration:   u.table.Calibration(),
		ZLimitEnabled: u.table.ZLimitEnabled(),
		ZLimit:        u.table.ZLimit(),
	}
}

// Connect validates the request and enqueues the connect. A validation
// failure is reported synchronously; the connect itself is asynchronous
// and reports through the controller events.
func (u *Usecase) Connect(req models.ConnectRequest) error {
	count, err := drivers.ResourceCount(req.DriverType)
	if err != nil {
		return err
	}
	if len(req.Resources) != count {
		return fmt.Errorf("driver %q needs %d resources, got %d", req.DriverType, count, len(req.Resources))
	}

	resources := make([]models.ResourceConfig, 0, len(req.Resources))
	for _, res := range req.Resources {
		resources = append(resources, models.ResourceConfig{
			ResourceName: resource.Normalize(res.ResourceName),
			BaudRate:     res.BaudRate,
			Termination:  res.Termination,
			Timeout:      time.Duration(res.TimeoutSec * float64(time.Second)),
		})
	}

	u.table.Connect(models.Connection{
		Name:       req.Name,
		DriverType: req.DriverType,
		Resources:  resources,
	})
	return nil
}

func (u *Usecase) Disconnect() {
	u.table.Disconnect()
}

func (u *Usecase) MoveRelative(req models.MoveRelativeRequest) {
	u.table.MoveRelative(req.DX, req.DY, req.DZ)
}

func (u *Usecase) MoveAbsolute(req models.MoveAbsoluteRequest) {
	u.table.MoveAbsolute(req.X, req.Y, req.Z)
}

func (u *Usecase) AbortMove() {
	u.table.Abort()
}

func (u *Usecase) Calibrate(req models.AxisMaskRequest) {
	u.table.Calibrate(models.AxisMask{X: req.X, Y: req.Y, Z: req.Z})
}

func (u *Usecase) RangeMeasure(req models.AxisMaskRequest) {
	u.table.RangeMeasure(models.AxisMask{X: req.X, Y: req.Y, Z: req.Z})
}

func (u *Usecase) EnableJoystick(enabled bool) {
	u.table.EnableJoystick(enabled)
}

func (u *Usecase) SetZLimit(req models.ZLimitRequest) {
	u.table.SetZLimit(req.Value)
	u.table.SetZLimitEnabled(req.Enabled)
}

func (u *Usecase) ConnectionInfo() *models.ConnectionInfo {
	return u.table.ConnectionInfo()
}

func (u *Usecase) CreatePosition(req models.TablePositionRequest) (*entities.TablePosition, error) {
	position := &entities.TablePosition{
		ID:      uuid.NewString(),
		Name:    req.Name,
		X:       req.X,
		Y:       req.Y,
		Z:       req.Z,
		Comment: req.Comment,
	}
	if err := u.positions.Create(position); err != nil {
		return nil, err
	}
	return position, nil
}

func (u *Usecase) GetPositions() ([]entities.TablePosition, error) {
	return u.positions.GetAll()
}

func (u *Usecase) GetPosition(id string) (*entities.TablePosition, error) {
	return u.positions.GetByID(id)
}

func (u *Usecase) UpdatePosition(id string, req models.TablePositionRequest) (*entities.TablePosition, error) {
	position := &entities.TablePosition{
		ID:      id,
		Name:    req.Name,
		X:       req.X,
		Y:       req.Y,
		Z:       req.Z,
		Comment: req.Comment,
	}
	if err := u.positions.Update(position); err != nil {
		return nil, err
	}
	return u.positions.GetByID(id)
}

func (u *Usecase) DeletePosition(id string) error {
	return u.positions.Delete(id)
}

// MoveToPosition enqueues an absolute move to a stored position.
func (u *Usecase) MoveToPosition(id string) error {
	position, err := u.positions.GetByID(id)
	if err != nil {
		return err
	}
	u.table.MoveAbsolute(position.X, position.Y, position.Z)
	return nil
}
