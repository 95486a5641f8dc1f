package usecases

import "github.com/hephylab/tableService/internal/interfaces"

// NewUsecases wires the controller and the repository into one facade.
func NewUsecases(
	table interfaces.TableController,
	positions interfaces.TablePositionRepository,
) interfaces.Usecases {
	return NewUsecase(table, positions)
}
