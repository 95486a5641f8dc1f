package table_position

import (
	"gorm.io/gorm"

	"github.com/hephylab/tableService/internal/domain/entities"
)

func (r *TablePositionRepositoryImpl) Create(position *entities.TablePosition) error {
	return r.db.Create(position).Error
}

func (r *TablePositionRepositoryImpl) GetByID(id string) (*entities.TablePosition, error) {
	var position entities.TablePosition
	err := r.db.Where("id = ?", id).First(&position).Error
	if err != nil {
		return nil, err
	}
	return &position, nil
}

func (r *TablePositionRepositoryImpl) GetAll() ([]entities.TablePosition, error) {
	var positions []entities.TablePosition
	if err := r.db.Order("name").Find(&positions).Error; err != nil {
		return nil, err
	}
	return positions, nil
}

func (r *TablePositionRepositoryImpl) Update(position *entities.TablePosition) error {
	result := r.db.Model(&entities.TablePosition{}).
		Where("id = ?", position.ID).
		Updates(map[string]interface{}{
			"name":    position.Name,
			"x":       position.X,
			"y":       position.Y,
			"z":       position.Z,
			"comment": position.Comment,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *TablePositionRepositoryImpl) Delete(id string) error {
	result := r.db.Where("id = ?", id).Delete(&entities.TablePosition{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
