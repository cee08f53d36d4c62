package repository

import (
	"newsroom/internal/models"

	"gorm.io/gorm"
)

type PublisherRepository interface {
	Create(publisher *models.Publisher) error
	GetByID(id uint) (*models.Publisher, error)
	List() ([]models.Publisher, error)
	AddStaff(publisherID uint, user *models.User) error
	Delete(id uint) error
}

type publisherRepository struct {
	db *gorm.DB
}

func NewPublisherRepository(db *gorm.DB) PublisherRepository {
	return &publisherRepository{db: db}
}

func (r *publisherRepository) Create(publisher *models.Publisher) error {
	return r.db.Create(publisher).Error
}

func (r *publisherRepository) GetByID(id uint) (*models.Publisher, error) {
	var publisher models.Publisher
	if err := r.db.First(&publisher, id).Error; err != nil {
		return nil, err
	}
	return &publisher, nil
}

func (r *publisherRepository) List() ([]models.Publisher, error) {
	var publishers []models.Publisher
	err := r.db.Order("name ASC").Find(&publishers).Error
	return publishers, err
}

// AddStaff 按角色把用户加入编辑或记者名单
func (r *publisherRepository) AddStaff(publisherID uint, user *models.User) error {
	publisher := &models.Publisher{ID: publisherID}
	switch user.Role {
	case models.RoleEditor:
		return r.db.Model(publisher).Association("Editors").Append(user)
	case models.RoleJournalist:
		return r.db.Model(publisher).Association("Journalists").Append(user)
	case models.RoleReader:
		return gorm.ErrInvalidData
	}
	return gorm.ErrInvalidData
}

// Delete 删除出版方：文章保留但解除关联，订阅关系一并删除
func (r *publisherRepository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Article{}).
			Where("publisher_id = ?", id).
			Update("publisher_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Where("publisher_id = ?", id).Delete(&models.PublisherSubscription{}).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM publisher_editors WHERE publisher_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM publisher_journalists WHERE publisher_id = ?", id).Error; err != nil {
			return err
		}

		result := tx.Delete(&models.Publisher{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
