package repository

import (
	"newsroom/internal/models"

	"gorm.io/gorm"
)

type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	ListByRole(role models.Role) ([]models.User, error)
	Delete(id uint) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

func (r *userRepository) GetByID(id uint) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) ListByRole(role models.Role) ([]models.User, error) {
	var users []models.User
	err := r.db.Where("role = ?", role).Order("username ASC").Find(&users).Error
	return users, err
}

// Delete 删除账号，同时清理订阅关系、署名文章和投递记录
func (r *userRepository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		authored := tx.Model(&models.Article{}).Select("id").Where("author_id = ?", id)

		steps := []func() error{
			func() error { return tx.Where("reader_id = ?", id).Delete(&models.PublisherSubscription{}).Error },
			func() error {
				return tx.Where("reader_id = ? OR journalist_id = ?", id, id).Delete(&models.JournalistSubscription{}).Error
			},
			func() error {
				return tx.Where("user_id = ? OR article_id IN (?)", id, authored).Delete(&models.Notification{}).Error
			},
			func() error { return tx.Where("author_id = ?", id).Delete(&models.Article{}).Error },
			func() error { return tx.Where("author_id = ?", id).Delete(&models.Newsletter{}).Error },
			func() error { return tx.Exec("DELETE FROM publisher_editors WHERE user_id = ?", id).Error },
			func() error { return tx.Exec("DELETE FROM publisher_journalists WHERE user_id = ?", id).Error },
		}
		for _, step := range steps {
			if err := step(); err != nil {
				return err
			}
		}

		result := tx.Delete(&models.User{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
