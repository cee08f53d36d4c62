package repository

import (
	"newsroom/internal/models"

	"gorm.io/gorm"
)

type NewsletterRepository interface {
	Create(newsletter *models.Newsletter) error
	List(limit int) ([]models.Newsletter, error)
}

type newsletterRepository struct {
	db *gorm.DB
}

func NewNewsletterRepository(db *gorm.DB) NewsletterRepository {
	return &newsletterRepository{db: db}
}

func (r *newsletterRepository) Create(newsletter *models.Newsletter) error {
	return r.db.Create(newsletter).Error
}

func (r *newsletterRepository) List(limit int) ([]models.Newsletter, error) {
	if limit <= 0 || limit > MaxListLimit {
		limit = DefaultListLimit
	}
	var newsletters []models.Newsletter
	err := r.db.Preload("Author").
		Order("published_date DESC").
		Order("id DESC").
		Limit(limit).
		Find(&newsletters).Error
	return newsletters, err
}
