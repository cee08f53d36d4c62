package repository

import (
	"newsroom/internal/models"

	"gorm.io/gorm"
)

// SubscriptionRepository 两张独立的订阅边表：读者→出版方，读者→记者
type SubscriptionRepository interface {
	AddPublisher(readerID, publisherID uint) error
	RemovePublisher(readerID, publisherID uint) (bool, error)
	HasPublisher(readerID, publisherID uint) (bool, error)
	PublisherIDsIn(readerID uint, publisherIDs []uint) (map[uint]bool, error)

	AddJournalist(readerID, journalistID uint) error
	RemoveJournalist(readerID, journalistID uint) (bool, error)
	HasJournalist(readerID, journalistID uint) (bool, error)
	JournalistIDsIn(readerID uint, journalistIDs []uint) (map[uint]bool, error)

	Audience(publisherID *uint, journalistID *uint) ([]models.User, error)
}

type subscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

// AddPublisher 重复订阅时返回 gorm.ErrDuplicatedKey（依赖联合唯一索引）
func (r *subscriptionRepository) AddPublisher(readerID, publisherID uint) error {
	return r.db.Create(&models.PublisherSubscription{ReaderID: readerID, PublisherID: publisherID}).Error
}

func (r *subscriptionRepository) RemovePublisher(readerID, publisherID uint) (bool, error) {
	result := r.db.Where("reader_id = ? AND publisher_id = ?", readerID, publisherID).
		Delete(&models.PublisherSubscription{})
	return result.RowsAffected > 0, result.Error
}

func (r *subscriptionRepository) HasPublisher(readerID, publisherID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.PublisherSubscription{}).
		Where("reader_id = ? AND publisher_id = ?", readerID, publisherID).
		Count(&count).Error
	return count > 0, err
}

func (r *subscriptionRepository) PublisherIDsIn(readerID uint, publisherIDs []uint) (map[uint]bool, error) {
	set := make(map[uint]bool)
	if len(publisherIDs) == 0 {
		return set, nil
	}
	var ids []uint
	err := r.db.Model(&models.PublisherSubscription{}).
		Where("reader_id = ? AND publisher_id IN ?", readerID, publisherIDs).
		Pluck("publisher_id", &ids).Error
	for _, id := range ids {
		set[id] = true
	}
	return set, err
}

func (r *subscriptionRepository) AddJournalist(readerID, journalistID uint) error {
	return r.db.Create(&models.JournalistSubscription{ReaderID: readerID, JournalistID: journalistID}).Error
}

func (r *subscriptionRepository) RemoveJournalist(readerID, journalistID uint) (bool, error) {
	result := r.db.Where("reader_id = ? AND journalist_id = ?", readerID, journalistID).
		Delete(&models.JournalistSubscription{})
	return result.RowsAffected > 0, result.Error
}

func (r *subscriptionRepository) HasJournalist(readerID, journalistID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.JournalistSubscription{}).
		Where("reader_id = ? AND journalist_id = ?", readerID, journalistID).
		Count(&count).Error
	return count > 0, err
}

func (r *subscriptionRepository) JournalistIDsIn(readerID uint, journalistIDs []uint) (map[uint]bool, error) {
	set := make(map[uint]bool)
	if len(journalistIDs) == 0 {
		return set, nil
	}
	var ids []uint
	err := r.db.Model(&models.JournalistSubscription{}).
		Where("reader_id = ? AND journalist_id IN ?", readerID, journalistIDs).
		Pluck("journalist_id", &ids).Error
	for _, id := range ids {
		set[id] = true
	}
	return set, err
}

// Audience 实时查询订阅了出版方或记者的读者（去重），两个参数都为空时返回空集合
func (r *subscriptionRepository) Audience(publisherID *uint, journalistID *uint) ([]models.User, error) {
	var users []models.User
	if publisherID == nil && journalistID == nil {
		return users, nil
	}

	cond := r.db.Where("1 = 0")
	if publisherID != nil {
		byPublisher := r.db.Model(&models.PublisherSubscription{}).
			Select("reader_id").
			Where("publisher_id = ?", *publisherID)
		cond = cond.Or("id IN (?)", byPublisher)
	}
	if journalistID != nil {
		byJournalist := r.db.Model(&models.JournalistSubscription{}).
			Select("reader_id").
			Where("journalist_id = ?", *journalistID)
		cond = cond.Or("id IN (?)", byJournalist)
	}

	err := r.db.Where("role = ?", models.RoleReader).
		Where(cond).
		Order("id ASC").
		Find(&users).Error
	return users, err
}
