package repository

import (
	"newsroom/internal/models"

	"gorm.io/gorm"
)

type NotificationRepository interface {
	Create(notification *models.Notification) error
	SentEmailRecipients(articleID uint) (map[uint]bool, error)
	FailedEmailAttempts(articleID uint) (map[uint]int, error)
	HasSentSocial(articleID uint) (bool, error)
	FailedSocialAttempts(articleID uint) (int, error)
	RetryableArticles(maxAttempts int, limit int) ([]uint, error)
	ListForUser(userID uint, limit int) ([]models.Notification, error)
	CountEpisodes(articleID uint) (int64, error)
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(notification *models.Notification) error {
	return r.db.Create(notification).Error
}

// SentEmailRecipients 已成功收到该文章邮件的用户，重复分发时跳过
func (r *notificationRepository) SentEmailRecipients(articleID uint) (map[uint]bool, error) {
	var ids []uint
	err := r.db.Model(&models.Notification{}).
		Where("article_id = ? AND channel = ? AND status IN ? AND user_id IS NOT NULL",
			articleID, models.ChannelEmail, models.DeliveredStatuses).
		Pluck("user_id", &ids).Error
	set := make(map[uint]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, err
}

func (r *notificationRepository) HasSentSocial(articleID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.Notification{}).
		Where("article_id = ? AND channel = ? AND status IN ?", articleID, models.ChannelSocial, models.DeliveredStatuses).
		Count(&count).Error
	return count > 0, err
}

type attemptCount struct {
	UserID uint
	Count  int
}

// FailedEmailAttempts 每个收件人失败的次数
func (r *notificationRepository) FailedEmailAttempts(articleID uint) (map[uint]int, error) {
	var rows []attemptCount
	err := r.db.Model(&models.Notification{}).
		Select("user_id, COUNT(*) AS count").
		Where("article_id = ? AND channel = ? AND status = ? AND user_id IS NOT NULL",
			articleID, models.ChannelEmail, models.NotificationFailed).
		Group("user_id").
		Scan(&rows).Error
	attempts := make(map[uint]int, len(rows))
	for _, row := range rows {
		attempts[row.UserID] = row.Count
	}
	return attempts, err
}

func (r *notificationRepository) FailedSocialAttempts(articleID uint) (int, error) {
	var count int64
	err := r.db.Model(&models.Notification{}).
		Where("article_id = ? AND channel = ? AND status = ?", articleID, models.ChannelSocial, models.NotificationFailed).
		Count(&count).Error
	return int(count), err
}

// RetryableArticles 存在失败投递、之后没有送达且失败次数未达上限的文章
func (r *notificationRepository) RetryableArticles(maxAttempts int, limit int) ([]uint, error) {
	if limit <= 0 || limit > MaxListLimit {
		limit = DefaultListLimit
	}
	delivered := r.db.Table("notifications AS s").
		Select("1").
		Where("s.article_id = n.article_id AND s.channel = n.channel AND COALESCE(s.user_id, 0) = COALESCE(n.user_id, 0) AND s.status IN ?",
			models.DeliveredStatuses)

	var ids []uint
	err := r.db.Table("notifications AS n").
		Select("n.article_id").
		Where("n.status = ?", models.NotificationFailed).
		Where("NOT EXISTS (?)", delivered).
		Group("n.article_id, n.channel, n.user_id").
		Having("COUNT(*) < ?", maxAttempts).
		Order("n.article_id").
		Pluck("n.article_id", &ids).Error
	if err != nil {
		return nil, err
	}

	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *notificationRepository) ListForUser(userID uint, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > MaxListLimit {
		limit = DefaultListLimit
	}
	var notifications []models.Notification
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&notifications).Error
	return notifications, err
}

// CountEpisodes 统计文章触发过几次分发
func (r *notificationRepository) CountEpisodes(articleID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Notification{}).
		Where("article_id = ?", articleID).
		Distinct("episode_id").
		Count(&count).Error
	return count, err
}
