package services

import (
	"context"
	"newsroom/internal/models"
	"newsroom/internal/repository"
)

type NotificationService struct {
	notifications repository.NotificationRepository
}

func NewNotificationService(notifications repository.NotificationRepository) *NotificationService {
	return &NotificationService{notifications: notifications}
}

// ListNotifications 当前用户收到的邮件通知记录
func (s *NotificationService) ListNotifications(ctx context.Context, actor *models.User, limit int) ([]models.Notification, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}
	return s.notifications.ListForUser(actor.ID, limit)
}
