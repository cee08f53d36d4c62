package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"newsroom/internal/models"
	"newsroom/internal/repository"

	"gorm.io/gorm"
)

type SubscriptionService struct {
	users         repository.UserRepository
	publishers    repository.PublisherRepository
	subscriptions repository.SubscriptionRepository
}

func NewSubscriptionService(users repository.UserRepository, publishers repository.PublisherRepository, subscriptions repository.SubscriptionRepository) *SubscriptionService {
	return &SubscriptionService{
		users:         users,
		publishers:    publishers,
		subscriptions: subscriptions,
	}
}

// Subscribe 已订阅时返回 ErrAlreadySubscribed
func (s *SubscriptionService) Subscribe(ctx context.Context, actor *models.User, kind models.SubscriptionKind, targetID uint) error {
	if !CanManageSubscriptions(actor) {
		return ErrPermissionDenied
	}
	if err := s.requireTarget(kind, targetID); err != nil {
		return err
	}

	exists, err := s.has(actor.ID, kind, targetID)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s %d", ErrAlreadySubscribed, kind, targetID)
	}

	switch kind {
	case models.KindPublisher:
		err = s.subscriptions.AddPublisher(actor.ID, targetID)
	case models.KindJournalist:
		err = s.subscriptions.AddJournalist(actor.ID, targetID)
	}
	if err != nil {
		// 并发重复订阅由唯一索引兜底
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: %s %d", ErrAlreadySubscribed, kind, targetID)
		}
		slog.Error("error adding subscription", "reader_id", actor.ID, "kind", kind, "target_id", targetID, "error", err)
		return err
	}

	slog.Info("subscribed", "reader_id", actor.ID, "kind", kind, "target_id", targetID)
	return nil
}

// Unsubscribe 未订阅时返回 ErrNotSubscribed，不做任何修改
func (s *SubscriptionService) Unsubscribe(ctx context.Context, actor *models.User, kind models.SubscriptionKind, targetID uint) error {
	if !CanManageSubscriptions(actor) {
		return ErrPermissionDenied
	}
	if err := s.requireTarget(kind, targetID); err != nil {
		return err
	}

	var (
		removed bool
		err     error
	)
	switch kind {
	case models.KindPublisher:
		removed, err = s.subscriptions.RemovePublisher(actor.ID, targetID)
	case models.KindJournalist:
		removed, err = s.subscriptions.RemoveJournalist(actor.ID, targetID)
	}
	if err != nil {
		slog.Error("error removing subscription", "reader_id", actor.ID, "kind", kind, "target_id", targetID, "error", err)
		return err
	}
	if !removed {
		return fmt.Errorf("%w: %s %d", ErrNotSubscribed, kind, targetID)
	}

	slog.Info("unsubscribed", "reader_id", actor.ID, "kind", kind, "target_id", targetID)
	return nil
}

// IsSubscribed 单条存在性查询，非读者恒为 false
func (s *SubscriptionService) IsSubscribed(ctx context.Context, actor *models.User, kind models.SubscriptionKind, targetID uint) (bool, error) {
	if !actor.IsReader() {
		return false, nil
	}
	if _, ok := models.ParseSubscriptionKind(string(kind)); !ok {
		return false, validationError("unknown subscription type %q", kind)
	}
	return s.has(actor.ID, kind, targetID)
}

// SubscribedTargets 列表页批量标注，一次 IN 查询
func (s *SubscriptionService) SubscribedTargets(ctx context.Context, actor *models.User, kind models.SubscriptionKind, targetIDs []uint) (map[uint]bool, error) {
	if !actor.IsReader() {
		return map[uint]bool{}, nil
	}
	switch kind {
	case models.KindPublisher:
		return s.subscriptions.PublisherIDsIn(actor.ID, targetIDs)
	case models.KindJournalist:
		return s.subscriptions.JournalistIDsIn(actor.ID, targetIDs)
	}
	return nil, validationError("unknown subscription type %q", kind)
}

func (s *SubscriptionService) has(readerID uint, kind models.SubscriptionKind, targetID uint) (bool, error) {
	switch kind {
	case models.KindPublisher:
		return s.subscriptions.HasPublisher(readerID, targetID)
	case models.KindJournalist:
		return s.subscriptions.HasJournalist(readerID, targetID)
	}
	return false, validationError("unknown subscription type %q", kind)
}

// requireTarget 出版方必须存在；记者目标必须存在且角色为 journalist
func (s *SubscriptionService) requireTarget(kind models.SubscriptionKind, targetID uint) error {
	switch kind {
	case models.KindPublisher:
		if _, err := s.publishers.GetByID(targetID); err != nil {
			return notFoundOr(err, "publisher", targetID)
		}
		return nil
	case models.KindJournalist:
		user, err := s.users.GetByID(targetID)
		if err != nil {
			return notFoundOr(err, "journalist", targetID)
		}
		if !user.IsJournalist() {
			return fmt.Errorf("%w: user %d is not a journalist", ErrInvalidTarget, targetID)
		}
		return nil
	}
	return validationError("unknown subscription type %q", kind)
}
