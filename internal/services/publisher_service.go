package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"newsroom/internal/models"
	"newsroom/internal/repository"
	"strings"

	"gorm.io/gorm"
)

type PublisherEntry struct {
	models.Publisher
	IsSubscribed bool `json:"is_subscribed"`
}

type JournalistEntry struct {
	ID           uint   `json:"id"`
	Username     string `json:"username"`
	IsSubscribed bool   `json:"is_subscribed"`
}

// PublisherService 出版方与记者目录
type PublisherService struct {
	publishers    repository.PublisherRepository
	users         repository.UserRepository
	subscriptions *SubscriptionService
}

func NewPublisherService(publishers repository.PublisherRepository, users repository.UserRepository, subscriptions *SubscriptionService) *PublisherService {
	return &PublisherService{
		publishers:    publishers,
		users:         users,
		subscriptions: subscriptions,
	}
}

func (s *PublisherService) CreatePublisher(ctx context.Context, actor *models.User, name, description, logo string) (*models.Publisher, error) {
	if !CanManagePublishers(actor) {
		return nil, ErrPermissionDenied
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationError("publisher name is required")
	}

	publisher := &models.Publisher{
		Name:        name,
		Description: strings.TrimSpace(description),
		Logo:        strings.TrimSpace(logo),
	}
	if err := s.publishers.Create(publisher); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, validationError("publisher %q already exists", name)
		}
		slog.Error("error creating publisher", "name", name, "error", err)
		return nil, err
	}
	slog.Info("publisher created", "publisher_id", publisher.ID, "editor_id", actor.ID)
	return publisher, nil
}

// DeletePublisher 文章保留，publisher_id 置空
func (s *PublisherService) DeletePublisher(ctx context.Context, actor *models.User, id uint) error {
	if !CanManagePublishers(actor) {
		return ErrPermissionDenied
	}
	if err := s.publishers.Delete(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: publisher %d", ErrNotFound, id)
		}
		slog.Error("error deleting publisher", "publisher_id", id, "error", err)
		return err
	}
	slog.Info("publisher deleted", "publisher_id", id, "editor_id", actor.ID)
	return nil
}

// AddStaff 把记者或编辑加入出版方名单
func (s *PublisherService) AddStaff(ctx context.Context, actor *models.User, publisherID, userID uint) error {
	if !CanManagePublishers(actor) {
		return ErrPermissionDenied
	}
	if _, err := s.publishers.GetByID(publisherID); err != nil {
		return notFoundOr(err, "publisher", publisherID)
	}
	user, err := s.users.GetByID(userID)
	if err != nil {
		return notFoundOr(err, "user", userID)
	}
	if !user.Role.CanAuthor() {
		return fmt.Errorf("%w: user %d cannot join publisher staff", ErrInvalidTarget, userID)
	}
	return s.publishers.AddStaff(publisherID, user)
}

func (s *PublisherService) ListPublishers(ctx context.Context, actor *models.User) ([]PublisherEntry, error) {
	publishers, err := s.publishers.List()
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(publishers))
	for _, p := range publishers {
		ids = append(ids, p.ID)
	}
	subscribed, err := s.subscriptions.SubscribedTargets(ctx, actor, models.KindPublisher, ids)
	if err != nil {
		return nil, err
	}

	entries := make([]PublisherEntry, 0, len(publishers))
	for _, p := range publishers {
		entries = append(entries, PublisherEntry{Publisher: p, IsSubscribed: subscribed[p.ID]})
	}
	return entries, nil
}

func (s *PublisherService) ListJournalists(ctx context.Context, actor *models.User) ([]JournalistEntry, error) {
	journalists, err := s.users.ListByRole(models.RoleJournalist)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(journalists))
	for _, j := range journalists {
		ids = append(ids, j.ID)
	}
	subscribed, err := s.subscriptions.SubscribedTargets(ctx, actor, models.KindJournalist, ids)
	if err != nil {
		return nil, err
	}

	entries := make([]JournalistEntry, 0, len(journalists))
	for _, j := range journalists {
		entries = append(entries, JournalistEntry{ID: j.ID, Username: j.Username, IsSubscribed: subscribed[j.ID]})
	}
	return entries, nil
}
