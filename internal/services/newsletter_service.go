package services

import (
	"context"
	"log/slog"
	"newsroom/internal/models"
	"newsroom/internal/repository"
)

type NewsletterService struct {
	newsletters repository.NewsletterRepository
}

func NewNewsletterService(newsletters repository.NewsletterRepository) *NewsletterService {
	return &NewsletterService{newsletters: newsletters}
}

// CreateNewsletter 简报直接发布，不经过审核也不触发通知
func (s *NewsletterService) CreateNewsletter(ctx context.Context, actor *models.User, title, content string) (*models.Newsletter, error) {
	if !CanWriteNewsletter(actor) {
		return nil, ErrPermissionDenied
	}
	title, err := validateTitle(title)
	if err != nil {
		return nil, err
	}
	content, err = validateContent(content)
	if err != nil {
		return nil, err
	}

	newsletter := &models.Newsletter{
		AuthorID: actor.ID,
		Title:    title,
		Content:  content,
	}
	if err := s.newsletters.Create(newsletter); err != nil {
		slog.Error("error creating newsletter", "author_id", actor.ID, "error", err)
		return nil, err
	}
	newsletter.Author = *actor
	return newsletter, nil
}

func (s *NewsletterService) ListNewsletters(ctx context.Context, limit int) ([]models.Newsletter, error) {
	return s.newsletters.List(limit)
}
