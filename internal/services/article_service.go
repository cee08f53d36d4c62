package services

import (
	"context"
	"errors"
	"log/slog"
	"newsroom/internal/models"
	"newsroom/internal/repository"
	"newsroom/internal/utils"
	"path"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"
)

type ApprovalOutcome string

const (
	ApprovalApproved        ApprovalOutcome = "approved"
	ApprovalAlreadyApproved ApprovalOutcome = "already_approved"
)

// ApprovalNotifier 文章真正从草稿变为已发布后调用一次
type ApprovalNotifier interface {
	Notify(ctx context.Context, articleID uint)
}

const (
	maxTitleLength = 255
	maxImageLength = 500
)

type ArticleInput struct {
	Title       string
	Content     string
	PublisherID *uint
	Image       string
	SourceURL   string
}

// ArticleUpdate 为 nil 的字段不修改
type ArticleUpdate struct {
	Title          *string
	Content        *string
	PublisherID    *uint
	ClearPublisher bool
	Image          *string
	IsApproved     *bool
	AuthorID       *uint
}

// ArticleFilter Status 取值 all / approved / pending
type ArticleFilter struct {
	PublisherID *uint
	AuthorID    *uint
	Status      string
	Limit       int
	Offset      int
}

type ArticleService struct {
	articles   repository.ArticleRepository
	publishers repository.PublisherRepository
	notifier   ApprovalNotifier
}

func NewArticleService(articles repository.ArticleRepository, publishers repository.PublisherRepository, notifier ApprovalNotifier) *ArticleService {
	return &ArticleService{
		articles:   articles,
		publishers: publishers,
		notifier:   notifier,
	}
}

func (s *ArticleService) load(id uint) (*models.Article, error) {
	article, err := s.articles.GetByID(id)
	if err != nil {
		return nil, notFoundOr(err, "article", id)
	}
	return article, nil
}

// CreateArticle 新文章一律是草稿，与调用者和提交的字段无关
func (s *ArticleService) CreateArticle(ctx context.Context, author *models.User, in ArticleInput) (*models.Article, error) {
	if !CanCreateArticle(author) {
		return nil, ErrPermissionDenied
	}

	title, err := validateTitle(in.Title)
	if err != nil {
		return nil, err
	}
	content, err := validateContent(in.Content)
	if err != nil {
		return nil, err
	}
	image, err := validateImage(in.Image)
	if err != nil {
		return nil, err
	}
	if err := s.requirePublisher(in.PublisherID); err != nil {
		return nil, err
	}

	article := &models.Article{
		Title:       title,
		Content:     content,
		PublisherID: in.PublisherID,
		AuthorID:    author.ID,
		IsApproved:  false,
		Image:       image,
		SourceURL:   strings.TrimSpace(in.SourceURL),
	}
	if err := s.articles.Create(article); err != nil {
		slog.Error("error creating article", "author_id", author.ID, "error", err)
		return nil, err
	}
	slog.Info("article submitted", "article_id", article.ID, "author_id", author.ID)

	return s.load(article.ID)
}

// GetArticle 不可见的草稿按不存在处理
func (s *ArticleService) GetArticle(ctx context.Context, actor *models.User, id uint) (*models.Article, error) {
	article, err := s.load(id)
	if err != nil {
		return nil, err
	}
	if !CanViewArticle(actor, article) {
		return nil, ErrNotFound
	}
	return article, nil
}

func (s *ArticleService) UpdateArticle(ctx context.Context, actor *models.User, id uint, upd ArticleUpdate) (*models.Article, error) {
	article, err := s.GetArticle(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !CanModifyArticle(actor, article) {
		return nil, ErrPermissionDenied
	}

	if upd.AuthorID != nil && *upd.AuthorID != article.AuthorID {
		return nil, validationError("author cannot be changed")
	}
	if upd.IsApproved != nil {
		if !CanSetApproval(actor) {
			return nil, ErrPermissionDenied
		}
		if !*upd.IsApproved && article.IsApproved {
			return nil, validationError("published articles cannot be moved back to draft")
		}
	}

	fields := make(map[string]interface{})
	if upd.Title != nil {
		title, err := validateTitle(*upd.Title)
		if err != nil {
			return nil, err
		}
		fields["title"] = title
	}
	if upd.Content != nil {
		content, err := validateContent(*upd.Content)
		if err != nil {
			return nil, err
		}
		fields["content"] = content
	}
	if upd.Image != nil {
		image, err := validateImage(*upd.Image)
		if err != nil {
			return nil, err
		}
		fields["image"] = image
	}
	switch {
	case upd.ClearPublisher:
		fields["publisher_id"] = nil
	case upd.PublisherID != nil:
		if err := s.requirePublisher(upd.PublisherID); err != nil {
			return nil, err
		}
		fields["publisher_id"] = *upd.PublisherID
	}

	if err := s.articles.UpdateFields(id, fields); err != nil {
		slog.Error("error updating article", "article_id", id, "error", err)
		return nil, err
	}
	if len(fields) > 0 {
		utils.EvictArticleHTML(id, article.UpdatedAt)
	}

	// 编辑通过更新接口置 is_approved=true 与调用 approve 等价
	if upd.IsApproved != nil && *upd.IsApproved {
		if _, err := s.approve(ctx, actor, id); err != nil {
			return nil, err
		}
	}

	return s.load(id)
}

func (s *ArticleService) DeleteArticle(ctx context.Context, actor *models.User, id uint) error {
	article, err := s.GetArticle(ctx, actor, id)
	if err != nil {
		return err
	}
	if !CanModifyArticle(actor, article) {
		return ErrPermissionDenied
	}
	if err := s.articles.Delete(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		slog.Error("error deleting article", "article_id", id, "error", err)
		return err
	}
	utils.EvictArticleHTML(id, article.UpdatedAt)
	slog.Info("article deleted", "article_id", id, "actor_id", actor.ID)
	return nil
}

// ApproveArticle 草稿→已发布。重复审核返回 ApprovalAlreadyApproved，不会再次通知
func (s *ArticleService) ApproveArticle(ctx context.Context, actor *models.User, id uint) (ApprovalOutcome, error) {
	if _, err := s.GetArticle(ctx, actor, id); err != nil {
		return "", err
	}
	if !CanSetApproval(actor) {
		return "", ErrPermissionDenied
	}
	return s.approve(ctx, actor, id)
}

func (s *ArticleService) approve(ctx context.Context, actor *models.User, id uint) (ApprovalOutcome, error) {
	fresh, err := s.articles.MarkApproved(id)
	if err != nil {
		slog.Error("error approving article", "article_id", id, "error", err)
		return "", err
	}
	if !fresh {
		slog.Info("article already approved", "article_id", id, "editor_id", actor.ID)
		return ApprovalAlreadyApproved, nil
	}

	slog.Info("article approved", "article_id", id, "editor_id", actor.ID)
	// 状态已提交，通知失败不影响审核结果；请求断开也不能中断分发
	if s.notifier != nil {
		s.notifier.Notify(context.WithoutCancel(ctx), id)
	}
	return ApprovalApproved, nil
}

func (s *ArticleService) ListVisibleArticles(ctx context.Context, actor *models.User, filter ArticleFilter) ([]models.Article, error) {
	query := repository.ArticleQuery{
		PublisherID: filter.PublisherID,
		AuthorID:    filter.AuthorID,
		Limit:       filter.Limit,
		Offset:      filter.Offset,
	}
	if actor != nil {
		switch actor.Role {
		case models.RoleEditor:
			query.IncludeDrafts = true
		case models.RoleJournalist, models.RoleReader:
			query.ViewerID = actor.ID
		}
	}

	switch filter.Status {
	case "", "all":
	case "approved":
		approved := true
		query.Approved = &approved
	case "pending":
		pending := false
		query.Approved = &pending
	default:
		return nil, validationError("unknown status %q", filter.Status)
	}

	articles, err := s.articles.List(query)
	if err != nil {
		slog.Error("error listing articles", "error", err)
		return nil, err
	}
	return articles, nil
}

func (s *ArticleService) requirePublisher(id *uint) error {
	if id == nil {
		return nil
	}
	if _, err := s.publishers.GetByID(*id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return validationError("publisher %d does not exist", *id)
		}
		return err
	}
	return nil
}

func validateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", validationError("title is required")
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return "", validationError("title must be at most %d characters", maxTitleLength)
	}
	return title, nil
}

func validateContent(content string) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", validationError("content is required")
	}
	return content, nil
}

// validateImage 图片是 MEDIA_ROOT 下的相对路径，不允许跳出目录
func validateImage(image string) (string, error) {
	image = strings.TrimSpace(image)
	if image == "" {
		return "", nil
	}
	if len(image) > maxImageLength {
		return "", validationError("image path too long")
	}
	cleaned := path.Clean(strings.ReplaceAll(image, "\\", "/"))
	if strings.HasPrefix(cleaned, "/") || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", validationError("image must be a relative media path")
	}
	return cleaned, nil
}
