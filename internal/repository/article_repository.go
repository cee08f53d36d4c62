package repository

import (
	"newsroom/internal/models"
	"time"

	"gorm.io/gorm"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 100
)

// ArticleQuery 列表查询条件，可见性由调用方通过 ViewerID / IncludeDrafts 给出
type ArticleQuery struct {
	ViewerID      uint // 0 表示匿名
	IncludeDrafts bool // 编辑可以看到所有草稿
	PublisherID   *uint
	AuthorID      *uint
	Approved      *bool
	Limit         int
	Offset        int
}

type ArticleRepository interface {
	Create(article *models.Article) error
	GetByID(id uint) (*models.Article, error)
	List(params ArticleQuery) ([]models.Article, error)
	UpdateFields(id uint, fields map[string]interface{}) error
	MarkApproved(id uint) (bool, error)
	MarkDispatched(id uint) error
	PendingDispatch(approvedBefore time.Time, limit int) ([]uint, error)
	Delete(id uint) error
	ExistsBySourceURL(url string) (bool, error)
}

type articleRepository struct {
	db *gorm.DB
}

func NewArticleRepository(db *gorm.DB) ArticleRepository {
	return &articleRepository{db: db}
}

func (r *articleRepository) Create(article *models.Article) error {
	return r.db.Create(article).Error
}

func (r *articleRepository) GetByID(id uint) (*models.Article, error) {
	var article models.Article
	err := r.db.Preload("Author").
		Preload("Publisher").
		First(&article, id).Error
	if err != nil {
		return nil, err
	}
	return &article, nil
}

func (r *articleRepository) List(params ArticleQuery) ([]models.Article, error) {
	var articles []models.Article

	query := r.db.Model(&models.Article{}).Preload("Author").Preload("Publisher")

	// 可见性过滤
	if !params.IncludeDrafts {
		if params.ViewerID != 0 {
			query = query.Where("(is_approved = ? OR author_id = ?)", true, params.ViewerID)
		} else {
			query = query.Where("is_approved = ?", true)
		}
	}

	if params.PublisherID != nil {
		query = query.Where("publisher_id = ?", *params.PublisherID)
	}
	if params.AuthorID != nil {
		query = query.Where("author_id = ?", *params.AuthorID)
	}
	if params.Approved != nil {
		query = query.Where("is_approved = ?", *params.Approved)
	}

	limit := params.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	offset := params.Offset
	if offset < 0 {
		offset = 0
	}

	err := query.Order("published_date DESC").Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&articles).Error
	return articles, err
}

// UpdateFields 只更新给定的列，is_approved 与 published_date 不在此处修改
func (r *articleRepository) UpdateFields(id uint, fields map[string]interface{}) error {
	delete(fields, "is_approved")
	delete(fields, "published_date")
	delete(fields, "author_id")
	delete(fields, "approved_at")
	delete(fields, "dispatched_at")
	if len(fields) == 0 {
		return nil
	}
	return r.db.Model(&models.Article{ID: id}).Updates(fields).Error
}

// MarkApproved 条件更新 is_approved，返回本次调用是否真正完成了状态迁移
func (r *articleRepository) MarkApproved(id uint) (bool, error) {
	result := r.db.Model(&models.Article{}).
		Where("id = ? AND is_approved = ?", id, false).
		Updates(map[string]interface{}{"is_approved": true, "approved_at": time.Now()})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// MarkDispatched 只记录第一次完成分发的时间
func (r *articleRepository) MarkDispatched(id uint) error {
	return r.db.Model(&models.Article{}).
		Where("id = ? AND dispatched_at IS NULL", id).
		UpdateColumn("dispatched_at", time.Now()).Error
}

// PendingDispatch 已审核但分发未完成的文章（进程崩溃、异步队列丢失）。
// approved_at 为空的历史数据不参与补发
func (r *articleRepository) PendingDispatch(approvedBefore time.Time, limit int) ([]uint, error) {
	if limit <= 0 || limit > MaxListLimit {
		limit = DefaultListLimit
	}
	var ids []uint
	err := r.db.Model(&models.Article{}).
		Where("is_approved = ? AND dispatched_at IS NULL AND approved_at IS NOT NULL AND approved_at < ?", true, approvedBefore).
		Order("approved_at ASC").
		Limit(limit).
		Pluck("id", &ids).Error
	return ids, err
}

func (r *articleRepository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("article_id = ?", id).Delete(&models.Notification{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.Article{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *articleRepository) ExistsBySourceURL(url string) (bool, error) {
	if url == "" {
		return false, nil
	}
	var count int64
	err := r.db.Model(&models.Article{}).Where("source_url = ?", url).Count(&count).Error
	return count > 0, err
}
