package models

import (
	"time"
)

// ArticleState 文章状态，由 IsApproved 推导
type ArticleState string

const (
	StateDraft     ArticleState = "draft"
	StatePublished ArticleState = "published"
)

type Article struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Title       string     `gorm:"size:255;not null" json:"title"`
	Content     string     `gorm:"type:text;not null" json:"content"`
	PublisherID *uint      `gorm:"index" json:"publisher_id"` // 出版方删除时置空
	Publisher   *Publisher `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"publisher,omitempty"`
	AuthorID    uint       `gorm:"not null;index" json:"author_id"`
	Author      User       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author"`
	IsApproved  bool       `gorm:"not null;default:false;index" json:"is_approved"`
	Image       string     `json:"image,omitempty"`                   // MEDIA_ROOT 下的相对路径
	SourceURL   string     `gorm:"index" json:"source_url,omitempty"` // e.g. RSS 导入的原文链接
	// 投稿时间，创建后不再修改（不是审核通过时间）
	PublishedDate time.Time  `gorm:"autoCreateTime;not null;index" json:"published_date"`
	ApprovedAt    *time.Time `gorm:"index" json:"approved_at,omitempty"`
	DispatchedAt  *time.Time `gorm:"index" json:"-"` // 审核通知完成的时间，为空表示需要补发
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (a *Article) State() ArticleState {
	if a.IsApproved {
		return StatePublished
	}
	return StateDraft
}
