package models

import (
	"time"
)

// Newsletter 记者发布的简报，不经过审核流程
type Newsletter struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	AuthorID      uint      `gorm:"not null;index" json:"author_id"`
	Author        User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author"`
	Title         string    `gorm:"size:255;not null" json:"title"`
	Content       string    `gorm:"type:text;not null" json:"content"`
	PublishedDate time.Time `gorm:"autoCreateTime;not null;index" json:"published_date"`
}
