package models

import (
	"time"
)

type NotificationChannel string

const (
	ChannelEmail  NotificationChannel = "email"
	ChannelSocial NotificationChannel = "social"
)

type NotificationStatus string

const (
	NotificationSent        NotificationStatus = "sent"
	NotificationFailed      NotificationStatus = "failed"
	NotificationUnconfirmed NotificationStatus = "unconfirmed" // 超时时对方可能已经收到，补发时按已送达处理
)

// DeliveredStatuses 补发时视为已送达的状态
var DeliveredStatuses = []NotificationStatus{NotificationSent, NotificationUnconfirmed}

// Notification 审核通过后的一次投递记录，每个收件人一条，社交平台一条
type Notification struct {
	ID        uint                `gorm:"primaryKey" json:"id"`
	EpisodeID string              `gorm:"size:36;not null;index" json:"episode_id"` // 同一次分发共用
	ArticleID uint                `gorm:"not null;index" json:"article_id"`
	Article   Article             `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	UserID    *uint               `gorm:"index" json:"user_id,omitempty"` // Receiver, social 为空
	User      *User               `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Channel   NotificationChannel `gorm:"type:varchar(20);not null" json:"channel"`
	Status    NotificationStatus  `gorm:"type:varchar(20);not null;index" json:"status"`
	Error     string              `gorm:"type:text" json:"error,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
}
