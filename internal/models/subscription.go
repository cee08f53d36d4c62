package models

import (
	"time"
)

// SubscriptionKind 订阅目标类型
type SubscriptionKind string

const (
	KindPublisher  SubscriptionKind = "publisher"
	KindJournalist SubscriptionKind = "journalist"
)

// PublisherSubscription 读者订阅出版方
type PublisherSubscription struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ReaderID    uint      `gorm:"not null;uniqueIndex:idx_reader_publisher" json:"reader_id"`
	Reader      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	PublisherID uint      `gorm:"not null;uniqueIndex:idx_reader_publisher;index" json:"publisher_id"`
	Publisher   Publisher `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}

// JournalistSubscription 读者订阅记者，目标必须是 journalist
type JournalistSubscription struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	ReaderID     uint      `gorm:"not null;uniqueIndex:idx_reader_journalist" json:"reader_id"`
	Reader       User      `gorm:"foreignKey:ReaderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	JournalistID uint      `gorm:"not null;uniqueIndex:idx_reader_journalist;index" json:"journalist_id"`
	Journalist   User      `gorm:"foreignKey:JournalistID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

func ParseSubscriptionKind(s string) (SubscriptionKind, bool) {
	switch SubscriptionKind(s) {
	case KindPublisher:
		return KindPublisher, true
	case KindJournalist:
		return KindJournalist, true
	}
	return "", false
}
