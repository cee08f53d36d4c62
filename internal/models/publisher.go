package models

import (
	"time"
)

// Publisher 出版方，读者可以订阅
type Publisher struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:200;not null;uniqueIndex" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Logo        string    `json:"logo,omitempty"`
	Editors     []User    `gorm:"many2many:publisher_editors;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Journalists []User    `gorm:"many2many:publisher_journalists;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
