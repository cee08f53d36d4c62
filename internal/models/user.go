package models

import (
	"time"
)

type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"uniqueIndex;size:150;not null" json:"username"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"not null" json:"-"`                                   // Hash
	Role      Role      `gorm:"size:20;default:'reader';not null;index" json:"role"` // reader, editor, journalist
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	// 账号删除为硬删除，订阅关系与文章一并清理
}

func (u *User) IsReader() bool {
	return u != nil && u.Role == RoleReader
}

func (u *User) IsEditor() bool {
	return u != nil && u.Role == RoleEditor
}

func (u *User) IsJournalist() bool {
	return u != nil && u.Role == RoleJournalist
}
