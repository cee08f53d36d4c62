// Package testutil 测试用的数据库与数据构造工具
package testutil

import (
	"fmt"
	"newsroom/internal/db"
	"newsroom/internal/models"
	"sync/atomic"
	"testing"

	"gorm.io/gorm"
)

var seq atomic.Int64

// NewDB 每个测试一个独立的内存 sqlite 库
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := db.Open("file::memory:")
	if err != nil {
		t.Fatal(err)
	}
	if err := db.Migrate(conn); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return conn
}

func CreateUser(t *testing.T, conn *gorm.DB, role models.Role) *models.User {
	t.Helper()
	n := seq.Add(1)
	user := &models.User{
		Username: fmt.Sprintf("%s%d", role, n),
		Email:    fmt.Sprintf("%s%d@example.com", role, n),
		Password: "x",
		Role:     role,
	}
	if err := conn.Create(user).Error; err != nil {
		t.Fatal(err)
	}
	return user
}

func CreatePublisher(t *testing.T, conn *gorm.DB, name string) *models.Publisher {
	t.Helper()
	p := &models.Publisher{Name: name}
	if err := conn.Create(p).Error; err != nil {
		t.Fatal(err)
	}
	return p
}

func CreateArticle(t *testing.T, conn *gorm.DB, author *models.User, publisher *models.Publisher, approved bool) *models.Article {
	t.Helper()
	a := &models.Article{
		Title:    fmt.Sprintf("Article %d", seq.Add(1)),
		Content:  "Some **content**",
		AuthorID: author.ID,
	}
	if publisher != nil {
		a.PublisherID = &publisher.ID
	}
	if err := conn.Create(a).Error; err != nil {
		t.Fatal(err)
	}
	if approved {
		if err := conn.Model(a).Update("is_approved", true).Error; err != nil {
			t.Fatal(err)
		}
		a.IsApproved = true
	}
	return a
}
