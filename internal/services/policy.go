package services

import (
	"newsroom/internal/models"
)

// 访问控制规则。所有判断都对 Role 做穷举匹配，未知角色一律拒绝。

// CanViewArticle 已发布文章所有人可见；草稿仅作者和编辑可见
func CanViewArticle(actor *models.User, article *models.Article) bool {
	if article.IsApproved {
		return true
	}
	if actor == nil {
		return false
	}
	switch actor.Role {
	case models.RoleEditor:
		return true
	case models.RoleJournalist, models.RoleReader:
		return actor.ID == article.AuthorID
	}
	return false
}

// CanCreateArticle 只有记者可以投稿，编辑走后台
func CanCreateArticle(actor *models.User) bool {
	if actor == nil {
		return false
	}
	switch actor.Role {
	case models.RoleJournalist:
		return true
	case models.RoleEditor, models.RoleReader:
		return false
	}
	return false
}

// CanModifyArticle 作者本人或任意编辑可以修改、删除
func CanModifyArticle(actor *models.User, article *models.Article) bool {
	if actor == nil {
		return false
	}
	switch actor.Role {
	case models.RoleEditor:
		return true
	case models.RoleJournalist, models.RoleReader:
		return actor.ID == article.AuthorID
	}
	return false
}

func CanSetApproval(actor *models.User) bool {
	if actor == nil {
		return false
	}
	switch actor.Role {
	case models.RoleEditor:
		return true
	case models.RoleJournalist, models.RoleReader:
		return false
	}
	return false
}

func CanManageSubscriptions(actor *models.User) bool {
	if actor == nil {
		return false
	}
	switch actor.Role {
	case models.RoleReader:
		return true
	case models.RoleEditor, models.RoleJournalist:
		return false
	}
	return false
}

func CanManagePublishers(actor *models.User) bool {
	return CanSetApproval(actor)
}

func CanWriteNewsletter(actor *models.User) bool {
	return CanCreateArticle(actor)
}
