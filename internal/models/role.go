package models

import (
	"errors"
	"fmt"
	"strings"
)

// Role 用户角色，注册时确定，之后不再变更
type Role string

const (
	RoleReader     Role = "reader"
	RoleEditor     Role = "editor"
	RoleJournalist Role = "journalist"
)

var ErrUnknownRole = errors.New("unknown role")

// ParseRole 解析角色字符串，空字符串按 reader 处理
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case "", RoleReader:
		return RoleReader, nil
	case RoleEditor:
		return RoleEditor, nil
	case RoleJournalist:
		return RoleJournalist, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
}

func (r Role) Valid() bool {
	switch r {
	case RoleReader, RoleEditor, RoleJournalist:
		return true
	}
	return false
}

// CanAuthor 是否可以作为文章作者
func (r Role) CanAuthor() bool {
	switch r {
	case RoleJournalist, RoleEditor:
		return true
	case RoleReader:
		return false
	}
	return false
}

func (r Role) String() string {
	return string(r)
}
