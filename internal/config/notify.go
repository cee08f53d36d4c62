package config

import (
	"time"
)

type SocialCredentials struct {
	APIKey       string
	APISecret    string
	AccessToken  string
	AccessSecret string
}

func (c *SocialCredentials) Complete() bool {
	return c != nil && c.APIKey != "" && c.APISecret != "" && c.AccessToken != "" && c.AccessSecret != ""
}

// NotifyConfig 审核通过通知的开关，构造分发器时传入
type NotifyConfig struct {
	EmailEnabled         bool
	SocialPostingEnabled bool
	SocialCredentials    *SocialCredentials

	SiteURL       string
	EmailTimeout  time.Duration
	SocialTimeout time.Duration
	// MaxAttempts 同一收件人失败达到该次数后不再补发，0 表示不限
	MaxAttempts int
}

// SocialReady 开关打开且凭据齐全
func (c NotifyConfig) SocialReady() bool {
	return c.SocialPostingEnabled && c.SocialCredentials.Complete()
}
