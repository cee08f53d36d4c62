package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"newsroom/internal/config"
	"newsroom/internal/utils"

	"gopkg.in/gomail.v2"
)

var ErrMailDisabled = errors.New("mail service disabled")

// MailService 基于 SMTP 的邮件通道，缺少配置时 Enabled 为 false
type MailService struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Enabled  bool

	send func(m ...*gomail.Message) error
}

func NewMailService(cfg config.SMTPConfig) *MailService {
	enabled := cfg.Configured()
	if !enabled {
		slog.Warn("mail service disabled: missing SMTP environment variables")
	}

	// gomail 建立连接有 10 秒超时
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)

	return &MailService{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Username: cfg.Username,
		Password: cfg.Password,
		From:     cfg.From,
		Enabled:  enabled,
		send:     dialer.DialAndSend,
	}
}

func (s *MailService) buildMessage(to, subject, htmlBody string) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(s.From, "Newsroom"))
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", utils.HTMLToText(htmlBody))
	m.AddAlternative("text/html", htmlBody)
	return m
}

// Send 发送一封 HTML 邮件（附纯文本版本），ctx 到期后立即返回。
// 此时后台的 SMTP 会话仍可能投递成功，返回 ErrDeliveryUnconfirmed
func (s *MailService) Send(ctx context.Context, to, subject, htmlBody string) error {
	if !s.Enabled {
		return ErrMailDisabled
	}

	m := s.buildMessage(to, subject, htmlBody)
	done := make(chan error, 1)
	go func() {
		done <- s.send(m)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to send email to %s: %w", to, err)
		}
		slog.Debug("email sent", "to", to, "subject", subject)
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: sending email to %s: %w", ErrDeliveryUnconfirmed, to, ctx.Err())
	}
}
