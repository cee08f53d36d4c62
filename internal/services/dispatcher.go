package services

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"newsroom/internal/config"
	"newsroom/internal/models"
	"newsroom/internal/repository"
	"newsroom/internal/utils"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	MaxPostLength = 280
	postEllipsis  = "..."

	defaultEmailTimeout  = 15 * time.Second
	defaultSocialTimeout = 30 * time.Second
)

//go:embed templates/*.html
var emailTemplates embed.FS

var approvedArticleTemplate = template.Must(template.ParseFS(emailTemplates, "templates/approved_article.html"))

// EmailSender 邮件通道，单个收件人失败不影响其他人
type EmailSender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// SocialPoster 社交平台通道，media 为空时只发文字
type SocialPoster interface {
	Post(ctx context.Context, text string, media []byte) error
}

type MediaStore interface {
	Read(path string) ([]byte, error)
}

type DispatcherDeps struct {
	Articles      repository.ArticleRepository
	Subscriptions repository.SubscriptionRepository
	Notifications repository.NotificationRepository
	Mailer        EmailSender
	Poster        SocialPoster
	Media         MediaStore
}

// DispatchReport 一次分发的结果
type DispatchReport struct {
	EpisodeID    string `json:"episode_id"`
	ArticleID    uint   `json:"article_id"`
	Recipients   int    `json:"recipients"`
	Sent         int    `json:"sent"`
	Skipped      int    `json:"skipped"`
	Failed       []uint `json:"failed,omitempty"`
	Unconfirmed  []uint `json:"unconfirmed,omitempty"`
	Exhausted    []uint `json:"exhausted,omitempty"`
	SocialPosted bool   `json:"social_posted"`
}

// Dispatcher 审核通过通知：先逐个发邮件，再发一条社交平台动态
type Dispatcher struct {
	cfg           config.NotifyConfig
	articles      repository.ArticleRepository
	subscriptions repository.SubscriptionRepository
	notifications repository.NotificationRepository
	mailer        EmailSender
	poster        SocialPoster
	media         MediaStore
}

func NewDispatcher(cfg config.NotifyConfig, deps DispatcherDeps) *Dispatcher {
	if cfg.EmailTimeout <= 0 {
		cfg.EmailTimeout = defaultEmailTimeout
	}
	if cfg.SocialTimeout <= 0 {
		cfg.SocialTimeout = defaultSocialTimeout
	}
	if !cfg.SocialReady() {
		slog.Info("social posting disabled", "enabled", cfg.SocialPostingEnabled, "credentials", cfg.SocialCredentials.Complete())
	}
	return &Dispatcher{
		cfg:           cfg,
		articles:      deps.Articles,
		subscriptions: deps.Subscriptions,
		notifications: deps.Notifications,
		mailer:        deps.Mailer,
		poster:        deps.Poster,
		media:         deps.Media,
	}
}

// Notify 实现 ApprovalNotifier，错误只记录日志
func (d *Dispatcher) Notify(ctx context.Context, articleID uint) {
	report, err := d.Dispatch(ctx, articleID)
	if err != nil {
		slog.Error("approval dispatch failed", "article_id", articleID, "error", err)
		return
	}
	slog.Info("approval dispatch finished",
		"episode", report.EpisodeID,
		"article_id", articleID,
		"recipients", report.Recipients,
		"sent", report.Sent,
		"skipped", report.Skipped,
		"failed", len(report.Failed),
		"unconfirmed", len(report.Unconfirmed),
		"social_posted", report.SocialPosted,
	)
}

// Dispatch 读取当前订阅关系计算收件人，已成功投递过的收件人会被跳过。
// 邮件阶段出错时仍然发社交动态，错误在最后返回
func (d *Dispatcher) Dispatch(ctx context.Context, articleID uint) (*DispatchReport, error) {
	article, err := d.articles.GetByID(articleID)
	if err != nil {
		return nil, notFoundOr(err, "article", articleID)
	}
	if !article.IsApproved {
		return nil, validationError("article %d is not approved", articleID)
	}

	report := &DispatchReport{
		EpisodeID: uuid.NewString(),
		ArticleID: article.ID,
	}
	link := ArticleLink(d.cfg.SiteURL, article.ID)

	var emailErr, socialErr error
	if d.cfg.EmailEnabled && d.mailer != nil {
		emailErr = d.sendEmails(ctx, article, link, report)
		if emailErr != nil {
			slog.Error("approval email phase failed", "episode", report.EpisodeID, "article_id", article.ID, "error", emailErr)
		}
	}

	if d.cfg.SocialReady() && d.poster != nil {
		socialErr = d.postSocial(ctx, article, link, report)
	}

	if emailErr != nil {
		return report, emailErr
	}
	if socialErr != nil {
		return report, socialErr
	}
	// 单个收件人的失败已写入日志表，由补发任务处理
	if err := d.articles.MarkDispatched(article.ID); err != nil {
		slog.Error("error marking article dispatched", "article_id", article.ID, "error", err)
	}
	return report, nil
}

// Audience 出版方订阅者 ∪ 作者订阅者（仅当作者是记者）
func (d *Dispatcher) Audience(article *models.Article) ([]models.User, error) {
	var journalistID *uint
	switch article.Author.Role {
	case models.RoleJournalist:
		journalistID = &article.AuthorID
	case models.RoleEditor, models.RoleReader:
	}
	return d.subscriptions.Audience(article.PublisherID, journalistID)
}

func (d *Dispatcher) sendEmails(ctx context.Context, article *models.Article, link string, report *DispatchReport) error {
	audience, err := d.Audience(article)
	if err != nil {
		return fmt.Errorf("error computing audience: %w", err)
	}
	alreadySent, err := d.notifications.SentEmailRecipients(article.ID)
	if err != nil {
		return fmt.Errorf("error loading delivery log: %w", err)
	}
	attempts, err := d.notifications.FailedEmailAttempts(article.ID)
	if err != nil {
		return fmt.Errorf("error loading delivery log: %w", err)
	}

	report.Recipients = len(audience)
	subject := "New Approved Article: " + article.Title

	for _, user := range audience {
		if alreadySent[user.ID] {
			report.Skipped++
			continue
		}
		if d.exhausted(attempts[user.ID]) {
			report.Exhausted = append(report.Exhausted, user.ID)
			continue
		}

		sendErr := d.sendEmail(ctx, article, link, subject, &user)
		d.record(report.EpisodeID, article.ID, &user.ID, models.ChannelEmail, sendErr)
		switch {
		case sendErr == nil:
			report.Sent++
		case errors.Is(sendErr, ErrDeliveryUnconfirmed):
			slog.Warn("approval email unconfirmed, will not resend", "episode", report.EpisodeID, "article_id", article.ID, "user_id", user.ID, "error", sendErr)
			report.Unconfirmed = append(report.Unconfirmed, user.ID)
		default:
			slog.Error("failed to send approval email", "episode", report.EpisodeID, "article_id", article.ID, "user_id", user.ID, "error", sendErr)
			report.Failed = append(report.Failed, user.ID)
		}
	}
	return nil
}

func (d *Dispatcher) exhausted(failures int) bool {
	return d.cfg.MaxAttempts > 0 && failures >= d.cfg.MaxAttempts
}

func (d *Dispatcher) sendEmail(ctx context.Context, article *models.Article, link, subject string, user *models.User) error {
	body, err := RenderApprovalEmail(article, user, link)
	if err != nil {
		return err
	}
	sendCtx, cancel := context.WithTimeout(ctx, d.cfg.EmailTimeout)
	defer cancel()
	return d.mailer.Send(sendCtx, user.Email, subject, body)
}

// postSocial 只有读取投递记录失败时返回错误，发布失败写入日志表
func (d *Dispatcher) postSocial(ctx context.Context, article *models.Article, link string, report *DispatchReport) error {
	posted, err := d.notifications.HasSentSocial(article.ID)
	if err != nil {
		return fmt.Errorf("error loading social delivery log: %w", err)
	}
	if posted {
		slog.Info("social post already sent, skipping", "article_id", article.ID)
		return nil
	}
	failures, err := d.notifications.FailedSocialAttempts(article.ID)
	if err != nil {
		return fmt.Errorf("error loading social delivery log: %w", err)
	}
	if d.exhausted(failures) {
		slog.Warn("social post attempts exhausted", "article_id", article.ID, "failures", failures)
		return nil
	}

	text := ComposePostText(article.Title, article.Author.Username, link)
	media := d.loadImage(article)

	postCtx, cancel := context.WithTimeout(ctx, d.cfg.SocialTimeout)
	defer cancel()
	err = d.poster.Post(postCtx, text, media)
	d.record(report.EpisodeID, article.ID, nil, models.ChannelSocial, err)
	if err != nil {
		slog.Error("failed to publish social post", "episode", report.EpisodeID, "article_id", article.ID, "error", err)
		return nil
	}
	report.SocialPosted = true
	return nil
}

// loadImage 图片缺失时返回 nil，改为只发文字
func (d *Dispatcher) loadImage(article *models.Article) []byte {
	if article.Image == "" || d.media == nil {
		return nil
	}
	data, err := d.media.Read(article.Image)
	if err != nil {
		if errors.Is(err, ErrMediaNotFound) {
			slog.Warn("article image missing, posting text only", "article_id", article.ID, "image", article.Image)
		} else {
			slog.Error("error reading article image, posting text only", "article_id", article.ID, "error", err)
		}
		return nil
	}
	return data
}

func (d *Dispatcher) record(episode string, articleID uint, userID *uint, channel models.NotificationChannel, sendErr error) {
	n := &models.Notification{
		EpisodeID: episode,
		ArticleID: articleID,
		UserID:    userID,
		Channel:   channel,
		Status:    models.NotificationSent,
	}
	if sendErr != nil {
		n.Status = models.NotificationFailed
		if errors.Is(sendErr, ErrDeliveryUnconfirmed) {
			n.Status = models.NotificationUnconfirmed
		}
		n.Error = sendErr.Error()
	}
	if err := d.notifications.Create(n); err != nil {
		slog.Error("error recording notification", "episode", episode, "article_id", articleID, "channel", channel, "error", err)
	}
}

type approvalEmailData struct {
	Username      string
	Title         string
	AuthorName    string
	PublisherName string
	Content       template.HTML
	Link          string
	PublishedDate time.Time
}

func RenderApprovalEmail(article *models.Article, recipient *models.User, link string) (string, error) {
	data := approvalEmailData{
		Username:      recipient.Username,
		Title:         article.Title,
		AuthorName:    article.Author.Username,
		Content:       utils.RenderArticleHTML(article.ID, article.UpdatedAt, article.Content),
		Link:          link,
		PublishedDate: article.PublishedDate,
	}
	if article.Publisher != nil {
		data.PublisherName = article.Publisher.Name
	}

	var buf bytes.Buffer
	if err := approvedArticleTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute approval email template: %w", err)
	}
	return buf.String(), nil
}

func ArticleLink(siteURL string, articleID uint) string {
	return fmt.Sprintf("%s/articles/%d/", strings.TrimRight(siteURL, "/"), articleID)
}

func ComposePostText(title, author, link string) string {
	return TruncatePost(fmt.Sprintf("📰 New Article Approved! '%s' by %s. Read it here: %s", title, author, link))
}

// TruncatePost 超过 280 个字符时保留前 277 个并追加 "..."
func TruncatePost(text string) string {
	if utf8.RuneCountInString(text) <= MaxPostLength {
		return text
	}
	runes := []rune(text)
	return string(runes[:MaxPostLength-len(postEllipsis)]) + postEllipsis
}
