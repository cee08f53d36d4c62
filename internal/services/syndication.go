package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"newsroom/internal/models"
	"newsroom/internal/repository"
	"newsroom/internal/utils"
	"strings"
	"time"
	"unicode/utf8"

	readability "github.com/go-shiori/go-readability"
	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"
)

const (
	maxImportItems = 50
	maxPageSize    = 5 << 20
)

// ImportResult 一次导入的统计
type ImportResult struct {
	Created []uint `json:"created"`
	Skipped int    `json:"skipped"`
	Failed  int    `json:"failed"`
}

// SyndicationImporter 从出版方的 RSS 源导入草稿，导入的文章仍需编辑审核
type SyndicationImporter struct {
	articles      *ArticleService
	repo          repository.ArticleRepository
	parser        *gofeed.Parser
	client        *http.Client
	sanitizer     *bluemonday.Policy
	fetchFullText bool
}

func NewSyndicationImporter(articles *ArticleService, repo repository.ArticleRepository, fetchFullText bool) *SyndicationImporter {
	client := &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        10,
			IdleConnTimeout:     30 * time.Second,
			MaxIdleConnsPerHost: 2,
		},
	}

	parser := gofeed.NewParser()
	parser.Client = client

	return &SyndicationImporter{
		articles:      articles,
		repo:          repo,
		parser:        parser,
		client:        client,
		sanitizer:     bluemonday.UGCPolicy(),
		fetchFullText: fetchFullText,
	}
}

// ImportFeed 已导入过的条目（按 source_url 判断）会被跳过
func (s *SyndicationImporter) ImportFeed(ctx context.Context, actor *models.User, feedURL string, publisherID *uint) (*ImportResult, error) {
	if !CanCreateArticle(actor) {
		return nil, ErrPermissionDenied
	}
	if err := validateFeedURL(feedURL); err != nil {
		return nil, err
	}

	feed, err := s.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, validationError("failed to parse feed: %v", err)
	}

	result := &ImportResult{Created: []uint{}}
	for i, item := range feed.Items {
		if i >= maxImportItems {
			break
		}
		link := strings.TrimSpace(item.Link)
		if link == "" {
			link = strings.TrimSpace(item.GUID)
		}
		if link == "" || strings.TrimSpace(item.Title) == "" {
			result.Skipped++
			continue
		}

		exists, err := s.repo.ExistsBySourceURL(link)
		if err != nil {
			return result, err
		}
		if exists {
			result.Skipped++
			continue
		}

		content := s.itemContent(ctx, item, link)
		if content == "" {
			slog.Warn("feed item has no content, skipping", "link", link)
			result.Failed++
			continue
		}

		article, err := s.articles.CreateArticle(ctx, actor, ArticleInput{
			Title:       truncateRunes(strings.TrimSpace(item.Title), maxTitleLength),
			Content:     content,
			PublisherID: publisherID,
			SourceURL:   link,
		})
		if err != nil {
			slog.Error("error importing feed item", "link", link, "error", err)
			result.Failed++
			continue
		}
		result.Created = append(result.Created, article.ID)
	}

	slog.Info("feed imported", "feed", feedURL, "author_id", actor.ID, "created", len(result.Created), "skipped", result.Skipped, "failed", result.Failed)
	return result, nil
}

// itemContent 优先抓取原文正文，失败时退回 content:encoded 或 description
func (s *SyndicationImporter) itemContent(ctx context.Context, item *gofeed.Item, link string) string {
	var raw string
	if s.fetchFullText {
		content, err := s.fetchArticle(ctx, link)
		if err != nil {
			slog.Warn("full text extraction failed, using feed content", "link", link, "error", err)
		} else {
			raw = content
		}
	}
	if raw == "" {
		raw = item.Content
	}
	if raw == "" {
		raw = item.Description
	}
	return strings.TrimSpace(utils.HTMLToText(s.sanitizer.Sanitize(raw)))
}

func (s *SyndicationImporter) fetchArticle(ctx context.Context, pageURL string) (string, error) {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; NewsroomImporter/1.0)")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	article, err := readability.FromReader(io.LimitReader(resp.Body, maxPageSize), parsed)
	if err != nil {
		return "", fmt.Errorf("error extracting content: %w", err)
	}
	return article.Content, nil
}

func validateFeedURL(feedURL string) error {
	u, err := url.Parse(strings.TrimSpace(feedURL))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return validationError("feed url must be an absolute http(s) url")
	}
	return nil
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
