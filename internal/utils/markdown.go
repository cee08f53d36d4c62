package utils

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

const renderTTL = 30 * time.Minute

var (
	mdParser = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
		),
	)
	policy = bluemonday.UGCPolicy()
)

func init() {
	policy.AllowImages()
	policy.AddTargetBlankToFullyQualifiedLinks(true)
	policy.RequireNoReferrerOnLinks(true)
}

// RenderMarkdown 渲染并清洗文章正文
func RenderMarkdown(source string) template.HTML {
	var buf bytes.Buffer
	if err := mdParser.Convert([]byte(source), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(source))
	}
	return template.HTML(policy.SanitizeBytes(buf.Bytes()))
}

func articleHTMLKey(articleID uint, updatedAt time.Time) string {
	return fmt.Sprintf("article:html:%d:%d", articleID, updatedAt.UnixNano())
}

// RenderArticleHTML 按文章 ID 和更新时间缓存渲染结果
func RenderArticleHTML(articleID uint, updatedAt time.Time, source string) template.HTML {
	key := articleHTMLKey(articleID, updatedAt)
	cache := GetCache()
	if cached, ok := cache.Get(key); ok {
		return template.HTML(cached)
	}
	rendered := RenderMarkdown(source)
	cache.Set(key, string(rendered), renderTTL)
	return rendered
}

// EvictArticleHTML 文章修改或删除后移除旧版本的渲染结果
func EvictArticleHTML(articleID uint, updatedAt time.Time) {
	GetCache().Delete(articleHTMLKey(articleID, updatedAt))
}
