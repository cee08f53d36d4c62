package utils

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var blockTags = "p, div, h1, h2, h3, h4, h5, h6, li, blockquote, pre, tr, br, hr"

// HTMLToText 把 HTML 转成纯文本，用于邮件的 text/plain 部分和导入正文
func HTMLToText(htmlStr string) string {
	if strings.TrimSpace(htmlStr) == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlStr))
	if err != nil {
		return strings.TrimSpace(htmlStr)
	}

	doc.Find("script, style, head").Remove()

	// 块级元素后补换行，保留段落结构
	doc.Find(blockTags).Each(func(i int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})
	doc.Find("a").Each(func(i int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		text := strings.TrimSpace(s.Text())
		if ok && href != "" && href != text {
			s.SetText(text + " (" + href + ")")
		}
	})

	lines := strings.Split(doc.Text(), "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		out = append(out, line)
		blank = false
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
