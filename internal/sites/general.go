package sites

import (
	"errors"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/RecoveryAshes/MediaCrawl/internal/crawlers"
	"github.com/RecoveryAshes/MediaCrawl/internal/models"
	"github.com/RecoveryAshes/MediaCrawl/internal/utils"
)

// GeneralExtractor 通用页面媒体提取
// 收集媒体链接、图片和视频,以页面标题作为标签
type GeneralExtractor struct{}

// NewGeneralExtractor 创建通用提取器
func NewGeneralExtractor() *GeneralExtractor {
	return &GeneralExtractor{}
}

// ExtractMedia 实现 crawlers.MediaExtractor
// 媒体链接 a[href] 在前,其后 img/video/source 按文档顺序,只保留媒体扩展名
func (e *GeneralExtractor) ExtractMedia(page *models.Page) ([]models.Task, error) {
	if strings.TrimSpace(page.Markup) == "" {
		return nil, &crawlers.ExtractionError{URL: page.URL, Cause: errors.New("页面内容为空")}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.Markup))
	if err != nil {
		return nil, &crawlers.ExtractionError{URL: page.URL, Cause: err}
	}

	base, err := url.Parse(page.URL)
	if err != nil {
		return nil, &crawlers.ExtractionError{URL: page.URL, Cause: err}
	}

	label := PageLabel(doc, base)

	var sources []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if IsMedia(href) {
			sources = append(sources, href)
		}
		// 链接文字本身是媒体URL
		if text := strings.TrimSpace(s.Text()); IsMedia(text) {
			sources = append(sources, text)
		}
	})
	doc.Find("img[src], video[src], video source[src]").Each(func(_ int, s *goquery.Selection) {
		if src, _ := s.Attr("src"); IsMedia(src) {
			sources = append(sources, src)
		}
	})

	tasks := make([]models.Task, 0, len(sources))
	for _, src := range sources {
		abs, ok := resolveMedia(base, src)
		if !ok {
			continue
		}
		tasks = append(tasks, models.Task{MediaURL: abs, Label: label})
	}
	return tasks, nil
}

// PageLabel 清洗后的页面标题,无标题时使用主机名
func PageLabel(doc *goquery.Document, base *url.URL) string {
	if title := utils.SanitizeFilename(doc.Find("title").First().Text()); title != "" {
		return title
	}
	return utils.SanitizeFilename(base.Host)
}

// resolveMedia 相对当前页解析,只保留 http/https
func resolveMedia(base *url.URL, src string) (string, bool) {
	src = strings.TrimSpace(src)
	if src == "" {
		return "", false
	}
	ref, err := url.Parse(src)
	if err != nil {
		return "", false
	}
	abs := base.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return "", false
	}
	return abs.String(), true
}
